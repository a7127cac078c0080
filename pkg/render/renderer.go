package render

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

//go:embed templates/*.html
var templateFS embed.FS

// Document is everything a fulfillment document prints.
type Document struct {
	Type          enums.DocumentType
	Number        string
	OrderID       uuid.UUID
	OrderDate     time.Time
	CustomerID    uuid.UUID
	PaymentMethod string
	Vendor        *Party
	Lines         []Line
	Subtotal      decimal.Decimal
	Commission    decimal.Decimal
	Payout        decimal.Decimal
	GeneratedAt   time.Time
}

// Party is the vendor block on vendor facing documents.
type Party struct {
	ID    uuid.UUID
	Name  string
	GSTIN string
}

type Line struct {
	ItemID       uuid.UUID
	ProductName  string
	Quantity     int
	UnitPrice    decimal.Decimal
	LineTotal    decimal.Decimal
	Commission   decimal.Decimal
	Status       enums.ItemStatus
	DispatchCode string
}

// PDFConverter turns HTML into PDF bytes.
type PDFConverter interface {
	ConvertHTML(ctx context.Context, html []byte) ([]byte, error)
}

// Renderer executes the document templates and converts them to PDF.
type Renderer struct {
	converter PDFConverter
	templates *template.Template
}

func NewRenderer(converter PDFConverter) (*Renderer, error) {
	funcs := template.FuncMap{
		"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
		"date": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006")
		},
		"short": func(id uuid.UUID) string { return id.String()[:8] },
	}
	tpl, err := template.New("documents").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse document templates: %w", err)
	}
	return &Renderer{converter: converter, templates: tpl}, nil
}

// HTML executes the template for the document type.
func (r *Renderer) HTML(doc Document) ([]byte, error) {
	name, err := templateFor(doc.Type)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := r.templates.ExecuteTemplate(&buf, name, doc); err != nil {
		return nil, fmt.Errorf("execute %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Render produces the PDF for doc.
func (r *Renderer) Render(ctx context.Context, doc Document) ([]byte, error) {
	html, err := r.HTML(doc)
	if err != nil {
		return nil, err
	}
	return r.converter.ConvertHTML(ctx, html)
}

func templateFor(t enums.DocumentType) (string, error) {
	switch t {
	case enums.DocumentTypeInvoice:
		return "invoice.html", nil
	case enums.DocumentTypeVendorInvoice:
		return "vendor_invoice.html", nil
	case enums.DocumentTypeCustomerPO, enums.DocumentTypeVendorPO:
		return "purchase_order.html", nil
	default:
		return "", fmt.Errorf("no template for document type %q", t)
	}
}
