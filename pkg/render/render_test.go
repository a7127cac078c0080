package render

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

func sampleDocument(t enums.DocumentType) Document {
	return Document{
		Type:          t,
		Number:        "INV-0001",
		OrderID:       uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		OrderDate:     time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		PaymentMethod: "UPI",
		Vendor:        &Party{Name: "Acme <Spices>", GSTIN: "29ABCDE1234F1Z5"},
		Lines: []Line{{
			ItemID:      uuid.New(),
			ProductName: "Cardamom 100g",
			Quantity:    2,
			UnitPrice:   decimal.RequireFromString("149.50"),
			LineTotal:   decimal.RequireFromString("299.00"),
			Commission:  decimal.RequireFromString("29.90"),
			Status:      enums.ItemStatusShipped,
		}},
		Subtotal:   decimal.RequireFromString("299"),
		Commission: decimal.RequireFromString("29.9"),
		Payout:     decimal.RequireFromString("269.1"),
	}
}

func TestHTMLPerDocumentType(t *testing.T) {
	r, err := NewRenderer(nil)
	require.NoError(t, err)

	html, err := r.HTML(sampleDocument(enums.DocumentTypeVendorInvoice))
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "Vendor Invoice")
	assert.Contains(t, out, "269.10")
	assert.Contains(t, out, "Acme &lt;Spices&gt;")

	html, err = r.HTML(sampleDocument(enums.DocumentTypeCustomerPO))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Purchase Order")
	assert.Contains(t, string(html), "SHIPPED")

	_, err = r.HTML(sampleDocument("RECEIPT"))
	assert.Error(t, err)
}

func TestRenderConvertsThroughGotenberg(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		require.NoError(t, err)
		reader := multipart.NewReader(r.Body, params["boundary"])
		part, err := reader.NextPart()
		require.NoError(t, err)
		assert.Equal(t, "index.html", part.FileName())
		body, _ := io.ReadAll(part)
		assert.True(t, strings.Contains(string(body), "Tax Invoice"))
		w.Header().Set("Content-Type", "application/pdf")
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	r, err := NewRenderer(NewGotenberg(config.RendererConfig{GotenbergURL: srv.URL + "/"}))
	require.NoError(t, err)

	pdf, err := r.Render(context.Background(), sampleDocument(enums.DocumentTypeInvoice))
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.7"), pdf)
}

func TestGotenbergErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "chromium crashed", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewGotenberg(config.RendererConfig{GotenbergURL: srv.URL}).ConvertHTML(context.Background(), []byte("<p>x</p>"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

type failingConverter struct{}

func (failingConverter) ConvertHTML(context.Context, []byte) ([]byte, error) {
	return nil, errors.New("down")
}

func TestRenderPropagatesConverterFailure(t *testing.T) {
	r, err := NewRenderer(failingConverter{})
	require.NoError(t, err)
	_, err = r.Render(context.Background(), sampleDocument(enums.DocumentTypeInvoice))
	assert.EqualError(t, err, "down")
}

func TestGotenbergPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	assert.NoError(t, NewGotenberg(config.RendererConfig{GotenbergURL: srv.URL}).Ping(context.Background()))
}
