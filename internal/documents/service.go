package documents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/repo"
	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/metrics"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/vendorhub-backend/pkg/render"
)

const pdfContentType = "application/pdf"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Renderer turns a document model into PDF bytes.
type Renderer interface {
	Render(ctx context.Context, doc render.Document) ([]byte, error)
}

// ObjectStore stores rendered PDFs and returns their URL.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Service generates order documents. Each (order, vendor scope, type) key
// maps to at most one stored artifact.
type Service interface {
	Generate(ctx context.Context, input GenerateInput) (*GenerateResult, error)
	List(ctx context.Context, orderID uuid.UUID, viewer auth.Actor) ([]DocumentDTO, error)
}

// GenerateInput requests a document. VendorID is required to be nil for
// customer facing types; for vendor facing types a nil VendorID asks for one
// document per vendor on the order.
type GenerateInput struct {
	OrderID  uuid.UUID
	VendorID *uuid.UUID
	Type     enums.DocumentType
	Actor    auth.Actor
}

// ServiceParams carries the collaborators of the documents service.
type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Outbox     outboxPublisher
	Renderer   Renderer
	Store      ObjectStore
	Metrics    *metrics.Fulfillment
}

type service struct {
	repo     Repository
	tx       txRunner
	outbox   outboxPublisher
	renderer Renderer
	store    ObjectStore
	metrics  *metrics.Fulfillment
	now      func() time.Time
}

// NewService builds the documents service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if params.Renderer == nil {
		return nil, fmt.Errorf("renderer required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("object store required")
	}
	return &service{
		repo:     params.Repository,
		tx:       params.Tx,
		outbox:   params.Outbox,
		renderer: params.Renderer,
		store:    params.Store,
		metrics:  params.Metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}, nil
}

// StorageKey is the deterministic object key of a document.
func StorageKey(orderID uuid.UUID, scope string, docType enums.DocumentType) string {
	return fmt.Sprintf("documents/%s/%s/%s.pdf", orderID, scope, strings.ToLower(string(docType)))
}

func lockKey(orderID uuid.UUID, scope string, docType enums.DocumentType) string {
	return fmt.Sprintf("documents:%s:%s:%s", orderID, scope, docType)
}

func (s *service) Generate(ctx context.Context, input GenerateInput) (*GenerateResult, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid document type")
	}
	if !input.Type.VendorScoped() && input.VendorID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer documents take no vendor").
			WithDetails(map[string]any{"type": input.Type})
	}

	order, err := s.repo.FindOrder(ctx, input.OrderID)
	if err != nil {
		return nil, repo.MapError(err, "order")
	}
	vendorID, err := authorizeGenerate(input, *order)
	if err != nil {
		return nil, err
	}

	scopes := []*uuid.UUID{nil}
	if input.Type.VendorScoped() {
		if vendorID != nil {
			scopes = []*uuid.UUID{vendorID}
		} else {
			scopes = nil
			for _, id := range liveVendorIDs(order.Items) {
				id := id
				scopes = append(scopes, &id)
			}
			if len(scopes) == 0 {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order has no live items")
			}
		}
	}

	result := &GenerateResult{Documents: make([]DocumentDTO, 0, len(scopes))}
	for _, scope := range scopes {
		doc, created, err := s.generateOne(ctx, *order, scope, input)
		if err != nil {
			s.metrics.Document(string(input.Type), "failed")
			return nil, err
		}
		if created {
			s.metrics.Document(string(input.Type), "created")
			result.Created = true
		} else {
			s.metrics.Document(string(input.Type), "reused")
		}
		result.Documents = append(result.Documents, newDocumentDTO(*doc))
	}
	return result, nil
}

func (s *service) generateOne(ctx context.Context, order models.Order, vendorID *uuid.UUID, input GenerateInput) (*models.GeneratedDocument, bool, error) {
	scope := models.ScopeFor(vendorID)
	existing, err := s.repo.FindDocument(ctx, order.ID, scope, input.Type)
	if err != nil {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
	}
	if existing != nil {
		return existing, false, nil
	}

	items := subset(order.Items, vendorID)
	if len(items) == 0 {
		return nil, false, pkgerrors.New(pkgerrors.CodeNotFound, "no items for this document")
	}
	if input.Type.IsInvoice() {
		if pending := unshipped(items); len(pending) > 0 {
			return nil, false, pkgerrors.New(pkgerrors.CodeNotReady, "invoices need every item shipped or delivered").
				WithDetails(map[string]any{"items": pending})
		}
	}
	var vendor *models.Vendor
	if vendorID != nil {
		vendor, err = s.repo.FindVendor(ctx, *vendorID)
		if err != nil {
			return nil, false, repo.MapError(err, "vendor")
		}
	}

	var doc *models.GeneratedDocument
	created := false
	uploaded := ""
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := db.AdvisoryXactLock(tx, lockKey(order.ID, scope, input.Type)); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock document key")
		}
		winner, err := txRepo.FindDocument(ctx, order.ID, scope, input.Type)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
		}
		if winner != nil {
			doc = winner
			return nil
		}

		pdf, err := s.renderer.Render(ctx, s.renderModel(order, vendor, items, input.Type))
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "render document").
				WithDetails(map[string]any{"stage": "render"})
		}
		key := StorageKey(order.ID, scope, input.Type)
		url, err := s.store.Put(ctx, key, pdf, pdfContentType)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeExternalService, err, "store document").
				WithDetails(map[string]any{"stage": "storage"})
		}
		uploaded = key

		row := &models.GeneratedDocument{
			ID:          uuid.New(),
			OrderID:     order.ID,
			VendorID:    vendorID,
			VendorScope: scope,
			DocType:     input.Type,
			StorageKey:  key,
			URL:         url,
		}
		inserted, err := txRepo.InsertDocument(ctx, row)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record document")
		}
		if !inserted {
			doc, err = txRepo.FindDocument(ctx, order.ID, scope, input.Type)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load document")
			}
			if doc == nil {
				return pkgerrors.New(pkgerrors.CodeConflict, "document key held by an invisible row")
			}
			return nil
		}
		doc = row
		created = true
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventDocumentGenerated,
			AggregateType: enums.AggregateDocument,
			AggregateID:   row.ID,
			Actor:         input.Actor.Ref(),
			Data: payloads.DocumentGeneratedEvent{
				DocumentID: row.ID,
				OrderID:    order.ID,
				VendorID:   vendorID,
				Type:       input.Type,
				URL:        url,
			},
		})
	})
	if err != nil {
		if uploaded != "" && !s.recorded(ctx, order.ID, scope, input.Type) {
			// best effort: the key is deterministic, a leftover object is overwritten by the next attempt
			_ = s.store.Delete(ctx, uploaded)
		}
		return nil, false, err
	}
	return doc, created, nil
}

// recorded reports whether a committed row already points at the document's
// storage key. The object under that key then belongs to the row, so a failed
// attempt must leave it in place. An unreadable table counts as recorded.
func (s *service) recorded(ctx context.Context, orderID uuid.UUID, scope string, docType enums.DocumentType) bool {
	doc, err := s.repo.FindDocument(ctx, orderID, scope, docType)
	return err != nil || doc != nil
}

func (s *service) renderModel(order models.Order, vendor *models.Vendor, items []models.OrderItem, docType enums.DocumentType) render.Document {
	doc := render.Document{
		Type:          docType,
		Number:        documentNumber(order.ID, vendor, docType),
		OrderID:       order.ID,
		OrderDate:     order.CreatedAt,
		CustomerID:    order.CustomerID,
		PaymentMethod: string(order.PaymentMethod),
		Subtotal:      decimal.Zero,
		Commission:    decimal.Zero,
		Payout:        decimal.Zero,
		GeneratedAt:   s.now(),
	}
	if vendor != nil {
		party := &render.Party{ID: vendor.ID, Name: vendor.Name}
		if vendor.GSTIN != nil {
			party.GSTIN = *vendor.GSTIN
		}
		doc.Vendor = party
	}
	for _, item := range items {
		line := render.Line{
			ItemID:      item.ID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.Subtotal(),
			Commission:  item.CommissionAmount,
			Status:      item.Status,
		}
		if vendor != nil && item.DispatchCode != nil {
			line.DispatchCode = *item.DispatchCode
		}
		doc.Lines = append(doc.Lines, line)
		doc.Subtotal = doc.Subtotal.Add(line.LineTotal)
		doc.Commission = doc.Commission.Add(item.CommissionAmount)
		doc.Payout = doc.Payout.Add(item.VendorPayout)
	}
	return doc
}

func documentNumber(orderID uuid.UUID, vendor *models.Vendor, docType enums.DocumentType) string {
	prefix := map[enums.DocumentType]string{
		enums.DocumentTypeInvoice:       "INV",
		enums.DocumentTypeCustomerPO:    "CPO",
		enums.DocumentTypeVendorPO:      "VPO",
		enums.DocumentTypeVendorInvoice: "VINV",
	}[docType]
	number := prefix + "-" + strings.ToUpper(orderID.String()[:8])
	if vendor != nil {
		number += "-" + strings.ToUpper(vendor.ID.String()[:4])
	}
	return number
}

func (s *service) List(ctx context.Context, orderID uuid.UUID, viewer auth.Actor) ([]DocumentDTO, error) {
	order, err := s.repo.FindOrder(ctx, orderID)
	if err != nil {
		return nil, repo.MapError(err, "order")
	}
	if viewer.IsCustomer() && order.CustomerID != viewer.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	if viewer.IsCourier() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "couriers cannot list documents")
	}
	docs, err := s.repo.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	out := make([]DocumentDTO, 0, len(docs))
	for _, doc := range docs {
		switch {
		case viewer.IsCustomer() && doc.VendorID != nil:
			continue
		case viewer.IsVendor() && (doc.VendorID == nil || !viewer.OwnsVendor(*doc.VendorID)):
			continue
		}
		out = append(out, newDocumentDTO(doc))
	}
	return out, nil
}

// authorizeGenerate checks the actor against the request and returns the
// vendor the request resolves to. Vendors asking for a vendor document
// without naming a vendor get their own.
func authorizeGenerate(input GenerateInput, order models.Order) (*uuid.UUID, error) {
	actor := input.Actor
	switch {
	case actor.IsAdmin():
		return input.VendorID, nil
	case actor.IsCustomer():
		if input.Type.VendorScoped() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "customers only request customer documents")
		}
		if order.CustomerID != actor.ID {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, nil
	case actor.IsVendor():
		if !input.Type.VendorScoped() {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendors only request vendor documents")
		}
		if input.VendorID == nil {
			return actor.VendorID, nil
		}
		if !actor.OwnsVendor(*input.VendorID) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor mismatch")
		}
		return input.VendorID, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role cannot generate documents")
}

// subset returns the live items a document covers: all of them for customer
// documents, the vendor's for vendor documents.
func subset(items []models.OrderItem, vendorID *uuid.UUID) []models.OrderItem {
	var out []models.OrderItem
	for _, item := range items {
		if item.Status.IsWithdrawn() {
			continue
		}
		if vendorID != nil && item.VendorID != *vendorID {
			continue
		}
		out = append(out, item)
	}
	return out
}

func unshipped(items []models.OrderItem) []map[string]any {
	var out []map[string]any
	for _, item := range items {
		if item.Status != enums.ItemStatusShipped && item.Status != enums.ItemStatusDelivered {
			out = append(out, map[string]any{"id": item.ID, "status": item.Status})
		}
	}
	return out
}

func liveVendorIDs(items []models.OrderItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, item := range items {
		if item.Status.IsWithdrawn() {
			continue
		}
		if _, ok := seen[item.VendorID]; ok {
			continue
		}
		seen[item.VendorID] = struct{}{}
		ids = append(ids, item.VendorID)
	}
	return ids
}
