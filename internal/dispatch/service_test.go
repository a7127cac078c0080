package dispatch

import (
	"context"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
)

var admin = auth.Actor{ID: uuid.New(), Role: enums.ActorRoleAdmin}

func TestNewCodeFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9]{6}$`)
	for i := 0; i < 200; i++ {
		code, err := NewCode()
		require.NoError(t, err)
		require.Regexp(t, pattern, code)
	}
}

func seedItems(t *testing.T, conn *gorm.DB, orderID, vendorID uuid.UUID, statuses ...enums.ItemStatus) []models.OrderItem {
	t.Helper()
	items := make([]models.OrderItem, 0, len(statuses))
	for i, status := range statuses {
		item := models.OrderItem{
			ID:                uuid.New(),
			OrderID:           orderID,
			ProductID:         uuid.New(),
			VendorID:          vendorID,
			LineNo:            i + 1,
			ProductName:       "Item",
			Quantity:          1,
			UnitPrice:         decimal.NewFromInt(10),
			CommissionPercent: decimal.NewFromInt(10),
			CommissionAmount:  decimal.NewFromInt(1),
			VendorPayout:      decimal.NewFromInt(9),
			Status:            status,
		}
		require.NoError(t, conn.Create(&item).Error)
		items = append(items, item)
	}
	return items
}

func newDBService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.NewFromGorm(conn), outbox.NewService(outbox.NewRepository(conn), nil), nil)
	require.NoError(t, err)
	return svc, conn
}

func countEvents(t *testing.T, conn *gorm.DB, eventType enums.OutboxEventType) int {
	t.Helper()
	var n int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&n).Error)
	return int(n)
}

func TestIssueCodeShipsProcessingBatch(t *testing.T) {
	svc, conn := newDBService(t)
	ctx := context.Background()
	orderID, vendorID := uuid.New(), uuid.New()
	seedItems(t, conn, orderID, vendorID, enums.ItemStatusProcessing, enums.ItemStatusProcessing, enums.ItemStatusRejected)
	seedItems(t, conn, orderID, uuid.New(), enums.ItemStatusPending)

	vendor := auth.Actor{ID: uuid.New(), Role: enums.ActorRoleVendor, VendorID: &vendorID}
	dto, err := svc.IssueCode(ctx, IssueCodeInput{OrderID: orderID, VendorID: vendorID, Actor: vendor})
	require.NoError(t, err)
	assert.True(t, dto.Issued)
	assert.Len(t, dto.Code, 6)
	require.Len(t, dto.Items, 2)

	var shipped []models.OrderItem
	require.NoError(t, conn.Where("order_id = ? AND vendor_id = ? AND status = ?", orderID, vendorID, enums.ItemStatusShipped).Find(&shipped).Error)
	require.Len(t, shipped, 2)
	for _, item := range shipped {
		require.NotNil(t, item.DispatchCode)
		assert.Equal(t, dto.Code, *item.DispatchCode)
		assert.NotNil(t, item.DispatchCodeCreatedAt)
	}
	assert.Equal(t, 1, countEvents(t, conn, enums.EventDispatchCodeIssued))
	assert.Equal(t, 2, countEvents(t, conn, enums.EventOrderItemStatusChanged))

	again, err := svc.IssueCode(ctx, IssueCodeInput{OrderID: orderID, VendorID: vendorID, Actor: admin})
	require.NoError(t, err)
	assert.False(t, again.Issued)
	assert.Equal(t, dto.Code, again.Code)
	assert.Equal(t, 1, countEvents(t, conn, enums.EventDispatchCodeIssued))
}

func TestIssueCodeNotReady(t *testing.T) {
	svc, conn := newDBService(t)
	orderID, vendorID := uuid.New(), uuid.New()
	items := seedItems(t, conn, orderID, vendorID, enums.ItemStatusProcessing, enums.ItemStatusPending)

	_, err := svc.IssueCode(context.Background(), IssueCodeInput{OrderID: orderID, VendorID: vendorID, Actor: admin})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotReady, typed.Code())
	details, ok := typed.Details().(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []BatchItem{{ID: items[1].ID, Status: enums.ItemStatusPending}}, details["items"])

	var stillProcessing int64
	require.NoError(t, conn.Model(&models.OrderItem{}).Where("id = ? AND status = ?", items[0].ID, enums.ItemStatusProcessing).Count(&stillProcessing).Error)
	assert.EqualValues(t, 1, stillProcessing)
}

func TestIssueCodeEmptyBatchAndAccess(t *testing.T) {
	svc, conn := newDBService(t)
	ctx := context.Background()
	orderID, vendorID := uuid.New(), uuid.New()
	seedItems(t, conn, orderID, vendorID, enums.ItemStatusCancelled)

	_, err := svc.IssueCode(ctx, IssueCodeInput{OrderID: orderID, VendorID: vendorID, Actor: admin})
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.CodeOf(err))

	other := uuid.New()
	_, err = svc.IssueCode(ctx, IssueCodeInput{OrderID: orderID, VendorID: vendorID, Actor: auth.Actor{Role: enums.ActorRoleVendor, VendorID: &other}})
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.CodeOf(err))

	_, err = svc.IssueCode(ctx, IssueCodeInput{OrderID: orderID, Actor: admin})
	assert.Equal(t, pkgerrors.CodeValidation, pkgerrors.CodeOf(err))
}

func TestIssueCodeConcurrentCallersShareOneCode(t *testing.T) {
	svc, conn := newDBService(t)
	orderID, vendorID := uuid.New(), uuid.New()
	seedItems(t, conn, orderID, vendorID, enums.ItemStatusProcessing, enums.ItemStatusProcessing, enums.ItemStatusProcessing)

	const callers = 10
	codes := make(chan string, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			dto, err := svc.IssueCode(context.Background(), IssueCodeInput{OrderID: orderID, VendorID: vendorID, Actor: admin})
			if err != nil {
				t.Errorf("issue code: %v", err)
				return
			}
			codes <- dto.Code
		}()
	}
	wg.Wait()
	close(codes)

	var first string
	for code := range codes {
		if first == "" {
			first = code
		}
		assert.Equal(t, first, code)
	}
	assert.Equal(t, 1, countEvents(t, conn, enums.EventDispatchCodeIssued))
}

type stubRepo struct {
	listFn func() []models.OrderItem
	shipFn func(ids []uuid.UUID) int64
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) ListBatch(ctx context.Context, orderID, vendorID uuid.UUID) ([]models.OrderItem, error) {
	return s.listFn(), nil
}

func (s *stubRepo) ShipBatch(ctx context.Context, itemIDs []uuid.UUID, code string, at time.Time) (int64, error) {
	return s.shipFn(itemIDs), nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func TestIssueCodeLoserReturnsWinnersCode(t *testing.T) {
	orderID, vendorID := uuid.New(), uuid.New()
	winner := "424242"
	created := time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)
	ids := []uuid.UUID{uuid.New(), uuid.New()}

	reads := 0
	repo := &stubRepo{
		listFn: func() []models.OrderItem {
			reads++
			status := enums.ItemStatusProcessing
			var code *string
			var at *time.Time
			if reads > 1 {
				status = enums.ItemStatusShipped
				code, at = &winner, &created
			}
			items := make([]models.OrderItem, 0, len(ids))
			for _, id := range ids {
				items = append(items, models.OrderItem{ID: id, OrderID: orderID, VendorID: vendorID, Status: status, DispatchCode: code, DispatchCodeCreatedAt: at})
			}
			return items
		},
		shipFn: func(ids []uuid.UUID) int64 { return 1 },
	}
	events := &stubOutbox{}
	svc, err := NewService(repo, stubTxRunner{}, events, nil)
	require.NoError(t, err)

	dto, err := svc.IssueCode(context.Background(), IssueCodeInput{OrderID: orderID, VendorID: vendorID, Actor: admin})
	require.NoError(t, err)
	assert.False(t, dto.Issued)
	assert.Equal(t, winner, dto.Code)
	assert.True(t, dto.CreatedAt.Equal(created))
	assert.Empty(t, events.events)
	assert.Equal(t, 2, reads)
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	_, err := NewService(nil, stubTxRunner{}, &stubOutbox{}, nil)
	require.Error(t, err)
}
