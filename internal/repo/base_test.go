package repo

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	return conn
}

func TestNewBaseStoresConnection(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if base.db != db {
		t.Fatalf("expected base db to match provided connection")
	}
}

func TestBaseDB_BindsContext(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	withCtx := base.DB(ctx)

	if withCtx == nil {
		t.Fatalf("expected non-nil DB when context provided")
	}
	if withCtx.Statement == nil {
		t.Fatalf("expected statement created after WithContext")
	}
	if withCtx.Statement.Context != ctx {
		t.Fatalf("expected context to flow through, got %v", withCtx.Statement.Context)
	}

	withoutCtx := base.DB(nil)
	if withoutCtx != db {
		t.Fatalf("expected nil context to return raw connection")
	}
}

func TestBaseWithTx(t *testing.T) {
	db := newTestDB(t)
	base := NewBase(db)

	if got := base.WithTx(nil); got.db != db {
		t.Fatalf("nil tx should keep the original connection")
	}
	tx := db.Session(&gorm.Session{NewDB: true})
	if got := base.WithTx(tx); got.db != tx {
		t.Fatalf("expected tx to replace the connection")
	}
}

func TestMapError(t *testing.T) {
	if MapError(nil, "order") != nil {
		t.Fatalf("nil error should stay nil")
	}
	if code := pkgerrors.CodeOf(MapError(gorm.ErrRecordNotFound, "order")); code != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %s", code)
	}
	typed := pkgerrors.New(pkgerrors.CodeNotReady, "batch")
	if MapError(typed, "order") != error(typed) {
		t.Fatalf("typed errors should pass through")
	}
	if code := pkgerrors.CodeOf(MapError(errors.New("conn reset"), "order")); code != pkgerrors.CodeDependency {
		t.Fatalf("expected DEPENDENCY_ERROR, got %s", code)
	}
}
