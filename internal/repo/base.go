package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
)

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// WithTx rebinds the base to tx. A nil tx keeps the current connection.
func (b Base) WithTx(tx *gorm.DB) Base {
	if tx == nil {
		return b
	}
	return Base{db: tx}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// MapError converts a persistence error into the API taxonomy: a missing row
// becomes NOT_FOUND for entity, typed errors pass through, anything else is a
// dependency failure.
func MapError(err error, entity string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, entity+" not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load "+entity)
}
