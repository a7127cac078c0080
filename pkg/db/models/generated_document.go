package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// PlatformScope is the vendor_scope value of customer facing documents.
const PlatformScope = "platform"

// GeneratedDocument is the single stored artifact for one
// (order, vendor scope, document type) key.
type GeneratedDocument struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID     uuid.UUID          `gorm:"column:order_id;type:uuid;not null"`
	VendorID    *uuid.UUID         `gorm:"column:vendor_id;type:uuid"`
	VendorScope string             `gorm:"column:vendor_scope;not null"`
	DocType     enums.DocumentType `gorm:"column:doc_type;not null"`
	StorageKey  string             `gorm:"column:storage_key;not null"`
	URL         string             `gorm:"column:url;not null"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

// ScopeFor returns the vendor_scope value for an optional vendor.
func ScopeFor(vendorID *uuid.UUID) string {
	if vendorID == nil || *vendorID == uuid.Nil {
		return PlatformScope
	}
	return vendorID.String()
}
