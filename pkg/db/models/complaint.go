package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// Complaint is an order scoped escalation with no settlement effect.
type Complaint struct {
	ID         uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	CustomerID uuid.UUID             `gorm:"column:customer_id;type:uuid;not null"`
	Subject    string                `gorm:"column:subject;not null"`
	Body       string                `gorm:"column:body;not null"`
	Status     enums.ComplaintStatus `gorm:"column:status;not null;default:'OPEN'"`
	Resolution *string               `gorm:"column:resolution"`
	CreatedAt  time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
