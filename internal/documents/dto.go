package documents

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
)

// DocumentDTO is a stored document as returned to clients.
type DocumentDTO struct {
	ID        uuid.UUID          `json:"id"`
	OrderID   uuid.UUID          `json:"order_id"`
	VendorID  *uuid.UUID         `json:"vendor_id,omitempty"`
	Type      enums.DocumentType `json:"type"`
	URL       string             `json:"url"`
	CreatedAt time.Time          `json:"created_at"`
}

// GenerateResult lists the documents a call resolved to. Created is true when
// at least one of them was produced by this call.
type GenerateResult struct {
	Documents []DocumentDTO `json:"documents"`
	Created   bool          `json:"created"`
}

func newDocumentDTO(doc models.GeneratedDocument) DocumentDTO {
	return DocumentDTO{
		ID:        doc.ID,
		OrderID:   doc.OrderID,
		VendorID:  doc.VendorID,
		Type:      doc.DocType,
		URL:       doc.URL,
		CreatedAt: doc.CreatedAt,
	}
}
