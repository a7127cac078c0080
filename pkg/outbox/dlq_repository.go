package outbox

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
)

const maxDLQErrorLen = 1024

// DLQRepository parks outbox events the publisher gave up on.
type DLQRepository struct {
	db *gorm.DB
}

func NewDLQRepository(db *gorm.DB) *DLQRepository {
	return &DLQRepository{db: db}
}

// InsertTx records a dead letter inside the publisher's batch transaction so
// the outbox row and its dead letter commit together.
func (r *DLQRepository) InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ErrorMessage != nil && len(*entry.ErrorMessage) > maxDLQErrorLen {
		msg := (*entry.ErrorMessage)[:maxDLQErrorLen]
		entry.ErrorMessage = &msg
	}
	return tx.Create(&entry).Error
}

// CountFailedSince counts dead letters grouped by event type for rows that
// failed at or after since.
func (r *DLQRepository) CountFailedSince(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []struct {
		EventType string
		Total     int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.OutboxDLQ{}).
		Select("event_type, COUNT(*) AS total").
		Where("failed_at >= ?", since).
		Group("event_type").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.EventType] = row.Total
	}
	return counts, nil
}
