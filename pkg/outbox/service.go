package outbox

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

// Emitter is the write side used by domain services inside their transaction.
type Emitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error
}

type Service struct {
	repo *Repository
	logg *logger.Logger
}

func NewService(repo *Repository, logg *logger.Logger) *Service {
	return &Service{repo: repo, logg: logg}
}

// Emit queues the event on tx. The row commits or rolls back with the
// domain change that produced it; the publisher picks it up afterwards.
func (s *Service) Emit(ctx context.Context, tx *gorm.DB, event DomainEvent) error {
	if tx == nil {
		return errors.New("outbox emit requires a transaction")
	}
	if err := event.validate(); err != nil {
		return err
	}
	env, raw, err := event.seal()
	if err != nil {
		return err
	}

	if err := s.repo.Insert(tx, models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       raw,
	}); err != nil {
		return err
	}

	if s.logg != nil {
		s.logg.Debug(s.logg.WithFields(ctx, map[string]any{
			"event_id":     env.EventID,
			"event_type":   event.EventType,
			"aggregate_id": event.AggregateID.String(),
		}), "outbox.queued")
	}
	return nil
}
