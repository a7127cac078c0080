// Package complaints handles order level escalations. Complaints never move
// money or item status.
package complaints

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/internal/repo"
	"github.com/angelmondragon/vendorhub-backend/pkg/auth"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/vendorhub-backend/pkg/errors"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type Service interface {
	Open(ctx context.Context, input OpenInput) (*ComplaintDTO, error)
	Advance(ctx context.Context, input AdvanceInput) (*ComplaintDTO, error)
	Get(ctx context.Context, id uuid.UUID, viewer auth.Actor) (*ComplaintDTO, error)
}

type OpenInput struct {
	OrderID uuid.UUID
	Subject string
	Body    string
	Actor   auth.Actor
}

type AdvanceInput struct {
	ID         uuid.UUID
	Status     enums.ComplaintStatus
	Resolution *string
	Actor      auth.Actor
}

type ComplaintDTO struct {
	ID         uuid.UUID             `json:"id"`
	OrderID    uuid.UUID             `json:"order_id"`
	CustomerID uuid.UUID             `json:"customer_id"`
	Subject    string                `json:"subject"`
	Body       string                `json:"body"`
	Status     enums.ComplaintStatus `json:"status"`
	Resolution *string               `json:"resolution,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

var complaintTransitions = map[enums.ComplaintStatus][]enums.ComplaintStatus{
	enums.ComplaintStatusOpen:     {enums.ComplaintStatusInReview, enums.ComplaintStatusResolved},
	enums.ComplaintStatusInReview: {enums.ComplaintStatusResolved},
}

// CanAdvance reports whether a complaint may move from one status to another.
func CanAdvance(from, to enums.ComplaintStatus) bool {
	for _, candidate := range complaintTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

func NewService(complaintsRepo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if complaintsRepo == nil {
		return nil, fmt.Errorf("complaints repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: complaintsRepo, tx: tx, outbox: outbox}, nil
}

func (s *service) Open(ctx context.Context, input OpenInput) (*ComplaintDTO, error) {
	if !input.Actor.IsCustomer() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only customers open complaints")
	}
	subject := strings.TrimSpace(input.Subject)
	body := strings.TrimSpace(input.Body)
	if subject == "" || body == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "subject and body are required")
	}

	var created *models.Complaint
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		order, err := txRepo.FindOrder(ctx, input.OrderID)
		if err != nil {
			return repo.MapError(err, "order")
		}
		if order.CustomerID != input.Actor.ID {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		complaint := &models.Complaint{
			ID:         uuid.New(),
			OrderID:    order.ID,
			CustomerID: order.CustomerID,
			Subject:    subject,
			Body:       body,
			Status:     enums.ComplaintStatusOpen,
		}
		if err := txRepo.Create(ctx, complaint); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create complaint")
		}
		created = complaint
		return s.emit(ctx, tx, enums.EventComplaintOpened, *complaint, input.Actor)
	})
	if err != nil {
		return nil, err
	}
	return newComplaintDTO(*created), nil
}

func (s *service) Advance(ctx context.Context, input AdvanceInput) (*ComplaintDTO, error) {
	if !input.Actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators advance complaints")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid complaint status")
	}

	var updated *models.Complaint
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		current, err := txRepo.Find(ctx, input.ID)
		if err != nil {
			return repo.MapError(err, "complaint")
		}
		if !CanAdvance(current.Status, input.Status) {
			return pkgerrors.New(pkgerrors.CodeInvalidTransition, "complaint transition not allowed").
				WithDetails(map[string]any{"from": current.Status, "to": input.Status})
		}
		ok, err := txRepo.CompareAndSetStatus(ctx, current.ID, current.Status, input.Status, input.Resolution)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance complaint")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeConflict, "complaint changed concurrently")
		}
		updated, err = txRepo.Find(ctx, current.ID)
		if err != nil {
			return repo.MapError(err, "complaint")
		}
		return s.emit(ctx, tx, enums.EventComplaintStatusChanged, *updated, input.Actor)
	})
	if err != nil {
		return nil, err
	}
	return newComplaintDTO(*updated), nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID, viewer auth.Actor) (*ComplaintDTO, error) {
	complaint, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, repo.MapError(err, "complaint")
	}
	if !viewer.IsAdmin() && !(viewer.IsCustomer() && complaint.CustomerID == viewer.ID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "complaint not found")
	}
	return newComplaintDTO(*complaint), nil
}

func (s *service) emit(ctx context.Context, tx *gorm.DB, eventType enums.OutboxEventType, complaint models.Complaint, actor auth.Actor) error {
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     eventType,
		AggregateType: enums.AggregateComplaint,
		AggregateID:   complaint.ID,
		Actor:         actor.Ref(),
		Data: payloads.ComplaintEvent{
			ComplaintID: complaint.ID,
			OrderID:     complaint.OrderID,
			Status:      complaint.Status,
		},
	})
}

func newComplaintDTO(c models.Complaint) *ComplaintDTO {
	return &ComplaintDTO{
		ID:         c.ID,
		OrderID:    c.OrderID,
		CustomerID: c.CustomerID,
		Subject:    c.Subject,
		Body:       c.Body,
		Status:     c.Status,
		Resolution: c.Resolution,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}
