package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/pkg/config"
	"github.com/angelmondragon/vendorhub-backend/pkg/db/models"
	"github.com/angelmondragon/vendorhub-backend/pkg/enums"
	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
	"github.com/angelmondragon/vendorhub-backend/pkg/metrics"
	"github.com/angelmondragon/vendorhub-backend/pkg/outbox/registry"
)

const (
	defaultBatchSize      = 50
	defaultPollInterval   = 500 * time.Millisecond
	defaultPublishTimeout = 15 * time.Second
	defaultMaxAttempts    = 10
	maxIdleBackoff        = 10 * time.Second
	jitterWindow          = 250 * time.Millisecond
)

type dbClient interface {
	Ping(context.Context) error
	WithTx(context.Context, func(tx *gorm.DB) error) error
}

type pubSubClient interface {
	Ping(context.Context) error
	Publisher(name string) *gcppubsub.Publisher
}

type outboxRepository interface {
	FetchUnpublishedForPublish(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error
	MarkFailedTx(tx *gorm.DB, id uuid.UUID, err error) error
	MarkTerminalTx(tx *gorm.DB, id uuid.UUID, err error, terminalAttempts int) error
}

type dlqRepository interface {
	InsertTx(tx *gorm.DB, entry models.OutboxDLQ) error
}

type registryResolver interface {
	Resolve(models.OutboxEvent) (*registry.ResolvedEvent, error)
}

type publisherFactory func(topic string) publisher

type publisher interface {
	Publish(context.Context, *gcppubsub.Message) publishResult
}

type publishResult interface {
	Get(context.Context) (string, error)
}

type ServiceParams struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               dbClient
	PubSub           pubSubClient
	Repository       outboxRepository
	Registry         registryResolver
	PublisherFactory publisherFactory
	DLQRepository    dlqRepository
	Metrics          *metrics.Outbox
}

// Service drains outbox_events into Pub/Sub. A batch is locked, published
// concurrently, and its marks and dead letters commit in one transaction.
type Service struct {
	logg         *logger.Logger
	db           dbClient
	repo         outboxRepository
	pubsub       pubSubClient
	registry     registryResolver
	dlq          dlqRepository
	metrics      *metrics.Outbox
	publisherFor publisherFactory
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

func NewService(params ServiceParams) (*Service, error) {
	missing := map[string]bool{
		"config":          params.Config == nil,
		"logger":          params.Logger == nil,
		"database client": params.DB == nil,
		"pubsub client":   params.PubSub == nil,
		"repository":      params.Repository == nil,
		"event registry":  params.Registry == nil,
		"dlq repository":  params.DLQRepository == nil,
	}
	for _, name := range []string{"config", "logger", "database client", "pubsub client", "repository", "event registry", "dlq repository"} {
		if missing[name] {
			return nil, fmt.Errorf("outbox publisher: %s is required", name)
		}
	}

	publisherFor := params.PublisherFactory
	if publisherFor == nil {
		client := params.PubSub
		publisherFor = func(topic string) publisher {
			if pub := client.Publisher(topic); pub != nil {
				return gcpPublisher{pub}
			}
			return nil
		}
	}

	cfg := params.Config.Outbox
	poll := defaultPollInterval
	if cfg.PollIntervalMS > 0 {
		poll = time.Duration(cfg.PollIntervalMS) * time.Millisecond
	}
	return &Service{
		logg:         params.Logger,
		db:           params.DB,
		repo:         params.Repository,
		pubsub:       params.PubSub,
		registry:     params.Registry,
		dlq:          params.DLQRepository,
		metrics:      params.Metrics,
		publisherFor: publisherFor,
		batchSize:    orDefault(cfg.BatchSize, defaultBatchSize),
		maxAttempts:  orDefault(cfg.MaxAttempts, defaultMaxAttempts),
		pollInterval: poll,
	}, nil
}

func orDefault(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

// Run drains until ctx is cancelled. Full batches are followed immediately
// by the next one; empty or failed batches back off.
func (s *Service) Run(ctx context.Context) error {
	if err := s.db.Ping(ctx); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	if err := s.pubsub.Ping(ctx); err != nil {
		return fmt.Errorf("pubsub not ready: %w", err)
	}

	wait := s.pollInterval
	for {
		n, err := s.processBatch(ctx)
		switch {
		case ctx.Err() != nil:
			s.logg.Info(ctx, "outbox.publisher_stopping")
			return ctx.Err()
		case err != nil:
			s.logg.Error(ctx, "outbox.batch_failed", err)
			wait = min(wait*2, maxIdleBackoff)
		case n > 0:
			wait = s.pollInterval
			continue
		default:
			wait = s.pollInterval
		}

		timer := time.NewTimer(wait + rand.N(jitterWindow))
		select {
		case <-ctx.Done():
			timer.Stop()
			s.logg.Info(ctx, "outbox.publisher_stopping")
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// inflight is one row whose message has been handed to Pub/Sub.
type inflight struct {
	event    models.OutboxEvent
	resolved *registry.ResolvedEvent
	result   publishResult
	err      error
}

// processBatch returns how many rows it settled. Publish failures are
// recorded on their rows; only bookkeeping failures abort the batch.
func (s *Service) processBatch(ctx context.Context) (int, error) {
	started := time.Now()
	defer func() { s.metrics.ObserveBatch(time.Since(started)) }()

	var settled int
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		events, err := s.repo.FetchUnpublishedForPublish(tx, s.batchSize, s.maxAttempts)
		if err != nil {
			return fmt.Errorf("fetch outbox batch: %w", err)
		}
		settled = len(events)

		publishCtx, cancel := context.WithTimeout(ctx, defaultPublishTimeout)
		defer cancel()

		pending := make([]inflight, 0, len(events))
		for _, event := range events {
			resolved, err := s.registry.Resolve(event)
			if err != nil {
				if err := s.deadLetter(ctx, tx, event, "", enums.OutboxDLQReasonUnroutable, err); err != nil {
					return err
				}
				continue
			}
			pending = append(pending, s.startPublish(publishCtx, event, resolved))
		}

		for _, p := range pending {
			if p.err == nil {
				_, p.err = p.result.Get(publishCtx)
			}
			if err := s.settle(ctx, tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	return settled, err
}

func (s *Service) startPublish(ctx context.Context, event models.OutboxEvent, resolved *registry.ResolvedEvent) inflight {
	p := inflight{event: event, resolved: resolved}
	topic := resolved.Descriptor.Topic
	pub := s.publisherFor(topic)
	if pub == nil {
		p.err = registry.NewNonRetryableError(fmt.Errorf("no publisher for topic %s", topic))
		return p
	}
	p.result = pub.Publish(ctx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_id":       resolved.Envelope.EventID,
			"event_type":     string(event.EventType),
			"aggregate_type": string(event.AggregateType),
			"aggregate_id":   event.AggregateID.String(),
			"created_at":     event.CreatedAt.UTC().Format(time.RFC3339Nano),
		},
	})
	if p.result == nil {
		p.err = registry.NewNonRetryableError(fmt.Errorf("publisher for topic %s returned no result", topic))
	}
	return p
}

func (s *Service) settle(ctx context.Context, tx *gorm.DB, p inflight) error {
	event, topic := p.event, p.resolved.Descriptor.Topic
	var nonRetryable registry.NonRetryableError

	switch {
	case p.err == nil:
		if err := s.repo.MarkPublishedTx(tx, event.ID); err != nil {
			return fmt.Errorf("mark %s published: %w", event.ID, err)
		}
		s.metrics.Event(string(event.EventType), "published")
		s.logg.Debug(s.eventContext(ctx, event, topic), "outbox.published")
		return nil
	case errors.As(p.err, &nonRetryable):
		return s.deadLetter(ctx, tx, event, topic, enums.OutboxDLQReasonNonRetryable, p.err)
	case event.AttemptCount+1 >= s.maxAttempts:
		return s.deadLetter(ctx, tx, event, topic, enums.OutboxDLQReasonMaxAttempts, fmt.Errorf("gave up after %d attempts: %w", event.AttemptCount+1, p.err))
	}

	warnCtx := s.logg.WithFields(s.eventContext(ctx, event, topic), map[string]any{
		"attempt": event.AttemptCount + 1,
		"error":   p.err.Error(),
	})
	s.logg.Warn(warnCtx, "outbox.publish_retry")
	if err := s.repo.MarkFailedTx(tx, event.ID, p.err); err != nil {
		return fmt.Errorf("mark %s failed: %w", event.ID, err)
	}
	s.metrics.Event(string(event.EventType), "failed")
	return nil
}

func (s *Service) deadLetter(ctx context.Context, tx *gorm.DB, event models.OutboxEvent, topic string, reason enums.OutboxDLQErrorReason, cause error) error {
	warnCtx := s.logg.WithFields(s.eventContext(ctx, event, topic), map[string]any{
		"reason": string(reason),
		"error":  cause.Error(),
	})
	s.logg.Warn(warnCtx, "outbox.dead_lettered")

	msg := cause.Error()
	if err := s.dlq.InsertTx(tx, models.OutboxDLQ{
		EventID:       event.ID,
		EventType:     event.EventType,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		Payload:       event.Payload,
		ErrorReason:   reason,
		ErrorMessage:  &msg,
		AttemptCount:  event.AttemptCount,
		FailedAt:      time.Now().UTC(),
	}); err != nil {
		return fmt.Errorf("dead letter %s: %w", event.ID, err)
	}
	if err := s.repo.MarkTerminalTx(tx, event.ID, cause, s.maxAttempts); err != nil {
		return fmt.Errorf("mark %s terminal: %w", event.ID, err)
	}
	s.metrics.Event(string(event.EventType), "dead")
	return nil
}

func (s *Service) eventContext(ctx context.Context, event models.OutboxEvent, topic string) context.Context {
	fields := map[string]any{
		"outbox_id":    event.ID.String(),
		"event_type":   string(event.EventType),
		"aggregate_id": event.AggregateID.String(),
		"attempts":     event.AttemptCount,
	}
	if topic != "" {
		fields["topic"] = topic
	}
	return s.logg.WithFields(ctx, fields)
}

// gcpPublisher narrows *pubsub.Publisher so tests can supply fakes.
type gcpPublisher struct {
	pub *gcppubsub.Publisher
}

func (p gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	return p.pub.Publish(ctx, msg)
}
