package cron

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

const defaultOutboxRetention = 14 * 24 * time.Hour

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPruner interface {
	DeletePublishedBefore(tx *gorm.DB, cutoff time.Time) (int64, error)
}

// OutboxRetentionJob removes outbox rows that were published before the
// retention window. Unpublished rows are never touched.
type OutboxRetentionJob struct {
	logg      *logger.Logger
	tx        txRunner
	outbox    outboxPruner
	retention time.Duration
	now       func() time.Time
}

func NewOutboxRetentionJob(logg *logger.Logger, tx txRunner, outbox outboxPruner, retention time.Duration) (*OutboxRetentionJob, error) {
	if logg == nil || tx == nil || outbox == nil {
		return nil, fmt.Errorf("outbox retention job: logger, tx runner and repository are required")
	}
	if retention <= 0 {
		retention = defaultOutboxRetention
	}
	return &OutboxRetentionJob{logg: logg, tx: tx, outbox: outbox, retention: retention, now: time.Now}, nil
}

func (j *OutboxRetentionJob) Name() string { return "outbox-retention" }

func (j *OutboxRetentionJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.retention)
	var deleted int64
	err := j.tx.WithTx(ctx, func(tx *gorm.DB) error {
		n, err := j.outbox.DeletePublishedBefore(tx, cutoff)
		deleted = n
		return err
	})
	if err != nil {
		return fmt.Errorf("prune outbox: %w", err)
	}
	j.logg.Info(j.logg.WithFields(ctx, map[string]any{
		"cutoff":       cutoff,
		"rows_deleted": deleted,
	}), "cron.outbox_pruned")
	return nil
}
