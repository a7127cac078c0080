package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

type deadLetterCounter interface {
	CountFailedSince(ctx context.Context, since time.Time) (map[string]int64, error)
}

// DeadLetterJob reports outbox events the publisher parked since the previous
// cycle, so lost notifications surface in the logs instead of only in the table.
type DeadLetterJob struct {
	logg   *logger.Logger
	dlq    deadLetterCounter
	window time.Duration
	now    func() time.Time
}

func NewDeadLetterJob(logg *logger.Logger, dlq deadLetterCounter, window time.Duration) (*DeadLetterJob, error) {
	if logg == nil || dlq == nil {
		return nil, fmt.Errorf("dead letter job: logger and repository are required")
	}
	if window <= 0 {
		window = defaultInterval
	}
	return &DeadLetterJob{logg: logg, dlq: dlq, window: window, now: time.Now}, nil
}

func (j *DeadLetterJob) Name() string { return "outbox-dead-letters" }

func (j *DeadLetterJob) Run(ctx context.Context) error {
	since := j.now().UTC().Add(-j.window)
	counts, err := j.dlq.CountFailedSince(ctx, since)
	if err != nil {
		return fmt.Errorf("count dead letters: %w", err)
	}
	var total int64
	for eventType, n := range counts {
		total += n
		j.logg.Warn(j.logg.WithFields(ctx, map[string]any{
			"event_type": eventType,
			"count":      n,
		}), "cron.outbox_dead_letters")
	}
	if total == 0 {
		j.logg.Info(j.logg.WithField(ctx, "since", since), "cron.outbox_dead_letters_none")
	}
	return nil
}
