package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/vendorhub-backend/pkg/logger"
)

const defaultRefundSLA = 72 * time.Hour

type pendingRefundCounter interface {
	CountPendingBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// RefundBacklogJob warns when refunds have waited on an admin decision for
// longer than the SLA.
type RefundBacklogJob struct {
	logg    *logger.Logger
	refunds pendingRefundCounter
	sla     time.Duration
	now     func() time.Time
}

func NewRefundBacklogJob(logg *logger.Logger, refunds pendingRefundCounter, sla time.Duration) (*RefundBacklogJob, error) {
	if logg == nil || refunds == nil {
		return nil, fmt.Errorf("refund backlog job: logger and repository are required")
	}
	if sla <= 0 {
		sla = defaultRefundSLA
	}
	return &RefundBacklogJob{logg: logg, refunds: refunds, sla: sla, now: time.Now}, nil
}

func (j *RefundBacklogJob) Name() string { return "refund-backlog" }

func (j *RefundBacklogJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-j.sla)
	overdue, err := j.refunds.CountPendingBefore(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("count pending refunds: %w", err)
	}
	logCtx := j.logg.WithFields(ctx, map[string]any{"overdue": overdue, "sla_hours": j.sla.Hours()})
	if overdue > 0 {
		j.logg.Warn(logCtx, "cron.refunds_overdue")
		return nil
	}
	j.logg.Info(logCtx, "cron.refunds_within_sla")
	return nil
}
