package handicapqueue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/riverqueue/river"
	handicapservice "github.com/sjlangley/social-golf-spa/app/modules/handicap/application"
	scoreevents "github.com/sjlangley/social-golf-spa/pkg/events/score"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
)

// RecalculateWorker runs the same recalculation as the event consumer.
// Permanent failures cancel the job; transient errors are left to River's
// retry policy.
type RecalculateWorker struct {
	river.WorkerDefaults[RecalculateJob]
	service handicapservice.Service
	logger  *slog.Logger
}

// NewRecalculateWorker creates a new RecalculateWorker.
func NewRecalculateWorker(service handicapservice.Service, logger *slog.Logger) *RecalculateWorker {
	return &RecalculateWorker{service: service, logger: logger}
}

// Work executes one backfill job.
func (w *RecalculateWorker) Work(ctx context.Context, job *river.Job[RecalculateJob]) error {
	event := scoreevents.ScoreCreatedPayloadV1{
		MemberID:  job.Args.MemberID,
		ScoreID:   fmt.Sprintf("backfill-%d", job.ID),
		EmittedAt: job.CreatedAt,
	}

	result, err := w.service.RecalculateHandicap(ctx, event)
	if err != nil {
		w.logger.WarnContext(ctx, "Backfill recalculation failed, River will retry",
			attr.MemberID(job.Args.MemberID),
			attr.Int("attempt", job.Attempt),
			attr.Error(err),
		)
		return err
	}
	if result.IsFailure() {
		w.logger.WarnContext(ctx, "Backfill recalculation cancelled",
			attr.MemberID(job.Args.MemberID),
			attr.Error(*result.Failure),
		)
		return river.JobCancel(*result.Failure)
	}

	w.logger.InfoContext(ctx, "Backfill recalculation completed",
		attr.MemberID(job.Args.MemberID),
		attr.Float64("value", (*result.Success).Value),
	)
	return nil
}
