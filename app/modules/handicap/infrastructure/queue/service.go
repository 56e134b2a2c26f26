package handicapqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivertype"
	handicapservice "github.com/sjlangley/social-golf-spa/app/modules/handicap/application"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
	"github.com/sjlangley/social-golf-spa/pkg/observability/metrics"
)

const queueServiceName = "river"

// Enqueuer schedules backfill jobs.
type Enqueuer interface {
	EnqueueRecalculation(ctx context.Context, memberIDs []uuid.UUID) (int, error)
}

// Service handles handicap backfill jobs using River.
type Service struct {
	client  *river.Client[pgx.Tx]
	logger  *slog.Logger
	metrics metrics.OperationMetrics
}

var _ Enqueuer = (*Service)(nil)

// uniqueStates are the job states that block a second job for the same
// member. Finished jobs are excluded so a later backfill runs again.
var uniqueStates = []rivertype.JobState{
	rivertype.JobStateAvailable,
	rivertype.JobStatePending,
	rivertype.JobStateRetryable,
	rivertype.JobStateRunning,
	rivertype.JobStateScheduled,
}

// NewPool opens the pgx pool River runs on.
func NewPool(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return pool, nil
}

// NewService creates the River client. With a nil handicap service the
// client is insert-only, which is how the API process uses it.
func NewService(
	pool *pgxpool.Pool,
	logger *slog.Logger,
	m metrics.OperationMetrics,
	handicapSvc handicapservice.Service,
	maxWorkers int,
) (*Service, error) {
	if m == nil {
		m = metrics.NewNoopOperation()
	}
	cfg := &river.Config{}
	if handicapSvc != nil {
		workers := river.NewWorkers()
		river.AddWorker(workers, NewRecalculateWorker(handicapSvc, logger))
		cfg.Workers = workers
		cfg.Queues = map[string]river.QueueConfig{
			QueueName: {MaxWorkers: maxWorkers},
		}
	}

	client, err := river.NewClient(riverpgxv5.New(pool), cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	return &Service{
		client:  client,
		logger:  logger.With(attr.String("component", "river_queue")),
		metrics: m,
	}, nil
}

// Start starts processing jobs. Only valid for a client built with workers.
func (s *Service) Start(ctx context.Context) error {
	if err := s.client.Start(ctx); err != nil {
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Handicap queue started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *Service) Stop(ctx context.Context) error {
	if err := s.client.Stop(ctx); err != nil {
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.logger.InfoContext(ctx, "Handicap queue stopped")
	return nil
}

// EnqueueRecalculation inserts one unique job per member and returns how many
// were inserted. A job still waiting or running for the same member is not
// duplicated; completed, cancelled and discarded jobs do not block a new one.
func (s *Service) EnqueueRecalculation(ctx context.Context, memberIDs []uuid.UUID) (int, error) {
	const op = "enqueue_recalculation"
	start := time.Now()
	s.metrics.RecordOperationAttempt(ctx, op, queueServiceName)
	defer func() {
		s.metrics.RecordOperationDuration(ctx, op, queueServiceName, time.Since(start))
	}()

	inserted := 0
	for _, id := range memberIDs {
		res, err := s.client.Insert(ctx, RecalculateJob{MemberID: id.String()}, &river.InsertOpts{
			Queue:      QueueName,
			UniqueOpts: river.UniqueOpts{ByArgs: true, ByState: uniqueStates},
		})
		if err != nil {
			s.metrics.RecordOperationFailure(ctx, op, queueServiceName)
			return inserted, fmt.Errorf("failed to enqueue recalculation for %s: %w", id, err)
		}
		if !res.UniqueSkippedAsDuplicate {
			inserted++
		}
	}

	s.metrics.RecordOperationSuccess(ctx, op, queueServiceName)
	s.logger.InfoContext(ctx, "Backfill jobs enqueued",
		attr.Int("requested", len(memberIDs)),
		attr.Int("inserted", inserted),
	)
	return inserted, nil
}
