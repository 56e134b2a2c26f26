package handicap

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sjlangley/social-golf-spa/app/eventbus"
	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
	authhandlers "github.com/sjlangley/social-golf-spa/app/modules/auth/infrastructure/handlers"
	handicapservice "github.com/sjlangley/social-golf-spa/app/modules/handicap/application"
	handicaphandlers "github.com/sjlangley/social-golf-spa/app/modules/handicap/infrastructure/handlers"
	handicaplease "github.com/sjlangley/social-golf-spa/app/modules/handicap/infrastructure/lease"
	handicapqueue "github.com/sjlangley/social-golf-spa/app/modules/handicap/infrastructure/queue"
	handicapdb "github.com/sjlangley/social-golf-spa/app/modules/handicap/infrastructure/repositories"
	handicaprouter "github.com/sjlangley/social-golf-spa/app/modules/handicap/infrastructure/router"
	"github.com/sjlangley/social-golf-spa/config"
	"github.com/sjlangley/social-golf-spa/pkg/observability"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
	"github.com/sjlangley/social-golf-spa/pkg/observability/metrics"
	"github.com/uptrace/bun"
)

// Deps are the shared resources the module runs on. EventBus is only needed
// by a consuming process, and Pool is nil when the job queue is disabled.
type Deps struct {
	DB       *bun.DB
	EventBus eventbus.EventBus
	Pool     *pgxpool.Pool
	// Consume runs the score.created consumer and the queue workers.
	Consume bool
}

// jobWorkers is the part of the job queue the module runs.
type jobWorkers interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Module represents the handicap module.
type Module struct {
	HandicapService *handicapservice.HandicapService
	HandicapRouter  *handicaprouter.HandicapRouter
	handlers        handicaphandlers.Handlers
	httpHandlers    handicaphandlers.HTTPHandlers
	workers         jobWorkers
	consume         bool
	cancelFunc      context.CancelFunc
	observability   observability.Observability
}

// NewHandicapModule creates and initializes a new handicap module.
func NewHandicapModule(ctx context.Context, cfg *config.Config, obs observability.Observability, deps Deps) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer

	logger.InfoContext(ctx, "handicap.NewHandicapModule initializing",
		attr.Bool("consume", deps.Consume),
		attr.Bool("queue_enabled", deps.Pool != nil),
	)

	// 1. Initialize Repository
	repo := handicapdb.NewRepository(deps.DB)

	// 2. Initialize Metrics
	m := metrics.NewHandicapMetrics(obs.Registry)

	// 3. Initialize the optional lease
	var lease handicapservice.Lease
	if deps.Consume && cfg.Handicap.LeaseEnabled && deps.EventBus != nil {
		kv, err := deps.EventBus.KeyValue(ctx, handicaplease.Bucket, cfg.Handicap.LeaseTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to open lease bucket: %w", err)
		}
		owner, _ := os.Hostname()
		lease = handicaplease.NewKVLease(handicaplease.FromJetStream(kv), owner, logger)
	}

	// 4. Initialize Service
	service := handicapservice.NewHandicapService(repo, lease, logger, m, tracer, handicapservice.Options{
		FetchTimeout: cfg.Handicap.FetchTimeout,
		WriteTimeout: cfg.Handicap.WriteTimeout,
	})

	// 5. Initialize the job queue
	var workers jobWorkers
	var enqueuer handicaphandlers.Enqueuer
	if deps.Pool != nil {
		var worker handicapservice.Service
		if deps.Consume {
			worker = service
		}
		q, err := handicapqueue.NewService(deps.Pool, logger, metrics.NewOperationMetrics(obs.Registry, "queue"), worker, cfg.River.MaxWorkers)
		if err != nil {
			return nil, fmt.Errorf("failed to create handicap queue: %w", err)
		}
		if deps.Consume {
			workers = q
		}
		enqueuer = q
	}

	module := &Module{
		HandicapService: service,
		handlers:        handicaphandlers.NewHandicapHandlers(service, logger, tracer),
		httpHandlers:    handicaphandlers.NewHandicapHTTPHandlers(service, enqueuer, logger),
		workers:         workers,
		consume:         deps.Consume,
		observability:   obs,
	}

	// 6. Initialize Router
	if deps.Consume {
		if deps.EventBus == nil {
			return nil, fmt.Errorf("handicap consumer requires an event bus")
		}
		module.HandicapRouter = handicaprouter.NewHandicapRouter(logger, deps.EventBus, tracer, m, handicaprouter.ConsumerSettings{
			Durable:       cfg.NATS.ConsumerName,
			MaxDeliver:    cfg.NATS.MaxDeliver,
			AckWait:       cfg.NATS.AckWait,
			MaxAckPending: cfg.NATS.MaxAckPending,
			Backoff:       cfg.NATS.RedeliveryBackoff,
		})
	}

	return module, nil
}

// RegisterRoutes mounts the handicap endpoints. r must already authenticate.
func (m *Module) RegisterRoutes(r chi.Router) {
	r.With(authhandlers.RequirePermission(authdomain.PermHandicapsRead)).Get("/members/{memberID}/handicap", m.httpHandlers.GetHandicap)
	r.With(authhandlers.RequirePermission(authdomain.PermHandicapsRecalculate)).Post("/members/{memberID}/handicap/recalculate", m.httpHandlers.RecalculateHandicap)
	r.With(authhandlers.RequirePermission(authdomain.PermHandicapsRecalculate)).Post("/handicaps/backfill", m.httpHandlers.Backfill)
}

// Run starts the consumer and queue workers and blocks until ctx is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) error {
	logger := m.observability.Logger
	logger.InfoContext(ctx, "Starting handicap module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.consume {
		if err := m.HandicapRouter.Configure(ctx, m.handlers); err != nil {
			return fmt.Errorf("failed to configure handicap router: %w", err)
		}
	}
	if m.workers != nil {
		// Close owns the worker lifetime; cancelling ctx would hard-stop jobs.
		if err := m.workers.Start(context.WithoutCancel(ctx)); err != nil {
			return err
		}
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Handicap module goroutine stopped")
	return nil
}

// Close shuts down the handicap module. Running jobs are allowed to finish
// until ctx expires, then the consumer context is cancelled.
func (m *Module) Close(ctx context.Context) error {
	logger := m.observability.Logger
	logger.Info("Stopping handicap module")

	var stopErr error
	if m.workers != nil {
		if err := m.workers.Stop(ctx); err != nil {
			logger.Error("Error stopping handicap queue", attr.Error(err))
			stopErr = fmt.Errorf("error stopping handicap queue: %w", err)
		}
	}

	if m.cancelFunc != nil {
		m.cancelFunc()
	}

	if stopErr != nil {
		return stopErr
	}
	logger.Info("Handicap module stopped")
	return nil
}
