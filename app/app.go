package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sjlangley/social-golf-spa/app/eventbus"
	"github.com/sjlangley/social-golf-spa/app/modules/auth"
	"github.com/sjlangley/social-golf-spa/app/modules/handicap"
	handicapqueue "github.com/sjlangley/social-golf-spa/app/modules/handicap/infrastructure/queue"
	"github.com/sjlangley/social-golf-spa/app/modules/member"
	"github.com/sjlangley/social-golf-spa/app/modules/score"
	"github.com/sjlangley/social-golf-spa/config"
	"github.com/sjlangley/social-golf-spa/db/bundb"
	"github.com/sjlangley/social-golf-spa/pkg/observability"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
	"github.com/uptrace/bun"
)

const readHeaderTimeout = 10 * time.Second

// App holds the modules and shared resources of one process.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bun.DB
	EventBus      eventbus.EventBus
	Pool          *pgxpool.Pool

	MemberModule   *member.Module
	AuthModule     *auth.Module
	ScoreModule    *score.Module
	HandicapModule *handicap.Module

	Router chi.Router
	addr   string
	wg     sync.WaitGroup
}

// NewAPI wires the REST service: members, auth, scores and the read side of
// handicaps. It publishes score events but consumes nothing.
func NewAPI(ctx context.Context, cfg *config.Config, obs observability.Observability) (*App, error) {
	app := &App{Config: cfg, Observability: obs, addr: cfg.HTTP.Addr}
	if err := app.connect(ctx, "golf-api"); err != nil {
		app.Close(ctx)
		return nil, err
	}

	app.MemberModule = member.NewModule(ctx, obs, app.DB)
	app.AuthModule = auth.NewModule(ctx, cfg, obs, app.MemberModule.GetService())
	app.ScoreModule = score.NewModule(ctx, cfg, obs, app.DB, app.EventBus)

	hm, err := handicap.NewHandicapModule(ctx, cfg, obs, handicap.Deps{DB: app.DB, Pool: app.Pool})
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.HandicapModule = hm

	app.Router = NewRouter(obs.Registry, app.AuthModule, app.MemberModule, app.ScoreModule, app.HandicapModule)
	return app, nil
}

// NewCalculator wires the handicap calculator: the score.created consumer,
// the backfill workers and an ops-only HTTP surface.
func NewCalculator(ctx context.Context, cfg *config.Config, obs observability.Observability) (*App, error) {
	app := &App{Config: cfg, Observability: obs, addr: cfg.Observability.MetricsAddress}
	if err := app.connect(ctx, "handicap-calculator"); err != nil {
		app.Close(ctx)
		return nil, err
	}

	hm, err := handicap.NewHandicapModule(ctx, cfg, obs, handicap.Deps{
		DB:       app.DB,
		EventBus: app.EventBus,
		Pool:     app.Pool,
		Consume:  true,
	})
	if err != nil {
		app.Close(ctx)
		return nil, err
	}
	app.HandicapModule = hm

	app.Router = NewOpsRouter(obs.Registry)
	return app, nil
}

func (app *App) connect(ctx context.Context, clientName string) error {
	logger := app.Observability.Logger

	db, err := bundb.NewBunDB(ctx, app.Config.Postgres)
	if err != nil {
		return err
	}
	app.DB = db

	eb, err := eventbus.NewEventBus(ctx, app.Config.NATS.URL, logger, eventbus.Options{
		ClientName: clientName,
		Registry:   app.Observability.Registry,
	})
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = eb

	if app.Config.River.Enabled {
		pool, err := handicapqueue.NewPool(ctx, app.Config.Postgres.DSN)
		if err != nil {
			return err
		}
		app.Pool = pool
	}
	return nil
}

// Run serves HTTP and, for the calculator, starts the consumers. It blocks
// until ctx is cancelled and then shuts the server down.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger

	srv := &http.Server{
		Addr:              app.addr,
		Handler:           app.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 2)

	if app.HandicapModule != nil {
		app.wg.Add(1)
		go func() {
			if err := app.HandicapModule.Run(ctx, &app.wg); err != nil {
				errCh <- err
			}
		}()
	}

	go func() {
		logger.InfoContext(ctx, "HTTP server listening", attr.String("addr", app.addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", attr.Error(err))
	}
	return runErr
}

// Close releases every resource in reverse order of creation.
func (app *App) Close(ctx context.Context) error {
	logger := app.Observability.Logger
	var errs []error

	if app.HandicapModule != nil {
		if err := app.HandicapModule.Close(ctx); err != nil {
			errs = append(errs, err)
		}
		app.wg.Wait()
	}
	if app.Pool != nil {
		app.Pool.Close()
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		logger.Error("Errors during shutdown", attr.Error(err))
		return err
	}
	logger.Info("Shutdown complete")
	return nil
}
