//go:build integration

package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/sjlangley/social-golf-spa/app/eventbus"
	handicapmigrations "github.com/sjlangley/social-golf-spa/app/modules/handicap/infrastructure/repositories/migrations"
	membermigrations "github.com/sjlangley/social-golf-spa/app/modules/member/infrastructure/repositories/migrations"
	scoremigrations "github.com/sjlangley/social-golf-spa/app/modules/score/infrastructure/repositories/migrations"
	"github.com/sjlangley/social-golf-spa/config"
	"github.com/sjlangley/social-golf-spa/db/bundb"
	"github.com/sjlangley/social-golf-spa/integration_tests/containers"
	"github.com/sjlangley/social-golf-spa/pkg/observability"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

// TestEnv is a migrated Postgres plus a JetStream server.
type TestEnv struct {
	Config   *config.Config
	Obs      observability.Observability
	DB       *bun.DB
	Pool     *pgxpool.Pool
	EventBus eventbus.EventBus
}

// NewTestEnv starts both containers, runs every migration and registers
// cleanup on t.
func NewTestEnv(t *testing.T) *TestEnv {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, dsn, err := containers.SetupPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })

	nc, natsURL, err := containers.SetupNatsContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = nc.Terminate(context.Background()) })

	cfg := &config.Config{
		Postgres: config.PostgresConfig{DSN: dsn},
		NATS: config.NATSConfig{
			URL:               natsURL,
			ConsumerName:      "handicap-calculator-test",
			MaxDeliver:        3,
			AckWait:           5 * time.Second,
			MaxAckPending:     16,
			RedeliveryBackoff: []time.Duration{100 * time.Millisecond},
		},
		Handicap: config.HandicapConfig{
			FetchTimeout: 5 * time.Second,
			WriteTimeout: 5 * time.Second,
		},
		Publisher: config.PublisherConfig{
			MaxRetries:      3,
			InitialInterval: 50 * time.Millisecond,
			MaxInterval:     500 * time.Millisecond,
		},
		River: config.RiverConfig{Enabled: true, MaxWorkers: 2},
	}

	db, err := bundb.NewBunDB(ctx, cfg.Postgres)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, RunMigrations(ctx, db))

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	require.NoError(t, runRiverMigrations(ctx, pool))

	obs := observability.NewNoop()
	eb, err := eventbus.NewEventBus(ctx, natsURL, obs.Logger, eventbus.Options{ClientName: "integration-test"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = eb.Close() })

	return &TestEnv{Config: cfg, Obs: obs, DB: db, Pool: pool, EventBus: eb}
}

// RunMigrations applies module migrations in foreign key order.
func RunMigrations(ctx context.Context, db *bun.DB) error {
	ordered := []struct {
		name       string
		migrations *migrate.Migrations
	}{
		{"member", membermigrations.Migrations},
		{"score", scoremigrations.Migrations},
		{"handicap", handicapmigrations.Migrations},
	}

	if err := migrate.NewMigrator(db, ordered[0].migrations).Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize migration tables: %w", err)
	}
	for _, mod := range ordered {
		if _, err := migrate.NewMigrator(db, mod.migrations).Migrate(ctx); err != nil {
			return fmt.Errorf("failed to run %s migrations: %w", mod.name, err)
		}
	}
	return nil
}

func runRiverMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	return nil
}
