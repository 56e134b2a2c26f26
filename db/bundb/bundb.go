// Package bundb opens the shared Postgres connection used by every module.
package bundb

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sjlangley/social-golf-spa/config"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

const pingTimeout = 5 * time.Second

// NewBunDB connects to Postgres and returns a bun.DB.
func NewBunDB(ctx context.Context, cfg config.PostgresConfig) (*bun.DB, error) {
	sqldb, err := pgConn(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return bun.NewDB(sqldb, pgdialect.New()), nil
}

func pgConn(ctx context.Context, dsn string) (*sql.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := sqldb.PingContext(ctx); err != nil {
		sqldb.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return sqldb, nil
}
