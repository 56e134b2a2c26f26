package membermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating system_flags table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS system_flags (
				key TEXT PRIMARY KEY,
				set_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create system_flags table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS system_flags;`); err != nil {
			return fmt.Errorf("failed to drop system_flags table: %w", err)
		}
		return nil
	})
}
