package handicapmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating handicaps table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS handicaps (
				member_id UUID PRIMARY KEY REFERENCES members(id) ON DELETE CASCADE,
				value DOUBLE PRECISION NOT NULL,
				computed_at TIMESTAMPTZ NOT NULL,
				source_score_count INTEGER NOT NULL CHECK (source_score_count BETWEEN 0 AND 20)
			);
		`)
		if err != nil {
			return fmt.Errorf("failed to create handicaps table: %w", err)
		}
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping handicaps table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS handicaps;`); err != nil {
			return fmt.Errorf("failed to drop handicaps table: %w", err)
		}
		return nil
	})
}
