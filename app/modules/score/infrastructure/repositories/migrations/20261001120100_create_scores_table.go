package scoremigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating scores table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS scores (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				member_id UUID NOT NULL REFERENCES members(id) ON DELETE CASCADE,
				differential DOUBLE PRECISION NOT NULL,
				gross_score INTEGER CHECK (gross_score IS NULL OR gross_score > 0),
				course_name TEXT,
				recorded_at TIMESTAMPTZ NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_scores_member_recent
				ON scores (member_id, recorded_at DESC, id DESC);
		`)
		if err != nil {
			return fmt.Errorf("failed to create scores table: %w", err)
		}

		fmt.Println("Scores table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping scores table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS scores;`); err != nil {
			return fmt.Errorf("failed to drop scores table: %w", err)
		}
		return nil
	})
}
