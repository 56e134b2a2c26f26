package membermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating members table...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS members (
				id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
				auth_subject TEXT UNIQUE,
				email TEXT NOT NULL DEFAULT '',
				name TEXT NOT NULL DEFAULT '',
				roles TEXT[] NOT NULL DEFAULT '{}',
				permissions JSONB NOT NULL DEFAULT '{}',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);
			CREATE INDEX IF NOT EXISTS idx_members_email_id ON members (email, id);
			CREATE INDEX IF NOT EXISTS idx_members_name_id ON members (name, id);
			CREATE INDEX IF NOT EXISTS idx_members_unlinked_email ON members (lower(email)) WHERE auth_subject IS NULL;
		`)
		if err != nil {
			return fmt.Errorf("failed to create members table: %w", err)
		}

		fmt.Println("Members table created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping members table...")

		if _, err := db.ExecContext(ctx, `DROP TABLE IF EXISTS members CASCADE;`); err != nil {
			return fmt.Errorf("failed to drop members table: %w", err)
		}
		return nil
	})
}
