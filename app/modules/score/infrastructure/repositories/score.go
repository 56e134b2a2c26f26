package scoredb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"
)

// foreignKeyViolation is the Postgres SQLSTATE for foreign_key_violation.
const foreignKeyViolation = "23503"

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new score repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// MemberExists checks the members table owned by the member module.
func (r *Impl) MemberExists(ctx context.Context, db bun.IDB, memberID uuid.UUID) (bool, error) {
	exists, err := r.resolveDB(db).NewSelect().
		Table("members").
		Where("id = ?", memberID).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check member existence: %w", err)
	}
	return exists, nil
}

// InsertScore writes a new score row.
func (r *Impl) InsertScore(ctx context.Context, db bun.IDB, score *Score) error {
	_, err := r.resolveDB(db).NewInsert().
		Model(score).
		Returning("created_at").
		Exec(ctx)
	if err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == foreignKeyViolation {
			return fmt.Errorf("%w: %w", ErrMemberNotFound, err)
		}
		return fmt.Errorf("failed to insert score: %w", err)
	}
	return nil
}

// ListScores returns up to limit scores, newest first with id as tiebreak.
func (r *Impl) ListScores(ctx context.Context, db bun.IDB, memberID uuid.UUID, limit int) ([]Score, error) {
	var scores []Score
	err := r.resolveDB(db).NewSelect().
		Model(&scores).
		Where("s.member_id = ?", memberID).
		OrderExpr("s.recorded_at DESC, s.id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return scores, nil
}
