package handicapdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var (
	// ErrNotFound is returned when a member has no handicap record yet.
	ErrNotFound = errors.New("handicap not found")
	// ErrMemberNotFound is returned when the member itself does not exist.
	ErrMemberNotFound = errors.New("member not found")
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new handicap repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

// GetRecentDifferentials reads the member's window from the scores table. The
// members and scores tables belong to other modules, so they are addressed by
// name rather than by model.
func (r *Impl) GetRecentDifferentials(ctx context.Context, db bun.IDB, memberID uuid.UUID, limit int) ([]float64, error) {
	db = r.resolveDB(db)

	exists, err := db.NewSelect().
		Table("members").
		Where("id = ?", memberID).
		Exists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to check member existence: %w", err)
	}
	if !exists {
		return nil, ErrMemberNotFound
	}

	differentials := make([]float64, 0, limit)
	err = db.NewSelect().
		Table("scores").
		Column("differential").
		Where("member_id = ?", memberID).
		OrderExpr("recorded_at DESC, id DESC").
		Limit(limit).
		Scan(ctx, &differentials)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to fetch recent differentials: %w", err)
	}
	return differentials, nil
}

// UpsertHandicap writes the record, replacing any previous value.
func (r *Impl) UpsertHandicap(ctx context.Context, db bun.IDB, record *HandicapRecord) error {
	db = r.resolveDB(db)
	_, err := db.NewInsert().
		Model(record).
		On("CONFLICT (member_id) DO UPDATE").
		Set("value = EXCLUDED.value").
		Set("computed_at = EXCLUDED.computed_at").
		Set("source_score_count = EXCLUDED.source_score_count").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert handicap: %w", err)
	}
	return nil
}

// GetHandicap retrieves the stored handicap for a member.
func (r *Impl) GetHandicap(ctx context.Context, db bun.IDB, memberID uuid.UUID) (*HandicapRecord, error) {
	db = r.resolveDB(db)
	record := new(HandicapRecord)
	err := db.NewSelect().
		Model(record).
		Where("member_id = ?", memberID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get handicap: %w", err)
	}
	return record, nil
}

// ListMemberIDs returns all member ids ordered by id.
func (r *Impl) ListMemberIDs(ctx context.Context, db bun.IDB) ([]uuid.UUID, error) {
	db = r.resolveDB(db)
	var ids []uuid.UUID
	err := db.NewSelect().
		Table("members").
		Column("id").
		Order("id").
		Scan(ctx, &ids)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to list member ids: %w", err)
	}
	return ids, nil
}
