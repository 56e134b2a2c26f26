package handicapdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for reading score windows and persisting
// handicap records.
type Repository interface {
	// GetRecentDifferentials returns up to limit differentials for the member,
	// newest first. It returns ErrMemberNotFound when the member does not exist
	// and an empty slice when the member has no scores.
	GetRecentDifferentials(ctx context.Context, db bun.IDB, memberID uuid.UUID, limit int) ([]float64, error)

	// UpsertHandicap overwrites the member's handicap record.
	UpsertHandicap(ctx context.Context, db bun.IDB, record *HandicapRecord) error

	// GetHandicap returns the member's stored handicap or ErrNotFound.
	GetHandicap(ctx context.Context, db bun.IDB, memberID uuid.UUID) (*HandicapRecord, error)

	// ListMemberIDs returns every member id, used to enqueue backfills.
	ListMemberIDs(ctx context.Context, db bun.IDB) ([]uuid.UUID, error)
}
