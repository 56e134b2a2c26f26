package scoredb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the persistence contract for scores. Scores are never
// updated or deleted.
type Repository interface {
	MemberExists(ctx context.Context, db bun.IDB, memberID uuid.UUID) (bool, error)
	InsertScore(ctx context.Context, db bun.IDB, score *Score) error
	// ListScores returns the member's scores newest first.
	ListScores(ctx context.Context, db bun.IDB, memberID uuid.UUID, limit int) ([]Score, error)
}
