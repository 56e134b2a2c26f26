package handicapservice

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	scoreevents "github.com/sjlangley/social-golf-spa/pkg/events/score"
	"github.com/sjlangley/social-golf-spa/pkg/results"
)

// HandicapResult is returned by recalculation. A Failure is permanent; a
// returned error is transient.
type HandicapResult = results.OperationResult[*Handicap, error]

// Handicap is the service view of a member's handicap record.
type Handicap struct {
	MemberID         uuid.UUID
	Value            float64
	ComputedAt       time.Time
	SourceScoreCount int
}

// Service recomputes and reads handicaps.
type Service interface {
	// RecalculateHandicap recomputes the handicap for the event's member from
	// the member's full recent window and overwrites the stored record.
	RecalculateHandicap(ctx context.Context, event scoreevents.ScoreCreatedPayloadV1) (HandicapResult, error)

	// GetHandicap returns the stored handicap, or ErrHandicapNotFound.
	GetHandicap(ctx context.Context, memberID uuid.UUID) (*Handicap, error)

	// ListMemberIDs returns every member id for backfill scheduling.
	ListMemberIDs(ctx context.Context) ([]uuid.UUID, error)
}

// Lease guards a member against redundant concurrent recalculation. It is
// optional; correctness never depends on it.
type Lease interface {
	Acquire(ctx context.Context, memberID string) (release func(), err error)
}

// ErrLeaseHeld is returned by a Lease when another worker holds the member.
var ErrLeaseHeld = errors.New("member recalculation lease is held")

var (
	// ErrHandicapNotFound is returned when the member has never been computed.
	ErrHandicapNotFound = errors.New("handicap not found")
	// ErrMemberNotFound is the permanent failure for an unknown member.
	ErrMemberNotFound = errors.New("member not found")
	// ErrCorruptDifferential is the permanent failure for a non-finite stored
	// differential.
	ErrCorruptDifferential = errors.New("stored differential is not a finite number")
)
