package scoreservice

import (
	"context"
	"errors"

	"github.com/google/uuid"
	scoredomain "github.com/sjlangley/social-golf-spa/app/modules/score/domain"
)

var (
	// ErrMemberNotFound is returned when the score's member does not exist.
	ErrMemberNotFound = errors.New("member not found")
	// ErrInvalidImport is returned when an uploaded workbook cannot be read.
	ErrInvalidImport = errors.New("invalid import file")
)

// DefaultListLimit caps ListScores when no limit is given.
const DefaultListLimit = 20

// MaxListLimit is the largest accepted ListScores limit.
const MaxListLimit = 100

// Service records and reads scores.
type Service interface {
	// RecordScore persists the score and then announces it. A failed
	// announcement never undoes the write; it is reported through
	// HandicapStatus.
	RecordScore(ctx context.Context, req scoredomain.RecordScoreRequest) (*scoredomain.RecordedScore, error)

	// ListScores returns the member's scores newest first.
	ListScores(ctx context.Context, memberID uuid.UUID, limit int) ([]scoredomain.Score, error)

	// ImportScores records every valid row of an xlsx workbook.
	ImportScores(ctx context.Context, data []byte) (*scoredomain.ImportReport, error)
}
