package scoredomain

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxFutureSkew is how far ahead of the server clock recorded_at may be.
const MaxFutureSkew = 5 * time.Minute

// maxCourseNameLength bounds the free-text course name.
const maxCourseNameLength = 200

// HandicapStatus tells the client whether a recalculation was scheduled.
type HandicapStatus string

const (
	HandicapScheduled      HandicapStatus = "scheduled"
	HandicapPendingUnknown HandicapStatus = "pending_unknown"
)

// ErrInvalidScore is returned when a score fails validation.
var ErrInvalidScore = errors.New("invalid score")

// Score is an immutable recorded round result.
type Score struct {
	ID           uuid.UUID `json:"id"`
	MemberID     uuid.UUID `json:"member_id"`
	Differential float64   `json:"differential"`
	GrossScore   *int      `json:"gross_score,omitempty"`
	CourseName   *string   `json:"course_name,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
	CreatedAt    time.Time `json:"created_at"`
}

// RecordScoreRequest is the input to recording a score.
type RecordScoreRequest struct {
	MemberID     uuid.UUID `json:"-"`
	Differential *float64  `json:"differential"`
	GrossScore   *int      `json:"gross_score,omitempty"`
	CourseName   *string   `json:"course_name,omitempty"`
	RecordedAt   time.Time `json:"recorded_at"`
}

// Validate checks the request against now and normalizes the course name.
// Differentials have no lower bound.
func (r *RecordScoreRequest) Validate(now time.Time) error {
	if r.MemberID == uuid.Nil {
		return fmt.Errorf("%w: member_id is required", ErrInvalidScore)
	}
	if r.Differential == nil {
		return fmt.Errorf("%w: differential is required", ErrInvalidScore)
	}
	if math.IsNaN(*r.Differential) || math.IsInf(*r.Differential, 0) {
		return fmt.Errorf("%w: differential must be a finite number", ErrInvalidScore)
	}
	if r.RecordedAt.IsZero() {
		return fmt.Errorf("%w: recorded_at is required", ErrInvalidScore)
	}
	if r.RecordedAt.After(now.Add(MaxFutureSkew)) {
		return fmt.Errorf("%w: recorded_at is in the future", ErrInvalidScore)
	}
	if r.GrossScore != nil && *r.GrossScore <= 0 {
		return fmt.Errorf("%w: gross_score must be positive", ErrInvalidScore)
	}
	if r.CourseName != nil {
		name := strings.TrimSpace(*r.CourseName)
		if len(name) > maxCourseNameLength {
			return fmt.Errorf("%w: course_name is longer than %d characters", ErrInvalidScore, maxCourseNameLength)
		}
		if name == "" {
			r.CourseName = nil
		} else {
			r.CourseName = &name
		}
	}
	return nil
}

// RecordedScore is the outcome of a successful write.
type RecordedScore struct {
	Score          Score          `json:"score"`
	HandicapStatus HandicapStatus `json:"handicap_status"`
	Warning        string         `json:"warning,omitempty"`
}

// ImportRowResult reports one spreadsheet row.
type ImportRowResult struct {
	Row            int            `json:"row"`
	ScoreID        *uuid.UUID     `json:"score_id,omitempty"`
	HandicapStatus HandicapStatus `json:"handicap_status,omitempty"`
	Error          string         `json:"error,omitempty"`
}

// ImportReport summarizes a bulk import.
type ImportReport struct {
	Imported int               `json:"imported"`
	Failed   int               `json:"failed"`
	Rows     []ImportRowResult `json:"rows"`
}
