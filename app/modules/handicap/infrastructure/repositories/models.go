package handicapdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// HandicapRecord is the single current handicap row for a member.
type HandicapRecord struct {
	bun.BaseModel `bun:"table:handicaps,alias:h"`

	MemberID         uuid.UUID `bun:"member_id,pk,type:uuid"`
	Value            float64   `bun:"value,notnull"`
	ComputedAt       time.Time `bun:"computed_at,notnull"`
	SourceScoreCount int       `bun:"source_score_count,notnull"`
}
