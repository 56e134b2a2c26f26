package scoredb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Score is an immutable scores row.
type Score struct {
	bun.BaseModel `bun:"table:scores,alias:s"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	MemberID      uuid.UUID `bun:"member_id,type:uuid,notnull"`
	Differential  float64   `bun:"differential,notnull"`
	GrossScore    *int      `bun:"gross_score"`
	CourseName    *string   `bun:"course_name"`
	RecordedAt    time.Time `bun:"recorded_at,notnull"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp"`
}
