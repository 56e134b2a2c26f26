package scoredomain

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f64(v float64) *float64 { return &v }
func intp(v int) *int        { return &v }
func strp(v string) *string  { return &v }

func TestRecordScoreRequest_Validate(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	member := uuid.New()

	tests := []struct {
		name    string
		req     RecordScoreRequest
		wantErr bool
	}{
		{name: "valid", req: RecordScoreRequest{MemberID: member, Differential: f64(12.4), RecordedAt: now}},
		{name: "negative differential allowed", req: RecordScoreRequest{MemberID: member, Differential: f64(-3.2), RecordedAt: now}},
		{name: "within future skew", req: RecordScoreRequest{MemberID: member, Differential: f64(1), RecordedAt: now.Add(4 * time.Minute)}},
		{name: "too far in future", req: RecordScoreRequest{MemberID: member, Differential: f64(1), RecordedAt: now.Add(6 * time.Minute)}, wantErr: true},
		{name: "missing member", req: RecordScoreRequest{Differential: f64(1), RecordedAt: now}, wantErr: true},
		{name: "missing differential", req: RecordScoreRequest{MemberID: member, RecordedAt: now}, wantErr: true},
		{name: "NaN", req: RecordScoreRequest{MemberID: member, Differential: f64(math.NaN()), RecordedAt: now}, wantErr: true},
		{name: "Inf", req: RecordScoreRequest{MemberID: member, Differential: f64(math.Inf(1)), RecordedAt: now}, wantErr: true},
		{name: "missing recorded_at", req: RecordScoreRequest{MemberID: member, Differential: f64(1)}, wantErr: true},
		{name: "zero gross", req: RecordScoreRequest{MemberID: member, Differential: f64(1), RecordedAt: now, GrossScore: intp(0)}, wantErr: true},
		{name: "long course", req: RecordScoreRequest{MemberID: member, Differential: f64(1), RecordedAt: now, CourseName: strp(strings.Repeat("x", 201))}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate(now)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidScore)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestRecordScoreRequest_NormalizesCourseName(t *testing.T) {
	now := time.Now()
	req := RecordScoreRequest{MemberID: uuid.New(), Differential: f64(1), RecordedAt: now, CourseName: strp("  Royal Park  ")}
	require.NoError(t, req.Validate(now))
	assert.Equal(t, "Royal Park", *req.CourseName)

	blank := RecordScoreRequest{MemberID: uuid.New(), Differential: f64(1), RecordedAt: now, CourseName: strp("   ")}
	require.NoError(t, blank.Validate(now))
	assert.Nil(t, blank.CourseName)
}
