// Package scoreevents defines the topics and payloads exchanged between the
// API and the handicap calculator.
package scoreevents

import (
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// ScoreCreatedV1 is published after a score row is committed.
	ScoreCreatedV1 = "score.created.v1"
	// HandicapRecalculatedV1 is published after a handicap record is written.
	HandicapRecalculatedV1 = "handicap.recalculated.v1"

	// DeadLetterPrefix is prepended to the original topic of a message that
	// will not be redelivered.
	DeadLetterPrefix = "deadletter."

	// Stream names in JetStream.
	ScoreStream      = "score"
	HandicapStream   = "handicap"
	DeadLetterStream = "deadletter"
)

// ErrMissingMemberID is returned when an event has no usable member id.
var ErrMissingMemberID = errors.New("event is missing member_id")

// ErrMalformedMemberID is returned when member_id is not a UUID.
var ErrMalformedMemberID = errors.New("event member_id is not a valid UUID")

// ScoreCreatedPayloadV1 is the recalculation trigger. ScoreID is informational;
// the consumer always recomputes from the full window.
type ScoreCreatedPayloadV1 struct {
	MemberID  string    `json:"member_id"`
	ScoreID   string    `json:"score_id"`
	EmittedAt time.Time `json:"emitted_at"`
}

// ParseMemberID validates and returns the member id.
func (p ScoreCreatedPayloadV1) ParseMemberID() (uuid.UUID, error) {
	raw := strings.TrimSpace(p.MemberID)
	if raw == "" {
		return uuid.Nil, ErrMissingMemberID
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, ErrMalformedMemberID
	}
	return id, nil
}

// HandicapRecalculatedPayloadV1 announces a freshly persisted handicap.
type HandicapRecalculatedPayloadV1 struct {
	MemberID         string    `json:"member_id"`
	Value            float64   `json:"value"`
	SourceScoreCount int       `json:"source_score_count"`
	ComputedAt       time.Time `json:"computed_at"`
	TriggerScoreID   string    `json:"trigger_score_id,omitempty"`
}

// DeadLetterTopic returns the dead-letter subject for topic.
func DeadLetterTopic(topic string) string {
	return DeadLetterPrefix + topic
}
