package handicapqueue

// QueueName is the dedicated River queue for handicap jobs.
const QueueName = "handicap"

// RecalculateJob recomputes one member's handicap outside the event pipeline.
type RecalculateJob struct {
	MemberID string `json:"member_id"`
}

// Kind returns the job type identifier for River
func (RecalculateJob) Kind() string { return "handicap_recalculate" }
