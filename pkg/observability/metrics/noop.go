package metrics

import (
	"context"
	"time"
)

type noop struct{}

func (noop) RecordOperationAttempt(context.Context, string, string)                 {}
func (noop) RecordOperationSuccess(context.Context, string, string)                 {}
func (noop) RecordOperationFailure(context.Context, string, string)                 {}
func (noop) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (noop) RecordHandicapComputed(context.Context, float64, int)                   {}
func (noop) RecordDisposition(context.Context, string)                              {}
func (noop) RecordPublishAttempt(context.Context, string)                           {}
func (noop) RecordPublishFailure(context.Context, string)                           {}
func (noop) RecordHandicapStatus(context.Context, string)                           {}

// NewNoopHandicap returns HandicapMetrics that record nothing.
func NewNoopHandicap() HandicapMetrics { return noop{} }

// NewNoopScore returns ScoreMetrics that record nothing.
func NewNoopScore() ScoreMetrics { return noop{} }

// NewNoopOperation returns OperationMetrics that record nothing.
func NewNoopOperation() OperationMetrics { return noop{} }
