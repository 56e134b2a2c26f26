package handicaphandlers

import (
	"context"
	"log/slog"

	handicapservice "github.com/sjlangley/social-golf-spa/app/modules/handicap/application"
	scoreevents "github.com/sjlangley/social-golf-spa/pkg/events/score"
	"github.com/sjlangley/social-golf-spa/pkg/handlerwrapper"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// HandicapHandlers implements the Handlers interface.
type HandicapHandlers struct {
	service handicapservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHandicapHandlers creates a new HandicapHandlers instance.
func NewHandicapHandlers(
	service handicapservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &HandicapHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandleScoreCreated recalculates the member's handicap. A permanent failure
// is rejected so the message is dead-lettered instead of redelivered; a
// transient error is returned unchanged so the broker redelivers it.
func (h *HandicapHandlers) HandleScoreCreated(ctx context.Context, payload *scoreevents.ScoreCreatedPayloadV1) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "HandicapHandlers.HandleScoreCreated")
	defer span.End()

	h.logger.InfoContext(ctx, "Score created event received",
		attr.ExtractCorrelationID(ctx),
		attr.MemberID(payload.MemberID),
		attr.ScoreID(payload.ScoreID),
	)

	result, err := h.service.RecalculateHandicap(ctx, *payload)
	if err != nil {
		return nil, err
	}

	if result.IsFailure() {
		failure := *result.Failure
		h.logger.WarnContext(ctx, "Recalculation rejected",
			attr.ExtractCorrelationID(ctx),
			attr.MemberID(payload.MemberID),
			attr.Error(failure),
		)
		return nil, handlerwrapper.Reject("recalculation rejected", failure)
	}

	handicap := *result.Success
	return []handlerwrapper.Result{{
		Topic: scoreevents.HandicapRecalculatedV1,
		Payload: &scoreevents.HandicapRecalculatedPayloadV1{
			MemberID:         handicap.MemberID.String(),
			Value:            handicap.Value,
			SourceScoreCount: handicap.SourceScoreCount,
			ComputedAt:       handicap.ComputedAt,
			TriggerScoreID:   payload.ScoreID,
		},
	}}, nil
}
