package handicaphandlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	handicapservice "github.com/sjlangley/social-golf-spa/app/modules/handicap/application"
	scoreevents "github.com/sjlangley/social-golf-spa/pkg/events/score"
	"github.com/sjlangley/social-golf-spa/pkg/httpjson"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
)

// manualTrigger is the score id recorded for an on-demand recalculation.
const manualTrigger = "manual"

// Enqueuer schedules backfill recalculations.
type Enqueuer interface {
	EnqueueRecalculation(ctx context.Context, memberIDs []uuid.UUID) (int, error)
}

// HTTPHandlers serves the handicap REST endpoints.
type HTTPHandlers interface {
	GetHandicap(w http.ResponseWriter, r *http.Request)
	RecalculateHandicap(w http.ResponseWriter, r *http.Request)
	Backfill(w http.ResponseWriter, r *http.Request)
}

// HandicapResponse is the JSON view of a handicap record.
type HandicapResponse struct {
	MemberID         uuid.UUID `json:"member_id"`
	Value            float64   `json:"value"`
	ComputedAt       time.Time `json:"computed_at"`
	SourceScoreCount int       `json:"source_score_count"`
}

// BackfillResponse reports how many jobs were scheduled.
type BackfillResponse struct {
	Members  int `json:"members"`
	Enqueued int `json:"enqueued"`
}

// HandicapHTTPHandlers implements HTTPHandlers. enqueuer may be nil when the
// job queue is disabled.
type HandicapHTTPHandlers struct {
	service  handicapservice.Service
	enqueuer Enqueuer
	logger   *slog.Logger
	now      func() time.Time
}

// NewHandicapHTTPHandlers creates the REST handlers.
func NewHandicapHTTPHandlers(service handicapservice.Service, enqueuer Enqueuer, logger *slog.Logger) HTTPHandlers {
	return &HandicapHTTPHandlers{
		service:  service,
		enqueuer: enqueuer,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GetHandicap serves GET /api/v1/members/{memberID}/handicap.
func (h *HandicapHTTPHandlers) GetHandicap(w http.ResponseWriter, r *http.Request) {
	memberID, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, "memberID must be a UUID")
		return
	}

	handicap, err := h.service.GetHandicap(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, handicapservice.ErrHandicapNotFound) {
			httpjson.Error(w, http.StatusNotFound, "Handicap has not been computed")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to get handicap",
			attr.MemberID(memberID.String()),
			attr.Error(err),
		)
		httpjson.Error(w, http.StatusInternalServerError, "Failed to get handicap")
		return
	}

	httpjson.Write(w, http.StatusOK, toResponse(handicap))
}

// RecalculateHandicap serves POST /api/v1/members/{memberID}/handicap/recalculate.
// It runs the same recalculation as the event consumer, synchronously.
func (h *HandicapHTTPHandlers) RecalculateHandicap(w http.ResponseWriter, r *http.Request) {
	event := scoreevents.ScoreCreatedPayloadV1{
		MemberID:  chi.URLParam(r, "memberID"),
		ScoreID:   manualTrigger,
		EmittedAt: h.now(),
	}

	result, err := h.service.RecalculateHandicap(r.Context(), event)
	if err != nil {
		h.logger.WarnContext(r.Context(), "Manual recalculation failed",
			attr.MemberID(event.MemberID),
			attr.Error(err),
		)
		httpjson.Error(w, http.StatusServiceUnavailable, "Handicap recalculation is temporarily unavailable")
		return
	}

	if result.IsFailure() {
		failure := *result.Failure
		if errors.Is(failure, handicapservice.ErrMemberNotFound) {
			httpjson.Error(w, http.StatusNotFound, "Member not found")
			return
		}
		httpjson.Error(w, http.StatusUnprocessableEntity, failure.Error())
		return
	}

	httpjson.Write(w, http.StatusOK, toResponse(*result.Success))
}

// Backfill serves POST /api/v1/handicaps/backfill.
func (h *HandicapHTTPHandlers) Backfill(w http.ResponseWriter, r *http.Request) {
	if h.enqueuer == nil {
		httpjson.Error(w, http.StatusServiceUnavailable, "Backfill queue is not enabled")
		return
	}

	ids, err := h.service.ListMemberIDs(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list members for backfill", attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to list members")
		return
	}

	enqueued, err := h.enqueuer.EnqueueRecalculation(r.Context(), ids)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to enqueue backfill",
			attr.Int("enqueued", enqueued),
			attr.Error(err),
		)
		httpjson.Error(w, http.StatusServiceUnavailable, "Failed to enqueue backfill")
		return
	}

	httpjson.Write(w, http.StatusAccepted, BackfillResponse{Members: len(ids), Enqueued: enqueued})
}

func toResponse(hc *handicapservice.Handicap) HandicapResponse {
	return HandicapResponse{
		MemberID:         hc.MemberID,
		Value:            hc.Value,
		ComputedAt:       hc.ComputedAt,
		SourceScoreCount: hc.SourceScoreCount,
	}
}
