package scorehandlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	scoreservice "github.com/sjlangley/social-golf-spa/app/modules/score/application"
	scoredomain "github.com/sjlangley/social-golf-spa/app/modules/score/domain"
	"github.com/sjlangley/social-golf-spa/pkg/httpjson"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
)

const (
	// MaxImportBytes bounds the multipart upload.
	MaxImportBytes = 5 << 20

	importField = "file"
)

// ScoreHandlers implements the Handlers interface.
type ScoreHandlers struct {
	service scoreservice.Service
	logger  *slog.Logger
}

// NewScoreHandlers creates a new ScoreHandlers instance.
func NewScoreHandlers(service scoreservice.Service, logger *slog.Logger) Handlers {
	return &ScoreHandlers{service: service, logger: logger}
}

// RecordScore serves POST /api/v1/members/{memberID}/scores.
func (h *ScoreHandlers) RecordScore(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}

	var req scoredomain.RecordScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Failed to decode request body")
		return
	}
	req.MemberID = memberID

	recorded, err := h.service.RecordScore(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, scoredomain.ErrInvalidScore):
			httpjson.Error(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, scoreservice.ErrMemberNotFound):
			httpjson.Error(w, http.StatusNotFound, "Member not found")
		default:
			h.logger.ErrorContext(r.Context(), "Failed to record score",
				attr.MemberID(memberID.String()),
				attr.Error(err),
			)
			httpjson.Error(w, http.StatusInternalServerError, "Failed to record score")
		}
		return
	}

	httpjson.Write(w, http.StatusCreated, recorded)
}

// ListScores serves GET /api/v1/members/{memberID}/scores.
func (h *ScoreHandlers) ListScores(w http.ResponseWriter, r *http.Request) {
	memberID, ok := memberIDParam(w, r)
	if !ok {
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > scoreservice.MaxListLimit {
			httpjson.Error(w, http.StatusUnprocessableEntity, "limit must be an integer between 1 and 100")
			return
		}
		limit = n
	}

	scores, err := h.service.ListScores(r.Context(), memberID, limit)
	if err != nil {
		if errors.Is(err, scoreservice.ErrMemberNotFound) {
			httpjson.Error(w, http.StatusNotFound, "Member not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to list scores",
			attr.MemberID(memberID.String()),
			attr.Error(err),
		)
		httpjson.Error(w, http.StatusInternalServerError, "Failed to list scores")
		return
	}

	httpjson.Write(w, http.StatusOK, map[string]any{"items": scores})
}

// ImportScores serves POST /api/v1/scores/import.
func (h *ScoreHandlers) ImportScores(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxImportBytes)
	if err := r.ParseMultipartForm(MaxImportBytes); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Expected a multipart form upload")
		return
	}

	file, _, err := r.FormFile(importField)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Missing file field")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Failed to read uploaded file")
		return
	}

	report, err := h.service.ImportScores(r.Context(), data)
	if err != nil {
		if errors.Is(err, scoreservice.ErrInvalidImport) {
			httpjson.Error(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to import scores", attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to import scores")
		return
	}

	httpjson.Write(w, http.StatusOK, report)
}

func memberIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, "memberID must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}
