package memberhandlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	authhandlers "github.com/sjlangley/social-golf-spa/app/modules/auth/infrastructure/handlers"
	memberservice "github.com/sjlangley/social-golf-spa/app/modules/member/application"
	memberdomain "github.com/sjlangley/social-golf-spa/app/modules/member/domain"
	"github.com/sjlangley/social-golf-spa/pkg/httpjson"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
)

// MemberHandlers implements the Handlers interface.
type MemberHandlers struct {
	service memberservice.Service
	logger  *slog.Logger
}

// NewMemberHandlers creates a new MemberHandlers instance.
func NewMemberHandlers(service memberservice.Service, logger *slog.Logger) Handlers {
	return &MemberHandlers{service: service, logger: logger}
}

// ListMembers serves GET /api/v1/members.
func (h *MemberHandlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpjson.Error(w, http.StatusUnprocessableEntity, "limit must be an integer")
			return
		}
		limit = n
		if limit == 0 {
			httpjson.Error(w, http.StatusUnprocessableEntity, memberdomain.ErrInvalidLimit.Error())
			return
		}
	}

	params, err := memberdomain.NewListParams(limit, q.Get("sort_by"), q.Get("sort_direction"), q.Get("next_cursor"))
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	page, err := h.service.ListMembers(r.Context(), params)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to list members", attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to list members")
		return
	}

	httpjson.Write(w, http.StatusOK, page)
}

// CurrentMember serves GET /api/v1/members/current.
func (h *MemberHandlers) CurrentMember(w http.ResponseWriter, r *http.Request) {
	principal, ok := authhandlers.PrincipalFromContext(r.Context())
	if !ok {
		httpjson.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	httpjson.Write(w, http.StatusOK, principal)
}

// CreateMember serves POST /api/v1/members.
func (h *MemberHandlers) CreateMember(w http.ResponseWriter, r *http.Request) {
	var req memberservice.CreateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpjson.Error(w, http.StatusBadRequest, "Failed to decode request body")
		return
	}

	member, err := h.service.CreateMember(r.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, memberservice.ErrInvalidMember):
			httpjson.Error(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, memberservice.ErrMemberExists):
			httpjson.Error(w, http.StatusConflict, err.Error())
		default:
			h.logger.ErrorContext(r.Context(), "Failed to create member", attr.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "Failed to create member")
		}
		return
	}

	httpjson.Write(w, http.StatusCreated, member)
}

// GetMember serves GET /api/v1/members/{memberID}.
func (h *MemberHandlers) GetMember(w http.ResponseWriter, r *http.Request) {
	memberID, err := uuid.Parse(chi.URLParam(r, "memberID"))
	if err != nil {
		httpjson.Error(w, http.StatusUnprocessableEntity, "member id must be a UUID")
		return
	}

	member, err := h.service.GetMember(r.Context(), memberID)
	if err != nil {
		if errors.Is(err, memberservice.ErrMemberNotFound) {
			httpjson.Error(w, http.StatusNotFound, "Member not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "Failed to get member", attr.MemberID(memberID.String()), attr.Error(err))
		httpjson.Error(w, http.StatusInternalServerError, "Failed to get member")
		return
	}

	httpjson.Write(w, http.StatusOK, member)
}
