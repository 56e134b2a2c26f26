package memberhandlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
	authhandlers "github.com/sjlangley/social-golf-spa/app/modules/auth/infrastructure/handlers"
	memberservice "github.com/sjlangley/social-golf-spa/app/modules/member/application"
	memberdomain "github.com/sjlangley/social-golf-spa/app/modules/member/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(svc memberservice.Service, principal *authdomain.Principal) http.Handler {
	h := NewMemberHandlers(svc, slog.New(slog.NewTextHandler(io.Discard, nil)))
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if principal != nil {
				req = req.WithContext(authhandlers.WithPrincipal(req.Context(), principal))
			}
			next.ServeHTTP(w, req)
		})
	})
	r.Get("/api/v1/members", h.ListMembers)
	r.Get("/api/v1/members/current", h.CurrentMember)
	r.Post("/api/v1/members", h.CreateMember)
	r.Get("/api/v1/members/{memberID}", h.GetMember)
	return r
}

func TestListMembers(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantCode   int
		wantParams *memberdomain.ListParams
	}{
		{
			name:       "defaults",
			query:      "",
			wantCode:   http.StatusOK,
			wantParams: &memberdomain.ListParams{Limit: 50, SortBy: memberdomain.SortByID, Direction: memberdomain.SortAsc},
		},
		{
			name:       "explicit",
			query:      "?limit=10&sort_by=name&sort_direction=desc",
			wantCode:   http.StatusOK,
			wantParams: &memberdomain.ListParams{Limit: 10, SortBy: memberdomain.SortByName, Direction: memberdomain.SortDesc},
		},
		{name: "limit zero", query: "?limit=0", wantCode: http.StatusUnprocessableEntity},
		{name: "limit over max", query: "?limit=101", wantCode: http.StatusUnprocessableEntity},
		{name: "limit not a number", query: "?limit=ten", wantCode: http.StatusUnprocessableEntity},
		{name: "bad sort", query: "?sort_by=created_at", wantCode: http.StatusUnprocessableEntity},
		{name: "bad cursor", query: "?next_cursor=***", wantCode: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *memberdomain.ListParams
			svc := &FakeMemberService{
				ListMembersFunc: func(_ context.Context, p memberdomain.ListParams) (memberdomain.Page[*memberdomain.Member], error) {
					got = &p
					return memberdomain.Page[*memberdomain.Member]{Items: []*memberdomain.Member{}}, nil
				},
			}

			rec := httptest.NewRecorder()
			newRouter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/members"+tt.query, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantParams, got)
			if tt.wantCode == http.StatusOK {
				assert.JSONEq(t, `{"items":[],"next_cursor":null}`, rec.Body.String())
			}
		})
	}
}

func TestListMembers_ServiceError(t *testing.T) {
	svc := &FakeMemberService{
		ListMembersFunc: func(context.Context, memberdomain.ListParams) (memberdomain.Page[*memberdomain.Member], error) {
			return memberdomain.Page[*memberdomain.Member]{}, errors.New("db down")
		},
	}
	rec := httptest.NewRecorder()
	newRouter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/members", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestCurrentMember(t *testing.T) {
	principal := &authdomain.Principal{
		MemberID:    uuid.New(),
		Subject:     "sub-1",
		Email:       "pat@example.com",
		Roles:       []authdomain.Role{authdomain.RoleReader},
		Permissions: []authdomain.Permission{authdomain.PermMembersRead},
	}

	rec := httptest.NewRecorder()
	newRouter(&FakeMemberService{}, principal).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/members/current", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, principal.MemberID.String(), body["id"])
	assert.Equal(t, "pat@example.com", body["email"])

	rec = httptest.NewRecorder()
	newRouter(&FakeMemberService{}, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/members/current", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateMember(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		err      error
		wantCode int
	}{
		{name: "created", body: `{"email":"pat@example.com","name":"Pat"}`, wantCode: http.StatusCreated},
		{name: "bad json", body: `{`, wantCode: http.StatusBadRequest},
		{name: "invalid", body: `{}`, err: fmt.Errorf("%w: empty", memberservice.ErrInvalidMember), wantCode: http.StatusUnprocessableEntity},
		{name: "exists", body: `{"name":"Pat"}`, err: memberservice.ErrMemberExists, wantCode: http.StatusConflict},
		{name: "infra", body: `{"name":"Pat"}`, err: errors.New("db down"), wantCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeMemberService{}
			if tt.err != nil {
				svc.CreateMemberFunc = func(context.Context, memberservice.CreateMemberRequest) (*memberdomain.Member, error) {
					return nil, tt.err
				}
			}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/members", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			newRouter(svc, nil).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantCode, rec.Code)
		})
	}
}

func TestGetMember(t *testing.T) {
	known := &memberdomain.Member{ID: uuid.New(), Email: "pat@example.com", Name: "Pat", Roles: []string{"reader"}}

	tests := []struct {
		name      string
		path      string
		err       error
		wantCode  int
		wantTrace []string
	}{
		{name: "found", path: known.ID.String(), wantCode: http.StatusOK, wantTrace: []string{"GetMember"}},
		{name: "bad id", path: "nope", wantCode: http.StatusUnprocessableEntity, wantTrace: nil},
		{name: "missing", path: uuid.NewString(), err: memberservice.ErrMemberNotFound, wantCode: http.StatusNotFound, wantTrace: []string{"GetMember"}},
		{name: "infra", path: known.ID.String(), err: errors.New("db down"), wantCode: http.StatusInternalServerError, wantTrace: []string{"GetMember"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &FakeMemberService{
				GetMemberFunc: func(_ context.Context, id uuid.UUID) (*memberdomain.Member, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return known, nil
				},
			}

			rec := httptest.NewRecorder()
			newRouter(svc, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/members/"+tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantTrace, svc.Trace())
			if tt.wantCode == http.StatusOK {
				var body map[string]any
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, known.ID.String(), body["id"])
			}
		})
	}
}
