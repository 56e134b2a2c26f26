package member

import (
	"context"
	"log/slog"

	"github.com/go-chi/chi/v5"
	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
	authhandlers "github.com/sjlangley/social-golf-spa/app/modules/auth/infrastructure/handlers"
	memberservice "github.com/sjlangley/social-golf-spa/app/modules/member/application"
	memberhandlers "github.com/sjlangley/social-golf-spa/app/modules/member/infrastructure/handlers"
	memberdb "github.com/sjlangley/social-golf-spa/app/modules/member/infrastructure/repositories"
	"github.com/sjlangley/social-golf-spa/pkg/observability"
	"github.com/sjlangley/social-golf-spa/pkg/observability/metrics"
	"github.com/uptrace/bun"
)

// Module represents the member module.
type Module struct {
	service  *memberservice.MemberService
	handlers memberhandlers.Handlers
	logger   *slog.Logger
}

// NewModule creates a new member module.
func NewModule(ctx context.Context, obs observability.Observability, db *bun.DB) *Module {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing member module")

	repo := memberdb.NewRepository(db)
	service := memberservice.NewMemberService(
		repo,
		logger,
		metrics.NewOperationMetrics(obs.Registry, "member"),
		obs.Tracer,
		db,
	)

	return &Module{
		service:  service,
		handlers: memberhandlers.NewMemberHandlers(service, logger),
		logger:   logger,
	}
}

// RegisterRoutes mounts the member endpoints. r must already authenticate.
func (m *Module) RegisterRoutes(r chi.Router) {
	r.With(authhandlers.RequirePermission(authdomain.PermMembersRead)).Get("/members", m.handlers.ListMembers)
	r.With(authhandlers.RequirePermission(authdomain.PermMembersRead)).Get("/members/current", m.handlers.CurrentMember)
	r.With(authhandlers.RequirePermission(authdomain.PermMembersCreate)).Post("/members", m.handlers.CreateMember)
	r.With(authhandlers.RequirePermission(authdomain.PermMembersRead)).Get("/members/{memberID}", m.handlers.GetMember)
}

// GetService returns the member service for use by other modules.
func (m *Module) GetService() memberservice.Service {
	return m.service
}
