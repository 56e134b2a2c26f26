package auth

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	authservice "github.com/sjlangley/social-golf-spa/app/modules/auth/application"
	authhandlers "github.com/sjlangley/social-golf-spa/app/modules/auth/infrastructure/handlers"
	authjwt "github.com/sjlangley/social-golf-spa/app/modules/auth/infrastructure/jwt"
	"github.com/sjlangley/social-golf-spa/config"
	"github.com/sjlangley/social-golf-spa/pkg/observability"
	"golang.org/x/time/rate"
)

// Module represents the auth module. It owns the bearer verification service
// and the HTTP middleware shared by every API route.
type Module struct {
	config  *config.Config
	service authservice.Service
	limiter *authhandlers.IPRateLimiter
	logger  *slog.Logger
}

// NewModule creates a new auth module.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	members authservice.MemberResolver,
) *Module {
	logger := obs.Logger
	logger.InfoContext(ctx, "Initializing auth module",
		slog.Bool("bypass", cfg.AuthBypassed()),
		slog.String("environment", cfg.Auth.Environment),
	)

	if cfg.Auth.Disabled && !cfg.AuthBypassed() {
		logger.WarnContext(ctx, "auth.disabled ignored outside the local environment",
			slog.String("environment", cfg.Auth.Environment),
		)
	}

	jwtProvider := authjwt.NewProvider(cfg.Auth.Secret, cfg.Auth.ClientID, cfg.Auth.Issuer)

	service := authservice.NewService(
		jwtProvider,
		members,
		authservice.Config{
			Bypass:      cfg.AuthBypassed(),
			Environment: cfg.Auth.Environment,
		},
		logger,
		obs.Tracer,
	)

	return &Module{
		config:  cfg,
		service: service,
		limiter: authhandlers.NewIPRateLimiter(rate.Limit(cfg.HTTP.RateLimitRPS), cfg.HTTP.RateLimitBurst),
		logger:  logger,
	}
}

// UseEdge installs CORS and per-IP rate limiting on r.
func (m *Module) UseEdge(r chi.Router) {
	r.Use(authhandlers.CORSMiddleware(m.config.HTTP.AllowedOrigins))
	r.Use(authhandlers.RateLimitMiddleware(m.limiter))
}

// Authenticate returns the middleware that resolves the caller.
func (m *Module) Authenticate() func(http.Handler) http.Handler {
	return authhandlers.AuthMiddleware(m.service, m.logger)
}

// GetService returns the auth service for use by other modules.
func (m *Module) GetService() authservice.Service {
	return m.service
}
