package authservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
	authjwt "github.com/sjlangley/social-golf-spa/app/modules/auth/infrastructure/jwt"
	"github.com/sjlangley/social-golf-spa/app/modules/auth/infrastructure/permissions"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// service implements the Service interface.
type service struct {
	jwtProvider       authjwt.Provider
	members           MemberResolver
	permissionBuilder *permissions.Builder
	config            Config
	logger            *slog.Logger
	tracer            trace.Tracer
}

// NewService creates a new auth service.
func NewService(
	jwtProvider authjwt.Provider,
	members MemberResolver,
	config Config,
	logger *slog.Logger,
	tracer trace.Tracer,
) Service {
	return &service{
		jwtProvider:       jwtProvider,
		members:           members,
		permissionBuilder: permissions.NewBuilder(),
		config:            config,
		logger:            logger,
		tracer:            tracer,
	}
}

// Authenticate resolves the caller from a bearer token.
func (s *service) Authenticate(ctx context.Context, authorization string) (*authdomain.Principal, error) {
	ctx, span := s.tracer.Start(ctx, "AuthService.Authenticate")
	defer span.End()

	if s.config.Bypass {
		s.logger.WarnContext(ctx, "Bypassing bearer token verification",
			attr.String("environment", s.config.Environment),
		)
		return s.permissionBuilder.Apply(authdomain.Anonymous()), nil
	}

	token, ok := bearerToken(authorization)
	if !ok {
		return nil, ErrMissingToken
	}

	claims, err := s.jwtProvider.ValidateToken(token)
	if err != nil {
		s.logger.InfoContext(ctx, "Bearer token verification failed", attr.Error(err))
		if errors.Is(err, authjwt.ErrExpiredToken) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	principal, err := s.members.ResolvePrincipal(ctx, claims)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to resolve member for token",
			attr.String("subject", claims.Subject),
			attr.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrResolvePrincipal, err)
	}

	return s.permissionBuilder.Apply(principal), nil
}

// bearerToken extracts the credentials from "Bearer <token>".
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
