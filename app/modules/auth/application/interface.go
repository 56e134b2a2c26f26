package authservice

import (
	"context"

	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
)

// Service defines the authentication service interface.
type Service interface {
	// Authenticate verifies the raw Authorization header value and returns the
	// caller with effective permissions filled in.
	Authenticate(ctx context.Context, authorization string) (*authdomain.Principal, error)
}

// MemberResolver loads or creates the member record for verified claims.
type MemberResolver interface {
	ResolvePrincipal(ctx context.Context, claims *authdomain.Claims) (*authdomain.Principal, error)
}

// Config holds the configuration for the auth service.
type Config struct {
	// Bypass skips token verification and yields the anonymous principal. The
	// caller only sets it for the local environment.
	Bypass      bool
	Environment string
}
