package authservice

import (
	"context"
	"time"

	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
)

// ------------------------
// Fake JWT Provider
// ------------------------

type FakeJWTProvider struct {
	trace []string

	GenerateTokenFunc func(claims *authdomain.Claims, ttl time.Duration) (string, error)
	ValidateTokenFunc func(tokenString string) (*authdomain.Claims, error)
}

func (f *FakeJWTProvider) Trace() []string {
	return f.trace
}

func (f *FakeJWTProvider) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeJWTProvider) GenerateToken(claims *authdomain.Claims, ttl time.Duration) (string, error) {
	f.record("GenerateToken")
	if f.GenerateTokenFunc != nil {
		return f.GenerateTokenFunc(claims, ttl)
	}
	return "fake-token", nil
}

func (f *FakeJWTProvider) ValidateToken(tokenString string) (*authdomain.Claims, error) {
	f.record("ValidateToken")
	if f.ValidateTokenFunc != nil {
		return f.ValidateTokenFunc(tokenString)
	}
	return &authdomain.Claims{
		Subject: "test-subject",
		Email:   "test@example.com",
		Name:    "Test Member",
	}, nil
}

// ------------------------
// Fake Member Resolver
// ------------------------

type FakeMemberResolver struct {
	trace []string

	ResolvePrincipalFunc func(ctx context.Context, claims *authdomain.Claims) (*authdomain.Principal, error)
}

func (f *FakeMemberResolver) Trace() []string {
	return f.trace
}

func (f *FakeMemberResolver) ResolvePrincipal(ctx context.Context, claims *authdomain.Claims) (*authdomain.Principal, error) {
	f.trace = append(f.trace, "ResolvePrincipal")
	if f.ResolvePrincipalFunc != nil {
		return f.ResolvePrincipalFunc(ctx, claims)
	}
	return &authdomain.Principal{
		Subject: claims.Subject,
		Email:   claims.Email,
		Name:    claims.Name,
		Roles:   []authdomain.Role{authdomain.RoleReader},
	}, nil
}
