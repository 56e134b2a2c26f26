package authhandlers

import (
	"context"

	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
)

type FakeAuthService struct {
	trace []string

	AuthenticateFunc func(ctx context.Context, authorization string) (*authdomain.Principal, error)
}

func (f *FakeAuthService) Trace() []string {
	return f.trace
}

func (f *FakeAuthService) Authenticate(ctx context.Context, authorization string) (*authdomain.Principal, error) {
	f.trace = append(f.trace, "Authenticate")
	if f.AuthenticateFunc != nil {
		return f.AuthenticateFunc(ctx, authorization)
	}
	return &authdomain.Principal{Subject: "fake"}, nil
}
