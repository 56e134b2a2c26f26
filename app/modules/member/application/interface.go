package memberservice

import (
	"context"
	"errors"

	"github.com/google/uuid"
	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
	memberdomain "github.com/sjlangley/social-golf-spa/app/modules/member/domain"
)

// Service manages member records.
type Service interface {
	// EnsureMember returns the member for a token subject, creating it on
	// first sight. The first member ever created becomes an admin.
	EnsureMember(ctx context.Context, subject, email, name string) (*memberdomain.Member, error)

	// ResolvePrincipal adapts EnsureMember for bearer authentication.
	ResolvePrincipal(ctx context.Context, claims *authdomain.Claims) (*authdomain.Principal, error)

	ListMembers(ctx context.Context, params memberdomain.ListParams) (memberdomain.Page[*memberdomain.Member], error)
	CreateMember(ctx context.Context, req CreateMemberRequest) (*memberdomain.Member, error)
	GetMember(ctx context.Context, id uuid.UUID) (*memberdomain.Member, error)
}

// CreateMemberRequest is the body of POST /api/v1/members.
type CreateMemberRequest struct {
	Email       string          `json:"email"`
	Name        string          `json:"name"`
	Roles       []string        `json:"roles"`
	Permissions map[string]bool `json:"permissions"`
}

var (
	// ErrInvalidMember is returned when a create request fails validation.
	ErrInvalidMember = errors.New("invalid member")
	// ErrMemberExists is returned when a create request collides.
	ErrMemberExists = errors.New("member already exists")
	// ErrMemberNotFound is returned by GetMember.
	ErrMemberNotFound = errors.New("member not found")
)
