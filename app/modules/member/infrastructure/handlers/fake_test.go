package memberhandlers

import (
	"context"

	"github.com/google/uuid"
	authdomain "github.com/sjlangley/social-golf-spa/app/modules/auth/domain"
	memberservice "github.com/sjlangley/social-golf-spa/app/modules/member/application"
	memberdomain "github.com/sjlangley/social-golf-spa/app/modules/member/domain"
)

type FakeMemberService struct {
	trace []string

	ListMembersFunc  func(ctx context.Context, params memberdomain.ListParams) (memberdomain.Page[*memberdomain.Member], error)
	CreateMemberFunc func(ctx context.Context, req memberservice.CreateMemberRequest) (*memberdomain.Member, error)
	GetMemberFunc    func(ctx context.Context, id uuid.UUID) (*memberdomain.Member, error)
}

func (f *FakeMemberService) Trace() []string { return f.trace }

func (f *FakeMemberService) EnsureMember(context.Context, string, string, string) (*memberdomain.Member, error) {
	f.trace = append(f.trace, "EnsureMember")
	return &memberdomain.Member{ID: uuid.New()}, nil
}

func (f *FakeMemberService) ResolvePrincipal(context.Context, *authdomain.Claims) (*authdomain.Principal, error) {
	f.trace = append(f.trace, "ResolvePrincipal")
	return &authdomain.Principal{}, nil
}

func (f *FakeMemberService) ListMembers(ctx context.Context, params memberdomain.ListParams) (memberdomain.Page[*memberdomain.Member], error) {
	f.trace = append(f.trace, "ListMembers")
	if f.ListMembersFunc != nil {
		return f.ListMembersFunc(ctx, params)
	}
	return memberdomain.Page[*memberdomain.Member]{Items: []*memberdomain.Member{}}, nil
}

func (f *FakeMemberService) CreateMember(ctx context.Context, req memberservice.CreateMemberRequest) (*memberdomain.Member, error) {
	f.trace = append(f.trace, "CreateMember")
	if f.CreateMemberFunc != nil {
		return f.CreateMemberFunc(ctx, req)
	}
	return &memberdomain.Member{ID: uuid.New(), Email: req.Email, Name: req.Name, Roles: req.Roles}, nil
}

func (f *FakeMemberService) GetMember(ctx context.Context, id uuid.UUID) (*memberdomain.Member, error) {
	f.trace = append(f.trace, "GetMember")
	if f.GetMemberFunc != nil {
		return f.GetMemberFunc(ctx, id)
	}
	return nil, memberservice.ErrMemberNotFound
}
