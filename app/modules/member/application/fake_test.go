package memberservice

import (
	"context"
	"sync"

	"github.com/google/uuid"
	memberdomain "github.com/sjlangley/social-golf-spa/app/modules/member/domain"
	memberdb "github.com/sjlangley/social-golf-spa/app/modules/member/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Member Repo
// ------------------------

// FakeMemberRepo keeps members in memory so bootstrap and linking flows can be
// exercised end to end. Func fields override individual calls.
type FakeMemberRepo struct {
	mu      sync.Mutex
	trace   []string
	members []*memberdb.Member
	flags   map[string]bool

	GetBySubjectFunc func(ctx context.Context, db bun.IDB, subject string) (*memberdb.Member, error)
	CreateFunc       func(ctx context.Context, db bun.IDB, member *memberdb.Member) error
	ListFunc         func(ctx context.Context, db bun.IDB, params memberdomain.ListParams) ([]*memberdb.Member, error)
	SetFlagOnceFunc  func(ctx context.Context, db bun.IDB, key string) (bool, error)
}

func NewFakeMemberRepo() *FakeMemberRepo {
	return &FakeMemberRepo{trace: []string{}, flags: map[string]bool{}}
}

func (f *FakeMemberRepo) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeMemberRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeMemberRepo) Seed(m *memberdb.Member) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members = append(f.members, m)
}

func (f *FakeMemberRepo) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.members)
}

func (f *FakeMemberRepo) GetByID(_ context.Context, _ bun.IDB, id uuid.UUID) (*memberdb.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetByID")
	for _, m := range f.members {
		if m.ID == id {
			return m, nil
		}
	}
	return nil, memberdb.ErrNotFound
}

func (f *FakeMemberRepo) GetBySubject(ctx context.Context, db bun.IDB, subject string) (*memberdb.Member, error) {
	if f.GetBySubjectFunc != nil {
		f.mu.Lock()
		f.record("GetBySubject")
		f.mu.Unlock()
		return f.GetBySubjectFunc(ctx, db, subject)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetBySubject")
	for _, m := range f.members {
		if m.AuthSubject != nil && *m.AuthSubject == subject {
			return m, nil
		}
	}
	return nil, memberdb.ErrNotFound
}

func (f *FakeMemberRepo) GetUnlinkedByEmail(_ context.Context, _ bun.IDB, email string) (*memberdb.Member, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetUnlinkedByEmail")
	for _, m := range f.members {
		if m.AuthSubject == nil && m.Email == email {
			return m, nil
		}
	}
	return nil, memberdb.ErrNotFound
}

func (f *FakeMemberRepo) Create(ctx context.Context, db bun.IDB, member *memberdb.Member) error {
	if f.CreateFunc != nil {
		f.mu.Lock()
		f.record("Create")
		f.mu.Unlock()
		return f.CreateFunc(ctx, db, member)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("Create")
	if member.ID == uuid.Nil {
		member.ID = uuid.New()
	}
	f.members = append(f.members, member)
	return nil
}

func (f *FakeMemberRepo) LinkSubject(_ context.Context, _ bun.IDB, id uuid.UUID, subject, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LinkSubject")
	for _, m := range f.members {
		if m.ID == id && m.AuthSubject == nil {
			m.AuthSubject = &subject
			if name != "" {
				m.Name = name
			}
			return nil
		}
	}
	return memberdb.ErrNoRowsAffected
}

func (f *FakeMemberRepo) List(ctx context.Context, db bun.IDB, params memberdomain.ListParams) ([]*memberdb.Member, error) {
	f.mu.Lock()
	f.record("List")
	f.mu.Unlock()
	if f.ListFunc != nil {
		return f.ListFunc(ctx, db, params)
	}
	return nil, nil
}

func (f *FakeMemberRepo) SetFlagOnce(ctx context.Context, db bun.IDB, key string) (bool, error) {
	if f.SetFlagOnceFunc != nil {
		f.mu.Lock()
		f.record("SetFlagOnce")
		f.mu.Unlock()
		return f.SetFlagOnceFunc(ctx, db, key)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("SetFlagOnce")
	if f.flags[key] {
		return false, nil
	}
	f.flags[key] = true
	return true, nil
}
