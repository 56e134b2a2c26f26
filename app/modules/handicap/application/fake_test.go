package handicapservice

import (
	"context"
	"sync"

	"github.com/google/uuid"
	handicapdb "github.com/sjlangley/social-golf-spa/app/modules/handicap/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Handicap Repo
// ------------------------

type FakeHandicapRepo struct {
	mu    sync.Mutex
	trace []string

	GetRecentDifferentialsFunc func(ctx context.Context, db bun.IDB, memberID uuid.UUID, limit int) ([]float64, error)
	UpsertHandicapFunc         func(ctx context.Context, db bun.IDB, record *handicapdb.HandicapRecord) error
	GetHandicapFunc            func(ctx context.Context, db bun.IDB, memberID uuid.UUID) (*handicapdb.HandicapRecord, error)
	ListMemberIDsFunc          func(ctx context.Context, db bun.IDB) ([]uuid.UUID, error)

	upserts []handicapdb.HandicapRecord
}

func NewFakeHandicapRepo() *FakeHandicapRepo {
	return &FakeHandicapRepo{trace: []string{}}
}

func (f *FakeHandicapRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeHandicapRepo) GetRecentDifferentials(ctx context.Context, db bun.IDB, memberID uuid.UUID, limit int) ([]float64, error) {
	f.record("GetRecentDifferentials")
	if f.GetRecentDifferentialsFunc != nil {
		return f.GetRecentDifferentialsFunc(ctx, db, memberID, limit)
	}
	return []float64{}, nil
}

func (f *FakeHandicapRepo) UpsertHandicap(ctx context.Context, db bun.IDB, record *handicapdb.HandicapRecord) error {
	f.record("UpsertHandicap")
	if f.UpsertHandicapFunc != nil {
		if err := f.UpsertHandicapFunc(ctx, db, record); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.upserts = append(f.upserts, *record)
	f.mu.Unlock()
	return nil
}

func (f *FakeHandicapRepo) GetHandicap(ctx context.Context, db bun.IDB, memberID uuid.UUID) (*handicapdb.HandicapRecord, error) {
	f.record("GetHandicap")
	if f.GetHandicapFunc != nil {
		return f.GetHandicapFunc(ctx, db, memberID)
	}
	return nil, handicapdb.ErrNotFound
}

func (f *FakeHandicapRepo) ListMemberIDs(ctx context.Context, db bun.IDB) ([]uuid.UUID, error) {
	f.record("ListMemberIDs")
	if f.ListMemberIDsFunc != nil {
		return f.ListMemberIDsFunc(ctx, db)
	}
	return nil, nil
}

// --- Accessors for assertions ---

func (f *FakeHandicapRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeHandicapRepo) Upserts() []handicapdb.HandicapRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]handicapdb.HandicapRecord, len(f.upserts))
	copy(out, f.upserts)
	return out
}

var _ handicapdb.Repository = (*FakeHandicapRepo)(nil)

// ------------------------
// Fake Lease
// ------------------------

type FakeLease struct {
	AcquireFunc func(ctx context.Context, memberID string) (func(), error)
	released    int
}

func (f *FakeLease) Acquire(ctx context.Context, memberID string) (func(), error) {
	if f.AcquireFunc != nil {
		return f.AcquireFunc(ctx, memberID)
	}
	return func() { f.released++ }, nil
}

var _ Lease = (*FakeLease)(nil)
