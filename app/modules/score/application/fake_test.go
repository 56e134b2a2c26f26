package scoreservice

import (
	"context"
	"sync"

	"github.com/google/uuid"
	scoredomain "github.com/sjlangley/social-golf-spa/app/modules/score/domain"
	scoredb "github.com/sjlangley/social-golf-spa/app/modules/score/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// Tracer is shared by the fakes so tests can assert cross-dependency order.
type Tracer struct {
	mu    sync.Mutex
	steps []string
}

func (t *Tracer) record(step string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.steps = append(t.steps, step)
}

func (t *Tracer) Steps() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.steps))
	copy(out, t.steps)
	return out
}

// ------------------------
// Fake Score Repo
// ------------------------

type FakeScoreRepo struct {
	trace *Tracer

	MemberExistsFunc func(ctx context.Context, db bun.IDB, memberID uuid.UUID) (bool, error)
	InsertScoreFunc  func(ctx context.Context, db bun.IDB, score *scoredb.Score) error
	ListScoresFunc   func(ctx context.Context, db bun.IDB, memberID uuid.UUID, limit int) ([]scoredb.Score, error)

	mu       sync.Mutex
	inserted []scoredb.Score
}

func NewFakeScoreRepo(trace *Tracer) *FakeScoreRepo {
	return &FakeScoreRepo{trace: trace}
}

func (f *FakeScoreRepo) MemberExists(ctx context.Context, db bun.IDB, memberID uuid.UUID) (bool, error) {
	f.trace.record("MemberExists")
	if f.MemberExistsFunc != nil {
		return f.MemberExistsFunc(ctx, db, memberID)
	}
	return true, nil
}

func (f *FakeScoreRepo) InsertScore(ctx context.Context, db bun.IDB, score *scoredb.Score) error {
	f.trace.record("InsertScore")
	if f.InsertScoreFunc != nil {
		if err := f.InsertScoreFunc(ctx, db, score); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.inserted = append(f.inserted, *score)
	f.mu.Unlock()
	return nil
}

func (f *FakeScoreRepo) ListScores(ctx context.Context, db bun.IDB, memberID uuid.UUID, limit int) ([]scoredb.Score, error) {
	f.trace.record("ListScores")
	if f.ListScoresFunc != nil {
		return f.ListScoresFunc(ctx, db, memberID, limit)
	}
	return nil, nil
}

func (f *FakeScoreRepo) Inserted() []scoredb.Score {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scoredb.Score, len(f.inserted))
	copy(out, f.inserted)
	return out
}

// ------------------------
// Fake Publisher
// ------------------------

type FakeScorePublisher struct {
	trace *Tracer

	PublishScoreCreatedFunc func(ctx context.Context, score scoredomain.Score) error

	mu        sync.Mutex
	published []scoredomain.Score
}

func NewFakeScorePublisher(trace *Tracer) *FakeScorePublisher {
	return &FakeScorePublisher{trace: trace}
}

func (f *FakeScorePublisher) PublishScoreCreated(ctx context.Context, score scoredomain.Score) error {
	f.trace.record("PublishScoreCreated")
	if f.PublishScoreCreatedFunc != nil {
		if err := f.PublishScoreCreatedFunc(ctx, score); err != nil {
			return err
		}
	}
	f.mu.Lock()
	f.published = append(f.published, score)
	f.mu.Unlock()
	return nil
}

func (f *FakeScorePublisher) Published() []scoredomain.Score {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]scoredomain.Score, len(f.published))
	copy(out, f.published)
	return out
}
