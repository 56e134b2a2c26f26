package handicaphandlers

import (
	"context"

	"github.com/google/uuid"
	handicapservice "github.com/sjlangley/social-golf-spa/app/modules/handicap/application"
	scoreevents "github.com/sjlangley/social-golf-spa/pkg/events/score"
)

type FakeHandicapService struct {
	trace []string

	RecalculateHandicapFunc func(ctx context.Context, event scoreevents.ScoreCreatedPayloadV1) (handicapservice.HandicapResult, error)
	GetHandicapFunc         func(ctx context.Context, memberID uuid.UUID) (*handicapservice.Handicap, error)
	ListMemberIDsFunc       func(ctx context.Context) ([]uuid.UUID, error)
}

func (f *FakeHandicapService) RecalculateHandicap(ctx context.Context, event scoreevents.ScoreCreatedPayloadV1) (handicapservice.HandicapResult, error) {
	f.trace = append(f.trace, "RecalculateHandicap")
	if f.RecalculateHandicapFunc != nil {
		return f.RecalculateHandicapFunc(ctx, event)
	}
	return handicapservice.HandicapResult{}, nil
}

func (f *FakeHandicapService) GetHandicap(ctx context.Context, memberID uuid.UUID) (*handicapservice.Handicap, error) {
	f.trace = append(f.trace, "GetHandicap")
	if f.GetHandicapFunc != nil {
		return f.GetHandicapFunc(ctx, memberID)
	}
	return nil, handicapservice.ErrHandicapNotFound
}

func (f *FakeHandicapService) ListMemberIDs(ctx context.Context) ([]uuid.UUID, error) {
	f.trace = append(f.trace, "ListMemberIDs")
	if f.ListMemberIDsFunc != nil {
		return f.ListMemberIDsFunc(ctx)
	}
	return nil, nil
}

func (f *FakeHandicapService) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

var _ handicapservice.Service = (*FakeHandicapService)(nil)

type FakeEnqueuer struct {
	EnqueueRecalculationFunc func(ctx context.Context, memberIDs []uuid.UUID) (int, error)
	enqueued                 []uuid.UUID
}

func (f *FakeEnqueuer) EnqueueRecalculation(ctx context.Context, memberIDs []uuid.UUID) (int, error) {
	f.enqueued = append(f.enqueued, memberIDs...)
	if f.EnqueueRecalculationFunc != nil {
		return f.EnqueueRecalculationFunc(ctx, memberIDs)
	}
	return len(memberIDs), nil
}
