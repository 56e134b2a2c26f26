package scorehandlers

import (
	"context"

	"github.com/google/uuid"
	scoredomain "github.com/sjlangley/social-golf-spa/app/modules/score/domain"
)

type FakeScoreService struct {
	RecordScoreFunc  func(ctx context.Context, req scoredomain.RecordScoreRequest) (*scoredomain.RecordedScore, error)
	ListScoresFunc   func(ctx context.Context, memberID uuid.UUID, limit int) ([]scoredomain.Score, error)
	ImportScoresFunc func(ctx context.Context, data []byte) (*scoredomain.ImportReport, error)
}

func (f *FakeScoreService) RecordScore(ctx context.Context, req scoredomain.RecordScoreRequest) (*scoredomain.RecordedScore, error) {
	if f.RecordScoreFunc != nil {
		return f.RecordScoreFunc(ctx, req)
	}
	return &scoredomain.RecordedScore{
		Score:          scoredomain.Score{ID: uuid.New(), MemberID: req.MemberID, Differential: *req.Differential, RecordedAt: req.RecordedAt},
		HandicapStatus: scoredomain.HandicapScheduled,
	}, nil
}

func (f *FakeScoreService) ListScores(ctx context.Context, memberID uuid.UUID, limit int) ([]scoredomain.Score, error) {
	if f.ListScoresFunc != nil {
		return f.ListScoresFunc(ctx, memberID, limit)
	}
	return []scoredomain.Score{}, nil
}

func (f *FakeScoreService) ImportScores(ctx context.Context, data []byte) (*scoredomain.ImportReport, error) {
	if f.ImportScoresFunc != nil {
		return f.ImportScoresFunc(ctx, data)
	}
	return &scoredomain.ImportReport{Rows: []scoredomain.ImportRowResult{}}, nil
}
