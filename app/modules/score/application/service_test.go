package scoreservice

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	scoredomain "github.com/sjlangley/social-golf-spa/app/modules/score/domain"
	scoredb "github.com/sjlangley/social-golf-spa/app/modules/score/infrastructure/repositories"
	"github.com/sjlangley/social-golf-spa/pkg/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/xuri/excelize/v2"
	"go.opentelemetry.io/otel/trace/noop"
)

var fixedNow = time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC)

func newTestService(repo *FakeScoreRepo, pub *FakeScorePublisher) *ScoreService {
	svc := NewScoreService(repo, pub, slog.Default(), metrics.NewNoopScore(), noop.NewTracerProvider().Tracer("test"), nil)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validRequest(memberID uuid.UUID) scoredomain.RecordScoreRequest {
	diff := gofakeit.Float64Range(-5, 40)
	course := gofakeit.City() + " Golf Club"
	return scoredomain.RecordScoreRequest{
		MemberID:     memberID,
		Differential: &diff,
		CourseName:   &course,
		RecordedAt:   fixedNow.Add(-time.Hour),
	}
}

func TestRecordScore(t *testing.T) {
	memberID := uuid.New()

	tests := []struct {
		name       string
		req        scoredomain.RecordScoreRequest
		setup      func(*FakeScoreRepo, *FakeScorePublisher)
		wantErr    error
		wantInfra  bool
		wantStatus scoredomain.HandicapStatus
		wantTrace  []string
	}{
		{
			name:       "publishes after insert",
			req:        validRequest(memberID),
			wantStatus: scoredomain.HandicapScheduled,
			wantTrace:  []string{"MemberExists", "InsertScore", "PublishScoreCreated"},
		},
		{
			name: "publish failure keeps the score",
			req:  validRequest(memberID),
			setup: func(_ *FakeScoreRepo, p *FakeScorePublisher) {
				p.PublishScoreCreatedFunc = func(context.Context, scoredomain.Score) error {
					return errors.New("broker unavailable")
				}
			},
			wantStatus: scoredomain.HandicapPendingUnknown,
			wantTrace:  []string{"MemberExists", "InsertScore", "PublishScoreCreated"},
		},
		{
			name: "unknown member",
			req:  validRequest(memberID),
			setup: func(r *FakeScoreRepo, _ *FakeScorePublisher) {
				r.MemberExistsFunc = func(context.Context, bun.IDB, uuid.UUID) (bool, error) { return false, nil }
			},
			wantErr:   ErrMemberNotFound,
			wantTrace: []string{"MemberExists"},
		},
		{
			name: "member deleted between check and insert",
			req:  validRequest(memberID),
			setup: func(r *FakeScoreRepo, _ *FakeScorePublisher) {
				r.InsertScoreFunc = func(context.Context, bun.IDB, *scoredb.Score) error { return scoredb.ErrMemberNotFound }
			},
			wantErr:   ErrMemberNotFound,
			wantTrace: []string{"MemberExists", "InsertScore"},
		},
		{
			name: "invalid request touches nothing",
			req: func() scoredomain.RecordScoreRequest {
				r := validRequest(memberID)
				r.RecordedAt = fixedNow.Add(time.Hour)
				return r
			}(),
			wantErr:   scoredomain.ErrInvalidScore,
			wantTrace: []string{},
		},
		{
			name: "insert error is not published",
			req:  validRequest(memberID),
			setup: func(r *FakeScoreRepo, _ *FakeScorePublisher) {
				r.InsertScoreFunc = func(context.Context, bun.IDB, *scoredb.Score) error { return errors.New("connection reset") }
			},
			wantInfra: true,
			wantTrace: []string{"MemberExists", "InsertScore"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tracer := &Tracer{}
			repo := NewFakeScoreRepo(tracer)
			pub := NewFakeScorePublisher(tracer)
			if tt.setup != nil {
				tt.setup(repo, pub)
			}

			got, err := newTestService(repo, pub).RecordScore(context.Background(), tt.req)

			assert.Equal(t, tt.wantTrace, tracer.Steps())
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				assert.Empty(t, pub.Published())
			case tt.wantInfra:
				require.Error(t, err)
				assert.Empty(t, pub.Published())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.wantStatus, got.HandicapStatus)
				assert.Equal(t, memberID, got.Score.MemberID)
				assert.InDelta(t, *tt.req.Differential, got.Score.Differential, 1e-9)
				require.Len(t, repo.Inserted(), 1)
				assert.Equal(t, repo.Inserted()[0].ID, got.Score.ID)
				if tt.wantStatus == scoredomain.HandicapPendingUnknown {
					assert.NotEmpty(t, got.Warning)
				} else {
					assert.Empty(t, got.Warning)
					require.Len(t, pub.Published(), 1)
					assert.Equal(t, got.Score.ID, pub.Published()[0].ID)
				}
			}
		})
	}
}

func TestRecordScore_PublishSurvivesCancelledRequest(t *testing.T) {
	tracer := &Tracer{}
	repo := NewFakeScoreRepo(tracer)
	pub := NewFakeScorePublisher(tracer)
	var publishCtxErr error
	pub.PublishScoreCreatedFunc = func(ctx context.Context, _ scoredomain.Score) error {
		publishCtxErr = ctx.Err()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	repo.InsertScoreFunc = func(context.Context, bun.IDB, *scoredb.Score) error {
		cancel()
		return nil
	}

	got, err := newTestService(repo, pub).RecordScore(ctx, validRequest(uuid.New()))
	require.NoError(t, err)
	assert.Equal(t, scoredomain.HandicapScheduled, got.HandicapStatus)
	assert.NoError(t, publishCtxErr)
}

func TestListScores(t *testing.T) {
	memberID := uuid.New()

	t.Run("clamps limit and maps rows", func(t *testing.T) {
		tracer := &Tracer{}
		repo := NewFakeScoreRepo(tracer)
		var gotLimit int
		repo.ListScoresFunc = func(_ context.Context, _ bun.IDB, id uuid.UUID, limit int) ([]scoredb.Score, error) {
			gotLimit = limit
			return []scoredb.Score{
				{ID: uuid.New(), MemberID: id, Differential: 8.1, RecordedAt: fixedNow},
				{ID: uuid.New(), MemberID: id, Differential: 9.4, RecordedAt: fixedNow.Add(-time.Hour)},
			}, nil
		}

		scores, err := newTestService(repo, NewFakeScorePublisher(tracer)).ListScores(context.Background(), memberID, 500)
		require.NoError(t, err)
		assert.Equal(t, MaxListLimit, gotLimit)
		require.Len(t, scores, 2)
		assert.Equal(t, 8.1, scores[0].Differential)
	})

	t.Run("default limit", func(t *testing.T) {
		tracer := &Tracer{}
		repo := NewFakeScoreRepo(tracer)
		var gotLimit int
		repo.ListScoresFunc = func(_ context.Context, _ bun.IDB, _ uuid.UUID, limit int) ([]scoredb.Score, error) {
			gotLimit = limit
			return nil, nil
		}

		scores, err := newTestService(repo, NewFakeScorePublisher(tracer)).ListScores(context.Background(), memberID, 0)
		require.NoError(t, err)
		assert.Equal(t, DefaultListLimit, gotLimit)
		assert.Empty(t, scores)
	})

	t.Run("unknown member", func(t *testing.T) {
		tracer := &Tracer{}
		repo := NewFakeScoreRepo(tracer)
		repo.MemberExistsFunc = func(context.Context, bun.IDB, uuid.UUID) (bool, error) { return false, nil }

		_, err := newTestService(repo, NewFakeScorePublisher(tracer)).ListScores(context.Background(), memberID, 10)
		require.ErrorIs(t, err, ErrMemberNotFound)
		assert.Equal(t, []string{"MemberExists"}, tracer.Steps())
	})
}

func TestImportScores(t *testing.T) {
	known := uuid.New()
	unknown := uuid.New()

	tracer := &Tracer{}
	repo := NewFakeScoreRepo(tracer)
	repo.MemberExistsFunc = func(_ context.Context, _ bun.IDB, id uuid.UUID) (bool, error) {
		return id == known, nil
	}
	pub := NewFakeScorePublisher(tracer)

	data := workbook(t, [][]string{
		{"member_id", "differential", "recorded_at"},
		{known.String(), "10.2", "2026-09-01"},
		{unknown.String(), "11.0", "2026-09-02"},
		{known.String(), "abc", "2026-09-03"},
		{known.String(), "12.5", "2026-09-04"},
	})

	report, err := newTestService(repo, pub).ImportScores(context.Background(), data)
	require.NoError(t, err)

	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 2, report.Failed)
	require.Len(t, report.Rows, 4)
	assert.NotNil(t, report.Rows[0].ScoreID)
	assert.Equal(t, scoredomain.HandicapScheduled, report.Rows[0].HandicapStatus)
	assert.Contains(t, report.Rows[1].Error, "member not found")
	assert.NotEmpty(t, report.Rows[2].Error)
	assert.Equal(t, 5, report.Rows[3].Row)
	assert.Len(t, pub.Published(), 2)
}

func TestImportScores_InvalidFile(t *testing.T) {
	tracer := &Tracer{}
	_, err := newTestService(NewFakeScoreRepo(tracer), NewFakeScorePublisher(tracer)).
		ImportScores(context.Background(), []byte("not a workbook"))
	require.ErrorIs(t, err, ErrInvalidImport)
	assert.Empty(t, tracer.Steps())
}

func workbook(t *testing.T, rows [][]string) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(f.GetActiveSheetIndex())
	for idx, row := range rows {
		axis, err := excelize.CoordinatesToCellName(1, idx+1)
		require.NoError(t, err)
		cells := make([]interface{}, len(row))
		for i, val := range row {
			cells[i] = val
		}
		require.NoError(t, f.SetSheetRow(sheet, axis, &cells))
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	require.NoError(t, f.Close())
	return buf.Bytes()
}
