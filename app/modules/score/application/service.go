package scoreservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	scoredomain "github.com/sjlangley/social-golf-spa/app/modules/score/domain"
	scoreparsers "github.com/sjlangley/social-golf-spa/app/modules/score/infrastructure/parsers"
	scorepublisher "github.com/sjlangley/social-golf-spa/app/modules/score/infrastructure/publisher"
	scoredb "github.com/sjlangley/social-golf-spa/app/modules/score/infrastructure/repositories"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
	"github.com/sjlangley/social-golf-spa/pkg/observability/metrics"
	"github.com/sjlangley/social-golf-spa/pkg/results"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "ScoreService"

	publishTimeout = 10 * time.Second

	pendingWarning = "Score saved, but the handicap update could not be scheduled. It will be corrected on the next score or backfill."
)

// ScoreService implements the Service interface.
type ScoreService struct {
	repo      scoredb.Repository
	publisher scorepublisher.Publisher
	parser    *scoreparsers.XLSXParser
	logger    *slog.Logger
	metrics   metrics.ScoreMetrics
	tracer    trace.Tracer
	db        *bun.DB
	now       func() time.Time
}

// NewScoreService creates a new ScoreService. db may be nil in tests.
func NewScoreService(
	repo scoredb.Repository,
	publisher scorepublisher.Publisher,
	logger *slog.Logger,
	m metrics.ScoreMetrics,
	tracer trace.Tracer,
	db *bun.DB,
) *ScoreService {
	return &ScoreService{
		repo:      repo,
		publisher: publisher,
		parser:    scoreparsers.NewXLSXParser(),
		logger:    logger,
		metrics:   m,
		tracer:    tracer,
		db:        db,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type scoreResult = results.OperationResult[*scoredomain.Score, error]
type recordedResult = results.OperationResult[*scoredomain.RecordedScore, error]

// RecordScore validates and stores a score, then publishes score.created.
func (s *ScoreService) RecordScore(ctx context.Context, req scoredomain.RecordScoreRequest) (*scoredomain.RecordedScore, error) {
	result, err := withTelemetry(s, ctx, "RecordScore", req.MemberID.String(), func(ctx context.Context) (recordedResult, error) {
		return s.recordLogic(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return *result.Success, nil
}

func (s *ScoreService) recordLogic(ctx context.Context, req scoredomain.RecordScoreRequest) (recordedResult, error) {
	if err := req.Validate(s.now()); err != nil {
		return results.FailureResult[*scoredomain.RecordedScore, error](err), nil
	}

	inserted, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (scoreResult, error) {
		return s.insertTx(ctx, db, req)
	})
	if err != nil {
		return recordedResult{}, err
	}
	if inserted.IsFailure() {
		return results.FailureResult[*scoredomain.RecordedScore, error](*inserted.Failure), nil
	}

	// The transaction has committed; only now is the score visible to the
	// calculator.
	score := *inserted.Success
	recorded := &scoredomain.RecordedScore{Score: *score, HandicapStatus: scoredomain.HandicapScheduled}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := s.publisher.PublishScoreCreated(pubCtx, *score); err != nil {
		s.logger.WarnContext(ctx, "Score saved but recalculation event was not published",
			attr.ExtractCorrelationID(ctx),
			attr.MemberID(score.MemberID.String()),
			attr.ScoreID(score.ID.String()),
			attr.Error(err),
		)
		recorded.HandicapStatus = scoredomain.HandicapPendingUnknown
		recorded.Warning = pendingWarning
	}
	s.metrics.RecordHandicapStatus(ctx, string(recorded.HandicapStatus))

	s.logger.InfoContext(ctx, "Score recorded",
		attr.ExtractCorrelationID(ctx),
		attr.MemberID(score.MemberID.String()),
		attr.ScoreID(score.ID.String()),
		attr.String("handicap_status", string(recorded.HandicapStatus)),
	)
	return results.SuccessResult[*scoredomain.RecordedScore, error](recorded), nil
}

func (s *ScoreService) insertTx(ctx context.Context, db bun.IDB, req scoredomain.RecordScoreRequest) (scoreResult, error) {
	exists, err := s.repo.MemberExists(ctx, db, req.MemberID)
	if err != nil {
		return scoreResult{}, err
	}
	if !exists {
		return results.FailureResult[*scoredomain.Score, error](fmt.Errorf("%w: %s", ErrMemberNotFound, req.MemberID)), nil
	}

	row := &scoredb.Score{
		ID:           uuid.New(),
		MemberID:     req.MemberID,
		Differential: *req.Differential,
		GrossScore:   req.GrossScore,
		CourseName:   req.CourseName,
		RecordedAt:   req.RecordedAt.UTC(),
		CreatedAt:    s.now(),
	}
	if err := s.repo.InsertScore(ctx, db, row); err != nil {
		if errors.Is(err, scoredb.ErrMemberNotFound) {
			return results.FailureResult[*scoredomain.Score, error](fmt.Errorf("%w: %s", ErrMemberNotFound, req.MemberID)), nil
		}
		return scoreResult{}, err
	}
	return results.SuccessResult[*scoredomain.Score, error](toDomain(row)), nil
}

// ListScores returns up to limit scores for the member, newest first.
func (s *ScoreService) ListScores(ctx context.Context, memberID uuid.UUID, limit int) ([]scoredomain.Score, error) {
	ctx, span := s.tracer.Start(ctx, "ListScores", trace.WithAttributes(
		attribute.String("member_id", memberID.String()),
	))
	defer span.End()

	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	exists, err := s.repo.MemberExists(ctx, nil, memberID)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list scores: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}

	rows, err := s.repo.ListScores(ctx, nil, memberID, limit)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("list scores: %w", err)
	}
	out := make([]scoredomain.Score, 0, len(rows))
	for i := range rows {
		out = append(out, *toDomain(&rows[i]))
	}
	return out, nil
}

// ImportScores records each parsed row independently. A row failure never
// stops the remaining rows; an infrastructure error does.
func (s *ScoreService) ImportScores(ctx context.Context, data []byte) (*scoredomain.ImportReport, error) {
	ctx, span := s.tracer.Start(ctx, "ImportScores")
	defer span.End()

	rows, err := s.parser.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidImport, err)
	}

	report := &scoredomain.ImportReport{Rows: make([]scoredomain.ImportRowResult, 0, len(rows))}
	for _, row := range rows {
		outcome := scoredomain.ImportRowResult{Row: row.Row}
		if row.Err != nil {
			outcome.Error = row.Err.Error()
			report.Failed++
			report.Rows = append(report.Rows, outcome)
			continue
		}

		recorded, err := s.RecordScore(ctx, row.Request)
		switch {
		case err == nil:
			id := recorded.Score.ID
			outcome.ScoreID = &id
			outcome.HandicapStatus = recorded.HandicapStatus
			report.Imported++
		case errors.Is(err, scoredomain.ErrInvalidScore), errors.Is(err, ErrMemberNotFound):
			outcome.Error = err.Error()
			report.Failed++
		default:
			span.RecordError(err)
			return nil, fmt.Errorf("import row %d: %w", row.Row, err)
		}
		report.Rows = append(report.Rows, outcome)
	}

	s.logger.InfoContext(ctx, "Score import finished",
		attr.ExtractCorrelationID(ctx),
		attr.Int("imported", report.Imported),
		attr.Int("failed", report.Failed),
	)
	return report, nil
}

func toDomain(r *scoredb.Score) *scoredomain.Score {
	return &scoredomain.Score{
		ID:           r.ID,
		MemberID:     r.MemberID,
		Differential: r.Differential,
		GrossScore:   r.GrossScore,
		CourseName:   r.CourseName,
		RecordedAt:   r.RecordedAt,
		CreatedAt:    r.CreatedAt,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *ScoreService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	ctx, span := s.tracer.Start(ctx, operationName, trace.WithAttributes(
		attribute.String("operation", operationName),
		attribute.String("member_id", identifier),
	))
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.ExtractCorrelationID(ctx),
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Error(wrappedErr),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.ExtractCorrelationID(ctx),
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
	}

	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *ScoreService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})

	return result, err
}
