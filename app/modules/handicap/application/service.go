package handicapservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	handicapdomain "github.com/sjlangley/social-golf-spa/app/modules/handicap/domain"
	handicapdb "github.com/sjlangley/social-golf-spa/app/modules/handicap/infrastructure/repositories"
	scoreevents "github.com/sjlangley/social-golf-spa/pkg/events/score"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
	"github.com/sjlangley/social-golf-spa/pkg/observability/metrics"
	"github.com/sjlangley/social-golf-spa/pkg/results"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "HandicapService"

// Options bounds the store calls made during recalculation.
type Options struct {
	FetchTimeout time.Duration
	WriteTimeout time.Duration
}

// HandicapService implements the Service interface.
type HandicapService struct {
	repo    handicapdb.Repository
	lease   Lease
	logger  *slog.Logger
	metrics metrics.HandicapMetrics
	tracer  trace.Tracer
	opts    Options
	now     func() time.Time
}

// NewHandicapService creates a new HandicapService. lease may be nil.
func NewHandicapService(
	repo handicapdb.Repository,
	lease Lease,
	logger *slog.Logger,
	m metrics.HandicapMetrics,
	tracer trace.Tracer,
	opts Options,
) *HandicapService {
	if logger == nil {
		logger = slog.Default()
	}
	if m == nil {
		m = metrics.NewNoopHandicap()
	}
	if opts.FetchTimeout <= 0 {
		opts.FetchTimeout = 5 * time.Second
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &HandicapService{
		repo:    repo,
		lease:   lease,
		logger:  logger,
		metrics: m,
		tracer:  tracer,
		opts:    opts,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RecalculateHandicap validates the event, reads the member's recent window,
// computes the handicap and overwrites the stored record.
func (s *HandicapService) RecalculateHandicap(ctx context.Context, event scoreevents.ScoreCreatedPayloadV1) (HandicapResult, error) {
	return withTelemetry(s, ctx, "RecalculateHandicap", event.MemberID, func(ctx context.Context) (HandicapResult, error) {
		return s.recalculateLogic(ctx, event)
	})
}

func (s *HandicapService) recalculateLogic(ctx context.Context, event scoreevents.ScoreCreatedPayloadV1) (HandicapResult, error) {
	memberID, err := event.ParseMemberID()
	if err != nil {
		return results.FailureResult[*Handicap, error](err), nil
	}

	if s.lease != nil {
		release, err := s.lease.Acquire(ctx, memberID.String())
		if err != nil {
			return HandicapResult{}, fmt.Errorf("acquire lease: %w", err)
		}
		defer release()
	}

	differentials, err := s.fetchWindow(ctx, memberID)
	if err != nil {
		if errors.Is(err, handicapdb.ErrMemberNotFound) {
			return results.FailureResult[*Handicap, error](fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)), nil
		}
		return HandicapResult{}, err
	}

	for _, d := range differentials {
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return results.FailureResult[*Handicap, error](fmt.Errorf("%w: member %s", ErrCorruptDifferential, memberID)), nil
		}
	}

	calc := handicapdomain.Calculate(differentials)
	record := &handicapdb.HandicapRecord{
		MemberID:         memberID,
		Value:            calc.Value,
		ComputedAt:       s.now(),
		SourceScoreCount: calc.WindowSize,
	}

	if err := s.persist(ctx, record); err != nil {
		return HandicapResult{}, err
	}

	s.metrics.RecordHandicapComputed(ctx, calc.Value, calc.WindowSize)
	s.logger.InfoContext(ctx, "Handicap recalculated",
		attr.ExtractCorrelationID(ctx),
		attr.MemberID(memberID.String()),
		attr.ScoreID(event.ScoreID),
		attr.Float64("value", calc.Value),
		attr.Int("window_size", calc.WindowSize),
	)

	return results.SuccessResult[*Handicap, error](toHandicap(record)), nil
}

func (s *HandicapService) fetchWindow(ctx context.Context, memberID uuid.UUID) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.FetchTimeout)
	defer cancel()

	differentials, err := s.repo.GetRecentDifferentials(ctx, nil, memberID, handicapdomain.WindowSize)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("fetch differentials timed out after %s: %w", s.opts.FetchTimeout, err)
		}
		return nil, fmt.Errorf("fetch differentials: %w", err)
	}
	if len(differentials) > handicapdomain.WindowSize {
		differentials = differentials[:handicapdomain.WindowSize]
	}
	return differentials, nil
}

func (s *HandicapService) persist(ctx context.Context, record *handicapdb.HandicapRecord) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.WriteTimeout)
	defer cancel()

	if err := s.repo.UpsertHandicap(ctx, nil, record); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("persist handicap timed out after %s: %w", s.opts.WriteTimeout, err)
		}
		return fmt.Errorf("persist handicap: %w", err)
	}
	return nil
}

// GetHandicap reads the stored handicap for a member.
func (s *HandicapService) GetHandicap(ctx context.Context, memberID uuid.UUID) (*Handicap, error) {
	result, err := withTelemetry(s, ctx, "GetHandicap", memberID.String(), func(ctx context.Context) (HandicapResult, error) {
		record, err := s.repo.GetHandicap(ctx, nil, memberID)
		if err != nil {
			if errors.Is(err, handicapdb.ErrNotFound) {
				return results.FailureResult[*Handicap, error](ErrHandicapNotFound), nil
			}
			return HandicapResult{}, fmt.Errorf("failed to get handicap: %w", err)
		}
		return results.SuccessResult[*Handicap, error](toHandicap(record)), nil
	})
	if err != nil {
		return nil, err
	}
	if result.IsFailure() {
		return nil, *result.Failure
	}
	return *result.Success, nil
}

// ListMemberIDs returns all member ids.
func (s *HandicapService) ListMemberIDs(ctx context.Context) ([]uuid.UUID, error) {
	ids, err := s.repo.ListMemberIDs(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list member ids: %w", err)
	}
	return ids, nil
}

func toHandicap(r *handicapdb.HandicapRecord) *Handicap {
	return &Handicap{
		MemberID:         r.MemberID,
		Value:            r.Value,
		ComputedAt:       r.ComputedAt,
		SourceScoreCount: r.SourceScoreCount,
	}
}

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic
// recovery. A recovered panic is returned as an error so callers retry it.
func withTelemetry[S any, F any](
	s *HandicapService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("member_id", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
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
