package scorepublisher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/cenkalti/backoff/v4"
	scoredomain "github.com/sjlangley/social-golf-spa/app/modules/score/domain"
	scoreevents "github.com/sjlangley/social-golf-spa/pkg/events/score"
	"github.com/sjlangley/social-golf-spa/pkg/handlerwrapper"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
	"github.com/sjlangley/social-golf-spa/pkg/observability/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Publisher emits score events.
type Publisher interface {
	PublishScoreCreated(ctx context.Context, score scoredomain.Score) error
}

// RetryConfig bounds the publish retry loop.
type RetryConfig struct {
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ScorePublisher publishes score.created events with bounded retries. Every
// retry sends the same message so the broker can drop duplicates by id.
type ScorePublisher struct {
	publisher message.Publisher
	logger    *slog.Logger
	metrics   metrics.ScoreMetrics
	tracer    trace.Tracer
	retry     RetryConfig
	now       func() time.Time
}

// NewScorePublisher creates a ScorePublisher.
func NewScorePublisher(
	publisher message.Publisher,
	logger *slog.Logger,
	m metrics.ScoreMetrics,
	tracer trace.Tracer,
	retry RetryConfig,
) *ScorePublisher {
	if retry.InitialInterval <= 0 {
		retry.InitialInterval = 100 * time.Millisecond
	}
	if retry.MaxInterval <= 0 {
		retry.MaxInterval = 2 * time.Second
	}
	return &ScorePublisher{
		publisher: publisher,
		logger:    logger,
		metrics:   m,
		tracer:    tracer,
		retry:     retry,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// PublishScoreCreated announces a committed score. It returns the last
// publish error once retries are exhausted or ctx is done.
func (p *ScorePublisher) PublishScoreCreated(ctx context.Context, score scoredomain.Score) error {
	ctx, span := p.tracer.Start(ctx, "ScorePublisher.PublishScoreCreated", trace.WithAttributes(
		attribute.String("member_id", score.MemberID.String()),
		attribute.String("score_id", score.ID.String()),
	))
	defer span.End()

	msg, err := handlerwrapper.NewMessage(ctx, handlerwrapper.Result{
		Topic: scoreevents.ScoreCreatedV1,
		Payload: scoreevents.ScoreCreatedPayloadV1{
			MemberID:  score.MemberID.String(),
			ScoreID:   score.ID.String(),
			EmittedAt: p.now(),
		},
	})
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("build score event: %w", err)
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = p.retry.InitialInterval
	exp.MaxInterval = p.retry.MaxInterval
	exp.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(exp, p.retry.MaxRetries), ctx)

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		p.metrics.RecordPublishAttempt(ctx, scoreevents.ScoreCreatedV1)
		if pubErr := p.publisher.Publish(scoreevents.ScoreCreatedV1, msg); pubErr != nil {
			p.logger.WarnContext(ctx, "Publish attempt failed",
				attr.ExtractCorrelationID(ctx),
				attr.ScoreID(score.ID.String()),
				attr.Int("attempt", attempt),
				attr.Error(pubErr),
			)
			return pubErr
		}
		return nil
	}, policy)
	if err != nil {
		p.metrics.RecordPublishFailure(ctx, scoreevents.ScoreCreatedV1)
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish failed")
		return fmt.Errorf("publish %s after %d attempts: %w", scoreevents.ScoreCreatedV1, attempt, err)
	}

	p.logger.DebugContext(ctx, "Score event published",
		attr.ExtractCorrelationID(ctx),
		attr.MemberID(score.MemberID.String()),
		attr.ScoreID(score.ID.String()),
		attr.String("message_uuid", msg.UUID),
	)
	return nil
}
