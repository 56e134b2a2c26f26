package handicaprouter

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sjlangley/social-golf-spa/app/eventbus"
	handicaphandlers "github.com/sjlangley/social-golf-spa/app/modules/handicap/infrastructure/handlers"
	scoreevents "github.com/sjlangley/social-golf-spa/pkg/events/score"
	"github.com/sjlangley/social-golf-spa/pkg/handlerwrapper"
	"github.com/sjlangley/social-golf-spa/pkg/observability/metrics"
	"go.opentelemetry.io/otel/trace"
)

// Subscriber is the part of the event bus the router needs.
type Subscriber interface {
	handlerwrapper.Publisher
	Subscribe(ctx context.Context, cfg eventbus.ConsumerConfig, handler handlerwrapper.MessageHandler) error
}

// ConsumerSettings are the delivery knobs taken from configuration.
type ConsumerSettings struct {
	Durable       string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	Backoff       []time.Duration
}

// HandicapRouter binds handicap handlers to JetStream consumers.
type HandicapRouter struct {
	logger   *slog.Logger
	bus      Subscriber
	tracer   trace.Tracer
	metrics  metrics.HandicapMetrics
	settings ConsumerSettings
}

// NewHandicapRouter creates a new HandicapRouter.
func NewHandicapRouter(
	logger *slog.Logger,
	bus Subscriber,
	tracer trace.Tracer,
	m metrics.HandicapMetrics,
	settings ConsumerSettings,
) *HandicapRouter {
	return &HandicapRouter{
		logger:   logger,
		bus:      bus,
		tracer:   tracer,
		metrics:  m,
		settings: settings,
	}
}

// Configure starts the consumers. They stop when ctx is cancelled.
func (r *HandicapRouter) Configure(ctx context.Context, handlers handicaphandlers.Handlers) error {
	r.logger.InfoContext(ctx, "Registering handicap module handlers",
		slog.String("score_created_subject", scoreevents.ScoreCreatedV1),
	)

	if err := registerHandler(ctx, r, scoreevents.ScoreStream, scoreevents.ScoreCreatedV1, handlers.HandleScoreCreated); err != nil {
		return err
	}

	r.logger.InfoContext(ctx, "Handicap module handlers registered successfully")
	return nil
}

// registerHandler is a generic function for type-safe handler registration.
func registerHandler[T any](
	ctx context.Context,
	r *HandicapRouter,
	stream string,
	topic string,
	handler func(context.Context, *T) ([]handlerwrapper.Result, error),
) error {
	handlerName := "handicap." + topic

	cfg := eventbus.ConsumerConfig{
		Stream:        stream,
		Durable:       r.settings.Durable,
		FilterSubject: topic,
		MaxDeliver:    r.settings.MaxDeliver,
		AckWait:       r.settings.AckWait,
		MaxAckPending: r.settings.MaxAckPending,
		Backoff:       r.settings.Backoff,
		Observe: func(ctx context.Context, d eventbus.Disposition) {
			r.metrics.RecordDisposition(ctx, string(d))
		},
	}

	wrapped := handlerwrapper.WrapTyped(handlerName, r.logger, r.tracer, r.bus, handler)
	if err := r.bus.Subscribe(ctx, cfg, wrapped); err != nil {
		return fmt.Errorf("failed to register %s: %w", handlerName, err)
	}
	return nil
}
