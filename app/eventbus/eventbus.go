package eventbus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sjlangley/social-golf-spa/pkg/handlerwrapper"
)

// EventBus publishes watermill messages to JetStream and runs durable pull
// consumers whose handlers decide between ack, delayed redelivery and
// dead-lettering.
type EventBus interface {
	message.Publisher
	Subscribe(ctx context.Context, cfg ConsumerConfig, handler handlerwrapper.MessageHandler) error
	KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error)
	JetStream() jetstream.JetStream
}

// Options configure the connection.
type Options struct {
	ClientName string
	// Registry enables watermill publisher metrics when set.
	Registry prometheus.Registerer
}

type eventBus struct {
	publisher message.Publisher
	js        jetstream.JetStream
	natsConn  *nc.Conn
	logger    *slog.Logger

	mu          sync.Mutex
	consumers   []jetstream.ConsumeContext
	dispatchers []*dispatcher
}

// NewEventBus connects to NATS, provisions the streams and builds the
// watermill JetStream publisher.
func NewEventBus(ctx context.Context, natsURL string, logger *slog.Logger, opts Options) (EventBus, error) {
	natsOptions := []nc.Option{
		nc.Name(opts.ClientName),
		nc.RetryOnFailedConnect(true),
		nc.MaxReconnects(-1),
		nc.ReconnectWait(time.Second),
	}

	natsConn, err := nc.Connect(natsURL, natsOptions...)
	if err != nil {
		logger.Error("Failed to connect to NATS", slog.Any("error", err))
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(natsConn)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to initialize JetStream: %w", err)
	}

	if err := InitializeStreams(ctx, js, logger); err != nil {
		natsConn.Close()
		return nil, err
	}

	publisher, err := nats.NewPublisher(
		nats.PublisherConfig{
			URL:         natsURL,
			NatsOptions: natsOptions,
			Marshaler:   &nats.NATSMarshaler{},
			JetStream: nats.JetStreamConfig{
				Disabled:      false,
				AutoProvision: false,
				TrackMsgId:    true,
			},
		},
		watermill.NewSlogLogger(logger),
	)
	if err != nil {
		natsConn.Close()
		return nil, fmt.Errorf("failed to create Watermill publisher: %w", err)
	}

	var pub message.Publisher = publisher
	if opts.Registry != nil {
		builder := metrics.NewPrometheusMetricsBuilder(opts.Registry, "social_golf", "eventbus")
		decorated, err := builder.DecoratePublisher(publisher)
		if err != nil {
			_ = publisher.Close()
			natsConn.Close()
			return nil, fmt.Errorf("failed to decorate publisher with metrics: %w", err)
		}
		pub = decorated
	}

	return &eventBus{
		publisher: pub,
		js:        js,
		natsConn:  natsConn,
		logger:    logger,
	}, nil
}

// Publish sends messages to topic. JetStream acknowledges each message before
// Publish returns.
func (eb *eventBus) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.UUID == "" {
			msg.UUID = watermill.NewUUID()
		}
	}
	if err := eb.publisher.Publish(topic, messages...); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

// Subscribe creates or updates the durable consumer and starts delivering to
// handler until ctx is cancelled or the bus is closed.
func (eb *eventBus) Subscribe(ctx context.Context, cfg ConsumerConfig, handler handlerwrapper.MessageHandler) error {
	consumer, err := eb.js.CreateOrUpdateConsumer(ctx, cfg.Stream, cfg.jetStreamConfig())
	if err != nil {
		return fmt.Errorf("failed to create consumer %s: %w", cfg.Durable, err)
	}

	d := newDispatcher(cfg, handler, eb, eb.logger.With(slog.String("consumer", cfg.Durable)))

	var opts []jetstream.PullConsumeOpt
	if cfg.MaxAckPending > 0 {
		opts = append(opts, jetstream.PullMaxMessages(cfg.MaxAckPending))
	}
	consumeCtx, err := consumer.Consume(func(msg jetstream.Msg) {
		d.handle(ctx, msg)
	}, opts...)
	if err != nil {
		return fmt.Errorf("failed to start consumer %s: %w", cfg.Durable, err)
	}

	eb.mu.Lock()
	eb.consumers = append(eb.consumers, consumeCtx)
	eb.dispatchers = append(eb.dispatchers, d)
	eb.mu.Unlock()

	go func() {
		<-ctx.Done()
		consumeCtx.Stop()
	}()

	eb.logger.InfoContext(ctx, "Consumer started",
		slog.String("stream", cfg.Stream),
		slog.String("consumer", cfg.Durable),
		slog.String("subject", cfg.FilterSubject),
	)
	return nil
}

// KeyValue returns the named bucket, creating it with ttl if needed.
func (eb *eventBus) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	kv, err := eb.js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:  bucket,
		TTL:     ttl,
		Storage: jetstream.MemoryStorage,
		History: 1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open key value bucket %s: %w", bucket, err)
	}
	return kv, nil
}

func (eb *eventBus) JetStream() jetstream.JetStream {
	return eb.js
}

// Close stops consumers and closes all NATS and Watermill resources.
func (eb *eventBus) Close() error {
	eb.mu.Lock()
	for _, c := range eb.consumers {
		c.Stop()
	}
	dispatchers := eb.dispatchers
	eb.consumers = nil
	eb.dispatchers = nil
	eb.mu.Unlock()

	// Handlers still running may ack or dead-letter through the connection.
	for _, d := range dispatchers {
		d.wait()
	}

	var errs []error
	if eb.publisher != nil {
		if err := eb.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close publisher: %w", err))
		}
	}
	if eb.natsConn != nil {
		if err := eb.natsConn.Drain(); err != nil && !errors.Is(err, nc.ErrConnectionClosed) {
			errs = append(errs, fmt.Errorf("drain nats connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
