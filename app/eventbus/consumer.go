package eventbus

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	scoreevents "github.com/sjlangley/social-golf-spa/pkg/events/score"
	"github.com/sjlangley/social-golf-spa/pkg/handlerwrapper"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
)

// watermillUUIDHeader is the header the watermill NATS marshaler stores the
// message UUID under.
const watermillUUIDHeader = "_watermill_message_uuid"

// Disposition is what happened to a delivery.
type Disposition string

const (
	DispositionAck        Disposition = "ack"
	DispositionRetry      Disposition = "retry"
	DispositionDeadLetter Disposition = "dead_letter"
)

// ConsumerConfig describes a durable pull consumer.
type ConsumerConfig struct {
	Stream        string
	Durable       string
	FilterSubject string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	// Backoff is the redelivery delay per attempt; the last entry repeats.
	Backoff []time.Duration
	// Observe is called once per delivery with its disposition.
	Observe func(ctx context.Context, d Disposition)
}

func (c ConsumerConfig) jetStreamConfig() jetstream.ConsumerConfig {
	return jetstream.ConsumerConfig{
		Durable:       c.Durable,
		FilterSubject: c.FilterSubject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverAllPolicy,
		AckWait:       c.AckWait,
		MaxDeliver:    c.MaxDeliver,
		MaxAckPending: c.MaxAckPending,
	}
}

// RedeliveryDelay returns the delay before redelivering a message that has
// been delivered attempt times.
func RedeliveryDelay(backoff []time.Duration, attempt uint64) time.Duration {
	if len(backoff) == 0 {
		return 0
	}
	if attempt == 0 {
		attempt = 1
	}
	idx := int(attempt - 1)
	if idx >= len(backoff) {
		idx = len(backoff) - 1
	}
	return backoff[idx]
}

// Decide maps a handler error to a disposition. Rejected errors and retryable
// errors on the final allowed delivery are dead-lettered.
func Decide(err error, attempt uint64, maxDeliver int) (Disposition, string) {
	if err == nil {
		return DispositionAck, ""
	}
	if rej, ok := handlerwrapper.AsReject(err); ok {
		return DispositionDeadLetter, rej.Reason
	}
	if maxDeliver > 0 && attempt >= uint64(maxDeliver) {
		return DispositionDeadLetter, "max deliveries exhausted"
	}
	return DispositionRetry, ""
}

// delivery is the part of jetstream.Msg the dispatcher uses.
type delivery interface {
	Data() []byte
	Headers() nc.Header
	Subject() string
	Metadata() (*jetstream.MsgMetadata, error)
	Ack() error
	NakWithDelay(delay time.Duration) error
	Term() error
}

type dispatcher struct {
	cfg       ConsumerConfig
	handler   handlerwrapper.MessageHandler
	publisher message.Publisher
	logger    *slog.Logger

	// sem bounds in-flight handlers to MaxAckPending.
	sem      chan struct{}
	inflight sync.WaitGroup
}

func newDispatcher(cfg ConsumerConfig, handler handlerwrapper.MessageHandler, publisher message.Publisher, logger *slog.Logger) *dispatcher {
	limit := cfg.MaxAckPending
	if limit < 1 {
		limit = 1
	}
	return &dispatcher{
		cfg:       cfg,
		handler:   handler,
		publisher: publisher,
		logger:    logger,
		sem:       make(chan struct{}, limit),
	}
}

// handle runs dispatch on its own goroutine. It blocks the caller only while
// MaxAckPending handlers are already running.
func (d *dispatcher) handle(ctx context.Context, msg delivery) {
	d.sem <- struct{}{}
	d.inflight.Add(1)
	go func() {
		defer func() {
			<-d.sem
			d.inflight.Done()
		}()
		d.dispatch(ctx, msg)
	}()
}

// wait blocks until every started handler has returned.
func (d *dispatcher) wait() {
	d.inflight.Wait()
}

func (d *dispatcher) dispatch(ctx context.Context, msg delivery) {
	var attempt uint64 = 1
	if md, err := msg.Metadata(); err == nil && md != nil {
		attempt = md.NumDelivered
	}

	wm := toWatermill(msg)
	wm.SetContext(ctx)

	err := d.handler(ctx, wm)
	disposition, reason := Decide(err, attempt, d.cfg.MaxDeliver)

	logAttrs := []any{
		attr.CorrelationIDFromMsg(wm),
		attr.String("subject", msg.Subject()),
		attr.Uint64("attempt", attempt),
		attr.String("disposition", string(disposition)),
	}

	switch disposition {
	case DispositionAck:
		if ackErr := msg.Ack(); ackErr != nil {
			d.logger.ErrorContext(ctx, "Failed to ack message", append(logAttrs, attr.Error(ackErr))...)
		}

	case DispositionRetry:
		delay := RedeliveryDelay(d.cfg.Backoff, attempt)
		d.logger.WarnContext(ctx, "Handler failed, scheduling redelivery",
			append(logAttrs, attr.Duration("delay", delay), attr.Error(err))...)
		if nakErr := msg.NakWithDelay(delay); nakErr != nil {
			d.logger.ErrorContext(ctx, "Failed to nak message", append(logAttrs, attr.Error(nakErr))...)
		}

	case DispositionDeadLetter:
		d.logger.WarnContext(ctx, "Message will not be redelivered",
			append(logAttrs, attr.String("reason", reason), attr.Error(err))...)
		d.deadLetter(ctx, msg.Subject(), wm, reason, err, attempt)
		if termErr := msg.Term(); termErr != nil {
			d.logger.ErrorContext(ctx, "Failed to terminate message", append(logAttrs, attr.Error(termErr))...)
		}
	}

	if d.cfg.Observe != nil {
		d.cfg.Observe(ctx, disposition)
	}
}

func (d *dispatcher) deadLetter(ctx context.Context, subject string, original *message.Message, reason string, cause error, attempt uint64) {
	dl := message.NewMessage(original.UUID, original.Payload)
	for k, v := range original.Metadata {
		dl.Metadata.Set(k, v)
	}
	dl.Metadata.Set("dead_letter_reason", reason)
	dl.Metadata.Set("dead_letter_original_subject", subject)
	dl.Metadata.Set("dead_letter_attempts", strconv.FormatUint(attempt, 10))
	if cause != nil {
		dl.Metadata.Set("dead_letter_error", cause.Error())
	}

	if err := d.publisher.Publish(scoreevents.DeadLetterTopic(subject), dl); err != nil {
		d.logger.ErrorContext(ctx, "Failed to publish dead letter",
			attr.CorrelationIDFromMsg(original),
			attr.String("subject", subject),
			attr.Error(err),
		)
	}
}

func toWatermill(msg delivery) *message.Message {
	headers := msg.Headers()
	id := headers.Get(watermillUUIDHeader)
	wm := message.NewMessage(id, msg.Data())
	for k, values := range headers {
		if k == watermillUUIDHeader || len(values) == 0 {
			continue
		}
		wm.Metadata.Set(k, values[0])
	}
	return wm
}
