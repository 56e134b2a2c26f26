// Package handlerwrapper adapts typed event handlers to the raw message
// handler consumed by the event bus.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/sjlangley/social-golf-spa/pkg/observability/attr"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Result is an outgoing event produced by a handler.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// RejectError marks a failure that redelivery cannot fix.
type RejectError struct {
	Reason string
	Err    error
}

func (e *RejectError) Error() string {
	if e.Err == nil {
		return e.Reason
	}
	return fmt.Sprintf("%s: %v", e.Reason, e.Err)
}

func (e *RejectError) Unwrap() error { return e.Err }

// Reject wraps err as non-retryable.
func Reject(reason string, err error) error {
	return &RejectError{Reason: reason, Err: err}
}

// AsReject reports whether err is non-retryable and returns it.
func AsReject(err error) (*RejectError, bool) {
	var rej *RejectError
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// MessageHandler is the raw handler the event bus invokes per delivery.
type MessageHandler func(ctx context.Context, msg *message.Message) error

// Publisher is the subset of message.Publisher used for handler results.
type Publisher interface {
	Publish(topic string, messages ...*message.Message) error
}

// WrapTyped decodes the JSON payload into T, runs handler and publishes the
// returned results. A payload that cannot be decoded is rejected.
func WrapTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	publisher Publisher,
	handler func(ctx context.Context, payload *T) ([]Result, error),
) MessageHandler {
	return func(ctx context.Context, msg *message.Message) error {
		correlationID := middleware.MessageCorrelationID(msg)
		if correlationID == "" {
			correlationID = msg.UUID
		}
		ctx = attr.WithCorrelationID(ctx, correlationID)

		ctx, span := tracer.Start(ctx, handlerName, trace.WithAttributes(
			attribute.String("message.uuid", msg.UUID),
			attribute.String("correlation_id", correlationID),
		))
		defer span.End()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "malformed payload")
			logger.WarnContext(ctx, "Rejecting malformed payload",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.Error(err),
			)
			return Reject("malformed payload", err)
		}

		results, err := handler(ctx, payload)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		for _, r := range results {
			out, err := NewMessage(ctx, r)
			if err != nil {
				return Reject("unencodable result", err)
			}
			if err := publisher.Publish(r.Topic, out); err != nil {
				span.RecordError(err)
				return fmt.Errorf("%s: publish %s: %w", handlerName, r.Topic, err)
			}
		}
		return nil
	}
}

// NewMessage encodes r into a watermill message carrying the context
// correlation id.
func NewMessage(ctx context.Context, r Result) (*message.Message, error) {
	body, err := json.Marshal(r.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", r.Topic, err)
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.SetContext(ctx)
	for k, v := range r.Metadata {
		msg.Metadata.Set(k, v)
	}
	msg.Metadata.Set("topic", r.Topic)
	if id := attr.CorrelationID(ctx); id != "" {
		middleware.SetCorrelationID(id, msg)
	} else {
		middleware.SetCorrelationID(msg.UUID, msg)
	}
	return msg, nil
}
