// Package handlerwrapper adapts typed event handlers to watermill.
package handlerwrapper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Result is a message a handler wants published once it succeeds.
type Result struct {
	Topic    string
	Payload  any
	Metadata map[string]string
}

// TypedHandler handles a decoded payload and returns follow-up messages.
type TypedHandler[T any] func(ctx context.Context, payload *T) ([]Result, error)

// WrapTyped decodes the JSON payload into T, runs handler under a span with
// the message's correlation id on the context, then publishes its results.
//
// A payload that cannot be decoded is logged and acked: no retry can fix it.
// A handler error is returned so router middleware can retry or nack.
func WrapTyped[T any](
	handlerName string,
	logger *slog.Logger,
	tracer trace.Tracer,
	publisher message.Publisher,
	handler TypedHandler[T],
) message.NoPublishHandlerFunc {
	return func(msg *message.Message) error {
		correlationID := middleware.MessageCorrelationID(msg)
		ctx := attr.WithCorrelationID(msg.Context(), correlationID)

		ctx, span := tracer.Start(ctx, handlerName,
			trace.WithSpanKind(trace.SpanKindConsumer),
			trace.WithAttributes(
				attribute.String("messaging.message.id", msg.UUID),
				attribute.String(attr.CorrelationIDKey, correlationID),
			),
		)
		defer span.End()

		payload := new(T)
		if err := json.Unmarshal(msg.Payload, payload); err != nil {
			logger.ErrorContext(ctx, "Dropping undecodable message",
				attr.ExtractCorrelationID(ctx),
				attr.String("handler", handlerName),
				attr.String("message_id", msg.UUID),
				attr.Error(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, "undecodable payload")
			return nil
		}

		results, err := handler(ctx, payload)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}

		for _, result := range results {
			out, err := resultMessage(ctx, correlationID, result)
			if err != nil {
				span.RecordError(err)
				return err
			}
			if err := publisher.Publish(result.Topic, out); err != nil {
				span.RecordError(err)
				return fmt.Errorf("failed to publish %s: %w", result.Topic, err)
			}
		}
		return nil
	}
}

func resultMessage(ctx context.Context, correlationID string, result Result) (*message.Message, error) {
	body, err := json.Marshal(result.Payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result for %s: %w", result.Topic, err)
	}

	out := message.NewMessage(watermill.NewUUID(), body)
	out.SetContext(ctx)
	for k, v := range result.Metadata {
		out.Metadata.Set(k, v)
	}
	if correlationID != "" {
		middleware.SetCorrelationID(correlationID, out)
	}
	return out, nil
}
