// Package gamenotifier broadcasts room events over the event bus.
package gamenotifier

import (
	"context"
	"fmt"
	"log/slog"

	gameservice "github.com/Black-And-White-Club/party-bot/app/modules/game/application"
	gameevents "github.com/Black-And-White-Club/party-bot/app/modules/game/events"
	"github.com/Black-And-White-Club/party-bot/pkg/eventbus"
	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// RoomEventPayload is the wire form of a room event.
type RoomEventPayload struct {
	RoomID uuid.UUID `json:"room_id"`
	gameservice.RoomEvent
}

// Notifier publishes room events on the room-scoped events topic.
type Notifier struct {
	publisher message.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
}

var _ gameservice.Notifier = (*Notifier)(nil)

// New creates a Notifier.
func New(publisher message.Publisher, logger *slog.Logger, tracer trace.Tracer) *Notifier {
	return &Notifier{publisher: publisher, logger: logger, tracer: tracer}
}

// Notify publishes event for roomID. Delivery is best effort.
func (n *Notifier) Notify(ctx context.Context, roomID uuid.UUID, event gameservice.RoomEvent) error {
	ctx, span := n.tracer.Start(ctx, "Notifier.Notify", trace.WithAttributes(
		attribute.String("room_id", roomID.String()),
		attribute.String("event", string(event.Type)),
	))
	defer span.End()

	msg, err := gameevents.NewMessage(ctx, RoomEventPayload{RoomID: roomID, RoomEvent: event})
	if err != nil {
		span.RecordError(err)
		return err
	}
	msg.Metadata.Set("event_type", string(event.Type))

	if err := eventbus.PublishRoomScoped(n.publisher, gameevents.RoomEventsTopic, roomID, msg); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to publish room event: %w", err)
	}

	n.logger.DebugContext(ctx, "Room event published",
		attr.ExtractCorrelationID(ctx),
		attr.RoomID(roomID),
		attr.String("event", string(event.Type)),
		attr.String("phase", string(event.Phase)),
	)
	return nil
}
