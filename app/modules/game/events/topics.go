// Package gameevents holds the watermill topics of the game module and the
// helpers used to build and read their messages.
package gameevents

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
)

const (
	// PhaseDeadlineTopic carries fired phase deadlines from the job queue to the router.
	PhaseDeadlineTopic = "game.phase.deadline.v1"

	// RoomEventsTopic is the base topic of room broadcasts. Each room publishes
	// on RoomEventsTopic + "." + room id.
	RoomEventsTopic = "room.events.v1"
)

// NewMessage encodes payload as JSON and stamps the context's correlation id,
// generating one when the context carries none.
func NewMessage(ctx context.Context, payload any) (*message.Message, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}

	msg := message.NewMessage(watermill.NewUUID(), body)
	msg.SetContext(ctx)

	correlationID := attr.CorrelationIDFromContext(ctx)
	if correlationID == "" {
		correlationID = watermill.NewUUID()
	}
	middleware.SetCorrelationID(correlationID, msg)
	msg.Metadata.Set("content_type", "application/json")

	return msg, nil
}

// Decode unmarshals a JSON message payload into T.
func Decode[T any](msg *message.Message) (T, error) {
	var payload T
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal %T: %w", payload, err)
	}
	return payload, nil
}
