package eventbus

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

// PublishRoomScoped publishes msg on baseTopic suffixed with the room id so
// clients can subscribe to a single room:
//
//   - baseTopic: "room.events.v1"
//   - result:    "room.events.v1.3f0c..."
//
// "room.events.v1.*" matches every room.
func PublishRoomScoped(bus message.Publisher, baseTopic string, roomID uuid.UUID, msg *message.Message) error {
	if roomID == uuid.Nil {
		return fmt.Errorf("roomID cannot be empty for room-scoped publish")
	}
	return bus.Publish(RoomScopedTopic(baseTopic, roomID), msg)
}

// RoomScopedTopic formats a topic with the room id suffix without publishing.
func RoomScopedTopic(baseTopic string, roomID uuid.UUID) string {
	return fmt.Sprintf("%s.%s", baseTopic, roomID)
}
