package eventbus

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// NewInMemory returns an in-process EventBus. Messages published before a
// subscriber exists are dropped.
func NewInMemory(logger *slog.Logger) EventBus {
	if logger == nil {
		logger = slog.Default()
	}
	return gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer: 256,
			PreserveContext:     true,
		},
		watermill.NewSlogLogger(logger),
	)
}
