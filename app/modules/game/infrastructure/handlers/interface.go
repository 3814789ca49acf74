package gamehandlers

import (
	"context"

	gameservice "github.com/Black-And-White-Club/party-bot/app/modules/game/application"
	"github.com/Black-And-White-Club/party-bot/pkg/handlerwrapper"
)

// Handlers defines the interface for game event handlers.
type Handlers interface {
	// HandlePhaseDeadline closes the phase named by a fired deadline.
	HandlePhaseDeadline(ctx context.Context, payload *gameservice.PhaseDeadline) ([]handlerwrapper.Result, error)
}
