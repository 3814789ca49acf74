package gamehandlers

import (
	"context"
	"errors"
	"log/slog"

	gameservice "github.com/Black-And-White-Club/party-bot/app/modules/game/application"
	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/Black-And-White-Club/party-bot/pkg/handlerwrapper"
	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	"go.opentelemetry.io/otel/trace"
)

// GameHandlers implements the Handlers interface.
type GameHandlers struct {
	service gameservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewGameHandlers creates a new GameHandlers instance.
func NewGameHandlers(
	service gameservice.Service,
	logger *slog.Logger,
	tracer trace.Tracer,
) Handlers {
	return &GameHandlers{
		service: service,
		logger:  logger,
		tracer:  tracer,
	}
}

// HandlePhaseDeadline applies a fired deadline. Stale deadlines and domain
// rejections are acked; infrastructure errors and lost races are returned so
// the message is retried.
func (h *GameHandlers) HandlePhaseDeadline(ctx context.Context, payload *gameservice.PhaseDeadline) ([]handlerwrapper.Result, error) {
	ctx, span := h.tracer.Start(ctx, "GameHandlers.HandlePhaseDeadline")
	defer span.End()

	logger := h.logger.With(
		attr.ExtractCorrelationID(ctx),
		attr.RoomID(payload.RoomID),
		attr.UUID("game_prompt_id", payload.GamePromptID),
		attr.String("phase", string(payload.Phase)),
	)

	result, err := h.service.HandlePhaseDeadline(ctx, *payload)
	if err != nil {
		if isDomainFailure(err) {
			logger.WarnContext(ctx, "Phase deadline rejected", attr.Error(err))
			return nil, nil
		}
		logger.ErrorContext(ctx, "Failed to handle phase deadline", attr.Error(err))
		return nil, err
	}

	if result.Noop {
		logger.InfoContext(ctx, "Stale phase deadline ignored", attr.String("current_phase", string(result.To)))
		return nil, nil
	}

	logger.InfoContext(ctx, "Phase closed by deadline",
		attr.String("from", string(result.From)),
		attr.String("to", string(result.To)),
	)
	return nil, nil
}

// isDomainFailure reports errors that a retry cannot change.
func isDomainFailure(err error) bool {
	for _, target := range []error{
		gameservice.ErrRoomNotFound,
		gameservice.ErrGameNotFound,
		gameservice.ErrRoundNotFound,
		gameservice.ErrNoActiveGame,
		gameservice.ErrIllegalAction,
		gamedomain.ErrValidation,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
