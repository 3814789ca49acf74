package gameservice

import (
	"context"
	"fmt"
	"time"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	gamedb "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	"github.com/google/uuid"
)

// armDeadline stamps the game's deadline for phase and schedules the job that
// closes it. Scheduling failures leave the phase to close on submissions alone.
func (s *GameService) armDeadline(ctx context.Context, room *gamedb.Room, game *gamedb.Game, gamePromptID uuid.UUID, phase gamedomain.Phase) {
	window := time.Duration(room.AnswerSeconds) * time.Second
	fallback := s.settings.DefaultAnswerTime
	jobID := &game.AnswerJobID
	if phase == gamedomain.PhaseVoting {
		window = time.Duration(room.VoteSeconds) * time.Second
		fallback = s.settings.DefaultVoteTime
		jobID = &game.VoteJobID
	}
	if window <= 0 {
		window = fallback
	}

	deadline := s.now().Add(window + s.settings.ForgivenessBuffer)
	game.PhaseDeadline = &deadline
	*jobID = ""

	if s.ports.Scheduler == nil {
		s.schedulerUnavailable(ctx, room.ID, phase, ErrSchedulerUnavailable)
		return
	}

	id, err := s.ports.Scheduler.Schedule(ctx, deadline, PhaseDeadline{
		RoomID:       room.ID,
		GameID:       game.ID,
		GamePromptID: gamePromptID,
		Phase:        phase,
	})
	if err != nil {
		s.schedulerUnavailable(ctx, room.ID, phase, fmt.Errorf("%w: %w", ErrSchedulerUnavailable, err))
		return
	}
	*jobID = id
}

func (s *GameService) schedulerUnavailable(ctx context.Context, roomID uuid.UUID, phase gamedomain.Phase, err error) {
	s.logger.WarnContext(ctx, "Phase deadline not scheduled",
		attr.ExtractCorrelationID(ctx),
		attr.RoomID(roomID),
		attr.String("phase", string(phase)),
		attr.Error(err),
	)
	s.metrics.RecordSchedulerUnavailable(ctx, string(phase))
}
