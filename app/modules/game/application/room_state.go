package gameservice

import (
	"context"
	"errors"
	"fmt"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	gamedb "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GetRoom returns the room with the given join code.
func (s *GameService) GetRoom(ctx context.Context, code string) (*RoomView, error) {
	return execute(s, ctx, "GetRoom", code, func(ctx context.Context, db bun.IDB, _ *effects) (opResult[*RoomView], error) {
		return settle(s.getRoomLogic(ctx, db, code))
	})
}

func (s *GameService) getRoomLogic(ctx context.Context, db bun.IDB, code string) (*RoomView, error) {
	room, err := s.repo.GetRoomByCode(ctx, db, code)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	view := &RoomView{
		ID:              room.ID,
		Code:            room.Code,
		CreatorID:       room.CreatorID,
		Phase:           room.Phase,
		Page:            gamedomain.CanonicalPage(room.Phase),
		VotingStyle:     room.VotingStyle,
		AudienceEnabled: room.AudienceEnabled,
		GameID:          room.CurrentGameID,
	}
	if room.CurrentGameID == nil {
		return view, nil
	}

	game, err := s.repo.GetGame(ctx, db, *room.CurrentGameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	view.Deadline = game.PhaseDeadline
	if game.CurrentGamePromptID == nil {
		return view, nil
	}

	rounds, err := s.repo.ListGamePrompts(ctx, db, game.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	for _, gp := range rounds {
		if gp.ID != *game.CurrentGamePromptID {
			continue
		}
		view.Round = &RoundView{GamePromptID: gp.ID, Order: gp.Order, Total: len(rounds)}
		if gp.Prompt != nil {
			view.Round.Prompt = gp.Prompt.Text
		}
	}
	return view, nil
}

// InitializeRoom moves a waiting room into story selection. Creator only.
func (s *GameService) InitializeRoom(ctx context.Context, roomID, userID uuid.UUID) (*TransitionResult, error) {
	return s.creatorTransition(ctx, "InitializeRoom", roomID, userID, gamedomain.TriggerInitialize)
}

// ShowCredits moves a finished game to the credits phase. Creator only.
func (s *GameService) ShowCredits(ctx context.Context, roomID, userID uuid.UUID) (*TransitionResult, error) {
	return s.creatorTransition(ctx, "ShowCredits", roomID, userID, gamedomain.TriggerShowCredits)
}

// EndGame detaches the game and returns the room to the waiting room. Creator only.
func (s *GameService) EndGame(ctx context.Context, roomID, userID uuid.UUID) (*TransitionResult, error) {
	return s.creatorTransition(ctx, "EndGame", roomID, userID, gamedomain.TriggerEndGame)
}

// NextRound opens the next round, or finishes the game when none is left. Creator only.
func (s *GameService) NextRound(ctx context.Context, roomID, userID uuid.UUID) (*TransitionResult, error) {
	return execute(s, ctx, "NextRound", roomID.String(), func(ctx context.Context, db bun.IDB, fx *effects) (opResult[*TransitionResult], error) {
		room, err := s.lockCreatorRoom(ctx, db, roomID, userID, "next")
		if err != nil {
			return settle[*TransitionResult](nil, err)
		}
		if room.Phase != gamedomain.PhaseResults {
			return settle[*TransitionResult](nil, illegal("next", room.Phase, ReasonWrongPhase))
		}

		game, err := s.activeGame(ctx, db, room)
		if err != nil {
			return settle[*TransitionResult](nil, err)
		}
		_, hasNext, err := s.nextRound(ctx, db, game)
		if err != nil {
			return settle[*TransitionResult](nil, err)
		}

		trigger := gamedomain.TriggerFinish
		if hasNext {
			trigger = gamedomain.TriggerNext
		}
		return settle(s.applyTrigger(ctx, db, fx, room, trigger))
	})
}

// AdvancePhase applies trigger on behalf of the system.
func (s *GameService) AdvancePhase(ctx context.Context, roomID uuid.UUID, trigger gamedomain.Trigger) (*TransitionResult, error) {
	return execute(s, ctx, "AdvancePhase", roomID.String(), func(ctx context.Context, db bun.IDB, fx *effects) (opResult[*TransitionResult], error) {
		room, err := s.lockRoom(ctx, db, roomID)
		if err != nil {
			return settle[*TransitionResult](nil, err)
		}
		return settle(s.applyTrigger(ctx, db, fx, room, trigger))
	})
}

// HandlePhaseDeadline closes the phase named by a fired deadline. A deadline
// for a phase or round the room has already left is a no-op.
func (s *GameService) HandlePhaseDeadline(ctx context.Context, deadline PhaseDeadline) (*TransitionResult, error) {
	return execute(s, ctx, "HandlePhaseDeadline", deadline.RoomID.String(), func(ctx context.Context, db bun.IDB, fx *effects) (opResult[*TransitionResult], error) {
		return settle(s.handlePhaseDeadlineLogic(ctx, db, fx, deadline))
	})
}

func (s *GameService) handlePhaseDeadlineLogic(ctx context.Context, db bun.IDB, fx *effects, deadline PhaseDeadline) (*TransitionResult, error) {
	room, err := s.lockRoom(ctx, db, deadline.RoomID)
	if err != nil {
		return nil, err
	}
	stale := &TransitionResult{From: room.Phase, To: room.Phase, Noop: true}

	var trigger gamedomain.Trigger
	switch deadline.Phase {
	case gamedomain.PhaseAnswering:
		trigger = gamedomain.TriggerAnswersComplete
	case gamedomain.PhaseVoting:
		trigger = gamedomain.TriggerVotesComplete
	default:
		return stale, nil
	}

	if room.Phase != deadline.Phase || room.CurrentGameID == nil || *room.CurrentGameID != deadline.GameID {
		return stale, nil
	}
	game, err := s.repo.GetGame(ctx, db, deadline.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	if game.CurrentGamePromptID == nil || *game.CurrentGamePromptID != deadline.GamePromptID {
		return stale, nil
	}

	return s.applyTrigger(ctx, db, fx, room, trigger)
}

func (s *GameService) creatorTransition(ctx context.Context, operationName string, roomID, userID uuid.UUID, trigger gamedomain.Trigger) (*TransitionResult, error) {
	return execute(s, ctx, operationName, roomID.String(), func(ctx context.Context, db bun.IDB, fx *effects) (opResult[*TransitionResult], error) {
		room, err := s.lockCreatorRoom(ctx, db, roomID, userID, string(trigger))
		if err != nil {
			return settle[*TransitionResult](nil, err)
		}
		if !gamedomain.Allowed(room.Phase, trigger) {
			return settle[*TransitionResult](nil, illegal(string(trigger), room.Phase, ReasonWrongPhase))
		}
		return settle(s.applyTrigger(ctx, db, fx, room, trigger))
	})
}

// applyTrigger moves a locked room through trigger, runs the transition's
// side effects and persists the new phase.
func (s *GameService) applyTrigger(ctx context.Context, db bun.IDB, fx *effects, room *gamedb.Room, trigger gamedomain.Trigger) (*TransitionResult, error) {
	from := room.Phase
	to, noop, err := gamedomain.Resolve(from, trigger)
	if err != nil {
		return nil, illegal(string(trigger), from, ReasonWrongPhase)
	}
	if noop {
		return &TransitionResult{From: from, To: from, Noop: true}, nil
	}

	var ref uuid.UUID
	switch trigger {
	case gamedomain.TriggerStart:
		ref, err = s.onStart(ctx, db, room)
	case gamedomain.TriggerAnswersComplete:
		ref, err = s.onAnswersComplete(ctx, db, fx, room)
	case gamedomain.TriggerVotesComplete:
		ref, err = s.onVotesComplete(ctx, db, fx, room, to)
	case gamedomain.TriggerNext:
		ref, err = s.onNext(ctx, db, room)
	case gamedomain.TriggerFinish:
		ref, err = s.onFinish(ctx, db, room)
	case gamedomain.TriggerEndGame:
		ref, err = s.onEndGame(ctx, db, fx, room)
	}
	if err != nil {
		return nil, err
	}

	room.Phase = to
	room.UpdatedAt = s.now()
	if err := s.repo.UpdateRoomState(ctx, db, room); err != nil {
		return nil, fmt.Errorf("failed to update room state: %w", err)
	}

	s.metrics.RecordPhaseTransition(ctx, string(from), string(to))
	fx.notify(room.ID, RoomEvent{Type: EventPhaseChanged, Phase: to, Ref: ref, OccurredAt: s.now()})

	return &TransitionResult{From: from, To: to}, nil
}

func (s *GameService) onStart(ctx context.Context, db bun.IDB, room *gamedb.Room) (uuid.UUID, error) {
	game, err := s.activeGame(ctx, db, room)
	if err != nil {
		return uuid.Nil, err
	}
	first, err := s.repo.GetGamePromptByOrder(ctx, db, game.ID, 0)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get first round: %w", err)
	}

	game.CurrentGamePromptID = &first.ID
	s.armDeadline(ctx, room, game, first.ID, gamedomain.PhaseAnswering)
	if err := s.repo.UpdateGame(ctx, db, game); err != nil {
		return uuid.Nil, fmt.Errorf("failed to update game: %w", err)
	}
	return first.ID, nil
}

func (s *GameService) onAnswersComplete(ctx context.Context, db bun.IDB, fx *effects, room *gamedb.Room) (uuid.UUID, error) {
	game, gamePromptID, err := s.currentRound(ctx, db, room)
	if err != nil {
		return uuid.Nil, err
	}

	fx.disarm(&game.AnswerJobID)
	s.armDeadline(ctx, room, game, gamePromptID, gamedomain.PhaseVoting)
	if err := s.repo.UpdateGame(ctx, db, game); err != nil {
		return uuid.Nil, fmt.Errorf("failed to update game: %w", err)
	}
	return gamePromptID, nil
}

func (s *GameService) onVotesComplete(ctx context.Context, db bun.IDB, fx *effects, room *gamedb.Room, to gamedomain.Phase) (uuid.UUID, error) {
	game, gamePromptID, err := s.currentRound(ctx, db, room)
	if err != nil {
		return uuid.Nil, err
	}

	if _, err := s.selectWinnerLogic(ctx, db, fx, room, game, gamePromptID, to); err != nil {
		return uuid.Nil, err
	}

	fx.disarm(&game.VoteJobID)
	game.PhaseDeadline = nil
	if err := s.repo.UpdateGame(ctx, db, game); err != nil {
		return uuid.Nil, fmt.Errorf("failed to update game: %w", err)
	}
	return gamePromptID, nil
}

func (s *GameService) onNext(ctx context.Context, db bun.IDB, room *gamedb.Room) (uuid.UUID, error) {
	game, err := s.activeGame(ctx, db, room)
	if err != nil {
		return uuid.Nil, err
	}
	next, ok, err := s.nextRound(ctx, db, game)
	if err != nil {
		return uuid.Nil, err
	}
	if !ok {
		return uuid.Nil, illegal(string(gamedomain.TriggerNext), room.Phase, ReasonNoNextRound)
	}

	game.CurrentGamePromptID = &next.ID
	s.armDeadline(ctx, room, game, next.ID, gamedomain.PhaseAnswering)
	if err := s.repo.UpdateGame(ctx, db, game); err != nil {
		return uuid.Nil, fmt.Errorf("failed to update game: %w", err)
	}
	return next.ID, nil
}

func (s *GameService) onFinish(ctx context.Context, db bun.IDB, room *gamedb.Room) (uuid.UUID, error) {
	game, err := s.activeGame(ctx, db, room)
	if err != nil {
		return uuid.Nil, err
	}
	_, ok, err := s.nextRound(ctx, db, game)
	if err != nil {
		return uuid.Nil, err
	}
	if ok {
		return uuid.Nil, illegal(string(gamedomain.TriggerFinish), room.Phase, ReasonRoundsRemaining)
	}

	finishedAt := s.now()
	game.FinishedAt = &finishedAt
	game.PhaseDeadline = nil
	if err := s.repo.UpdateGame(ctx, db, game); err != nil {
		return uuid.Nil, fmt.Errorf("failed to update game: %w", err)
	}
	return game.ID, nil
}

func (s *GameService) onEndGame(ctx context.Context, db bun.IDB, fx *effects, room *gamedb.Room) (uuid.UUID, error) {
	if room.CurrentGameID == nil {
		return uuid.Nil, nil
	}
	game, err := s.repo.GetGame(ctx, db, *room.CurrentGameID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to get game: %w", err)
	}

	fx.disarm(&game.AnswerJobID)
	fx.disarm(&game.VoteJobID)
	game.CurrentGamePromptID = nil
	game.PhaseDeadline = nil
	if game.FinishedAt == nil {
		finishedAt := s.now()
		game.FinishedAt = &finishedAt
	}
	if err := s.repo.UpdateGame(ctx, db, game); err != nil {
		return uuid.Nil, fmt.Errorf("failed to update game: %w", err)
	}

	room.CurrentGameID = nil
	fx.notify(room.ID, RoomEvent{Type: EventGameEnded, Phase: gamedomain.PhaseWaitingRoom, Ref: game.ID, OccurredAt: s.now()})
	return game.ID, nil
}

// -----------------------------------------------------------------------------
// Lookups
// -----------------------------------------------------------------------------

// lockRoom loads a room and holds its row lock until the transaction ends.
func (s *GameService) lockRoom(ctx context.Context, db bun.IDB, roomID uuid.UUID) (*gamedb.Room, error) {
	room, err := s.repo.GetRoomForUpdate(ctx, db, roomID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, fmt.Errorf("failed to lock room: %w", err)
	}
	return room, nil
}

func (s *GameService) lockCreatorRoom(ctx context.Context, db bun.IDB, roomID, userID uuid.UUID, action string) (*gamedb.Room, error) {
	room, err := s.lockRoom(ctx, db, roomID)
	if err != nil {
		return nil, err
	}
	if room.CreatorID != userID {
		return nil, illegal(action, room.Phase, ReasonCreatorOnly)
	}
	return room, nil
}

func (s *GameService) activeGame(ctx context.Context, db bun.IDB, room *gamedb.Room) (*gamedb.Game, error) {
	if room.CurrentGameID == nil {
		return nil, ErrNoActiveGame
	}
	game, err := s.repo.GetGame(ctx, db, *room.CurrentGameID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return nil, ErrNoActiveGame
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	return game, nil
}

// currentRound returns the room's active game and the id of its current round.
func (s *GameService) currentRound(ctx context.Context, db bun.IDB, room *gamedb.Room) (*gamedb.Game, uuid.UUID, error) {
	game, err := s.activeGame(ctx, db, room)
	if err != nil {
		return nil, uuid.Nil, err
	}
	if game.CurrentGamePromptID == nil {
		return nil, uuid.Nil, ErrNoActiveGame
	}
	return game, *game.CurrentGamePromptID, nil
}

// nextRound returns the round after the game's current one, if any.
func (s *GameService) nextRound(ctx context.Context, db bun.IDB, game *gamedb.Game) (*gamedb.GamePrompt, bool, error) {
	if game.CurrentGamePromptID == nil {
		return nil, false, ErrNoActiveGame
	}
	current, err := s.repo.GetGamePrompt(ctx, db, *game.CurrentGamePromptID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get current round: %w", err)
	}
	next, err := s.repo.GetGamePromptByOrder(ctx, db, game.ID, current.Order+1)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get next round: %w", err)
	}
	return next, true, nil
}
