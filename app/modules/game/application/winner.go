package gameservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	gamedb "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-bot/pkg/observability/attr"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// SelectWinner returns the winner of a finished round, choosing it on the
// first call. Later calls return the stored winner unchanged.
func (s *GameService) SelectWinner(ctx context.Context, gamePromptID uuid.UUID) (*WinnerResult, error) {
	return execute(s, ctx, "SelectWinner", gamePromptID.String(), func(ctx context.Context, db bun.IDB, fx *effects) (opResult[*WinnerResult], error) {
		return settle(s.selectWinnerForRound(ctx, db, fx, gamePromptID))
	})
}

func (s *GameService) selectWinnerForRound(ctx context.Context, db bun.IDB, fx *effects, gamePromptID uuid.UUID) (*WinnerResult, error) {
	gp, err := s.repo.GetGamePrompt(ctx, db, gamePromptID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return nil, ErrRoundNotFound
		}
		return nil, fmt.Errorf("failed to get round: %w", err)
	}
	game, err := s.repo.GetGame(ctx, db, gp.GameID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	room, err := s.lockRoom(ctx, db, game.RoomID)
	if err != nil {
		return nil, err
	}

	// The open round of an active game is decided by votes_complete only.
	open := game.CurrentGamePromptID != nil && *game.CurrentGamePromptID == gp.ID &&
		(room.Phase == gamedomain.PhaseAnswering || room.Phase == gamedomain.PhaseVoting)
	if open {
		return nil, illegal("select_winner", room.Phase, ReasonWrongPhase)
	}

	return s.selectWinnerLogic(ctx, db, fx, room, game, gp.ID, room.Phase)
}

// selectWinnerLogic decides the round winner once. It must run under the room lock.
func (s *GameService) selectWinnerLogic(
	ctx context.Context,
	db bun.IDB,
	fx *effects,
	room *gamedb.Room,
	game *gamedb.Game,
	gamePromptID uuid.UUID,
	phase gamedomain.Phase,
) (*WinnerResult, error) {
	strategy, err := gamedomain.StrategyFor(room.VotingStyle)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", room.ID, err)
	}

	votes, err := s.repo.ListVotesByGamePrompt(ctx, db, gamePromptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	scored := make([]gamedomain.ScoredVote, len(votes))
	for i, v := range votes {
		scored[i] = v.Scored()
	}
	points := gamedomain.TallyPoints(strategy, scored)

	existing, err := s.repo.GetWinningAnswer(ctx, db, gamePromptID)
	switch {
	case err == nil:
		return winnerResult(existing, points), nil
	case !errors.Is(err, gamedb.ErrNotFound):
		return nil, fmt.Errorf("failed to get winner: %w", err)
	}

	answers, err := s.repo.ListAnswersByGamePrompt(ctx, db, gamePromptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	ids := make([]uuid.UUID, len(answers))
	for i, a := range answers {
		ids[i] = a.ID
	}

	var winner gamedb.Answer
	winnerID, ok := gamedomain.PickWinner(ids, points, s.ports.Chooser)
	if ok {
		if err := s.repo.MarkAnswerWon(ctx, db, winnerID); err != nil {
			if errors.Is(err, gamedb.ErrNoRowsAffected) {
				return nil, ErrConcurrencyConflict
			}
			return nil, fmt.Errorf("failed to mark winner: %w", err)
		}
		for _, a := range answers {
			if a.ID == winnerID {
				winner = a
			}
		}
		winner.Won = true
	} else {
		winner = gamedb.Answer{
			ID:           uuid.New(),
			GamePromptID: gamePromptID,
			GameID:       game.ID,
			UserID:       room.CreatorID,
			Text:         gamedomain.DefaultAnswerText,
			Won:          true,
			Placeholder:  true,
			CreatedAt:    s.now(),
		}
		inserted, err := s.repo.InsertAnswer(ctx, db, &winner)
		if err != nil {
			if errors.Is(err, gamedb.ErrUniqueViolation) {
				return nil, ErrConcurrencyConflict
			}
			return nil, fmt.Errorf("failed to insert default answer: %w", err)
		}
		if !inserted {
			return nil, ErrConcurrencyConflict
		}
	}

	fx.notify(room.ID, RoomEvent{Type: EventWinnerSelected, Phase: phase, Ref: winner.ID, OccurredAt: s.now()})
	if !winner.Placeholder {
		fx.smooth = append(fx.smooth, winner)
	}
	return winnerResult(&winner, points), nil
}

func winnerResult(a *gamedb.Answer, points map[uuid.UUID]int) *WinnerResult {
	return &WinnerResult{
		GamePromptID: a.GamePromptID,
		AnswerID:     a.ID,
		UserID:       a.UserID,
		Text:         a.DisplayText(),
		Points:       points[a.ID],
		Placeholder:  a.Placeholder,
	}
}

// smoothInBackground rewrites a winning answer off the request path. The
// original text stays on any error or timeout.
func (s *GameService) smoothInBackground(ctx context.Context, answerID uuid.UUID, text string) {
	if s.ports.Smoother == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)

	s.background.Add(1)
	go func() {
		defer s.background.Done()

		ctx, cancel := context.WithTimeout(ctx, s.settings.SmoothTimeout)
		defer cancel()

		smoothed, err := s.ports.Smoother.Smooth(ctx, text)
		if err != nil {
			s.logger.WarnContext(ctx, "Answer smoothing failed, keeping original text",
				attr.ExtractCorrelationID(ctx),
				attr.UUID("answer_id", answerID),
				attr.Error(err),
			)
			return
		}
		smoothed = strings.TrimSpace(smoothed)
		if smoothed == "" || smoothed == text {
			return
		}
		if err := s.repo.SetSmoothedText(ctx, nil, answerID, smoothed); err != nil {
			s.logger.ErrorContext(ctx, "Failed to store smoothed answer",
				attr.ExtractCorrelationID(ctx),
				attr.UUID("answer_id", answerID),
				attr.Error(err),
			)
		}
	}()
}
