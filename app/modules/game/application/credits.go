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

// GetCredits computes the end-of-game superlatives of a game.
func (s *GameService) GetCredits(ctx context.Context, gameID uuid.UUID) (*CreditsReport, error) {
	history, err := s.loadHistory(ctx, "GetCredits", gameID)
	if err != nil {
		return nil, err
	}
	return history.report, nil
}

// ExportCredits renders the credits and round transcript as an XLSX workbook.
func (s *GameService) ExportCredits(ctx context.Context, gameID uuid.UUID) ([]byte, error) {
	history, err := s.loadHistory(ctx, "ExportCredits", gameID)
	if err != nil {
		return nil, err
	}
	data, err := renderCreditsWorkbook(history.report, history.rounds)
	if err != nil {
		return nil, fmt.Errorf("ExportCredits: %w", err)
	}
	return data, nil
}

// CreditsChart renders the podium as a PNG bar chart.
func (s *GameService) CreditsChart(ctx context.Context, gameID uuid.UUID) ([]byte, error) {
	history, err := s.loadHistory(ctx, "CreditsChart", gameID)
	if err != nil {
		return nil, err
	}
	data, err := renderPodiumChart(history.report.Credits.Podium, defaultPalette)
	if err != nil {
		return nil, fmt.Errorf("CreditsChart: %w", err)
	}
	return data, nil
}

// gameHistory is a game's credits plus the transcript they were computed from.
type gameHistory struct {
	report *CreditsReport
	rounds []RoundTranscript
}

func (s *GameService) loadHistory(ctx context.Context, operationName string, gameID uuid.UUID) (*gameHistory, error) {
	return execute(s, ctx, operationName, gameID.String(), func(ctx context.Context, db bun.IDB, _ *effects) (opResult[*gameHistory], error) {
		return settle(s.gameHistoryLogic(ctx, db, gameID))
	})
}

func (s *GameService) gameHistoryLogic(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*gameHistory, error) {
	game, err := s.repo.GetGame(ctx, db, gameID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return nil, ErrGameNotFound
		}
		return nil, fmt.Errorf("failed to get game: %w", err)
	}
	room, err := s.repo.GetRoom(ctx, db, game.RoomID)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}
	strategy, err := gamedomain.StrategyFor(room.VotingStyle)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", room.ID, err)
	}

	answers, err := s.repo.ListAnswersByGame(ctx, db, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	votes, err := s.repo.ListVotesByGame(ctx, db, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	rounds, err := s.repo.ListGamePrompts(ctx, db, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}

	// Placeholder answers stand in for empty rounds and are nobody's work.
	submitted := make([]gamedomain.CreditsAnswer, 0, len(answers))
	for _, a := range answers {
		if a.Placeholder {
			continue
		}
		submitted = append(submitted, gamedomain.CreditsAnswer{
			ID:           a.ID,
			UserID:       a.UserID,
			GamePromptID: a.GamePromptID,
			Text:         a.Text,
			SubmittedAt:  a.CreatedAt,
		})
	}
	scored := make([]gamedomain.ScoredVote, len(votes))
	for i, v := range votes {
		scored[i] = v.Scored()
	}

	aggregator := gamedomain.Aggregator{
		Strategy:   strategy,
		Profanity:  s.ports.Profanity,
		Dictionary: s.ports.Dictionary,
	}

	return &gameHistory{
		report: &CreditsReport{
			GameID:  gameID,
			Credits: aggregator.Aggregate(submitted, scored),
		},
		rounds: transcript(rounds, answers, scored, strategy),
	}, nil
}

// transcript groups answers under their rounds with per-answer tallies.
func transcript(rounds []gamedb.GamePrompt, answers []gamedb.Answer, votes []gamedomain.ScoredVote, strategy gamedomain.VotingStrategy) []RoundTranscript {
	points := gamedomain.TallyPoints(strategy, votes)
	audience := gamedomain.CountAudience(votes)

	index := make(map[uuid.UUID]int, len(rounds))
	out := make([]RoundTranscript, len(rounds))
	for i, gp := range rounds {
		index[gp.ID] = i
		out[i] = RoundTranscript{Order: gp.Order}
		if gp.Prompt != nil {
			out[i].Prompt = gp.Prompt.Text
		}
	}
	for _, a := range answers {
		i, ok := index[a.GamePromptID]
		if !ok {
			continue
		}
		out[i].Answers = append(out[i].Answers, TranscriptAnswer{
			UserID:    a.UserID,
			Text:      a.DisplayText(),
			Points:    points[a.ID],
			Audience:  audience[a.ID],
			Won:       a.Won,
			Submitted: a.CreatedAt,
		})
	}
	return out
}
