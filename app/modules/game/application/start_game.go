package gameservice

import (
	"context"
	"fmt"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	gamedb "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// StartGame sequences the story's prompts into a new game and opens its first
// round. Creator only, from story selection.
func (s *GameService) StartGame(ctx context.Context, roomID, userID, storyID uuid.UUID) (*TransitionResult, error) {
	return execute(s, ctx, "StartGame", roomID.String(), func(ctx context.Context, db bun.IDB, fx *effects) (opResult[*TransitionResult], error) {
		return settle(s.startGameLogic(ctx, db, fx, roomID, userID, storyID))
	})
}

func (s *GameService) startGameLogic(ctx context.Context, db bun.IDB, fx *effects, roomID, userID, storyID uuid.UUID) (*TransitionResult, error) {
	room, err := s.lockCreatorRoom(ctx, db, roomID, userID, string(gamedomain.TriggerStart))
	if err != nil {
		return nil, err
	}
	if !gamedomain.Allowed(room.Phase, gamedomain.TriggerStart) || room.CurrentGameID != nil {
		return nil, illegal(string(gamedomain.TriggerStart), room.Phase, ReasonWrongPhase)
	}

	// The whole plan is built before the first write.
	sequence, err := s.planRounds(ctx, db, storyID)
	if err != nil {
		return nil, err
	}

	game := &gamedb.Game{
		ID:        uuid.New(),
		RoomID:    room.ID,
		StoryID:   storyID,
		CreatedAt: s.now(),
	}
	if err := s.repo.CreateGame(ctx, db, game); err != nil {
		return nil, fmt.Errorf("failed to create game: %w", err)
	}

	rounds := make([]gamedb.GamePrompt, len(sequence))
	for i, sp := range sequence {
		rounds[i] = gamedb.GamePrompt{
			ID:       uuid.New(),
			GameID:   game.ID,
			PromptID: sp.PromptID,
			BlankID:  sp.BlankID,
			Order:    sp.Order,
		}
	}
	if err := s.repo.InsertGamePrompts(ctx, db, rounds); err != nil {
		return nil, fmt.Errorf("failed to insert rounds: %w", err)
	}

	room.CurrentGameID = &game.ID
	return s.applyTrigger(ctx, db, fx, room, gamedomain.TriggerStart)
}

// planRounds binds every blank of the story to an unused prompt.
func (s *GameService) planRounds(ctx context.Context, db bun.IDB, storyID uuid.UUID) ([]gamedomain.SequencedPrompt, error) {
	blanks, err := s.repo.ListBlanks(ctx, db, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list blanks: %w", err)
	}

	slots := make([]gamedomain.BlankSlot, len(blanks))
	seen := make(map[string]struct{}, len(blanks))
	tags := make([]string, 0, len(blanks))
	for i, b := range blanks {
		slots[i] = gamedomain.BlankSlot{ID: b.ID, Tag: b.Tag}
		if _, ok := seen[b.Tag]; !ok {
			seen[b.Tag] = struct{}{}
			tags = append(tags, b.Tag)
		}
	}

	prompts, err := s.repo.ListPromptsByTags(ctx, db, tags)
	if err != nil {
		return nil, fmt.Errorf("failed to list prompts: %w", err)
	}
	pool := make(map[string][]uuid.UUID, len(tags))
	for _, p := range prompts {
		pool[p.Tag] = append(pool[p.Tag], p.ID)
	}

	return gamedomain.SequencePrompts(slots, pool, s.ports.Chooser)
}
