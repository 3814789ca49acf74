package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// CreateGame inserts a game.
func (r *Impl) CreateGame(ctx context.Context, db bun.IDB, game *Game) error {
	db = r.resolveDB(db)
	if game.ID == uuid.Nil {
		game.ID = uuid.New()
	}
	if _, err := db.NewInsert().Model(game).Exec(ctx); err != nil {
		return fmt.Errorf("gamedb.CreateGame: %w", err)
	}
	return nil
}

// GetGame retrieves a game by id.
func (r *Impl) GetGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*Game, error) {
	db = r.resolveDB(db)
	game := new(Game)
	err := db.NewSelect().
		Model(game).
		Where("g.id = ?", gameID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gamedb.GetGame: %w", err)
	}
	return game, nil
}

// UpdateGame persists a game's round pointer, deadline, job handles and finish time.
func (r *Impl) UpdateGame(ctx context.Context, db bun.IDB, game *Game) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model(game).
		Column("current_game_prompt_id", "phase_deadline", "answer_job_id", "vote_job_id", "finished_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gamedb.UpdateGame: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// InsertGamePrompts inserts a game's full round sequence.
func (r *Impl) InsertGamePrompts(ctx context.Context, db bun.IDB, prompts []GamePrompt) error {
	if len(prompts) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	for i := range prompts {
		if prompts[i].ID == uuid.Nil {
			prompts[i].ID = uuid.New()
		}
	}
	if _, err := db.NewInsert().Model(&prompts).Exec(ctx); err != nil {
		return fmt.Errorf("gamedb.InsertGamePrompts: %w", err)
	}
	return nil
}

// GetGamePrompt retrieves a round with its prompt.
func (r *Impl) GetGamePrompt(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (*GamePrompt, error) {
	db = r.resolveDB(db)
	gp := new(GamePrompt)
	err := db.NewSelect().
		Model(gp).
		Relation("Prompt").
		Where("gp.id = ?", gamePromptID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gamedb.GetGamePrompt: %w", err)
	}
	return gp, nil
}

// GetGamePromptByOrder retrieves the round of a game at a sequence position.
func (r *Impl) GetGamePromptByOrder(ctx context.Context, db bun.IDB, gameID uuid.UUID, order int) (*GamePrompt, error) {
	db = r.resolveDB(db)
	gp := new(GamePrompt)
	err := db.NewSelect().
		Model(gp).
		Relation("Prompt").
		Where("gp.game_id = ?", gameID).
		Where("gp.round_order = ?", order).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gamedb.GetGamePromptByOrder: %w", err)
	}
	return gp, nil
}

// ListGamePrompts returns a game's rounds in order.
func (r *Impl) ListGamePrompts(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]GamePrompt, error) {
	db = r.resolveDB(db)
	var prompts []GamePrompt
	err := db.NewSelect().
		Model(&prompts).
		Relation("Prompt").
		Where("gp.game_id = ?", gameID).
		Order("gp.round_order ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gamedb.ListGamePrompts: %w", err)
	}
	return prompts, nil
}
