package gamedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// InsertAnswer inserts an answer unless the user already answered the round.
func (r *Impl) InsertAnswer(ctx context.Context, db bun.IDB, answer *Answer) (bool, error) {
	db = r.resolveDB(db)
	if answer.ID == uuid.Nil {
		answer.ID = uuid.New()
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now()
	}
	res, err := db.NewInsert().
		Model(answer).
		On("CONFLICT (user_id, game_prompt_id) DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return false, ErrUniqueViolation
		}
		return false, fmt.Errorf("gamedb.InsertAnswer: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("gamedb.InsertAnswer: %w", err)
	}
	return rows > 0, nil
}

// CountAnswers counts the answers submitted for a round.
func (r *Impl) CountAnswers(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (int, error) {
	db = r.resolveDB(db)
	count, err := db.NewSelect().
		Model((*Answer)(nil)).
		Where("a.game_prompt_id = ?", gamePromptID).
		Where("a.placeholder = FALSE").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("gamedb.CountAnswers: %w", err)
	}
	return count, nil
}

// GetAnswer retrieves an answer by id.
func (r *Impl) GetAnswer(ctx context.Context, db bun.IDB, answerID uuid.UUID) (*Answer, error) {
	db = r.resolveDB(db)
	answer := new(Answer)
	err := db.NewSelect().
		Model(answer).
		Where("a.id = ?", answerID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gamedb.GetAnswer: %w", err)
	}
	return answer, nil
}

// ListAnswersByGamePrompt returns a round's answers in submission order.
func (r *Impl) ListAnswersByGamePrompt(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) ([]Answer, error) {
	db = r.resolveDB(db)
	var answers []Answer
	err := db.NewSelect().
		Model(&answers).
		Where("a.game_prompt_id = ?", gamePromptID).
		Order("a.created_at ASC", "a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gamedb.ListAnswersByGamePrompt: %w", err)
	}
	return answers, nil
}

// ListAnswersByGame returns every answer of a game in submission order.
func (r *Impl) ListAnswersByGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]Answer, error) {
	db = r.resolveDB(db)
	var answers []Answer
	err := db.NewSelect().
		Model(&answers).
		Where("a.game_id = ?", gameID).
		Order("a.created_at ASC", "a.id ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gamedb.ListAnswersByGame: %w", err)
	}
	return answers, nil
}

// GetWinningAnswer retrieves the round's winner.
func (r *Impl) GetWinningAnswer(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (*Answer, error) {
	db = r.resolveDB(db)
	answer := new(Answer)
	err := db.NewSelect().
		Model(answer).
		Where("a.game_prompt_id = ?", gamePromptID).
		Where("a.won = TRUE").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("gamedb.GetWinningAnswer: %w", err)
	}
	return answer, nil
}

// MarkAnswerWon sets won on an answer if its round has no winner yet.
// ErrNoRowsAffected means another writer already picked the winner.
func (r *Impl) MarkAnswerWon(ctx context.Context, db bun.IDB, answerID uuid.UUID) error {
	db = r.resolveDB(db)
	res, err := db.NewUpdate().
		Model((*Answer)(nil)).
		Set("won = TRUE").
		Where("a.id = ?", answerID).
		Where("NOT EXISTS (SELECT 1 FROM answers AS w WHERE w.game_prompt_id = a.game_prompt_id AND w.won)").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrNoRowsAffected
		}
		return fmt.Errorf("gamedb.MarkAnswerWon: %w", err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

// SetSmoothedText stores the rewritten text of an answer.
func (r *Impl) SetSmoothedText(ctx context.Context, db bun.IDB, answerID uuid.UUID, text string) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*Answer)(nil)).
		Set("smoothed_text = ?", text).
		Where("a.id = ?", answerID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("gamedb.SetSmoothedText: %w", err)
	}
	return nil
}

// LockSubmitter takes a transaction-scoped advisory lock keyed on the user and
// round. It covers the first submission, where there are no vote rows to lock yet.
func (r *Impl) LockSubmitter(ctx context.Context, db bun.IDB, userID, gamePromptID uuid.UUID) error {
	db = r.resolveDB(db)
	key := fmt.Sprintf("votes:%s:%s", userID, gamePromptID)
	if _, err := db.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", key).Exec(ctx); err != nil {
		return fmt.Errorf("gamedb.LockSubmitter: %w", err)
	}
	return nil
}

// ListUserVotesForUpdate returns and locks a user's votes of voteType for a round.
func (r *Impl) ListUserVotesForUpdate(ctx context.Context, db bun.IDB, userID, gamePromptID uuid.UUID, voteType gamedomain.VoteType) ([]Vote, error) {
	db = r.resolveDB(db)
	var votes []Vote
	err := db.NewSelect().
		Model(&votes).
		Where("v.user_id = ?", userID).
		Where("v.game_prompt_id = ?", gamePromptID).
		Where("v.vote_type = ?", voteType).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gamedb.ListUserVotesForUpdate: %w", err)
	}
	return votes, nil
}

// InsertVoteIfAbsent inserts a single unranked player vote unless one exists.
func (r *Impl) InsertVoteIfAbsent(ctx context.Context, db bun.IDB, vote *Vote) (bool, error) {
	db = r.resolveDB(db)
	prepareVote(vote)
	res, err := db.NewInsert().
		Model(vote).
		On("CONFLICT (user_id, game_prompt_id) WHERE vote_type = 'player' AND rank IS NULL DO NOTHING").
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("gamedb.InsertVoteIfAbsent: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("gamedb.InsertVoteIfAbsent: %w", err)
	}
	return rows > 0, nil
}

// InsertVotes inserts a set of votes in one statement.
func (r *Impl) InsertVotes(ctx context.Context, db bun.IDB, votes []Vote) error {
	if len(votes) == 0 {
		return nil
	}
	db = r.resolveDB(db)
	for i := range votes {
		prepareVote(&votes[i])
	}
	_, err := db.NewInsert().
		Model(&votes).
		Returning("NULL").
		Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUniqueViolation
		}
		return fmt.Errorf("gamedb.InsertVotes: %w", err)
	}
	return nil
}

func prepareVote(vote *Vote) {
	if vote.ID == uuid.Nil {
		vote.ID = uuid.New()
	}
	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now()
	}
	if vote.VoteType == "" {
		vote.VoteType = gamedomain.VoteTypePlayer
	}
}

// CountVoters counts distinct users with a player vote in a round.
func (r *Impl) CountVoters(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (int, error) {
	db = r.resolveDB(db)
	var count int
	err := db.NewSelect().
		Model((*Vote)(nil)).
		ColumnExpr("COUNT(DISTINCT v.user_id)").
		Where("v.game_prompt_id = ?", gamePromptID).
		Where("v.vote_type = ?", gamedomain.VoteTypePlayer).
		Scan(ctx, &count)
	if err != nil {
		return 0, fmt.Errorf("gamedb.CountVoters: %w", err)
	}
	return count, nil
}

// ListVotesByGamePrompt returns every vote of a round.
func (r *Impl) ListVotesByGamePrompt(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) ([]Vote, error) {
	db = r.resolveDB(db)
	var votes []Vote
	err := db.NewSelect().
		Model(&votes).
		Where("v.game_prompt_id = ?", gamePromptID).
		Order("v.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gamedb.ListVotesByGamePrompt: %w", err)
	}
	return votes, nil
}

// ListVotesByGame returns every vote of a game.
func (r *Impl) ListVotesByGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]Vote, error) {
	db = r.resolveDB(db)
	var votes []Vote
	err := db.NewSelect().
		Model(&votes).
		Where("v.game_id = ?", gameID).
		Order("v.created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("gamedb.ListVotesByGame: %w", err)
	}
	return votes, nil
}
