package gamedb

import (
	"context"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for game persistence. Every method accepts
// an optional bun.IDB so callers can run it inside their transaction; nil
// falls back to the repository's own connection.
type Repository interface {
	// GetRoom retrieves a room by id.
	GetRoom(ctx context.Context, db bun.IDB, roomID uuid.UUID) (*Room, error)

	// GetRoomByCode retrieves a room by its join code.
	GetRoomByCode(ctx context.Context, db bun.IDB, code string) (*Room, error)

	// GetRoomForUpdate retrieves a room and locks its row until the transaction ends.
	GetRoomForUpdate(ctx context.Context, db bun.IDB, roomID uuid.UUID) (*Room, error)

	// UpdateRoomState persists a room's phase and current game pointer.
	UpdateRoomState(ctx context.Context, db bun.IDB, room *Room) error

	// GetMember retrieves a user's membership in a room.
	GetMember(ctx context.Context, db bun.IDB, roomID, userID uuid.UUID) (*RoomMember, error)

	// CountMembers counts the room's members holding role.
	CountMembers(ctx context.Context, db bun.IDB, roomID uuid.UUID, role MemberRole) (int, error)

	// ListBlanks returns a story's blanks ordered by position.
	ListBlanks(ctx context.Context, db bun.IDB, storyID uuid.UUID) ([]Blank, error)

	// ListPromptsByTags returns every prompt carrying one of tags.
	ListPromptsByTags(ctx context.Context, db bun.IDB, tags []string) ([]Prompt, error)

	// CreateGame inserts a game.
	CreateGame(ctx context.Context, db bun.IDB, game *Game) error

	// GetGame retrieves a game by id.
	GetGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*Game, error)

	// UpdateGame persists a game's round pointer, deadline, job handles and finish time.
	UpdateGame(ctx context.Context, db bun.IDB, game *Game) error

	// InsertGamePrompts inserts a game's full round sequence.
	InsertGamePrompts(ctx context.Context, db bun.IDB, prompts []GamePrompt) error

	// GetGamePrompt retrieves a round with its prompt.
	GetGamePrompt(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (*GamePrompt, error)

	// GetGamePromptByOrder retrieves the round of a game at a sequence position.
	GetGamePromptByOrder(ctx context.Context, db bun.IDB, gameID uuid.UUID, order int) (*GamePrompt, error)

	// ListGamePrompts returns a game's rounds in order.
	ListGamePrompts(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]GamePrompt, error)

	// InsertAnswer inserts an answer unless the user already answered the round.
	// inserted is false for a repeat submission.
	InsertAnswer(ctx context.Context, db bun.IDB, answer *Answer) (inserted bool, err error)

	// CountAnswers counts the answers submitted for a round.
	CountAnswers(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (int, error)

	// GetAnswer retrieves an answer by id.
	GetAnswer(ctx context.Context, db bun.IDB, answerID uuid.UUID) (*Answer, error)

	// ListAnswersByGamePrompt returns a round's answers in submission order.
	ListAnswersByGamePrompt(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) ([]Answer, error)

	// ListAnswersByGame returns every answer of a game in submission order.
	ListAnswersByGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]Answer, error)

	// GetWinningAnswer retrieves the round's winner.
	GetWinningAnswer(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (*Answer, error)

	// MarkAnswerWon sets won on an answer if its round has no winner yet.
	MarkAnswerWon(ctx context.Context, db bun.IDB, answerID uuid.UUID) error

	// SetSmoothedText stores the rewritten text of an answer.
	SetSmoothedText(ctx context.Context, db bun.IDB, answerID uuid.UUID, text string) error

	// LockSubmitter serializes a user's vote submissions for a round until the
	// transaction ends.
	LockSubmitter(ctx context.Context, db bun.IDB, userID, gamePromptID uuid.UUID) error

	// ListUserVotesForUpdate returns and locks a user's votes of voteType for a round.
	ListUserVotesForUpdate(ctx context.Context, db bun.IDB, userID, gamePromptID uuid.UUID, voteType gamedomain.VoteType) ([]Vote, error)

	// InsertVoteIfAbsent inserts a single unranked player vote unless one exists.
	InsertVoteIfAbsent(ctx context.Context, db bun.IDB, vote *Vote) (inserted bool, err error)

	// InsertVotes inserts a set of votes in one statement.
	InsertVotes(ctx context.Context, db bun.IDB, votes []Vote) error

	// CountVoters counts distinct users with a player vote in a round.
	CountVoters(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (int, error)

	// ListVotesByGamePrompt returns every vote of a round.
	ListVotesByGamePrompt(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) ([]Vote, error)

	// ListVotesByGame returns every vote of a game.
	ListVotesByGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]Vote, error)
}
