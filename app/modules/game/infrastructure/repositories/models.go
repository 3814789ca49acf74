package gamedb

import (
	"time"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// MemberRole separates answering players from the star-voting audience.
type MemberRole string

const (
	MemberRolePlayer   MemberRole = "player"
	MemberRoleAudience MemberRole = "audience"
)

// Room is a joinable session hosting at most one active Game.
type Room struct {
	bun.BaseModel `bun:"table:rooms,alias:r"`

	ID              uuid.UUID              `bun:"id,pk,type:uuid"`
	Code            string                 `bun:"code,notnull,unique"`
	CreatorID       uuid.UUID              `bun:"creator_id,type:uuid,notnull"`
	Phase           gamedomain.Phase       `bun:"phase,notnull,default:'waiting_room'"`
	VotingStyle     gamedomain.VotingStyle `bun:"voting_style,notnull,default:'vote_once'"`
	AnswerSeconds   int                    `bun:"answer_seconds,notnull,default:90"`
	VoteSeconds     int                    `bun:"vote_seconds,notnull,default:60"`
	AudienceEnabled bool                   `bun:"audience_enabled,notnull,default:false"`
	CurrentGameID   *uuid.UUID             `bun:"current_game_id,type:uuid"`
	CreatedAt       time.Time              `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt       time.Time              `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// RoomMember records a user's role in a room.
type RoomMember struct {
	bun.BaseModel `bun:"table:room_members,alias:rm"`

	RoomID   uuid.UUID  `bun:"room_id,pk,type:uuid"`
	UserID   uuid.UUID  `bun:"user_id,pk,type:uuid"`
	Role     MemberRole `bun:"role,notnull,default:'player'"`
	JoinedAt time.Time  `bun:"joined_at,nullzero,notnull,default:current_timestamp"`
}

// Story is an ordered collection of Blanks.
type Story struct {
	bun.BaseModel `bun:"table:stories,alias:s"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Title     string    `bun:"title,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Blank is a slot in a Story filled by one Prompt per Game.
type Blank struct {
	bun.BaseModel `bun:"table:blanks,alias:b"`

	ID       uuid.UUID `bun:"id,pk,type:uuid"`
	StoryID  uuid.UUID `bun:"story_id,type:uuid,notnull"`
	Position int       `bun:"position,notnull"`
	Tag      string    `bun:"tag,notnull"`
}

// Prompt is a question shown to players, eligible for Blanks with its tag.
type Prompt struct {
	bun.BaseModel `bun:"table:prompts,alias:p"`

	ID   uuid.UUID `bun:"id,pk,type:uuid"`
	Tag  string    `bun:"tag,notnull"`
	Text string    `bun:"text,notnull"`
}

// Game is one playthrough of a Story in a Room.
type Game struct {
	bun.BaseModel `bun:"table:games,alias:g"`

	ID                  uuid.UUID  `bun:"id,pk,type:uuid"`
	RoomID              uuid.UUID  `bun:"room_id,type:uuid,notnull"`
	StoryID             uuid.UUID  `bun:"story_id,type:uuid,notnull"`
	CurrentGamePromptID *uuid.UUID `bun:"current_game_prompt_id,type:uuid"`
	PhaseDeadline       *time.Time `bun:"phase_deadline"`
	AnswerJobID         string     `bun:"answer_job_id,nullzero"`
	VoteJobID           string     `bun:"vote_job_id,nullzero"`
	CreatedAt           time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	FinishedAt          *time.Time `bun:"finished_at"`
}

// GamePrompt is one round: a Prompt bound to a Blank at a sequence position.
type GamePrompt struct {
	bun.BaseModel `bun:"table:game_prompts,alias:gp"`

	ID       uuid.UUID `bun:"id,pk,type:uuid"`
	GameID   uuid.UUID `bun:"game_id,type:uuid,notnull"`
	PromptID uuid.UUID `bun:"prompt_id,type:uuid,notnull"`
	BlankID  uuid.UUID `bun:"blank_id,type:uuid,notnull"`
	Order    int       `bun:"round_order,notnull"`

	Prompt *Prompt `bun:"rel:belongs-to,join:prompt_id=id"`
}

// Answer is a player's text for a round.
type Answer struct {
	bun.BaseModel `bun:"table:answers,alias:a"`

	ID           uuid.UUID `bun:"id,pk,type:uuid"`
	GamePromptID uuid.UUID `bun:"game_prompt_id,type:uuid,notnull"`
	GameID       uuid.UUID `bun:"game_id,type:uuid,notnull"`
	UserID       uuid.UUID `bun:"user_id,type:uuid,notnull"`
	Text         string    `bun:"text,notnull"`
	Won          bool      `bun:"won,notnull,default:false"`
	SmoothedText *string   `bun:"smoothed_text"`
	// Placeholder marks the synthesized answer of a round nobody answered.
	Placeholder bool      `bun:"placeholder,notnull,default:false"`
	CreatedAt   time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// DisplayText prefers the smoothed text when one was stored.
func (a *Answer) DisplayText() string {
	if a.SmoothedText != nil && *a.SmoothedText != "" {
		return *a.SmoothedText
	}
	return a.Text
}

// Vote is a player ranking or a single audience star for an Answer.
type Vote struct {
	bun.BaseModel `bun:"table:votes,alias:v"`

	ID           uuid.UUID           `bun:"id,pk,type:uuid"`
	UserID       uuid.UUID           `bun:"user_id,type:uuid,notnull"`
	AnswerID     uuid.UUID           `bun:"answer_id,type:uuid,notnull"`
	GameID       uuid.UUID           `bun:"game_id,type:uuid,notnull"`
	GamePromptID uuid.UUID           `bun:"game_prompt_id,type:uuid,notnull"`
	Rank         *int                `bun:"rank"`
	VoteType     gamedomain.VoteType `bun:"vote_type,notnull,default:'player'"`
	CreatedAt    time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Scored projects a Vote for the scoring functions.
func (v Vote) Scored() gamedomain.ScoredVote {
	return gamedomain.ScoredVote{AnswerID: v.AnswerID, Rank: v.Rank, Type: v.VoteType}
}
