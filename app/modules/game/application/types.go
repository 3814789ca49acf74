package gameservice

import (
	"time"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/google/uuid"
)

// SubmissionStatus is the outcome of an admitted submission.
type SubmissionStatus string

const (
	SubmissionAccepted  SubmissionStatus = "accepted"
	SubmissionDuplicate SubmissionStatus = "duplicate"
)

// SubmissionOutcome reports an answer or vote submission. Advanced is set when
// the submission completed the phase.
type SubmissionOutcome struct {
	Status    SubmissionStatus `json:"status"`
	Submitted int              `json:"submitted"`
	Expected  int              `json:"expected"`
	Phase     gamedomain.Phase `json:"phase"`
	Advanced  bool             `json:"advanced"`
}

// TransitionResult reports a phase transition. Noop is set when an automatic
// trigger arrived after its transition already happened.
type TransitionResult struct {
	From gamedomain.Phase `json:"from"`
	To   gamedomain.Phase `json:"to"`
	Noop bool             `json:"noop"`
}

// WinnerResult is the winning answer of a round.
type WinnerResult struct {
	GamePromptID uuid.UUID `json:"game_prompt_id"`
	AnswerID     uuid.UUID `json:"answer_id"`
	UserID       uuid.UUID `json:"user_id"`
	Text         string    `json:"text"`
	Points       int       `json:"points"`
	Placeholder  bool      `json:"placeholder"`
}

// RoomView is the read model of a room.
type RoomView struct {
	ID              uuid.UUID              `json:"id"`
	Code            string                 `json:"code"`
	CreatorID       uuid.UUID              `json:"creator_id"`
	Phase           gamedomain.Phase       `json:"phase"`
	Page            string                 `json:"page"`
	VotingStyle     gamedomain.VotingStyle `json:"voting_style"`
	AudienceEnabled bool                   `json:"audience_enabled"`
	GameID          *uuid.UUID             `json:"game_id,omitempty"`
	Round           *RoundView             `json:"round,omitempty"`
	Deadline        *time.Time             `json:"deadline,omitempty"`
}

// RoundView is the current round of a room.
type RoundView struct {
	GamePromptID uuid.UUID `json:"game_prompt_id"`
	Order        int       `json:"order"`
	Total        int       `json:"total"`
	Prompt       string    `json:"prompt"`
}

// CreditsReport is the end-of-game summary of a game.
type CreditsReport struct {
	GameID  uuid.UUID          `json:"game_id"`
	Credits gamedomain.Credits `json:"credits"`
}

// RoundTranscript is one round of a finished game, for exports.
type RoundTranscript struct {
	Order   int
	Prompt  string
	Answers []TranscriptAnswer
}

// TranscriptAnswer is one answer of a round transcript.
type TranscriptAnswer struct {
	UserID    uuid.UUID
	Text      string
	Points    int
	Audience  int
	Won       bool
	Submitted time.Time
}
