package gameservice

import (
	"context"
	"time"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/google/uuid"
)

// EventType tags a RoomEvent.
type EventType string

const (
	EventPhaseChanged   EventType = "phase_changed"
	EventWinnerSelected EventType = "winner_selected"
	EventGameEnded      EventType = "game_ended"
)

// RoomEvent is the payload pushed to a room's clients. Ref is the minimal
// referenced id: the current round for phase_changed, the winning answer for
// winner_selected and the game for game_ended.
type RoomEvent struct {
	Type       EventType        `json:"type"`
	Phase      gamedomain.Phase `json:"phase"`
	Ref        uuid.UUID        `json:"ref"`
	OccurredAt time.Time        `json:"occurred_at"`
}

// Notifier broadcasts room events. Delivery is fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, roomID uuid.UUID, event RoomEvent) error
}

// SlurPredicate reports whether text contains a slur.
type SlurPredicate interface {
	Contains(text string) bool
}

// ProfanityPredicate and Dictionary feed the credits pass.
type (
	ProfanityPredicate = gamedomain.ProfanityPredicate
	Dictionary         = gamedomain.Dictionary
)

// TextSmoother rewrites a winning answer for display.
type TextSmoother interface {
	Smooth(ctx context.Context, text string) (string, error)
}

// PhaseDeadline identifies the phase a scheduled deadline closes.
type PhaseDeadline struct {
	RoomID       uuid.UUID        `json:"room_id"`
	GameID       uuid.UUID        `json:"game_id"`
	GamePromptID uuid.UUID        `json:"game_prompt_id"`
	Phase        gamedomain.Phase `json:"phase"`
}

// Scheduler arms and disarms phase deadlines. Cancel of a blank, unknown or
// already fired job id is a no-op.
type Scheduler interface {
	Schedule(ctx context.Context, at time.Time, deadline PhaseDeadline) (jobID string, err error)
	Cancel(ctx context.Context, jobID string) error
}
