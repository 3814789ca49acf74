package gameservice

import (
	"errors"
	"fmt"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
)

var (
	// ErrIllegalAction matches every *IllegalActionError.
	ErrIllegalAction = errors.New("illegal action")

	// ErrDuplicateSubmission is returned when a ranked ballot repeats an earlier one.
	ErrDuplicateSubmission = errors.New("duplicate submission")

	// ErrAlreadyCounted is returned for a repeated audience ballot.
	ErrAlreadyCounted = fmt.Errorf("audience ballot already counted: %w", ErrDuplicateSubmission)

	// ErrConcurrencyConflict is returned when a concurrent writer won a race.
	// The caller may retry.
	ErrConcurrencyConflict = errors.New("concurrency conflict")

	// ErrSchedulerUnavailable marks a deadline that could not be armed. It is
	// logged and never returned from a transition.
	ErrSchedulerUnavailable = errors.New("scheduler unavailable")

	// ErrNoActiveGame is returned when an operation needs a game the room does not have.
	ErrNoActiveGame = errors.New("room has no active game")

	// ErrRoomNotFound is returned for an unknown room id or code.
	ErrRoomNotFound = errors.New("room not found")

	// ErrGameNotFound is returned for an unknown game id.
	ErrGameNotFound = errors.New("game not found")

	// ErrRoundNotFound is returned for an unknown game prompt id.
	ErrRoundNotFound = errors.New("round not found")
)

// Reasons carried by IllegalActionError.
const (
	ReasonWrongPhase      = "wrong phase"
	ReasonCreatorOnly     = "creator only"
	ReasonNotMember       = "not a member"
	ReasonPlayersOnly     = "players only"
	ReasonAudienceOnly    = "audience only"
	ReasonAudienceOff     = "audience disabled"
	ReasonNoNextRound     = "no next round"
	ReasonRoundsRemaining = "rounds remaining"
)

// IllegalActionError is returned for a user action outside the legal set of
// the room's current phase. Phase is where the caller should be sent instead.
type IllegalActionError struct {
	Action string
	Phase  gamedomain.Phase
	Reason string
}

func (e *IllegalActionError) Error() string {
	return fmt.Sprintf("illegal action %s in phase %s: %s", e.Action, e.Phase, e.Reason)
}

// Is lets errors.Is(err, ErrIllegalAction) match any IllegalActionError.
func (e *IllegalActionError) Is(target error) bool {
	return target == ErrIllegalAction
}

func illegal(action string, phase gamedomain.Phase, reason string) error {
	return &IllegalActionError{Action: action, Phase: phase, Reason: reason}
}
