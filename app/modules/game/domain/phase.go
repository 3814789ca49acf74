package gamedomain

import (
	"errors"
	"fmt"
)

// Phase is the lifecycle state of a Room.
type Phase string

const (
	PhaseWaitingRoom    Phase = "waiting_room"
	PhaseStorySelection Phase = "story_selection"
	PhaseAnswering      Phase = "answering"
	PhaseVoting         Phase = "voting"
	PhaseResults        Phase = "results"
	PhaseFinalResults   Phase = "final_results"
	PhaseCredits        Phase = "credits"
)

// Trigger is an event that may move a Room between phases.
type Trigger string

const (
	TriggerInitialize      Trigger = "initialize"
	TriggerStart           Trigger = "start"
	TriggerAnswersComplete Trigger = "answers_complete"
	TriggerVotesComplete   Trigger = "votes_complete"
	TriggerNext            Trigger = "next"
	TriggerFinish          Trigger = "finish"
	TriggerShowCredits     Trigger = "show_credits"
	TriggerEndGame         Trigger = "end_game"
)

// ErrIllegalTransition is returned when a trigger is not legal in a phase.
var ErrIllegalTransition = errors.New("illegal phase transition")

var transitions = map[Phase]map[Trigger]Phase{
	PhaseWaitingRoom: {
		TriggerInitialize: PhaseStorySelection,
	},
	PhaseStorySelection: {
		TriggerStart: PhaseAnswering,
	},
	PhaseAnswering: {
		TriggerAnswersComplete: PhaseVoting,
	},
	PhaseVoting: {
		TriggerVotesComplete: PhaseResults,
	},
	PhaseResults: {
		TriggerNext:   PhaseAnswering,
		TriggerFinish: PhaseFinalResults,
	},
	PhaseFinalResults: {
		TriggerShowCredits: PhaseCredits,
		TriggerEndGame:     PhaseWaitingRoom,
	},
	PhaseCredits: {
		TriggerEndGame: PhaseWaitingRoom,
	},
}

// automatic triggers race with each other (last submission vs deadline) and
// resolve to a no-op outside their source phase.
var automatic = map[Trigger]bool{
	TriggerAnswersComplete: true,
	TriggerVotesComplete:   true,
}

// Resolve returns the phase reached by applying trigger in from. noop is true
// when an automatic trigger arrives after its transition already happened.
func Resolve(from Phase, trigger Trigger) (next Phase, noop bool, err error) {
	if to, ok := transitions[from][trigger]; ok {
		return to, false, nil
	}
	if automatic[trigger] {
		return from, true, nil
	}
	return from, false, fmt.Errorf("%w: %s in %s", ErrIllegalTransition, trigger, from)
}

// Allowed reports whether trigger is legal in phase.
func Allowed(phase Phase, trigger Trigger) bool {
	_, ok := transitions[phase][trigger]
	return ok
}

// Valid reports whether p is a known phase.
func (p Phase) Valid() bool {
	_, ok := transitions[p]
	return ok
}

// AcceptsAnswers reports whether answers may be created in p.
func (p Phase) AcceptsAnswers() bool { return p == PhaseAnswering }

// AcceptsVotes reports whether votes may be created in p.
func (p Phase) AcceptsVotes() bool { return p == PhaseVoting }

var canonicalPages = map[Phase]string{
	PhaseWaitingRoom:    "waiting-room",
	PhaseStorySelection: "story-selection",
	PhaseAnswering:      "answer",
	PhaseVoting:         "vote",
	PhaseResults:        "results",
	PhaseFinalResults:   "final-results",
	PhaseCredits:        "credits",
}

// CanonicalPage is the page slug a room in phase redirects to.
func CanonicalPage(phase Phase) string {
	if page, ok := canonicalPages[phase]; ok {
		return page
	}
	return canonicalPages[PhaseWaitingRoom]
}
