package gamequeue

import (
	gameservice "github.com/Black-And-White-Club/party-bot/app/modules/game/application"
)

// PhaseDeadlineJob fires when an answering or voting phase runs out of time.
// The worker publishes it on the phase deadline topic.
type PhaseDeadlineJob struct {
	gameservice.PhaseDeadline
}

// Kind returns the job type identifier for River.
func (PhaseDeadlineJob) Kind() string { return "phase_deadline" }

// JobInfo represents information about a scheduled job (for debugging/monitoring)
type JobInfo struct {
	ID           int64  `json:"id"`
	Kind         string `json:"kind"`
	RoomID       string `json:"room_id"`
	GamePromptID string `json:"game_prompt_id"`
	Phase        string `json:"phase"`
	State        string `json:"state"`
	ScheduledAt  string `json:"scheduled_at"`
	CreatedAt    string `json:"created_at"`
	Attempt      int    `json:"attempt"`
	MaxAttempts  int    `json:"max_attempts"`
}
