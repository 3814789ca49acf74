package gameservice

import (
	"context"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/google/uuid"
)

// Service defines the contract for game operations.
type Service interface {
	// --- ROOM LIFECYCLE ---

	// GetRoom returns the room with the given join code.
	GetRoom(ctx context.Context, code string) (*RoomView, error)

	// InitializeRoom moves a waiting room into story selection. Creator only.
	InitializeRoom(ctx context.Context, roomID, userID uuid.UUID) (*TransitionResult, error)

	// StartGame sequences the story's prompts into a new game and opens the first round.
	StartGame(ctx context.Context, roomID, userID, storyID uuid.UUID) (*TransitionResult, error)

	// NextRound opens the next round, or finishes the game when none is left.
	NextRound(ctx context.Context, roomID, userID uuid.UUID) (*TransitionResult, error)

	// ShowCredits moves a finished game to the credits phase.
	ShowCredits(ctx context.Context, roomID, userID uuid.UUID) (*TransitionResult, error)

	// EndGame detaches the game and returns the room to the waiting room.
	EndGame(ctx context.Context, roomID, userID uuid.UUID) (*TransitionResult, error)

	// AdvancePhase applies trigger on behalf of the system. Automatic
	// triggers are no-ops outside their source phase.
	AdvancePhase(ctx context.Context, roomID uuid.UUID, trigger gamedomain.Trigger) (*TransitionResult, error)

	// HandlePhaseDeadline closes the phase named by a fired deadline if the
	// room is still in it on the same round.
	HandlePhaseDeadline(ctx context.Context, deadline PhaseDeadline) (*TransitionResult, error)

	// --- SUBMISSIONS ---

	SubmitAnswer(ctx context.Context, roomID, userID uuid.UUID, text string) (*SubmissionOutcome, error)

	// SubmitVote records a player's vote. ranked holds answer ids by rank;
	// uuid.Nil marks a blank slot. vote_once rooms read only the first entry.
	SubmitVote(ctx context.Context, roomID, userID uuid.UUID, ranked []uuid.UUID) (*SubmissionOutcome, error)

	// SubmitAudienceStars records an audience member's star ballot from raw form values.
	SubmitAudienceStars(ctx context.Context, roomID, userID uuid.UUID, raw map[string]string) (*SubmissionOutcome, error)

	// --- RESULTS ---

	// SelectWinner returns the round's winner, choosing it on first call.
	SelectWinner(ctx context.Context, gamePromptID uuid.UUID) (*WinnerResult, error)

	GetCredits(ctx context.Context, gameID uuid.UUID) (*CreditsReport, error)

	// ExportCredits renders the credits and round transcript as an XLSX workbook.
	ExportCredits(ctx context.Context, gameID uuid.UUID) ([]byte, error)

	// CreditsChart renders the podium as a PNG bar chart.
	CreditsChart(ctx context.Context, gameID uuid.UUID) ([]byte, error)
}

var _ Service = (*GameService)(nil)
