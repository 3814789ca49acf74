package gamehandlers

import (
	"context"

	gameservice "github.com/Black-And-White-Club/party-bot/app/modules/game/application"
	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/google/uuid"
)

// ------------------------
// Fake Game Service
// ------------------------

type FakeGameService struct {
	trace []string

	HandlePhaseDeadlineFunc func(ctx context.Context, deadline gameservice.PhaseDeadline) (*gameservice.TransitionResult, error)
}

var _ gameservice.Service = (*FakeGameService)(nil)

func NewFakeGameService() *FakeGameService {
	return &FakeGameService{
		trace: []string{},
	}
}

func (f *FakeGameService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeGameService) HandlePhaseDeadline(ctx context.Context, deadline gameservice.PhaseDeadline) (*gameservice.TransitionResult, error) {
	f.record("HandlePhaseDeadline")
	if f.HandlePhaseDeadlineFunc != nil {
		return f.HandlePhaseDeadlineFunc(ctx, deadline)
	}
	return &gameservice.TransitionResult{Noop: true}, nil
}

// --- Unused by the handlers ---

func (f *FakeGameService) GetRoom(context.Context, string) (*gameservice.RoomView, error) {
	f.record("GetRoom")
	return nil, nil
}

func (f *FakeGameService) InitializeRoom(context.Context, uuid.UUID, uuid.UUID) (*gameservice.TransitionResult, error) {
	f.record("InitializeRoom")
	return nil, nil
}

func (f *FakeGameService) StartGame(context.Context, uuid.UUID, uuid.UUID, uuid.UUID) (*gameservice.TransitionResult, error) {
	f.record("StartGame")
	return nil, nil
}

func (f *FakeGameService) NextRound(context.Context, uuid.UUID, uuid.UUID) (*gameservice.TransitionResult, error) {
	f.record("NextRound")
	return nil, nil
}

func (f *FakeGameService) ShowCredits(context.Context, uuid.UUID, uuid.UUID) (*gameservice.TransitionResult, error) {
	f.record("ShowCredits")
	return nil, nil
}

func (f *FakeGameService) EndGame(context.Context, uuid.UUID, uuid.UUID) (*gameservice.TransitionResult, error) {
	f.record("EndGame")
	return nil, nil
}

func (f *FakeGameService) AdvancePhase(context.Context, uuid.UUID, gamedomain.Trigger) (*gameservice.TransitionResult, error) {
	f.record("AdvancePhase")
	return nil, nil
}

func (f *FakeGameService) SubmitAnswer(context.Context, uuid.UUID, uuid.UUID, string) (*gameservice.SubmissionOutcome, error) {
	f.record("SubmitAnswer")
	return nil, nil
}

func (f *FakeGameService) SubmitVote(context.Context, uuid.UUID, uuid.UUID, []uuid.UUID) (*gameservice.SubmissionOutcome, error) {
	f.record("SubmitVote")
	return nil, nil
}

func (f *FakeGameService) SubmitAudienceStars(context.Context, uuid.UUID, uuid.UUID, map[string]string) (*gameservice.SubmissionOutcome, error) {
	f.record("SubmitAudienceStars")
	return nil, nil
}

func (f *FakeGameService) SelectWinner(context.Context, uuid.UUID) (*gameservice.WinnerResult, error) {
	f.record("SelectWinner")
	return nil, nil
}

func (f *FakeGameService) GetCredits(context.Context, uuid.UUID) (*gameservice.CreditsReport, error) {
	f.record("GetCredits")
	return nil, nil
}

func (f *FakeGameService) ExportCredits(context.Context, uuid.UUID) ([]byte, error) {
	f.record("ExportCredits")
	return nil, nil
}

func (f *FakeGameService) CreditsChart(context.Context, uuid.UUID) ([]byte, error) {
	f.record("CreditsChart")
	return nil, nil
}

// --- Accessors for assertions ---

func (f *FakeGameService) Trace() []string {
	return f.trace
}
