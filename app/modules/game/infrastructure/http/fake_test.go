package gamehttp

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

	GetRoomFunc             func(ctx context.Context, code string) (*gameservice.RoomView, error)
	InitializeRoomFunc      func(ctx context.Context, roomID, userID uuid.UUID) (*gameservice.TransitionResult, error)
	StartGameFunc           func(ctx context.Context, roomID, userID, storyID uuid.UUID) (*gameservice.TransitionResult, error)
	NextRoundFunc           func(ctx context.Context, roomID, userID uuid.UUID) (*gameservice.TransitionResult, error)
	ShowCreditsFunc         func(ctx context.Context, roomID, userID uuid.UUID) (*gameservice.TransitionResult, error)
	EndGameFunc             func(ctx context.Context, roomID, userID uuid.UUID) (*gameservice.TransitionResult, error)
	SubmitAnswerFunc        func(ctx context.Context, roomID, userID uuid.UUID, text string) (*gameservice.SubmissionOutcome, error)
	SubmitVoteFunc          func(ctx context.Context, roomID, userID uuid.UUID, ranked []uuid.UUID) (*gameservice.SubmissionOutcome, error)
	SubmitAudienceStarsFunc func(ctx context.Context, roomID, userID uuid.UUID, raw map[string]string) (*gameservice.SubmissionOutcome, error)
	GetCreditsFunc          func(ctx context.Context, gameID uuid.UUID) (*gameservice.CreditsReport, error)
	ExportCreditsFunc       func(ctx context.Context, gameID uuid.UUID) ([]byte, error)
	CreditsChartFunc        func(ctx context.Context, gameID uuid.UUID) ([]byte, error)
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

func (f *FakeGameService) GetRoom(ctx context.Context, code string) (*gameservice.RoomView, error) {
	f.record("GetRoom")
	if f.GetRoomFunc != nil {
		return f.GetRoomFunc(ctx, code)
	}
	return nil, gameservice.ErrRoomNotFound
}

func (f *FakeGameService) InitializeRoom(ctx context.Context, roomID, userID uuid.UUID) (*gameservice.TransitionResult, error) {
	f.record("InitializeRoom")
	if f.InitializeRoomFunc != nil {
		return f.InitializeRoomFunc(ctx, roomID, userID)
	}
	return &gameservice.TransitionResult{}, nil
}

func (f *FakeGameService) StartGame(ctx context.Context, roomID, userID, storyID uuid.UUID) (*gameservice.TransitionResult, error) {
	f.record("StartGame")
	if f.StartGameFunc != nil {
		return f.StartGameFunc(ctx, roomID, userID, storyID)
	}
	return &gameservice.TransitionResult{}, nil
}

func (f *FakeGameService) NextRound(ctx context.Context, roomID, userID uuid.UUID) (*gameservice.TransitionResult, error) {
	f.record("NextRound")
	if f.NextRoundFunc != nil {
		return f.NextRoundFunc(ctx, roomID, userID)
	}
	return &gameservice.TransitionResult{}, nil
}

func (f *FakeGameService) ShowCredits(ctx context.Context, roomID, userID uuid.UUID) (*gameservice.TransitionResult, error) {
	f.record("ShowCredits")
	if f.ShowCreditsFunc != nil {
		return f.ShowCreditsFunc(ctx, roomID, userID)
	}
	return &gameservice.TransitionResult{}, nil
}

func (f *FakeGameService) EndGame(ctx context.Context, roomID, userID uuid.UUID) (*gameservice.TransitionResult, error) {
	f.record("EndGame")
	if f.EndGameFunc != nil {
		return f.EndGameFunc(ctx, roomID, userID)
	}
	return &gameservice.TransitionResult{}, nil
}

func (f *FakeGameService) AdvancePhase(context.Context, uuid.UUID, gamedomain.Trigger) (*gameservice.TransitionResult, error) {
	f.record("AdvancePhase")
	return &gameservice.TransitionResult{}, nil
}

func (f *FakeGameService) HandlePhaseDeadline(context.Context, gameservice.PhaseDeadline) (*gameservice.TransitionResult, error) {
	f.record("HandlePhaseDeadline")
	return &gameservice.TransitionResult{}, nil
}

func (f *FakeGameService) SubmitAnswer(ctx context.Context, roomID, userID uuid.UUID, text string) (*gameservice.SubmissionOutcome, error) {
	f.record("SubmitAnswer")
	if f.SubmitAnswerFunc != nil {
		return f.SubmitAnswerFunc(ctx, roomID, userID, text)
	}
	return &gameservice.SubmissionOutcome{}, nil
}

func (f *FakeGameService) SubmitVote(ctx context.Context, roomID, userID uuid.UUID, ranked []uuid.UUID) (*gameservice.SubmissionOutcome, error) {
	f.record("SubmitVote")
	if f.SubmitVoteFunc != nil {
		return f.SubmitVoteFunc(ctx, roomID, userID, ranked)
	}
	return &gameservice.SubmissionOutcome{}, nil
}

func (f *FakeGameService) SubmitAudienceStars(ctx context.Context, roomID, userID uuid.UUID, raw map[string]string) (*gameservice.SubmissionOutcome, error) {
	f.record("SubmitAudienceStars")
	if f.SubmitAudienceStarsFunc != nil {
		return f.SubmitAudienceStarsFunc(ctx, roomID, userID, raw)
	}
	return &gameservice.SubmissionOutcome{}, nil
}

func (f *FakeGameService) SelectWinner(context.Context, uuid.UUID) (*gameservice.WinnerResult, error) {
	f.record("SelectWinner")
	return nil, nil
}

func (f *FakeGameService) GetCredits(ctx context.Context, gameID uuid.UUID) (*gameservice.CreditsReport, error) {
	f.record("GetCredits")
	if f.GetCreditsFunc != nil {
		return f.GetCreditsFunc(ctx, gameID)
	}
	return nil, gameservice.ErrGameNotFound
}

func (f *FakeGameService) ExportCredits(ctx context.Context, gameID uuid.UUID) ([]byte, error) {
	f.record("ExportCredits")
	if f.ExportCreditsFunc != nil {
		return f.ExportCreditsFunc(ctx, gameID)
	}
	return nil, gameservice.ErrGameNotFound
}

func (f *FakeGameService) CreditsChart(ctx context.Context, gameID uuid.UUID) ([]byte, error) {
	f.record("CreditsChart")
	if f.CreditsChartFunc != nil {
		return f.CreditsChartFunc(ctx, gameID)
	}
	return nil, gameservice.ErrGameNotFound
}

// --- Accessors for assertions ---

func (f *FakeGameService) Trace() []string {
	return f.trace
}
