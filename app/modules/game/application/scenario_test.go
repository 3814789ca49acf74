package gameservice

import (
	"context"
	"testing"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGameService_TwoPlayerGame(t *testing.T) {
	f := newFixture(t, fixtureOptions{})
	ctx := context.Background()
	p1, p2 := f.players[0], f.players[1]

	_, err := f.svc.InitializeRoom(ctx, f.roomID, p1)
	require.NoError(t, err)
	_, err = f.svc.StartGame(ctx, f.roomID, p1, f.storyID)
	require.NoError(t, err)
	gp := f.currentRound(t)

	_, err = f.svc.SubmitAnswer(ctx, f.roomID, p1, "a tiny horse")
	require.NoError(t, err)
	outcome, err := f.svc.SubmitAnswer(ctx, f.roomID, p2, "a large cat")
	require.NoError(t, err)
	require.True(t, outcome.Advanced)

	favorite := f.answerOf(t, p2, gp)
	_, err = f.svc.SubmitVote(ctx, f.roomID, p1, []uuid.UUID{favorite})
	require.NoError(t, err)
	outcome, err = f.svc.SubmitVote(ctx, f.roomID, p2, []uuid.UUID{favorite})
	require.NoError(t, err)
	require.True(t, outcome.Advanced)
	assert.Equal(t, gamedomain.PhaseResults, outcome.Phase)

	winner, err := f.svc.SelectWinner(ctx, gp)
	require.NoError(t, err)
	assert.Equal(t, favorite, winner.AnswerID)
	assert.Equal(t, 2, winner.Points)
	assert.Equal(t, p2, winner.UserID)
	assert.Equal(t, "a large cat", winner.Text)

	gameID := f.game(t).ID
	for _, step := range []func(context.Context, uuid.UUID, uuid.UUID) (*TransitionResult, error){
		f.svc.NextRound,
		f.svc.ShowCredits,
		f.svc.EndGame,
	} {
		_, err := step(ctx, f.roomID, p1)
		require.NoError(t, err)
	}
	assert.Equal(t, gamedomain.PhaseWaitingRoom, f.phase())

	report, err := f.svc.GetCredits(ctx, gameID)
	require.NoError(t, err)
	assert.Equal(t, []gamedomain.UserScore{{UserID: p2, Value: 2}}, report.Credits.Podium)

	want := []EventType{
		EventPhaseChanged,   // story selection
		EventPhaseChanged,   // answering
		EventPhaseChanged,   // voting
		EventWinnerSelected, // round decided
		EventPhaseChanged,   // results
		EventPhaseChanged,   // final results
		EventPhaseChanged,   // credits
		EventGameEnded,
		EventPhaseChanged, // waiting room
	}
	if diff := cmp.Diff(want, f.notifier.Types()); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"job-1", "job-2"}, f.scheduler.Cancelled())
}
