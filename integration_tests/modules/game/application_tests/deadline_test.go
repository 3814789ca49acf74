package gameintegrationtests

import (
	"context"
	"testing"
	"time"

	gameservice "github.com/Black-And-White-Club/party-bot/app/modules/game/application"
	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	gamehandlers "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/handlers"
	gamerouter "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/router"
	"github.com/Black-And-White-Club/party-bot/integration_tests/testutils"
	"github.com/riverqueue/river/rivertype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

// startDeadlineConsumer runs the queue and a router consuming fired deadlines
// until the test ends.
func startDeadlineConsumer(t *testing.T, deps GameTestDeps) {
	t.Helper()
	env := GetTestEnv(t)
	tracer := noop.NewTracerProvider().Tracer("test_game_deadlines")

	router, err := gamerouter.NewMessageRouter(env.Logger)
	require.NoError(t, err)
	gameRouter := gamerouter.NewGameRouter(env.Logger, router, deps.Bus, deps.Bus, tracer, nil)
	require.NoError(t, gameRouter.Configure(deps.Ctx, gamehandlers.NewGameHandlers(deps.Service, env.Logger, tracer)))

	runCtx, cancel := context.WithCancel(deps.Ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := router.Run(runCtx); err != nil {
			t.Logf("router stopped: %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	select {
	case <-router.Running():
	case <-time.After(10 * time.Second):
		t.Fatal("router did not start")
	}

	require.NoError(t, deps.Queue.Start(deps.Ctx))
}

func TestPhaseDeadline_ClosesAnswering(t *testing.T) {
	deps := SetupTestGameService(t, gameservice.Settings{ForgivenessBuffer: 100 * time.Millisecond})
	startDeadlineConsumer(t, deps)

	seeded := startedRoom(t, deps, testutils.RoomOptions{Players: 3, AnswerSeconds: 1, VoteSeconds: 300})
	roomID := seeded.Room.ID

	_, err := deps.Service.SubmitAnswer(deps.Ctx, roomID, seeded.Players[0], deps.Data.Answer())
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		room, err := deps.Repo.GetRoom(deps.Ctx, nil, roomID)
		return err == nil && room.Phase == gamedomain.PhaseVoting
	}, 30*time.Second, 200*time.Millisecond, "answering closes once its deadline fires")

	jobs, err := deps.Queue.ListJobs(deps.Ctx, roomID)
	require.NoError(t, err)
	var pending []string
	for _, job := range jobs {
		if job.State == string(rivertype.JobStateScheduled) || job.State == string(rivertype.JobStateAvailable) {
			pending = append(pending, job.Phase)
		}
	}
	assert.Equal(t, []string{string(gamedomain.PhaseVoting)}, pending, "only the voting deadline stays armed")
}

func TestPhaseDeadline_StaleAfterEarlyClose(t *testing.T) {
	deps := SetupTestGameService(t, gameservice.Settings{})
	seeded := startedRoom(t, deps, testutils.RoomOptions{Players: 2})
	roomID := seeded.Room.ID

	gameID, gamePromptID := currentRound(t, deps, roomID)
	for _, player := range seeded.Players {
		_, err := deps.Service.SubmitAnswer(deps.Ctx, roomID, player, deps.Data.Answer())
		require.NoError(t, err)
	}

	result, err := deps.Service.HandlePhaseDeadline(deps.Ctx, gameservice.PhaseDeadline{
		RoomID:       roomID,
		GameID:       gameID,
		GamePromptID: gamePromptID,
		Phase:        gamedomain.PhaseAnswering,
	})
	require.NoError(t, err)
	assert.True(t, result.Noop, "answers already closed the phase")
	assert.Equal(t, gamedomain.PhaseVoting, result.To)
}
