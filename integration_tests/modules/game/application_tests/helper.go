package gameintegrationtests

import (
	"context"
	"log"
	"sync"
	"testing"
	"time"

	gameservice "github.com/Black-And-White-Club/party-bot/app/modules/game/application"
	gamenotifier "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/notifier"
	gamequeue "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/queue"
	gamedb "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories"
	"github.com/Black-And-White-Club/party-bot/integration_tests/testutils"
	"github.com/Black-And-White-Club/party-bot/pkg/eventbus"
	gamemetrics "github.com/Black-And-White-Club/party-bot/pkg/observability/metrics/game"
	"github.com/Black-And-White-Club/party-bot/pkg/wordlist"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"
)

var (
	testEnv     *testutils.TestEnvironment
	testEnvOnce sync.Once
	testEnvErr  error
)

// GameTestDeps bundles a game service running on the shared Postgres.
type GameTestDeps struct {
	Ctx     context.Context
	BunDB   *bun.DB
	Repo    gamedb.Repository
	Service *gameservice.GameService
	Queue   *gamequeue.Service
	Bus     eventbus.EventBus
	Data    *testutils.TestDataGenerator
}

func GetTestEnv(t *testing.T) *testutils.TestEnvironment {
	t.Helper()
	testutils.RequireDocker(t)

	testEnvOnce.Do(func() {
		log.Println("Initializing game test environment...")
		testEnv, testEnvErr = testutils.NewTestEnvironment(context.Background())
	})

	if testEnvErr != nil {
		t.Fatalf("Game test environment initialization failed: %v", testEnvErr)
	}
	return testEnv
}

func SetupTestGameService(t *testing.T, settings gameservice.Settings) GameTestDeps {
	t.Helper()

	env := GetTestEnv(t)

	resetCtx, resetCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer resetCancel()
	require.NoError(t, env.Reset(resetCtx), "reset environment")

	testCtx, testCancel := context.WithCancel(env.Ctx)
	t.Cleanup(testCancel)

	metrics := gamemetrics.NewNoop()
	tracer := noop.NewTracerProvider().Tracer("test_game_service")
	bus := eventbus.NewInMemory(env.Logger)
	t.Cleanup(func() { _ = bus.Close() })

	queue, err := gamequeue.NewService(testCtx, env.DB, env.Logger, env.DSN, metrics, bus)
	require.NoError(t, err, "create queue service")
	t.Cleanup(func() { _ = queue.Stop(context.Background()) })

	profanity, err := wordlist.LoadFileOr("", wordlist.Profanity)
	require.NoError(t, err)
	dictionary, err := wordlist.LoadFileOr("", wordlist.Dictionary)
	require.NoError(t, err)

	repo := gamedb.NewRepository(env.DB)
	service := gameservice.NewGameService(repo, env.Logger, metrics, tracer, env.DB, gameservice.Ports{
		Scheduler:  queue,
		Notifier:   gamenotifier.New(bus, env.Logger, tracer),
		Profanity:  profanity,
		Dictionary: dictionary,
	}, settings)
	t.Cleanup(service.Wait)

	return GameTestDeps{
		Ctx:     testCtx,
		BunDB:   env.DB,
		Repo:    repo,
		Service: service,
		Queue:   queue,
		Bus:     bus,
		Data:    testutils.NewTestDataGenerator(),
	}
}

// currentRound returns the id of the game's current round.
func currentRound(t *testing.T, deps GameTestDeps, roomID uuid.UUID) (gameID, gamePromptID uuid.UUID) {
	t.Helper()
	room, err := deps.Repo.GetRoom(deps.Ctx, nil, roomID)
	require.NoError(t, err)
	require.NotNil(t, room.CurrentGameID, "room has no game")
	game, err := deps.Repo.GetGame(deps.Ctx, nil, *room.CurrentGameID)
	require.NoError(t, err)
	require.NotNil(t, game.CurrentGamePromptID, "game has no current round")
	return game.ID, *game.CurrentGamePromptID
}

// answersByAuthor maps user ids to their answer ids in a round.
func answersByAuthor(t *testing.T, deps GameTestDeps, gamePromptID uuid.UUID) map[uuid.UUID]uuid.UUID {
	t.Helper()
	answers, err := deps.Repo.ListAnswersByGamePrompt(deps.Ctx, nil, gamePromptID)
	require.NoError(t, err)
	byAuthor := make(map[uuid.UUID]uuid.UUID, len(answers))
	for _, a := range answers {
		byAuthor[a.UserID] = a.ID
	}
	return byAuthor
}
