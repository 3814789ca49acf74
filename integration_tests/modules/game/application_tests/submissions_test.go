package gameintegrationtests

import (
	"sync"
	"testing"

	gameservice "github.com/Black-And-White-Club/party-bot/app/modules/game/application"
	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	"github.com/Black-And-White-Club/party-bot/integration_tests/testutils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// startedRoom seeds a room and opens its first round.
func startedRoom(t *testing.T, deps GameTestDeps, opts testutils.RoomOptions) *testutils.SeededRoom {
	t.Helper()
	seeded, err := deps.Data.SeedRoom(deps.Ctx, deps.BunDB, opts)
	require.NoError(t, err, "seed %d", deps.Data.Seed())

	_, err = deps.Service.InitializeRoom(deps.Ctx, seeded.Room.ID, seeded.Creator())
	require.NoError(t, err)
	_, err = deps.Service.StartGame(deps.Ctx, seeded.Room.ID, seeded.Creator(), seeded.Story.ID)
	require.NoError(t, err)
	return seeded
}

func TestSubmitAnswer_ConcurrentRepeats(t *testing.T) {
	deps := SetupTestGameService(t, gameservice.Settings{})
	seeded := startedRoom(t, deps, testutils.RoomOptions{Players: 3})
	player := seeded.Players[0]

	const attempts = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		statuses = make(map[gameservice.SubmissionStatus]int)
	)
	for range attempts {
		text := deps.Data.Answer()
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := deps.Service.SubmitAnswer(deps.Ctx, seeded.Room.ID, player, text)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			statuses[outcome.Status]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, statuses[gameservice.SubmissionAccepted])
	assert.Equal(t, attempts-1, statuses[gameservice.SubmissionDuplicate])

	_, gamePromptID := currentRound(t, deps, seeded.Room.ID)
	count, err := testutils.CountRows(deps.Ctx, deps.BunDB, "answers", "game_prompt_id = ? AND user_id = ?", gamePromptID, player)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	room, err := deps.Repo.GetRoom(deps.Ctx, nil, seeded.Room.ID)
	require.NoError(t, err)
	assert.Equal(t, gamedomain.PhaseAnswering, room.Phase, "one of three players answered")
}

func TestSubmitVote_RankedBallots(t *testing.T) {
	deps := SetupTestGameService(t, gameservice.Settings{})
	seeded := startedRoom(t, deps, testutils.RoomOptions{Players: 4, Style: gamedomain.VotingStyleRankedTopThree})
	roomID := seeded.Room.ID
	p := seeded.Players

	for _, player := range p {
		_, err := deps.Service.SubmitAnswer(deps.Ctx, roomID, player, deps.Data.Answer())
		require.NoError(t, err)
	}
	_, gamePromptID := currentRound(t, deps, roomID)
	answers := answersByAuthor(t, deps, gamePromptID)

	tests := []struct {
		name    string
		voter   uuid.UUID
		ranked  []uuid.UUID
		wantErr error
		invalid bool
		want    gameservice.SubmissionStatus
	}{
		{
			name:   "full ballot",
			voter:  p[0],
			ranked: []uuid.UUID{answers[p[1]], answers[p[2]], answers[p[3]]},
			want:   gameservice.SubmissionAccepted,
		},
		{
			name:    "repeat ballot",
			voter:   p[0],
			ranked:  []uuid.UUID{answers[p[3]]},
			wantErr: gameservice.ErrDuplicateSubmission,
		},
		{
			name:    "unknown answer",
			voter:   p[1],
			ranked:  []uuid.UUID{uuid.New()},
			invalid: true,
		},
		{
			name:   "own answer with a blank slot",
			voter:  p[1],
			ranked: []uuid.UUID{answers[p[1]], uuid.Nil, answers[p[2]]},
			want:   gameservice.SubmissionAccepted,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome, err := deps.Service.SubmitVote(deps.Ctx, roomID, tt.voter, tt.ranked)
			switch {
			case tt.wantErr != nil:
				require.ErrorIs(t, err, tt.wantErr)
			case tt.invalid:
				var invalid *gamedomain.ValidationError
				require.ErrorAs(t, err, &invalid)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want, outcome.Status)
				assert.Equal(t, gamedomain.PhaseVoting, outcome.Phase)
			}
		})
	}

	votes, err := testutils.CountRows(deps.Ctx, deps.BunDB, "votes", "game_prompt_id = ? AND user_id = ?", gamePromptID, p[0])
	require.NoError(t, err)
	assert.Equal(t, 3, votes, "the repeat ballot wrote nothing")
}

func TestSubmitAudienceStars(t *testing.T) {
	deps := SetupTestGameService(t, gameservice.Settings{MaxStars: 3})
	seeded := startedRoom(t, deps, testutils.RoomOptions{Players: 3, Audience: 1, AudienceEnabled: true})
	roomID, fan := seeded.Room.ID, seeded.Audience[0]

	for _, player := range seeded.Players {
		_, err := deps.Service.SubmitAnswer(deps.Ctx, roomID, player, deps.Data.Answer())
		require.NoError(t, err)
	}
	_, gamePromptID := currentRound(t, deps, roomID)
	answers := answersByAuthor(t, deps, gamePromptID)
	favorite, skipped := answers[seeded.Players[2]], answers[seeded.Players[0]]

	outcome, err := deps.Service.SubmitAudienceStars(deps.Ctx, roomID, fan, map[string]string{
		favorite.String(): "9",
		skipped.String():  "",
	})
	require.NoError(t, err)
	assert.Equal(t, 3, outcome.Submitted, "stars clamp to the maximum")

	_, err = deps.Service.SubmitAudienceStars(deps.Ctx, roomID, fan, map[string]string{favorite.String(): "1"})
	require.ErrorIs(t, err, gameservice.ErrAlreadyCounted)

	_, err = deps.Service.SubmitAudienceStars(deps.Ctx, roomID, seeded.Players[0], map[string]string{favorite.String(): "1"})
	require.ErrorIs(t, err, gameservice.ErrIllegalAction, "players cannot cast audience ballots")

	stars, err := testutils.CountRows(deps.Ctx, deps.BunDB, "votes", "answer_id = ? AND vote_type = ?", favorite, gamedomain.VoteTypeAudience)
	require.NoError(t, err)
	assert.Equal(t, 3, stars)

	room, err := deps.Repo.GetRoom(deps.Ctx, nil, roomID)
	require.NoError(t, err)
	assert.Equal(t, gamedomain.PhaseVoting, room.Phase, "audience ballots never close voting")
}
