package gameservice

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	gamedb "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Game Repo
// ------------------------

// FakeGameRepo keeps rows in memory with the same uniqueness rules as the
// schema. Any Func field overrides the in-memory behavior of its method.
type FakeGameRepo struct {
	mu    sync.Mutex
	trace []string

	rooms       map[uuid.UUID]gamedb.Room
	members     map[[2]uuid.UUID]gamedb.RoomMember
	blanks      []gamedb.Blank
	prompts     []gamedb.Prompt
	games       map[uuid.UUID]gamedb.Game
	gamePrompts []gamedb.GamePrompt
	answers     []gamedb.Answer
	votes       []gamedb.Vote

	GetRoomForUpdateFunc       func(ctx context.Context, db bun.IDB, roomID uuid.UUID) (*gamedb.Room, error)
	UpdateRoomStateFunc        func(ctx context.Context, db bun.IDB, room *gamedb.Room) error
	CreateGameFunc             func(ctx context.Context, db bun.IDB, game *gamedb.Game) error
	UpdateGameFunc             func(ctx context.Context, db bun.IDB, game *gamedb.Game) error
	InsertAnswerFunc           func(ctx context.Context, db bun.IDB, answer *gamedb.Answer) (bool, error)
	MarkAnswerWonFunc          func(ctx context.Context, db bun.IDB, answerID uuid.UUID) error
	SetSmoothedTextFunc        func(ctx context.Context, db bun.IDB, answerID uuid.UUID, text string) error
	ListUserVotesForUpdateFunc func(ctx context.Context, db bun.IDB, userID, gamePromptID uuid.UUID, voteType gamedomain.VoteType) ([]gamedb.Vote, error)
	InsertVotesFunc            func(ctx context.Context, db bun.IDB, votes []gamedb.Vote) error
	ListVotesByGamePromptFunc  func(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) ([]gamedb.Vote, error)
}

func NewFakeGameRepo() *FakeGameRepo {
	return &FakeGameRepo{
		trace:   []string{},
		rooms:   map[uuid.UUID]gamedb.Room{},
		members: map[[2]uuid.UUID]gamedb.RoomMember{},
		games:   map[uuid.UUID]gamedb.Game{},
	}
}

func (f *FakeGameRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

// --- Seeding ---

func (f *FakeGameRepo) AddRoom(room gamedb.Room) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rooms[room.ID] = room
}

func (f *FakeGameRepo) AddMember(roomID, userID uuid.UUID, role gamedb.MemberRole) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[[2]uuid.UUID{roomID, userID}] = gamedb.RoomMember{RoomID: roomID, UserID: userID, Role: role}
}

func (f *FakeGameRepo) AddBlank(blank gamedb.Blank) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blanks = append(f.blanks, blank)
}

func (f *FakeGameRepo) AddPrompt(prompt gamedb.Prompt) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
}

func (f *FakeGameRepo) AddAnswer(answer gamedb.Answer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, answer)
}

func (f *FakeGameRepo) AddVote(vote gamedb.Vote) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.votes = append(f.votes, vote)
}

// --- Repository Interface Implementation ---

func (f *FakeGameRepo) lookupRoom(roomID uuid.UUID) (*gamedb.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return nil, gamedb.ErrNotFound
	}
	return &room, nil
}

func (f *FakeGameRepo) GetRoom(ctx context.Context, db bun.IDB, roomID uuid.UUID) (*gamedb.Room, error) {
	f.record("GetRoom")
	return f.lookupRoom(roomID)
}

func (f *FakeGameRepo) GetRoomByCode(ctx context.Context, db bun.IDB, code string) (*gamedb.Room, error) {
	f.record("GetRoomByCode")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, room := range f.rooms {
		if room.Code == code {
			return &room, nil
		}
	}
	return nil, gamedb.ErrNotFound
}

func (f *FakeGameRepo) GetRoomForUpdate(ctx context.Context, db bun.IDB, roomID uuid.UUID) (*gamedb.Room, error) {
	f.record("GetRoomForUpdate")
	if f.GetRoomForUpdateFunc != nil {
		return f.GetRoomForUpdateFunc(ctx, db, roomID)
	}
	return f.lookupRoom(roomID)
}

func (f *FakeGameRepo) UpdateRoomState(ctx context.Context, db bun.IDB, room *gamedb.Room) error {
	f.record("UpdateRoomState")
	if f.UpdateRoomStateFunc != nil {
		return f.UpdateRoomStateFunc(ctx, db, room)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rooms[room.ID]; !ok {
		return gamedb.ErrNoRowsAffected
	}
	f.rooms[room.ID] = *room
	return nil
}

func (f *FakeGameRepo) GetMember(ctx context.Context, db bun.IDB, roomID, userID uuid.UUID) (*gamedb.RoomMember, error) {
	f.record("GetMember")
	f.mu.Lock()
	defer f.mu.Unlock()
	member, ok := f.members[[2]uuid.UUID{roomID, userID}]
	if !ok {
		return nil, gamedb.ErrNotFound
	}
	return &member, nil
}

func (f *FakeGameRepo) CountMembers(ctx context.Context, db bun.IDB, roomID uuid.UUID, role gamedb.MemberRole) (int, error) {
	f.record("CountMembers")
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, m := range f.members {
		if m.RoomID == roomID && m.Role == role {
			count++
		}
	}
	return count, nil
}

func (f *FakeGameRepo) ListBlanks(ctx context.Context, db bun.IDB, storyID uuid.UUID) ([]gamedb.Blank, error) {
	f.record("ListBlanks")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gamedb.Blank
	for _, b := range f.blanks {
		if b.StoryID == storyID {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, func(a, b gamedb.Blank) int { return a.Position - b.Position })
	return out, nil
}

func (f *FakeGameRepo) ListPromptsByTags(ctx context.Context, db bun.IDB, tags []string) ([]gamedb.Prompt, error) {
	f.record("ListPromptsByTags")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gamedb.Prompt
	for _, p := range f.prompts {
		if slices.Contains(tags, p.Tag) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *FakeGameRepo) CreateGame(ctx context.Context, db bun.IDB, game *gamedb.Game) error {
	f.record("CreateGame")
	if f.CreateGameFunc != nil {
		return f.CreateGameFunc(ctx, db, game)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.games[game.ID] = *game
	return nil
}

func (f *FakeGameRepo) GetGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) (*gamedb.Game, error) {
	f.record("GetGame")
	f.mu.Lock()
	defer f.mu.Unlock()
	game, ok := f.games[gameID]
	if !ok {
		return nil, gamedb.ErrNotFound
	}
	return &game, nil
}

func (f *FakeGameRepo) UpdateGame(ctx context.Context, db bun.IDB, game *gamedb.Game) error {
	f.record("UpdateGame")
	if f.UpdateGameFunc != nil {
		return f.UpdateGameFunc(ctx, db, game)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.games[game.ID]; !ok {
		return gamedb.ErrNoRowsAffected
	}
	f.games[game.ID] = *game
	return nil
}

func (f *FakeGameRepo) InsertGamePrompts(ctx context.Context, db bun.IDB, prompts []gamedb.GamePrompt) error {
	f.record("InsertGamePrompts")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gamePrompts = append(f.gamePrompts, prompts...)
	return nil
}

func (f *FakeGameRepo) withPrompt(gp gamedb.GamePrompt) *gamedb.GamePrompt {
	for _, p := range f.prompts {
		if p.ID == gp.PromptID {
			gp.Prompt = &p
		}
	}
	return &gp
}

func (f *FakeGameRepo) GetGamePrompt(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (*gamedb.GamePrompt, error) {
	f.record("GetGamePrompt")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, gp := range f.gamePrompts {
		if gp.ID == gamePromptID {
			return f.withPrompt(gp), nil
		}
	}
	return nil, gamedb.ErrNotFound
}

func (f *FakeGameRepo) GetGamePromptByOrder(ctx context.Context, db bun.IDB, gameID uuid.UUID, order int) (*gamedb.GamePrompt, error) {
	f.record("GetGamePromptByOrder")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, gp := range f.gamePrompts {
		if gp.GameID == gameID && gp.Order == order {
			return f.withPrompt(gp), nil
		}
	}
	return nil, gamedb.ErrNotFound
}

func (f *FakeGameRepo) ListGamePrompts(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]gamedb.GamePrompt, error) {
	f.record("ListGamePrompts")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gamedb.GamePrompt
	for _, gp := range f.gamePrompts {
		if gp.GameID == gameID {
			out = append(out, *f.withPrompt(gp))
		}
	}
	slices.SortFunc(out, func(a, b gamedb.GamePrompt) int { return a.Order - b.Order })
	return out, nil
}

func (f *FakeGameRepo) InsertAnswer(ctx context.Context, db bun.IDB, answer *gamedb.Answer) (bool, error) {
	f.record("InsertAnswer")
	if f.InsertAnswerFunc != nil {
		return f.InsertAnswerFunc(ctx, db, answer)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.answers {
		if a.UserID == answer.UserID && a.GamePromptID == answer.GamePromptID {
			return false, nil
		}
		if answer.Won && a.Won && a.GamePromptID == answer.GamePromptID {
			return false, gamedb.ErrUniqueViolation
		}
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now()
	}
	f.answers = append(f.answers, *answer)
	return true, nil
}

func (f *FakeGameRepo) CountAnswers(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (int, error) {
	f.record("CountAnswers")
	f.mu.Lock()
	defer f.mu.Unlock()
	count := 0
	for _, a := range f.answers {
		if a.GamePromptID == gamePromptID && !a.Placeholder {
			count++
		}
	}
	return count, nil
}

func (f *FakeGameRepo) GetAnswer(ctx context.Context, db bun.IDB, answerID uuid.UUID) (*gamedb.Answer, error) {
	f.record("GetAnswer")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.answers {
		if a.ID == answerID {
			return &a, nil
		}
	}
	return nil, gamedb.ErrNotFound
}

func (f *FakeGameRepo) ListAnswersByGamePrompt(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) ([]gamedb.Answer, error) {
	f.record("ListAnswersByGamePrompt")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gamedb.Answer
	for _, a := range f.answers {
		if a.GamePromptID == gamePromptID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *FakeGameRepo) ListAnswersByGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]gamedb.Answer, error) {
	f.record("ListAnswersByGame")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gamedb.Answer
	for _, a := range f.answers {
		if a.GameID == gameID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *FakeGameRepo) GetWinningAnswer(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (*gamedb.Answer, error) {
	f.record("GetWinningAnswer")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.answers {
		if a.GamePromptID == gamePromptID && a.Won {
			return &a, nil
		}
	}
	return nil, gamedb.ErrNotFound
}

func (f *FakeGameRepo) MarkAnswerWon(ctx context.Context, db bun.IDB, answerID uuid.UUID) error {
	f.record("MarkAnswerWon")
	if f.MarkAnswerWonFunc != nil {
		return f.MarkAnswerWonFunc(ctx, db, answerID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := slices.IndexFunc(f.answers, func(a gamedb.Answer) bool { return a.ID == answerID })
	if idx < 0 {
		return gamedb.ErrNoRowsAffected
	}
	for _, a := range f.answers {
		if a.GamePromptID == f.answers[idx].GamePromptID && a.Won {
			return gamedb.ErrNoRowsAffected
		}
	}
	f.answers[idx].Won = true
	return nil
}

func (f *FakeGameRepo) SetSmoothedText(ctx context.Context, db bun.IDB, answerID uuid.UUID, text string) error {
	f.record("SetSmoothedText")
	if f.SetSmoothedTextFunc != nil {
		return f.SetSmoothedTextFunc(ctx, db, answerID, text)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.answers {
		if f.answers[i].ID == answerID {
			f.answers[i].SmoothedText = &text
		}
	}
	return nil
}

func (f *FakeGameRepo) LockSubmitter(ctx context.Context, db bun.IDB, userID, gamePromptID uuid.UUID) error {
	f.record("LockSubmitter")
	return nil
}

func (f *FakeGameRepo) ListUserVotesForUpdate(ctx context.Context, db bun.IDB, userID, gamePromptID uuid.UUID, voteType gamedomain.VoteType) ([]gamedb.Vote, error) {
	f.record("ListUserVotesForUpdate")
	if f.ListUserVotesForUpdateFunc != nil {
		return f.ListUserVotesForUpdateFunc(ctx, db, userID, gamePromptID, voteType)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gamedb.Vote
	for _, v := range f.votes {
		if v.UserID == userID && v.GamePromptID == gamePromptID && v.VoteType == voteType {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *FakeGameRepo) InsertVoteIfAbsent(ctx context.Context, db bun.IDB, vote *gamedb.Vote) (bool, error) {
	f.record("InsertVoteIfAbsent")
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.votes {
		if v.UserID == vote.UserID && v.GamePromptID == vote.GamePromptID &&
			v.VoteType == gamedomain.VoteTypePlayer && v.Rank == nil {
			return false, nil
		}
	}
	f.votes = append(f.votes, *vote)
	return true, nil
}

func (f *FakeGameRepo) InsertVotes(ctx context.Context, db bun.IDB, votes []gamedb.Vote) error {
	f.record("InsertVotes")
	if f.InsertVotesFunc != nil {
		return f.InsertVotesFunc(ctx, db, votes)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, nv := range votes {
		if nv.VoteType != gamedomain.VoteTypePlayer || nv.Rank == nil {
			continue
		}
		for _, v := range f.votes {
			if v.VoteType == gamedomain.VoteTypePlayer && v.Rank != nil && *v.Rank == *nv.Rank &&
				v.UserID == nv.UserID && v.GamePromptID == nv.GamePromptID {
				return gamedb.ErrUniqueViolation
			}
		}
	}
	f.votes = append(f.votes, votes...)
	return nil
}

func (f *FakeGameRepo) CountVoters(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (int, error) {
	f.record("CountVoters")
	f.mu.Lock()
	defer f.mu.Unlock()
	voters := map[uuid.UUID]struct{}{}
	for _, v := range f.votes {
		if v.GamePromptID == gamePromptID && v.VoteType == gamedomain.VoteTypePlayer {
			voters[v.UserID] = struct{}{}
		}
	}
	return len(voters), nil
}

func (f *FakeGameRepo) ListVotesByGamePrompt(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) ([]gamedb.Vote, error) {
	f.record("ListVotesByGamePrompt")
	if f.ListVotesByGamePromptFunc != nil {
		return f.ListVotesByGamePromptFunc(ctx, db, gamePromptID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gamedb.Vote
	for _, v := range f.votes {
		if v.GamePromptID == gamePromptID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *FakeGameRepo) ListVotesByGame(ctx context.Context, db bun.IDB, gameID uuid.UUID) ([]gamedb.Vote, error) {
	f.record("ListVotesByGame")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []gamedb.Vote
	for _, v := range f.votes {
		if v.GameID == gameID {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- Accessors for assertions ---

func (f *FakeGameRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeGameRepo) Room(id uuid.UUID) gamedb.Room {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rooms[id]
}

func (f *FakeGameRepo) Game(id uuid.UUID) gamedb.Game {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.games[id]
}

func (f *FakeGameRepo) GameCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.games)
}

func (f *FakeGameRepo) Rounds() []gamedb.GamePrompt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.gamePrompts)
}

func (f *FakeGameRepo) Answers() []gamedb.Answer {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.answers)
}

func (f *FakeGameRepo) Votes() []gamedb.Vote {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.votes)
}

// Ensure the fake actually satisfies the interface
var _ gamedb.Repository = (*FakeGameRepo)(nil)

// ------------------------
// Fake Scheduler
// ------------------------

type scheduledJob struct {
	ID       string
	At       time.Time
	Deadline PhaseDeadline
}

type FakeScheduler struct {
	mu        sync.Mutex
	scheduled []scheduledJob
	cancelled []string
	next      int

	ScheduleFunc func(ctx context.Context, at time.Time, deadline PhaseDeadline) (string, error)
	CancelFunc   func(ctx context.Context, jobID string) error
}

func (f *FakeScheduler) Schedule(ctx context.Context, at time.Time, deadline PhaseDeadline) (string, error) {
	if f.ScheduleFunc != nil {
		return f.ScheduleFunc(ctx, at, deadline)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.next++
	id := fmt.Sprintf("job-%d", f.next)
	f.scheduled = append(f.scheduled, scheduledJob{ID: id, At: at, Deadline: deadline})
	return id, nil
}

func (f *FakeScheduler) Cancel(ctx context.Context, jobID string) error {
	f.mu.Lock()
	f.cancelled = append(f.cancelled, jobID)
	f.mu.Unlock()
	if f.CancelFunc != nil {
		return f.CancelFunc(ctx, jobID)
	}
	return nil
}

func (f *FakeScheduler) Scheduled() []scheduledJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.scheduled)
}

func (f *FakeScheduler) Cancelled() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.cancelled)
}

var _ Scheduler = (*FakeScheduler)(nil)

// ------------------------
// Fake Notifier
// ------------------------

type FakeNotifier struct {
	mu     sync.Mutex
	events []RoomEvent

	NotifyFunc func(ctx context.Context, roomID uuid.UUID, event RoomEvent) error
}

func (f *FakeNotifier) Notify(ctx context.Context, roomID uuid.UUID, event RoomEvent) error {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	if f.NotifyFunc != nil {
		return f.NotifyFunc(ctx, roomID, event)
	}
	return nil
}

func (f *FakeNotifier) Types() []EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]EventType, len(f.events))
	for i, e := range f.events {
		out[i] = e.Type
	}
	return out
}

var _ Notifier = (*FakeNotifier)(nil)

// ------------------------
// Fake predicates and smoother
// ------------------------

type fakeSlurs struct{ banned string }

func (f fakeSlurs) Contains(text string) bool { return f.banned != "" && text == f.banned }

type FakeSmoother struct {
	SmoothFunc func(ctx context.Context, text string) (string, error)
}

func (f *FakeSmoother) Smooth(ctx context.Context, text string) (string, error) {
	if f.SmoothFunc != nil {
		return f.SmoothFunc(ctx, text)
	}
	return text, nil
}

var _ TextSmoother = (*FakeSmoother)(nil)

// scriptedChooser returns picks in order, then 0.
type scriptedChooser struct {
	mu    sync.Mutex
	picks []int
}

func (c *scriptedChooser) Choose(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.picks) == 0 {
		return 0
	}
	p := c.picks[0]
	c.picks = c.picks[1:]
	return p % n
}

var _ gamedomain.Chooser = (*scriptedChooser)(nil)
