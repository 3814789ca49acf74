package testutils

import (
	"context"
	"fmt"
	"strings"
	"time"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	gamedb "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories"
	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// TestDataGenerator provides methods to create test data for integration tests
type TestDataGenerator struct {
	faker *gofakeit.Faker
	seed  int64
}

// NewTestDataGenerator creates a new test data generator with optional seed
func NewTestDataGenerator(seed ...int64) *TestDataGenerator {
	var s int64
	if len(seed) > 0 {
		s = seed[0]
	} else {
		s = time.Now().UnixNano()
	}

	return &TestDataGenerator{
		faker: gofakeit.New(uint64(s)),
		seed:  s,
	}
}

// Seed returns the seed, for reproducing a failing run.
func (g *TestDataGenerator) Seed() int64 { return g.seed }

// RoomOptions shapes a seeded room. Zero values take small defaults.
type RoomOptions struct {
	Players         int
	Audience        int
	Style           gamedomain.VotingStyle
	AudienceEnabled bool
	Blanks          int
	PromptsPerBlank int
	AnswerSeconds   int
	VoteSeconds     int
}

// SeededRoom is a room with its members and a playable story.
type SeededRoom struct {
	Room     gamedb.Room
	Players  []uuid.UUID
	Audience []uuid.UUID
	Story    gamedb.Story
	Blanks   []gamedb.Blank
	Prompts  []gamedb.Prompt
}

// Creator is the first player.
func (s *SeededRoom) Creator() uuid.UUID { return s.Players[0] }

// SeedRoom inserts a room in the waiting room, its members and a story whose
// blanks each have PromptsPerBlank prompts.
func (g *TestDataGenerator) SeedRoom(ctx context.Context, db bun.IDB, opts RoomOptions) (*SeededRoom, error) {
	if opts.Players == 0 {
		opts.Players = 3
	}
	if opts.Style == "" {
		opts.Style = gamedomain.VotingStyleVoteOnce
	}
	if opts.Blanks == 0 {
		opts.Blanks = 1
	}
	if opts.PromptsPerBlank == 0 {
		opts.PromptsPerBlank = 2
	}
	if opts.AnswerSeconds == 0 {
		opts.AnswerSeconds = 300
	}
	if opts.VoteSeconds == 0 {
		opts.VoteSeconds = 300
	}

	seeded := &SeededRoom{}
	for range opts.Players {
		seeded.Players = append(seeded.Players, uuid.New())
	}
	for range opts.Audience {
		seeded.Audience = append(seeded.Audience, uuid.New())
	}

	seeded.Room = gamedb.Room{
		ID:              uuid.New(),
		Code:            strings.ToUpper(g.faker.LetterN(6)),
		CreatorID:       seeded.Players[0],
		Phase:           gamedomain.PhaseWaitingRoom,
		VotingStyle:     opts.Style,
		AnswerSeconds:   opts.AnswerSeconds,
		VoteSeconds:     opts.VoteSeconds,
		AudienceEnabled: opts.AudienceEnabled,
	}
	if _, err := db.NewInsert().Model(&seeded.Room).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert room: %w", err)
	}

	members := make([]gamedb.RoomMember, 0, opts.Players+opts.Audience)
	for _, id := range seeded.Players {
		members = append(members, gamedb.RoomMember{RoomID: seeded.Room.ID, UserID: id, Role: gamedb.MemberRolePlayer})
	}
	for _, id := range seeded.Audience {
		members = append(members, gamedb.RoomMember{RoomID: seeded.Room.ID, UserID: id, Role: gamedb.MemberRoleAudience})
	}
	if _, err := db.NewInsert().Model(&members).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert members: %w", err)
	}

	seeded.Story = gamedb.Story{ID: uuid.New(), Title: fmt.Sprintf("The %s %s", g.faker.Adjective(), g.faker.Noun())}
	if _, err := db.NewInsert().Model(&seeded.Story).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert story: %w", err)
	}

	for i := range opts.Blanks {
		tag := fmt.Sprintf("%s-%d", g.faker.Noun(), i)
		seeded.Blanks = append(seeded.Blanks, gamedb.Blank{ID: uuid.New(), StoryID: seeded.Story.ID, Position: i, Tag: tag})
		for range opts.PromptsPerBlank {
			seeded.Prompts = append(seeded.Prompts, gamedb.Prompt{ID: uuid.New(), Tag: tag, Text: g.prompt()})
		}
	}
	if _, err := db.NewInsert().Model(&seeded.Blanks).Exec(ctx); err != nil {
		return nil, fmt.Errorf("failed to insert blanks: %w", err)
	}
	if len(seeded.Prompts) > 0 {
		if _, err := db.NewInsert().Model(&seeded.Prompts).Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to insert prompts: %w", err)
		}
	}

	return seeded, nil
}

func (g *TestDataGenerator) prompt() string {
	return fmt.Sprintf("Name the most %s %s.", g.faker.Adjective(), g.faker.Noun())
}

// Answer returns a short, clean answer text.
func (g *TestDataGenerator) Answer() string {
	return g.faker.Adjective() + " " + g.faker.Noun()
}
