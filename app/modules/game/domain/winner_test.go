package gamedomain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestPickWinner(t *testing.T) {
	a1, a2, a3 := uuid.New(), uuid.New(), uuid.New()
	all := []uuid.UUID{a1, a2, a3}

	tests := []struct {
		name      string
		answers   []uuid.UUID
		points    map[uuid.UUID]int
		picks     []int
		wantIn    []uuid.UUID
		wantSizes []int
		wantOK    bool
	}{
		{
			name:    "single leader needs no choice",
			answers: all,
			points:  map[uuid.UUID]int{a1: 1, a2: 3, a3: 2},
			wantIn:  []uuid.UUID{a2},
			wantOK:  true,
		},
		{
			name:      "tie is chosen among leaders only",
			answers:   all,
			points:    map[uuid.UUID]int{a1: 30, a2: 30, a3: 10},
			picks:     []int{1},
			wantIn:    []uuid.UUID{a1, a2},
			wantSizes: []int{2},
			wantOK:    true,
		},
		{
			name:      "no points chooses among every answer",
			answers:   all,
			points:    map[uuid.UUID]int{},
			picks:     []int{2},
			wantIn:    all,
			wantSizes: []int{3},
			wantOK:    true,
		},
		{
			name:      "zero totals are not points",
			answers:   all,
			points:    map[uuid.UUID]int{a1: 0, a2: 0},
			wantIn:    all,
			wantSizes: []int{3},
			wantOK:    true,
		},
		{
			name:    "no answers",
			answers: nil,
			points:  map[uuid.UUID]int{},
			wantOK:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chooser := &scriptedChooser{picks: tt.picks}
			winner, ok := PickWinner(tt.answers, tt.points, chooser)

			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Equal(t, uuid.Nil, winner)
				return
			}
			assert.Contains(t, tt.wantIn, winner)
			assert.Equal(t, tt.wantSizes, chooser.sizes)
		})
	}
}

func TestPickWinnerSeededChooserStaysInTiedSet(t *testing.T) {
	a1, a2, a3 := uuid.New(), uuid.New(), uuid.New()
	points := map[uuid.UUID]int{a1: 20, a2: 20, a3: 5}

	seen := map[uuid.UUID]bool{}
	chooser := NewSeededChooser(7)
	for range 200 {
		winner, ok := PickWinner([]uuid.UUID{a1, a2, a3}, points, chooser)
		assert.True(t, ok)
		assert.NotEqual(t, a3, winner)
		seen[winner] = true
	}
	assert.Len(t, seen, 2, "both tied answers should win at least once")
}

func TestSeededChooserIsDeterministic(t *testing.T) {
	first, second := NewSeededChooser(42), NewSeededChooser(42)
	for range 20 {
		assert.Equal(t, first.Choose(10), second.Choose(10))
	}

	got, ok := ChooseFrom(NewRandomChooser(), []string{"only"})
	assert.True(t, ok)
	assert.Equal(t, "only", got)

	_, ok = ChooseFrom(NewRandomChooser(), []string{})
	assert.False(t, ok)
}
