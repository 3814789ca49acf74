package gamedomain

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStarBallot(t *testing.T) {
	a1, a2 := uuid.New(), uuid.New()
	a1Upper := strings.ToUpper(a1.String())

	tests := []struct {
		name      string
		raw       map[string]string
		wantTotal int
		wantStars map[uuid.UUID]int
		wantErr   bool
	}{
		{
			name:      "split across two answers",
			raw:       map[string]string{a1.String(): "3", a2.String(): "2"},
			wantTotal: 5,
			wantStars: map[uuid.UUID]int{a1: 3, a2: 2},
		},
		{
			name:      "oversized count clamps to the limit",
			raw:       map[string]string{a1.String(): "999"},
			wantTotal: 5,
			wantStars: map[uuid.UUID]int{a1: 5},
		},
		{
			name:      "negative and blank counts read as zero",
			raw:       map[string]string{a1.String(): "-4", a2.String(): " 1 ", uuid.NewString(): ""},
			wantTotal: 1,
			wantStars: map[uuid.UUID]int{a2: 1},
		},
		{
			name:      "same answer in two spellings merges",
			raw:       map[string]string{a1.String(): "2", a1Upper: "2"},
			wantTotal: 4,
			wantStars: map[uuid.UUID]int{a1: 4},
		},
		{
			name:      "huge counts clamp before merging",
			raw:       map[string]string{a1.String(): "9223372036854775807", a1Upper: "9223372036854775807"},
			wantTotal: 5,
			wantStars: map[uuid.UUID]int{a1: 5},
		},
		{
			name:    "zero total",
			raw:     map[string]string{a1.String(): "0"},
			wantErr: true,
		},
		{
			name:    "empty submission",
			raw:     map[string]string{},
			wantErr: true,
		},
		{
			name:    "aggregate over the limit",
			raw:     map[string]string{a1.String(): "3", a2.String(): "3"},
			wantErr: true,
		},
		{
			name:    "non numeric stars",
			raw:     map[string]string{a1.String(): "lots"},
			wantErr: true,
		},
		{
			name:    "malformed answer id",
			raw:     map[string]string{"answer-1": "2"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ballot, err := ParseStarBallot(tt.raw, 5)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrValidation)
				assert.Nil(t, ballot)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, ballot.Total())

			got := make(map[uuid.UUID]int)
			for _, award := range ballot {
				got[award.AnswerID] = award.Stars
			}
			assert.Equal(t, tt.wantStars, got)
			assert.Len(t, ballot.AnswerIDs(), len(tt.wantStars))
		})
	}
}

func TestNormalizeStarsDefaultsLimit(t *testing.T) {
	a1 := uuid.New()
	ballot, err := NormalizeStars(map[uuid.UUID]int{a1: 50}, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxStars, ballot.Total())
}

func TestValidationErrorMessage(t *testing.T) {
	err := Invalid("stars", "no stars awarded")
	assert.EqualError(t, err, "validation failed: stars: no stars awarded")
	assert.EqualError(t, Invalid("", "bad"), "validation failed: bad")
}
