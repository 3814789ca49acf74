package gamedomain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequencePrompts(t *testing.T) {
	b1, b2, b3 := uuid.New(), uuid.New(), uuid.New()
	p1, p2, p3 := uuid.New(), uuid.New(), uuid.New()

	t.Run("orders follow blank order and never reuse a prompt", func(t *testing.T) {
		blanks := []BlankSlot{{ID: b1, Tag: "noun"}, {ID: b2, Tag: "noun"}, {ID: b3, Tag: "verb"}}
		pool := map[string][]uuid.UUID{
			"noun": {p1, p2},
			"verb": {p3},
		}

		chooser := &scriptedChooser{picks: []int{0, 0, 0}}
		seq, err := SequencePrompts(blanks, pool, chooser)
		require.NoError(t, err)
		require.Len(t, seq, 3)

		assert.Equal(t, SequencedPrompt{BlankID: b1, PromptID: p1, Order: 0}, seq[0])
		assert.Equal(t, SequencedPrompt{BlankID: b2, PromptID: p2, Order: 1}, seq[1])
		assert.Equal(t, SequencedPrompt{BlankID: b3, PromptID: p3, Order: 2}, seq[2])
		// The second noun blank only sees the prompt the first one left behind.
		assert.Equal(t, []int{2}, chooser.sizes)
	})

	t.Run("exhausted pool fails the whole sequence", func(t *testing.T) {
		blanks := []BlankSlot{{ID: b1, Tag: "noun"}, {ID: b2, Tag: "noun"}}
		pool := map[string][]uuid.UUID{"noun": {p1}}

		seq, err := SequencePrompts(blanks, pool, NewSeededChooser(1))
		assert.ErrorIs(t, err, ErrExhaustedPromptPool)
		assert.Nil(t, seq)
	})

	t.Run("tag with no prompts", func(t *testing.T) {
		blanks := []BlankSlot{{ID: b1, Tag: "adjective"}}
		_, err := SequencePrompts(blanks, map[string][]uuid.UUID{}, NewSeededChooser(1))
		assert.ErrorIs(t, err, ErrExhaustedPromptPool)
	})

	t.Run("story without blanks is a validation error", func(t *testing.T) {
		_, err := SequencePrompts(nil, nil, NewSeededChooser(1))
		assert.ErrorIs(t, err, ErrValidation)
	})
}
