package gamedomain

import (
	"fmt"

	"github.com/google/uuid"
)

// BlankSlot is a Story blank awaiting a prompt.
type BlankSlot struct {
	ID  uuid.UUID
	Tag string
}

// SequencedPrompt binds a blank to a prompt at a round position.
type SequencedPrompt struct {
	BlankID  uuid.UUID
	PromptID uuid.UUID
	Order    int
}

// SequencePrompts binds each blank, in the given order, to a random prompt
// from pool[blank.Tag] not already used by an earlier blank. It fails as a
// whole if any blank is left without a candidate.
func SequencePrompts(blanks []BlankSlot, pool map[string][]uuid.UUID, chooser Chooser) ([]SequencedPrompt, error) {
	if len(blanks) == 0 {
		return nil, Invalid("story", "empty prompt pool")
	}

	used := make(map[uuid.UUID]struct{}, len(blanks))
	sequence := make([]SequencedPrompt, 0, len(blanks))

	for i, blank := range blanks {
		candidates := make([]uuid.UUID, 0, len(pool[blank.Tag]))
		for _, promptID := range pool[blank.Tag] {
			if _, taken := used[promptID]; !taken {
				candidates = append(candidates, promptID)
			}
		}

		promptID, ok := ChooseFrom(chooser, candidates)
		if !ok {
			return nil, fmt.Errorf("%w: blank %s (tag %q)", ErrExhaustedPromptPool, blank.ID, blank.Tag)
		}

		used[promptID] = struct{}{}
		sequence = append(sequence, SequencedPrompt{
			BlankID:  blank.ID,
			PromptID: promptID,
			Order:    i,
		})
	}

	return sequence, nil
}
