package gamedomain

import (
	"math/rand/v2"
	"sync"
)

// Chooser picks an index uniformly from [0, n). Callers never pass n < 1.
type Chooser interface {
	Choose(n int) int
}

type randChooser struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomChooser returns a Chooser seeded from the runtime's entropy.
func NewRandomChooser() Chooser {
	return &randChooser{rng: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

// NewSeededChooser returns a deterministic Chooser for tests and replays.
func NewSeededChooser(seed uint64) Chooser {
	return &randChooser{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (c *randChooser) Choose(n int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rng.IntN(n)
}

// ChooseFrom returns a uniformly chosen member of set. ok is false when set
// is empty.
func ChooseFrom[T any](c Chooser, set []T) (chosen T, ok bool) {
	if len(set) == 0 {
		return chosen, false
	}
	if len(set) == 1 {
		return set[0], true
	}
	return set[c.Choose(len(set))], true
}
