package gamedomain

// scriptedChooser returns queued indexes and records every set size it saw.
type scriptedChooser struct {
	picks []int
	sizes []int
}

func (c *scriptedChooser) Choose(n int) int {
	c.sizes = append(c.sizes, n)
	if len(c.picks) == 0 {
		return 0
	}
	pick := c.picks[0]
	c.picks = c.picks[1:]
	return pick % n
}

func intPtr(v int) *int { return &v }
