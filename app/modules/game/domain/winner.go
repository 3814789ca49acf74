package gamedomain

import (
	"github.com/google/uuid"
)

// DefaultAnswerText is the placeholder used when a round ends without answers.
const DefaultAnswerText = "Nobody answered this one."

// PickWinner selects the round winner among answerIDs from their player-vote
// point totals. The highest positive total wins with ties chosen uniformly;
// without any points the winner is chosen uniformly among all answers.
// ok is false only when there are no answers.
func PickWinner(answerIDs []uuid.UUID, points map[uuid.UUID]int, chooser Chooser) (uuid.UUID, bool) {
	if len(answerIDs) == 0 {
		return uuid.Nil, false
	}

	best := 0
	var leaders []uuid.UUID
	for _, id := range answerIDs {
		p := points[id]
		switch {
		case p <= 0:
			continue
		case p > best:
			best = p
			leaders = []uuid.UUID{id}
		case p == best:
			leaders = append(leaders, id)
		}
	}

	if len(leaders) > 0 {
		return ChooseFrom(chooser, leaders)
	}
	return ChooseFrom(chooser, answerIDs)
}
