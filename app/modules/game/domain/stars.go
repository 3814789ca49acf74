package gamedomain

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultMaxStars is the audience star budget per round when unconfigured.
const DefaultMaxStars = 5

// StarAward is a validated, clamped star count for one answer.
type StarAward struct {
	AnswerID uuid.UUID
	Stars    int
}

// StarBallot is a validated audience submission. Zero-star entries are
// dropped and entries are ordered by answer id.
type StarBallot []StarAward

// Total returns the number of stars awarded across the ballot.
func (b StarBallot) Total() int {
	total := 0
	for _, a := range b {
		total += a.Stars
	}
	return total
}

// AnswerIDs lists the answers that received at least one star.
func (b StarBallot) AnswerIDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(b))
	for i, a := range b {
		ids[i] = a.AnswerID
	}
	return ids
}

// ParseStarBallot validates a loosely typed {answer_id: count} form mapping.
// Blank counts read as zero. Each count is clamped before keys naming the same
// answer are merged.
func ParseStarBallot(raw map[string]string, maxStars int) (StarBallot, error) {
	if maxStars <= 0 {
		maxStars = DefaultMaxStars
	}
	typed := make(map[uuid.UUID]int, len(raw))
	for key, value := range raw {
		answerID, err := uuid.Parse(strings.TrimSpace(key))
		if err != nil {
			return nil, Invalid("answer_id", fmt.Sprintf("%q is not an answer id", key))
		}

		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		stars, err := strconv.Atoi(value)
		if err != nil {
			return nil, Invalid("stars", fmt.Sprintf("%q is not a number", value))
		}
		typed[answerID] += clampStars(stars, maxStars)
	}
	return NormalizeStars(typed, maxStars)
}

// NormalizeStars clamps every count to [0, maxStars] and requires the clamped
// total to fall in (0, maxStars].
func NormalizeStars(counts map[uuid.UUID]int, maxStars int) (StarBallot, error) {
	if maxStars <= 0 {
		maxStars = DefaultMaxStars
	}

	ballot := make(StarBallot, 0, len(counts))
	for answerID, stars := range counts {
		stars = clampStars(stars, maxStars)
		if stars == 0 {
			continue
		}
		ballot = append(ballot, StarAward{AnswerID: answerID, Stars: stars})
	}
	sort.Slice(ballot, func(i, j int) bool {
		return ballot[i].AnswerID.String() < ballot[j].AnswerID.String()
	})

	total := ballot.Total()
	if total == 0 {
		return nil, Invalid("stars", "no stars awarded")
	}
	if total > maxStars {
		return nil, Invalid("stars", fmt.Sprintf("%d stars exceeds the limit of %d", total, maxStars))
	}
	return ballot, nil
}

func clampStars(stars, maxStars int) int {
	return min(max(stars, 0), maxStars)
}
