package gamedomain

import (
	"cmp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PodiumSize is the number of users shown on the credits podium.
const PodiumSize = 3

// ProfanityPredicate reports whether a single word is profane.
type ProfanityPredicate interface {
	Matches(word string) bool
}

// Dictionary reports whether a lower-cased word is spelled correctly.
type Dictionary interface {
	Knows(word string) bool
}

// CreditsAnswer is the projection of an Answer the credits pass reads.
type CreditsAnswer struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	GamePromptID uuid.UUID
	Text         string
	SubmittedAt  time.Time
}

// UserScore is an integer superlative value for one user.
type UserScore struct {
	UserID uuid.UUID `json:"user_id"`
	Value  int       `json:"value"`
}

// UserRatio is a fractional superlative value for one user.
type UserRatio struct {
	UserID uuid.UUID `json:"user_id"`
	Value  float64   `json:"value"`
}

// Credits is the end-of-game superlative summary. Any field is nil when no
// user qualifies for it.
type Credits struct {
	Podium           []UserScore `json:"podium"`
	Profanity        *UserScore  `json:"profanity"`
	Prolific         *UserScore  `json:"prolific"`
	Efficiency       *UserRatio  `json:"efficiency"`
	Spelling         *UserScore  `json:"spelling"`
	Pace             *UserRatio  `json:"pace"`
	AudienceFavorite *UserScore  `json:"audience_favorite"`
}

// Aggregator computes Credits from a game's full submission history.
type Aggregator struct {
	Strategy   VotingStrategy
	Profanity  ProfanityPredicate
	Dictionary Dictionary
}

// Aggregate runs every superlative over answers and votes. Votes referencing
// answers outside the slice are ignored.
func (a Aggregator) Aggregate(answers []CreditsAnswer, votes []ScoredVote) Credits {
	strategy := a.Strategy
	if strategy == nil {
		strategy = VoteOnce{}
	}

	authors := make(map[uuid.UUID]uuid.UUID, len(answers))
	for _, ans := range answers {
		authors[ans.ID] = ans.UserID
	}

	points := make(map[uuid.UUID]int)
	for answerID, p := range TallyPoints(strategy, votes) {
		if user, ok := authors[answerID]; ok {
			points[user] += p
		}
	}

	audience := make(map[uuid.UUID]int)
	for answerID, n := range CountAudience(votes) {
		if user, ok := authors[answerID]; ok {
			audience[user] += n
		}
	}

	chars := make(map[uuid.UUID]int)
	profane := make(map[uuid.UUID]int)
	misspelled := make(map[uuid.UUID]int)
	for _, ans := range answers {
		chars[ans.UserID] += CharCount(ans.Text)
		for _, word := range Words(ans.Text) {
			lower := strings.ToLower(word)
			if a.Profanity != nil && a.Profanity.Matches(lower) {
				profane[ans.UserID]++
			}
			if a.Dictionary != nil && isMisspelled(word, lower, a.Dictionary) {
				misspelled[ans.UserID]++
			}
		}
	}

	efficiency := make(map[uuid.UUID]float64)
	for user, p := range points {
		if p > 0 && chars[user] > 0 {
			efficiency[user] = float64(p) / float64(chars[user])
		}
	}

	credits := Credits{
		Podium:           podium(points),
		Prolific:         topScore(chars),
		Efficiency:       topRatio(efficiency),
		Pace:             topRatio(pace(answers)),
		AudienceFavorite: topScore(audience),
	}
	if a.Profanity != nil {
		credits.Profanity = topScore(profane)
	}
	if a.Dictionary != nil {
		credits.Spelling = topScore(misspelled)
	}
	return credits
}

func isMisspelled(word, lower string, dict Dictionary) bool {
	if CharCount(word) <= 2 || IsAllCaps(word) || !hasLetter(word) {
		return false
	}
	return !dict.Knows(lower)
}

func podium(points map[uuid.UUID]int) []UserScore {
	var ranked []UserScore
	for user, p := range points {
		if p > 0 {
			ranked = append(ranked, UserScore{UserID: user, Value: p})
		}
	}
	slices.SortFunc(ranked, func(x, y UserScore) int {
		if c := cmp.Compare(y.Value, x.Value); c != 0 {
			return c
		}
		return cmp.Compare(x.UserID.String(), y.UserID.String())
	})
	if len(ranked) > PodiumSize {
		ranked = ranked[:PodiumSize]
	}
	return ranked
}

// topScore returns the user with the highest positive value, lowest id on ties.
func topScore(values map[uuid.UUID]int) *UserScore {
	var best *UserScore
	for user, v := range values {
		if v <= 0 {
			continue
		}
		if best == nil || v > best.Value || (v == best.Value && user.String() < best.UserID.String()) {
			best = &UserScore{UserID: user, Value: v}
		}
	}
	return best
}

func topRatio(values map[uuid.UUID]float64) *UserRatio {
	var best *UserRatio
	for user, v := range values {
		if best == nil || v > best.Value || (v == best.Value && user.String() < best.UserID.String()) {
			best = &UserRatio{UserID: user, Value: v}
		}
	}
	return best
}

// pace averages, per user, the percentile of each submission among its
// round's submissions. The earliest scores 0, the latest 100 and a lone
// submission 50.
func pace(answers []CreditsAnswer) map[uuid.UUID]float64 {
	rounds := make(map[uuid.UUID][]CreditsAnswer)
	for _, ans := range answers {
		rounds[ans.GamePromptID] = append(rounds[ans.GamePromptID], ans)
	}

	sums := make(map[uuid.UUID]float64)
	counts := make(map[uuid.UUID]int)
	for _, round := range rounds {
		slices.SortFunc(round, func(x, y CreditsAnswer) int {
			if c := x.SubmittedAt.Compare(y.SubmittedAt); c != 0 {
				return c
			}
			return cmp.Compare(x.UserID.String(), y.UserID.String())
		})
		n := len(round)
		for i, ans := range round {
			percentile := 50.0
			if n > 1 {
				percentile = 100 * float64(i) / float64(n-1)
			}
			sums[ans.UserID] += percentile
			counts[ans.UserID]++
		}
	}

	averages := make(map[uuid.UUID]float64, len(sums))
	for user, sum := range sums {
		averages[user] = sum / float64(counts[user])
	}
	return averages
}
