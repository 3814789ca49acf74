package gamedomain

import (
	"fmt"

	"github.com/google/uuid"
)

// VotingStyle is the Room-level scoring rule set.
type VotingStyle string

const (
	VotingStyleVoteOnce       VotingStyle = "vote_once"
	VotingStyleRankedTopThree VotingStyle = "ranked_top_3"
)

// VoteType separates scoring player votes from audience star votes.
type VoteType string

const (
	VoteTypePlayer   VoteType = "player"
	VoteTypeAudience VoteType = "audience"
)

// VotingStrategy maps a single player vote to points.
type VotingStrategy interface {
	Style() VotingStyle
	// Points returns the value of a vote with the given rank. A nil rank uses
	// the style's own default.
	Points(rank *int) int
	// MaxRanks is the number of rank slots a ballot may fill.
	MaxRanks() int
}

// VoteOnce awards a flat point per vote.
type VoteOnce struct{}

func (VoteOnce) Style() VotingStyle { return VotingStyleVoteOnce }
func (VoteOnce) Points(*int) int { return 1 }
func (VoteOnce) MaxRanks() int { return 1 }

// RankedTopThree awards 30/20/10 for ranks 1/2/3 and nothing otherwise.
type RankedTopThree struct{}

var rankedPoints = map[int]int{1: 30, 2: 20, 3: 10}

func (RankedTopThree) Style() VotingStyle { return VotingStyleRankedTopThree }

func (RankedTopThree) Points(rank *int) int {
	if rank == nil {
		return 0
	}
	return rankedPoints[*rank]
}

func (RankedTopThree) MaxRanks() int { return 3 }

// StrategyFor returns the strategy for style.
func StrategyFor(style VotingStyle) (VotingStrategy, error) {
	switch style {
	case VotingStyleVoteOnce:
		return VoteOnce{}, nil
	case VotingStyleRankedTopThree:
		return RankedTopThree{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownVotingStyle, style)
	}
}

// ScoredVote is the minimal projection of a Vote needed for scoring.
type ScoredVote struct {
	AnswerID uuid.UUID
	Rank     *int
	Type     VoteType
}

// TallyPoints sums player-vote points per answer. Audience votes are skipped.
func TallyPoints(strategy VotingStrategy, votes []ScoredVote) map[uuid.UUID]int {
	totals := make(map[uuid.UUID]int)
	for _, v := range votes {
		if v.Type == VoteTypeAudience {
			continue
		}
		totals[v.AnswerID] += strategy.Points(v.Rank)
	}
	return totals
}

// CountAudience counts audience votes per answer.
func CountAudience(votes []ScoredVote) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for _, v := range votes {
		if v.Type == VoteTypeAudience {
			counts[v.AnswerID]++
		}
	}
	return counts
}
