package gameservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	gamedomain "github.com/Black-And-White-Club/party-bot/app/modules/game/domain"
	gamedb "github.com/Black-And-White-Club/party-bot/app/modules/game/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Submission kinds used as metric labels.
const (
	kindAnswer = "answer"
	kindVote   = "vote"
	kindStars  = "stars"

	statusAlreadyCounted = "already_counted"
)

// SubmitAnswer records a player's answer for the current round. A repeat is a
// no-op reported as SubmissionDuplicate. The last expected answer closes the phase.
func (s *GameService) SubmitAnswer(ctx context.Context, roomID, userID uuid.UUID, text string) (*SubmissionOutcome, error) {
	return execute(s, ctx, "SubmitAnswer", roomID.String(), func(ctx context.Context, db bun.IDB, fx *effects) (opResult[*SubmissionOutcome], error) {
		return settle(s.submitAnswerLogic(ctx, db, fx, roomID, userID, text))
	})
}

func (s *GameService) submitAnswerLogic(ctx context.Context, db bun.IDB, fx *effects, roomID, userID uuid.UUID, text string) (*SubmissionOutcome, error) {
	room, err := s.lockRoom(ctx, db, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Phase.AcceptsAnswers() {
		return nil, illegal(kindAnswer, room.Phase, ReasonWrongPhase)
	}
	if err := s.requireRole(ctx, db, room, userID, gamedb.MemberRolePlayer, kindAnswer); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, gamedomain.Invalid("text", "answer is empty")
	}
	if s.ports.Slurs != nil && s.ports.Slurs.Contains(text) {
		return nil, gamedomain.Invalid("text", "answer contains disallowed language")
	}

	game, gamePromptID, err := s.currentRound(ctx, db, room)
	if err != nil {
		return nil, err
	}

	inserted, err := s.repo.InsertAnswer(ctx, db, &gamedb.Answer{
		ID:           uuid.New(),
		GamePromptID: gamePromptID,
		GameID:       game.ID,
		UserID:       userID,
		Text:         text,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, gamedb.ErrUniqueViolation) {
			return nil, ErrConcurrencyConflict
		}
		return nil, fmt.Errorf("failed to insert answer: %w", err)
	}

	submitted, err := s.repo.CountAnswers(ctx, db, gamePromptID)
	if err != nil {
		return nil, fmt.Errorf("failed to count answers: %w", err)
	}
	return s.completeSubmission(ctx, db, fx, room, kindAnswer, inserted, submitted, gamedomain.TriggerAnswersComplete)
}

// SubmitVote records a player's vote for the current round under the room's
// voting style.
func (s *GameService) SubmitVote(ctx context.Context, roomID, userID uuid.UUID, ranked []uuid.UUID) (*SubmissionOutcome, error) {
	return execute(s, ctx, "SubmitVote", roomID.String(), func(ctx context.Context, db bun.IDB, fx *effects) (opResult[*SubmissionOutcome], error) {
		return settle(s.submitVoteLogic(ctx, db, fx, roomID, userID, ranked))
	})
}

func (s *GameService) submitVoteLogic(ctx context.Context, db bun.IDB, fx *effects, roomID, userID uuid.UUID, ranked []uuid.UUID) (*SubmissionOutcome, error) {
	room, err := s.lockRoom(ctx, db, roomID)
	if err != nil {
		return nil, err
	}
	if !room.Phase.AcceptsVotes() {
		return nil, illegal(kindVote, room.Phase, ReasonWrongPhase)
	}
	if err := s.requireRole(ctx, db, room, userID, gamedb.MemberRolePlayer, kindVote); err != nil {
		return nil, err
	}

	strategy, err := gamedomain.StrategyFor(room.VotingStyle)
	if err != nil {
		return nil, fmt.Errorf("room %s: %w", room.ID, err)
	}
	picks, err := rankPicks(ranked, strategy)
	if err != nil {
		return nil, err
	}

	game, gamePromptID, err := s.currentRound(ctx, db, room)
	if err != nil {
		return nil, err
	}
	answers, err := s.roundAnswers(ctx, db, gamePromptID)
	if err != nil {
		return nil, err
	}
	for _, pick := range picks {
		if _, ok := answers[pick.answerID]; !ok {
			return nil, gamedomain.Invalid("answer_id", fmt.Sprintf("%s is not an answer in this round", pick.answerID))
		}
	}

	votes := make([]gamedb.Vote, len(picks))
	for i, pick := range picks {
		votes[i] = gamedb.Vote{
			ID:           uuid.New(),
			UserID:       userID,
			AnswerID:     pick.answerID,
			GameID:       game.ID,
			GamePromptID: gamePromptID,
			Rank:         pick.rank,
			VoteType:     gamedomain.VoteTypePlayer,
			CreatedAt:    s.now(),
		}
	}

	inserted := true
	switch strategy.Style() {
	case gamedomain.VotingStyleVoteOnce:
		inserted, err = s.repo.InsertVoteIfAbsent(ctx, db, &votes[0])
		if err != nil {
			return nil, fmt.Errorf("failed to insert vote: %w", err)
		}
	default:
		if err := s.lockBallot(ctx, db, userID, gamePromptID, gamedomain.VoteTypePlayer, ErrDuplicateSubmission); err != nil {
			if errors.Is(err, ErrDuplicateSubmission) {
				s.metrics.RecordSubmission(ctx, kindVote, string(SubmissionDuplicate))
			}
			return nil, err
		}
		if err := s.insertVotes(ctx, db, votes); err != nil {
			return nil, err
		}
	}

	voters, err := s.repo.CountVoters(ctx, db, gamePromptID)
	if err != nil {
		return nil, fmt.Errorf("failed to count voters: %w", err)
	}
	return s.completeSubmission(ctx, db, fx, room, kindVote, inserted, voters, gamedomain.TriggerVotesComplete)
}

// SubmitAudienceStars records an audience ballot. The raw form values are
// validated before anything is written, and a repeat ballot returns ErrAlreadyCounted.
func (s *GameService) SubmitAudienceStars(ctx context.Context, roomID, userID uuid.UUID, raw map[string]string) (*SubmissionOutcome, error) {
	return execute(s, ctx, "SubmitAudienceStars", roomID.String(), func(ctx context.Context, db bun.IDB, _ *effects) (opResult[*SubmissionOutcome], error) {
		return settle(s.submitAudienceStarsLogic(ctx, db, roomID, userID, raw))
	})
}

func (s *GameService) submitAudienceStarsLogic(ctx context.Context, db bun.IDB, roomID, userID uuid.UUID, raw map[string]string) (*SubmissionOutcome, error) {
	room, err := s.lockRoom(ctx, db, roomID)
	if err != nil {
		return nil, err
	}
	if !room.AudienceEnabled {
		return nil, illegal(kindStars, room.Phase, ReasonAudienceOff)
	}
	if !room.Phase.AcceptsVotes() {
		return nil, illegal(kindStars, room.Phase, ReasonWrongPhase)
	}
	if err := s.requireRole(ctx, db, room, userID, gamedb.MemberRoleAudience, kindStars); err != nil {
		return nil, err
	}

	ballot, err := gamedomain.ParseStarBallot(raw, s.settings.MaxStars)
	if err != nil {
		return nil, err
	}

	game, gamePromptID, err := s.currentRound(ctx, db, room)
	if err != nil {
		return nil, err
	}
	answers, err := s.roundAnswers(ctx, db, gamePromptID)
	if err != nil {
		return nil, err
	}
	for _, answerID := range ballot.AnswerIDs() {
		if _, ok := answers[answerID]; !ok {
			return nil, gamedomain.Invalid("answer_id", fmt.Sprintf("%s is not an answer in this round", answerID))
		}
	}

	if err := s.lockBallot(ctx, db, userID, gamePromptID, gamedomain.VoteTypeAudience, ErrAlreadyCounted); err != nil {
		if errors.Is(err, ErrAlreadyCounted) {
			s.metrics.RecordSubmission(ctx, kindStars, statusAlreadyCounted)
		}
		return nil, err
	}

	votes := make([]gamedb.Vote, 0, ballot.Total())
	for _, award := range ballot {
		for range award.Stars {
			votes = append(votes, gamedb.Vote{
				ID:           uuid.New(),
				UserID:       userID,
				AnswerID:     award.AnswerID,
				GameID:       game.ID,
				GamePromptID: gamePromptID,
				VoteType:     gamedomain.VoteTypeAudience,
				CreatedAt:    s.now(),
			})
		}
	}
	if err := s.insertVotes(ctx, db, votes); err != nil {
		return nil, err
	}

	s.metrics.RecordSubmission(ctx, kindStars, string(SubmissionAccepted))
	return &SubmissionOutcome{
		Status:    SubmissionAccepted,
		Submitted: ballot.Total(),
		Expected:  s.settings.MaxStars,
		Phase:     room.Phase,
	}, nil
}

// completeSubmission reports an admitted submission and closes the phase once
// submitted reaches the number of players.
func (s *GameService) completeSubmission(
	ctx context.Context,
	db bun.IDB,
	fx *effects,
	room *gamedb.Room,
	kind string,
	inserted bool,
	submitted int,
	trigger gamedomain.Trigger,
) (*SubmissionOutcome, error) {
	expected, err := s.repo.CountMembers(ctx, db, room.ID, gamedb.MemberRolePlayer)
	if err != nil {
		return nil, fmt.Errorf("failed to count players: %w", err)
	}

	outcome := &SubmissionOutcome{
		Status:    SubmissionAccepted,
		Submitted: submitted,
		Expected:  expected,
		Phase:     room.Phase,
	}
	if !inserted {
		outcome.Status = SubmissionDuplicate
	}
	s.metrics.RecordSubmission(ctx, kind, string(outcome.Status))

	if submitted < expected {
		return outcome, nil
	}
	transition, err := s.applyTrigger(ctx, db, fx, room, trigger)
	if err != nil {
		return nil, err
	}
	outcome.Phase = transition.To
	outcome.Advanced = !transition.Noop
	return outcome, nil
}

// requireRole checks that userID is a member of room holding role.
func (s *GameService) requireRole(ctx context.Context, db bun.IDB, room *gamedb.Room, userID uuid.UUID, role gamedb.MemberRole, action string) error {
	member, err := s.repo.GetMember(ctx, db, room.ID, userID)
	if err != nil {
		if errors.Is(err, gamedb.ErrNotFound) {
			return illegal(action, room.Phase, ReasonNotMember)
		}
		return fmt.Errorf("failed to get member: %w", err)
	}
	if member.Role != role {
		if role == gamedb.MemberRoleAudience {
			return illegal(action, room.Phase, ReasonAudienceOnly)
		}
		return illegal(action, room.Phase, ReasonPlayersOnly)
	}
	return nil
}

// lockBallot serializes a user's ballots for a round and returns dup when the
// user already has votes of voteType there.
func (s *GameService) lockBallot(ctx context.Context, db bun.IDB, userID, gamePromptID uuid.UUID, voteType gamedomain.VoteType, dup error) error {
	if err := s.repo.LockSubmitter(ctx, db, userID, gamePromptID); err != nil {
		return fmt.Errorf("failed to lock ballot: %w", err)
	}
	existing, err := s.repo.ListUserVotesForUpdate(ctx, db, userID, gamePromptID, voteType)
	if err != nil {
		return fmt.Errorf("failed to check prior ballot: %w", err)
	}
	if len(existing) > 0 {
		return dup
	}
	return nil
}

func (s *GameService) insertVotes(ctx context.Context, db bun.IDB, votes []gamedb.Vote) error {
	if err := s.repo.InsertVotes(ctx, db, votes); err != nil {
		if errors.Is(err, gamedb.ErrUniqueViolation) {
			return ErrConcurrencyConflict
		}
		return fmt.Errorf("failed to insert votes: %w", err)
	}
	return nil
}

func (s *GameService) roundAnswers(ctx context.Context, db bun.IDB, gamePromptID uuid.UUID) (map[uuid.UUID]gamedb.Answer, error) {
	answers, err := s.repo.ListAnswersByGamePrompt(ctx, db, gamePromptID)
	if err != nil {
		return nil, fmt.Errorf("failed to list answers: %w", err)
	}
	byID := make(map[uuid.UUID]gamedb.Answer, len(answers))
	for _, a := range answers {
		byID[a.ID] = a
	}
	return byID, nil
}

type rankedPick struct {
	answerID uuid.UUID
	rank     *int
}

// rankPicks turns a slot list into votes. Blank slots are skipped but keep
// their rank position. vote_once reads only the first filled slot and leaves
// the rank unset.
func rankPicks(ranked []uuid.UUID, strategy gamedomain.VotingStrategy) ([]rankedPick, error) {
	if strategy.Style() == gamedomain.VotingStyleVoteOnce {
		for _, id := range ranked {
			if id != uuid.Nil {
				return []rankedPick{{answerID: id}}, nil
			}
		}
		return nil, gamedomain.Invalid("answer_id", "no answer selected")
	}

	if len(ranked) > strategy.MaxRanks() {
		return nil, gamedomain.Invalid("ranks", fmt.Sprintf("at most %d ranks", strategy.MaxRanks()))
	}
	picks := make([]rankedPick, 0, len(ranked))
	seen := make(map[uuid.UUID]struct{}, len(ranked))
	for i, id := range ranked {
		if id == uuid.Nil {
			continue
		}
		if _, dup := seen[id]; dup {
			return nil, gamedomain.Invalid("answer_id", "answer ranked more than once")
		}
		seen[id] = struct{}{}
		rank := i + 1
		picks = append(picks, rankedPick{answerID: id, rank: &rank})
	}
	if len(picks) == 0 {
		return nil, gamedomain.Invalid("answer_id", "no answer selected")
	}
	return picks, nil
}
