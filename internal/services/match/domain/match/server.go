package match

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/louisbranch/wordclash/internal/services/match/domain/words"
)

// Scorer resolves the live value of a recognized word, typically from the
// eventually-consistent category statistics service.
type Scorer func(ctx context.Context, category, word string) (int, error)

// ServerLogic layers the authoritative extensions on top of the shared rules
// engine: category assignment, server-trusted scoring through an injected
// scorer, and snapshotting for durability.
type ServerLogic struct {
	Logic

	scorer Scorer
	logf   func(format string, args ...any)
}

// NewServerLogic creates the authoritative engine for one match. scorer may
// be nil, in which case the category's static scores are used.
func NewServerLogic(numRounds, firstTurn int, scorer Scorer, now func() time.Time) (*ServerLogic, error) {
	logic, err := NewLogic(numRounds, firstTurn, now)
	if err != nil {
		return nil, err
	}
	return &ServerLogic{Logic: *logic, scorer: scorer, logf: log.Printf}, nil
}

// SetCategory assigns the category for one round. Rounds must be assigned in
// order and exactly once.
func (s *ServerLogic) SetCategory(round int, category *words.Category) error {
	if round < 0 || round >= s.numRounds {
		return fmt.Errorf("round %d out of range [0, %d)", round, s.numRounds)
	}
	if category == nil {
		return fmt.Errorf("category is required")
	}
	if s.categories[round] != nil {
		return fmt.Errorf("round %d already has category %q", round, s.categories[round].Name())
	}
	if round > 0 && s.categories[round-1] == nil {
		return fmt.Errorf("round %d cannot be assigned before round %d", round, round-1)
	}
	s.categories[round] = category
	return nil
}

// CategoryNames returns the per-round category assignments, empty strings
// for rounds not yet chosen.
func (s *ServerLogic) CategoryNames() []string {
	names := make([]string, len(s.categories))
	for i, cat := range s.categories {
		if cat != nil {
			names[i] = cat.Name()
		}
	}
	return names
}

// PlayWord resolves and records one attempt with server-trusted scoring.
//
// When the opponent already finished the same round with the identical
// corrected word, the opponent's recorded score is reused instead of
// re-querying the scorer, so both players always see identical scores for
// identical words in the same round even if the backing statistics moved
// between the two plays. Scorer failures fall back to the category's static
// score; the local state transition never waits on the statistics service
// being healthy.
func (s *ServerLogic) PlayWord(ctx context.Context, player int, raw string, distanceForLength func(int) int) (PlayOutcome, error) {
	lookup, round, err := s.resolveWord(player, raw, distanceForLength)
	if err != nil {
		return PlayOutcome{}, err
	}

	score := lookup.Score
	if lookup.Found {
		if reused, ok := s.opponentScore(player, round, lookup.Canonical); ok {
			score = reused
		} else if s.scorer != nil {
			category := s.categories[round]
			live, scoreErr := s.scorer(ctx, category.Name(), lookup.Canonical)
			if scoreErr != nil {
				s.logf("score %q in %q: falling back to static score: %v", lookup.Canonical, category.Name(), scoreErr)
			} else {
				score = live
			}
		}
	}

	return s.recordWord(player, round, raw, lookup, score), nil
}

// opponentScore finds the score the opponent already recorded for the same
// word in the same round, if they finished that round.
func (s *ServerLogic) opponentScore(player, round int, word string) (int, bool) {
	opponent := 1 - player
	if !s.PlayerFinishedTurn(opponent, round) {
		return 0, false
	}
	if round >= len(s.rounds[opponent]) {
		return 0, false
	}
	for _, answer := range s.rounds[opponent][round].Answers {
		if answer.Word == word && !answer.Duplicate {
			return answer.Score, true
		}
	}
	return 0, false
}
