// Package match implements the round and turn state machine shared by the
// authoritative server and the client-side prediction mirror.
//
// Both players play every round on their own clock, so the two per-player
// turn states advance independently while the match as a whole moves
// New -> WaitingForSecondPlayer -> InProgress -> Finished|Expired.
package match

import (
	"fmt"
	"time"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
	"github.com/louisbranch/wordclash/internal/services/match/domain/words"
)

// Answer is one attempt recorded during a round. Every attempt is kept,
// scored or not, so the opponent can later replay exactly what was tried.
type Answer struct {
	Word      string
	Score     int
	Duplicate bool
}

// Round holds the ordered attempts of one player's turn and the cumulative
// score they earned in it.
type Round struct {
	Answers []Answer
	Score   int
}

// StartRoundStatus is the outcome of a round-start request.
type StartRoundStatus int

const (
	// StartRoundSuccess opened a fresh round for the player.
	StartRoundSuccess StartRoundStatus = iota
	// StartRoundResumed re-entered a round the player already has open.
	StartRoundResumed
	// StartRoundMustChooseCategory means the round's category is unassigned.
	StartRoundMustChooseCategory
	// StartRoundGameFinished means the match is already decided.
	StartRoundGameFinished
	// StartRoundAlreadyTookTurn means the player finished this round already.
	StartRoundAlreadyTookTurn
	// StartRoundNotThisPlayersTurn means the opponent moves first this round.
	StartRoundNotThisPlayersTurn
)

func (s StartRoundStatus) String() string {
	switch s {
	case StartRoundSuccess:
		return "started"
	case StartRoundResumed:
		return "resumed"
	case StartRoundMustChooseCategory:
		return "choose_category"
	case StartRoundGameFinished:
		return "game_finished"
	case StartRoundAlreadyTookTurn:
		return "already_took_turn"
	case StartRoundNotThisPlayersTurn:
		return "not_your_turn"
	default:
		return "unknown"
	}
}

// PlayOutcome describes what happened to one played word.
type PlayOutcome struct {
	// Word is the canonical spelling when recognized, the normalized raw
	// word otherwise.
	Word string
	// Score credited to the round. Zero for duplicates and unrecognized words.
	Score int
	// Duplicate marks a word already recorded this round.
	Duplicate bool
	// Recognized marks words the category accepted, exactly or corrected.
	Recognized bool
}

// Verdict classifies a match outcome.
type Verdict int

const (
	// VerdictUndecided means the match is still running.
	VerdictUndecided Verdict = iota
	// VerdictDraw means the match finished with equal rounds won.
	VerdictDraw
	// VerdictWinner means one player won; Winner reports which.
	VerdictWinner
)

// Logic is the pure rules engine for one match. It owns round bookkeeping,
// score accumulation, word-play rules, and win/expiry determination, and is
// driven by an injected clock so timing rules stay testable.
type Logic struct {
	numRounds  int
	firstTurn  int
	rounds     [2][]Round
	turnEnd    [2]time.Time
	categories []*words.Category
	expiredFor int
	now        func() time.Time
}

// NewLogic creates a rules engine for a match of numRounds rounds where
// firstTurn (0 or 1) opens round zero.
func NewLogic(numRounds, firstTurn int, now func() time.Time) (*Logic, error) {
	if numRounds <= 0 {
		return nil, fmt.Errorf("num rounds must be above zero, got %d", numRounds)
	}
	if firstTurn != 0 && firstTurn != 1 {
		return nil, fmt.Errorf("first turn must be 0 or 1, got %d", firstTurn)
	}
	if now == nil {
		now = time.Now
	}
	return &Logic{
		numRounds:  numRounds,
		firstTurn:  firstTurn,
		categories: make([]*words.Category, numRounds),
		expiredFor: -1,
		now:        now,
	}, nil
}

// NumRounds returns the configured round count.
func (l *Logic) NumRounds() int { return l.numRounds }

// FirstTurn returns the player index that opened round zero.
func (l *Logic) FirstTurn() int { return l.firstTurn }

// RoundCount returns how many rounds the player has started.
func (l *Logic) RoundCount(player int) int { return len(l.rounds[player]) }

// Rounds returns a copy of the player's recorded rounds.
func (l *Logic) Rounds(player int) []Round {
	out := make([]Round, len(l.rounds[player]))
	for i, r := range l.rounds[player] {
		out[i] = Round{Answers: append([]Answer(nil), r.Answers...), Score: r.Score}
	}
	return out
}

// RoundScore returns the player's cumulative score for one round, zero when
// the round was never started.
func (l *Logic) RoundScore(player, round int) int {
	if round < 0 || round >= len(l.rounds[player]) {
		return 0
	}
	return l.rounds[player][round].Score
}

// TotalScore returns the player's score summed across all rounds.
func (l *Logic) TotalScore(player int) int {
	total := 0
	for _, r := range l.rounds[player] {
		total += r.Score
	}
	return total
}

// TurnEnd returns the player's current turn deadline. It is in the past when
// no turn is running.
func (l *Logic) TurnEnd(player int) time.Time { return l.turnEnd[player] }

// TurnActive reports whether the player's clock is still running.
func (l *Logic) TurnActive(player int) bool {
	return l.turnEnd[player].After(l.now())
}

// Category returns the category assigned to one round, nil until chosen.
func (l *Logic) Category(round int) *words.Category {
	if round < 0 || round >= len(l.categories) {
		return nil
	}
	return l.categories[round]
}

// RoundNumber derives the match's current round from the two independent
// turn states: the lower of the two players' round counts, unless both have
// started the same round and one clock is still running, in which case that
// round is still the current one.
func (l *Logic) RoundNumber() int {
	c0, c1 := len(l.rounds[0]), len(l.rounds[1])
	if c0 != c1 {
		if c1 < c0 {
			return c1
		}
		return c0
	}
	if c0 == 0 {
		return 0
	}
	if l.TurnActive(0) || l.TurnActive(1) {
		return c0 - 1
	}
	return c0
}

// PlayerFinishedTurn reports whether the player is done with the given
// round: they started a later round, or started this one and its deadline
// has passed.
func (l *Logic) PlayerFinishedTurn(player, round int) bool {
	count := len(l.rounds[player])
	if count > round+1 {
		return true
	}
	if count == round+1 {
		return !l.TurnActive(player)
	}
	return false
}

// FirstTurnThisRound alternates the opening player by round parity, so the
// disadvantage of moving first swaps every round.
func (l *Logic) FirstTurnThisRound() int {
	if l.RoundNumber()%2 == 0 {
		return l.firstTurn
	}
	return 1 - l.firstTurn
}

// TurnPlayer returns whose turn it logically is: the round's opening player
// until they finish, then the other.
func (l *Logic) TurnPlayer() int {
	first := l.FirstTurnThisRound()
	if l.PlayerFinishedTurn(first, l.RoundNumber()) {
		return 1 - first
	}
	return first
}

// Finished reports whether all rounds have been played out.
func (l *Logic) Finished() bool {
	return l.RoundNumber() >= l.numRounds
}

// Expired reports whether the match was forfeited for inactivity.
func (l *Logic) Expired() bool { return l.expiredFor >= 0 }

// ExpiredFor returns the player who caused the expiry, -1 when not expired.
func (l *Logic) ExpiredFor() int { return l.expiredFor }

// MarkExpired records the match as forfeited by the given player and closes
// their outstanding clock.
func (l *Logic) MarkExpired(loser int) error {
	if loser != 0 && loser != 1 {
		return fmt.Errorf("player index %d out of range", loser)
	}
	l.expiredFor = loser
	l.ForceEndTurn(0)
	l.ForceEndTurn(1)
	return nil
}

// StartRound opens a new round for the player, giving them turnDuration on
// the clock. Re-entering an already-open round reports StartRoundResumed and
// leaves the clock untouched.
func (l *Logic) StartRound(player int, turnDuration time.Duration) (StartRoundStatus, error) {
	if player != 0 && player != 1 {
		return 0, fmt.Errorf("player index %d out of range", player)
	}
	if l.Expired() || l.Finished() {
		return StartRoundGameFinished, nil
	}

	round := l.RoundNumber()
	count := len(l.rounds[player])
	if count == round+1 {
		if l.TurnActive(player) {
			return StartRoundResumed, nil
		}
		return StartRoundAlreadyTookTurn, nil
	}
	if l.TurnPlayer() != player {
		return StartRoundNotThisPlayersTurn, nil
	}
	if l.categories[round] == nil {
		return StartRoundMustChooseCategory, nil
	}

	l.turnEnd[player] = l.now().Add(turnDuration)
	l.rounds[player] = append(l.rounds[player], Round{})
	return StartRoundSuccess, nil
}

// ExtendTurn pushes the player's running deadline out by extra. Rejected
// once the clock has stopped; the deadline only ever moves forward.
func (l *Logic) ExtendTurn(player int, extra time.Duration) error {
	if player != 0 && player != 1 {
		return fmt.Errorf("player index %d out of range", player)
	}
	if !l.TurnActive(player) {
		return apperrors.New(apperrors.CodeMatchTurnOver, "turn deadline has passed")
	}
	if extra <= 0 {
		return fmt.Errorf("extension must be positive, got %v", extra)
	}
	l.turnEnd[player] = l.turnEnd[player].Add(extra)
	return nil
}

// ForceEndTurn moves a still-running deadline one second into the past, an
// immediate and idempotent "end now" shared by explicit end-round requests
// and timeout callbacks.
func (l *Logic) ForceEndTurn(player int) {
	if player != 0 && player != 1 {
		return
	}
	if l.TurnActive(player) {
		l.turnEnd[player] = l.now().Add(-time.Second)
	}
}

// PlayWord records one attempt against the player's open round, resolving
// score and spelling through the round's category.
func (l *Logic) PlayWord(player int, raw string, distanceForLength func(int) int) (PlayOutcome, error) {
	lookup, round, err := l.resolveWord(player, raw, distanceForLength)
	if err != nil {
		return PlayOutcome{}, err
	}
	return l.recordWord(player, round, raw, lookup, lookup.Score), nil
}

// resolveWord validates that the player's clock is running and resolves the
// raw word against the open round's category.
func (l *Logic) resolveWord(player int, raw string, distanceForLength func(int) int) (words.LookupResult, int, error) {
	if player != 0 && player != 1 {
		return words.LookupResult{}, 0, fmt.Errorf("player index %d out of range", player)
	}
	if l.Expired() || l.Finished() {
		return words.LookupResult{}, 0, apperrors.New(apperrors.CodeMatchFinished, "match is already decided")
	}
	count := len(l.rounds[player])
	if count == 0 || !l.TurnActive(player) {
		return words.LookupResult{}, 0, apperrors.New(apperrors.CodeMatchTurnOver, "turn deadline has passed")
	}
	if words.Normalize(raw) == "" {
		return words.LookupResult{}, 0, apperrors.New(apperrors.CodeMatchWordEmpty, "played word is empty")
	}
	round := count - 1
	category := l.categories[round]
	if category == nil {
		return words.LookupResult{}, 0, fmt.Errorf("round %d has no category assigned", round)
	}
	return category.Lookup(raw, distanceForLength), round, nil
}

// recordWord appends the attempt and credits the score unless the word was
// already recorded this round.
func (l *Logic) recordWord(player, round int, raw string, lookup words.LookupResult, score int) PlayOutcome {
	played := lookup.Canonical
	if !lookup.Found {
		played = words.Normalize(raw)
		score = 0
	}

	outcome := PlayOutcome{Word: played, Recognized: lookup.Found}
	for _, answer := range l.rounds[player][round].Answers {
		if answer.Word == played {
			outcome.Duplicate = true
			break
		}
	}
	if !outcome.Duplicate {
		outcome.Score = score
		l.rounds[player][round].Score += score
	}

	l.rounds[player][round].Answers = append(l.rounds[player][round].Answers, Answer{
		Word:      played,
		Score:     outcome.Score,
		Duplicate: outcome.Duplicate,
	})
	return outcome
}

// RoundsWon counts the rounds both players have finished where the player's
// score is at least the opponent's. A tie counts for both players: round
// wins are independent per player, and the match winner is decided by
// totals, not zero-sum round outcomes.
func (l *Logic) RoundsWon(player int) int {
	if player != 0 && player != 1 {
		return 0
	}
	wins := 0
	for round := 0; round < l.numRounds; round++ {
		if !l.PlayerFinishedTurn(0, round) || !l.PlayerFinishedTurn(1, round) {
			continue
		}
		if l.rounds[player][round].Score >= l.rounds[1-player][round].Score {
			wins++
		}
	}
	return wins
}

// Winner resolves the match outcome: on expiry the player who did not cause
// it wins; on a finished match whoever won strictly more rounds wins, equal
// counts draw; otherwise the match is undecided.
func (l *Logic) Winner() (Verdict, int) {
	if l.Expired() {
		return VerdictWinner, 1 - l.expiredFor
	}
	if !l.Finished() {
		return VerdictUndecided, -1
	}
	w0, w1 := l.RoundsWon(0), l.RoundsWon(1)
	switch {
	case w0 > w1:
		return VerdictWinner, 0
	case w1 > w0:
		return VerdictWinner, 1
	default:
		return VerdictDraw, -1
	}
}
