package match

import (
	"errors"
	"testing"
	"time"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
	"github.com/louisbranch/wordclash/internal/services/match/domain/words"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func testCategory(t *testing.T, name string, defs ...words.WordDef) *words.Category {
	t.Helper()
	if len(defs) == 0 {
		defs = []words.WordDef{
			{Word: "apple", Score: 5, Corrections: []string{"appel"}},
			{Word: "banana", Score: 3},
			{Word: "cherry", Score: 7},
		}
	}
	cat, err := words.NewCategory(words.Definition{Name: name, Words: defs})
	if err != nil {
		t.Fatalf("new category %q: %v", name, err)
	}
	return cat
}

func newTestLogic(t *testing.T, numRounds, firstTurn int, clock *fakeClock) *Logic {
	t.Helper()
	logic, err := NewLogic(numRounds, firstTurn, clock.now)
	if err != nil {
		t.Fatalf("new logic: %v", err)
	}
	for round := 0; round < numRounds; round++ {
		logic.categories[round] = testCategory(t, "Fruits")
	}
	return logic
}

func mustStart(t *testing.T, logic *Logic, player int, d time.Duration) {
	t.Helper()
	status, err := logic.StartRound(player, d)
	if err != nil {
		t.Fatalf("start round for player %d: %v", player, err)
	}
	if status != StartRoundSuccess {
		t.Fatalf("start round for player %d = %v, want success", player, status)
	}
}

func TestRoundNumberProgression(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 2, 0, clock)

	if got := logic.RoundNumber(); got != 0 {
		t.Fatalf("initial round number = %d, want 0", got)
	}

	mustStart(t, logic, 0, time.Minute)
	if got := logic.RoundNumber(); got != 0 {
		t.Fatalf("round number with one open turn = %d, want 0", got)
	}

	clock.advance(2 * time.Minute)
	if got := logic.RoundNumber(); got != 0 {
		t.Fatalf("round number waiting on second player = %d, want 0", got)
	}

	mustStart(t, logic, 1, time.Minute)
	if got := logic.RoundNumber(); got != 0 {
		t.Fatalf("round number with player 1 mid-turn = %d, want 0", got)
	}

	clock.advance(2 * time.Minute)
	if got := logic.RoundNumber(); got != 1 {
		t.Fatalf("round number after both finished round 0 = %d, want 1", got)
	}

	// Round 1: parity flips the opening player.
	mustStart(t, logic, 1, time.Minute)
	clock.advance(2 * time.Minute)
	mustStart(t, logic, 0, time.Minute)
	clock.advance(2 * time.Minute)

	if got := logic.RoundNumber(); got != 2 {
		t.Fatalf("round number after all rounds = %d, want 2", got)
	}
	if !logic.Finished() {
		t.Fatal("expected match to be finished")
	}
	if logic.RoundNumber() > logic.NumRounds() {
		t.Fatalf("round number %d exceeds num rounds %d", logic.RoundNumber(), logic.NumRounds())
	}
}

func TestRoundNumberIsMonotonic(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 3, 0, clock)

	last := logic.RoundNumber()
	check := func() {
		t.Helper()
		got := logic.RoundNumber()
		if got < last {
			t.Fatalf("round number decreased from %d to %d", last, got)
		}
		last = got
	}

	for round := 0; round < 3; round++ {
		first := logic.FirstTurnThisRound()
		mustStart(t, logic, first, time.Minute)
		check()
		clock.advance(30 * time.Second)
		check()
		logic.ForceEndTurn(first)
		check()
		mustStart(t, logic, 1-first, time.Minute)
		check()
		clock.advance(2 * time.Minute)
		check()
	}
	if last != 3 {
		t.Fatalf("final round number = %d, want 3", last)
	}
}

func TestFirstTurnThisRoundAlternates(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 4, 1, clock)

	want := []int{1, 0, 1, 0}
	for round := 0; round < 4; round++ {
		if got := logic.FirstTurnThisRound(); got != want[round] {
			t.Fatalf("round %d first turn = %d, want %d", round, got, want[round])
		}
		first := logic.FirstTurnThisRound()
		mustStart(t, logic, first, time.Minute)
		clock.advance(2 * time.Minute)
		mustStart(t, logic, 1-first, time.Minute)
		clock.advance(2 * time.Minute)
	}
}

func TestStartRoundRejections(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 1, 0, clock)

	// Not the opening player's turn.
	status, err := logic.StartRound(1, time.Minute)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if status != StartRoundNotThisPlayersTurn {
		t.Fatalf("status = %v, want not-this-players-turn", status)
	}

	mustStart(t, logic, 0, time.Minute)

	// Re-entering the open round resumes it without touching the clock.
	deadline := logic.TurnEnd(0)
	status, err = logic.StartRound(0, time.Minute)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if status != StartRoundResumed {
		t.Fatalf("status = %v, want resumed", status)
	}
	if !logic.TurnEnd(0).Equal(deadline) {
		t.Fatal("resume must not move the deadline")
	}

	// After the clock runs out the round is done for this player.
	clock.advance(2 * time.Minute)
	status, err = logic.StartRound(0, time.Minute)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if status != StartRoundAlreadyTookTurn {
		t.Fatalf("status = %v, want already-took-turn", status)
	}

	// Once both players are done the match refuses new rounds.
	mustStart(t, logic, 1, time.Minute)
	clock.advance(2 * time.Minute)
	status, err = logic.StartRound(0, time.Minute)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if status != StartRoundGameFinished {
		t.Fatalf("status = %v, want game-finished", status)
	}
}

func TestStartRoundRequiresCategory(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic, err := NewLogic(2, 0, clock.now)
	if err != nil {
		t.Fatalf("new logic: %v", err)
	}

	status, err := logic.StartRound(0, time.Minute)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if status != StartRoundMustChooseCategory {
		t.Fatalf("status = %v, want must-choose-category", status)
	}
}

func TestPlayWordScoringAndDuplicates(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 1, 0, clock)
	mustStart(t, logic, 0, time.Minute)

	outcome, err := logic.PlayWord(0, "APPLE", nil)
	if err != nil {
		t.Fatalf("play word: %v", err)
	}
	if outcome.Score != 5 || !outcome.Recognized || outcome.Duplicate {
		t.Fatalf("outcome = %+v, want score 5 recognized non-duplicate", outcome)
	}

	// Correction entry resolves to the same canonical word, so replaying it
	// is a duplicate regardless of its score the first time.
	outcome, err = logic.PlayWord(0, "appel", nil)
	if err != nil {
		t.Fatalf("play word: %v", err)
	}
	if !outcome.Duplicate {
		t.Fatal("expected corrected replay to be flagged duplicate")
	}
	if outcome.Score != 0 {
		t.Fatalf("duplicate score = %d, want 0", outcome.Score)
	}

	// An unrecognized word is recorded and blocks its own replay.
	outcome, err = logic.PlayWord(0, "xylophone", nil)
	if err != nil {
		t.Fatalf("play word: %v", err)
	}
	if outcome.Recognized || outcome.Score != 0 || outcome.Duplicate {
		t.Fatalf("outcome = %+v, want unrecognized zero-score non-duplicate", outcome)
	}
	outcome, err = logic.PlayWord(0, "Xylophone", nil)
	if err != nil {
		t.Fatalf("play word: %v", err)
	}
	if !outcome.Duplicate {
		t.Fatal("expected unrecognized replay to be flagged duplicate")
	}

	outcome, err = logic.PlayWord(0, "banana", nil)
	if err != nil {
		t.Fatalf("play word: %v", err)
	}
	if outcome.Score != 3 {
		t.Fatalf("score = %d, want 3", outcome.Score)
	}

	if got := logic.RoundScore(0, 0); got != 8 {
		t.Fatalf("round score = %d, want 8", got)
	}
	rounds := logic.Rounds(0)
	if len(rounds[0].Answers) != 5 {
		t.Fatalf("recorded answers = %d, want 5 (every attempt is kept)", len(rounds[0].Answers))
	}
}

func TestPlayWordAfterDeadline(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 1, 0, clock)
	mustStart(t, logic, 0, time.Minute)
	clock.advance(2 * time.Minute)

	_, err := logic.PlayWord(0, "apple", nil)
	if err == nil {
		t.Fatal("expected turn-over error")
	}
	if code := apperrors.CodeOf(err); code != apperrors.CodeMatchTurnOver {
		t.Fatalf("code = %q, want %q", code, apperrors.CodeMatchTurnOver)
	}
}

func TestPlayWordRejectsEmpty(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 1, 0, clock)
	mustStart(t, logic, 0, time.Minute)

	_, err := logic.PlayWord(0, "   ", nil)
	if code := apperrors.CodeOf(err); code != apperrors.CodeMatchWordEmpty {
		t.Fatalf("code = %q, want %q", code, apperrors.CodeMatchWordEmpty)
	}
}

func TestForceEndTurnIsIdempotent(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 1, 0, clock)
	mustStart(t, logic, 0, time.Minute)

	logic.ForceEndTurn(0)
	if logic.TurnActive(0) {
		t.Fatal("expected turn to be over after force end")
	}
	deadline := logic.TurnEnd(0)

	logic.ForceEndTurn(0)
	if !logic.TurnEnd(0).Equal(deadline) {
		t.Fatal("second force end must not move the deadline again")
	}
}

func TestExtendTurnOnlyWhileActive(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 1, 0, clock)
	mustStart(t, logic, 0, time.Minute)

	deadline := logic.TurnEnd(0)
	if err := logic.ExtendTurn(0, 15*time.Second); err != nil {
		t.Fatalf("extend turn: %v", err)
	}
	if got := logic.TurnEnd(0); !got.Equal(deadline.Add(15 * time.Second)) {
		t.Fatalf("deadline = %v, want %v", got, deadline.Add(15*time.Second))
	}

	clock.advance(2 * time.Minute)
	err := logic.ExtendTurn(0, 15*time.Second)
	if !errors.Is(err, apperrors.New(apperrors.CodeMatchTurnOver, "")) {
		t.Fatalf("expected turn-over error, got %v", err)
	}
}

func playRound(t *testing.T, logic *Logic, clock *fakeClock, scores [2][]string) {
	t.Helper()
	first := logic.FirstTurnThisRound()
	for _, player := range []int{first, 1 - first} {
		mustStart(t, logic, player, time.Minute)
		for _, word := range scores[player] {
			if _, err := logic.PlayWord(player, word, nil); err != nil {
				t.Fatalf("play %q for player %d: %v", word, player, err)
			}
		}
		logic.ForceEndTurn(player)
	}
}

func TestRoundsWonCountsTiesForBoth(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 2, 0, clock)

	// Round 0: both play apple (5-5). Round 1: both play banana (3-3).
	playRound(t, logic, clock, [2][]string{{"apple"}, {"apple"}})
	playRound(t, logic, clock, [2][]string{{"banana"}, {"banana"}})

	if got := logic.RoundsWon(0); got != 2 {
		t.Fatalf("player 0 rounds won = %d, want 2", got)
	}
	if got := logic.RoundsWon(1); got != 2 {
		t.Fatalf("player 1 rounds won = %d, want 2", got)
	}
	verdict, _ := logic.Winner()
	if verdict != VerdictDraw {
		t.Fatalf("verdict = %v, want draw", verdict)
	}
}

func TestWinnerByRoundsWon(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 1, 0, clock)

	// Player 0 scores 3 (banana), player 1 scores 7 (cherry).
	playRound(t, logic, clock, [2][]string{{"banana"}, {"cherry"}})

	if !logic.Finished() {
		t.Fatal("expected match to be finished")
	}
	verdict, winner := logic.Winner()
	if verdict != VerdictWinner {
		t.Fatalf("verdict = %v, want winner", verdict)
	}
	if winner != 1 {
		t.Fatalf("winner = %d, want 1", winner)
	}
}

func TestExpiryAwardsOpponent(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 3, 0, clock)

	mustStart(t, logic, 0, time.Minute)
	if err := logic.MarkExpired(0); err != nil {
		t.Fatalf("mark expired: %v", err)
	}

	if !logic.Expired() {
		t.Fatal("expected match to be expired")
	}
	if got := logic.ExpiredFor(); got != 0 {
		t.Fatalf("expired for = %d, want 0", got)
	}
	verdict, winner := logic.Winner()
	if verdict != VerdictWinner {
		t.Fatalf("verdict = %v, want winner", verdict)
	}
	if winner != 1 {
		t.Fatalf("winner = %d, want 1", winner)
	}

	status, err := logic.StartRound(1, time.Minute)
	if err != nil {
		t.Fatalf("start round: %v", err)
	}
	if status != StartRoundGameFinished {
		t.Fatalf("status after expiry = %v, want game-finished", status)
	}
}

// TestIndependentClocksEndToEnd mirrors the full scenario: player 0 starts
// round 0, plays apple for 5, lets the turn expire; player 1 starts the same
// round on their own clock, plays the case-insensitive same word for 5, ends
// the turn early. The round ties and counts as a win for both.
func TestIndependentClocksEndToEnd(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	logic := newTestLogic(t, 1, 0, clock)

	mustStart(t, logic, 0, time.Minute)
	if _, err := logic.PlayWord(0, "APPLE", nil); err != nil {
		t.Fatalf("play word: %v", err)
	}
	clock.advance(61 * time.Second)

	mustStart(t, logic, 1, time.Minute)
	outcome, err := logic.PlayWord(1, "apple", nil)
	if err != nil {
		t.Fatalf("play word: %v", err)
	}
	if outcome.Duplicate {
		t.Fatal("opponent playing the same word in their own turn is not a duplicate")
	}
	if outcome.Score != 5 {
		t.Fatalf("score = %d, want 5", outcome.Score)
	}
	logic.ForceEndTurn(1)

	if got := logic.RoundScore(0, 0); got != 5 {
		t.Fatalf("player 0 round score = %d, want 5", got)
	}
	if got := logic.RoundScore(1, 0); got != 5 {
		t.Fatalf("player 1 round score = %d, want 5", got)
	}
	if got := logic.RoundsWon(0); got != 1 {
		t.Fatalf("player 0 rounds won = %d, want 1", got)
	}
	if got := logic.RoundsWon(1); got != 1 {
		t.Fatalf("player 1 rounds won = %d, want 1", got)
	}
}
