package app

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
	"github.com/louisbranch/wordclash/internal/platform/id"
	"github.com/louisbranch/wordclash/internal/services/match/domain/match"
	"github.com/louisbranch/wordclash/internal/services/match/domain/words"
	"github.com/louisbranch/wordclash/internal/services/match/storage"
)

// BotPlayerID occupies slot 1 when the opponent is synthetic.
const BotPlayerID = "bot"

// expiryReminderThreshold is the horizon below which expiry is handled
// inline instead of through a durable reminder.
const expiryReminderThreshold = time.Minute

// sideEffectTimeout bounds each post-fence side effect so a slow
// collaborator cannot stall the entity's mailbox indefinitely.
const sideEffectTimeout = 10 * time.Second

// ErrDeactivated is returned when an operation races entity shutdown.
var ErrDeactivated = fmt.Errorf("match entity deactivated")

// Entity is the actor owning one match. All state mutations run on a single
// goroutine consuming the request mailbox; RPC handlers, timer callbacks and
// reminder wakes all post into it.
type Entity struct {
	id   string
	deps Deps

	record storage.MatchRecord
	logic  *match.ServerLogic

	requests chan func()
	stopped  chan struct{}
	stopOnce sync.Once

	timers   [2]*time.Timer
	botTimer *time.Timer

	lastUsed atomic.Int64
}

// configResolver resolves snapshot category names against the current
// configuration, substituting an arbitrary category when a name has
// disappeared between save and restore.
type configResolver struct {
	cfg *words.Config
}

func (r configResolver) Resolve(name string) (*words.Category, bool) {
	return r.cfg.Category(name)
}

func (r configResolver) Fallback(string) *words.Category {
	names := r.cfg.CategoryNames()
	if len(names) == 0 {
		return nil
	}
	category, _ := r.cfg.Category(names[0])
	return category
}

// CreateEntity provisions a brand-new match for its creator and starts the
// actor. With vsBot the synthetic opponent joins immediately.
func CreateEntity(ctx context.Context, deps Deps, creatorID string, vsBot bool) (*Entity, error) {
	deps = deps.withDefaults()
	creatorID = canonicalPlayerID(creatorID)
	if creatorID == "" {
		return nil, apperrors.New(apperrors.CodeMatchUnknownPlayer, "creator id is required")
	}

	matchID, err := id.NewID()
	if err != nil {
		return nil, fmt.Errorf("generate match id: %w", err)
	}

	cfg := deps.Config.Current()
	rules := cfg.Rules()
	firstTurn := deps.Rand.IntN(2)
	logic, err := match.NewServerLogic(rules.NumRounds, firstTurn, deps.Scorer, deps.Now)
	if err != nil {
		return nil, fmt.Errorf("create game logic: %w", err)
	}

	e := &Entity{
		id:   matchID,
		deps: deps,
		record: storage.MatchRecord{
			ID:      matchID,
			State:   storage.StateNew,
			Players: [2]string{creatorID, ""},
			Fence:   [2]int{-1, -1},
		},
		logic:    logic,
		requests: make(chan func()),
		stopped:  make(chan struct{}),
	}

	if vsBot {
		e.record.Players[1] = BotPlayerID
		e.record.BotOpponent = true
		e.record.State = storage.StateInProgress
		e.record.ExpiryMs = deps.Now().Add(rules.MatchExpiry()).UnixMilli()
	}

	if err := e.save(ctx); err != nil {
		return nil, err
	}
	// A human match opens for a second player once creation is durable.
	if e.record.State == storage.StateNew {
		e.record.State = storage.StateWaiting
		if err := e.save(ctx); err != nil {
			return nil, err
		}
	}
	if vsBot {
		if err := e.registerExpiry(ctx); err != nil {
			deps.Logf("match %s: register expiry: %v", matchID, err)
		}
	}

	e.touch()
	go e.run()
	if vsBot {
		e.post(func() { e.maybeScheduleBot() })
	}
	return e, nil
}

// ActivateEntity loads a persisted match and starts the actor. Deadlines
// that passed while the match was inactive are replayed synchronously;
// pending ones get their timers re-armed.
func ActivateEntity(ctx context.Context, deps Deps, matchID string) (*Entity, error) {
	deps = deps.withDefaults()

	record, err := deps.Store.GetMatch(ctx, matchID)
	if err != nil {
		if apperrors.CodeOf(err) == apperrors.CodeNotFound {
			return nil, apperrors.Wrap(apperrors.CodeMatchNotFound, "match not found", err)
		}
		return nil, err
	}

	cfg := deps.Config.Current()
	logic, err := match.RestoreServerLogic(record.Engine, configResolver{cfg: cfg}, deps.Scorer, deps.Now)
	if err != nil {
		return nil, fmt.Errorf("restore match %s: %w", matchID, err)
	}

	e := &Entity{
		id:       matchID,
		deps:     deps,
		record:   record,
		logic:    logic,
		requests: make(chan func()),
		stopped:  make(chan struct{}),
	}
	e.touch()
	go e.run()
	e.post(func() { e.recoverDeadlines() })
	return e, nil
}

// ID returns the match ID.
func (e *Entity) ID() string { return e.id }

// Close stops the actor. Pending and future calls fail with ErrDeactivated.
// State was persisted after every mutation, so there is nothing to flush.
func (e *Entity) Close() {
	e.stopOnce.Do(func() { close(e.stopped) })
}

// IdleSince reports the last time the entity served a request.
func (e *Entity) IdleSince() time.Time {
	return time.UnixMilli(e.lastUsed.Load())
}

func (e *Entity) touch() {
	e.lastUsed.Store(e.deps.Now().UnixMilli())
}

func (e *Entity) run() {
	for {
		select {
		case fn := <-e.requests:
			fn()
			e.touch()
		case <-e.stopped:
			e.cancelTimers()
			return
		}
	}
}

func (e *Entity) cancelTimers() {
	for i, t := range e.timers {
		if t != nil {
			t.Stop()
			e.timers[i] = nil
		}
	}
	if e.botTimer != nil {
		e.botTimer.Stop()
		e.botTimer = nil
	}
}

// post runs fn on the entity goroutine without waiting for it.
func (e *Entity) post(fn func()) {
	select {
	case e.requests <- fn:
	case <-e.stopped:
	}
}

// do runs fn on the entity goroutine and waits for its result.
func (e *Entity) do(ctx context.Context, fn func() error) error {
	errc := make(chan error, 1)
	select {
	case e.requests <- func() { errc <- fn() }:
	case <-e.stopped:
		return ErrDeactivated
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// save persists the full record, refreshing the engine snapshot first. Saves
// are single atomic upserts in the store.
func (e *Entity) save(ctx context.Context) error {
	e.record.Engine = e.logic.Snapshot()
	if err := e.deps.Store.SaveMatch(ctx, e.record); err != nil {
		return fmt.Errorf("save match %s: %w", e.id, err)
	}
	return nil
}

func (e *Entity) playerIndex(playerID string) (int, error) {
	playerID = canonicalPlayerID(playerID)
	for i, p := range e.record.Players {
		if p != "" && p == playerID {
			return i, nil
		}
	}
	return 0, apperrors.WithMetadata(apperrors.CodeMatchUnknownPlayer, "player is not in this match", map[string]string{
		"match_id": e.id,
	})
}

func (e *Entity) rules() words.Rules {
	return e.deps.Config.Current().Rules()
}

// registerExpiry schedules the durable wake for the inactivity deadline, or
// handles expiry inline when the deadline is too close to bother.
func (e *Entity) registerExpiry(ctx context.Context) error {
	if e.record.ExpiryMs == 0 {
		return nil
	}
	expiry := time.UnixMilli(e.record.ExpiryMs)
	if expiry.Sub(e.deps.Now()) > expiryReminderThreshold {
		return e.deps.Store.ScheduleWake(ctx, e.id, expiry)
	}
	e.processExpiry(ctx)
	return nil
}

// recoverDeadlines runs once on activation. Runs on the entity goroutine.
func (e *Entity) recoverDeadlines() {
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	// A crash between creation and opening leaves the match new; re-open
	// it for joining.
	if e.record.State == storage.StateNew {
		e.record.State = storage.StateWaiting
		if err := e.save(ctx); err != nil {
			e.record.State = storage.StateNew
			e.deps.Logf("match %s: reopen for joining: %v", e.id, err)
		}
	}

	for player := 0; player < 2; player++ {
		count := e.logic.RoundCount(player)
		if count == 0 {
			continue
		}
		round := count - 1
		if e.logic.TurnActive(player) {
			e.armTurnTimer(player)
			continue
		}
		if e.record.Fence[player] < round {
			e.handleEndTurn(player, round)
		}
	}

	if e.record.ExpiryMs != 0 && e.record.State == storage.StateInProgress {
		if !e.deps.Now().Before(time.UnixMilli(e.record.ExpiryMs)) {
			e.processExpiry(ctx)
		}
	}
	e.maybeScheduleBot()
}

// armTurnTimer arms the volatile one-shot timer for the player's current
// turn. Runs on the entity goroutine.
func (e *Entity) armTurnTimer(player int) {
	round := e.logic.RoundCount(player) - 1
	if round < 0 {
		return
	}
	wait := e.logic.TurnEnd(player).Sub(e.deps.Now())
	if wait < 0 {
		wait = 0
	}
	if e.timers[player] != nil {
		e.timers[player].Stop()
	}
	e.timers[player] = time.AfterFunc(wait, func() {
		e.post(func() { e.turnDeadlineFired(player, round) })
	})
}

// turnDeadlineFired runs when a turn timer pops. The deadline may have moved
// (time extension) or already been processed (explicit end, replay); both
// are safe to ignore here.
func (e *Entity) turnDeadlineFired(player, round int) {
	if e.logic.RoundCount(player)-1 != round {
		return
	}
	if e.logic.TurnActive(player) {
		e.armTurnTimer(player)
		return
	}
	e.handleEndTurn(player, round)
}

// handleEndTurn advances the idempotence fence and then runs the end-of-turn
// side effects exactly once per (player, round). A second delivery of the
// same deadline is a no-op. Runs on the entity goroutine.
func (e *Entity) handleEndTurn(player, round int) {
	if e.record.Fence[player] >= round {
		return
	}
	from := e.record.Fence[player] + 1
	e.record.Fence[player] = round

	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	// The fence must be durable before any side effect runs; if the save
	// fails the fence rolls back so a later delivery retries from the top.
	if err := e.save(ctx); err != nil {
		e.record.Fence[player] = from - 1
		e.deps.Logf("match %s: persist fence: %v", e.id, err)
		return
	}

	for r := from; r <= round; r++ {
		e.endTurnEffects(ctx, player, r)
	}
	e.settleCompletedRounds(ctx)
	e.maybeFinishGame(ctx)
	e.maybeScheduleBot()
}

// endTurnEffects notifies the opponent about the finished turn. Failures are
// logged and dropped; the fence already committed.
func (e *Entity) endTurnEffects(ctx context.Context, player, round int) {
	opponent := 1 - player
	opponentID := e.record.Players[opponent]
	if opponentID == "" || opponentID == BotPlayerID {
		return
	}
	// Nothing new to reveal when the opponent already finished the round.
	if e.logic.PlayerFinishedTurn(opponent, round) {
		return
	}
	rounds := e.logic.Rounds(player)
	if round >= len(rounds) {
		return
	}
	if err := e.deps.Notifier.OpponentTurnEnded(ctx, opponentID, e.id, round, rounds[round].Answers); err != nil {
		e.deps.Logf("match %s: notify turn end: %v", e.id, err)
	}
}

// settleCompletedRounds reports per-round win/loss/draw statistics for every
// round both players have now finished. The persisted high-water mark makes
// the settlement run once per round regardless of which player ended last.
func (e *Entity) settleCompletedRounds(ctx context.Context) {
	for {
		r := e.record.RoundsSettled
		if r >= e.logic.NumRounds() {
			break
		}
		if !e.logic.PlayerFinishedTurn(0, r) || !e.logic.PlayerFinishedTurn(1, r) {
			break
		}
		e.record.RoundsSettled = r + 1
		if err := e.save(ctx); err != nil {
			e.deps.Logf("match %s: persist settled rounds: %v", e.id, err)
		}
		for player := 0; player < 2; player++ {
			playerID := e.record.Players[player]
			if playerID == "" || playerID == BotPlayerID {
				continue
			}
			outcome := roundOutcome(e.logic.RoundScore(player, r), e.logic.RoundScore(1-player, r))
			if err := e.deps.Players.RoundResult(ctx, playerID, outcome); err != nil {
				e.deps.Logf("match %s: settle round %d for %s: %v", e.id, r, playerID, err)
			}
		}
	}
}

func roundOutcome(score, opponentScore int) string {
	switch {
	case score > opponentScore:
		return OutcomeWin
	case score < opponentScore:
		return OutcomeLoss
	default:
		return OutcomeDraw
	}
}

// maybeFinishGame transitions to the finished state and settles both
// players' match outcome when the last round closed. The state transition
// persists before the settlement calls, so a crash can lose a settlement but
// never apply it twice.
func (e *Entity) maybeFinishGame(ctx context.Context) {
	if e.record.State != storage.StateInProgress || !e.logic.Finished() {
		return
	}
	e.record.State = storage.StateFinished
	if err := e.save(ctx); err != nil {
		e.record.State = storage.StateInProgress
		e.deps.Logf("match %s: persist finish: %v", e.id, err)
		return
	}
	if err := e.deps.Store.ClearWake(ctx, e.id); err != nil {
		e.deps.Logf("match %s: clear expiry reminder: %v", e.id, err)
	}
	e.settleGame(ctx, false)
}

// settleGame reports the final outcome to both players and notifies them.
func (e *Entity) settleGame(ctx context.Context, expired bool) {
	verdict, winner := e.logic.Winner()
	for player := 0; player < 2; player++ {
		playerID := e.record.Players[player]
		if playerID == "" || playerID == BotPlayerID {
			continue
		}
		outcome := OutcomeDraw
		if verdict == match.VerdictWinner {
			if winner == player {
				outcome = OutcomeWin
			} else {
				outcome = OutcomeLoss
			}
		}

		opponentScore := 0
		opponentID := e.record.Players[1-player]
		if opponentID != "" && opponentID != BotPlayerID {
			score, err := e.deps.Players.Score(ctx, opponentID)
			if err != nil {
				e.deps.Logf("match %s: opponent score for settlement: %v", e.id, err)
			} else {
				opponentScore = score
			}
		}
		if err := e.deps.Players.GameResult(ctx, playerID, e.id, outcome, opponentScore, e.record.BotOpponent); err != nil {
			e.deps.Logf("match %s: settle game for %s: %v", e.id, playerID, err)
		}

		var notifyErr error
		if expired {
			notifyErr = e.deps.Notifier.GameExpired(ctx, playerID, e.id, outcome)
		} else {
			notifyErr = e.deps.Notifier.GameEnded(ctx, playerID, e.id, outcome)
		}
		if notifyErr != nil {
			e.deps.Logf("match %s: notify game end: %v", e.id, notifyErr)
		}
	}
}

// processExpiry forfeits the match for whichever player's turn was
// outstanding. Safe to call more than once; a finished or already expired
// match ignores the wake.
func (e *Entity) processExpiry(ctx context.Context) {
	if e.record.State != storage.StateInProgress && e.record.State != storage.StateWaiting {
		return
	}
	if e.record.ExpiryMs == 0 || e.deps.Now().Before(time.UnixMilli(e.record.ExpiryMs)) {
		return
	}
	if e.logic.Finished() || e.logic.Expired() {
		return
	}

	loser := e.logic.TurnPlayer()
	for player := 0; player < 2; player++ {
		if e.logic.TurnActive(player) {
			loser = player
		}
	}
	if err := e.logic.MarkExpired(loser); err != nil {
		e.deps.Logf("match %s: mark expired: %v", e.id, err)
		return
	}
	e.record.State = storage.StateExpired
	if err := e.save(ctx); err != nil {
		e.deps.Logf("match %s: persist expiry: %v", e.id, err)
		return
	}
	if err := e.deps.Store.ClearWake(ctx, e.id); err != nil {
		e.deps.Logf("match %s: clear expiry reminder: %v", e.id, err)
	}
	e.settleGame(ctx, true)
}

// Wake delivers a durable reminder. Duplicate and late deliveries are safe.
func (e *Entity) Wake(ctx context.Context) error {
	return e.do(ctx, func() error {
		wctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
		defer cancel()
		e.processExpiry(wctx)
		// A wake for an already-resolved match only needs its reminder
		// released.
		if e.record.State == storage.StateFinished || e.record.State == storage.StateExpired {
			if err := e.deps.Store.ClearWake(wctx, e.id); err != nil {
				e.deps.Logf("match %s: clear stale reminder: %v", e.id, err)
			}
		}
		return nil
	})
}
