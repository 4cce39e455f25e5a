package app

import (
	"context"
	"strings"
	"time"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
	"github.com/louisbranch/wordclash/internal/services/match/domain/match"
	"github.com/louisbranch/wordclash/internal/services/match/domain/words"
	"github.com/louisbranch/wordclash/internal/services/match/storage"
)

func canonicalPlayerID(playerID string) string {
	return strings.TrimSpace(playerID)
}

// StartRoundResult is the outcome of a round-start attempt.
type StartRoundResult struct {
	Status   match.StartRoundStatus
	Round    int
	Category string
	TurnEnd  time.Time

	// GroupChoices is set when the caller must pick a category group
	// before the round can open.
	GroupChoices  []string
	RefreshesLeft int
}

// Join adds the second player. Only a match still waiting for an opponent is
// joinable, and the creator cannot join their own match.
func (e *Entity) Join(ctx context.Context, playerID string) error {
	playerID = canonicalPlayerID(playerID)
	return e.do(ctx, func() error {
		if e.record.State != storage.StateWaiting {
			return apperrors.New(apperrors.CodeMatchNotJoinable, "match is not open for joining")
		}
		if playerID == "" {
			return apperrors.New(apperrors.CodeMatchUnknownPlayer, "player id is required")
		}
		if playerID == e.record.Players[0] {
			return apperrors.New(apperrors.CodeMatchSelfPlay, "cannot join your own match")
		}

		e.record.Players[1] = playerID
		e.record.State = storage.StateInProgress
		e.record.ExpiryMs = e.deps.Now().Add(e.rules().MatchExpiry()).UnixMilli()
		if err := e.save(ctx); err != nil {
			e.record.Players[1] = ""
			e.record.State = storage.StateWaiting
			e.record.ExpiryMs = 0
			return err
		}
		if err := e.registerExpiry(ctx); err != nil {
			e.deps.Logf("match %s: register expiry: %v", e.id, err)
		}
		if err := e.deps.Notifier.OpponentJoined(ctx, e.record.Players[0], e.id, playerID); err != nil {
			e.deps.Logf("match %s: notify join: %v", e.id, err)
		}
		return nil
	})
}

// StartRound opens (or resumes) the caller's turn for the current round.
func (e *Entity) StartRound(ctx context.Context, playerID string) (StartRoundResult, error) {
	var result StartRoundResult
	err := e.do(ctx, func() error {
		idx, err := e.playerIndex(playerID)
		if err != nil {
			return err
		}
		if e.record.State != storage.StateInProgress {
			return matchStateError(e.record.State)
		}
		result, err = e.startRound(ctx, idx)
		return err
	})
	return result, err
}

// startRound runs on the entity goroutine.
func (e *Entity) startRound(ctx context.Context, idx int) (StartRoundResult, error) {
	rules := e.rules()
	status, err := e.logic.StartRound(idx, rules.RoundDuration())
	if err != nil {
		return StartRoundResult{}, err
	}

	switch status {
	case match.StartRoundGameFinished:
		return StartRoundResult{}, apperrors.New(apperrors.CodeMatchFinished, "match is over")
	case match.StartRoundAlreadyTookTurn:
		return StartRoundResult{}, apperrors.New(apperrors.CodeMatchAlreadyTookTurn, "round already played")
	case match.StartRoundNotThisPlayersTurn:
		return StartRoundResult{}, apperrors.New(apperrors.CodeMatchNotPlayersTurn, "not your turn")
	case match.StartRoundMustChooseCategory:
		if len(e.record.GroupChoices) == 0 {
			e.record.GroupChooser = idx
			e.record.GroupChoices = e.drawGroups()
			e.record.GroupRefreshes = 0
			if err := e.save(ctx); err != nil {
				e.record.GroupChoices = nil
				return StartRoundResult{}, err
			}
		}
		return StartRoundResult{
			Status:        status,
			Round:         e.logic.RoundNumber(),
			GroupChoices:  e.record.GroupChoices,
			RefreshesLeft: rules.MaxGroupRefreshes - e.record.GroupRefreshes,
		}, nil
	}

	round := e.logic.RoundCount(idx) - 1
	if status == match.StartRoundSuccess {
		// Consumables reset only when a round genuinely opens, not when
		// an already-open one is resumed.
		e.record.TimeExtensions[idx] = 0
		e.record.WordsRevealed[idx] = 0
	}
	e.armTurnTimer(idx)
	if err := e.save(ctx); err != nil {
		return StartRoundResult{}, err
	}

	result := StartRoundResult{
		Status:  status,
		Round:   round,
		TurnEnd: e.logic.TurnEnd(idx),
	}
	if category := e.logic.Category(round); category != nil {
		result.Category = category.Name()
	}
	return result, nil
}

// drawGroups offers a random set of distinct group names.
func (e *Entity) drawGroups() []string {
	cfg := e.deps.Config.Current()
	names := cfg.GroupNames()
	e.deps.Rand.Shuffle(len(names), func(i, j int) {
		names[i], names[j] = names[j], names[i]
	})
	count := cfg.Rules().GroupChoiceCount
	if count > len(names) {
		count = len(names)
	}
	return names[:count]
}

// ChooseGroup commits a category drawn from the chosen group and starts the
// round. The choice is validated against exactly the offer made earlier.
func (e *Entity) ChooseGroup(ctx context.Context, playerID, group string) (StartRoundResult, error) {
	var result StartRoundResult
	err := e.do(ctx, func() error {
		idx, err := e.playerIndex(playerID)
		if err != nil {
			return err
		}
		if e.record.State != storage.StateInProgress {
			return matchStateError(e.record.State)
		}
		if len(e.record.GroupChoices) == 0 {
			return apperrors.New(apperrors.CodeGroupNoChoicePending, "no group choice is pending")
		}
		if e.record.GroupChooser != idx {
			return apperrors.New(apperrors.CodeGroupWrongChooser, "another player is choosing")
		}
		offered := false
		for _, name := range e.record.GroupChoices {
			if name == group {
				offered = true
				break
			}
		}
		if !offered {
			return apperrors.WithMetadata(apperrors.CodeGroupInvalidChoice, "group was not offered", map[string]string{
				"group": group,
			})
		}

		category, err := e.drawCategory(group)
		if err != nil {
			return err
		}
		round := e.logic.RoundNumber()
		if err := e.logic.SetCategory(round, category); err != nil {
			return err
		}
		e.record.UsedCategories = append(e.record.UsedCategories, category.Name())
		e.record.GroupChoices = nil
		e.record.GroupRefreshes = 0

		result, err = e.startRound(ctx, idx)
		return err
	})
	return result, err
}

// drawCategory picks uniformly from the group, excluding categories already
// used this match unless the group is exhausted.
func (e *Entity) drawCategory(group string) (*words.Category, error) {
	cfg := e.deps.Config.Current()
	names, ok := cfg.GroupCategories(group)
	if !ok || len(names) == 0 {
		return nil, apperrors.WithMetadata(apperrors.CodeGroupInvalidChoice, "group has no categories", map[string]string{
			"group": group,
		})
	}

	used := make(map[string]bool, len(e.record.UsedCategories))
	for _, name := range e.record.UsedCategories {
		used[name] = true
	}
	fresh := names[:0:0]
	for _, name := range names {
		if !used[name] {
			fresh = append(fresh, name)
		}
	}
	if len(fresh) == 0 {
		fresh = names
	}

	name := fresh[e.deps.Rand.IntN(len(fresh))]
	category, ok := cfg.Category(name)
	if !ok {
		return nil, apperrors.WithMetadata(apperrors.CodePackCategoryNotFound, "category missing from configuration", map[string]string{
			"category": name,
		})
	}
	return category, nil
}

// RefreshGroups re-rolls the offered groups a bounded number of times.
func (e *Entity) RefreshGroups(ctx context.Context, playerID string) ([]string, error) {
	var choices []string
	err := e.do(ctx, func() error {
		idx, err := e.playerIndex(playerID)
		if err != nil {
			return err
		}
		if len(e.record.GroupChoices) == 0 {
			return apperrors.New(apperrors.CodeGroupNoChoicePending, "no group choice is pending")
		}
		if e.record.GroupChooser != idx {
			return apperrors.New(apperrors.CodeGroupWrongChooser, "another player is choosing")
		}
		if e.record.GroupRefreshes >= e.rules().MaxGroupRefreshes {
			return apperrors.New(apperrors.CodeGroupRefreshExhausted, "no refreshes left")
		}

		previous := e.record.GroupChoices
		e.record.GroupChoices = e.drawGroups()
		e.record.GroupRefreshes++
		if err := e.save(ctx); err != nil {
			e.record.GroupChoices = previous
			e.record.GroupRefreshes--
			return err
		}
		choices = e.record.GroupChoices
		return nil
	})
	return choices, err
}

// PlayWord scores and records one word for the caller's current turn.
func (e *Entity) PlayWord(ctx context.Context, playerID, word string) (match.PlayOutcome, error) {
	var outcome match.PlayOutcome
	err := e.do(ctx, func() error {
		idx, err := e.playerIndex(playerID)
		if err != nil {
			return err
		}
		if e.record.State != storage.StateInProgress {
			return matchStateError(e.record.State)
		}

		cfg := e.deps.Config.Current()
		outcome, err = e.logic.PlayWord(ctx, idx, word, cfg.DistanceForLength)
		if err != nil {
			return err
		}
		if err := e.save(ctx); err != nil {
			return err
		}
		if outcome.Recognized && !outcome.Duplicate {
			if category := e.logic.Category(e.logic.RoundCount(idx) - 1); category != nil {
				e.deps.Stats.AddPlay(category.Name(), outcome.Word)
			}
		}
		return nil
	})
	return outcome, err
}

// EndRound ends the caller's turn immediately instead of waiting out the
// clock.
func (e *Entity) EndRound(ctx context.Context, playerID string) error {
	return e.do(ctx, func() error {
		idx, err := e.playerIndex(playerID)
		if err != nil {
			return err
		}
		round := e.logic.RoundCount(idx) - 1
		if round < 0 {
			return apperrors.New(apperrors.CodeMatchNotStarted, "round has not started")
		}
		e.logic.ForceEndTurn(idx)
		if e.timers[idx] != nil {
			e.timers[idx].Stop()
			e.timers[idx] = nil
		}
		e.handleEndTurn(idx, round)
		return nil
	})
}

// IncreaseRoundTime buys extra seconds on the caller's running turn. The
// price escalates with how many extensions the player already bought this
// match. Returns the new deadline.
func (e *Entity) IncreaseRoundTime(ctx context.Context, playerID string) (time.Time, error) {
	var deadline time.Time
	err := e.do(ctx, func() error {
		idx, err := e.playerIndex(playerID)
		if err != nil {
			return err
		}
		if !e.logic.TurnActive(idx) {
			return apperrors.New(apperrors.CodeMatchTurnOver, "turn is not running")
		}
		rules := e.rules()
		if e.record.TimeExtensions[idx] >= rules.MaxTimeExtensions {
			return apperrors.New(apperrors.CodeConsumableLimitReached, "no time extensions left this round")
		}

		price := words.PriceForUse(rules.TimeExtensionPrices, e.record.TimeExtensionsTotal[idx])
		if err := e.deps.Players.Charge(ctx, playerID, price); err != nil {
			return err
		}
		if err := e.logic.ExtendTurn(idx, rules.TimeExtension()); err != nil {
			return err
		}
		e.record.TimeExtensions[idx]++
		e.record.TimeExtensionsTotal[idx]++
		e.armTurnTimer(idx)
		if err := e.save(ctx); err != nil {
			return err
		}
		deadline = e.logic.TurnEnd(idx)
		return nil
	})
	return deadline, err
}

// RevealWord buys one not-yet-played answer from the current category.
func (e *Entity) RevealWord(ctx context.Context, playerID string) (string, error) {
	var revealed string
	err := e.do(ctx, func() error {
		idx, err := e.playerIndex(playerID)
		if err != nil {
			return err
		}
		if !e.logic.TurnActive(idx) {
			return apperrors.New(apperrors.CodeMatchTurnOver, "turn is not running")
		}
		rules := e.rules()
		if e.record.WordsRevealed[idx] >= rules.MaxWordReveals {
			return apperrors.New(apperrors.CodeConsumableLimitReached, "no reveals left this round")
		}

		round := e.logic.RoundCount(idx) - 1
		category := e.logic.Category(round)
		if category == nil {
			return apperrors.New(apperrors.CodeMatchNotStarted, "round has no category")
		}
		candidates := e.unplayedAnswers(idx, round, category)
		if len(candidates) == 0 {
			return apperrors.New(apperrors.CodeConsumableLimitReached, "nothing left to reveal")
		}

		price := words.PriceForUse(rules.RevealPrices, e.record.WordsRevealedTotal[idx])
		if err := e.deps.Players.Charge(ctx, playerID, price); err != nil {
			return err
		}
		e.record.WordsRevealed[idx]++
		e.record.WordsRevealedTotal[idx]++
		if err := e.save(ctx); err != nil {
			return err
		}
		revealed = candidates[e.deps.Rand.IntN(len(candidates))]
		return nil
	})
	return revealed, err
}

func (e *Entity) unplayedAnswers(idx, round int, category *words.Category) []string {
	played := make(map[string]bool)
	rounds := e.logic.Rounds(idx)
	if round >= 0 && round < len(rounds) {
		for _, answer := range rounds[round].Answers {
			played[answer.Word] = true
		}
	}
	var out []string
	for _, def := range category.Answers() {
		if !played[def.Word] {
			out = append(out, def.Word)
		}
	}
	return out
}

func matchStateError(state storage.MatchState) error {
	switch state {
	case storage.StateFinished, storage.StateExpired:
		return apperrors.New(apperrors.CodeMatchFinished, "match is over")
	default:
		return apperrors.New(apperrors.CodeMatchNotStarted, "match has not started")
	}
}
