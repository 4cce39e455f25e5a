package app

import (
	"context"
	"time"

	"github.com/louisbranch/wordclash/internal/services/match/domain/match"
	"github.com/louisbranch/wordclash/internal/services/match/storage"
)

const (
	botIndex       = 1
	botMaxAttempts = 12
)

// maybeScheduleBot arms a delayed bot turn whenever the synthetic opponent
// is due to play. Runs on the entity goroutine.
func (e *Entity) maybeScheduleBot() {
	if !e.record.BotOpponent || e.record.State != storage.StateInProgress {
		return
	}
	if e.logic.Finished() || e.logic.Expired() {
		return
	}
	if e.logic.TurnPlayer() != botIndex || e.logic.TurnActive(botIndex) {
		return
	}
	if e.botTimer != nil {
		return
	}
	e.botTimer = time.AfterFunc(e.deps.BotDelay(), func() {
		e.post(func() {
			e.botTimer = nil
			e.playBotTurn()
		})
	})
}

// playBotTurn plays one full synthetic turn: open the round (choosing a
// category group if needed), feed words until the target outcome's stop
// condition is met, then end the turn. Runs on the entity goroutine.
func (e *Entity) playBotTurn() {
	if e.record.State != storage.StateInProgress || e.logic.Finished() || e.logic.Expired() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), sideEffectTimeout)
	defer cancel()

	result, err := e.startRound(ctx, botIndex)
	if err != nil {
		e.deps.Logf("match %s: bot start round: %v", e.id, err)
		return
	}
	if result.Status == match.StartRoundMustChooseCategory {
		group := result.GroupChoices[e.deps.Rand.IntN(len(result.GroupChoices))]
		category, err := e.drawCategory(group)
		if err != nil {
			e.deps.Logf("match %s: bot pick category: %v", e.id, err)
			return
		}
		round := e.logic.RoundNumber()
		if err := e.logic.SetCategory(round, category); err != nil {
			e.deps.Logf("match %s: bot set category: %v", e.id, err)
			return
		}
		e.record.UsedCategories = append(e.record.UsedCategories, category.Name())
		e.record.GroupChoices = nil
		e.record.GroupRefreshes = 0
		if _, err := e.startRound(ctx, botIndex); err != nil {
			e.deps.Logf("match %s: bot start round: %v", e.id, err)
			return
		}
	}

	round := e.logic.RoundCount(botIndex) - 1
	category := e.logic.Category(round)
	if category == nil {
		e.deps.Logf("match %s: bot has no category for round %d", e.id, round)
		return
	}

	target := e.botTargetScore(ctx, round)
	answers := category.Answers()
	e.deps.Rand.Shuffle(len(answers), func(i, j int) {
		answers[i], answers[j] = answers[j], answers[i]
	})

	attempts := 0
	for _, def := range answers {
		if attempts >= botMaxAttempts || e.logic.RoundScore(botIndex, round) >= target {
			break
		}
		cfg := e.deps.Config.Current()
		if _, err := e.logic.PlayWord(ctx, botIndex, def.Word, cfg.DistanceForLength); err != nil {
			break
		}
		attempts++
	}

	e.logic.ForceEndTurn(botIndex)
	if e.timers[botIndex] != nil {
		e.timers[botIndex].Stop()
		e.timers[botIndex] = nil
	}
	e.handleEndTurn(botIndex, round)
}

// botTargetScore derives the score the bot plays toward from the human's
// recent form: a struggling human gets an easier opponent, a winning one a
// harder opponent.
func (e *Entity) botTargetScore(ctx context.Context, round int) int {
	humanScore := 0
	if e.logic.PlayerFinishedTurn(0, round) {
		humanScore = e.logic.RoundScore(0, round)
	} else {
		// The human has not played this round yet; aim at a plausible
		// human score instead.
		humanScore = 8 + e.deps.Rand.IntN(12)
	}

	outcomes, err := e.deps.Players.RecentOutcomes(ctx, e.record.Players[0], 5)
	if err != nil {
		e.deps.Logf("match %s: bot recent outcomes: %v", e.id, err)
	}
	streak := 0
	for _, outcome := range outcomes {
		switch outcome {
		case OutcomeWin:
			streak++
		case OutcomeLoss:
			streak--
		}
	}

	switch {
	case streak >= 2:
		// Human on a winning streak: bot plays to win.
		return humanScore + 1 + e.deps.Rand.IntN(4)
	case streak <= -2:
		// Human on a losing streak: bot aims below them.
		target := humanScore - 3 - e.deps.Rand.IntN(4)
		if target < 1 {
			target = 1
		}
		return target
	default:
		return humanScore
	}
}
