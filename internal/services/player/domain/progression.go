// Package domain holds the player progression and economy rules.
package domain

// Outcome classifies one result from a player's perspective.
type Outcome string

const (
	// OutcomeWin is a round or match the player won.
	OutcomeWin Outcome = "win"
	// OutcomeLoss is a round or match the player lost.
	OutcomeLoss Outcome = "loss"
	// OutcomeDraw is a tied round or match.
	OutcomeDraw Outcome = "draw"
)

// Score gain bounds. A win pays proportionally to the beaten opponent's
// standing but never outside these caps, so farming weak opponents and
// single-upset windfalls both stay bounded.
const (
	MinScoreGain = 10
	MaxScoreGain = 150
)

// ScoreGain returns the ranked-score delta for beating an opponent with the
// given standing.
func ScoreGain(opponentScore int) int {
	gain := opponentScore / 20
	if gain < MinScoreGain {
		return MinScoreGain
	}
	if gain > MaxScoreGain {
		return MaxScoreGain
	}
	return gain
}

// ScoreLoss returns the ranked-score penalty for losing; half the gain the
// winner collects, never driving a score below zero at the caller.
func ScoreLoss(opponentScore int) int {
	return ScoreGain(opponentScore) / 2
}

// XP awarded per match outcome.
func MatchXP(outcome Outcome) int {
	switch outcome {
	case OutcomeWin:
		return 20
	case OutcomeDraw:
		return 10
	default:
		return 5
	}
}

// Gold awarded per match outcome.
func MatchGold(outcome Outcome) int {
	switch outcome {
	case OutcomeWin:
		return 25
	case OutcomeDraw:
		return 10
	default:
		return 5
	}
}

// RoundXP is the experience trickle for completing one round.
func RoundXP(outcome Outcome) int {
	switch outcome {
	case OutcomeWin:
		return 4
	case OutcomeDraw:
		return 2
	default:
		return 1
	}
}

// LevelForXP derives a level from accumulated experience. Levels widen
// quadratically: level n requires 50*n*(n-1) XP, so early levels come fast.
func LevelForXP(xp int) int {
	level := 1
	for xp >= 50*level*(level+1) {
		level++
	}
	return level
}

// NextLevelXP returns the XP threshold that promotes out of the given level.
func NextLevelXP(level int) int {
	if level < 1 {
		level = 1
	}
	return 50 * level * (level + 1)
}
