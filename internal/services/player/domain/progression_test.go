package domain

import "testing"

func TestScoreGainCaps(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		opponentScore int
		want          int
	}{
		{"floor for fresh opponent", 0, MinScoreGain},
		{"floor just below threshold", 199, MinScoreGain},
		{"proportional midrange", 1000, 50},
		{"ceiling for top opponent", 100000, MaxScoreGain},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := ScoreGain(tt.opponentScore); got != tt.want {
				t.Fatalf("ScoreGain(%d) = %d, want %d", tt.opponentScore, got, tt.want)
			}
		})
	}
}

func TestScoreLossIsHalfGain(t *testing.T) {
	t.Parallel()

	for _, score := range []int{0, 500, 1000, 100000} {
		if got, want := ScoreLoss(score), ScoreGain(score)/2; got != want {
			t.Fatalf("ScoreLoss(%d) = %d, want %d", score, got, want)
		}
	}
}

func TestLevelForXP(t *testing.T) {
	t.Parallel()

	tests := []struct {
		xp   int
		want int
	}{
		{0, 1},
		{99, 1},
		{100, 2},
		{299, 2},
		{300, 3},
		{600, 4},
	}

	for _, tt := range tests {
		if got := LevelForXP(tt.xp); got != tt.want {
			t.Fatalf("LevelForXP(%d) = %d, want %d", tt.xp, got, tt.want)
		}
	}
}

func TestNextLevelXPMatchesLevelForXP(t *testing.T) {
	t.Parallel()

	for level := 1; level < 10; level++ {
		threshold := NextLevelXP(level)
		if got := LevelForXP(threshold - 1); got != level {
			t.Fatalf("LevelForXP(%d) = %d, want %d", threshold-1, got, level)
		}
		if got := LevelForXP(threshold); got != level+1 {
			t.Fatalf("LevelForXP(%d) = %d, want %d", threshold, got, level+1)
		}
	}
}

func TestOutcomeRewards(t *testing.T) {
	t.Parallel()

	if MatchXP(OutcomeWin) <= MatchXP(OutcomeDraw) || MatchXP(OutcomeDraw) <= MatchXP(OutcomeLoss) {
		t.Fatal("match XP must strictly decrease from win to draw to loss")
	}
	if MatchGold(OutcomeWin) <= MatchGold(OutcomeLoss) {
		t.Fatal("winning must pay more gold than losing")
	}
	if RoundXP(OutcomeWin) <= RoundXP(OutcomeLoss) {
		t.Fatal("winning a round must pay more XP than losing one")
	}
}
