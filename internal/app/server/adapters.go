package server

import (
	"context"

	"github.com/louisbranch/wordclash/internal/services/player"
	"github.com/louisbranch/wordclash/internal/services/player/domain"
)

// playersAdapter narrows the player service to what the match runtime needs.
type playersAdapter struct {
	players *player.Service
}

func (a playersAdapter) Score(ctx context.Context, playerID string) (int, error) {
	return a.players.Score(ctx, playerID)
}

func (a playersAdapter) RoundResult(ctx context.Context, playerID string, outcome string) error {
	return a.players.OnRoundResult(ctx, playerID, domain.Outcome(outcome))
}

func (a playersAdapter) GameResult(ctx context.Context, playerID, matchID string, outcome string, opponentScore int, vsBot bool) error {
	_, err := a.players.OnGameResult(ctx, playerID, player.GameResult{
		MatchID:       matchID,
		Outcome:       domain.Outcome(outcome),
		OpponentScore: opponentScore,
		VsBot:         vsBot,
	})
	return err
}

func (a playersAdapter) Charge(ctx context.Context, playerID string, price int) error {
	return a.players.Charge(ctx, playerID, price)
}

func (a playersAdapter) RecentOutcomes(ctx context.Context, playerID string, limit int) ([]string, error) {
	results, err := a.players.RecentResults(ctx, playerID, limit)
	if err != nil {
		return nil, err
	}
	outcomes := make([]string, 0, len(results))
	for _, result := range results {
		outcomes = append(outcomes, string(result.Outcome))
	}
	return outcomes, nil
}
