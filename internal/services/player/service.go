// Package player implements guest accounts, progression, and the gold
// economy backing match consumables.
package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
	"github.com/louisbranch/wordclash/internal/platform/id"
	"github.com/louisbranch/wordclash/internal/services/player/domain"
	"github.com/louisbranch/wordclash/internal/services/player/storage"
)

// StartingGold is granted to every new guest so early consumable purchases
// are possible without grinding.
const StartingGold = 100

// Service exposes the player progression and economy operations.
type Service struct {
	store storage.Store
	now   func() time.Time
}

// New creates a player service backed by the given store.
func New(store storage.Store) *Service {
	return &Service{store: store, now: time.Now}
}

// CreateGuest provisions a new guest account with a fresh ID.
func (s *Service) CreateGuest(ctx context.Context, name string) (storage.PlayerRecord, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return storage.PlayerRecord{}, apperrors.New(apperrors.CodePlayerEmptyName, "player name is required")
	}

	playerID, err := id.NewID()
	if err != nil {
		return storage.PlayerRecord{}, fmt.Errorf("generate player id: %w", err)
	}
	record := storage.PlayerRecord{
		ID:        playerID,
		Name:      name,
		Level:     1,
		Gold:      StartingGold,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.SavePlayer(ctx, record); err != nil {
		return storage.PlayerRecord{}, fmt.Errorf("create guest: %w", err)
	}
	return record, nil
}

// Get loads one player.
func (s *Service) Get(ctx context.Context, playerID string) (storage.PlayerRecord, error) {
	record, err := s.store.GetPlayer(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		return storage.PlayerRecord{}, apperrors.Wrap(apperrors.CodePlayerNotFound, "player not found", err)
	}
	if err != nil {
		return storage.PlayerRecord{}, fmt.Errorf("get player: %w", err)
	}
	return record, nil
}

// Score returns the player's ranked score.
func (s *Service) Score(ctx context.Context, playerID string) (int, error) {
	record, err := s.Get(ctx, playerID)
	if err != nil {
		return 0, err
	}
	return record.Score, nil
}

// OnRoundResult credits the small per-round experience trickle. It is called
// once per player per completed round.
func (s *Service) OnRoundResult(ctx context.Context, playerID string, outcome domain.Outcome) error {
	record, err := s.Get(ctx, playerID)
	if err != nil {
		return err
	}
	record.XP += domain.RoundXP(outcome)
	record.Level = domain.LevelForXP(record.XP)
	if err := s.store.SavePlayer(ctx, record); err != nil {
		return fmt.Errorf("apply round result: %w", err)
	}
	return nil
}

// GameResult describes one finished match from a single player's view.
type GameResult struct {
	MatchID       string
	Outcome       domain.Outcome
	OpponentScore int
	VsBot         bool
}

// OnGameResult settles a finished match: ranked score moves proportionally to
// the opponent's standing within fixed caps, XP and gold follow the outcome,
// and the result lands in the player's history. Bot matches never move the
// ranked score.
func (s *Service) OnGameResult(ctx context.Context, playerID string, result GameResult) (storage.PlayerRecord, error) {
	record, err := s.Get(ctx, playerID)
	if err != nil {
		return storage.PlayerRecord{}, err
	}

	if !result.VsBot {
		switch result.Outcome {
		case domain.OutcomeWin:
			record.Score += domain.ScoreGain(result.OpponentScore)
		case domain.OutcomeLoss:
			record.Score -= domain.ScoreLoss(result.OpponentScore)
			if record.Score < 0 {
				record.Score = 0
			}
		}
	}

	switch result.Outcome {
	case domain.OutcomeWin:
		record.Wins++
	case domain.OutcomeLoss:
		record.Losses++
	case domain.OutcomeDraw:
		record.Draws++
	}
	record.XP += domain.MatchXP(result.Outcome)
	record.Level = domain.LevelForXP(record.XP)
	record.Gold += domain.MatchGold(result.Outcome)

	if err := s.store.SavePlayer(ctx, record); err != nil {
		return storage.PlayerRecord{}, fmt.Errorf("apply game result: %w", err)
	}
	if err := s.store.AddResult(ctx, storage.ResultRecord{
		PlayerID:  playerID,
		MatchID:   result.MatchID,
		Outcome:   result.Outcome,
		VsBot:     result.VsBot,
		CreatedAt: s.now().UTC(),
	}); err != nil {
		return storage.PlayerRecord{}, fmt.Errorf("record result: %w", err)
	}
	return record, nil
}

// Charge deducts gold for a consumable purchase. A price of zero is a free
// use and skips the write entirely.
func (s *Service) Charge(ctx context.Context, playerID string, price int) error {
	if price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if price == 0 {
		return nil
	}
	record, err := s.Get(ctx, playerID)
	if err != nil {
		return err
	}
	if record.Gold < price {
		return apperrors.WithMetadata(apperrors.CodePlayerInsufficientGold, "not enough gold", map[string]string{
			"price": fmt.Sprintf("%d", price),
			"gold":  fmt.Sprintf("%d", record.Gold),
		})
	}
	record.Gold -= price
	if err := s.store.SavePlayer(ctx, record); err != nil {
		return fmt.Errorf("charge player: %w", err)
	}
	return nil
}

// RecentResults lists the player's latest finished matches, newest first.
func (s *Service) RecentResults(ctx context.Context, playerID string, limit int) ([]storage.ResultRecord, error) {
	return s.store.RecentResults(ctx, playerID, limit)
}

// Rank returns the player's 1-based leaderboard position.
func (s *Service) Rank(ctx context.Context, playerID string) (int, error) {
	rank, err := s.store.Rank(ctx, playerID)
	if errors.Is(err, storage.ErrNotFound) {
		return 0, apperrors.Wrap(apperrors.CodePlayerNotFound, "player not found", err)
	}
	return rank, err
}

// Top lists the highest-scored players.
func (s *Service) Top(ctx context.Context, limit int) ([]storage.RankedEntry, error) {
	return s.store.Top(ctx, limit)
}
