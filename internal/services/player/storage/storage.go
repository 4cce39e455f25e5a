// Package storage defines the persistence contracts for the player service.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
	"github.com/louisbranch/wordclash/internal/services/player/domain"
)

// ErrNotFound is returned when no player exists for the given ID.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "player not found")

// PlayerRecord is the persisted shape of one player.
type PlayerRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Score     int       `json:"score"`
	Level     int       `json:"level"`
	XP        int       `json:"xp"`
	Gold      int       `json:"gold"`
	Wins      int       `json:"wins"`
	Losses    int       `json:"losses"`
	Draws     int       `json:"draws"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResultRecord is one finished match from a player's perspective, kept so
// recent form can be read back cheaply.
type ResultRecord struct {
	PlayerID  string         `json:"player_id"`
	MatchID   string         `json:"match_id"`
	Outcome   domain.Outcome `json:"outcome"`
	VsBot     bool           `json:"vs_bot"`
	CreatedAt time.Time      `json:"created_at"`
}

// RankedEntry is one leaderboard row.
type RankedEntry struct {
	PlayerID string `json:"player_id"`
	Name     string `json:"name"`
	Score    int    `json:"score"`
	Rank     int    `json:"rank"`
}

// Store persists players, their match history, and the score ordering.
type Store interface {
	SavePlayer(ctx context.Context, record PlayerRecord) error
	GetPlayer(ctx context.Context, id string) (PlayerRecord, error)

	AddResult(ctx context.Context, record ResultRecord) error
	RecentResults(ctx context.Context, playerID string, limit int) ([]ResultRecord, error)

	Rank(ctx context.Context, playerID string) (int, error)
	Top(ctx context.Context, limit int) ([]RankedEntry, error)
}
