// Package app hosts the per-match actor runtime: one serialized entity per
// active match, a registry with explicit activation and idle deactivation, a
// reminder scheduler, and matchmaking.
package app

import (
	"context"
	"log"
	"math/rand/v2"
	"time"

	"github.com/louisbranch/wordclash/internal/services/match/domain/match"
	"github.com/louisbranch/wordclash/internal/services/match/domain/words"
	"github.com/louisbranch/wordclash/internal/services/match/storage"
)

// Match outcomes as reported to the player collaborator.
const (
	OutcomeWin  = "win"
	OutcomeLoss = "loss"
	OutcomeDraw = "draw"
)

// Notifier delivers best-effort events to a possibly offline player. Delivery
// failures are tolerated; the match state already committed.
type Notifier interface {
	OpponentJoined(ctx context.Context, playerID, matchID string, opponentID string) error
	OpponentTurnEnded(ctx context.Context, playerID, matchID string, round int, answers []match.Answer) error
	GameEnded(ctx context.Context, playerID, matchID string, outcome string) error
	GameExpired(ctx context.Context, playerID, matchID string, outcome string) error
}

// Players is the progression/economy collaborator as the match actor needs
// it. Implemented by the player service through a thin adapter.
type Players interface {
	Score(ctx context.Context, playerID string) (int, error)
	RoundResult(ctx context.Context, playerID string, outcome string) error
	GameResult(ctx context.Context, playerID, matchID string, outcome string, opponentScore int, vsBot bool) error
	Charge(ctx context.Context, playerID string, price int) error
	// RecentOutcomes lists the player's latest match outcomes newest-first.
	RecentOutcomes(ctx context.Context, playerID string, limit int) ([]string, error)
}

// WordStats absorbs word usage counts. Calls must not block.
type WordStats interface {
	AddPlay(category, word string)
}

// Deps carries everything a match entity needs. Zero optional fields fall
// back to production defaults.
type Deps struct {
	Store    storage.Store
	Config   *words.Holder
	Notifier Notifier
	Players  Players
	Stats    WordStats
	Scorer   match.Scorer

	// Now, Rand, Logf and BotDelay exist for tests.
	Now      func() time.Time
	Rand     *rand.Rand
	Logf     func(format string, args ...any)
	BotDelay func() time.Duration
}

func (d Deps) withDefaults() Deps {
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Rand == nil {
		d.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if d.Logf == nil {
		d.Logf = log.Printf
	}
	if d.BotDelay == nil {
		d.BotDelay = func() time.Duration {
			return 2*time.Second + time.Duration(rand.Int64N(int64(3*time.Second)))
		}
	}
	return d
}
