// Package storage declares the persistence contracts the match service
// consumes. Implementations live in subpackages; the actor runtime only
// depends on these interfaces.
package storage

import (
	"context"
	"time"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
	"github.com/louisbranch/wordclash/internal/services/match/domain/match"
)

// ErrNotFound indicates a requested persistence record is missing.
// Callers use this to differentiate between legitimate "no such match" states
// and transport or data corruption failures.
var ErrNotFound = apperrors.New(apperrors.CodeNotFound, "record not found")

// MatchState is the durable lifecycle state of one match.
type MatchState string

const (
	// StateNew is a match created but not yet open for a second player.
	StateNew MatchState = "new"
	// StateWaiting is a match waiting for a second player to join.
	StateWaiting MatchState = "waiting_for_second_player"
	// StateInProgress is a match both players are actively playing.
	StateInProgress MatchState = "in_progress"
	// StateFinished is a completed match retained for history.
	StateFinished MatchState = "finished"
	// StateExpired is a match forfeited for inactivity.
	StateExpired MatchState = "expired"
)

// MatchRecord is the flat durable state of one match entity: the engine
// snapshot plus the actor-level bookkeeping that must survive restarts.
type MatchRecord struct {
	ID    string     `json:"id"`
	State MatchState `json:"state"`

	// Players holds slot 0 = creator, slot 1 = joiner (empty until joined).
	Players [2]string `json:"players"`

	// Fence is the per-player high-water mark of round indices whose
	// end-of-turn side effects already ran. -1 before any round ends.
	Fence [2]int `json:"fence"`

	// RoundsSettled counts rounds whose win/loss/draw statistics were
	// reported to both players. Never exceeds the completed round count.
	RoundsSettled int `json:"rounds_settled"`

	// Per-round consumable counters, reset whenever a new round opens.
	TimeExtensions [2]int `json:"time_extensions"`
	WordsRevealed  [2]int `json:"words_revealed"`

	// Per-match totals driving the escalating consumable price ladders.
	TimeExtensionsTotal [2]int `json:"time_extensions_total"`
	WordsRevealedTotal  [2]int `json:"words_revealed_total"`

	// Group-choice sub-state, active only while a category is unassigned.
	GroupChooser   int      `json:"group_chooser"`
	GroupChoices   []string `json:"group_choices,omitempty"`
	GroupRefreshes int      `json:"group_refreshes"`

	// UsedCategories lists categories already assigned earlier in the
	// match; they are excluded from later draws.
	UsedCategories []string `json:"used_categories,omitempty"`

	// BotOpponent marks slot 1 as a synthetic player the entity plays.
	BotOpponent bool `json:"bot_opponent,omitempty"`

	Engine match.Snapshot `json:"engine"`

	// ExpiryMs is the inactivity forfeit deadline, zero when unset.
	ExpiryMs int64 `json:"expiry_ms"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MatchStore persists match entity snapshots. Saves are atomic per record.
type MatchStore interface {
	SaveMatch(ctx context.Context, record MatchRecord) error
	GetMatch(ctx context.Context, id string) (MatchRecord, error)
	ListMatchesByPlayer(ctx context.Context, playerID string, limit int) ([]MatchRecord, error)
}

// WakeRecord is one durable scheduled wake-up for a match.
type WakeRecord struct {
	MatchID string
	WakeAt  time.Time
}

// ReminderStore persists the next wake time per match. A lightweight
// scheduler scans it and re-delivers wakes to the owning entity; handlers
// tolerate duplicate and late delivery.
type ReminderStore interface {
	ScheduleWake(ctx context.Context, matchID string, at time.Time) error
	ClearWake(ctx context.Context, matchID string) error
	DueWakes(ctx context.Context, now time.Time, limit int) ([]WakeRecord, error)
}

// Store combines the match service's persistence concerns.
type Store interface {
	MatchStore
	ReminderStore
}
