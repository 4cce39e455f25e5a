package app

import (
	"context"
	"sync"

	apperrors "github.com/louisbranch/wordclash/internal/platform/errors"
)

// Matchmaking pairs players into matches through one serialized queue of
// waiting match IDs. All pairing decisions run under a single lock, so there
// is no shared mutable "pending match" anywhere else.
type Matchmaking struct {
	registry *Registry

	mu      sync.Mutex
	waiting []string
}

// NewMatchmaking creates the pairing entity over the given registry.
func NewMatchmaking(registry *Registry) *Matchmaking {
	return &Matchmaking{registry: registry}
}

// FindResult reports how a player entered a match.
type FindResult struct {
	MatchID string
	// Joined is true when the player filled the open slot of a waiting
	// match; false when a new match was created and now waits for an
	// opponent.
	Joined bool
}

// Find joins the oldest compatible waiting match, or creates a new waiting
// match when none fits. A player's own waiting match is never offered back
// to them.
func (m *Matchmaking) Find(ctx context.Context, playerID string) (FindResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	remaining := m.waiting[:0]
	var found *FindResult
	for i, matchID := range m.waiting {
		if found != nil {
			remaining = append(remaining, m.waiting[i:]...)
			break
		}
		entity, err := m.registry.Get(ctx, matchID)
		if err != nil {
			// A vanished match silently drops out of the queue.
			continue
		}
		err = entity.Join(ctx, playerID)
		if err == nil {
			found = &FindResult{MatchID: matchID, Joined: true}
			continue
		}
		switch apperrors.CodeOf(err) {
		case apperrors.CodeMatchSelfPlay:
			// Keep the player's own match waiting for someone else.
			remaining = append(remaining, matchID)
		case apperrors.CodeMatchNotJoinable:
			// Already filled or finished; drop from the queue.
		default:
			return FindResult{}, err
		}
	}
	m.waiting = remaining
	if found != nil {
		return *found, nil
	}

	entity, err := m.registry.Create(ctx, playerID, false)
	if err != nil {
		return FindResult{}, err
	}
	m.waiting = append(m.waiting, entity.ID())
	return FindResult{MatchID: entity.ID(), Joined: false}, nil
}

// StartBotMatch creates a match against the synthetic opponent, bypassing
// the queue.
func (m *Matchmaking) StartBotMatch(ctx context.Context, playerID string) (string, error) {
	entity, err := m.registry.Create(ctx, playerID, true)
	if err != nil {
		return "", err
	}
	return entity.ID(), nil
}
