package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/louisbranch/wordclash/internal/services/match/app"
	"github.com/louisbranch/wordclash/internal/services/match/storage"
)

func newTestRegistry(t *testing.T, e *env) *app.Registry {
	t.Helper()
	registry := app.NewRegistry(e.deps, time.Hour)
	t.Cleanup(registry.Close)
	return registry
}

func TestMatchmakingPairsPlayers(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	mm := app.NewMatchmaking(newTestRegistry(t, e))

	first, err := mm.Find(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if first.Joined {
		t.Fatal("first player should open a new waiting match")
	}

	second, err := mm.Find(ctx, "bob")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if !second.Joined || second.MatchID != first.MatchID {
		t.Fatalf("second find = %+v, want to join %s", second, first.MatchID)
	}

	record := e.store.record(t, first.MatchID)
	if record.State != storage.StateInProgress {
		t.Fatalf("state = %q, want %q", record.State, storage.StateInProgress)
	}
	if record.Players != [2]string{"alice", "bob"} {
		t.Fatalf("players = %v", record.Players)
	}
}

func TestMatchmakingNeverPairsWithSelf(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	mm := app.NewMatchmaking(newTestRegistry(t, e))

	first, err := mm.Find(ctx, "alice")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	again, err := mm.Find(ctx, "alice")
	if err != nil {
		t.Fatalf("second find: %v", err)
	}
	if again.Joined || again.MatchID == first.MatchID {
		t.Fatalf("second find = %+v, must not join own match", again)
	}

	// Both of alice's matches stay in the queue; bob fills the oldest.
	joined, err := mm.Find(ctx, "bob")
	if err != nil {
		t.Fatalf("bob find: %v", err)
	}
	if !joined.Joined || joined.MatchID != first.MatchID {
		t.Fatalf("bob find = %+v, want to join %s", joined, first.MatchID)
	}
}

func TestRegistryActivatesAndSweeps(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()
	registry := newTestRegistry(t, e)

	entity, err := registry.Create(ctx, "alice", false)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	matchID := entity.ID()
	if registry.Len() != 1 {
		t.Fatalf("live entities = %d, want 1", registry.Len())
	}

	same, err := registry.Get(ctx, matchID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if same != entity {
		t.Fatal("get must return the live entity, not a new activation")
	}

	// Advance past the idle cutoff; the sweep drops the entity, and the
	// next access reactivates it from storage.
	e.clock.advance(2 * time.Hour)
	if stopped := registry.SweepIdle(); stopped != 1 {
		t.Fatalf("swept = %d, want 1", stopped)
	}
	if registry.Len() != 0 {
		t.Fatalf("live entities = %d, want 0", registry.Len())
	}

	revived, err := registry.Get(ctx, matchID)
	if err != nil {
		t.Fatalf("reactivate: %v", err)
	}
	if revived == entity {
		t.Fatal("expected a fresh activation after the sweep")
	}
	if err := revived.Join(ctx, "bob"); err != nil {
		t.Fatalf("join after reactivation: %v", err)
	}
}

func TestRegistryWakeUnknownMatch(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	registry := newTestRegistry(t, e)

	if err := registry.Wake(context.Background(), "missing"); err == nil {
		t.Fatal("expected an error waking an unknown match")
	}
}
