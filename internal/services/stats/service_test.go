package stats_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/louisbranch/wordclash/internal/services/stats"
	"github.com/louisbranch/wordclash/internal/services/stats/storage/sqlite"
)

func newTestService(t *testing.T) (*stats.Service, *sqlite.Store) {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "stats.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return stats.New(store), store
}

func TestScoreRewardsRarity(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	ctx := context.Background()

	// One dominant word, one rare word.
	if err := store.AddPlays(ctx, "Fruits", "apple", 90); err != nil {
		t.Fatalf("add plays: %v", err)
	}
	if err := store.AddPlays(ctx, "Fruits", "durian", 10); err != nil {
		t.Fatalf("add plays: %v", err)
	}

	common, err := svc.Score(ctx, "Fruits", "apple")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	rare, err := svc.Score(ctx, "Fruits", "durian")
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	if common >= rare {
		t.Fatalf("common word scored %d, rare word %d; rarity must pay more", common, rare)
	}
	if common < stats.MinCrowdScore || rare > stats.MaxCrowdScore {
		t.Fatalf("scores %d and %d outside [%d, %d]", common, rare, stats.MinCrowdScore, stats.MaxCrowdScore)
	}
}

func TestScoreUnseenWordIsMax(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	ctx := context.Background()

	score, err := svc.Score(ctx, "Fruits", "durian")
	if err != nil {
		t.Fatalf("score empty category: %v", err)
	}
	if score != stats.MaxCrowdScore {
		t.Fatalf("score = %d, want %d", score, stats.MaxCrowdScore)
	}

	if err := store.AddPlays(ctx, "Fruits", "apple", 5); err != nil {
		t.Fatalf("add plays: %v", err)
	}
	score, err = svc.Score(ctx, "Fruits", "durian")
	if err != nil {
		t.Fatalf("score unseen word: %v", err)
	}
	if score != stats.MaxCrowdScore {
		t.Fatalf("score = %d, want %d", score, stats.MaxCrowdScore)
	}
}

func TestAddPlayDrainsOnClose(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 10; i++ {
		svc.AddPlay("Fruits", "apple")
	}
	svc.AddDelta("Fruits", "apple", -2)
	svc.Close()

	plays, total, err := store.Usage(ctx, "Fruits", "apple")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if plays != 8 {
		t.Fatalf("plays = %d, want 8", plays)
	}
	if total != 8 {
		t.Fatalf("total = %d, want 8", total)
	}
}

func TestAddPlayAfterCloseIsDropped(t *testing.T) {
	t.Parallel()
	svc, store := newTestService(t)
	ctx := context.Background()

	svc.AddPlay("Fruits", "apple")
	svc.Close()

	// Entities still finishing a turn during shutdown may report plays
	// after the queue closed; they must be dropped, not panic.
	svc.AddPlay("Fruits", "banana")
	svc.Close()

	plays, total, err := store.Usage(ctx, "Fruits", "apple")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if plays != 1 || total != 1 {
		t.Fatalf("plays, total = %d, %d, want 1, 1", plays, total)
	}
}
