package app_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/louisbranch/wordclash/internal/services/match/app"
	"github.com/louisbranch/wordclash/internal/services/match/storage"
)

func TestSchedulerDeliversDueWakes(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	// The scheduler reads the real clock, so reminders are placed relative
	// to it rather than the entities' fake clock.
	now := time.Now()
	if err := e.store.ScheduleWake(ctx, "due-1", now.Add(-time.Minute)); err != nil {
		t.Fatalf("schedule wake: %v", err)
	}
	if err := e.store.ScheduleWake(ctx, "due-2", now.Add(-time.Second)); err != nil {
		t.Fatalf("schedule wake: %v", err)
	}
	if err := e.store.ScheduleWake(ctx, "later", now.Add(time.Hour)); err != nil {
		t.Fatalf("schedule wake: %v", err)
	}

	var mu sync.Mutex
	woken := map[string]int{}
	scheduler := app.NewScheduler(e.store, func(_ context.Context, matchID string) error {
		mu.Lock()
		defer mu.Unlock()
		woken[matchID]++
		// Handled wakes release their reminder, like a real entity does.
		return e.store.ClearWake(ctx, matchID)
	}, time.Minute)

	scheduler.Tick(ctx)
	mu.Lock()
	if woken["due-1"] != 1 || woken["due-2"] != 1 {
		t.Fatalf("woken = %v, want both due wakes delivered once", woken)
	}
	if woken["later"] != 0 {
		t.Fatalf("woken = %v, future wake must not deliver", woken)
	}
	mu.Unlock()

	// Handled wakes are gone; a second tick delivers nothing new.
	scheduler.Tick(ctx)
	mu.Lock()
	if woken["due-1"] != 1 || woken["due-2"] != 1 {
		t.Fatalf("woken = %v, want no redelivery after clear", woken)
	}
	mu.Unlock()
}

func TestSchedulerRetriesFailedWake(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	ctx := context.Background()

	if err := e.store.ScheduleWake(ctx, "stuck", time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("schedule wake: %v", err)
	}

	var mu sync.Mutex
	attempts := 0
	scheduler := app.NewScheduler(e.store, func(context.Context, string) error {
		mu.Lock()
		defer mu.Unlock()
		attempts++
		return storage.ErrNotFound
	}, time.Minute)

	scheduler.Tick(ctx)
	scheduler.Tick(ctx)
	mu.Lock()
	defer mu.Unlock()
	if attempts != 2 {
		t.Fatalf("attempts = %d, want a retry on every tick while the wake stays due", attempts)
	}
}
