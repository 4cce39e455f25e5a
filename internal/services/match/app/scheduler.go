package app

import (
	"context"
	"log"
	"time"

	"github.com/louisbranch/wordclash/internal/services/match/storage"
)

const (
	defaultPollInterval = 15 * time.Second
	wakeBatchSize       = 64
)

// Scheduler polls the durable reminder table and redelivers wakes to their
// owning entities. Entities clear their own reminders once handled, so a
// wake that fails to deliver simply stays due and is retried next poll.
// Duplicate deliveries are harmless by entity design.
type Scheduler struct {
	reminders storage.ReminderStore
	wake      func(ctx context.Context, matchID string) error
	interval  time.Duration
	now       func() time.Time
	logf      func(format string, args ...any)
}

// NewScheduler creates a reminder scheduler delivering wakes through the
// given function, normally Registry.Wake.
func NewScheduler(reminders storage.ReminderStore, wake func(ctx context.Context, matchID string) error, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Scheduler{
		reminders: reminders,
		wake:      wake,
		interval:  interval,
		now:       time.Now,
		logf:      log.Printf,
	}
}

// Run polls until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick delivers every currently due wake once.
func (s *Scheduler) Tick(ctx context.Context) {
	wakes, err := s.reminders.DueWakes(ctx, s.now(), wakeBatchSize)
	if err != nil {
		s.logf("scheduler: list due wakes: %v", err)
		return
	}
	for _, wake := range wakes {
		if err := s.wake(ctx, wake.MatchID); err != nil {
			s.logf("scheduler: wake match %s: %v", wake.MatchID, err)
		}
	}
}
