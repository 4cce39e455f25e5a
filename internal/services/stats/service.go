// Package stats tracks how often words are played per category and scores
// words by crowd rarity.
package stats

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/louisbranch/wordclash/internal/services/stats/storage"
)

// Crowd score bounds. A word nobody plays earns the maximum, a word everyone
// plays earns the minimum.
const (
	MinCrowdScore = 1
	MaxCrowdScore = 10
)

// play is one queued usage increment.
type play struct {
	category string
	word     string
	delta    int64
}

// Service scores words against crowd usage and absorbs play counts in the
// background. Counting must never slow a turn down, so AddPlay queues and
// returns immediately.
type Service struct {
	store storage.Store
	logf  func(format string, args ...any)

	queue chan play
	done  chan struct{}

	mu     sync.Mutex
	closed bool
}

// New creates a stats service and starts its background counter.
func New(store storage.Store) *Service {
	s := &Service{
		store: store,
		logf:  log.Printf,
		queue: make(chan play, 256),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

func (s *Service) run() {
	defer close(s.done)
	for p := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.store.AddPlays(ctx, p.category, p.word, p.delta); err != nil {
			s.logf("stats: count %q in %q: %v", p.word, p.category, err)
		}
		cancel()
	}
}

// Close stops accepting plays and waits for the queue to drain.
func (s *Service) Close() {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()
	<-s.done
}

// AddPlay records one use of a word. The increment is queued and applied in
// the background; a full queue drops the play rather than blocking the
// caller's turn.
func (s *Service) AddPlay(category, word string) {
	s.AddDelta(category, word, 1)
}

// AddDelta queues a signed usage adjustment. Plays racing shutdown are
// dropped; the queue never blocks and never panics.
func (s *Service) AddDelta(category, word string, delta int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logf("stats: closed, dropping count for %q in %q", word, category)
		return
	}
	select {
	case s.queue <- play{category: category, word: word, delta: delta}:
	default:
		s.logf("stats: queue full, dropping count for %q in %q", word, category)
	}
}

// Score rates a word by rarity among all plays recorded for the category. An
// unseen word or an empty category earns the maximum.
func (s *Service) Score(ctx context.Context, category, word string) (int, error) {
	plays, total, err := s.store.Usage(ctx, category, word)
	if err != nil {
		return 0, fmt.Errorf("score word: %w", err)
	}
	if total == 0 || plays == 0 {
		return MaxCrowdScore, nil
	}

	share := float64(plays) / float64(total)
	score := MaxCrowdScore - int(share*float64(MaxCrowdScore-MinCrowdScore))
	if score < MinCrowdScore {
		score = MinCrowdScore
	}
	return score, nil
}
