package app

import (
	"context"
	"sync"
	"time"
)

// defaultIdleAfter is how long an entity may sit unused before the sweep
// deactivates it.
const defaultIdleAfter = 10 * time.Minute

// Registry maps match IDs to live entities. Activation loads persisted state
// and re-arms deadlines; deactivation just stops the actor, since every
// mutation already persisted.
type Registry struct {
	deps      Deps
	idleAfter time.Duration

	mu         sync.Mutex
	entities   map[string]*Entity
	activating map[string]*activation
}

// activation is one in-flight ActivateEntity call. Concurrent Gets for the
// same match wait on it instead of loading a second copy; two live copies
// would each replay persisted deadlines against their own fence.
type activation struct {
	done   chan struct{}
	entity *Entity
	err    error
}

// NewRegistry creates an entity registry. idleAfter <= 0 selects the
// default.
func NewRegistry(deps Deps, idleAfter time.Duration) *Registry {
	if idleAfter <= 0 {
		idleAfter = defaultIdleAfter
	}
	return &Registry{
		deps:       deps.withDefaults(),
		idleAfter:  idleAfter,
		entities:   make(map[string]*Entity),
		activating: make(map[string]*activation),
	}
}

// Create provisions a new match owned by creatorID.
func (r *Registry) Create(ctx context.Context, creatorID string, vsBot bool) (*Entity, error) {
	entity, err := CreateEntity(ctx, r.deps, creatorID, vsBot)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.entities[entity.ID()] = entity
	r.mu.Unlock()
	return entity, nil
}

// Get returns the live entity for a match, activating it if needed. At most
// one activation runs per match; concurrent callers share its result.
func (r *Registry) Get(ctx context.Context, matchID string) (*Entity, error) {
	r.mu.Lock()
	if entity, ok := r.entities[matchID]; ok {
		r.mu.Unlock()
		return entity, nil
	}
	if act, ok := r.activating[matchID]; ok {
		r.mu.Unlock()
		select {
		case <-act.done:
			return act.entity, act.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	act := &activation{done: make(chan struct{})}
	r.activating[matchID] = act
	r.mu.Unlock()

	entity, err := ActivateEntity(ctx, r.deps, matchID)
	r.mu.Lock()
	delete(r.activating, matchID)
	if err == nil {
		r.entities[matchID] = entity
	}
	r.mu.Unlock()

	act.entity, act.err = entity, err
	close(act.done)
	return entity, err
}

// Wake delivers a durable reminder to a match, activating it if needed.
func (r *Registry) Wake(ctx context.Context, matchID string) error {
	entity, err := r.Get(ctx, matchID)
	if err != nil {
		return err
	}
	return entity.Wake(ctx)
}

// SweepIdle deactivates entities unused since the idle cutoff and reports
// how many were stopped.
func (r *Registry) SweepIdle() int {
	cutoff := r.deps.Now().Add(-r.idleAfter)
	r.mu.Lock()
	defer r.mu.Unlock()

	stopped := 0
	for matchID, entity := range r.entities {
		if entity.IdleSince().Before(cutoff) {
			entity.Close()
			delete(r.entities, matchID)
			stopped++
		}
	}
	return stopped
}

// RunSweeper periodically deactivates idle entities until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.SweepIdle()
		}
	}
}

// Close deactivates every live entity.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for matchID, entity := range r.entities {
		entity.Close()
		delete(r.entities, matchID)
	}
}

// Len reports the number of live entities.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entities)
}
