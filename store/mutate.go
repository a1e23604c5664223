package store

import (
	"context"
)

// Patch is one optimistic cache edit. Update gets the current value (nil
// when the view was never loaded) and returns the replacement. Optimistic
// patches are only ever membership edits (am I following this user); never
// patch aggregate counters — concurrent optimistic counter math cannot be
// reconciled with an unknown number of concurrent writers.
type Patch struct {
	Key    Key
	Update func(old any, loaded bool) any
}

// Mutation is one write against the server plus its cache effects.
type Mutation struct {
	// Run performs the network call.
	Run func(ctx context.Context) error
	// Optimistic patches are applied before Run and rolled back when it fails.
	Optimistic []Patch
	// Invalidate lists the key prefixes whose views the mutation can affect.
	// They are invalidated exactly once on settlement, success or failure,
	// so authoritative data always replaces local guesses.
	Invalidate []Key
}

// Orchestrator gives every mutation the same snapshot / rollback / settle
// guarantee instead of bespoke handling per call site.
type Orchestrator struct {
	cache *Cache
}

func NewOrchestrator(cache *Cache) *Orchestrator {
	return &Orchestrator{cache: cache}
}

type snapshot struct {
	key    Key
	entry  entry
	exists bool
}

// Mutate applies optimistic patches, runs the operation, restores the
// snapshots on failure, and invalidates on settlement. Rollback runs
// before invalidation so consumers never observe a guess the server has
// already refuted.
func (o *Orchestrator) Mutate(ctx context.Context, m Mutation) error {
	snaps := o.takeSnapshots(m.Optimistic)

	for _, p := range m.Optimistic {
		o.cache.Write(p.Key, p.Update)
	}

	err := m.Run(ctx)

	if err != nil && len(snaps) > 0 {
		o.restoreSnapshots(snaps)
	}

	for _, key := range m.Invalidate {
		o.cache.Invalidate(key)
	}

	return err
}

func (o *Orchestrator) takeSnapshots(patches []Patch) []snapshot {
	if len(patches) == 0 {
		return nil
	}

	o.cache.mu.RLock()
	defer o.cache.mu.RUnlock()

	snaps := make([]snapshot, 0, len(patches))
	for _, p := range patches {
		e, ok := o.cache.entries[p.Key.String()]
		s := snapshot{key: p.Key, exists: ok}
		if ok {
			s.entry = *e
		}
		snaps = append(snaps, s)
	}
	return snaps
}

func (o *Orchestrator) restoreSnapshots(snaps []snapshot) {
	o.cache.mu.Lock()
	for _, s := range snaps {
		if s.exists {
			restored := s.entry
			// Keep the live invalidation count; a rollback must not
			// resurrect a pre-invalidation generation.
			if cur, ok := o.cache.entries[s.key.String()]; ok {
				restored.gen = cur.gen
			}
			o.cache.entries[s.key.String()] = &restored
		} else {
			delete(o.cache.entries, s.key.String())
		}
	}
	o.cache.mu.Unlock()

	for _, s := range snaps {
		o.cache.notify(s.key)
	}
}
