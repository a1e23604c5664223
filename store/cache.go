package store

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// Entry is a read snapshot of one cached view. Data stays populated after
// a failed refresh (stale-while-error); consumers decide whether to show
// the stale value, the error, or both.
type Entry struct {
	Data    any
	Err     error
	Stale   bool
	Loading bool
	Loaded  bool
}

type entry struct {
	key     Key
	data    any
	err     error
	stale   bool
	loading bool
	loaded  bool
	// gen counts invalidations. A fetch that started before an
	// invalidation must not mark the entry fresh on write-back.
	gen int
}

// Cache is the single process-wide store of fetched server entities.
// Entries are fresh until explicitly invalidated; there is no TTL, because
// consistency in this domain is event-driven: a mutation invalidates exactly
// the views it can affect. Construct one per TUI instance so tests (and SSH
// sessions) get isolated state.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*entry
	flight  singleflight.Group

	subMu   sync.Mutex
	subs    map[int]func(Key)
	nextSub int
}

func NewCache() *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		subs:    make(map[int]func(Key)),
	}
}

// Subscribe registers a callback invoked (outside the cache lock) whenever
// an entry changes or is invalidated. Returns an unsubscribe func.
func (c *Cache) Subscribe(fn func(Key)) func() {
	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	c.subMu.Unlock()

	return func() {
		c.subMu.Lock()
		delete(c.subs, id)
		c.subMu.Unlock()
	}
}

func (c *Cache) notify(key Key) {
	c.subMu.Lock()
	fns := make([]func(Key), 0, len(c.subs))
	for _, fn := range c.subs {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(key)
	}
}

// Read returns the current snapshot for a key, without fetching.
func (c *Cache) Read(key Key) Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key.String()]
	if !ok {
		return Entry{}
	}
	return Entry{Data: e.data, Err: e.err, Stale: e.stale, Loading: e.loading, Loaded: e.loaded}
}

// Fetch reads through the cache: a fresh entry is returned as-is, anything
// else triggers the loader. Concurrent fetches of the same key share one
// loader call and all observe its result. A failed load keeps the previous
// data and records the error alongside it.
func (c *Cache) Fetch(ctx context.Context, key Key, loader func(ctx context.Context) (any, error)) (any, error) {
	ks := key.String()

	c.mu.Lock()
	e, ok := c.entries[ks]
	if ok && e.loaded && !e.stale {
		data := e.data
		c.mu.Unlock()
		return data, nil
	}
	if !ok {
		e = &entry{key: key}
		c.entries[ks] = e
	}
	e.loading = true
	startGen := e.gen
	c.mu.Unlock()
	c.notify(key)

	data, err, _ := c.flight.Do(ks, func() (any, error) {
		return loader(ctx)
	})

	c.mu.Lock()
	e, ok = c.entries[ks]
	if !ok {
		// Entry evicted mid-flight; re-create so the result is not lost.
		e = &entry{key: key}
		c.entries[ks] = e
	}
	e.loading = false
	if err != nil {
		e.err = err
	} else {
		e.data = data
		e.err = nil
		e.loaded = true
		// Only a load that saw no invalidation since it started may
		// clear staleness; otherwise the result is already outdated.
		if e.gen == startGen {
			e.stale = false
		}
	}
	prev := e.data
	c.mu.Unlock()
	c.notify(key)

	if err != nil {
		return prev, err
	}
	return data, nil
}

// Write applies a synchronous local patch. The updater receives the current
// value (nil when the entry was never loaded) and must return a NEW value
// rather than mutating the old one in place, so rollbacks can restore the
// untouched original.
func (c *Cache) Write(key Key, update func(old any, loaded bool) any) {
	ks := key.String()

	c.mu.Lock()
	e, ok := c.entries[ks]
	if !ok {
		e = &entry{key: key}
		c.entries[ks] = e
	}
	e.data = update(e.data, e.loaded)
	e.loaded = true
	c.mu.Unlock()

	c.notify(key)
}

// Put replaces the value for a key outright.
func (c *Cache) Put(key Key, data any) {
	c.Write(key, func(any, bool) any { return data })
}

// Drop removes an entry entirely (used on logout to clear identity views).
func (c *Cache) Drop(key Key) {
	c.mu.Lock()
	delete(c.entries, key.String())
	c.mu.Unlock()
	c.notify(key)
}

// Invalidate marks every entry under the prefix stale and notifies
// subscribers, so currently mounted consumers refetch. Unknown prefixes
// are a no-op.
func (c *Cache) Invalidate(prefix Key) {
	c.mu.Lock()
	var touched []Key
	for _, e := range c.entries {
		if e.key.HasPrefix(prefix) {
			e.stale = true
			e.gen++
			touched = append(touched, e.key)
		}
	}
	c.mu.Unlock()

	for _, key := range touched {
		c.notify(key)
	}
}

// FetchAs is a typed wrapper over Cache.Fetch.
func FetchAs[T any](ctx context.Context, c *Cache, key Key, loader func(ctx context.Context) (T, error)) (T, error) {
	data, err := c.Fetch(ctx, key, func(ctx context.Context) (any, error) {
		return loader(ctx)
	})
	if data == nil {
		var zero T
		return zero, err
	}
	v, ok := data.(T)
	if !ok {
		var zero T
		return zero, err
	}
	return v, err
}

// ReadAs returns the typed snapshot value for a key, when present.
func ReadAs[T any](c *Cache, key Key) (T, Entry) {
	e := c.Read(key)
	v, _ := e.Data.(T)
	return v, e
}
