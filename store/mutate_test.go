package store

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func appendUser(name string) func(old any, loaded bool) any {
	return func(old any, loaded bool) any {
		if !loaded {
			return []string{name}
		}
		prev := old.([]string)
		next := make([]string, 0, len(prev)+1)
		next = append(next, prev...)
		return append(next, name)
	}
}

func TestOptimisticPatchApplied(t *testing.T) {
	cache := NewCache()
	orch := NewOrchestrator(cache)
	cache.Put(MyFollowingsKey(), []string{"alice"})

	var observed any
	err := orch.Mutate(context.Background(), Mutation{
		Run: func(ctx context.Context) error {
			// The patch must be visible before the network call resolves.
			observed = cache.Read(MyFollowingsKey()).Data
			return nil
		},
		Optimistic: []Patch{{Key: MyFollowingsKey(), Update: appendUser("bob")}},
		Invalidate: []Key{MyFollowingsKey()},
	})
	if err != nil {
		t.Fatalf("Mutate failed: %v", err)
	}

	if !reflect.DeepEqual(observed, []string{"alice", "bob"}) {
		t.Errorf("Expected optimistic value during flight, got %v", observed)
	}

	if !cache.Read(MyFollowingsKey()).Stale {
		t.Error("Entry should be invalidated after settlement")
	}
}

func TestRollbackExactness(t *testing.T) {
	cache := NewCache()
	orch := NewOrchestrator(cache)

	before := []string{"alice", "bob"}
	cache.Put(MyFollowingsKey(), before)

	boom := errors.New("follow rejected")
	err := orch.Mutate(context.Background(), Mutation{
		Run:        func(ctx context.Context) error { return boom },
		Optimistic: []Patch{{Key: MyFollowingsKey(), Update: appendUser("carol")}},
		Invalidate: []Key{MyFollowingsKey(), FollowersKey(9)},
	})

	if !errors.Is(err, boom) {
		t.Fatalf("Expected mutation error to surface, got %v", err)
	}

	after := cache.Read(MyFollowingsKey()).Data
	if !reflect.DeepEqual(after, before) {
		t.Errorf("Expected exact rollback to %v, got %v", before, after)
	}
}

func TestRollbackRemovesCreatedEntry(t *testing.T) {
	cache := NewCache()
	orch := NewOrchestrator(cache)

	err := orch.Mutate(context.Background(), Mutation{
		Run:        func(ctx context.Context) error { return errors.New("nope") },
		Optimistic: []Patch{{Key: MyFollowingsKey(), Update: appendUser("carol")}},
	})
	if err == nil {
		t.Fatal("Expected mutation error")
	}

	e := cache.Read(MyFollowingsKey())
	if e.Loaded || e.Data != nil {
		t.Errorf("Entry created by the optimistic patch should be gone, got %+v", e)
	}
}

func TestInvalidationRunsOnFailureToo(t *testing.T) {
	cache := NewCache()
	orch := NewOrchestrator(cache)
	cache.Put(FollowersKey(9), "something")

	orch.Mutate(context.Background(), Mutation{
		Run:        func(ctx context.Context) error { return errors.New("nope") },
		Invalidate: []Key{FollowersKey(9)},
	})

	if !cache.Read(FollowersKey(9)).Stale {
		t.Error("Invalidation must run on settlement even when the mutation fails")
	}
}

func TestInvalidateOnlyMutation(t *testing.T) {
	cache := NewCache()
	orch := NewOrchestrator(cache)
	cache.Put(TopMediaKey(), "aggregates")

	ran := false
	err := orch.Mutate(context.Background(), Mutation{
		Run:        func(ctx context.Context) error { ran = true; return nil },
		Invalidate: []Key{TopMediaKey()},
	})
	if err != nil || !ran {
		t.Fatalf("Mutation should run: err=%v ran=%v", err, ran)
	}

	e := cache.Read(TopMediaKey())
	if e.Data != "aggregates" {
		t.Error("An invalidate-only mutation must not touch cached data locally")
	}
	if !e.Stale {
		t.Error("Aggregate views must be refetched, so the entry must be stale")
	}
}

func TestRollbackBeforeInvalidate(t *testing.T) {
	cache := NewCache()
	orch := NewOrchestrator(cache)
	cache.Put(MyFollowingsKey(), []string{"alice"})

	var order []string
	unsub := cache.Subscribe(func(key Key) {
		e := cache.Read(key)
		switch {
		case e.Stale:
			order = append(order, "invalidate")
		default:
			order = append(order, "write")
		}
	})
	defer unsub()

	orch.Mutate(context.Background(), Mutation{
		Run:        func(ctx context.Context) error { return errors.New("nope") },
		Optimistic: []Patch{{Key: MyFollowingsKey(), Update: appendUser("bob")}},
		Invalidate: []Key{MyFollowingsKey()},
	})

	if len(order) < 3 || order[len(order)-1] != "invalidate" {
		t.Errorf("Expected patch, rollback, then invalidate; saw %v", order)
	}
	for _, step := range order[:len(order)-1] {
		if step == "invalidate" {
			t.Errorf("Invalidation observed before settlement completed: %v", order)
		}
	}
}
