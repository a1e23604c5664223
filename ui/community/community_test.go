package community

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/session"
	"github.com/recomendo/recomendo/store"
)

// followServer answers just enough of the API for follow mutations:
// an identity for Resolve plus accepting follow/unfollow calls.
func followServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/me", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user_id": 7, "user_name": "me"}`))
	})
	mux.HandleFunc("/follows", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("/follows/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return httptest.NewServer(mux)
}

func authedSession(t *testing.T, baseURL string) *session.Session {
	t.Helper()
	client := api.NewClient(baseURL)
	cache := store.NewCache()
	sess := session.New(client, cache, session.NewMemoryTokenStore("token"))
	if state := sess.Resolve(context.Background()); state != session.Authenticated {
		t.Fatalf("Expected an authenticated session, got %v", state)
	}
	return sess
}

func TestFollowInvalidatesBothEndpointsViews(t *testing.T) {
	srv := followServer(t)
	defer srv.Close()

	sess := authedSession(t, srv.URL)
	cache := sess.Cache()
	target := domain.User{Id: 9, Username: "sam"}

	// Simulate already-viewed per-user lists for both sides of the edge.
	cache.Put(store.FollowersKey(target.Id), []domain.User{})
	cache.Put(store.FollowingsKey(7), []domain.User{})
	cache.Put(store.MyFriendsKey(), []domain.User{})

	msg := followUser(sess, store.NewOrchestrator(cache), target)()
	settled, ok := msg.(followSettledMsg)
	if !ok {
		t.Fatalf("Expected followSettledMsg, got %T", msg)
	}
	if settled.err != nil {
		t.Fatalf("Follow failed: %v", settled.err)
	}

	if !cache.Read(store.FollowersKey(target.Id)).Stale {
		t.Error("The target's followers view should be stale after a follow")
	}
	if !cache.Read(store.FollowingsKey(7)).Stale {
		t.Error("My followings view should be stale after a follow")
	}
	if !cache.Read(store.MyFriendsKey()).Stale {
		t.Error("My friends view should be stale after a follow")
	}
}

func TestUnfollowInvalidatesBothEndpointsViews(t *testing.T) {
	srv := followServer(t)
	defer srv.Close()

	sess := authedSession(t, srv.URL)
	cache := sess.Cache()
	target := domain.User{Id: 9, Username: "sam"}

	cache.Put(store.FollowersKey(target.Id), []domain.User{{Id: 7, Username: "me"}})
	cache.Put(store.FollowingsKey(7), []domain.User{target})
	cache.Put(store.FriendsKey(target.Id), []domain.User{})

	msg := unfollowUser(sess, store.NewOrchestrator(cache), target)()
	settled, ok := msg.(followSettledMsg)
	if !ok {
		t.Fatalf("Expected followSettledMsg, got %T", msg)
	}
	if settled.err != nil {
		t.Fatalf("Unfollow failed: %v", settled.err)
	}

	if !cache.Read(store.FollowersKey(target.Id)).Stale {
		t.Error("The target's followers view should be stale after an unfollow")
	}
	if !cache.Read(store.FollowingsKey(7)).Stale {
		t.Error("My followings view should be stale after an unfollow")
	}
	if !cache.Read(store.FriendsKey(target.Id)).Stale {
		t.Error("The target's friends view should be stale after an unfollow")
	}
}

func TestFollowEdgeKeysCoverBothEndpoints(t *testing.T) {
	srv := followServer(t)
	defer srv.Close()

	sess := authedSession(t, srv.URL)
	target := domain.User{Id: 9, Username: "sam"}

	keys := followEdgeKeys(sess, target, store.FeedKey())

	want := []string{
		store.MyFollowingsKey().String(),
		store.MyFriendsKey().String(),
		store.FollowersKey(9).String(),
		store.FriendsKey(9).String(),
		store.FollowingsKey(7).String(),
		store.FriendsKey(7).String(),
		store.FeedKey().String(),
	}
	have := map[string]bool{}
	for _, k := range keys {
		have[k.String()] = true
	}
	for _, w := range want {
		if !have[w] {
			t.Errorf("Missing invalidation key %s in %s", w, keyList(keys))
		}
	}
}

func keyList(keys []store.Key) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k.String())
	}
	return strings.Join(parts, ", ")
}
