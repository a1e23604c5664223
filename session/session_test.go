package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/store"
)

const meBody = `{"user_id": 1, "user_name": "alice", "email": "a@b.c", "created_at": "2025-01-01T00:00:00Z"}`

func TestResolveWithoutToken(t *testing.T) {
	var meCalls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&meCalls, 1)
	}))
	defer server.Close()

	s := New(api.NewClient(server.URL), store.NewCache(), NewMemoryTokenStore(""))

	if s.State() != Unknown {
		t.Error("Session should start Unknown")
	}

	if state := s.Resolve(context.Background()); state != Anonymous {
		t.Errorf("Expected Anonymous without a token, got %v", state)
	}

	if atomic.LoadInt64(&meCalls) != 0 {
		t.Error("No token means no /me call")
	}
}

func TestResolveValidToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer stored" {
			t.Errorf("Unexpected auth header: %q", r.Header.Get("Authorization"))
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(meBody))
	}))
	defer server.Close()

	cache := store.NewCache()
	s := New(api.NewClient(server.URL), cache, NewMemoryTokenStore("stored"))

	if state := s.Resolve(context.Background()); state != Authenticated {
		t.Fatalf("Expected Authenticated, got %v", state)
	}

	if s.User() == nil || s.User().Username != "alice" {
		t.Errorf("Unexpected user: %+v", s.User())
	}

	if cache.Read(store.MeKey()).Data == nil {
		t.Error("Identity should be written to the cache's me slot")
	}
}

func TestRejectedTokenClearedWithoutRetry(t *testing.T) {
	var meCalls int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&meCalls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	tokens := NewMemoryTokenStore("expired")
	s := New(api.NewClient(server.URL), store.NewCache(), tokens)

	if state := s.Resolve(context.Background()); state != Anonymous {
		t.Fatalf("Expected Anonymous after rejection, got %v", state)
	}

	if tokens.Load() != "" {
		t.Error("Rejected credential must be cleared")
	}

	if s.IsAuthenticated() {
		t.Error("Session must not report authenticated")
	}

	// A second Resolve settles immediately, no retry loop on the dead token.
	s.Resolve(context.Background())
	if got := atomic.LoadInt64(&meCalls); got != 1 {
		t.Errorf("Expected exactly one /me call per app load, got %d", got)
	}
}

func TestLoginFlow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/login":
			w.Write([]byte(`{"token": "fresh"}`))
		case "/me":
			if r.Header.Get("Authorization") != "Bearer fresh" {
				t.Errorf("Expected fresh token on /me, got %q", r.Header.Get("Authorization"))
			}
			w.Write([]byte(meBody))
		default:
			t.Errorf("Unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	tokens := NewMemoryTokenStore("")
	s := New(api.NewClient(server.URL), store.NewCache(), tokens)
	s.Resolve(context.Background())

	if err := s.Login(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	if !s.IsAuthenticated() {
		t.Error("Expected authenticated session after login")
	}

	if tokens.Load() != "fresh" {
		t.Error("Token should be persisted on login")
	}
}

func TestAuthRejectionMidSessionForcesLogout(t *testing.T) {
	authorized := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !authorized {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(meBody))
	}))
	defer server.Close()

	client := api.NewClient(server.URL)
	cache := store.NewCache()
	s := New(client, cache, NewMemoryTokenStore("stored"))
	s.Resolve(context.Background())

	if !s.IsAuthenticated() {
		t.Fatal("Setup: expected authenticated session")
	}

	// Token is revoked server-side; the next API call escalates.
	authorized = false
	if _, err := client.Me(context.Background()); err == nil {
		t.Fatal("Expected error from revoked token")
	}

	if s.IsAuthenticated() {
		t.Error("A 403 anywhere must force logout")
	}

	if cache.Read(store.MeKey()).Loaded {
		t.Error("Identity slot should be dropped on logout")
	}
}

func TestRefetchUpdatesIdentity(t *testing.T) {
	name := "alice"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"user_id": 1, "user_name": "` + name + `", "email": "a@b.c", "created_at": "2025-01-01T00:00:00Z"}`))
	}))
	defer server.Close()

	cache := store.NewCache()
	s := New(api.NewClient(server.URL), cache, NewMemoryTokenStore("stored"))
	s.Resolve(context.Background())

	name = "alice_renamed"
	if err := s.Refetch(context.Background()); err != nil {
		t.Fatalf("Refetch failed: %v", err)
	}

	if s.User().Username != "alice_renamed" {
		t.Errorf("Expected refreshed identity, got %s", s.User().Username)
	}
}
