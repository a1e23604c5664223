package session

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/recomendo/recomendo/api"
	"github.com/recomendo/recomendo/domain"
	"github.com/recomendo/recomendo/store"
)

type State int

const (
	// Unknown lasts until the persisted credential has been resolved.
	// Dependent views must not render while the session is Unknown,
	// otherwise an authenticated user sees a flash of anonymous UI.
	Unknown State = iota
	Anonymous
	Authenticated
)

// Session owns the authenticated identity. Everything else reads identity
// through it (or the cache's "me" slot) and never mutates it directly.
type Session struct {
	mu     sync.Mutex
	state  State
	user   *domain.User
	token  string
	client *api.Client
	cache  *store.Cache
	tokens TokenStore
}

func New(client *api.Client, cache *store.Cache, tokens TokenStore) *Session {
	s := &Session{
		state:  Unknown,
		client: client,
		cache:  cache,
		tokens: tokens,
		token:  tokens.Load(),
	}

	client.Token = s.Token
	client.OnAuthReject = s.onAuthReject

	return s
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) IsAuthenticated() bool {
	return s.State() == Authenticated
}

// User returns the resolved identity, nil while anonymous or unresolved.
func (s *Session) User() *domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

func (s *Session) Client() *api.Client { return s.client }

func (s *Session) Cache() *store.Cache { return s.cache }

func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Resolve settles the initial Unknown state: with no stored credential it
// lands Anonymous immediately; otherwise it fetches /me exactly once. Any
// rejection is authoritative — the credential is cleared without retry, so
// an expired token cannot cause a login loop. Calling Resolve again after
// settlement is a no-op.
func (s *Session) Resolve(ctx context.Context) State {
	s.mu.Lock()
	if s.state != Unknown {
		state := s.state
		s.mu.Unlock()
		return state
	}
	token := s.token
	s.mu.Unlock()

	if token == "" {
		s.setAnonymous()
		return Anonymous
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		log.Printf("Stored credential rejected, logging out: %v", err)
		s.clearCredential()
		return Anonymous
	}

	s.setUser(user)
	return Authenticated
}

// Login exchanges credentials for a token, persists it, and resolves the
// identity right away so the header can render it.
func (s *Session) Login(ctx context.Context, email, password string) error {
	resp, err := s.client.Login(ctx, email, password)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.token = resp.Token
	s.mu.Unlock()

	if err := s.tokens.Save(resp.Token); err != nil {
		log.Printf("Warning: could not persist auth token: %v", err)
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		s.clearCredential()
		return fmt.Errorf("token accepted but identity fetch failed: %w", err)
	}

	s.setUser(user)
	return nil
}

func (s *Session) Register(ctx context.Context, username, email, password string) error {
	return s.client.Register(ctx, username, email, password)
}

// Refetch reloads /me after a self-profile mutation. Identity shows up on
// several independent surfaces, so it is refetched rather than patched
// locally to keep them from diverging.
func (s *Session) Refetch(ctx context.Context) error {
	if !s.IsAuthenticated() {
		return nil
	}

	user, err := s.client.Me(ctx)
	if err != nil {
		return err
	}

	s.setUser(user)
	return nil
}

// Logout drops the credential and every cached view owned by the current
// identity.
func (s *Session) Logout() {
	s.clearCredential()
}

func (s *Session) setUser(user *domain.User) {
	s.mu.Lock()
	s.state = Authenticated
	s.user = user
	s.mu.Unlock()

	s.cache.Put(store.MeKey(), user)
}

func (s *Session) setAnonymous() {
	s.mu.Lock()
	s.state = Anonymous
	s.user = nil
	s.mu.Unlock()
}

func (s *Session) clearCredential() {
	s.mu.Lock()
	s.state = Anonymous
	s.user = nil
	s.token = ""
	s.mu.Unlock()

	s.tokens.Clear()
	s.cache.Drop(store.MeKey())
	s.cache.Drop(store.MyFollowingsKey())
	s.cache.Drop(store.MyFriendsKey())
}

// onAuthReject handles a 401/403 from any endpoint: the credential is
// invalid, nothing is locally recoverable.
func (s *Session) onAuthReject() {
	s.mu.Lock()
	settled := s.state != Authenticated && s.token == ""
	s.mu.Unlock()
	if settled {
		return
	}
	log.Println("Credential rejected by the backend, logging out")
	s.clearCredential()
}
