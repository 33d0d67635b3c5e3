// Package session owns authentication state: whether this client is
// authenticated and as whom. It is the single writer of the persisted
// session snapshot.
package session

import (
	"context"
	"sync"

	"github.com/ragline/ragline/internal/gateway"
	"github.com/ragline/ragline/internal/logging"
	"github.com/ragline/ragline/internal/models"
	"github.com/ragline/ragline/internal/storage"
)

// Session is a point-in-time view of authentication state. IsAuthenticated
// is true only when User was set by a successful verify or login
// completion, never asserted locally.
type Session struct {
	User            *models.User
	IsAuthenticated bool
	IsLoading       bool
}

// Store is the session state container. One per process; UI components
// share it and read through Snapshot.
type Store struct {
	mu      sync.Mutex
	gateway *gateway.Client
	state   *storage.StateStore

	user          *models.User
	authenticated bool
	loading       bool
}

// NewStore builds a session store, restoring the persisted (user,
// isAuthenticated) snapshot. isLoading always starts false.
func NewStore(gw *gateway.Client, state *storage.StateStore) *Store {
	s := &Store{gateway: gw, state: state}
	s.Reload()
	return s
}

// Snapshot returns the current session state.
func (s *Store) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{User: s.user, IsAuthenticated: s.authenticated, IsLoading: s.loading}
}

// Reload re-reads the persisted snapshot, used when another process (a
// concurrent `ragline login`) rewrote the state database.
func (s *Store) Reload() {
	user, authenticated, err := s.state.LoadSession()
	if err != nil {
		logging.Logger().Warn("session: load snapshot", "error", err)
		return
	}
	s.mu.Lock()
	s.user = user
	s.authenticated = authenticated
	s.mu.Unlock()
}

// CheckAuth verifies the session against the backend. Any failure, network
// or HTTP, degrades to "not authenticated"; the method never returns an
// error. isLoading is true for the duration so views can hold off on
// login redirects while verification is in flight.
func (s *Store) CheckAuth(ctx context.Context) {
	s.setLoading(true)
	defer s.setLoading(false)

	res, err := s.gateway.Verify(ctx)
	if err != nil {
		logging.Logger().Info("session: verify failed", "error", err)
		s.apply(nil, false)
		return
	}
	if res.Authenticated && res.User != nil {
		s.apply(res.User, true)
		return
	}
	s.apply(nil, false)
}

// Login starts the external OAuth round trip: fetch the authorization
// URL, stash the post-login redirect target, and hand navigation off. It
// does not change session state; the session materializes when the
// callback view re-runs CheckAuth.
func (s *Store) Login(ctx context.Context, redirectTarget string) error {
	authURL, err := s.gateway.LoginURL(ctx)
	if err != nil {
		return err
	}
	if redirectTarget != "" {
		if err := s.state.PutKV(storage.KeyAuthRedirect, redirectTarget); err != nil {
			logging.Logger().Warn("session: stash redirect target", "error", err)
		}
	}
	return s.gateway.Navigator().OpenURL(authURL)
}

// Logout tells the backend to invalidate the session (best-effort), then
// unconditionally clears local state and cookies and navigates home. The
// client never stays "logged in" just because the server was unreachable.
func (s *Store) Logout(ctx context.Context) {
	if err := s.gateway.Logout(ctx); err != nil {
		logging.Logger().Warn("session: backend logout", "error", err)
	}
	s.apply(nil, false)
	s.gateway.ClearSession()
	s.gateway.Navigator().ToHome()
}

// SetUser directly installs a user confirmed by an external flow (the
// OAuth callback) and marks the session authenticated.
func (s *Store) SetUser(user *models.User) {
	s.apply(user, true)
}

// PopRedirectTarget consumes the stashed post-login redirect target, if
// any. It is read-once.
func (s *Store) PopRedirectTarget() string {
	target, ok, err := s.state.TakeKV(storage.KeyAuthRedirect)
	if err != nil {
		logging.Logger().Warn("session: pop redirect target", "error", err)
		return ""
	}
	if !ok {
		return ""
	}
	return target
}

// apply installs the pair and persists it. Only (user, isAuthenticated)
// are durable; loading never is.
func (s *Store) apply(user *models.User, authenticated bool) {
	s.mu.Lock()
	s.user = user
	s.authenticated = authenticated
	s.mu.Unlock()
	if err := s.state.SaveSession(user, authenticated); err != nil {
		logging.Logger().Warn("session: persist snapshot", "error", err)
	}
}

func (s *Store) setLoading(v bool) {
	s.mu.Lock()
	s.loading = v
	s.mu.Unlock()
}
