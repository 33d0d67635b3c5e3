package session

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ragline/ragline/internal/gateway"
	"github.com/ragline/ragline/internal/models"
	"github.com/ragline/ragline/internal/storage"
)

type recordingNavigator struct {
	mu      sync.Mutex
	opened  []string
	toHome  int
	toLogin int
}

func (n *recordingNavigator) OpenURL(url string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.opened = append(n.opened, url)
	return nil
}

func (n *recordingNavigator) ToLogin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toLogin++
}

func (n *recordingNavigator) ToHome() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toHome++
}

func newTestState(t *testing.T) *storage.StateStore {
	t.Helper()
	state, err := storage.NewStateStore(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("NewStateStore: %v", err)
	}
	t.Cleanup(func() { state.Close() })
	return state
}

func newTestStore(t *testing.T, handler http.Handler) (*Store, *storage.StateStore, *recordingNavigator) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	nav := &recordingNavigator{}
	state := newTestState(t)
	client, err := gateway.NewClient(server.URL,
		gateway.WithNavigator(nav),
		gateway.WithCookieStore(state),
	)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewStore(client, state), state, nav
}

func userFixture() *models.User {
	return &models.User{ID: 2, Email: "old@example.com", Name: "Old"}
}

func verifyHandler(authenticated bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"authenticated": authenticated}
		if authenticated {
			payload["user"] = map[string]any{"id": 1, "email": "jo@example.com", "name": "Jo"}
		}
		json.NewEncoder(w).Encode(payload)
	})
	return mux
}

func TestCheckAuth(t *testing.T) {
	t.Run("SuccessSetsPair", func(t *testing.T) {
		store, _, _ := newTestStore(t, verifyHandler(true))

		store.CheckAuth(context.Background())

		snap := store.Snapshot()
		if !snap.IsAuthenticated {
			t.Fatal("should be authenticated")
		}
		if snap.User == nil || snap.User.Email != "jo@example.com" {
			t.Errorf("user = %+v, want the verified user", snap.User)
		}
		if snap.IsLoading {
			t.Error("isLoading should be false after the call")
		}
	})

	t.Run("UnauthenticatedClearsPair", func(t *testing.T) {
		store, _, _ := newTestStore(t, verifyHandler(false))
		store.SetUser(userFixture())

		store.CheckAuth(context.Background())

		snap := store.Snapshot()
		if snap.IsAuthenticated || snap.User != nil {
			t.Errorf("session = %+v, want cleared", snap)
		}
	})

	t.Run("NetworkFailureDegradesToSignedOut", func(t *testing.T) {
		state := newTestState(t)
		client, err := gateway.NewClient("http://127.0.0.1:1") // nothing listens here
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		store := NewStore(client, state)
		store.SetUser(userFixture())

		store.CheckAuth(context.Background()) // must not panic or return error

		snap := store.Snapshot()
		if snap.IsAuthenticated || snap.User != nil {
			t.Errorf("session = %+v, want cleared after network failure", snap)
		}
	})
}

func TestSnapshotPersistence(t *testing.T) {
	handler := verifyHandler(true)
	store, state, _ := newTestStore(t, handler)
	store.CheckAuth(context.Background())

	// A new store over the same state database restores the pair before
	// any network call.
	server := httptest.NewServer(handler)
	defer server.Close()
	client, err := gateway.NewClient(server.URL)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	restored := NewStore(client, state)

	snap := restored.Snapshot()
	if !snap.IsAuthenticated || snap.User == nil || snap.User.Name != "Jo" {
		t.Errorf("restored session = %+v, want the persisted pair", snap)
	}
	if snap.IsLoading {
		t.Error("isLoading must never be persisted")
	}
}

func TestLogin(t *testing.T) {
	t.Run("StashesTargetAndOpensBrowser", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]string{"authorization_url": "https://accounts.example.com/o/oauth2/auth"})
		})
		store, state, nav := newTestStore(t, mux)

		if err := store.Login(context.Background(), "chat"); err != nil {
			t.Fatalf("Login: %v", err)
		}
		if len(nav.opened) != 1 || nav.opened[0] != "https://accounts.example.com/o/oauth2/auth" {
			t.Errorf("opened = %v, want the authorization URL", nav.opened)
		}
		if snap := store.Snapshot(); snap.IsAuthenticated {
			t.Error("login must not change session state before the callback")
		}
		target, ok, err := state.TakeKV(storage.KeyAuthRedirect)
		if err != nil || !ok || target != "chat" {
			t.Errorf("stashed target = (%q, %v, %v), want chat", target, ok, err)
		}
	})

	t.Run("PropagatesAuthorizationURLFailure", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		})
		store, _, nav := newTestStore(t, mux)

		if err := store.Login(context.Background(), ""); err == nil {
			t.Fatal("expected error when the authorization URL request fails")
		}
		if len(nav.opened) != 0 {
			t.Errorf("opened = %v, want no browser handoff", nav.opened)
		}
	})
}

func TestLogout(t *testing.T) {
	t.Run("ClearsLocallyEvenWhenBackendFails", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
		store, state, nav := newTestStore(t, mux)
		store.SetUser(userFixture())

		store.Logout(context.Background())

		snap := store.Snapshot()
		if snap.IsAuthenticated || snap.User != nil {
			t.Errorf("session = %+v, want cleared despite backend failure", snap)
		}
		if nav.toHome != 1 {
			t.Errorf("home navigations = %d, want 1", nav.toHome)
		}
		user, authed, err := state.LoadSession()
		if err != nil || user != nil || authed {
			t.Errorf("persisted pair = (%+v, %v, %v), want cleared", user, authed, err)
		}
		cookies, _ := state.LoadCookies()
		if len(cookies) != 0 {
			t.Errorf("cookies = %v, want cleared", cookies)
		}
	})
}
