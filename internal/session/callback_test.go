package session

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ragline/ragline/internal/gateway"
	"github.com/ragline/ragline/internal/storage"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("freePort: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

// backend that accepts the code exchange and then verifies.
func callbackBackend(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	var exchanged bool
	mux.HandleFunc("/auth/callback", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("code") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		exchanged = true
		http.SetCookie(w, &http.Cookie{Name: "access_token", Value: "tok", Path: "/"})
		json.NewEncoder(w).Encode(map[string]string{"message": "Authentication successful"})
	})
	mux.HandleFunc("/auth/verify", func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"authenticated": exchanged}
		if exchanged {
			payload["user"] = map[string]any{"id": 1, "email": "jo@example.com", "name": "Jo"}
		}
		json.NewEncoder(w).Encode(payload)
	})
	return mux
}

func TestCallbackWait(t *testing.T) {
	t.Run("CodeCompletesLoginAndPopsRedirect", func(t *testing.T) {
		server := httptest.NewServer(callbackBackend(t))
		defer server.Close()

		state := newTestState(t)
		client, err := gateway.NewClient(server.URL, gateway.WithCookieStore(state))
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		store := NewStore(client, state)
		if err := state.PutKV(storage.KeyAuthRedirect, "chat"); err != nil {
			t.Fatalf("PutKV: %v", err)
		}

		port := freePort(t)
		callback := NewCallbackServer(client, store, port, 5*time.Second)

		type result struct {
			target string
			err    error
		}
		results := make(chan result, 1)
		go func() {
			target, err := callback.Wait(context.Background())
			results <- result{target, err}
		}()

		// Give the listener a moment, then play the external redirect.
		hitCallback(t, port, "code=abc123")

		res := <-results
		if res.err != nil {
			t.Fatalf("Wait: %v", res.err)
		}
		if res.target != "chat" {
			t.Errorf("redirect target = %q, want chat", res.target)
		}
		snap := store.Snapshot()
		if !snap.IsAuthenticated || snap.User == nil {
			t.Errorf("session = %+v, want authenticated after callback", snap)
		}
		// The redirect target is consume-once.
		if _, ok, _ := state.TakeKV(storage.KeyAuthRedirect); ok {
			t.Error("redirect target should have been consumed")
		}
	})

	t.Run("ProviderErrorFails", func(t *testing.T) {
		server := httptest.NewServer(callbackBackend(t))
		defer server.Close()

		state := newTestState(t)
		client, err := gateway.NewClient(server.URL)
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		store := NewStore(client, state)

		port := freePort(t)
		callback := NewCallbackServer(client, store, port, 5*time.Second)

		errs := make(chan error, 1)
		go func() {
			_, err := callback.Wait(context.Background())
			errs <- err
		}()
		hitCallback(t, port, "error=access_denied")

		if err := <-errs; err == nil {
			t.Fatal("expected error for provider error param")
		}
		if store.Snapshot().IsAuthenticated {
			t.Error("session must not authenticate on provider error")
		}
	})

	t.Run("ContextCancellationUnblocks", func(t *testing.T) {
		state := newTestState(t)
		client, err := gateway.NewClient("http://127.0.0.1:1")
		if err != nil {
			t.Fatalf("NewClient: %v", err)
		}
		store := NewStore(client, state)

		callback := NewCallbackServer(client, store, freePort(t), time.Minute)
		ctx, cancel := context.WithCancel(context.Background())
		errs := make(chan error, 1)
		go func() {
			_, err := callback.Wait(ctx)
			errs <- err
		}()
		cancel()
		select {
		case err := <-errs:
			if err == nil {
				t.Fatal("expected context error")
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Wait did not unblock on cancellation")
		}
	})
}

// hitCallback plays the external OAuth redirect against the local
// listener, retrying briefly until it is up.
func hitCallback(t *testing.T, port int, query string) {
	t.Helper()
	url := fmt.Sprintf("http://127.0.0.1:%d/auth/callback?%s", port, query)
	deadline := time.Now().Add(3 * time.Second)
	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("callback listener never came up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
}
