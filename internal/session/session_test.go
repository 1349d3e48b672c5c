package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/repositories"
)

// fakeAuth is an [AuthAPI] whose responses are scripted per test.
type fakeAuth struct {
	mu           sync.Mutex
	loginCalls   int
	refreshCalls int
	login        func(username, password string) (*LoginResult, error)
	refresh      func(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

func (f *fakeAuth) Login(_ context.Context, username, password string) (*LoginResult, error) {
	f.mu.Lock()
	f.loginCalls++
	f.mu.Unlock()
	return f.login(username, password)
}

func (f *fakeAuth) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	f.mu.Lock()
	f.refreshCalls++
	f.mu.Unlock()
	return f.refresh(ctx, refreshToken)
}

func (f *fakeAuth) RefreshCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.refreshCalls
}

// grantingAuth accepts any password and hands out fixed tokens.
func grantingAuth(access, refresh string) *fakeAuth {
	return &fakeAuth{
		login: func(username, _ string) (*LoginResult, error) {
			return &LoginResult{
				Token: &oauth2.Token{AccessToken: access, RefreshToken: refresh},
				User:  models.User{Username: username, Roles: "EDITOR"},
			}, nil
		},
		refresh: func(context.Context, string) (*oauth2.Token, error) {
			return &oauth2.Token{AccessToken: access + "-refreshed"}, nil
		},
	}
}

// failingStore rejects writes so persistence failures can be observed.
type failingStore struct {
	*repositories.MemoryTokenStore
	err error
}

func (s failingStore) Save(context.Context, map[string]string) error { return s.err }

func newTestManager(t *testing.T, api AuthAPI, store repositories.TokenStore) *Manager {
	t.Helper()

	m, err := NewManager(context.Background(), ManagerOpts{API: api, Store: store})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m
}

// receive waits for the next snapshot on sub.
func receive(t *testing.T, sub *Subscription) Snapshot {
	t.Helper()

	select {
	case snap, ok := <-sub.C():
		if !ok {
			t.Fatal("subscription closed unexpectedly")
		}
		return snap
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return Snapshot{}
}

// expectQuiet fails if sub delivers anything within a short window.
func expectQuiet(t *testing.T, sub *Subscription) {
	t.Helper()

	select {
	case snap, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected snapshot: generation %d authenticated=%v", snap.Generation(), snap.IsAuthenticated())
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func loadTokens(t *testing.T, store repositories.TokenStore) map[string]string {
	t.Helper()

	tokens, err := store.Load(context.Background(), AccessTokenKey, RefreshTokenKey)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return tokens
}
