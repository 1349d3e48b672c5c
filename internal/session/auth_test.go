package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/soundwave/internal/shared"
)

func TestHTTPAuthAPI(t *testing.T) {
	newServer := func(t *testing.T, status int, body string) (*httptest.Server, *map[string]string) {
		t.Helper()
		var got map[string]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("expected POST, got %s", r.Method)
			}
			if ct := r.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected JSON content type, got %q", ct)
			}
			if r.Header.Get("Authorization") != "" {
				t.Error("auth calls must not carry a bearer token")
			}
			json.NewDecoder(r.Body).Decode(&got)
			w.WriteHeader(status)
			w.Write([]byte(body))
		}))
		t.Cleanup(srv.Close)
		return srv, &got
	}

	t.Run("Login", func(t *testing.T) {
		srv, got := newServer(t, http.StatusOK, `{"accessToken":"A1","refreshToken":"R1","user":{"username":"dj","roles":"EDITOR"}}`)
		api := NewAuthAPI(srv.URL+"/", srv.Client())

		res, err := api.Login(context.Background(), "dj", "wave1")
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}

		if (*got)["username"] != "dj" || (*got)["password"] != "wave1" {
			t.Errorf("unexpected request body %v", *got)
		}
		if res.Token.AccessToken != "A1" || res.Token.RefreshToken != "R1" {
			t.Errorf("unexpected tokens %+v", res.Token)
		}
		if res.User.Username != "dj" || res.User.Roles != "EDITOR" {
			t.Errorf("unexpected user %+v", res.User)
		}
	})

	t.Run("Login rejected", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusUnauthorized, "")
		_, err := NewAuthAPI(srv.URL, srv.Client()).Login(context.Background(), "dj", "nope")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Login without access token", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusOK, `{"refreshToken":"R1"}`)
		_, err := NewAuthAPI(srv.URL, srv.Client()).Login(context.Background(), "dj", "wave1")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Login without refresh token", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusOK, `{"accessToken":"A1"}`)
		_, err := NewAuthAPI(srv.URL, srv.Client()).Login(context.Background(), "dj", "wave1")
		if !errors.Is(err, shared.ErrAuthFailed) {
			t.Errorf("expected ErrAuthFailed, got %v", err)
		}
	})

	t.Run("Login unreachable", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusOK, "")
		srv.Close()

		_, err := NewAuthAPI(srv.URL, nil).Login(context.Background(), "dj", "wave1")
		if !errors.Is(err, shared.ErrAuthFailed) || !errors.Is(err, shared.ErrServiceUnavailable) {
			t.Errorf("expected ErrAuthFailed wrapping ErrServiceUnavailable, got %v", err)
		}
	})

	t.Run("Refresh", func(t *testing.T) {
		srv, got := newServer(t, http.StatusOK, `{"accessToken":"A2","refreshToken":"R2"}`)

		tok, err := NewAuthAPI(srv.URL, srv.Client()).Refresh(context.Background(), "R1")
		if err != nil {
			t.Fatalf("Refresh failed: %v", err)
		}
		if (*got)["refreshToken"] != "R1" {
			t.Errorf("unexpected request body %v", *got)
		}
		if tok.AccessToken != "A2" {
			t.Errorf("expected A2, got %q", tok.AccessToken)
		}
		if tok.RefreshToken != "" {
			t.Errorf("refresh must not rotate the refresh token, got %q", tok.RefreshToken)
		}
	})

	t.Run("Refresh rejected", func(t *testing.T) {
		srv, _ := newServer(t, http.StatusUnauthorized, "")
		_, err := NewAuthAPI(srv.URL, srv.Client()).Refresh(context.Background(), "R1")
		if !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}
