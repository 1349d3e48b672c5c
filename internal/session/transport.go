package session

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"golang.org/x/oauth2"

	"github.com/desertthunder/soundwave/internal/shared"
)

// retryBudget is how many times one request may be reissued after a 401.
const retryBudget = 1

// Credentials is the part of a [Manager] the [Transport] needs.
type Credentials interface {
	Snapshot() Snapshot
	RefreshToken(ctx context.Context) (string, error)
	LogoutIfCurrent(ctx context.Context, accessToken string) bool
}

// Transport is an [http.RoundTripper] that authenticates requests with the
// session's bearer token and recovers from one expired token per request.
type Transport struct {
	Base    http.RoundTripper
	Session Credentials
	Logger  *log.Logger
}

// NewTransport wraps base (or [http.DefaultTransport]) with session credentials.
func NewTransport(base http.RoundTripper, creds Credentials, logger *log.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Transport{Base: base, Session: creds, Logger: shared.WithLogger(logger, "component", "transport")}
}

// NewClient returns an [http.Client] whose requests go through a [Transport].
func NewClient(base *http.Client, creds Credentials, logger *log.Logger) *http.Client {
	var client http.Client
	if base != nil {
		client = *base
	}
	client.Transport = NewTransport(client.Transport, creds, logger)
	return &client
}

// RoundTrip sends req with the current access token. On a 401 it refreshes
// the token and reissues the request once; a 401 on the reissued request
// ends the session it was sent with and is returned to the caller.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	token := t.Session.Snapshot().AccessToken()

	for attempt := 0; ; attempt++ {
		out, err := prepare(req, token, attempt)
		if err != nil {
			return nil, err
		}

		resp, err := t.Base.RoundTrip(out)
		if err != nil || resp.StatusCode != http.StatusUnauthorized {
			return resp, err
		}

		if attempt >= retryBudget {
			if t.Session.LogoutIfCurrent(ctx, token) {
				t.Logger.Warn("request rejected after refresh, ended session", "method", req.Method, "url", req.URL.Redacted())
			}
			return resp, nil
		}

		if !replayable(req) {
			t.Logger.Debug("401 on request with unreplayable body", "method", req.Method, "url", req.URL.Redacted())
			return resp, nil
		}

		next, ok := t.renew(ctx, token)
		if !ok {
			return resp, nil
		}

		discard(resp)
		token = next
	}
}

// renew returns the token to retry with, or false when the original 401 should stand.
func (t *Transport) renew(ctx context.Context, used string) (string, bool) {
	next, err := t.Session.RefreshToken(ctx)
	switch {
	case err == nil:
		return next, next != ""
	case errors.Is(err, shared.ErrStaleSession):
		// another mutation won the race; retry only if it left a different token
		current := t.Session.Snapshot().AccessToken()
		return current, current != "" && current != used
	default:
		t.Logger.Debug("token refresh unavailable", "error", err)
		return "", false
	}
}

// prepare clones req for the given attempt and attaches token.
// Reissued attempts get a fresh body from GetBody.
func prepare(req *http.Request, token string, attempt int) (*http.Request, error) {
	out := req.Clone(req.Context())
	if attempt > 0 && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		out.Body = body
	}

	if token != "" {
		(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}).SetAuthHeader(out)
	}
	return out, nil
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func discard(resp *http.Response) {
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
	resp.Body.Close()
}
