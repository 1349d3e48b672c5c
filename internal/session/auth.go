package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"golang.org/x/oauth2"

	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/shared"
)

// LoginResult is what a successful credential exchange yields.
type LoginResult struct {
	Token *oauth2.Token
	User  models.User
}

// AuthAPI is the identity endpoint pair the [Manager] talks to.
type AuthAPI interface {
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// HTTPAuthAPI implements [AuthAPI] against POST /auth/login and POST /auth/refresh.
//
// Its client must not be wrapped by [Transport]: auth calls never carry or refresh a bearer token.
type HTTPAuthAPI struct {
	baseURL    string
	httpClient *http.Client
}

// NewAuthAPI creates an [HTTPAuthAPI] rooted at baseURL (e.g. http://localhost:8080/api/v1).
func NewAuthAPI(baseURL string, client *http.Client) *HTTPAuthAPI {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPAuthAPI{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client}
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenResponse struct {
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	User         *models.User `json:"user"`
}

// Login exchanges username and password for a token pair. Every failure wraps [shared.ErrAuthFailed].
func (a *HTTPAuthAPI) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var body tokenResponse
	if err := a.post(ctx, "/auth/login", loginRequest{Username: username, Password: password}, &body); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if body.AccessToken == "" || body.RefreshToken == "" {
		return nil, fmt.Errorf("%w: response carried an incomplete token pair", shared.ErrAuthFailed)
	}

	user := models.User{Username: username}
	if body.User != nil {
		user = *body.User
	}

	return &LoginResult{
		Token: &oauth2.Token{AccessToken: body.AccessToken, RefreshToken: body.RefreshToken, TokenType: "Bearer"},
		User:  user,
	}, nil
}

// Refresh trades a refresh token for a new access token.
//
// Only the access token of the response is used; the refresh token on file is kept.
func (a *HTTPAuthAPI) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	var body tokenResponse
	if err := a.post(ctx, "/auth/refresh", refreshRequest{RefreshToken: refreshToken}, &body); err != nil {
		return nil, err
	}

	if body.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh response carried no access token", shared.ErrAPIRequest)
	}
	return &oauth2.Token{AccessToken: body.AccessToken, TokenType: "Bearer"}, nil
}

func (a *HTTPAuthAPI) post(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("%w: POST %s returned %d", shared.ErrAPIRequest, path, resp.StatusCode)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
