package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/soundwave/internal/services"
	"github.com/desertthunder/soundwave/internal/session"
	"github.com/desertthunder/soundwave/internal/shared"
	"github.com/urfave/cli/v3"
)

// sessionStatus is the JSON shape of `auth status --json`.
type sessionStatus struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	Roles         string `json:"roles,omitempty"`
	TokenAccepted *bool  `json:"tokenAccepted,omitempty"`
	Error         string `json:"error,omitempty"`
}

// AuthLogin exchanges credentials for a token pair and persists it.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	username := cmd.String("username")
	password := cmd.String("password")
	if username == "" || password == "" {
		return fmt.Errorf("%w: --username and --password (or SOUNDWAVE_PASSWORD) are required", shared.ErrMissingArgument)
	}

	r.logger.Info("logging in", "user", username, "api", r.api.BaseURL())

	if err := r.session.Login(ctx, username, password); err != nil {
		if errors.Is(err, shared.ErrAuthFailed) {
			return fmt.Errorf("%w: check username and password", err)
		}
		return err
	}

	user, _ := r.session.Snapshot().User()
	r.writePlain("✓ Logged in as %s\n", user.Username)
	if user.Roles != "" {
		r.writePlain("Roles: %s\n", user.Roles)
	}
	return nil
}

// AuthLogout clears the stored tokens.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil {
		return fmt.Errorf("%w: session manager not initialized", shared.ErrServiceUnavailable)
	}

	wasAuthenticated := r.session.Snapshot().IsAuthenticated()
	r.session.Logout(ctx)

	if !wasAuthenticated {
		return r.writePlain("Already logged out\n")
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports the stored session and whether the API still accepts it.
//
// The probe goes through the session transport, so an expired access token is refreshed
// (and a rejected refresh token logs the session out) exactly as any other command would.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireSession(); err != nil {
		return err
	}

	status := sessionStatus{Authenticated: r.session.Snapshot().IsAuthenticated()}
	if user, ok := r.session.Snapshot().User(); ok {
		status.Username, status.Roles = user.Username, user.Roles
	}

	if status.Authenticated {
		_, err := r.api.ListArtists(ctx, services.ArtistQuery{Size: 1})
		accepted := err == nil
		status.TokenAccepted = &accepted
		if err != nil {
			r.logger.Debug("session probe failed", "error", err)
			status.Error = err.Error()
		}
		// The probe may have ended the session.
		status.Authenticated = r.session.Snapshot().IsAuthenticated()
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.Authenticated {
		r.writePlain("✗ Not authenticated\n")
		if status.Error != "" {
			r.writePlain("Reason: %s\n", status.Error)
		}
		r.writePlain("Run 'soundwave auth login' to sign in\n")
		return nil
	}

	r.writePlain("✓ Authenticated\n")
	if status.Username != "" {
		r.writePlain("User: %s\n", status.Username)
	}
	if status.TokenAccepted != nil && !*status.TokenAccepted {
		r.writePlain("API check: ✗ %s\n", status.Error)
	} else {
		r.writePlain("API check: ✓ token accepted\n")
	}
	return nil
}

// AuthRefresh forces a token refresh.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	if r.session == nil {
		return fmt.Errorf("%w: session manager not initialized", shared.ErrServiceUnavailable)
	}

	if _, err := r.session.RefreshToken(ctx); err != nil {
		if session.IsSessionEnded(err) {
			return fmt.Errorf("%w: log in again with 'soundwave auth login'", err)
		}
		return err
	}

	return r.writePlain("✓ Access token refreshed\n")
}
