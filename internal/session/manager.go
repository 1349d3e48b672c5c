package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"

	"github.com/desertthunder/soundwave/internal/repositories"
	"github.com/desertthunder/soundwave/internal/shared"
)

// Manager is the single writer of session state.
//
// Mutations hold mu while they persist, install and enqueue, so subscribers
// observe transitions in exactly the order they were applied. Network calls
// run outside the lock.
type Manager struct {
	api    AuthAPI
	store  repositories.TokenStore
	logger *log.Logger

	mu      sync.Mutex
	current Snapshot
	subs    map[*Subscription]struct{}

	refreshes singleflight.Group
}

// ManagerOpts contains the collaborators of a [Manager].
type ManagerOpts struct {
	API    AuthAPI
	Store  repositories.TokenStore
	Logger *log.Logger
}

// NewManager creates a manager whose initial snapshot holds whatever tokens the store has.
// The user stays absent until the next login.
func NewManager(ctx context.Context, opts ManagerOpts) (*Manager, error) {
	if opts.API == nil {
		return nil, fmt.Errorf("%w: auth API is required", shared.ErrInvalidArgument)
	}
	if opts.Store == nil {
		opts.Store = repositories.NewMemoryTokenStore(nil)
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}

	tokens, err := opts.Store.Load(ctx, AccessTokenKey, RefreshTokenKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load stored session: %w", err)
	}

	m := &Manager{
		api:    opts.API,
		store:  opts.Store,
		logger: shared.WithLogger(opts.Logger, "component", "session"),
		subs:   make(map[*Subscription]struct{}),
		current: Snapshot{
			accessToken:  tokens[AccessTokenKey],
			refreshToken: tokens[RefreshTokenKey],
		},
	}

	if m.current.IsAuthenticated() {
		m.logger.Debug("restored stored session")
	}
	return m, nil
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Login authenticates and, only once both tokens are persisted, installs the new session.
//
// Failures leave state and storage untouched; credential rejections wrap [shared.ErrAuthFailed].
func (m *Manager) Login(ctx context.Context, username, password string) error {
	res, err := m.api.Login(ctx, username, password)
	if err != nil {
		m.logger.Warn("login failed", "user", username, "error", err)
		return err
	}

	if res.Token == nil || res.Token.AccessToken == "" || res.Token.RefreshToken == "" {
		return fmt.Errorf("%w: incomplete token pair", shared.ErrAuthFailed)
	}
	user := res.User

	m.mu.Lock()
	defer m.mu.Unlock()

	tokens := map[string]string{
		AccessTokenKey:  res.Token.AccessToken,
		RefreshTokenKey: res.Token.RefreshToken,
	}
	if err := m.store.Save(ctx, tokens); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	m.installLocked(Snapshot{
		user:         &user,
		accessToken:  res.Token.AccessToken,
		refreshToken: res.Token.RefreshToken,
	})
	m.logger.Info("login succeeded", "user", user.Username, "roles", user.Roles)
	return nil
}

// Logout clears storage and installs the empty session. It never fails and
// always broadcasts, even when already logged out.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logoutLocked(ctx)
}

// LogoutIfCurrent logs out only while the session still holds accessToken. It
// reports whether it did; a newer session installed in the meantime is kept.
func (m *Manager) LogoutIfCurrent(ctx context.Context, accessToken string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.AccessToken() != accessToken {
		m.logger.Debug("keeping newer session", "generation", m.current.Generation())
		return false
	}
	m.logoutLocked(ctx)
	return true
}

func (m *Manager) logoutLocked(ctx context.Context) {
	if err := m.store.Delete(context.WithoutCancel(ctx), AccessTokenKey, RefreshTokenKey); err != nil {
		m.logger.Error("failed to clear stored tokens", "error", err)
	}
	m.installLocked(Snapshot{})
	m.logger.Info("logged out")
}

// RefreshToken obtains a new access token with the stored refresh token.
//
// It returns:
//   - [shared.ErrNoRefreshToken] without any network call when no refresh token is held
//   - [shared.ErrSessionExpired] after a failed refresh, which forces a logout
//   - [shared.ErrStaleSession] when the session changed while the refresh was in flight
//
// Concurrent callers that start from the same snapshot share one network call.
func (m *Manager) RefreshToken(ctx context.Context) (string, error) {
	start := m.Snapshot()
	if start.RefreshToken() == "" {
		return "", shared.ErrNoRefreshToken
	}

	key := strconv.FormatUint(start.Generation(), 10)
	ch := m.refreshes.DoChan(key, func() (any, error) {
		return m.refresh(context.WithoutCancel(ctx), start)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (m *Manager) refresh(ctx context.Context, start Snapshot) (string, error) {
	tok, apiErr := m.api.Refresh(ctx, start.RefreshToken())
	if apiErr == nil && (tok == nil || tok.AccessToken == "") {
		apiErr = fmt.Errorf("%w: empty access token", shared.ErrAPIRequest)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current.Generation() != start.Generation() {
		m.logger.Debug("discarding refresh result", "started", start.Generation(), "current", m.current.Generation())
		return "", shared.ErrStaleSession
	}

	if apiErr != nil {
		m.logger.Warn("token refresh failed, ending session", "error", apiErr)
		m.logoutLocked(ctx)
		return "", fmt.Errorf("%w: %v", shared.ErrSessionExpired, apiErr)
	}

	if err := m.store.Save(ctx, map[string]string{AccessTokenKey: tok.AccessToken}); err != nil {
		return "", fmt.Errorf("failed to persist refreshed token: %w", err)
	}

	m.installLocked(m.current.withAccessToken(tok.AccessToken))
	m.logger.Debug("access token refreshed")
	return tok.AccessToken, nil
}

// installLocked stamps next with a new generation, makes it current and enqueues it
// to every subscriber. mu must be held.
func (m *Manager) installLocked(next Snapshot) {
	next.generation = m.current.generation + 1
	m.current = next
	for sub := range m.subs {
		sub.enqueue(next)
	}
}

// Subscribe returns a subscription whose first element is the current snapshot.
func (m *Manager) Subscribe() *Subscription {
	sub := newSubscription(m)

	m.mu.Lock()
	sub.enqueue(m.current)
	m.subs[sub] = struct{}{}
	m.mu.Unlock()

	go sub.pump()
	return sub
}

func (m *Manager) unsubscribe(sub *Subscription) {
	m.mu.Lock()
	delete(m.subs, sub)
	m.mu.Unlock()
}

// Close ends every open subscription.
func (m *Manager) Close() {
	m.mu.Lock()
	subs := make([]*Subscription, 0, len(m.subs))
	for sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}

// IsSessionEnded reports whether err means the caller no longer holds a usable session.
func IsSessionEnded(err error) bool {
	return errors.Is(err, shared.ErrSessionExpired) || errors.Is(err, shared.ErrNoRefreshToken)
}
