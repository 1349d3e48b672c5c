package session

import "github.com/desertthunder/soundwave/internal/models"

// Storage keys for persisted credentials.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// Snapshot is an immutable view of the session. The zero value is the logged-out state.
type Snapshot struct {
	user         *models.User
	accessToken  string
	refreshToken string
	generation   uint64
}

// User returns the authenticated principal, if one is known.
//
// A session restored from storage has tokens but no user until the next login.
func (s Snapshot) User() (models.User, bool) {
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

func (s Snapshot) AccessToken() string  { return s.accessToken }
func (s Snapshot) RefreshToken() string { return s.refreshToken }

// IsAuthenticated is derived from the presence of an access token.
func (s Snapshot) IsAuthenticated() bool { return s.accessToken != "" }

// Generation identifies the mutation that produced this snapshot.
func (s Snapshot) Generation() uint64 { return s.generation }

// withAccessToken returns a copy with only the access token replaced.
func (s Snapshot) withAccessToken(token string) Snapshot {
	s.accessToken = token
	return s
}
