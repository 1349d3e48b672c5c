package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Session errors
	ErrAuthFailed       = fmt.Errorf("authentication failed")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrSessionExpired   = fmt.Errorf("session expired")
	ErrNoRefreshToken   = fmt.Errorf("no refresh token available")
	ErrStaleSession     = fmt.Errorf("session changed during refresh")

	// Storage errors
	ErrTokenStore = fmt.Errorf("token storage failed")

	// API and service errors
	ErrAPIRequest         = fmt.Errorf("API request failed")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")
	ErrNotFound           = fmt.Errorf("resource not found")

	// Notification errors
	ErrBrokerUnavailable = fmt.Errorf("message broker unavailable")
	ErrBrokerProtocol    = fmt.Errorf("message broker protocol error")
	ErrChannelClosed     = fmt.Errorf("notification channel closed")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
