// Package services is the client for the SOUNDWAVE catalogue REST API.
//
// [APIService] offers raw Get/Post/Put/Do calls returning an [APIResponse]
// (used by the `api` command) and typed endpoints for artists, albums and
// cover uploads returning [models] records.
//
// # Authentication
//
// The service does not manage credentials. Callers supply an [http.Client]
// whose transport is a session.Transport, which attaches the bearer token
// and performs the single refresh-and-retry on 401. Request bodies are built
// from byte slices so they can be replayed.
//
// # Error Handling
//
// Non-2xx responses from typed endpoints become a [*StatusError] that
// matches, via [errors.Is]:
//   - [shared.ErrAPIRequest] : always
//   - [shared.ErrNotFound] : 404
//   - [shared.ErrNotAuthenticated] : 401 or 403, after the retry was spent
//   - [shared.ErrInvalidInput] : 400 validation failures
//   - [shared.ErrServiceUnavailable] : 429 or 503
package services
