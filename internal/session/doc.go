// Package session owns the client's authentication state.
//
// A [Manager] is the single writer of an immutable [Snapshot] holding the
// user, access token and refresh token. Every mutation (login, logout,
// refresh) replaces the whole snapshot, persists the tokens through a
// [repositories.TokenStore] and is delivered in order to every [Subscription].
//
// [Transport] is the HTTP interceptor: it attaches the bearer token to
// outgoing requests and, on a 401, performs one silent refresh-and-retry.
//
// Refreshes are coalesced and stamped with the snapshot generation they
// started from; a result that arrives after another mutation is discarded.
package session
