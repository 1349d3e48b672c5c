// Package repositories implements durable storage for session credentials.
//
// Every backend satisfies [TokenStore], a small key-value surface keyed by
// token name ("accessToken", "refreshToken"):
//   - [TokenRepository] : SQLite table managed by the embedded migrations
//   - [RedisTokenStore] : Redis keys under a configurable prefix
//   - [MemoryTokenStore] : process-local map for tests and throwaway sessions
//
// Save writes all given tokens atomically on backends that support it, so a
// login never leaves an access token persisted without its refresh token.
package repositories
