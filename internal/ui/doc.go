// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a multi-view workflow for browsing the catalogue:
//  1. [LoginView] : Username and password form
//  2. [ArtistListView] : Server-side search and paging over artists
//  3. [ArtistDetailView] : One artist with its albums and covers
//
// Every view except [LoginView] is protected: the [Model] subscribes to the session
// manager and returns to [LoginView] whenever a snapshot without an access token arrives,
// whether from logout, a failed refresh or another process revoking the session.
//
// New-album notifications from the live channel's slot are rendered as a toast under the
// active view and disappear when the slot clears.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, /, n/p, q) with contextual
// help displayed via charmbracelet/bubbles/help.
package ui
