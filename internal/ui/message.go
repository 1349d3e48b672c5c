package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/notify"
	"github.com/desertthunder/soundwave/internal/session"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgSessionChanged MsgKind = iota
	MsgSessionClosed
	MsgLoginResult
	MsgArtistsFetched
	MsgArtistFetched
	MsgToast
)

type artistsPayload struct {
	page *models.Page[models.ArtistSummary]
	err  error
}

type artistPayload struct {
	artist *models.ArtistDetail
	err    error
}

type toastPayload struct {
	note   notify.Notification
	active bool
}

// sessionChangedMsg is the constructor for [MsgSessionChanged]
func sessionChangedMsg(snap session.Snapshot) Msg {
	return Msg{kind: MsgSessionChanged, data: snap}
}

// sessionClosedMsg is the constructor for [MsgSessionClosed]
func sessionClosedMsg() Msg {
	return Msg{kind: MsgSessionClosed}
}

// loginResultMsg is the constructor for [MsgLoginResult]
func loginResultMsg(err error) Msg {
	return Msg{kind: MsgLoginResult, data: err}
}

// artistsFetchedMsg is the constructor for [MsgArtistsFetched]
func artistsFetchedMsg(page *models.Page[models.ArtistSummary], err error) Msg {
	return Msg{kind: MsgArtistsFetched, data: artistsPayload{page, err}}
}

// artistFetchedMsg is the constructor for [MsgArtistFetched]
func artistFetchedMsg(artist *models.ArtistDetail, err error) Msg {
	return Msg{kind: MsgArtistFetched, data: artistPayload{artist, err}}
}

// toastMsg is the constructor for [MsgToast]
func toastMsg(n notify.Notification, active bool) Msg {
	return Msg{kind: MsgToast, data: toastPayload{n, active}}
}
