package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundwave/internal/shared"
)

// waitForSession blocks until the next session snapshot.
func (m *Model) waitForSession() tea.Cmd {
	sub := m.sub
	return func() tea.Msg {
		if sub == nil {
			return nil
		}
		snap, ok := <-sub.C()
		if !ok {
			return sessionClosedMsg()
		}
		return sessionChangedMsg(snap)
	}
}

// waitForToast blocks until the slot changes, then reports what it holds now.
func (m *Model) waitForToast() tea.Cmd {
	if m.slot == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-m.wake:
		case <-m.ctx.Done():
			return nil
		}
		n, ok := m.slot.Current()
		return toastMsg(n, ok)
	}
}

func (m *Model) submitLogin() tea.Cmd {
	username := strings.TrimSpace(m.username.Value())
	password := m.password.Value()
	if username == "" || password == "" {
		m.err = fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
		return nil
	}
	if m.loggingIn {
		return nil
	}

	m.loggingIn = true
	m.err = nil
	return func() tea.Msg {
		return loginResultMsg(m.session.Login(m.ctx, username, password))
	}
}

func (m *Model) logout() tea.Cmd {
	return func() tea.Msg {
		m.session.Logout(m.ctx)
		return nil
	}
}

func (m *Model) fetchArtists() tea.Cmd {
	m.loading = true
	q := m.query
	return func() tea.Msg {
		page, err := m.catalog.ListArtists(m.ctx, q)
		return artistsFetchedMsg(page, err)
	}
}

func (m *Model) fetchArtist(id int64) tea.Cmd {
	m.loading = true
	return func() tea.Msg {
		artist, err := m.catalog.GetArtist(m.ctx, id)
		return artistFetchedMsg(artist, err)
	}
}
