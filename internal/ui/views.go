package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

var _ Painter = (*Palette)(nil)

func (m *Model) render() string {
	switch m.view {
	case LoginView:
		return m.renderLogin()
	case ArtistListView:
		return m.renderArtistList()
	case ArtistDetailView:
		return m.renderDetail()
	default:
		return ""
	}
}

func (m *Model) renderLogin() string {
	var b strings.Builder

	b.WriteString(styles.title.Render("SOUNDWAVE"))
	b.WriteString("\n")
	b.WriteString(m.username.View())
	b.WriteString("\n")
	b.WriteString(m.password.View())
	b.WriteString("\n\n")

	switch {
	case m.loggingIn:
		b.WriteString(styles.warn.Render("Signing in..."))
		b.WriteString("\n\n")
	case m.err != nil:
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	submit := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sign in"))
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.tab, submit, m.keys.abort}))
	return b.String()
}

func (m *Model) renderArtistList() string {
	var b strings.Builder

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	if m.searching {
		b.WriteString(m.search.View())
		b.WriteString("\n")
	}

	if m.page != nil && len(m.page.Content) == 0 {
		b.WriteString(styles.title.Render(m.listTitle()))
		b.WriteString("\n")
		b.WriteString(styles.help.Render("No artists found."))
		b.WriteString("\n")
	} else {
		b.WriteString(m.artists.View())
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	var helpKeys []key.Binding
	if m.searching {
		run := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "search"))
		helpKeys = []key.Binding{run, m.keys.back}
	} else {
		helpKeys = []key.Binding{m.keys.enter, m.keys.search, m.keys.next, m.keys.prev, m.keys.sort, m.keys.logout, m.keys.quit}
	}
	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView(helpKeys))
	return b.String()
}

func (m *Model) renderDetail() string {
	a := m.detail
	if a == nil {
		return styles.err.Render("No artist selected")
	}

	var b strings.Builder
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(styles.title.Render(a.Name))
	b.WriteString("\n")
	b.WriteString(styles.label.Render(fmt.Sprintf("%s • %d album(s)", a.Kind, len(a.Albums))))
	b.WriteString("\n\n")

	if len(a.Albums) == 0 {
		b.WriteString(styles.help.Render("No albums yet."))
		b.WriteString("\n")
	}
	for _, album := range a.Albums {
		year := "----"
		if album.ReleaseYear > 0 {
			year = fmt.Sprintf("%d", album.ReleaseYear)
		}
		fmt.Fprintf(&b, "  %s  %s\n", styles.As(year, styles.accent), album.Title)
		if cover, ok := album.FirstCover(); ok {
			fmt.Fprintf(&b, "        %s\n", styles.help.Render(cover.URL))
		}
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.refresh, m.keys.logout, m.keys.quit}))
	return b.String()
}

func (m *Model) statusLine() string {
	who := m.user.Username
	if who == "" {
		who = "signed in"
	}
	line := styles.ok.Render("● " + who)
	if m.user.Roles != "" {
		line += " " + styles.label.Render("("+m.user.Roles+")")
	}
	if m.loading {
		line += " " + styles.warn.Render("loading...")
	}
	return line
}
