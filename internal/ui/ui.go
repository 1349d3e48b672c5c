package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/soundwave/internal/models"
	"github.com/desertthunder/soundwave/internal/notify"
	"github.com/desertthunder/soundwave/internal/services"
	"github.com/desertthunder/soundwave/internal/session"
	"github.com/desertthunder/soundwave/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoginView ViewState = iota
	ArtistListView
	ArtistDetailView
)

func (v ViewState) String() string {
	switch v {
	case LoginView:
		return "login"
	case ArtistListView:
		return "artists"
	case ArtistDetailView:
		return "artist"
	default:
		return ""
	}
}

// Session is the part of [session.Manager] the TUI drives.
type Session interface {
	Subscribe() *session.Subscription
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context)
}

// Catalog is the part of [services.APIService] the TUI reads from.
type Catalog interface {
	ListArtists(ctx context.Context, q services.ArtistQuery) (*models.Page[models.ArtistSummary], error)
	GetArtist(ctx context.Context, id int64) (*models.ArtistDetail, error)
}

// Options are the TUI's dependencies. Slot is optional.
type Options struct {
	Session Session
	Catalog Catalog
	Slot    *notify.Slot
}

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	session Session
	catalog Catalog

	sub   *session.Subscription
	slot  *notify.Slot
	wake  chan struct{}
	user  models.User
	authd bool

	width  int
	height int

	username  textinput.Model
	password  textinput.Model
	focus     int
	loggingIn bool

	search    textinput.Model
	searching bool
	query     services.ArtistQuery
	page      *models.Page[models.ArtistSummary]
	artists   list.Model
	loading   bool

	detail *models.ArtistDetail
	toast  *notify.Notification

	err  error
	help help.Model
	keys keyMap
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, opts Options) *Model {
	username := textinput.New()
	username.Placeholder = "username"
	username.Prompt = "User     "
	username.Focus()

	password := textinput.New()
	password.Placeholder = "password"
	password.Prompt = "Password "
	password.EchoMode = textinput.EchoPassword
	password.EchoCharacter = '•'

	search := textinput.New()
	search.Placeholder = "artist name"
	search.Prompt = "/ "

	artists := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	artists.Title = "Artists"
	artists.SetShowHelp(false)
	artists.SetFilteringEnabled(false)

	m := &Model{
		ctx:      ctx,
		view:     LoginView,
		session:  opts.Session,
		catalog:  opts.Catalog,
		slot:     opts.Slot,
		username: username,
		password: password,
		search:   search,
		artists:  artists,
		query:    services.ArtistQuery{Size: services.DefaultPageSize, Sort: services.DefaultArtistSort},
		help:     help.New(),
		keys:     newKeyMap(),
	}

	if m.slot != nil {
		m.wake = make(chan struct{}, 1)
		m.slot.Observe(func(notify.Notification, bool) {
			select {
			case m.wake <- struct{}{}:
			default:
			}
		})
	}
	return m
}

// View returns the current view state.
func (m *Model) View() string {
	body := m.render()
	if m.toast != nil {
		body = fmt.Sprintf("%s\n\n%s", body, styles.toast.Render("♪ "+m.toast.Text))
	}
	return body
}

// Init subscribes to session changes and, when a slot is set, to notifications.
func (m *Model) Init() tea.Cmd {
	m.sub = m.session.Subscribe()
	cmds := []tea.Cmd{textinput.Blink, m.waitForSession()}
	if m.slot != nil {
		cmds = append(cmds, m.waitForToast())
	}
	return tea.Batch(cmds...)
}

// Close releases the session subscription.
func (m *Model) Close() {
	if m.sub != nil {
		m.sub.Close()
	}
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.artists.SetSize(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoginView:
			return m.handleLoginKeys(msg)
		case ArtistListView:
			return m.handleArtistListKeys(msg)
		case ArtistDetailView:
			return m.handleDetailKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateInputs(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgSessionChanged:
		return m.applySession(msg.data.(session.Snapshot))

	case MsgSessionClosed:
		return m, tea.Quit

	case MsgLoginResult:
		m.loggingIn = false
		err, _ := msg.data.(error)
		if err != nil {
			m.err = loginError(err)
			return m, nil
		}
		m.err = nil
		m.password.SetValue("")
		return m, nil

	case MsgArtistsFetched:
		p := msg.data.(artistsPayload)
		m.loading = false
		if p.err != nil {
			m.err = p.err
			return m, nil
		}
		m.err = nil
		m.page = p.page
		m.query.Page = p.page.Number
		m.artists.SetItems(artistItems(p.page.Content))
		m.artists.Title = m.listTitle()
		return m, nil

	case MsgArtistFetched:
		p := msg.data.(artistPayload)
		m.loading = false
		if p.err != nil {
			m.err = p.err
			return m, nil
		}
		m.err = nil
		m.detail = p.artist
		m.view = ArtistDetailView
		return m, nil

	case MsgToast:
		p := msg.data.(toastPayload)
		if p.active {
			n := p.note
			m.toast = &n
		} else {
			m.toast = nil
		}
		return m, m.waitForToast()
	}
	return m, nil
}

// applySession enforces the protected-route rule: no access token means the login view.
func (m *Model) applySession(snap session.Snapshot) (tea.Model, tea.Cmd) {
	wait := m.waitForSession()

	if !snap.IsAuthenticated() {
		wasAuthed := m.authd
		m.authd = false
		m.user = models.User{}
		m.view = LoginView
		m.detail = nil
		m.page = nil
		m.artists.SetItems(nil)
		m.searching = false
		m.password.SetValue("")
		m.focusField(0)
		if wasAuthed && m.err == nil {
			m.err = shared.ErrNotAuthenticated
		}
		return m, wait
	}

	m.authd = true
	if u, ok := snap.User(); ok {
		m.user = u
	}
	if m.view == LoginView {
		m.err = nil
		m.view = ArtistListView
		return m, tea.Batch(wait, m.fetchArtists())
	}
	return m, wait
}

func (m *Model) handleLoginKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.abort), key.Matches(msg, m.keys.back):
		return m, tea.Quit
	case key.Matches(msg, m.keys.tab), msg.String() == "up", msg.String() == "down":
		m.focusField(1 - m.focus)
		return m, textinput.Blink
	case key.Matches(msg, m.keys.enter):
		if m.focus == 0 {
			m.focusField(1)
			return m, textinput.Blink
		}
		return m, m.submitLogin()
	}

	var cmd tea.Cmd
	if m.focus == 0 {
		m.username, cmd = m.username.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m *Model) handleArtistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.searching {
		switch {
		case key.Matches(msg, m.keys.abort):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back):
			m.searching = false
			m.search.Blur()
			return m, nil
		case key.Matches(msg, m.keys.enter):
			m.searching = false
			m.search.Blur()
			m.query.Name = strings.TrimSpace(m.search.Value())
			m.query.Page = 0
			return m, m.fetchArtists()
		}
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.search.Focus()
		return m, textinput.Blink
	case key.Matches(msg, m.keys.back):
		if m.query.Name != "" {
			m.query.Name = ""
			m.query.Page = 0
			m.search.SetValue("")
			return m, m.fetchArtists()
		}
		return m, nil
	case key.Matches(msg, m.keys.next):
		if m.page != nil && m.page.HasNext() {
			m.query.Page = m.page.Number + 1
			return m, m.fetchArtists()
		}
		return m, nil
	case key.Matches(msg, m.keys.prev):
		if m.page != nil && m.page.HasPrev() {
			m.query.Page = m.page.Number - 1
			return m, m.fetchArtists()
		}
		return m, nil
	case key.Matches(msg, m.keys.sort):
		m.query.Sort = toggleArtistSort(m.query.Sort)
		m.query.Page = 0
		return m, m.fetchArtists()
	case key.Matches(msg, m.keys.refresh):
		return m, m.fetchArtists()
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	case key.Matches(msg, m.keys.enter):
		if item, ok := m.artists.SelectedItem().(artistItem); ok {
			return m, m.fetchArtist(item.artist.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.artists, cmd = m.artists.Update(msg)
	return m, cmd
}

func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = ArtistListView
		m.detail = nil
		return m, nil
	case key.Matches(msg, m.keys.refresh):
		if m.detail != nil {
			return m, m.fetchArtist(m.detail.ID)
		}
	case key.Matches(msg, m.keys.logout):
		return m, m.logout()
	}
	return m, nil
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case LoginView:
		if m.focus == 0 {
			m.username, cmd = m.username.Update(msg)
		} else {
			m.password, cmd = m.password.Update(msg)
		}
	case ArtistListView:
		if m.searching {
			m.search, cmd = m.search.Update(msg)
		} else {
			m.artists, cmd = m.artists.Update(msg)
		}
	}
	return m, cmd
}

func (m *Model) focusField(i int) {
	m.focus = i
	if i == 0 {
		m.username.Focus()
		m.password.Blur()
	} else {
		m.password.Focus()
		m.username.Blur()
	}
}

func (m *Model) listTitle() string {
	if m.page == nil {
		return "Artists"
	}
	title := fmt.Sprintf("Artists (page %d of %d)", m.page.Number+1, max(m.page.TotalPages, 1))
	if m.query.Sort == services.ArtistSortDesc {
		title += " Z-A"
	}
	if m.query.Name != "" {
		title = fmt.Sprintf("%s matching %q", title, m.query.Name)
	}
	return title
}

func toggleArtistSort(sort string) string {
	if sort == services.ArtistSortDesc {
		return services.DefaultArtistSort
	}
	return services.ArtistSortDesc
}

// loginError maps a login failure to the message the form shows inline.
func loginError(err error) error {
	switch {
	case errors.Is(err, shared.ErrServiceUnavailable):
		return fmt.Errorf("server unavailable, try again later")
	case errors.Is(err, shared.ErrAuthFailed):
		return fmt.Errorf("invalid username or password")
	default:
		return err
	}
}
