// Package tui provides a terminal frontend for the mood picker. It drives
// the same reducer as the web page: fetch effects become tea.Cmds and their
// outcomes come back as messages.
package tui

import (
	"context"
	"net/http"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/osa030/moodify/internal/app/moodview"
	"github.com/osa030/moodify/internal/app/session"
	"github.com/osa030/moodify/internal/domain/mood"
)

// cardWidth is the rendered width of a card including border and margin.
const cardWidth = 40

// Options configure the terminal frontend.
type Options struct {
	Context context.Context
	Fetcher session.Fetcher
	Reducer moodview.Reducer
	View    moodview.Options // Moods must be set
	Cookies []*http.Cookie   // Sent with every playlist request
}

// resultMsg delivers the reducer event that resolves a fetch.
type resultMsg struct {
	event moodview.Event
}

// Model is the bubbletea model of the mood picker.
type Model struct {
	ctx     context.Context
	fetcher session.Fetcher
	reducer moodview.Reducer
	view    moodview.Options
	cookies []*http.Cookie
	newID   func() string

	state    moodview.State
	moods    []mood.Mood
	cursor   int
	redirect string
	width    int

	spinner spinner.Model
	help    help.Model
	keys    keyMap
	styles  styles
}

// New creates the model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	var moods []mood.Mood
	if opts.View.Moods != nil {
		moods = opts.View.Moods.Moods()
	}

	return Model{
		ctx:     ctx,
		fetcher: opts.Fetcher,
		reducer: opts.Reducer,
		view:    opts.View,
		cookies: opts.Cookies,
		newID:   uuid.NewString,
		state:   moodview.Initial(),
		moods:   moods,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		help:    help.New(),
		keys:    defaultKeyMap(),
		styles:  defaultStyles(),
	}
}

// State returns the current page state.
func (m Model) State() moodview.State {
	return m.state
}

// Redirect returns the re-authentication URL when the program quit because
// the playlist service rejected the session.
func (m Model) Redirect() string {
	return m.redirect
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case resultMsg:
		return m.dispatch(msg.event)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Left):
		if len(m.moods) > 0 {
			m.cursor = (m.cursor - 1 + len(m.moods)) % len(m.moods)
		}
		return m, nil

	case key.Matches(msg, m.keys.Right):
		if len(m.moods) > 0 {
			m.cursor = (m.cursor + 1) % len(m.moods)
		}
		return m, nil

	case key.Matches(msg, m.keys.Select):
		return m.selectMood(m.cursor)

	case key.Matches(msg, m.keys.Pick):
		return m.selectMood(int(msg.Runes[0] - '1'))
	}

	return m, nil
}

func (m Model) selectMood(index int) (tea.Model, tea.Cmd) {
	if index < 0 || index >= len(m.moods) {
		return m, nil
	}
	m.cursor = index
	return m.dispatch(moodview.MoodSelected{Mood: m.moods[index], RequestID: m.newID()})
}

// dispatch applies e and turns the resulting effects into commands.
func (m Model) dispatch(e moodview.Event) (tea.Model, tea.Cmd) {
	next, effects := m.reducer.Reduce(m.state, e)
	m.state = next

	var cmds []tea.Cmd
	for _, effect := range effects {
		switch eff := effect.(type) {
		case moodview.FetchPlaylist:
			cmds = append(cmds, m.fetch(eff))
		case moodview.Redirect:
			// A terminal cannot navigate; quit and let the caller show the URL.
			m.redirect = eff.URL
			cmds = append(cmds, tea.Quit)
		}
	}
	return m, tea.Batch(cmds...)
}

func (m Model) fetch(req moodview.FetchPlaylist) tea.Cmd {
	ctx, fetcher, cookies := m.ctx, m.fetcher, m.cookies
	return func() tea.Msg {
		tracks, err := fetcher.FetchPlaylist(ctx, req.Mood, cookies)
		return resultMsg{event: session.ResultEvent(req, tracks, err)}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	v := moodview.Render(m.state, m.view)
	var b strings.Builder

	b.WriteString(m.styles.Title.Render(v.Title))
	b.WriteString("\n")
	b.WriteString(m.renderButtons(v.Buttons))
	b.WriteString("\n\n")

	switch {
	case v.IsLoading():
		b.WriteString(m.spinner.View() + " " + m.styles.Loading.Render(v.Loading))
	case v.IsError():
		b.WriteString(m.styles.Error.Render(v.Error))
	default:
		b.WriteString(m.renderCards(v.Cards))
	}

	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderButtons(buttons []moodview.MoodButton) string {
	rendered := make([]string, 0, len(buttons))
	for i, btn := range buttons {
		style := m.styles.Button
		if btn.Active {
			style = m.styles.Active
		}
		if i == m.cursor {
			style = style.Inherit(m.styles.Cursor)
		}
		rendered = append(rendered, style.Render(btn.Label))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderCards(cards []moodview.Card) string {
	if len(cards) == 0 {
		return ""
	}

	perRow := 1
	if m.width > cardWidth {
		perRow = m.width / cardWidth
	}

	var rows []string
	for start := 0; start < len(cards); start += perRow {
		end := min(start+perRow, len(cards))
		row := make([]string, 0, end-start)
		for _, c := range cards[start:end] {
			row = append(row, m.renderCard(c))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, row...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func (m Model) renderCard(c moodview.Card) string {
	lines := []string{
		m.styles.TrackName.Render(c.Name),
		m.styles.Artist.Render(c.Artist),
		m.styles.Faint.Render(c.Album),
	}
	if c.HasImage {
		lines = append(lines, m.styles.Faint.Render("art: "+c.Image))
	}
	if c.HasPreview {
		lines = append(lines, m.styles.PreviewURL.Render("▶ "+c.PreviewURL))
	} else {
		lines = append(lines, m.styles.NoPreview.Render(c.NoPreview))
	}
	return m.styles.Card.Render(strings.Join(lines, "\n"))
}
