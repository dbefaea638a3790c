package ui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tuneline/internal/formatter"
	"github.com/desertthunder/tuneline/internal/game"
	"github.com/desertthunder/tuneline/internal/services"
	"github.com/desertthunder/tuneline/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	SetupView ViewState = iota
	PlaylistListView
	LoadingView
	TurnView
	FeedbackView
	GameOverView
)

const (
	focusTitle = iota
	focusArtist
)

// Model represents the TUI application state.
type Model struct {
	ctx     context.Context
	view    ViewState
	engine  *game.Engine
	builder *tasks.DeckBuilder
	width   int
	height  int

	nameInput    textinput.Model
	playlistList list.Model
	playlists    []services.Playlist

	titleInput  textinput.Model
	artistInput textinput.Model
	focus       int
	optionList  list.Model

	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate
	startErr     error

	snap   game.Snapshot
	result *game.TurnResult
	err    error
	help   help.Model
	keys   keyMap
}

type playlistsFetchedMsg struct {
	playlists []services.Playlist
	err       error
}

type deckReadyMsg struct {
	err error
}

type progressUpdateMsg tasks.ProgressUpdate

type snippetPlayedMsg struct {
	count int
	err   error
}

type guessScoredMsg struct {
	result *game.TurnResult
	err    error
}

// NewModel creates a new TUI model with the provided dependencies.
func NewModel(ctx context.Context, engine *game.Engine, builder *tasks.DeckBuilder) *Model {
	name := textinput.New()
	name.Placeholder = "Player name"
	name.CharLimit = game.MaxPlayerNameLength
	name.Focus()

	title := textinput.New()
	title.Placeholder = "Song title"
	artist := textinput.New()
	artist.Placeholder = "Artist"

	return &Model{
		ctx:         ctx,
		view:        SetupView,
		engine:      engine,
		builder:     builder,
		nameInput:   name,
		titleInput:  title,
		artistInput: artist,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init starts the TUI in the setup view; nothing to fetch yet.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.playlistList.Width() == 0 {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.optionList.Width() == 0 {
			m.optionList.SetSize(msg.Width-4, (msg.Height-8)/2)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.quit) {
			return m, tea.Quit
		}
		switch m.view {
		case SetupView:
			return m.handleSetupKeys(msg)
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case TurnView:
			return m.handleTurnKeys(msg)
		case FeedbackView:
			return m.handleFeedbackKeys(msg)
		case GameOverView:
			return m.handleGameOverKeys(msg)
		}

	case playlistsFetchedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.view = SetupView
			return m, nil
		}
		m.playlists = msg.playlists
		items := make([]list.Item, len(msg.playlists))
		for i, pl := range msg.playlists {
			items[i] = playlistItem{playlist: pl}
		}
		m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.playlistList.Title = "Pick a Playlist"
		m.playlistList.SetSize(m.width-4, m.height-8)
		m.view = PlaylistListView
		return m, nil

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case deckReadyMsg:
		m.progressChan = nil
		if msg.err != nil {
			m.err = msg.err
			m.view = PlaylistListView
			return m, nil
		}
		m.err = nil
		m.beginTurn()
		return m, nil

	case snippetPlayedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
		}
		return m, nil

	case guessScoredMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.result = msg.result
		m.snap = m.engine.Snapshot()
		m.view = FeedbackView
		return m, nil
	}

	return m.updateInputs(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case SetupView:
		return m.renderSetup()
	case PlaylistListView:
		return m.renderPlaylistList()
	case LoadingView:
		return m.renderLoading()
	case TurnView:
		return m.renderTurn()
	case FeedbackView:
		return m.renderFeedback()
	case GameOverView:
		return m.renderGameOver()
	default:
		return ""
	}
}

func (m *Model) handleSetupKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.enter):
		name := strings.TrimSpace(m.nameInput.Value())
		if name == "" {
			return m, nil
		}
		if err := m.engine.AddPlayer(name); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.nameInput.Reset()
		return m, nil

	case key.Matches(msg, m.keys.start):
		if len(m.engine.Snapshot().Players) == 0 {
			return m, nil
		}
		return m, m.fetchPlaylists()
	}

	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.back):
		m.view = SetupView
		return m, nil
	case key.Matches(msg, m.keys.enter):
		selected := m.playlistList.SelectedItem()
		if selected != nil {
			if pl, ok := selected.(playlistItem); ok {
				if err := m.engine.SelectPlaylist(pl.playlist.ID); err != nil {
					m.err = err
					return m, nil
				}
				m.err = nil
				m.view = LoadingView
				return m, m.startGame()
			}
		}
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleTurnKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.play):
		return m, m.playSnippet()

	case key.Matches(msg, m.keys.tab):
		if m.focus == focusTitle {
			m.focus = focusArtist
			m.titleInput.Blur()
			return m, m.artistInput.Focus()
		}
		m.focus = focusTitle
		m.artistInput.Blur()
		return m, m.titleInput.Focus()

	case key.Matches(msg, m.keys.enter):
		return m, m.submitGuess()

	case key.Matches(msg, m.keys.up), key.Matches(msg, m.keys.down):
		// The option list owns vertical navigation; text inputs never use it.
		if msg.String() == "up" || msg.String() == "down" {
			var cmd tea.Cmd
			m.optionList, cmd = m.optionList.Update(msg)
			return m, cmd
		}
	}

	return m.updateInputs(msg)
}

func (m *Model) handleFeedbackKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.enter) {
		if err := m.engine.AdvanceTurn(); err != nil {
			m.err = err
			return m, nil
		}
		if m.engine.State() == game.StateGameOver {
			m.snap = m.engine.Snapshot()
			m.view = GameOverView
			return m, nil
		}
		m.beginTurn()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleGameOverKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.restart):
		m.engine.PlayAgain()
		m.result = nil
		m.err = nil
		m.view = SetupView
		return m, m.nameInput.Focus()
	case key.Matches(msg, m.keys.back):
		return m, tea.Quit
	}
	return m, nil
}

// beginTurn refreshes the snapshot and rebuilds the per-turn widgets.
func (m *Model) beginTurn() {
	m.snap = m.engine.Snapshot()
	m.result = nil
	m.titleInput.Reset()
	m.artistInput.Reset()
	m.artistInput.Blur()
	m.titleInput.Focus()
	m.focus = focusTitle

	items := make([]list.Item, len(m.snap.PlacementOptions))
	for i, opt := range m.snap.PlacementOptions {
		items[i] = optionItem{option: opt}
	}
	m.optionList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.optionList.Title = "Where does it belong?"
	m.optionList.SetShowHelp(false)
	m.optionList.SetFilteringEnabled(false)
	m.optionList.SetSize(m.width-4, (m.height-8)/2)
	m.view = TurnView
}

func (m *Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd
	switch m.view {
	case SetupView:
		m.nameInput, cmd = m.nameInput.Update(msg)
		cmds = append(cmds, cmd)
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
		cmds = append(cmds, cmd)
	case TurnView:
		m.titleInput, cmd = m.titleInput.Update(msg)
		cmds = append(cmds, cmd)
		m.artistInput, cmd = m.artistInput.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) fetchPlaylists() tea.Cmd {
	return func() tea.Msg {
		playlists, err := m.builder.ListAllPlaylists(m.ctx)
		return playlistsFetchedMsg{playlists: playlists, err: err}
	}
}

func (m *Model) startGame() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 50)
	m.builder.WithProgress(m.progressChan)

	ch := m.progressChan
	go func() {
		m.startErr = m.engine.StartGame(m.ctx)
		close(ch)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	return func() tea.Msg {
		if m.progressChan == nil {
			return deckReadyMsg{err: m.startErr}
		}

		update, ok := <-m.progressChan
		if !ok {
			return deckReadyMsg{err: m.startErr}
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) playSnippet() tea.Cmd {
	return func() tea.Msg {
		count, err := m.engine.PlaySnippet(m.ctx)
		return snippetPlayedMsg{count: count, err: err}
	}
}

func (m *Model) submitGuess() tea.Cmd {
	var rangeValue string
	if selected := m.optionList.SelectedItem(); selected != nil {
		if opt, ok := selected.(optionItem); ok {
			rangeValue = opt.option.Value
		}
	}
	sub := game.GuessSubmission{
		Title:      m.titleInput.Value(),
		Artist:     m.artistInput.Value(),
		RangeValue: rangeValue,
	}

	return func() tea.Msg {
		result, err := m.engine.SubmitGuess(m.ctx, sub)
		return guessScoredMsg{result: result, err: err}
	}
}

func (m *Model) renderSetup() string {
	title := styles.title.Render("Tuneline")

	var roster strings.Builder
	for i, p := range m.engine.Snapshot().Players {
		fmt.Fprintf(&roster, "%d. %s\n", i+1, p.Name)
	}

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	helpKeys := []key.Binding{m.keys.enter, m.keys.start, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s\n%s%s", title, roster.String(), m.nameInput.View(), errLine, helpView)
}

func (m *Model) renderPlaylistList() string {
	var errLine string
	if m.err != nil {
		errLine = "\n" + styles.err.Render(fmt.Sprintf("Error: %v", m.err))
	}
	helpKeys := []key.Binding{m.keys.enter, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s%s\n\n%s", m.playlistList.View(), errLine, helpView)
}

func (m *Model) renderLoading() string {
	title := styles.title.Render("Building Deck")

	var phase string
	switch m.progress.Phase {
	case tasks.FetchTracks:
		phase = fmt.Sprintf("Fetching tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.NormalizeTracks:
		phase = "Normalizing tracks..."
	case tasks.CacheTracks:
		phase = "Caching tracks..."
	default:
		phase = "Working..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderTurn() string {
	player := ""
	if m.snap.CurrentPlayerIndex < len(m.snap.Players) {
		player = m.snap.Players[m.snap.CurrentPlayerIndex].Name
	}
	title := styles.title.Render(fmt.Sprintf("%s's Turn", player))
	counter := styles.help.Render(fmt.Sprintf("Song %d • %d remaining", m.snap.CurrentSongIndex+1, m.snap.SongsRemaining))

	var timeline strings.Builder
	if m.snap.CurrentPlayerIndex < len(m.snap.Players) {
		for _, card := range m.snap.Players[m.snap.CurrentPlayerIndex].Timeline {
			fmt.Fprintf(&timeline, "  %d: %s - %s\n", card.Year, card.Artist, card.Title)
		}
	}

	var errLine string
	if m.err != nil {
		errLine = styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	helpKeys := []key.Binding{m.keys.play, m.keys.tab, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n\nTimeline:\n%s\n%s\n%s\n\n%s\n%s%s",
		title, counter, timeline.String(),
		m.titleInput.View(), m.artistInput.View(),
		m.optionList.View(), errLine, helpView)
}

func (m *Model) renderFeedback() string {
	if m.result == nil {
		return styles.err.Render("No result available")
	}

	var verdict string
	if m.result.Perfect {
		verdict = styles.ok.Render("★ Perfect!")
	} else if m.result.Points > 0 {
		verdict = styles.ok.Render(fmt.Sprintf("+%d points", m.result.Points))
	} else {
		verdict = styles.warn.Render("No points this time")
	}

	mark := func(ok bool) string {
		if ok {
			return styles.ok.Render("✓")
		}
		return styles.err.Render("✗")
	}

	detail := fmt.Sprintf(
		"\nIt was: %s - %s (%d)\n\n%s Title  %s Artist  %s Placement\n",
		m.result.Track.Artist, m.result.Track.Title, m.result.Track.Year,
		mark(m.result.TitleCorrect), mark(m.result.ArtistCorrect), mark(m.result.PlacementCorrect),
	)

	var note string
	if m.result.TimelineFull {
		note = styles.warn.Render("Timeline full, the card was not added.") + "\n"
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.enter, m.keys.quit})
	return fmt.Sprintf("%s%s\n%s%s", verdict, detail, note, helpView)
}

func (m *Model) renderGameOver() string {
	title := styles.title.Render("Game Over")

	var standings strings.Builder
	for i, p := range formatter.Standings(m.snap.Players) {
		fmt.Fprintf(&standings, "%d. %s • %d points (%d cards)\n", i+1, p.Name, p.Score, len(p.Timeline))
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, standings.String(), helpView)
}
