package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunescope/internal/dashboard"
	"github.com/desertthunder/tunescope/internal/formatter"
	"github.com/desertthunder/tunescope/internal/models"
	"github.com/desertthunder/tunescope/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PlaylistListView ViewState = iota
	LoadingView
	DashboardView
)

// histogramWidth is the bar width of the text histogram.
const histogramWidth = 40

// Model represents the TUI application state.
type Model struct {
	ctx          context.Context
	session      *dashboard.Session
	logger       *log.Logger
	view         ViewState
	width        int
	height       int
	playlistList list.Model
	trackTable   table.Model
	spinner      spinner.Model
	bar          progress.Model
	build        int
	loading      string
	progress     tasks.ProgressUpdate
	current      dashboard.View
	showKey      bool
	help         help.Model
	keys         keyMap
}

// NewModel creates a new TUI model over a dashboard session.
//
// The default feature is selected up front so the first build lands in the feature-selected state.
func NewModel(ctx context.Context, session *dashboard.Session, logger *log.Logger) *Model {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	_, feature := session.Defaults()
	session.SelectFeature(string(feature))

	playlistList := list.New(playlistItems(session.Playlists()), list.NewDefaultDelegate(), 0, 0)
	playlistList.Title = "Spotify Playlists"

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = styles.ok

	return &Model{
		ctx:          ctx,
		session:      session,
		logger:       logger,
		view:         PlaylistListView,
		playlistList: playlistList,
		trackTable: table.New(
			table.WithColumns(tableColumns()),
			table.WithFocused(true),
			table.WithHeight(10),
		),
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient()),
		current: session.View(),
		help:    help.New(),
		keys:    newKeyMap(),
	}
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.playlistList.SetSize(msg.Width-4, msg.Height-4)
		m.bar.Width = min(msg.Width-4, 60)
		m.trackTable.SetHeight(max(msg.Height/3, 5))
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PlaylistListView:
			return m.handlePlaylistListKeys(msg)
		case LoadingView:
			return m.handleLoadingKeys(msg)
		case DashboardView:
			return m.handleDashboardKeys(msg)
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgProgressUpdate:
		if msg.build.id == m.build {
			m.progress = msg.data.(tasks.ProgressUpdate)
		}
		return m, waitForProgress(msg.build)

	case MsgBuildComplete:
		res := msg.data.(buildResult)
		if msg.build.id != m.build || errors.Is(res.err, dashboard.ErrSuperseded) {
			m.logger.Debug("ignoring superseded build", "build", msg.build.id)
			return m, nil
		}

		m.loading = ""
		if errors.Is(res.err, context.Canceled) {
			m.view = PlaylistListView
			return m, nil
		}

		m.current = res.view
		m.trackTable.SetRows(tableRows(m.snapshotTable()))
		m.trackTable.GotoTop()
		m.view = DashboardView
		return m, nil
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	switch m.view {
	case PlaylistListView:
		return m.renderPlaylistList()
	case LoadingView:
		return m.renderLoading()
	case DashboardView:
		return m.renderDashboard()
	default:
		return ""
	}
}

func (m *Model) handlePlaylistListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		m.session.Cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.enter):
		if pl, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.startBuild(pl.playlist.Name)
		}
		return m, nil
	case key.Matches(msg, m.keys.back):
		if m.current.Snapshot != nil || m.current.Err != nil {
			m.view = DashboardView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) handleLoadingKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		m.session.Cancel()
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.session.Cancel()
		return m, nil
	}
	return m, nil
}

func (m *Model) handleDashboardKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.back):
		m.view = PlaylistListView
		return m, nil
	case key.Matches(msg, m.keys.next):
		m.cycleFeature(1)
		return m, nil
	case key.Matches(msg, m.keys.prev):
		m.cycleFeature(-1)
		return m, nil
	case key.Matches(msg, m.keys.features):
		m.showKey = !m.showKey
		return m, nil
	case key.Matches(msg, m.keys.reload):
		if m.current.Playlist != "" {
			return m, m.startBuild(m.current.Playlist)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.trackTable, cmd = m.trackTable.Update(msg)
	return m, cmd
}

// cycleFeature moves the feature selection by step, wrapping around [models.AnalysisFeatures].
func (m *Model) cycleFeature(step int) {
	features := m.session.Features()
	idx := 0
	for i, f := range features {
		if f == m.current.Feature {
			idx = i
			break
		}
	}
	idx = (idx + step + len(features)) % len(features)

	if m.session.SelectFeature(string(features[idx])) {
		m.current = m.session.View()
	}
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PlaylistListView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case DashboardView:
		m.trackTable, cmd = m.trackTable.Update(msg)
	}
	return m, cmd
}

// startBuild selects name on the session in the background.
//
// A build already in flight is superseded; its completion message is dropped.
func (m *Model) startBuild(name string) tea.Cmd {
	m.build++
	h := &buildHandle{
		id:       m.build,
		progress: make(chan tasks.ProgressUpdate, 50),
		done:     make(chan buildResult, 1),
	}

	m.progress = tasks.ProgressUpdate{}
	m.loading = name
	m.view = LoadingView
	m.logger.Info("selecting playlist", "playlist", name, "build", h.id)

	session, ctx := m.session, m.ctx
	go func() {
		view, err := session.SelectPlaylist(ctx, name, h.progress)
		h.done <- buildResult{view: view, err: err}
		close(h.progress)
	}()

	return tea.Batch(m.spinner.Tick, waitForProgress(h))
}

// waitForProgress relays the next progress update of h, then its result once the channel closes.
func waitForProgress(h *buildHandle) tea.Cmd {
	return func() tea.Msg {
		if update, ok := <-h.progress; ok {
			return progressUpdateMsg(h, update)
		}
		res := <-h.done
		return buildCompleteMsg(h, res.view, res.err)
	}
}

func (m *Model) snapshotTable() *models.Table {
	if m.current.Snapshot == nil {
		return nil
	}
	return m.current.Snapshot.Table
}

func (m *Model) renderPlaylistList() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	if m.current.Snapshot != nil {
		helpKeys = append(helpKeys, m.keys.back)
	}
	return fmt.Sprintf("%s\n\n%s", m.playlistList.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderLoading() string {
	title := styles.title.Render(fmt.Sprintf("Loading '%s'", m.loading))

	var phase string
	switch m.progress.Phase {
	case tasks.FetchPlaylist:
		phase = "Fetching playlist tracks..."
	case tasks.FetchFeatures:
		phase = fmt.Sprintf("Fetching audio features (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.Aggregate:
		phase = "Computing correlations and histograms..."
	case tasks.Complete:
		phase = "Done"
	default:
		phase = "Starting..."
	}

	percent := 0.0
	if m.progress.Total > 0 {
		percent = float64(m.progress.Step) / float64(m.progress.Total)
	}

	helpView := m.help.ShortHelpView([]key.Binding{m.keys.back, m.keys.quit})
	return fmt.Sprintf("%s\n%s %s\n%s\n%s\n\n%s",
		title, m.spinner.View(), phase, m.bar.ViewAs(percent), styles.help.Render(m.progress.Message), helpView)
}

func (m *Model) renderDashboard() string {
	v := m.current
	var b strings.Builder

	b.WriteString(styles.title.Render(fmt.Sprintf("Spotify Playlist Analysis: %s", v.Playlist)))
	b.WriteString("\n")

	if v.Err != nil {
		b.WriteString(styles.err.Render(fmt.Sprintf("Error: %v", v.Err)))
		b.WriteString("\n\n")
		b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.reload, m.keys.back, m.keys.quit}))
		return b.String()
	}
	if v.Snapshot == nil {
		b.WriteString(styles.warn.Render("No playlist selected"))
		return b.String()
	}

	b.WriteString(m.renderFeatureBar())
	b.WriteString("\n\n")

	heatmap := styles.box.Render("Density Heatmap\n\n" + formatter.CorrelationText(v.Snapshot.Correlation))
	var trends string
	if v.Histogram != nil {
		trends = formatter.HistogramText(v.Histogram, histogramWidth)
	} else {
		trends = styles.warn.Render(v.Message())
	}
	trends = styles.box.Render("Audio Feature Trends\n\n" + trends)

	if m.width > 0 && lipgloss.Width(heatmap)+lipgloss.Width(trends) > m.width {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, heatmap, trends))
	} else {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, heatmap, trends))
	}
	b.WriteString("\n\n")

	if m.showKey {
		b.WriteString(m.renderFeatureKey())
		b.WriteString("\n")
	}

	b.WriteString(m.trackTable.View())
	b.WriteString("\n\n")
	b.WriteString(m.help.ShortHelpView([]key.Binding{m.keys.next, m.keys.prev, m.keys.features, m.keys.back, m.keys.quit}))
	return b.String()
}

func (m *Model) renderFeatureBar() string {
	parts := make([]string, 0, len(models.AnalysisFeatures))
	for _, f := range m.session.Features() {
		if f == m.current.Feature {
			parts = append(parts, styles.selected.Render(f.Title()))
		} else {
			parts = append(parts, styles.help.Render(f.Title()))
		}
	}
	return "Feature: " + strings.Join(parts, "  ")
}

func (m *Model) renderFeatureKey() string {
	var b strings.Builder
	b.WriteString(styles.ok.Render("Key for Audio Features"))
	b.WriteString("\n")
	for _, f := range models.AnalysisFeatures {
		b.WriteString(fmt.Sprintf("%s: %s\n", styles.ok.Render(f.Title()), models.FeatureDescriptions[f]))
	}
	return b.String()
}
