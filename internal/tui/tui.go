// Package tui provides a Bubble Tea terminal view of a running load.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/handiism/lyrics-harvester/internal/monitor"
	"github.com/handiism/lyrics-harvester/internal/pipeline"
	"github.com/handiism/lyrics-harvester/internal/sink"
)

// Styles for the TUI
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4ECDC4"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#95E1A3"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFE66D"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A8DADC"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6C757D"))

	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#4ECDC4")).
			Padding(1, 2)
)

const maxLogs = 10

// State represents the current UI state.
type State int

const (
	StateWaiting State = iota
	StateMonitoring
	StateComplete
	StateStopped
)

// LogEntry represents a log message in the UI.
type LogEntry struct {
	Message string
	Level   pipeline.ProgressLevel
}

// StatsFunc returns collection totals for the summary box.
type StatsFunc func(ctx context.Context) (sink.Stats, error)

// Model is the Bubble Tea model for the monitor.
type Model struct {
	state      State
	spinner    spinner.Model
	progress   progress.Model
	collection string
	logs       []LogEntry

	snapshots <-chan monitor.Snapshot
	statsFn   StatsFunc
	ctx       context.Context
	cancel    context.CancelFunc

	last     monitor.Snapshot
	stats    sink.Stats
	statsErr error
	verbose  bool

	width int
}

// NewModel creates a monitor model reading from snapshots. statsFn may be
// nil.
func NewModel(ctx context.Context, collection string, snapshots <-chan monitor.Snapshot, statsFn StatsFunc) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))

	prog := progress.New(progress.WithDefaultGradient())
	prog.Width = 50

	ctx, cancel := context.WithCancel(ctx)

	return Model{
		state:      StateWaiting,
		spinner:    sp,
		progress:   prog,
		collection: collection,
		snapshots:  snapshots,
		statsFn:    statsFn,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForSnapshot())
}

// Message types
type (
	// SnapshotMsg carries one poll result. Closed is set once the poller
	// has stopped.
	SnapshotMsg struct {
		Snapshot monitor.Snapshot
		Closed   bool
	}

	// StatsMsg carries collection totals.
	StatsMsg struct {
		Stats sink.Stats
		Err   error
	}
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(max(msg.Width-20, 20), 80)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.cancel()
			return m, tea.Quit
		case "v":
			m.verbose = !m.verbose
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case SnapshotMsg:
		if msg.Closed {
			if m.last.Done {
				m.state = StateComplete
			} else {
				m.state = StateStopped
			}
			return m, m.fetchStats()
		}

		m.state = StateMonitoring
		m.last = msg.Snapshot
		m.addLog(snapshotLog(msg.Snapshot))
		if msg.Snapshot.Expected > 0 {
			cmds = append(cmds, m.progress.SetPercent(msg.Snapshot.Progress()))
		}
		cmds = append(cmds, m.fetchStats(), m.waitForSnapshot())

	case StatsMsg:
		m.stats, m.statsErr = msg.Stats, msg.Err

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) addLog(e LogEntry) {
	if e.Level == pipeline.LevelVerbose && !m.verbose {
		return
	}
	m.logs = append(m.logs, e)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

func snapshotLog(s monitor.Snapshot) LogEntry {
	at := s.At.Format("15:04:05")
	switch {
	case s.Err != nil:
		return LogEntry{Message: fmt.Sprintf("%s count failed: %v", at, s.Err), Level: pipeline.LevelWarning}
	case s.Done:
		return LogEntry{Message: fmt.Sprintf("%s reached %d documents", at, s.Count), Level: pipeline.LevelSuccess}
	case s.Delta == 0:
		return LogEntry{Message: fmt.Sprintf("%s no new documents", at), Level: pipeline.LevelVerbose}
	default:
		return LogEntry{Message: fmt.Sprintf("%s +%d documents (%.1f docs/min)", at, s.Delta, s.Rate), Level: pipeline.LevelInfo}
	}
}

// waitForSnapshot returns a command that blocks on the next snapshot.
func (m Model) waitForSnapshot() tea.Cmd {
	ch := m.snapshots
	return func() tea.Msg {
		s, ok := <-ch
		if !ok {
			return SnapshotMsg{Closed: true}
		}
		return SnapshotMsg{Snapshot: s}
	}
}

func (m Model) fetchStats() tea.Cmd {
	if m.statsFn == nil {
		return nil
	}
	ctx, fn := m.ctx, m.statsFn
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		st, err := fn(ctx)
		return StatsMsg{Stats: st, Err: err}
	}
}

// View renders the UI.
func (m Model) View() string {
	var b strings.Builder

	// Header
	b.WriteString(titleStyle.Render("♪ Lyrics Harvester"))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("Monitoring collection %q", m.collection)))
	b.WriteString("\n\n")

	switch m.state {
	case StateWaiting:
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
		b.WriteString(subtitleStyle.Render("Waiting for the first count..."))
		b.WriteString("\n")
	case StateMonitoring:
		b.WriteString(m.viewMonitoring())
	case StateComplete:
		b.WriteString(m.viewSummary("✓ Load complete!"))
	case StateStopped:
		b.WriteString(m.viewSummary("Monitor stopped"))
	}

	// Footer
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("v: verbose • q: quit"))

	return b.String()
}

func (m Model) viewMonitoring() string {
	var b strings.Builder

	b.WriteString(m.spinner.View())
	b.WriteString(" ")
	b.WriteString(subtitleStyle.Render(fmt.Sprintf("%d documents", m.last.Count)))
	b.WriteString("\n\n")

	if m.last.Expected > 0 {
		b.WriteString(m.progress.ViewAs(m.last.Progress()))
		b.WriteString("\n")
	}

	line := fmt.Sprintf("Rate: %.1f docs/min | Elapsed: %s", m.last.Rate, m.last.Elapsed.Round(time.Second))
	if m.last.ETA > 0 {
		line += fmt.Sprintf(" | ETA: %s", m.last.ETA.Round(time.Minute))
	}
	b.WriteString(infoStyle.Render(line))
	b.WriteString("\n")
	b.WriteString(m.viewStats())
	b.WriteString("\n")

	b.WriteString(m.renderLogs())

	return b.String()
}

func (m Model) viewStats() string {
	if m.statsFn == nil {
		return ""
	}
	if m.statsErr != nil {
		return warningStyle.Render(fmt.Sprintf("Stats unavailable: %v", m.statsErr)) + "\n"
	}
	return dimStyle.Render(fmt.Sprintf(
		"Matched: %d | Estimated: %d | Genres: %d | Artists: %d",
		m.stats.SpotifyFound, m.stats.Estimated, m.stats.Genres, m.stats.Artists,
	)) + "\n"
}

func (m Model) viewSummary(title string) string {
	body := fmt.Sprintf("%s\n\nDocuments: %d\nElapsed: %s", title, m.last.Count, m.last.Elapsed.Round(time.Second))
	if m.statsFn != nil && m.statsErr == nil {
		body += fmt.Sprintf("\nMatched: %d\nEstimated: %d\nGenres: %d\nArtists: %d",
			m.stats.SpotifyFound, m.stats.Estimated, m.stats.Genres, m.stats.Artists)
	}
	return boxStyle.Render(body) + "\n"
}

func (m Model) renderLogs() string {
	var b strings.Builder

	for _, log := range m.logs {
		var style lipgloss.Style
		prefix := "•"
		switch log.Level {
		case pipeline.LevelError:
			style = errorStyle
			prefix = "✗"
		case pipeline.LevelWarning:
			style = warningStyle
			prefix = "!"
		case pipeline.LevelSuccess:
			style = successStyle
			prefix = "✓"
		case pipeline.LevelInfo:
			style = infoStyle
			prefix = "›"
		default:
			style = dimStyle
		}
		b.WriteString(style.Render(prefix + " " + log.Message))
		b.WriteString("\n")
	}

	return b.String()
}

// Run starts the monitor UI and blocks until the user quits.
func Run(ctx context.Context, collection string, poller *monitor.Poller, statsFn StatsFunc) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(NewModel(ctx, collection, poller.Run(ctx), statsFn), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
