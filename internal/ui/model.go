// Package ui is the Bubbletea front end: it translates key presses into
// controller intents and draws the library, transport and visualizer panes.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pwells-dev/auris/internal/controller"
	"github.com/pwells-dev/auris/internal/library"
	"github.com/pwells-dev/auris/internal/player"
	"github.com/pwells-dev/auris/internal/util"
	"github.com/pwells-dev/auris/internal/visualizer"
)

const seekStep = 5 * time.Second

type trackItem struct {
	track library.Track
}

func (i trackItem) Title() string {
	if i.track.Favorite {
		return "★ " + i.track.Title
	}
	return i.track.Title
}

func (i trackItem) Description() string {
	desc := i.track.Artist
	if bpm := i.track.TempoBPM(); bpm > 0 {
		if desc != "" {
			desc += "  ·  "
		}
		desc += fmt.Sprintf("%d bpm", bpm)
	}
	if desc == "" {
		return "unknown artist"
	}
	return desc
}

func (i trackItem) FilterValue() string { return i.track.Title + " " + i.track.Artist }

// Model is the Bubbletea model for the auris TUI.
type Model struct {
	ctrl     *controller.Controller
	analyzer *visualizer.Analyzer
	lib      *library.Store
	events   <-chan player.Event

	list    list.Model
	modes   []visualizer.Visualizer
	modeIdx int
	vizOn   bool
	vizGen  int
	fps     int

	browsing bool
	width    int
	height   int
	quitting bool
}

// New creates the model with the library pane focused.
func New(ctrl *controller.Controller, analyzer *visualizer.Analyzer, lib *library.Store, events <-chan player.Event, fps int) Model {
	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(lipgloss.AdaptiveColor{Light: "#333333", Dark: "#FFFFFF"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}).
		BorderLeftForeground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})

	l := list.New(trackItems(lib.Tracks()), delegate, 80, 20)
	l.Title = "auris"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)

	return Model{
		ctrl:     ctrl,
		analyzer: analyzer,
		lib:      lib,
		events:   events,
		list:     l,
		modes:    visualizer.Modes(fps),
		vizOn:    true,
		fps:      fps,
		browsing: true,
	}
}

func trackItems(tracks []library.Track) []list.Item {
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	return items
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tickCmd(),
		frameCmd(m.vizGen, m.fps),
		listenEvents(m.events),
		tea.SetWindowTitle("auris"),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	return m.handleMsg(msg)
}

func (m Model) handleMsg(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tickMsg:
		return m, tickCmd()

	case frameMsg:
		// A stale generation means the render loop was restarted; let
		// this chain die so ticks are never duplicated.
		if msg.gen != m.vizGen || !m.vizOn {
			return m, nil
		}
		frame := m.analyzer.Frame()
		m.mode().Update(frame, m.vizWidth(), m.vizHeight())
		return m, frameCmd(m.vizGen, m.fps)

	case engineEventMsg:
		prev := m.ctrl.ActiveID()
		m.ctrl.HandleEvent(msg.ev)
		if m.ctrl.ActiveID() != prev {
			// End-of-track advancement changed tracks without a key press.
			m.syncAccent()
		}
		return m, listenEvents(m.events)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-2)
		return m, nil
	}

	if m.browsing {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	// While the list filter is open, keys belong to it.
	if m.browsing && m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	if isQuit(msg) {
		m.quitting = true
		return m, tea.Sequence(tea.SetWindowTitle(""), tea.Quit)
	}

	switch msg.String() {
	case "enter":
		if m.browsing {
			if it, ok := m.list.SelectedItem().(trackItem); ok {
				m.selectTrack(it.track.ID)
				m.browsing = false
			}
			return m, nil
		}
	case "tab":
		m.browsing = !m.browsing
		return m, nil
	case " ":
		m.ctrl.TogglePlay()
		return m, nil
	case "n":
		m.ctrl.Next()
		m.syncAccent()
		return m, nil
	case "p":
		m.ctrl.Previous()
		m.syncAccent()
		return m, nil
	case "s":
		m.ctrl.ToggleShuffle()
		return m, nil
	case "left", "h":
		m.ctrl.SeekBy(-seekStep)
		return m, nil
	case "right", "l":
		m.ctrl.SeekBy(seekStep)
		return m, nil
	case "f":
		m.toggleFavorite()
		return m, nil
	case "v":
		m = m.cycleViz()
		if m.vizOn {
			// The old tick chain died with the old generation; start the
			// new one here.
			return m, frameCmd(m.vizGen, m.fps)
		}
		return m, nil
	}

	if m.browsing {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

// selectTrack activates a track with the currently visible list order as the
// new queue, so selecting from a filtered view queues exactly the matches.
func (m *Model) selectTrack(id string) {
	items := m.list.VisibleItems()
	visible := make([]library.Track, 0, len(items))
	for _, it := range items {
		if t, ok := it.(trackItem); ok {
			visible = append(visible, t.track)
		}
	}
	m.ctrl.SelectTrack(id, visible)
	m.syncAccent()
}

// syncAccent pushes the active track's accent color into every visualizer
// mode and clears stale analysis when the track changed.
func (m *Model) syncAccent() {
	t, ok := m.ctrl.ActiveTrack()
	if !ok {
		return
	}
	for _, mode := range m.modes {
		mode.SetAccent(t.AccentColor)
	}
	m.analyzer.Reset()
}

func (m *Model) toggleFavorite() {
	var id string
	var fav bool
	if m.browsing {
		it, ok := m.list.SelectedItem().(trackItem)
		if !ok {
			return
		}
		id, fav = it.track.ID, it.track.Favorite
	} else {
		t, ok := m.ctrl.ActiveTrack()
		if !ok {
			return
		}
		id, fav = t.ID, t.Favorite
	}
	if err := m.lib.SetFavorite(id, !fav); err != nil {
		return
	}
	m.list.SetItems(trackItems(m.lib.Tracks()))
}

// cycleViz steps through visualizer modes, switching off after the last one.
// Every change bumps the generation so exactly one tick chain is live.
func (m Model) cycleViz() Model {
	m.vizGen++
	if !m.vizOn {
		m.vizOn = true
		m.modeIdx = 0
	} else if m.modeIdx+1 < len(m.modes) {
		m.modeIdx++
	} else {
		m.vizOn = false
		return m
	}
	return m
}

func (m Model) mode() visualizer.Visualizer { return m.modes[m.modeIdx] }

func (m Model) vizWidth() int {
	if m.width < 30 {
		return 50
	}
	return m.width - 4
}

func (m Model) vizHeight() int {
	h := m.height - 12
	if h < 3 {
		h = 3
	}
	if h > 16 {
		h = 16
	}
	return h
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.browsing {
		return m.list.View() + "\n" + helpStyle.Render(helpText(true))
	}

	w := m.width
	if w < 30 {
		w = 50
	}

	t, active := m.ctrl.ActiveTrack()

	header := headerStyle.Render("auris")

	title := titleStyle.Render("nothing playing")
	subtitle := ""
	if active {
		style := titleStyle
		if t.AccentColor != "" {
			style = style.Foreground(lipgloss.Color(t.AccentColor))
		}
		title = style.Render(t.Title)
		if t.Artist != "" {
			subtitle = artistStyle.Render(t.Artist)
		}
	}

	elapsed := util.FormatDuration(m.ctrl.Position())
	total := util.FormatDuration(m.ctrl.Duration())
	barWidth := w - len(elapsed) - len(total) - 6
	bar := renderProgressBar(m.ctrl.ProgressPercent(), barWidth)
	progressLine := fmt.Sprintf("%s %s %s", timeStyle.Render(elapsed), bar, timeStyle.Render(total))

	statusLine := m.statusLine(t, active)

	lines := "\n"
	lines += "  " + header + "\n\n"
	lines += "  " + title + "\n"
	if subtitle != "" {
		lines += "  " + subtitle + "\n"
	}
	lines += "\n"
	if m.vizOn {
		lines += m.mode().View() + "\n\n"
	}
	lines += "  " + progressLine + "\n\n"
	lines += "  " + statusLine + "\n\n"
	lines += "  " + helpStyle.Render(helpText(false)) + "\n"
	return lines
}

func (m Model) statusLine(t library.Track, active bool) string {
	icon, text := "▶", "playing"
	switch m.ctrl.Phase() {
	case controller.Paused:
		icon, text = "❚❚", "paused"
	case controller.Loading:
		icon, text = "…", "loading"
	case controller.Idle:
		icon, text = "·", "idle"
	}
	s := fmt.Sprintf("%s  %s", icon, text)
	if m.ctrl.Shuffle() {
		s += "  [shuffle]"
	}
	if active && t.Favorite {
		s += "  " + favoriteStyle.Render("★")
	}
	if m.vizOn {
		s += "  viz:" + m.mode().Name()
	}
	return statusStyle.Render(s)
}
