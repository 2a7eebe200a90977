package tui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-sightread/input"
	"go-sightread/midi"
	"go-sightread/music"
	"go-sightread/theme"
	"go-sightread/trainer"
	"go-sightread/widgets"
)

// Layout remembers where the note lane was drawn so mouse clicks can be
// resolved to pitches.
type Layout struct {
	laneTop int
	lane    widgets.Lane
}

func NewLayout() *Layout {
	return &Layout{laneTop: -1}
}

// PitchAt resolves a screen cell to a pitch on the lane.
func (l *Layout) PitchAt(x, y int) (int, bool) {
	if l.laneTop < 0 {
		return 0, false
	}
	return l.lane.PitchAt(x, y-l.laneTop)
}

type Model struct {
	Trainer   *trainer.Manager
	DeviceMgr *midi.DeviceManager
	Theme     *theme.Theme

	layout   *Layout
	held     *heldKeys
	frame    time.Duration
	last     time.Time
	width    int
	device   string
	showHelp bool
	quitting bool
}

type frameMsg time.Time

type DeviceEventMsg midi.DeviceEvent

// NewModel builds the host. fps sets the frame loop rate.
func NewModel(tr *trainer.Manager, deviceMgr *midi.DeviceManager, th *theme.Theme, layout *Layout, fps int) Model {
	if fps <= 0 {
		fps = 60
	}
	if layout == nil {
		layout = NewLayout()
	}
	return Model{
		Trainer:   tr,
		DeviceMgr: deviceMgr,
		Theme:     th,
		layout:    layout,
		held:      newHeldKeys(),
		frame:     time.Second / time.Duration(fps),
		width:     80,
	}
}

func tick(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func ListenForDevices(deviceMgr *midi.DeviceManager) tea.Cmd {
	if deviceMgr == nil {
		return nil
	}
	return func() tea.Msg {
		event, ok := <-deviceMgr.Events()
		if !ok {
			return nil
		}
		return DeviceEventMsg(event)
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		tick(m.frame),
		ListenForDevices(m.DeviceMgr),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case frameMsg:
		now := time.Time(msg)
		for _, ev := range m.held.expire(now) {
			m.Trainer.HandleKey(ev)
		}
		dt := m.frame.Seconds()
		if !m.last.IsZero() {
			dt = now.Sub(m.last).Seconds()
		}
		m.last = now
		m.Trainer.Update(dt)
		return m, tick(m.frame)

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			for _, ev := range m.held.releaseAll() {
				m.Trainer.HandleKey(ev)
			}
			return m, tea.Quit
		case "f1", "?":
			m.showHelp = !m.showHelp
		case "f2":
			snap := m.Trainer.Snapshot(0)
			next := input.PianoRow
			if snap.Mapping == input.PianoRow {
				next = input.NoteNames
			}
			m.Trainer.SetMapping(next)
		case "f5":
			m.report(m.Trainer.StartCareer())
		case "f6":
			m.report(m.Trainer.ContinueCareer())
		case "f7":
			_, err := m.Trainer.SkipSet()
			m.report(err)
		case "f8":
			m.report(m.Trainer.StepSet(-1))
		case "f9":
			m.report(m.Trainer.StepSet(1))
		case "]":
			m.Trainer.SetTempo(m.Trainer.Snapshot(0).Tempo + 5)
		case "[":
			m.Trainer.SetTempo(max(m.Trainer.Snapshot(0).Tempo-5, 5))
		default:
			ev := m.held.press(keyEvent(msg), time.Now())
			m.Trainer.HandleKey(ev)
		}

	case tea.MouseMsg:
		switch msg.Action {
		case tea.MouseActionPress:
			if msg.Button == tea.MouseButtonLeft {
				m.Trainer.HandleMouse(input.MouseEvent{X: msg.X, Y: msg.Y, Button: 1, Down: true})
			}
		case tea.MouseActionRelease:
			m.Trainer.HandleMouse(input.MouseEvent{X: msg.X, Y: msg.Y, Button: 1})
		}

	case DeviceEventMsg:
		event := midi.DeviceEvent(msg)
		if event.Type == midi.DeviceConnected {
			m.device = event.ID
		} else if event.ID == m.device {
			m.device = ""
		}
		return m, ListenForDevices(m.DeviceMgr)
	}

	return m, nil
}

func (m *Model) report(err error) {
	if err != nil {
		m.device = err.Error()
	}
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	cols := max(m.width-8, 24)
	noteWidth := max(m.Trainer.Snapshot(0).NoteWidth, 1)
	snap := m.Trainer.Snapshot(cols * noteWidth)

	// Styles
	headerStyle := lipgloss.NewStyle().Foreground(m.Theme.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(m.Theme.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(m.Theme.FG())

	playState := "STOP"
	switch {
	case snap.Complete:
		playState = "DONE"
	case snap.Running:
		playState = "PLAY"
	}
	title := "(no song)"
	if snap.Song != nil && snap.Song.Title != "" {
		title = snap.Song.Title
		if snap.Song.Artist != "" {
			title += " - " + snap.Song.Artist
		}
	}
	deviceStatus := ""
	if m.device != "" {
		deviceStatus = "  " + m.device
	}
	header := headerStyle.Render(fmt.Sprintf("sightread  %s  %3.0fbpm  %s  %s%s",
		playState, snap.Tempo, snap.Mode, title, deviceStatus))

	scoreLine := fgStyle.Render(fmt.Sprintf("score %5.1f / %.0f  ", snap.Score, snap.MaxScore)) +
		widgets.RenderTrophyBar(snap.Progress, 30, m.Theme)

	var notes []music.Note
	if snap.Song != nil {
		notes = snap.Song.Notes
	}
	lane := widgets.NewLane(notes, cols, snap.NoteWidth)
	laneView := lane.Render(snap.Upcoming, snap.MusicTime, snap.Held, m.Theme)

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n")
	out.WriteString(scoreLine)
	out.WriteString("\n\n")

	m.layout.lane = lane
	m.layout.laneTop = lipgloss.Height(out.String()) - 1
	out.WriteString(laneView)
	out.WriteString("\n\n")

	if snap.Source == trainer.SourceCareer {
		skip := ""
		if snap.CanSkip {
			skip = "  skip ready (F7)"
		}
		out.WriteString(fgStyle.Render(fmt.Sprintf("venue %d set %d  fans %d%s", snap.Venue, snap.Set+1, snap.Fans, skip)))
		out.WriteString("\n")
	}
	if snap.Last != nil {
		res := lipgloss.NewStyle().Foreground(m.Theme.Result(snap.Last.Result)).Render(snap.Last.Result.String())
		line := fmt.Sprintf("last: %s  %s %.0f%%", snap.Last.Title, res, snap.Last.Percent*100)
		if snap.Last.NewBest {
			line += "  new best"
		}
		if snap.Last.InTour {
			line += fmt.Sprintf("  %+d fans", snap.Last.Career.FanDelta)
		}
		out.WriteString(line)
		out.WriteString("\n")
	}
	if snap.Status != "" {
		out.WriteString(dimStyle.Render(snap.Status))
		out.WriteString("\n")
	}

	if m.showHelp {
		out.WriteString("\n")
		out.WriteString(widgets.RenderKeyHelp(helpSections(snap.Mapping)))
		out.WriteString("\n")
	}

	out.WriteString("\n")
	out.WriteString(dimStyle.Render(fmt.Sprintf("keys:%s oct:%d  space:play  tab:mode  F1:help  esc:quit",
		snap.Mapping, snap.Octave)))
	return out.String()
}

func helpSections(mapping input.Mapping) []widgets.KeySection {
	notes := widgets.KeySection{Title: "Notes", Keys: []widgets.KeyBinding{
		{Key: "c d e f g a b", Desc: "play the named note"},
		{Key: "Shift / Ctrl", Desc: "sharp / flat"},
		{Key: "up / down", Desc: "octave up / down"},
	}}
	if mapping == input.PianoRow {
		notes.Keys = []widgets.KeyBinding{
			{Key: "a s d f g h j", Desc: "white keys"},
			{Key: "w e t y u", Desc: "black keys"},
			{Key: "up / down", Desc: "octave up / down"},
		}
	}
	return []widgets.KeySection{
		notes,
		{Title: "Play", Keys: []widgets.KeyBinding{
			{Key: "space", Desc: "start / pause"},
			{Key: "left / right", Desc: "scrub"},
			{Key: "home", Desc: "restart"},
			{Key: "tab", Desc: "normal / pause-and-learn"},
			{Key: "[ / ]", Desc: "tempo -/+"},
			{Key: "delete", Desc: "all notes off"},
		}},
		{Title: "Career", Keys: []widgets.KeyBinding{
			{Key: "F5", Desc: "new career"},
			{Key: "F6", Desc: "continue career"},
			{Key: "F7", Desc: "skip set"},
			{Key: "F8 / F9", Desc: "replay previous / next set"},
		}},
		{Title: "Setup", Keys: []widgets.KeyBinding{
			{Key: "F2", Desc: "switch key layout"},
		}},
	}
}
