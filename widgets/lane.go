package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-sightread/music"
	"go-sightread/theme"
)

// labelWidth is the pitch label column: "C#4 ".
const labelWidth = 4

// Lane is a scrolling piano roll: one row per pitch, time flowing left with
// the play head fixed at PlayheadCol.
type Lane struct {
	Low, High   int // pitch range shown, inclusive
	Cols        int
	PlayheadCol int
	NoteWidth   int // SDQN per column
}

// NewLane fits a lane around the notes, at least an octave tall.
func NewLane(notes []music.Note, cols, noteWidth int) Lane {
	low, high := 60, 72
	for i, n := range notes {
		if i == 0 || n.Pitch < low {
			low = n.Pitch
		}
		if i == 0 || n.Pitch > high {
			high = n.Pitch
		}
	}
	if high-low < 12 {
		high = low + 12
	}
	if noteWidth <= 0 {
		noteWidth = 1
	}
	return Lane{Low: low, High: high, Cols: cols, PlayheadCol: cols / 4, NoteWidth: noteWidth}
}

// Window is how many SDQN ahead of now the lane shows.
func (l Lane) Window() int {
	return (l.Cols - l.PlayheadCol) * l.NoteWidth
}

// Span is the first SDQN shown at now.
func (l Lane) Span(now float64) float64 {
	return now - float64(l.PlayheadCol*l.NoteWidth)
}

// PitchAt maps a cell relative to the lane's top-left corner to a pitch.
func (l Lane) PitchAt(x, y int) (int, bool) {
	if x < labelWidth || x >= labelWidth+l.Cols {
		return 0, false
	}
	pitch := l.High - y
	if y < 0 || pitch < l.Low {
		return 0, false
	}
	return pitch, true
}

// Render draws notes around now. held marks pitches the player is holding.
func (l Lane) Render(notes []music.Note, now float64, held map[int]bool, th *theme.Theme) string {
	sym := th.Symbols
	muted := lipgloss.NewStyle().Foreground(th.Muted())
	noteStyle := lipgloss.NewStyle().Foreground(th.Accent())
	heldStyle := lipgloss.NewStyle().Foreground(th.Active())
	headStyle := lipgloss.NewStyle().Foreground(th.Warning())
	labelStyle := lipgloss.NewStyle().Foreground(th.FG())

	start := l.Span(now)
	w := float64(l.NoteWidth)

	var lines []string
	for pitch := l.High; pitch >= l.Low; pitch-- {
		var out strings.Builder
		label := fmt.Sprintf("%-*s", labelWidth, music.PitchName(pitch))
		if music.IsBlackKey(pitch) {
			out.WriteString(muted.Render(label))
		} else {
			out.WriteString(labelStyle.Render(label))
		}

		for col := 0; col < l.Cols; col++ {
			colStart := start + float64(col)*w
			colEnd := colStart + w

			char := sym.LaneEmpty
			style := muted
			for _, n := range notes {
				if n.Pitch != pitch {
					continue
				}
				ns, ne := float64(n.Start), float64(n.End())
				if ns >= colEnd || ne <= colStart {
					continue
				}
				style = noteStyle
				char = sym.NoteBody
				if ns >= colStart {
					char = sym.NoteHead
				}
				if held[pitch] && ns <= now && ne > now {
					style = heldStyle
					if char == sym.NoteHead {
						char = sym.NoteHeld
					}
				}
				break
			}
			if col == l.PlayheadCol && char == sym.LaneEmpty {
				char = sym.Playhead
				style = headStyle
			}
			out.WriteString(style.Render(string(char)))
		}
		lines = append(lines, out.String())
	}
	return strings.Join(lines, "\n")
}
