package theme

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"go-sightread/score"
)

type Theme struct {
	Palette *Palette
	Symbols Symbols
}

type Symbols struct {
	// Trophy bar
	Solid rune // █ filled
	Empty rune // ░ unfilled

	// Note lane
	LaneEmpty rune // · nothing sounding
	NoteBody  rune // ━ note continues
	NoteHead  rune // ● note start
	NoteHeld  rune // ◉ note start the player holds
	Playhead  rune // │ now
	Backing   rune // ▪ backing chord tone
}

func New(palette *Palette) *Theme {
	if palette == nil {
		palette = DefaultPalette()
	}
	return &Theme{
		Palette: palette,
		Symbols: Symbols{
			Solid: '█',
			Empty: '░',

			LaneEmpty: '·',
			NoteBody:  '━',
			NoteHead:  '●',
			NoteHeld:  '◉',
			Playhead:  '│',
			Backing:   '▪',
		},
	}
}

// Color roles mapped to palette positions (0-1)
const (
	RoleBG      = 0.0  // night
	RoleSurface = 0.12 // curtain
	RoleMuted   = 0.25 // velvet
	RoleFG      = 0.45 // chalk
	RoleAccent  = 0.55 // spot
	RoleActive  = 0.67 // green room
	RoleWarning = 0.78 // amber
	RoleMissed  = 0.89 // red light
	RoleSuccess = 1.0  // footlight
)

// Style helpers

func (t *Theme) BG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleBG))
}

func (t *Theme) FG() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleFG))
}

func (t *Theme) Accent() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleAccent))
}

func (t *Theme) Muted() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMuted))
}

func (t *Theme) Active() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleActive))
}

func (t *Theme) Warning() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleWarning))
}

func (t *Theme) Missed() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleMissed))
}

func (t *Theme) Success() lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(RoleSuccess))
}

// Trophy colors the trophy bar segment of tr.
func (t *Theme) Trophy(tr score.Trophy) lipgloss.Color {
	switch tr {
	case score.Gold:
		return t.Warning()
	case score.Platinum:
		return t.FG()
	case score.Diamond:
		return t.Accent()
	}
	return t.Muted()
}

// Result colors a result label.
func (t *Theme) Result(r score.Result) lipgloss.Color {
	switch r {
	case score.Bombed:
		return t.Missed()
	case score.Decent:
		return t.Warning()
	case score.Great:
		return t.Active()
	case score.Legendary:
		return t.Success()
	}
	return t.FG()
}

// Color returns lipgloss color for any normalized value 0-1
func (t *Theme) Color(norm float64) lipgloss.Color {
	return rgbToLipgloss(t.Palette.Lookup(norm))
}

func rgbToLipgloss(c RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c[0], c[1], c[2]))
}
