package widgets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-sightread/music"
	"go-sightread/score"
	"go-sightread/theme"
)

func TestNewLane(t *testing.T) {
	l := NewLane([]music.Note{{Pitch: 64, Start: 32, Length: 8}, {Pitch: 67, Start: 40, Length: 8}}, 40, 2)
	assert.Equal(t, 64, l.Low)
	assert.Equal(t, 76, l.High)
	assert.Equal(t, 10, l.PlayheadCol)
	assert.Equal(t, 60, l.Window())
	assert.Equal(t, 12.0, l.Span(32))

	l = NewLane(nil, 20, 0)
	assert.Equal(t, 60, l.Low)
	assert.Equal(t, 72, l.High)
	assert.Equal(t, 1, l.NoteWidth)
}

func TestLanePitchAt(t *testing.T) {
	l := Lane{Low: 60, High: 72, Cols: 10, NoteWidth: 1}
	p, ok := l.PitchAt(labelWidth, 0)
	assert.True(t, ok)
	assert.Equal(t, 72, p)
	p, ok = l.PitchAt(labelWidth+3, 12)
	assert.True(t, ok)
	assert.Equal(t, 60, p)

	_, ok = l.PitchAt(0, 0)
	assert.False(t, ok)
	_, ok = l.PitchAt(labelWidth, 13)
	assert.False(t, ok)
	_, ok = l.PitchAt(labelWidth+10, 0)
	assert.False(t, ok)
}

func TestLaneRender(t *testing.T) {
	th := theme.New(nil)
	l := Lane{Low: 60, High: 62, Cols: 8, PlayheadCol: 0, NoteWidth: 4}
	notes := []music.Note{{Pitch: 62, Start: 4, Length: 8}}
	out := l.Render(notes, 0, nil, th)
	rows := strings.Split(out, "\n")
	assert.Len(t, rows, 3)
	assert.Contains(t, rows[0], "D4")
	assert.Contains(t, rows[0], "●━")
	assert.Contains(t, rows[2], "│")

	out = l.Render(notes, 4, map[int]bool{62: true}, th)
	assert.Contains(t, out, "◉━")
}

func TestTrophyBar(t *testing.T) {
	th := theme.New(nil)
	bar := RenderTrophyBar(score.Progress{Filled: 1, Fraction: 0.5}, 30, th)
	assert.Equal(t, 15, strings.Count(bar, "█"))
	assert.Equal(t, 15, strings.Count(bar, "░"))

	bar = RenderTrophyBar(score.Progress{Filled: 3}, 30, th)
	assert.Equal(t, 30, strings.Count(bar, "█"))
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{Title: "Play", Keys: []KeyBinding{{Key: "space", Desc: "pause"}}}})
	assert.Equal(t, "Play\n  space        pause", out)
}
