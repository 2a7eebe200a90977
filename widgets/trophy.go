package widgets

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"go-sightread/score"
	"go-sightread/theme"
)

// RenderTrophyBar draws three segments, one per trophy, each filled by its
// share of the progress.
func RenderTrophyBar(p score.Progress, width int, th *theme.Theme) string {
	seg := width / len(score.Trophies)
	if seg < 1 {
		seg = 1
	}
	empty := lipgloss.NewStyle().Foreground(th.Muted())

	var parts []string
	for i, t := range score.Trophies {
		fill := 0.0
		if p.Filled > i {
			fill = 1
		} else if p.Filled == i {
			fill = p.Fraction
		}
		n := int(fill * float64(seg))
		full := lipgloss.NewStyle().Foreground(th.Trophy(t.Trophy))
		parts = append(parts,
			full.Render(strings.Repeat(string(th.Symbols.Solid), n))+
				empty.Render(strings.Repeat(string(th.Symbols.Empty), seg-n)))
	}
	return strings.Join(parts, " ")
}

// RenderLegendItem renders a single legend item: "■ Name - description"
func RenderLegendItem(color lipgloss.Color, sym rune, name, desc string) string {
	pad := lipgloss.NewStyle().Foreground(color).Render(string(sym))
	return "  " + pad + " " + name + " - " + desc
}
