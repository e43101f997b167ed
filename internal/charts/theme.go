package charts

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/wcharczuk/go-chart/v2/drawing"
)

// Theme is the color set of a template
type Theme struct {
	Paper drawing.Color
	Plot  drawing.Color
	Text  drawing.Color
	Grid  drawing.Color
	Axis  drawing.Color
	// Trace is used when a figure sets no color of its own.
	Trace drawing.Color
}

var themes = map[string]Theme{
	TemplatePlotly: {
		Paper: drawing.ColorWhite,
		Plot:  drawing.ColorFromHex("E5ECF6"),
		Text:  drawing.ColorFromHex("2a3f5f"),
		Grid:  drawing.ColorWhite,
		Axis:  drawing.ColorFromHex("2a3f5f"),
		Trace: drawing.ColorFromHex("636efa"),
	},
	TemplatePlotlyDark: {
		Paper: drawing.ColorFromHex("111111"),
		Plot:  drawing.ColorFromHex("111111"),
		Text:  drawing.ColorFromHex("f2f5fa"),
		Grid:  drawing.ColorFromHex("283442"),
		Axis:  drawing.ColorFromHex("506784"),
		Trace: drawing.ColorFromHex("636efa"),
	},
}

// ThemeFor returns the theme of template. Unknown templates fall back to
// the plotly theme and report false.
func ThemeFor(template string) (Theme, bool) {
	theme, ok := themes[strings.ToLower(template)]
	if !ok {
		return themes[TemplatePlotly], false
	}
	return theme, true
}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// ParseColor parses a #rgb or #rrggbb color
func ParseColor(value string) (drawing.Color, error) {
	if !hexColor.MatchString(value) {
		return drawing.Color{}, fmt.Errorf("invalid color %q", value)
	}
	return drawing.ColorFromHex(value), nil
}

// traceColor resolves the figure color, falling back to the theme
func (t Theme) traceColor(value string) drawing.Color {
	if value == "" {
		return t.Trace
	}
	c, err := ParseColor(value)
	if err != nil {
		return t.Trace
	}
	return c
}
