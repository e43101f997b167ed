package charts

import (
	"fmt"
	"html"
	"io"
	"math"
	"strconv"

	chart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

const (
	colorBarSteps = 32
	minGeoPadding = 0.05
)

// SVGRenderer draws figures as SVG documents
type SVGRenderer struct {
	Width  int
	Height int
}

// NewSVGRenderer creates a renderer producing width x height documents
func NewSVGRenderer(width, height int) *SVGRenderer {
	return &SVGRenderer{Width: width, Height: height}
}

// Render writes fig to w. A figure without data still renders its frame,
// title and axis titles.
func (r *SVGRenderer) Render(w io.Writer, fig Figure) error {
	switch fig.Kind {
	case KindHistogram, KindScatterGeo, KindLine:
	default:
		return fmt.Errorf("unsupported figure kind %q", fig.Kind)
	}

	theme, _ := ThemeFor(fig.Options.Template)
	if fig.Empty() {
		return r.renderEmpty(w, fig, theme)
	}

	switch fig.Kind {
	case KindHistogram:
		return r.renderHistogram(w, fig, theme)
	case KindScatterGeo:
		return r.renderScatterGeo(w, fig, theme)
	default:
		return r.renderLine(w, fig, theme)
	}
}

func (r *SVGRenderer) renderHistogram(w io.Writer, fig Figure, theme Theme) error {
	color := theme.traceColor(fig.Options.Color)
	bars := make([]chart.Value, len(fig.Bars))
	top := 0.0
	for i, b := range fig.Bars {
		bars[i] = chart.Value{
			Label: escape(b.Label),
			Value: b.Value,
			Style: chart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
		}
		top = math.Max(top, b.Value)
	}

	bc := chart.BarChart{
		Title:      escape(fig.Options.Title),
		TitleStyle: titleStyle(theme),
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{
			FillColor: theme.Paper,
			Padding:   chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 60},
		},
		Canvas: chart.Style{FillColor: theme.Plot},
		XAxis:  axisStyle(theme),
		YAxis: chart.YAxis{
			Style: axisStyle(theme),
			Range: &chart.ContinuousRange{Min: 0, Max: upperBound(top)},
		},
		Bars:     bars,
		Elements: []chart.Renderable{axisTitles(fig.Options, theme, r.Height)},
	}
	return bc.Render(chart.SVG, w)
}

func (r *SVGRenderer) renderScatterGeo(w io.Writer, fig Figure, theme Theme) error {
	bounds := FitBounds(fig.Markers)
	if fig.Geo != nil && fig.Geo.Bounds != nil {
		bounds = fig.Geo.Bounds
	}
	lonMin, lonMax := pad(bounds.MinLon, bounds.MaxLon)
	latMin, latMax := pad(bounds.MinLat, bounds.MaxLat)

	lo, hi := valueRange(fig.Markers)
	if fig.ColorBar != nil {
		lo, hi = fig.ColorBar.Min, fig.ColorBar.Max
	}

	lons := make([]float64, len(fig.Markers))
	lats := make([]float64, len(fig.Markers))
	for i, m := range fig.Markers {
		lons[i] = m.Longitude
		lats[i] = m.Latitude
	}
	markers := fig.Markers

	series := chart.ContinuousSeries{
		Name:    escape(fig.Options.YAxisTitle()),
		XValues: lons,
		YValues: lats,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
				return markerRadius(markers[index].Size)
			},
			DotColorProvider: func(_, _ chart.Range, index int, _, _ float64) drawing.Color {
				return viridis(markers[index].Value, lo, hi)
			},
		},
	}

	c := chart.Chart{
		Title:      escape(fig.Options.Title),
		TitleStyle: titleStyle(theme),
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{
			FillColor: theme.Paper,
			Padding:   chart.Box{Top: 50, Left: 20, Right: 120, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: theme.Plot},
		XAxis: chart.XAxis{
			Name:      "Longitude",
			NameStyle: textStyle(theme, 10),
			Style:     axisStyle(theme),
			Range:     &chart.ContinuousRange{Min: lonMin, Max: lonMax},
		},
		YAxis: chart.YAxis{
			Name:      "Latitude",
			NameStyle: textStyle(theme, 10),
			Style:     axisStyle(theme),
			Range:     &chart.ContinuousRange{Min: latMin, Max: latMax},
		},
		Series: []chart.Series{series},
	}
	if fig.ColorBar != nil {
		c.Elements = append(c.Elements, colorBar(*fig.ColorBar, theme))
	}
	return c.Render(chart.SVG, w)
}

func (r *SVGRenderer) renderLine(w io.Writer, fig Figure, theme Theme) error {
	n := len(fig.Points)
	xs := make([]float64, n)
	ys := make([]float64, n)
	// blank edge ticks keep a single point off the frame
	ticks := []chart.Tick{{Value: -0.5}}
	lo, hi := 0.0, 100.0
	for i, p := range fig.Points {
		xs[i] = float64(i)
		ys[i] = p.Y
		ticks = append(ticks, chart.Tick{Value: float64(i), Label: escape(p.X)})
		lo = math.Min(lo, p.Y)
		hi = math.Max(hi, p.Y)
	}
	ticks = append(ticks, chart.Tick{Value: float64(n) - 0.5})

	color := theme.traceColor(fig.Options.Color)
	c := chart.Chart{
		Title:      escape(fig.Options.Title),
		TitleStyle: titleStyle(theme),
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{
			FillColor: theme.Paper,
			Padding:   chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: theme.Plot},
		XAxis: chart.XAxis{
			Name:      escape(fig.Options.XAxisTitle()),
			NameStyle: textStyle(theme, 10),
			Style:     axisStyle(theme),
			Ticks:     ticks,
		},
		YAxis: chart.YAxis{
			Name:      escape(fig.Options.YAxisTitle()),
			NameStyle: textStyle(theme, 10),
			Style:     axisStyle(theme),
			Range:     &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Series: []chart.Series{chart.ContinuousSeries{
			Name:    escape(fig.Options.Title),
			XValues: xs,
			YValues: ys,
			Style: chart.Style{
				StrokeColor: color,
				StrokeWidth: 2,
				DotColor:    color,
				DotWidth:    3,
			},
		}},
	}
	return c.Render(chart.SVG, w)
}

// renderEmpty draws the frame of a figure with nothing in it
func (r *SVGRenderer) renderEmpty(w io.Writer, fig Figure, theme Theme) error {
	unit := []chart.Tick{{Value: 0}, {Value: 1}}
	c := chart.Chart{
		Title:      escape(fig.Options.Title),
		TitleStyle: titleStyle(theme),
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{
			FillColor: theme.Paper,
			Padding:   chart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		Canvas: chart.Style{FillColor: theme.Plot},
		XAxis: chart.XAxis{
			Name:      escape(fig.Options.XAxisTitle()),
			NameStyle: textStyle(theme, 10),
			Style:     axisStyle(theme),
			Ticks:     unit,
		},
		YAxis: chart.YAxis{
			Name:      escape(fig.Options.YAxisTitle()),
			NameStyle: textStyle(theme, 10),
			Style:     axisStyle(theme),
			Ticks:     unit,
		},
		Series: []chart.Series{chart.ContinuousSeries{Name: escape(fig.Options.Title)}},
		Elements: []chart.Renderable{func(rr chart.Renderer, cb chart.Box, defaults chart.Style) {
			style := textStyle(theme, 12).InheritFrom(defaults)
			tb := chart.Draw.MeasureText(rr, "No data", style)
			chart.Draw.Text(rr, "No data", cb.Left+cb.Width()/2-tb.Width()/2, cb.Top+cb.Height()/2, style)
		}},
	}
	return c.Render(chart.SVG, w)
}

// axisTitles draws x and y titles for bar charts, whose axes carry no names
func axisTitles(opts Options, theme Theme, height int) chart.Renderable {
	return func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
		style := textStyle(theme, 10).InheritFrom(defaults)
		if title := escape(opts.XAxisTitle()); title != "" {
			tb := chart.Draw.MeasureText(r, title, style)
			chart.Draw.Text(r, title, cb.Left+cb.Width()/2-tb.Width()/2, height-10, style)
		}
		if title := escape(opts.YAxisTitle()); title != "" {
			chart.Draw.Text(r, title, cb.Left, cb.Top-10, style)
		}
	}
}

func colorBar(bar ColorBar, theme Theme) chart.Renderable {
	return func(r chart.Renderer, cb chart.Box, defaults chart.Style) {
		left := cb.Right + 30
		height := cb.Height()
		for i := 0; i < colorBarSteps; i++ {
			c := chart.Viridis(float64(colorBarSteps-1-i), 0, colorBarSteps-1)
			chart.Draw.Box(r, chart.Box{
				Top:    cb.Top + height*i/colorBarSteps,
				Left:   left,
				Right:  left + 15,
				Bottom: cb.Top + height*(i+1)/colorBarSteps,
			}, chart.Style{FillColor: c, StrokeColor: c, StrokeWidth: 1})
		}

		style := textStyle(theme, 9).InheritFrom(defaults)
		chart.Draw.Text(r, escape(bar.Title), left, cb.Top-10, style)
		chart.Draw.Text(r, formatValue(bar.Max), left+20, cb.Top+10, style)
		chart.Draw.Text(r, formatValue(bar.Min), left+20, cb.Bottom, style)
	}
}

func titleStyle(theme Theme) chart.Style {
	return chart.Style{FontColor: theme.Text, FontSize: 14}
}

func textStyle(theme Theme, size float64) chart.Style {
	return chart.Style{FontColor: theme.Text, FontSize: size}
}

func axisStyle(theme Theme) chart.Style {
	return chart.Style{
		FontColor:   theme.Text,
		StrokeColor: theme.Axis,
		StrokeWidth: 1,
	}
}

// markerRadius converts a marker diameter to a dot radius
func markerRadius(size float64) float64 {
	return math.Max(size/2, 1.5)
}

func viridis(v, lo, hi float64) drawing.Color {
	if hi <= lo {
		return chart.Viridis(1, 0, 1)
	}
	return chart.Viridis(math.Min(math.Max(v, lo), hi), lo, hi)
}

func valueRange(markers []Marker) (lo, hi float64) {
	for i, m := range markers {
		if i == 0 || m.Value < lo {
			lo = m.Value
		}
		if i == 0 || m.Value > hi {
			hi = m.Value
		}
	}
	return lo, hi
}

func pad(lo, hi float64) (float64, float64) {
	p := math.Max((hi-lo)*0.1, minGeoPadding)
	return lo - p, hi + p
}

func upperBound(top float64) float64 {
	if top <= 0 {
		return 1
	}
	return top * 1.1
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// escape makes text safe for the SVG writer, which emits it verbatim
func escape(s string) string {
	return html.EscapeString(s)
}
