// Package charts holds declarative figure specifications and renders them to
// SVG with go-chart.
//
// A Figure describes what to draw, not how: the dashboard builds figures from
// the joined data and any renderer (the SVG renderer here, or a browser-side
// library fed the JSON form) can draw them.
package charts

// Kind identifies the trace type of a figure
type Kind string

const (
	KindHistogram  Kind = "histogram"
	KindScatterGeo Kind = "scattergeo"
	KindLine       Kind = "line"
)

// Recognized templates
const (
	TemplatePlotly     = "plotly"
	TemplatePlotlyDark = "plotly_dark"
)

// ColorScaleViridis is the only continuous color scale supported
const ColorScaleViridis = "Viridis"

// Options enumerates the recognized figure options.
type Options struct {
	XField     string `json:"x_field,omitempty"`
	YField     string `json:"y_field,omitempty"`
	ColorScale string `json:"color_scale,omitempty"`
	Title      string `json:"title"`
	Template   string `json:"template"`

	// Axis titles default to the field names.
	XTitle string `json:"x_title,omitempty"`
	YTitle string `json:"y_title,omitempty"`
	// Color is the fixed trace color for bars and lines.
	Color string `json:"color,omitempty"`
}

// XAxisTitle returns the x axis title
func (o Options) XAxisTitle() string {
	if o.XTitle != "" {
		return o.XTitle
	}
	return o.XField
}

// YAxisTitle returns the y axis title
func (o Options) YAxisTitle() string {
	if o.YTitle != "" {
		return o.YTitle
	}
	return o.YField
}

// Bar is one histogram bar
type Bar struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// Marker is one point of a geographic scatter plot
type Marker struct {
	Label     string  `json:"label"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Size      float64 `json:"size"`
	Value     float64 `json:"value"`
}

// Point is one vertex of a line chart
type Point struct {
	X string  `json:"x"`
	Y float64 `json:"y"`
}

// ColorBar describes the legend of a continuous color scale
type ColorBar struct {
	Title string  `json:"title"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// Bounds is a latitude/longitude box
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// GeoLayout configures the map projection
type GeoLayout struct {
	ProjectionScale float64 `json:"projection_scale"`
	FitBounds       string  `json:"fitbounds,omitempty"`
	// Bounds is nil when there is nothing to fit.
	Bounds *Bounds `json:"bounds,omitempty"`
}

// Figure is a complete declarative chart
type Figure struct {
	Name    string  `json:"name"`
	Kind    Kind    `json:"kind"`
	Options Options `json:"options"`

	Bars     []Bar      `json:"bars,omitempty"`
	Markers  []Marker   `json:"markers,omitempty"`
	Points   []Point    `json:"points,omitempty"`
	ColorBar *ColorBar  `json:"color_bar,omitempty"`
	Geo      *GeoLayout `json:"geo,omitempty"`
}

// Empty reports whether the figure has no data to plot
func (f Figure) Empty() bool {
	switch f.Kind {
	case KindHistogram:
		return len(f.Bars) == 0
	case KindScatterGeo:
		return len(f.Markers) == 0
	case KindLine:
		return len(f.Points) == 0
	}
	return true
}

// NewHistogram builds a bar figure. bars is copied.
func NewHistogram(name string, opts Options, bars []Bar) Figure {
	return Figure{
		Name:    name,
		Kind:    KindHistogram,
		Options: opts,
		Bars:    append([]Bar{}, bars...),
	}
}

// NewScatterGeo builds a geographic scatter figure. When fitBounds is set,
// the layout bounds are fitted to the markers.
func NewScatterGeo(name string, opts Options, markers []Marker, projectionScale float64, fitBounds bool) Figure {
	fig := Figure{
		Name:    name,
		Kind:    KindScatterGeo,
		Options: opts,
		Markers: append([]Marker{}, markers...),
		Geo:     &GeoLayout{ProjectionScale: projectionScale},
	}

	if opts.ColorScale != "" {
		bar := &ColorBar{Title: opts.YAxisTitle()}
		for i, m := range markers {
			if i == 0 || m.Value < bar.Min {
				bar.Min = m.Value
			}
			if i == 0 || m.Value > bar.Max {
				bar.Max = m.Value
			}
		}
		fig.ColorBar = bar
	}

	if fitBounds {
		fig.Geo.FitBounds = "locations"
		fig.Geo.Bounds = FitBounds(markers)
	}
	return fig
}

// NewLine builds a line figure. points must already be in display order.
func NewLine(name string, opts Options, points []Point) Figure {
	return Figure{
		Name:    name,
		Kind:    KindLine,
		Options: opts,
		Points:  append([]Point{}, points...),
	}
}

// FitBounds returns the tight box around markers, or nil when there are none
func FitBounds(markers []Marker) *Bounds {
	if len(markers) == 0 {
		return nil
	}
	b := &Bounds{
		MinLat: markers[0].Latitude,
		MaxLat: markers[0].Latitude,
		MinLon: markers[0].Longitude,
		MaxLon: markers[0].Longitude,
	}
	for _, m := range markers[1:] {
		b.MinLat = min(b.MinLat, m.Latitude)
		b.MaxLat = max(b.MaxLat, m.Latitude)
		b.MinLon = min(b.MinLon, m.Longitude)
		b.MaxLon = max(b.MaxLon, m.Longitude)
	}
	return b
}
