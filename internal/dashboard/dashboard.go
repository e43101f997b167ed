// Package dashboard turns dropdown selections into figure specifications.
//
// Every update is a pure function of the loaded data and the selection: it
// reads the immutable dataset, builds fresh figures and keeps no state
// between calls.
package dashboard

import (
	"fmt"

	"cunydash/internal/charts"
	"cunydash/internal/config"
	"cunydash/internal/dataset"
	apperrors "cunydash/internal/errors"
)

// Figure names, as used in URLs and JSON
const (
	FigureHistogram = "histogram"
	FigureGeo       = "geo"
	FigureRetention = "retention"
)

// Settings are the presentation constants applied to every figure
type Settings struct {
	Template        string
	HistogramColor  string
	MarkerScale     float64
	ProjectionScale float64
}

// DefaultSettings mirrors config.Default
func DefaultSettings() Settings {
	return SettingsFromConfig(config.Default().Dashboard)
}

// SettingsFromConfig extracts Settings from the dashboard configuration
func SettingsFromConfig(cfg config.DashboardConfig) Settings {
	return Settings{
		Template:        cfg.Template,
		HistogramColor:  cfg.HistogramColor,
		MarkerScale:     cfg.MarkerScale,
		ProjectionScale: cfg.ProjectionScale,
	}
}

// EnrollmentFigures is the output of the enrollment dashboard
type EnrollmentFigures struct {
	Term      string        `json:"term"`
	Geo       charts.Figure `json:"geo"`
	Histogram charts.Figure `json:"histogram"`
}

// All returns the figures in page order
func (f EnrollmentFigures) All() []charts.Figure {
	return []charts.Figure{f.Histogram, f.Geo}
}

// RetentionFigures is the output of the retention dashboard
type RetentionFigures struct {
	Term      string        `json:"term"`
	College   string        `json:"college"`
	Histogram charts.Figure `json:"histogram"`
	Retention charts.Figure `json:"retention"`
}

// All returns the figures in page order
func (f RetentionFigures) All() []charts.Figure {
	return []charts.Figure{f.Histogram, f.Retention}
}

// Presenter builds figures with fixed Settings
type Presenter struct {
	settings Settings
}

// NewPresenter creates a presenter. A non-positive marker scale falls back
// to the default.
func NewPresenter(settings Settings) *Presenter {
	if settings.MarkerScale <= 0 {
		settings.MarkerScale = DefaultSettings().MarkerScale
	}
	return &Presenter{settings: settings}
}

// Settings returns the presenter settings
func (p *Presenter) Settings() Settings {
	return p.settings
}

// UpdateEnrollment builds the enrollment figures with default settings
func UpdateEnrollment(data *dataset.Data, term string) (EnrollmentFigures, error) {
	return NewPresenter(DefaultSettings()).UpdateEnrollment(data, term)
}

// UpdateRetention builds the retention figures with default settings
func UpdateRetention(data *dataset.Data, term, college string) (RetentionFigures, error) {
	return NewPresenter(DefaultSettings()).UpdateRetention(data, term, college)
}

// UpdateEnrollment builds the histogram and geographic scatter for term.
// A term without joined rows yields figures with no bars and no markers.
func (p *Presenter) UpdateEnrollment(data *dataset.Data, term string) (EnrollmentFigures, error) {
	if data == nil {
		return EnrollmentFigures{}, apperrors.NewConfigError("dataset not loaded", nil)
	}

	rows := data.JoinedForTerm(term)
	return EnrollmentFigures{
		Term:      term,
		Geo:       p.geo(rows),
		Histogram: p.histogram(term, rows),
	}, nil
}

// UpdateRetention builds the histogram for term and the retention line of
// college. A college without retention rows yields an empty line.
func (p *Presenter) UpdateRetention(data *dataset.Data, term, college string) (RetentionFigures, error) {
	if data == nil {
		return RetentionFigures{}, apperrors.NewConfigError("dataset not loaded", nil)
	}
	if !data.HasRetention() {
		return RetentionFigures{}, apperrors.NewConfigError("retention data not loaded", nil)
	}

	return RetentionFigures{
		Term:      term,
		College:   college,
		Histogram: p.histogram(term, data.JoinedForTerm(term)),
		Retention: p.retention(college, data.RetentionForCollege(college)),
	}, nil
}

// histogram sums head counts per college, keeping first-seen order
func (p *Presenter) histogram(term string, rows []dataset.JoinedRecord) charts.Figure {
	index := make(map[string]int)
	bars := make([]charts.Bar, 0, len(rows))
	for _, row := range rows {
		i, ok := index[row.CollegeName]
		if !ok {
			i = len(bars)
			index[row.CollegeName] = i
			bars = append(bars, charts.Bar{Label: row.CollegeName})
		}
		bars[i].Value += float64(row.HeadCount)
	}

	return charts.NewHistogram(FigureHistogram, charts.Options{
		XField:   dataset.ColCollegeName,
		YField:   dataset.ColHeadCount,
		Title:    fmt.Sprintf("College Data for %s", term),
		Template: p.settings.Template,
		Color:    p.settings.HistogramColor,
	}, bars)
}

func (p *Presenter) geo(rows []dataset.JoinedRecord) charts.Figure {
	markers := make([]charts.Marker, len(rows))
	for i, row := range rows {
		markers[i] = charts.Marker{
			Label:     row.CollegeName,
			Latitude:  row.Latitude,
			Longitude: row.Longitude,
			Size:      float64(row.HeadCount) / p.settings.MarkerScale,
			Value:     float64(row.HeadCount),
		}
	}

	return charts.NewScatterGeo(FigureGeo, charts.Options{
		XField:     dataset.ColLongitude,
		YField:     dataset.ColHeadCount,
		ColorScale: charts.ColorScaleViridis,
		Template:   p.settings.Template,
	}, markers, p.settings.ProjectionScale, true)
}

func (p *Presenter) retention(college string, rows []dataset.RetentionRecord) charts.Figure {
	points := make([]charts.Point, len(rows))
	for i, row := range rows {
		points[i] = charts.Point{X: row.FallTerm, Y: row.Percentage}
	}

	return charts.NewLine(FigureRetention, charts.Options{
		XField:   dataset.ColFallTerm,
		YField:   dataset.ColPercentage,
		Title:    fmt.Sprintf("%s for %s", dataset.RecordTypeOneYearRetention, college),
		Template: p.settings.Template,
	}, points)
}
