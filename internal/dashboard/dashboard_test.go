package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cunydash/internal/charts"
	"cunydash/internal/dataset"
	apperrors "cunydash/internal/errors"
	"cunydash/internal/shared/testutil"
	"cunydash/internal/viewmodel"
)

const scenarioEnrollment = `,College Name,Fall Term,Enrollment Type Description,Head Count
0,College A,Fall 2020,Total,1000
1,College A,Fall 2020,Full-time,700
2,College B,Fall 2020,Total,400
`

const scenarioLocations = `College Name,Latitude,Longitude
College A,40.7,-74.0
`

func load(t *testing.T, enrollment, locations, retention string) *dataset.Data {
	t.Helper()

	files := testutil.WriteDatasetWith(t, enrollment, locations, retention)
	data, err := dataset.Load(context.Background(), dataset.Sources{
		Enrollment:  files.Enrollment,
		Locations:   files.Locations,
		Retention:   files.Retention,
		IndexColumn: true,
	})
	require.NoError(t, err)
	return data
}

func labels(bars []charts.Bar) []string {
	out := make([]string, len(bars))
	for i, b := range bars {
		out[i] = b.Label
	}
	return out
}

func TestUpdateEnrollment_SingleCollegeScenario(t *testing.T) {
	data := load(t, scenarioEnrollment, scenarioLocations, "")

	figs, err := UpdateEnrollment(data, "Fall 2020")
	require.NoError(t, err)

	hist := figs.Histogram
	assert.Equal(t, charts.KindHistogram, hist.Kind)
	assert.Equal(t, "College Data for Fall 2020", hist.Options.Title)
	assert.Equal(t, "#98FB98", hist.Options.Color)
	assert.Equal(t, "plotly_dark", hist.Options.Template)
	assert.Equal(t, "College Name", hist.Options.XAxisTitle())
	assert.Equal(t, "Head Count", hist.Options.YAxisTitle())
	require.Len(t, hist.Bars, 1)
	assert.Equal(t, charts.Bar{Label: "College A", Value: 1000}, hist.Bars[0])

	geo := figs.Geo
	require.Len(t, geo.Markers, 1)
	marker := geo.Markers[0]
	assert.Equal(t, 40.7, marker.Latitude)
	assert.Equal(t, -74.0, marker.Longitude)
	assert.Equal(t, 2.0, marker.Size)
	assert.Equal(t, 1000.0, marker.Value)
	assert.Equal(t, charts.ColorScaleViridis, geo.Options.ColorScale)
	require.NotNil(t, geo.ColorBar)
	assert.Equal(t, "Head Count", geo.ColorBar.Title)
	assert.Equal(t, 10.0, geo.Geo.ProjectionScale)
	assert.Equal(t, "locations", geo.Geo.FitBounds)
}

func TestUpdateEnrollment_UnknownTerm(t *testing.T) {
	data := load(t, scenarioEnrollment, scenarioLocations, "")

	figs, err := UpdateEnrollment(data, "Fall 1999")
	require.NoError(t, err)

	assert.Empty(t, figs.Histogram.Bars)
	assert.Empty(t, figs.Geo.Markers)
	assert.True(t, figs.Histogram.Empty())
	assert.True(t, figs.Geo.Empty())
	assert.Equal(t, "College Data for Fall 1999", figs.Histogram.Options.Title)
}

func TestUpdateEnrollment_HistogramMatchesJoinedColleges(t *testing.T) {
	data := load(t, testutil.EnrollmentCSV, testutil.LocationCSV, "")

	for _, term := range viewmodel.FallTerms(data.Joined) {
		figs, err := UpdateEnrollment(data, term)
		require.NoError(t, err)

		distinct := viewmodel.Colleges(nil)
		seen := map[string]bool{}
		for _, row := range data.JoinedForTerm(term) {
			if !seen[row.CollegeName] {
				seen[row.CollegeName] = true
				distinct = append(distinct, row.CollegeName)
			}
		}
		assert.Equal(t, distinct, labels(figs.Histogram.Bars), "term %s", term)
		assert.Len(t, figs.Geo.Markers, len(data.JoinedForTerm(term)))
	}
}

func TestUpdateEnrollment_ExcludesUnlocatedCollege(t *testing.T) {
	data := load(t, testutil.EnrollmentCSV, testutil.LocationCSV, "")

	for _, term := range []string{"2019", "2020", "2021"} {
		figs, err := UpdateEnrollment(data, term)
		require.NoError(t, err)

		assert.NotContains(t, labels(figs.Histogram.Bars), "Unlocated College")
		for _, m := range figs.Geo.Markers {
			assert.NotEqual(t, "Unlocated College", m.Label)
		}
	}
}

func TestUpdateEnrollment_SumsDuplicateRows(t *testing.T) {
	enrollment := `,College Name,Fall Term,Enrollment Type Description,Head Count
0,College B,2020,Total,300
1,College A,2020,Total,1000
2,College B,2020,Total,200
`
	locations := `College Name,Latitude,Longitude
College A,40.7,-74.0
College B,40.8,-73.9
`
	data := load(t, enrollment, locations, "")

	figs, err := UpdateEnrollment(data, "2020")
	require.NoError(t, err)

	assert.Equal(t, []charts.Bar{
		{Label: "College B", Value: 500},
		{Label: "College A", Value: 1000},
	}, figs.Histogram.Bars)
	assert.Len(t, figs.Geo.Markers, 3)
}

func TestUpdateEnrollment_IsPure(t *testing.T) {
	data := load(t, testutil.EnrollmentCSV, testutil.LocationCSV, "")
	before := append([]dataset.JoinedRecord{}, data.Joined...)

	first, err := UpdateEnrollment(data, "2020")
	require.NoError(t, err)
	_, err = UpdateEnrollment(data, "2019")
	require.NoError(t, err)
	again, err := UpdateEnrollment(data, "2020")
	require.NoError(t, err)

	assert.Equal(t, first, again)
	assert.Equal(t, before, data.Joined)
}

func TestUpdateRetention(t *testing.T) {
	data := load(t, testutil.EnrollmentCSV, testutil.LocationCSV, testutil.RetentionCSV)

	figs, err := UpdateRetention(data, "2020", "Hunter College")
	require.NoError(t, err)

	assert.Equal(t, []string{"Hunter College", "Baruch College"}, labels(figs.Histogram.Bars))

	line := figs.Retention
	assert.Equal(t, charts.KindLine, line.Kind)
	assert.Equal(t, "1 Year Retention for Hunter College", line.Options.Title)
	assert.Equal(t, "Fall Term", line.Options.XAxisTitle())
	assert.Equal(t, "Percentage", line.Options.YAxisTitle())
	assert.Equal(t, []charts.Point{
		{X: "2018", Y: 83.0},
		{X: "2019", Y: 84.2},
		{X: "2020", Y: 85.5},
	}, line.Points)
}

func TestUpdateRetention_CollegeWithoutRows(t *testing.T) {
	data := load(t, testutil.EnrollmentCSV, testutil.LocationCSV, testutil.RetentionCSV)

	figs, err := UpdateRetention(data, "2020", "Unlocated College")
	require.NoError(t, err)
	assert.True(t, figs.Retention.Empty())
	assert.NotEmpty(t, figs.Histogram.Bars)
}

func TestUpdate_Errors(t *testing.T) {
	_, err := UpdateEnrollment(nil, "2020")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	_, err = UpdateRetention(nil, "2020", "Hunter College")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))

	data := load(t, testutil.EnrollmentCSV, testutil.LocationCSV, "")
	_, err = UpdateRetention(data, "2020", "Hunter College")
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeConfig))
}

func TestPresenter_Settings(t *testing.T) {
	data := load(t, scenarioEnrollment, scenarioLocations, "")
	p := NewPresenter(Settings{Template: "plotly", HistogramColor: "#000000", MarkerScale: 100, ProjectionScale: 3})

	figs, err := p.UpdateEnrollment(data, "Fall 2020")
	require.NoError(t, err)

	assert.Equal(t, "plotly", figs.Histogram.Options.Template)
	assert.Equal(t, "#000000", figs.Histogram.Options.Color)
	assert.Equal(t, 10.0, figs.Geo.Markers[0].Size)
	assert.Equal(t, 3.0, figs.Geo.Geo.ProjectionScale)

	fallback := NewPresenter(Settings{})
	assert.Equal(t, 500.0, fallback.Settings().MarkerScale)
}

func TestFigures_All(t *testing.T) {
	data := load(t, testutil.EnrollmentCSV, testutil.LocationCSV, testutil.RetentionCSV)

	enrollment, err := UpdateEnrollment(data, "2020")
	require.NoError(t, err)
	names := []string{}
	for _, f := range enrollment.All() {
		names = append(names, f.Name)
	}
	assert.Equal(t, []string{FigureHistogram, FigureGeo}, names)

	retention, err := UpdateRetention(data, "2020", "Baruch College")
	require.NoError(t, err)
	assert.Equal(t, FigureRetention, retention.All()[1].Name)
}
