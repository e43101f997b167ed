package http

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cunydash/internal/charts"
	"cunydash/internal/config"
	"cunydash/internal/dataset"
	apierrors "cunydash/internal/errors"
	"cunydash/internal/exporter"
	mw "cunydash/internal/middleware"
	"cunydash/internal/services"
	"cunydash/internal/shared/testutil"
)

func newTestRouter(t *testing.T, variant string) (chi.Router, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)

	files := testutil.WriteDataset(t)
	src := dataset.Sources{
		Enrollment:  files.Enrollment,
		Locations:   files.Locations,
		IndexColumn: true,
	}
	if variant == config.VariantRetention {
		src.Retention = files.Retention
	}
	data, err := dataset.Load(context.Background(), src)
	require.NoError(t, err)

	svc, err := services.NewDashboardService(variant, data, nil, charts.NewSVGRenderer(640, 360), nil, logger)
	require.NoError(t, err)

	page := PageConfig{Title: "College Data", Template: charts.TemplatePlotlyDark, ChartWidth: 640}
	if variant == config.VariantRetention {
		page.MapEmbedURL = "https://maps.example.org/cuny.html"
	}

	handler := NewDashboardHandler(
		svc,
		mw.NewRequestValidator(logger),
		exporter.NewJoinedExporter(logger),
		apierrors.NewErrorHandler(logger, false),
		page,
		logger,
	)

	r := chi.NewRouter()
	r.Use(mw.RequestID)
	handler.RegisterRoutes(r)
	return r, logs
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestDashboardHandler_IndexEnrollment(t *testing.T) {
	r, _ := newTestRouter(t, config.VariantEnrollment)

	w := get(r, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Contains(t, body, "<title>College Data</title>")
	assert.Contains(t, body, "<h1>College Data</h1>")
	assert.Contains(t, body, "Select a year to see the number of students enrolled:")
	assert.Contains(t, body, `<option value="2019">2019</option>`)
	assert.Contains(t, body, `<option value="2020" selected>2020</option>`)
	assert.Contains(t, body, `src="/charts/histogram.svg?term=2020"`)
	assert.Contains(t, body, `src="/charts/geo.svg?term=2020"`)
	assert.Contains(t, body, "#111111")
	assert.NotContains(t, body, `id="college-dropdown"`)
	assert.NotContains(t, body, "<iframe")
	assert.NotContains(t, body, "ZgotmplZ")
}

func TestDashboardHandler_IndexRetention(t *testing.T) {
	r, _ := newTestRouter(t, config.VariantRetention)

	w := get(r, "/?term=2019&college=Baruch+College")
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, `<option value="2019" selected>2019</option>`)
	assert.Contains(t, body, `<option value="Baruch College" selected>Baruch College</option>`)
	assert.Contains(t, body, `src="/charts/retention.svg?college=Baruch`)
	assert.Contains(t, body, `<iframe id="map" src="https://maps.example.org/cuny.html"`)
	assert.NotContains(t, body, "geo.svg")
}

func TestDashboardHandler_Chart(t *testing.T) {
	r, _ := newTestRouter(t, config.VariantEnrollment)

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantType   string
	}{
		{"histogram", "/charts/histogram.svg?term=2020", http.StatusOK, ""},
		{"geo default term", "/charts/geo.svg", http.StatusOK, ""},
		{"unknown term renders empty", "/charts/geo.svg?term=1999", http.StatusOK, ""},
		{"figure of other variant", "/charts/retention.svg", http.StatusNotFound, apierrors.TypeFigureNotFound},
		{"invalid figure name", "/charts/geo2.svg", http.StatusBadRequest, apierrors.TypeValidation},
		{"control characters", "/charts/geo.svg?term=%00", http.StatusBadRequest, apierrors.TypeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(r, tt.target)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantType == "" {
				assert.Equal(t, "image/svg+xml", w.Header().Get("Content-Type"))
				assert.True(t, strings.HasPrefix(w.Body.String(), "<svg"))
				return
			}

			var problem map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantType, problem["type"])
			assert.Equal(t, w.Header().Get(mw.RequestIDHeader), problem["trace_id"])
		})
	}
}

func TestDashboardHandler_Figures(t *testing.T) {
	r, _ := newTestRouter(t, config.VariantEnrollment)

	w := get(r, "/api/figures?term=2019")
	require.Equal(t, http.StatusOK, w.Code)

	var set services.FigureSet
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &set))
	assert.Equal(t, "2019", set.Term)
	require.Len(t, set.Figures, 2)

	hist, ok := set.Figure("histogram")
	require.True(t, ok)
	assert.Equal(t, charts.KindHistogram, hist.Kind)
	assert.Len(t, hist.Bars, 2)

	geo, ok := set.Figure("geo")
	require.True(t, ok)
	assert.Len(t, geo.Markers, 2)
}

func TestDashboardHandler_FiguresValidation(t *testing.T) {
	r, logs := newTestRouter(t, config.VariantEnrollment)

	w := get(r, "/api/figures?term="+strings.Repeat("9", 200))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.True(t, logs.ContainsMessage("invalid request parameters"))
}

func TestDashboardHandler_Options(t *testing.T) {
	r, _ := newTestRouter(t, config.VariantRetention)

	w := get(r, "/api/options")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Variant string   `json:"variant"`
		Figures []string `json:"figures"`
		Options struct {
			FallTerms       []string `json:"fall_terms"`
			DefaultFallTerm string   `json:"default_fall_term"`
			Colleges        []string `json:"colleges"`
		} `json:"options"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, config.VariantRetention, body.Variant)
	assert.Equal(t, []string{"histogram", "retention"}, body.Figures)
	assert.Equal(t, []string{"2019", "2020"}, body.Options.FallTerms)
	assert.Equal(t, "2020", body.Options.DefaultFallTerm)
	assert.Equal(t, []string{"Hunter College", "Baruch College"}, body.Options.Colleges)
}

func TestDashboardHandler_ExportCSV(t *testing.T) {
	r, _ := newTestRouter(t, config.VariantEnrollment)

	w := get(r, "/api/export/joined.csv?term=2020")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="college_enrollment_2020.csv"`, w.Header().Get("Content-Disposition"))

	body := bytes.TrimPrefix(w.Body.Bytes(), []byte{0xEF, 0xBB, 0xBF})
	records, err := csv.NewReader(bytes.NewReader(body)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "Hunter College", records[1][0])
	assert.Equal(t, "Baruch College", records[2][0])
}

func TestDashboardHandler_ExportXLSX(t *testing.T) {
	r, _ := newTestRouter(t, config.VariantEnrollment)

	w := get(r, "/api/export/joined.xlsx")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="college_enrollment.xlsx"`, w.Header().Get("Content-Disposition"))

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Joined")
	require.NoError(t, err)
	assert.Len(t, rows, 5)
}

func TestDashboardHandler_ExportUnknownFormat(t *testing.T) {
	r, _ := newTestRouter(t, config.VariantEnrollment)

	w := get(r, "/api/export/joined.pdf")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "format must be one of: csv, xlsx")
}
