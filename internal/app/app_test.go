package app

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cunydash/internal/config"
	apperrors "cunydash/internal/errors"
	customMiddleware "cunydash/internal/middleware"
	"cunydash/internal/shared/testutil"
)

func testConfig(t *testing.T, variant string) *config.Config {
	t.Helper()
	files := testutil.WriteDataset(t)

	cfg := config.Default()
	cfg.Dashboard.Variant = variant
	cfg.Data.Dir = files.Dir
	cfg.Server.Debug = false
	cfg.Server.ShutdownTimeout = 5 * time.Second
	cfg.Security.RateLimit.Enabled = false
	if variant == config.VariantRetention {
		cfg.Dashboard.MapEmbedURL = "https://maps.example.org/cuny/map.html"
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func newTestApp(t *testing.T, variant string) (*Application, *testutil.BufferedSlogHandler) {
	t.Helper()
	logger, logs := testutil.NewTestLogger(t)

	app, err := NewWithConfig(context.Background(), testConfig(t, variant), logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })
	return app, logs
}

func serve(app *Application, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	app.Router.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestNewWithConfig_Enrollment(t *testing.T) {
	app, logs := newTestApp(t, config.VariantEnrollment)

	assert.NotNil(t, app.Router)
	assert.NotNil(t, app.Server)
	assert.Equal(t, "127.0.0.1:8050", app.Server.Addr)
	assert.Len(t, app.Data.Joined, 4)
	assert.False(t, app.Data.HasRetention())
	assert.Equal(t, []string{"histogram", "geo"}, app.DashboardService.FigureNames())

	assert.True(t, logs.ContainsMessage("Application starting"))
	assert.True(t, logs.ContainsMessage("Dataset loaded"))
}

func TestNewWithConfig_Retention(t *testing.T) {
	app, _ := newTestApp(t, config.VariantRetention)

	assert.True(t, app.Data.HasRetention())
	assert.Equal(t, []string{"histogram", "retention"}, app.DashboardService.FigureNames())

	w := serve(app, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-src https://maps.example.org")
	assert.Contains(t, w.Body.String(), `id="college-dropdown"`)
}

func TestNewWithConfig_LoadFailure(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	cfg := testConfig(t, config.VariantEnrollment)
	cfg.Data.LocationFile = filepath.Join(t.TempDir(), "missing.csv")

	app, err := NewWithConfig(context.Background(), cfg, logger)
	require.Error(t, err)
	assert.Nil(t, app)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeLoad))
	assert.True(t, logs.ContainsMessage("Failed to load dataset"))
}

func TestRouter_Endpoints(t *testing.T) {
	app, _ := newTestApp(t, config.VariantEnrollment)

	tests := []struct {
		name        string
		target      string
		wantStatus  int
		contentType string
	}{
		{"page", "/", http.StatusOK, "text/html"},
		{"histogram", "/charts/histogram.svg?term=2020", http.StatusOK, "image/svg+xml"},
		{"geo", "/charts/geo.svg", http.StatusOK, "image/svg+xml"},
		{"figures", "/api/figures", http.StatusOK, "application/json"},
		{"options", "/api/options", http.StatusOK, "application/json"},
		{"export", "/api/export/joined.csv", http.StatusOK, "text/csv"},
		{"health", "/api/health", http.StatusOK, "application/json"},
		{"ready", "/api/health/ready", http.StatusOK, "application/json"},
		{"version", "/api/version", http.StatusOK, "application/json"},
		{"unknown route", "/nope", http.StatusNotFound, "application/json"},
		{"unknown figure", "/charts/retention.svg", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(app, http.MethodGet, tt.target)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Contains(t, w.Header().Get("Content-Type"), tt.contentType)
			assert.NotEmpty(t, w.Header().Get(customMiddleware.RequestIDHeader))
		})
	}
}

func TestRouter_SecurityHeaders(t *testing.T) {
	app, _ := newTestApp(t, config.VariantEnrollment)

	w := serve(app, http.MethodGet, "/")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Contains(t, w.Header().Get("Content-Security-Policy"), "frame-src 'none'")
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	app, _ := newTestApp(t, config.VariantEnrollment)

	serve(app, http.MethodGet, "/charts/geo.svg")
	w := serve(app, http.MethodGet, "/metrics")

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, "dashboard_callbacks_total")
	assert.Contains(t, body, "figure_render_duration_seconds")
}

func TestRouter_RateLimit(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	cfg := testConfig(t, config.VariantEnrollment)
	cfg.Security.RateLimit = config.RateLimitConfig{Enabled: true, RPS: 1, Burst: 1}

	app, err := NewWithConfig(context.Background(), cfg, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.OTelProviders.Shutdown(context.Background()) })

	assert.Equal(t, http.StatusOK, serve(app, http.MethodGet, "/api/health").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(app, http.MethodGet, "/api/health").Code)
}

func TestFrameSources(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"not a url", nil},
		{"https://maps.example.org/a/b.html?x=1", []string{"https://maps.example.org"}},
		{"http://localhost:8000/map.html", []string{"http://localhost:8000"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, frameSources(tt.in))
		})
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	app, logs := newTestApp(t, config.VariantEnrollment)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- app.Serve(ctx, ln) }()

	url := fmt.Sprintf("http://%s/api/health", ln.Addr())
	require.Eventually(t, func() bool {
		resp, err := http.Get(url)
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		io.Copy(io.Discard, resp.Body)
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}

	assert.True(t, logs.ContainsMessage("Application shutdown complete"))
	_, err = http.Get(url)
	assert.Error(t, err)
}
