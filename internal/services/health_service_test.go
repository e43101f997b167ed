package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cunydash/internal/config"
	"cunydash/internal/dataset"
	"cunydash/internal/shared/testutil"
)

func TestHealthService_HealthCheck(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)
	hs := NewHealthService("1.2.3", config.VariantEnrollment, "", nil, logger)

	status := hs.HealthCheck(context.Background())
	assert.Equal(t, "ok", status.Status)
	assert.Equal(t, "1.2.3", status.Version)
	assert.False(t, status.Timestamp.IsZero())
	assert.True(t, logs.ContainsMessage("HealthService initialized"))
}

func TestHealthService_ReadinessCheck(t *testing.T) {
	tests := []struct {
		name       string
		data       *dataset.Data
		wantStatus string
	}{
		{"no dataset", nil, "not_ready"},
		{"empty join", &dataset.Data{}, "ready"},
		{"loaded", loadFixture(t, false), "ready"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			hs := NewHealthService("dev", config.VariantEnrollment, "", tt.data, logger)

			status := hs.ReadinessCheck(context.Background())
			assert.Equal(t, tt.wantStatus, status.Status)

			data, ok := status.Services["data"].(ServiceHealth)
			require.True(t, ok)
			assert.Equal(t, tt.wantStatus, data.Status)
		})
	}
}

func TestHealthService_LivenessCheck(t *testing.T) {
	hs := NewHealthService("dev", config.VariantEnrollment, "", nil, nil)

	status := hs.LivenessCheck(context.Background())
	assert.Equal(t, "alive", status.Status)
	assert.Contains(t, status.Runtime, "go_version")
	assert.Contains(t, status.Runtime, "goroutines")
}

func TestHealthService_Version(t *testing.T) {
	hs := NewHealthService("1.0.0", config.VariantRetention, "2026-01-02T03:04:05Z", nil, nil)

	info := hs.Version()
	assert.Equal(t, "1.0.0", info["version"])
	assert.Equal(t, config.VariantRetention, info["variant"])
	assert.Equal(t, "2026-01-02T03:04:05Z", info["build_time"])

	info = NewHealthService("1.0.0", config.VariantEnrollment, "", nil, nil).Version()
	assert.NotContains(t, info, "build_time")
}

func TestHealthService_DataStats(t *testing.T) {
	_, err := NewHealthService("dev", config.VariantEnrollment, "", nil, nil).DataStats()
	assert.ErrorIs(t, err, ErrDataNotLoaded)

	hs := NewHealthService("dev", config.VariantRetention, "", loadFixture(t, true), nil)
	stats, err := hs.DataStats()
	require.NoError(t, err)
	assert.Equal(t, DataStats{
		EnrollmentRows: 5,
		LocationRows:   4,
		RetentionRows:  4,
		JoinedRows:     4,
		DroppedRows:    3,
	}, stats)
}
