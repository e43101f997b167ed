package dataset

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cunydash/internal/errors"
	"cunydash/internal/shared/testutil"
)

func fixtureSources(files testutil.DatasetFiles) Sources {
	return Sources{
		Enrollment:  files.Enrollment,
		Locations:   files.Locations,
		Retention:   files.Retention,
		IndexColumn: true,
	}
}

func TestLoader_Load(t *testing.T) {
	files := testutil.WriteDataset(t)
	logger, logs := testutil.NewTestLogger(t)

	data, err := NewLoader(logger).Load(context.Background(), fixtureSources(files))
	require.NoError(t, err)

	assert.Len(t, data.Enrollment, 5)
	assert.Len(t, data.Locations, 4)
	assert.Len(t, data.Joined, 4)
	assert.Len(t, data.Retention, 4)
	assert.True(t, data.HasRetention())
	assert.Equal(t, 2, data.EnrollmentStats.Dropped)

	testutil.AssertLogContains(t, logs, slog.LevelDebug, "Table loaded")
	testutil.AssertLogContains(t, logs, slog.LevelInfo, "Dataset loaded")
	assert.True(t, logs.ContainsAttr("component", "dataset"))
	testutil.AssertNoErrors(t, logs)
}

func TestLoad_EnrollmentVariant(t *testing.T) {
	files := testutil.WriteDataset(t)
	src := fixtureSources(files)
	src.Retention = ""

	data, err := Load(context.Background(), src)
	require.NoError(t, err)

	assert.False(t, data.HasRetention())
	assert.Nil(t, data.Retention)
	assert.Len(t, data.Joined, 4)
}

func TestLoad_Errors(t *testing.T) {
	files := testutil.WriteDataset(t)
	missing := filepath.Join(files.Dir, "missing.csv")
	badColumns := testutil.WriteFile(t, files.Dir, "bad.csv", "College Name,Lat,Lon\nA,1,2\n")

	tests := []struct {
		name     string
		mutate   func(*Sources)
		wantType apperrors.ErrorType
		source   string
	}{
		{
			name:     "missing enrollment file",
			mutate:   func(s *Sources) { s.Enrollment = missing },
			wantType: apperrors.ErrTypeLoad,
			source:   "enrollment",
		},
		{
			name:     "missing location file",
			mutate:   func(s *Sources) { s.Locations = missing },
			wantType: apperrors.ErrTypeLoad,
			source:   "locations",
		},
		{
			name:     "missing retention file",
			mutate:   func(s *Sources) { s.Retention = missing },
			wantType: apperrors.ErrTypeLoad,
			source:   "retention",
		},
		{
			name:     "location columns mismatch",
			mutate:   func(s *Sources) { s.Locations = badColumns },
			wantType: apperrors.ErrTypeParsing,
			source:   "locations",
		},
		{
			name:     "enrollment not configured",
			mutate:   func(s *Sources) { s.Enrollment = "" },
			wantType: apperrors.ErrTypeConfig,
			source:   "enrollment",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, logs := testutil.NewTestLogger(t)
			src := fixtureSources(files)
			tt.mutate(&src)

			data, err := NewLoader(logger).Load(context.Background(), src)
			require.Error(t, err)
			assert.Nil(t, data)
			assert.True(t, apperrors.IsType(err, tt.wantType), "got %v", err)

			var appErr *apperrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.source, appErr.Context["source"])
			testutil.AssertLogContains(t, logs, slog.LevelError, "Failed to load dataset")
		})
	}
}

func TestLoad_MissingFileWrapsNotExist(t *testing.T) {
	files := testutil.WriteDataset(t)
	src := fixtureSources(files)
	src.Locations = filepath.Join(files.Dir, "nope.csv")

	_, err := Load(context.Background(), src)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

func TestLoad_CanceledContext(t *testing.T) {
	files := testutil.WriteDataset(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Load(ctx, fixtureSources(files))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestData_Queries(t *testing.T) {
	files := testutil.WriteDataset(t)
	data, err := Load(context.Background(), fixtureSources(files))
	require.NoError(t, err)

	t.Run("joined for term", func(t *testing.T) {
		rows := data.JoinedForTerm("2020")
		require.Len(t, rows, 2)
		assert.Equal(t, "Hunter College", rows[0].CollegeName)
		assert.Equal(t, "Baruch College", rows[1].CollegeName)

		assert.NotNil(t, data.JoinedForTerm("1999"))
		assert.Empty(t, data.JoinedForTerm("1999"))
	})

	t.Run("retention for college", func(t *testing.T) {
		rows := data.RetentionForCollege("Hunter College")
		require.Len(t, rows, 3)
		for i := 1; i < len(rows); i++ {
			assert.Negative(t, CompareTerms(rows[i-1].FallTerm, rows[i].FallTerm))
		}
		assert.Empty(t, data.RetentionForCollege("Nowhere"))
	})

	t.Run("unlocated colleges", func(t *testing.T) {
		assert.Equal(t, []string{"Unlocated College"}, data.UnlocatedColleges())
	})

	t.Run("unlocated college excluded for every term", func(t *testing.T) {
		for _, term := range []string{"2019", "2020", "2021"} {
			for _, row := range data.JoinedForTerm(term) {
				assert.NotEqual(t, "Unlocated College", row.CollegeName)
			}
		}
	})
}
