package dataset

import (
	"context"
	"io"
	"log/slog"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "cunydash/internal/errors"
)

// Sources locates the CSV files to load. An empty Retention path means the
// retention table is not needed.
type Sources struct {
	Enrollment  string
	Locations   string
	Retention   string
	IndexColumn bool
}

// Data is the loaded, immutable state of one dashboard process. Callers
// must treat every slice as read-only.
type Data struct {
	Enrollment []EnrollmentRecord
	Locations  []LocationRecord
	Retention  []RetentionRecord
	Joined     []JoinedRecord

	EnrollmentStats TableStats
	LocationStats   TableStats
	RetentionStats  TableStats
}

// HasRetention reports whether a retention file was loaded
func (d *Data) HasRetention() bool {
	return d.Retention != nil
}

// JoinedForTerm returns the joined rows of one fall term, in table order
func (d *Data) JoinedForTerm(term string) []JoinedRecord {
	rows := make([]JoinedRecord, 0)
	for _, row := range d.Joined {
		if row.FallTerm == term {
			rows = append(rows, row)
		}
	}
	return rows
}

// RetentionForCollege returns one college's retention rows in term order
func (d *Data) RetentionForCollege(college string) []RetentionRecord {
	rows := make([]RetentionRecord, 0)
	for _, row := range d.Retention {
		if row.College == college {
			rows = append(rows, row)
		}
	}
	return rows
}

// UnlocatedColleges lists enrollment colleges that have no location and
// therefore never appear in the joined view, in first-seen order.
func (d *Data) UnlocatedColleges() []string {
	located := make(map[string]bool, len(d.Locations))
	for _, loc := range d.Locations {
		located[loc.CollegeName] = true
	}

	seen := make(map[string]bool)
	var missing []string
	for _, rec := range d.Enrollment {
		if located[rec.CollegeName] || seen[rec.CollegeName] {
			continue
		}
		seen[rec.CollegeName] = true
		missing = append(missing, rec.CollegeName)
	}
	return missing
}

// Loader reads Sources into Data
type Loader struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// NewLoader creates a loader logging through logger
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger: logger.With(slog.String("component", "dataset")),
		tracer: otel.Tracer("cunydash/dataset"),
	}
}

// Load reads Sources with the default logger
func Load(ctx context.Context, src Sources) (*Data, error) {
	return NewLoader(nil).Load(ctx, src)
}

// Load reads every configured file. Any unreadable file or missing column
// is returned as an *errors.AppError and no partial Data is produced.
func (l *Loader) Load(ctx context.Context, src Sources) (*Data, error) {
	ctx, span := l.tracer.Start(ctx, "dataset.Load")
	defer span.End()

	enrollment, err := loadFile(ctx, src.Enrollment, func(r io.Reader) (*EnrollmentTable, error) {
		return LoadEnrollment(r, EnrollmentOptions{IndexColumn: src.IndexColumn})
	})
	if err != nil {
		return nil, l.fail(ctx, span, "enrollment", src.Enrollment, err)
	}
	l.logTable(ctx, "enrollment", enrollment.Stats)

	locations, err := loadFile(ctx, src.Locations, LoadLocations)
	if err != nil {
		return nil, l.fail(ctx, span, "locations", src.Locations, err)
	}
	l.logTable(ctx, "locations", locations.Stats)

	joined, err := Join(enrollment, locations)
	if err != nil {
		return nil, l.fail(ctx, span, "join", "", err)
	}

	data := &Data{
		Enrollment:      enrollment.Records,
		Locations:       locations.Records,
		Joined:          joined,
		EnrollmentStats: enrollment.Stats,
		LocationStats:   locations.Stats,
	}

	if src.Retention != "" {
		retention, err := loadFile(ctx, src.Retention, LoadRetention)
		if err != nil {
			return nil, l.fail(ctx, span, "retention", src.Retention, err)
		}
		l.logTable(ctx, "retention", retention.Stats)
		data.Retention = retention.Records
		data.RetentionStats = retention.Stats
	}

	span.SetAttributes(attribute.Int("dataset.joined_rows", len(joined)))
	l.logger.InfoContext(ctx, "Dataset loaded",
		slog.Int("enrollment_rows", len(data.Enrollment)),
		slog.Int("location_rows", len(data.Locations)),
		slog.Int("joined_rows", len(data.Joined)),
		slog.Int("retention_rows", len(data.Retention)),
		slog.Int("unlocated_colleges", len(data.UnlocatedColleges())))

	return data, nil
}

func loadFile[T any](ctx context.Context, path string, parse func(io.Reader) (T, error)) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if path == "" {
		return zero, apperrors.NewConfigError("no file configured", nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return zero, apperrors.NewLoadError("failed to open file", err)
	}
	defer f.Close()

	return parse(f)
}

func (l *Loader) fail(ctx context.Context, span trace.Span, source, path string, err error) error {
	span.RecordError(err)
	if appErr, ok := err.(*apperrors.AppError); ok {
		appErr.WithContext("source", source)
		if path != "" {
			appErr.WithContext("path", path)
		}
	}
	l.logger.ErrorContext(ctx, "Failed to load dataset",
		slog.String("source", source),
		slog.String("path", path),
		slog.String("error", err.Error()))
	return err
}

// logTable reports dropped rows at debug level only
func (l *Loader) logTable(ctx context.Context, source string, stats TableStats) {
	l.logger.DebugContext(ctx, "Table loaded",
		slog.String("source", source),
		slog.Int("rows", stats.Rows),
		slog.Int("dropped_missing", stats.Dropped),
		slog.Int("filtered_out", stats.Filtered),
		slog.Int("kept", stats.Kept))
}
