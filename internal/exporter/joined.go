package exporter

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"strings"

	"cunydash/internal/dataset"
)

var joinedHeaders = []string{
	dataset.ColCollegeName,
	dataset.ColFallTerm,
	dataset.ColEnrollmentType,
	dataset.ColHeadCount,
	dataset.ColLatitude,
	dataset.ColLongitude,
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

// JoinedExporter writes the joined enrollment/location view
type JoinedExporter struct {
	logger *slog.Logger
}

// NewJoinedExporter creates an exporter
func NewJoinedExporter(logger *slog.Logger) *JoinedExporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &JoinedExporter{logger: logger.With(slog.String("component", "exporter"))}
}

// Export writes rows to w in format ("csv" or "xlsx")
func (e *JoinedExporter) Export(w io.Writer, format string, rows []dataset.JoinedRecord) error {
	e.logger.Info("Exporting joined view",
		slog.String("format", format),
		slog.Int("record_count", len(rows)))

	switch format {
	case FormatCSV:
		records := make([][]string, len(rows))
		for i, r := range rows {
			records[i] = []string{
				r.CollegeName,
				r.FallTerm,
				r.EnrollmentType,
				formatInt(r.HeadCount),
				formatFloat(r.Latitude),
				formatFloat(r.Longitude),
			}
		}
		return WriteCSV(w, WriteOptions{Headers: joinedHeaders, Records: records, BOMPrefix: true})
	case FormatXLSX:
		cells := make([][]interface{}, len(rows))
		for i, r := range rows {
			cells[i] = []interface{}{r.CollegeName, r.FallTerm, r.EnrollmentType, r.HeadCount, r.Latitude, r.Longitude}
		}
		return WriteXLSX(w, "Joined", joinedHeaders, cells)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// FileName returns the download name for an export of term
func FileName(term, format string) string {
	name := "college_enrollment"
	if term != "" {
		name += "_" + strings.Trim(unsafeFileChars.ReplaceAllString(term, "_"), "_")
	}
	return name + "." + format
}
