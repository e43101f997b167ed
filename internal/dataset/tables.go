package dataset

import (
	"io"
	"math"

	"github.com/go-gota/gota/dataframe"

	apperrors "cunydash/internal/errors"
)

// EnrollmentOptions controls how the enrollment export is read
type EnrollmentOptions struct {
	// IndexColumn discards the export's leading unnamed index column.
	IndexColumn bool
}

// EnrollmentTable holds the "Total" enrollment rows
type EnrollmentTable struct {
	Records []EnrollmentRecord
	Stats   TableStats
	frame   dataframe.DataFrame
}

// LocationTable holds the college locations
type LocationTable struct {
	Records []LocationRecord
	Stats   TableStats
	frame   dataframe.DataFrame
}

// RetentionTable holds the "1 Year Retention" rows in ascending term order
type RetentionTable struct {
	Records []RetentionRecord
	Stats   TableStats
}

// LoadEnrollment reads an enrollment export
func LoadEnrollment(r io.Reader, opts EnrollmentOptions) (*EnrollmentTable, error) {
	t, err := readTable(r, enrollmentColumns, opts.IndexColumn)
	if err != nil {
		return nil, err
	}

	df := keepNonNegative(keepComplete(t.df, ColHeadCount), ColHeadCount)
	complete := df.Nrow()
	df = keepEqual(df, ColEnrollmentType, EnrollmentTypeTotal)
	if df, err = selectColumns(df, enrollmentColumns); err != nil {
		return nil, err
	}
	if df.Err != nil {
		return nil, apperrors.NewParsingError("failed to filter enrollment", df.Err)
	}

	names := column(df, ColCollegeName)
	terms := column(df, ColFallTerm)
	types := column(df, ColEnrollmentType)
	counts := column(df, ColHeadCount)

	records := make([]EnrollmentRecord, len(names))
	for i := range names {
		records[i] = EnrollmentRecord{
			CollegeName:    names[i],
			FallTerm:       terms[i],
			EnrollmentType: types[i],
			HeadCount:      headCount(counts[i]),
		}
	}

	return &EnrollmentTable{
		Records: records,
		Stats:   newStats(t.rows, complete, len(records)),
		frame:   df,
	}, nil
}

// LoadLocations reads the college location file
func LoadLocations(r io.Reader) (*LocationTable, error) {
	t, err := readTable(r, locationColumns, false)
	if err != nil {
		return nil, err
	}

	df := keepComplete(t.df, ColLatitude, ColLongitude)
	if df, err = selectColumns(df, locationColumns); err != nil {
		return nil, err
	}

	names := column(df, ColCollegeName)
	lats := column(df, ColLatitude)
	lons := column(df, ColLongitude)

	records := make([]LocationRecord, len(names))
	for i := range names {
		records[i] = LocationRecord{
			CollegeName: names[i],
			Latitude:    number(lats[i]),
			Longitude:   number(lons[i]),
		}
	}

	return &LocationTable{
		Records: records,
		Stats:   newStats(t.rows, len(records), len(records)),
		frame:   df,
	}, nil
}

// LoadRetention reads a retention export
func LoadRetention(r io.Reader) (*RetentionTable, error) {
	t, err := readTable(r, retentionColumns, false)
	if err != nil {
		return nil, err
	}

	df := keepComplete(t.df, ColPercentage)
	complete := df.Nrow()
	df = keepEqual(df, ColRecordType, RecordTypeOneYearRetention)
	if df, err = selectColumns(df, retentionColumns); err != nil {
		return nil, err
	}
	if df.Err != nil {
		return nil, apperrors.NewParsingError("failed to filter retention", df.Err)
	}

	colleges := column(df, ColCollege)
	terms := column(df, ColFallTerm)
	types := column(df, ColRecordType)
	pcts := column(df, ColPercentage)

	records := make([]RetentionRecord, len(colleges))
	for i := range colleges {
		records[i] = RetentionRecord{
			College:    colleges[i],
			FallTerm:   terms[i],
			RecordType: types[i],
			Percentage: number(pcts[i]),
		}
	}
	SortRetention(records)

	return &RetentionTable{
		Records: records,
		Stats:   newStats(t.rows, complete, len(records)),
	}, nil
}

// Join inner-joins enrollment and locations on College Name. Row order
// follows the enrollment table; colleges without a location disappear.
func Join(enrollment *EnrollmentTable, locations *LocationTable) ([]JoinedRecord, error) {
	if len(enrollment.Records) == 0 || len(locations.Records) == 0 {
		return []JoinedRecord{}, nil
	}

	df := enrollment.frame.InnerJoin(locations.frame, ColCollegeName)
	if df.Err != nil {
		return nil, apperrors.NewParsingError("failed to join enrollment with locations", df.Err)
	}

	names := column(df, ColCollegeName)
	terms := column(df, ColFallTerm)
	types := column(df, ColEnrollmentType)
	counts := column(df, ColHeadCount)
	lats := column(df, ColLatitude)
	lons := column(df, ColLongitude)

	joined := make([]JoinedRecord, len(names))
	for i := range names {
		joined[i] = JoinedRecord{
			CollegeName:    names[i],
			FallTerm:       terms[i],
			EnrollmentType: types[i],
			HeadCount:      headCount(counts[i]),
			Latitude:       number(lats[i]),
			Longitude:      number(lons[i]),
		}
	}
	return joined, nil
}

func newStats(rows, complete, kept int) TableStats {
	return TableStats{
		Rows:     rows,
		Dropped:  rows - complete,
		Filtered: complete - kept,
		Kept:     kept,
	}
}

// number parses a cell already checked by keepComplete
func number(s string) float64 {
	v, _ := parseFloat(s)
	return v
}

func headCount(s string) int64 {
	return int64(math.Round(number(s)))
}
