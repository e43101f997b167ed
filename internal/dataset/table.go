package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	apperrors "cunydash/internal/errors"
)

// table is a parsed source file before typing
type table struct {
	df   dataframe.DataFrame
	rows int
}

// readTable parses CSV into a string-typed DataFrame. Every required column
// must be present; other columns are kept so missing-value checks see the
// whole row. With indexColumn the first column is discarded before anything
// else looks at the header. A leading UTF-8 BOM is stripped.
func readTable(r io.Reader, required []string, indexColumn bool) (*table, error) {
	reader := csv.NewReader(transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())))
	records, err := reader.ReadAll()
	if err != nil {
		return nil, apperrors.NewParsingError("malformed CSV", err)
	}
	if len(records) == 0 {
		return nil, apperrors.NewParsingError("CSV has no header row", nil)
	}

	if indexColumn {
		for i, record := range records {
			if len(record) == 0 {
				return nil, apperrors.NewParsingError("index column missing", nil).WithContext("line", i+1)
			}
			records[i] = record[1:]
		}
	}

	header := records[0]
	for _, column := range required {
		if indexOf(header, column) < 0 {
			return nil, apperrors.NewParsingError(fmt.Sprintf("missing column %q", column), nil).
				WithContext("columns", strings.Join(header, ","))
		}
	}

	var df dataframe.DataFrame
	if len(records) == 1 {
		df = emptyFrame(header)
	} else {
		df = dataframe.LoadRecords(records,
			dataframe.HasHeader(true),
			dataframe.DetectTypes(false),
			dataframe.DefaultType(series.String),
			dataframe.NaNValues(NAValues),
		)
	}
	if df.Err != nil {
		return nil, apperrors.NewParsingError("failed to build table", df.Err)
	}

	return &table{df: df, rows: len(records) - 1}, nil
}

func emptyFrame(header []string) dataframe.DataFrame {
	columns := make([]series.Series, len(header))
	for i, name := range header {
		columns[i] = series.New([]string{}, series.String, name)
	}
	return dataframe.New(columns...)
}

// keepComplete drops every row with a missing cell in any column, and rows
// whose numeric columns do not parse.
func keepComplete(df dataframe.DataFrame, numeric ...string) dataframe.DataFrame {
	for _, name := range df.Names() {
		valid := notMissing
		if indexOf(numeric, name) >= 0 {
			valid = isNumber
		}
		df = df.Filter(dataframe.F{
			Colname:    name,
			Comparator: series.CompFunc,
			Comparando: valid,
		})
	}
	return df
}

// keepNonNegative drops rows whose numeric column is below zero. Cells must
// already have passed keepComplete.
func keepNonNegative(df dataframe.DataFrame, name string) dataframe.DataFrame {
	return df.Filter(dataframe.F{
		Colname:    name,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			return number(el.String()) >= 0
		},
	})
}

// selectColumns narrows df to columns, in that order
func selectColumns(df dataframe.DataFrame, columns []string) (dataframe.DataFrame, error) {
	df = df.Select(columns)
	if df.Err != nil {
		return df, apperrors.NewParsingError("failed to select columns", df.Err)
	}
	return df, nil
}

// keepEqual keeps rows whose column equals value
func keepEqual(df dataframe.DataFrame, column, value string) dataframe.DataFrame {
	return df.Filter(dataframe.F{
		Colname:    column,
		Comparator: series.Eq,
		Comparando: value,
	})
}

func notMissing(el series.Element) bool {
	return !el.IsNA()
}

func isNumber(el series.Element) bool {
	if el.IsNA() {
		return false
	}
	v, err := parseFloat(el.String())
	return err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// column returns the string values of a column
func column(df dataframe.DataFrame, name string) []string {
	return df.Col(name).Records()
}

func indexOf(values []string, target string) int {
	for i, v := range values {
		if v == target {
			return i
		}
	}
	return -1
}
