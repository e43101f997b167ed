package exporter

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"cunydash/internal/dataset"
	"cunydash/internal/shared/testutil"
)

var sampleRows = []dataset.JoinedRecord{
	{CollegeName: "Hunter College", FallTerm: "2020", EnrollmentType: "Total", HeadCount: 23000, Latitude: 40.7685, Longitude: -73.9657},
	{CollegeName: "Baruch College, Zicklin", FallTerm: "2019", EnrollmentType: "Total", HeadCount: 18000, Latitude: 40.7402, Longitude: -73.9834},
}

func TestJoinedExporter_CSV(t *testing.T) {
	logger, logs := testutil.NewTestLogger(t)

	var buf bytes.Buffer
	require.NoError(t, NewJoinedExporter(logger).Export(&buf, FormatCSV, sampleRows))

	require.True(t, bytes.HasPrefix(buf.Bytes(), utf8BOM))
	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, joinedHeaders, records[0])
	assert.Equal(t, []string{"Hunter College", "2020", "Total", "23000", "40.7685", "-73.9657"}, records[1])
	assert.Equal(t, "Baruch College, Zicklin", records[2][0])

	assert.True(t, logs.ContainsMessage("Exporting joined view"))
	assert.True(t, logs.ContainsAttr("record_count", int64(2)))
}

func TestJoinedExporter_CSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJoinedExporter(nil).Export(&buf, FormatCSV, nil))

	records, err := csv.NewReader(bytes.NewReader(buf.Bytes()[len(utf8BOM):])).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{joinedHeaders}, records)
}

func TestJoinedExporter_XLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJoinedExporter(nil).Export(&buf, FormatXLSX, sampleRows))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Joined"}, f.GetSheetList())

	rows, err := f.GetRows("Joined")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, joinedHeaders, rows[0])
	assert.Equal(t, "Hunter College", rows[1][0])
	assert.Equal(t, "23000", rows[1][3])

	cellType, err := f.GetCellType("Joined", "D2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, cellType)
}

func TestJoinedExporter_UnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	err := NewJoinedExporter(nil).Export(&buf, "pdf", sampleRows)
	assert.Error(t, err)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		term   string
		format string
		want   string
	}{
		{"", FormatCSV, "college_enrollment.csv"},
		{"2020", FormatXLSX, "college_enrollment_2020.xlsx"},
		{"Fall 2020", FormatCSV, "college_enrollment_Fall_2020.csv"},
		{"../../etc", FormatCSV, "college_enrollment_etc.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.term, tt.format))
		})
	}
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv; charset=utf-8", ContentType(FormatCSV))
	assert.Contains(t, ContentType(FormatXLSX), "spreadsheetml")
}

func TestWriteCSV_NoBOM(t *testing.T) {
	var buf bytes.Buffer
	err := WriteCSV(&buf, WriteOptions{Headers: []string{"a", "b"}, Records: [][]string{{"1", "2"}}})
	require.NoError(t, err)
	assert.Equal(t, "a,b\n1,2\n", buf.String())
}
