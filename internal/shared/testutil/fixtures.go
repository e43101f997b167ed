package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// EnrollmentCSV is a small enrollment export with a leading index column.
//
// After loading: the Full-time row is filtered out, Brooklyn (empty head
// count) and City (NA head count) are dropped, and Unlocated College has no
// location so it never reaches the joined view. The joined view is, in order:
// Hunter 2020, Baruch 2019, Baruch 2020, Hunter 2019.
const EnrollmentCSV = `,College Name,Fall Term,Enrollment Type Description,Head Count
0,Hunter College,2020,Total,23000
1,Hunter College,2020,Full-time,17000
2,Baruch College,2019,Total,18000
3,Baruch College,2020,Total,18500
4,Hunter College,2019,Total,22500
5,Unlocated College,2020,Total,100
6,Brooklyn College,2020,Total,
7,City College,2021,Total,NA
`

// LocationCSV locates every enrollment college except Unlocated College.
const LocationCSV = `College Name,Latitude,Longitude
Baruch College,40.7402,-73.9834
Hunter College,40.7685,-73.9657
Brooklyn College,40.6314,-73.9521
City College,40.8200,-73.9493
`

// RetentionCSV holds 1 Year Retention rows for Hunter (2018-2020) and
// Baruch (2019), plus one other record type and one row missing its value.
const RetentionCSV = `College,Fall Term,Record Type Description,Percentage
Hunter College,2020,1 Year Retention,85.5
Hunter College,2018,1 Year Retention,83.0
Baruch College,2019,1 Year Retention,90.1
Hunter College,2019,1 Year Retention,84.2
Baruch College,2019,2 Year Retention,80.0
Baruch College,2020,1 Year Retention,
`

// DatasetFiles are the paths of fixture CSVs on disk
type DatasetFiles struct {
	Dir        string
	Enrollment string
	Locations  string
	Retention  string
}

// WriteFile writes content to name inside dir and returns the full path
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write fixture %s: %v", path, err)
	}
	return path
}

// WriteDataset writes the default fixtures into a fresh temp directory
// using the file names the dashboards look for by default.
func WriteDataset(t *testing.T) DatasetFiles {
	t.Helper()
	return WriteDatasetWith(t, EnrollmentCSV, LocationCSV, RetentionCSV)
}

// WriteDatasetWith writes custom CSV contents. An empty retention string
// skips the retention file.
func WriteDatasetWith(t *testing.T, enrollment, locations, retention string) DatasetFiles {
	t.Helper()

	dir := t.TempDir()
	files := DatasetFiles{
		Dir:        dir,
		Enrollment: WriteFile(t, dir, "cuny_attendance.csv", enrollment),
		Locations:  WriteFile(t, dir, "college_location.csv", locations),
	}
	if retention != "" {
		files.Retention = WriteFile(t, dir, "cuny_retention.csv", retention)
	}
	return files
}
