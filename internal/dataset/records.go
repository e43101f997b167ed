package dataset

// Column names of the source exports.
const (
	ColCollegeName    = "College Name"
	ColFallTerm       = "Fall Term"
	ColEnrollmentType = "Enrollment Type Description"
	ColHeadCount      = "Head Count"
	ColLatitude       = "Latitude"
	ColLongitude      = "Longitude"
	ColCollege        = "College"
	ColRecordType     = "Record Type Description"
	ColPercentage     = "Percentage"
)

// Category values kept by the loaders.
const (
	EnrollmentTypeTotal        = "Total"
	RecordTypeOneYearRetention = "1 Year Retention"
)

// NAValues are the cell values treated as missing, in addition to the
// empty cell.
var NAValues = []string{"", "NA", "NaN", "N/A", "null", "<nil>"}

var (
	enrollmentColumns = []string{ColCollegeName, ColFallTerm, ColEnrollmentType, ColHeadCount}
	locationColumns   = []string{ColCollegeName, ColLatitude, ColLongitude}
	retentionColumns  = []string{ColCollege, ColFallTerm, ColRecordType, ColPercentage}
)

// EnrollmentRecord is one "Total" enrollment row
type EnrollmentRecord struct {
	CollegeName    string `json:"college_name"`
	FallTerm       string `json:"fall_term"`
	EnrollmentType string `json:"enrollment_type"`
	HeadCount      int64  `json:"head_count"`
}

// LocationRecord places a college on the map
type LocationRecord struct {
	CollegeName string  `json:"college_name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
}

// RetentionRecord is one "1 Year Retention" row
type RetentionRecord struct {
	College    string  `json:"college"`
	FallTerm   string  `json:"fall_term"`
	RecordType string  `json:"record_type"`
	Percentage float64 `json:"percentage"`
}

// JoinedRecord is an enrollment row with its college's location
type JoinedRecord struct {
	CollegeName    string  `json:"college_name"`
	FallTerm       string  `json:"fall_term"`
	EnrollmentType string  `json:"enrollment_type"`
	HeadCount      int64   `json:"head_count"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
}

// TableStats counts what happened to one source file
type TableStats struct {
	Rows     int `json:"rows"`
	Dropped  int `json:"dropped"`
	Filtered int `json:"filtered"`
	Kept     int `json:"kept"`
}
