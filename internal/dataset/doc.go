// Package dataset loads the college CSV exports into immutable, typed tables.
//
// # Sources
//
// Three files feed the dashboards:
//
//	enrollment  College Name, Fall Term, Enrollment Type Description, Head Count
//	locations   College Name, Latitude, Longitude
//	retention   College, Fall Term, Record Type Description, Percentage
//
// The retention file is only read by the retention dashboard. Column names
// are a contract: a missing column fails the load.
//
// # Pipeline
//
// Each file is parsed with gota (all columns as strings), rows with any
// missing cell are dropped, and numeric columns that do not parse count as
// missing. Enrollment is then reduced to "Total" rows and inner-joined with
// locations on College Name; retention is reduced to "1 Year Retention"
// rows and stable-sorted by fall term.
//
//	files → gota DataFrame → drop missing → category filter → join/sort → Data
//
// # Usage
//
//	data, err := dataset.Load(ctx, dataset.Sources{
//	    Enrollment:  "cuny_attendance.csv",
//	    Locations:   "college_location.csv",
//	    IndexColumn: true,
//	})
//
// Data is built once at startup and shared read-only between requests.
package dataset
