// Package exporter writes the joined enrollment view as CSV or XLSX.
//
// CSV output carries a UTF-8 BOM so spreadsheet applications detect the
// encoding. XLSX output is a single sheet with typed cells.
package exporter
