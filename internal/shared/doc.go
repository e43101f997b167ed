// Package shared holds code used across the dashboard packages that belongs
// to no single layer.
//
// The testutil subpackage provides:
//
//   - BufferedSlogHandler and NewTestLogger for asserting on structured logs
//   - CSV fixture writers for the enrollment, location and retention sources
//
// Example usage:
//
//	func TestSomething(t *testing.T) {
//	    files := testutil.WriteDataset(t)
//	    logger, logs := testutil.NewTestLogger(t)
//	    ...
//	}
package shared
