package dataset

import (
	"sort"
	"strconv"
	"strings"
)

// CompareTerms orders fall terms. Two numeric terms compare by value,
// anything else compares as text.
func CompareTerms(a, b string) int {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return strings.Compare(a, b)
	}
	return strings.Compare(a, b)
}

// SortRetention stable-sorts records ascending by fall term in place
func SortRetention(records []RetentionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return CompareTerms(records[i].FallTerm, records[j].FallTerm) < 0
	})
}
