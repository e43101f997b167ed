// Package viewmodel derives the dropdown domains and default selections of
// the dashboards from loaded data.
package viewmodel

import (
	"sort"

	"cunydash/internal/dataset"
)

// Option is one dropdown entry
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Model is everything the page needs to render its selectors
type Model struct {
	FallTerms       []string `json:"fall_terms"`
	DefaultFallTerm string   `json:"default_fall_term"`
	TermOptions     []Option `json:"term_options"`

	Colleges       []string `json:"colleges,omitempty"`
	DefaultCollege string   `json:"default_college,omitempty"`
	CollegeOptions []Option `json:"college_options,omitempty"`
}

// FallTerms returns the distinct fall terms of the joined view, sorted.
func FallTerms(joined []dataset.JoinedRecord) []string {
	seen := make(map[string]bool)
	terms := make([]string, 0)
	for _, row := range joined {
		if seen[row.FallTerm] {
			continue
		}
		seen[row.FallTerm] = true
		terms = append(terms, row.FallTerm)
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return dataset.CompareTerms(terms[i], terms[j]) < 0
	})
	return terms
}

// DefaultFallTerm returns the term of the first joined row. This is not
// necessarily the earliest term; the dropdown still lists terms sorted.
func DefaultFallTerm(joined []dataset.JoinedRecord) string {
	if len(joined) == 0 {
		return ""
	}
	return joined[0].FallTerm
}

// Colleges returns the distinct retention colleges in first-seen order
func Colleges(retention []dataset.RetentionRecord) []string {
	seen := make(map[string]bool)
	colleges := make([]string, 0)
	for _, row := range retention {
		if seen[row.College] {
			continue
		}
		seen[row.College] = true
		colleges = append(colleges, row.College)
	}
	return colleges
}

// DefaultCollege returns the first retention college, or "" if none
func DefaultCollege(retention []dataset.RetentionRecord) string {
	colleges := Colleges(retention)
	if len(colleges) == 0 {
		return ""
	}
	return colleges[0]
}

// Build derives the full Model. College fields stay empty when no
// retention data was loaded.
func Build(data *dataset.Data) Model {
	terms := FallTerms(data.Joined)
	m := Model{
		FallTerms:       terms,
		DefaultFallTerm: DefaultFallTerm(data.Joined),
		TermOptions:     options(terms),
	}

	if data.HasRetention() {
		m.Colleges = Colleges(data.Retention)
		m.DefaultCollege = DefaultCollege(data.Retention)
		m.CollegeOptions = options(m.Colleges)
	}
	return m
}

// HasTerm reports whether term is one of the selectable fall terms
func (m Model) HasTerm(term string) bool {
	return contains(m.FallTerms, term)
}

// HasCollege reports whether college is one of the selectable colleges
func (m Model) HasCollege(college string) bool {
	return contains(m.Colleges, college)
}

func options(values []string) []Option {
	opts := make([]Option, len(values))
	for i, v := range values {
		opts[i] = Option{Label: v, Value: v}
	}
	return opts
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
