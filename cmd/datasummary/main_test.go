package main

import (
	"bytes"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cunydash/internal/config"
	"cunydash/internal/dataset"
	"cunydash/internal/shared/testutil"
)

func TestRun(t *testing.T) {
	color.NoColor = true
	files := testutil.WriteDataset(t)

	tests := []struct {
		name     string
		args     []string
		wantCode int
		contains []string
		missing  []string
	}{
		{
			name:     "enrollment",
			args:     []string{"-dir", files.Dir},
			wantCode: 0,
			contains: []string{"Dataset summary", "enrollment", "40500", "41500", "Unlocated College"},
			missing:  []string{"1 Year Retention"},
		},
		{
			name:     "retention",
			args:     []string{"-variant", config.VariantRetention, "-dir", files.Dir},
			wantCode: 0,
			contains: []string{"1 Year Retention", "Hunter College", "85.5", "90.1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(t.Context(), tt.args, &stdout, &stderr)
			require.Equal(t, tt.wantCode, code, stderr.String())

			out := stdout.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.missing {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestRun_Failures(t *testing.T) {
	color.NoColor = true

	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{name: "missing files", args: []string{"-dir", t.TempDir()}, wantCode: 1},
		{name: "unknown variant", args: []string{"-variant", "grades"}, wantCode: 1},
		{name: "bad flag", args: []string{"-nope"}, wantCode: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(t.Context(), tt.args, &stdout, &stderr)
			assert.Equal(t, tt.wantCode, code)
			assert.Empty(t, stdout.String())
			assert.NotEmpty(t, stderr.String())
		})
	}
}

func TestTermTotals(t *testing.T) {
	tests := []struct {
		name         string
		rows         []dataset.JoinedRecord
		wantColleges int
		wantTotal    int64
	}{
		{"no rows", nil, 0, 0},
		{
			name: "one row per college",
			rows: []dataset.JoinedRecord{
				{CollegeName: "Baruch College", HeadCount: 18000},
				{CollegeName: "Hunter College", HeadCount: 22500},
			},
			wantColleges: 2,
			wantTotal:    40500,
		},
		{
			name: "several enrollment types per college",
			rows: []dataset.JoinedRecord{
				{CollegeName: "Baruch College", EnrollmentType: "Full-time", HeadCount: 15000},
				{CollegeName: "Baruch College", EnrollmentType: "Part-time", HeadCount: 3000},
				{CollegeName: "Hunter College", EnrollmentType: "Full-time", HeadCount: 22500},
			},
			wantColleges: 2,
			wantTotal:    40500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			colleges, total := termTotals(tt.rows)
			assert.Equal(t, tt.wantColleges, colleges)
			assert.Equal(t, tt.wantTotal, total)
		})
	}
}
