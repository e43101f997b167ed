// Command datasummary loads the dashboard CSVs and prints what survives
// cleaning and joining, without starting a server.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"cunydash/internal/config"
	"cunydash/internal/dataset"
	"cunydash/internal/infrastructure"
	"cunydash/internal/viewmodel"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("datasummary", flag.ContinueOnError)
	fs.SetOutput(stderr)
	variant := fs.String("variant", config.VariantEnrollment, "enrollment | retention")
	dir := fs.String("dir", "", "directory containing the CSV files (overrides configuration)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, err := config.Load(*variant)
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if *dir != "" {
		cfg.Data.Dir = *dir
	}

	logger := infrastructure.NewLoggerWithWriter(stderr, cfg.Logging.Level)
	data, err := dataset.NewLoader(logger).Load(ctx, dataset.Sources{
		Enrollment:  cfg.EnrollmentPath(),
		Locations:   cfg.LocationPath(),
		Retention:   cfg.RetentionPath(),
		IndexColumn: cfg.Data.EnrollmentIndexColumn,
	})
	if err != nil {
		color.New(color.FgRed).Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	printSummary(stdout, data)
	return 0
}

func printSummary(w io.Writer, data *dataset.Data) {
	heading := color.New(color.FgCyan, color.Bold)
	section := color.New(color.FgYellow)

	heading.Fprintln(w, "=== Dataset summary ===")

	section.Fprintln(w, "\nSources")
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Source", "Rows", "Dropped", "Filtered", "Kept"})
	appendStats(table, "enrollment", data.EnrollmentStats)
	appendStats(table, "locations", data.LocationStats)
	if data.HasRetention() {
		appendStats(table, "retention", data.RetentionStats)
	}
	table.Render()

	section.Fprintln(w, "\nJoined rows by fall term")
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"Fall Term", "Colleges", "Head Count"})
	for _, term := range viewmodel.FallTerms(data.Joined) {
		colleges, total := termTotals(data.JoinedForTerm(term))
		table.Append([]string{term, strconv.Itoa(colleges), strconv.FormatInt(total, 10)})
	}
	table.Render()

	if unlocated := data.UnlocatedColleges(); len(unlocated) > 0 {
		section.Fprintln(w, "\nColleges without a location (excluded from charts)")
		for _, name := range unlocated {
			fmt.Fprintf(w, "  - %s\n", name)
		}
	} else {
		color.New(color.FgGreen).Fprintln(w, "\nEvery enrolled college has a location")
	}

	if !data.HasRetention() {
		return
	}

	section.Fprintln(w, "\n1 Year Retention")
	table = tablewriter.NewWriter(w)
	table.SetHeader([]string{"College", "Terms", "Latest Term", "Latest %"})
	for _, college := range viewmodel.Colleges(data.Retention) {
		rows := data.RetentionForCollege(college)
		latest := rows[len(rows)-1]
		table.Append([]string{
			college,
			strconv.Itoa(len(rows)),
			latest.FallTerm,
			strconv.FormatFloat(latest.Percentage, 'f', 1, 64),
		})
	}
	table.Render()
}

// termTotals counts distinct colleges and sums head count over rows
func termTotals(rows []dataset.JoinedRecord) (colleges int, total int64) {
	seen := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		seen[r.CollegeName] = struct{}{}
		total += r.HeadCount
	}
	return len(seen), total
}

func appendStats(table *tablewriter.Table, name string, s dataset.TableStats) {
	table.Append([]string{
		name,
		strconv.Itoa(s.Rows),
		strconv.Itoa(s.Dropped),
		strconv.Itoa(s.Filtered),
		strconv.Itoa(s.Kept),
	})
}
