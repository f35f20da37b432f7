package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"fs-organizer/internal/executor"
	"fs-organizer/internal/organizer"
	"fs-organizer/internal/planner"
	"fs-organizer/internal/storage"
)

// maxMovementRows caps how many movements are listed before summarizing the rest.
const maxMovementRows = 20

var (
	headingColor = color.New(color.FgHiBlue, color.Bold)
	cabinetColor = color.New(color.FgHiGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed)
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

func renderTable(headers []string, rows [][]string, aligns []columnAlignment) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, columns)
	for i := 0; i < columns; i++ {
		header[i] = headers[i]
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := 0; i < columns; i++ {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	columnConfigs := make([]table.ColumnConfig, 0, columns)
	for i := 0; i < columns; i++ {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		columnConfigs = append(columnConfigs, table.ColumnConfig{
			Number:      i + 1,
			Align:       align,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(columnConfigs)

	return tw.Render()
}

func heading(out io.Writer, format string, args ...any) {
	fmt.Fprintln(out, headingColor.Sprintf(format, args...))
}

func printRunSummary(out io.Writer, summary *organizer.RunSummary) {
	heading(out, "Run %s", summary.RunID)
	fmt.Fprintf(out, "Scanned %d, enriched %d, classified %d\n", summary.Scanned, summary.Enriched, summary.Classified)
	if summary.FailedBatches > 0 {
		fmt.Fprintln(out, warnColor.Sprintf("%d batches failed", summary.FailedBatches))
	}
	fmt.Fprintln(out)
}

func printCatalog(out io.Writer, plan *planner.Plan) {
	heading(out, "Catalog of %s", plan.Root)
	if len(plan.Cabinets) == 0 {
		fmt.Fprintln(out, "No cabinets yet.")
		return
	}
	for _, cabinet := range plan.Cabinets {
		fmt.Fprintf(out, "%s  %s\n", cabinetColor.Sprint(cabinet.Name), cabinet.Description)
		rows := make([][]string, 0, len(cabinet.Shelves))
		for _, shelf := range cabinet.Shelves {
			rows = append(rows, []string{shelf.Name, strconv.Itoa(shelf.ItemCount), shelf.Description})
		}
		if len(rows) > 0 {
			fmt.Fprintln(out, renderTable([]string{"Shelf", "Items", "Description"}, rows, []columnAlignment{alignLeft, alignRight, alignLeft}))
		}
	}
	fmt.Fprintf(out, "%d items classified\n", plan.ItemCount())
}

func printPlan(out io.Writer, plan *planner.Plan) {
	printCatalog(out, plan)
	fmt.Fprintln(out)

	heading(out, "Planned moves")
	if len(plan.Movements) == 0 {
		fmt.Fprintln(out, "Nothing to move.")
		return
	}

	shown := min(len(plan.Movements), maxMovementRows)
	rows := make([][]string, 0, shown)
	for _, m := range plan.Movements[:shown] {
		rows = append(rows, []string{plan.Relative(m.Source), m.Cabinet + "/" + m.Shelf, m.TargetName()})
	}
	fmt.Fprintln(out, renderTable([]string{"Source", "Destination", "Name"}, rows, nil))
	if rest := len(plan.Movements) - shown; rest > 0 {
		fmt.Fprintf(out, "... and %d more\n", rest)
	}
}

func printReport(out io.Writer, report *executor.Report, dryRun bool) {
	if dryRun {
		heading(out, "Dry run")
	} else {
		heading(out, "Applied")
	}
	fmt.Fprintf(out, "Directories created: %d\n", report.DirsCreated)
	fmt.Fprintf(out, "Moved: %d\n", len(report.Moved))
	fmt.Fprintf(out, "Skipped: %d\n", report.Skipped)
	for _, err := range report.Errors {
		fmt.Fprintln(out, errorColor.Sprintf("error: %v", err))
	}
}

func printLatestRun(out io.Writer, run *storage.Run) {
	fmt.Fprintln(out)
	heading(out, "Last run")
	rows := [][]string{
		{"ID", run.ID},
		{"Status", string(run.Status)},
		{"Started", run.StartedAt.Local().Format("2006-01-02 15:04:05")},
		{"Classified", strconv.Itoa(run.Classified)},
		{"Failed batches", strconv.Itoa(run.FailedBatches)},
	}
	if run.Error != "" {
		rows = append(rows, []string{"Error", run.Error})
	}
	fmt.Fprintln(out, renderTable([]string{"Field", "Value"}, rows, nil))
}
