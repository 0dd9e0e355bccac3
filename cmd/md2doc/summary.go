package main

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type columnAlignment int

const (
	alignLeft columnAlignment = iota
	alignRight
)

// renderTable draws rows under headers. Terminals get rounded box drawing,
// other writers plain ASCII.
func renderTable(headers []string, rows [][]string, aligns []columnAlignment, terminal bool) string {
	columns := len(headers)
	if columns == 0 {
		return ""
	}

	tw := table.NewWriter()
	if terminal {
		tw.SetStyle(table.StyleRounded)
	} else {
		tw.SetStyle(table.StyleDefault)
	}

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
			} else {
				r[i] = ""
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

// renderConversionSummary tabulates capsule statistics per converted file.
func renderConversionSummary(results []ConversionResult, terminal bool) string {
	headers := []string{"Input", "Output", "Capsules", "Structured", "Fallback", "Misses", "Time", "Status"}
	aligns := []columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		status := "ok"
		output := r.OutputPath
		if r.Err != nil {
			status = "failed"
			output = "-"
		}
		rows = append(rows, []string{
			r.InputPath,
			output,
			strconv.Itoa(r.Stats.Capsules),
			strconv.Itoa(r.Stats.Structured),
			strconv.Itoa(r.Stats.Fallback),
			strconv.Itoa(r.Stats.Misses),
			r.Duration.Round(time.Millisecond).String(),
			status,
		})
	}
	return renderTable(headers, rows, aligns, terminal)
}

// renderRoundTripSummary tabulates round trip reports per file.
func renderRoundTripSummary(results []roundTripResult, terminal bool) string {
	headers := []string{"File", "Capsules", "Exact", "Stable", "Structured", "Fallback", "Status"}
	aligns := []columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight, alignRight, alignLeft}

	rows := make([][]string, 0, len(results))
	for _, r := range results {
		if r.Report == nil {
			rows = append(rows, []string{r.Path, "-", "-", "-", "-", "-", "error"})
			continue
		}
		status := "ok"
		if r.Report.Err() != nil {
			status = "mismatch"
		}
		rows = append(rows, []string{
			r.Path,
			strconv.Itoa(r.Report.Capsules),
			strconv.FormatBool(r.Report.Exact),
			strconv.FormatBool(r.Report.Stable),
			strconv.Itoa(r.Report.Stats.Structured),
			strconv.Itoa(r.Report.Stats.Fallback),
			status,
		})
	}
	return renderTable(headers, rows, aligns, terminal)
}
