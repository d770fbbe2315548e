package main

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"arbpanel/internal/engine"
	"arbpanel/internal/models"
	"arbpanel/internal/panel"
)

func printRows(w io.Writer, rows []engine.Row) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := append([]string{"PAIR", "STATE"}, models.NumericFields...)
	fmt.Fprintln(tw, strings.Join(header, "\t"))
	for _, row := range rows {
		state := "stopped"
		if row.Running {
			state = "running"
		}
		cells := []string{row.Identity.String(), state}
		for _, key := range models.NumericFields {
			cells = append(cells, engine.FieldText(row.Config[key]))
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func printRecords(w io.Writer, records []panel.Record) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "no records")
		return err
	}

	seen := map[string]bool{}
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(columns, "\t"))
	for _, rec := range records {
		cells := make([]string, len(columns))
		for i, col := range columns {
			cells[i] = rec[col]
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}
