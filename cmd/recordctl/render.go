package main

import (
	"encoding/json"
	"fmt"

	"github.com/danthegoodman1/cirecord/record"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"
)

// Output formats
const (
	CsvOutputFormat  string = "csv"
	TextOutputFormat string = "text"
	JSONOutputFormat string = "json"
)

var availableOutputFormats = []string{CsvOutputFormat, TextOutputFormat, JSONOutputFormat}

const DefaultOutputFormat = TextOutputFormat

var outputFormat string

// columnsOf returns every column seen across records, spelled and ordered as it was
// first seen.
func columnsOf(records []*record.Record) []string {
	cols := record.New()
	for _, rec := range records {
		for _, key := range rec.Keys() {
			if !cols.ContainsKey(key) {
				cols.Set(key, nil)
			}
		}
	}
	return cols.Keys()
}

func renderRecords(records []*record.Record, format string) (string, error) {
	if format == JSONOutputFormat {
		b, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return "", fmt.Errorf("error in json.MarshalIndent: %w", err)
		}
		return string(b), nil
	}

	t := table.NewWriter()
	if term.IsTerminal(0) {
		width, _, err := term.GetSize(0)
		if err == nil {
			t.SetAllowedRowLength(width)
		}
	}

	cols := columnsOf(records)
	header := make(table.Row, 0, len(cols))
	for _, col := range cols {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, rec := range records {
		r := make(table.Row, 0, len(cols))
		for _, col := range cols {
			v, found := rec.TryGet(col)
			if !found || v == nil {
				v = ""
			}
			r = append(r, v)
		}
		t.AppendRow(r)
	}

	switch format {
	case CsvOutputFormat:
		return t.RenderCSV(), nil
	case TextOutputFormat:
		return t.Render(), nil
	default:
		return "", fmt.Errorf("unsupported output format %s", format)
	}
}
