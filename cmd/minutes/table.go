package main

import (
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"minutes/internal/workflow"
)

const (
	historyTimeLayout = "Jan 2 15:04"
	promptPreviewLen  = 40
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
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, columns)
		for i := range r {
			if i < len(row) {
				r[i] = row[i]
			}
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, columns)
	for i := range configs {
		align := text.AlignLeft
		if i < len(aligns) && aligns[i] == alignRight {
			align = text.AlignRight
		}
		configs[i] = table.ColumnConfig{Number: i + 1, Align: align, AlignHeader: text.AlignLeft}
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

// renderHistory lists saved summaries newest first. Row numbers are what the
// session's open and delete commands accept; the selected entry is starred.
func renderHistory(entries []workflow.StoredResponse, selectedID string) string {
	if len(entries) == 0 {
		return "No saved summaries"
	}
	rows := make([][]string, 0, len(entries))
	for i, entry := range entries {
		marker := ""
		if entry.ID() == selectedID {
			marker = "*"
		}
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			marker,
			entry.Summary.Title,
			entry.Timestamp.Local().Format(historyTimeLayout),
			preview(entry.Summary.Prompt, promptPreviewLen),
			shortID(entry.ID()),
		})
	}
	return renderTable(
		[]string{"#", "", "Title", "Saved", "Prompt", "ID"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func preview(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
