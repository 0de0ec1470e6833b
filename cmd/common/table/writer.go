package table

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// NewWriter returns a go-pretty writer in the house style, limited to the
// terminal width.
func NewWriter(header ...any) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Format.Header = text.FormatDefault
	t.SetAllowedRowLength(TerminalWidth())
	if len(header) > 0 {
		t.AppendHeader(table.Row(header))
	}
	return t
}

// Dim renders secondary text, such as a missing value.
func Dim(s string) string {
	return text.FgHiBlack.Sprint(s)
}

// Highlight marks the current or default row.
func Highlight(s string) string {
	return text.FgGreen.Sprint(s)
}

func Warn(s string) string {
	return text.FgYellow.Sprint(s)
}
