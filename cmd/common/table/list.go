package table

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type Align int

const (
	AlignLeft Align = iota
	AlignRight
)

// Column is fixed-width when Width > 0, otherwise it shares the leftover
// space with the other flexible columns by Weight.
type Column struct {
	Header   string
	Width    int
	MinWidth int
	Weight   int
	Align    Align
	// KeepEnd truncates from the start, for paths.
	KeepEnd bool
}

// List is a scrolling, selectable grid for the player UI.
type List struct {
	Columns []Column
	Rows    [][]string
	// Cursor is the selected row, Marked the row shown as playing. -1 for none.
	Cursor  int
	Marked  int
	Offset  int
	Height  int
	Width   int
	Padding int

	HeaderStyle lipgloss.Style
	CursorStyle lipgloss.Style
	MarkedStyle lipgloss.Style
}

func NewList(columns ...Column) *List {
	return &List{
		Columns:     columns,
		Cursor:      -1,
		Marked:      -1,
		Width:       DefaultTerminalWidth,
		Padding:     2,
		HeaderStyle: lipgloss.NewStyle().Bold(true),
		CursorStyle: lipgloss.NewStyle().Reverse(true),
		MarkedStyle: lipgloss.NewStyle(),
	}
}

// SetRows replaces the content and keeps the cursor in range.
func (l *List) SetRows(rows [][]string) {
	l.Rows = rows
	switch {
	case len(rows) == 0:
		l.Cursor = -1
	case l.Cursor < 0:
		l.Cursor = 0
	case l.Cursor >= len(rows):
		l.Cursor = len(rows) - 1
	}
	l.EnsureVisible()
}

// Move shifts the cursor by delta rows, clamped.
func (l *List) Move(delta int) {
	if len(l.Rows) == 0 {
		return
	}
	l.Cursor = max(0, min(len(l.Rows)-1, l.Cursor+delta))
	l.EnsureVisible()
}

// EnsureVisible scrolls so the cursor is inside the viewport.
func (l *List) EnsureVisible() {
	if l.Height <= 0 {
		l.Offset = 0
		return
	}
	if l.Cursor >= 0 && l.Cursor < l.Offset {
		l.Offset = l.Cursor
	}
	if l.Cursor >= l.Offset+l.Height {
		l.Offset = l.Cursor - l.Height + 1
	}
	l.Offset = max(0, min(l.Offset, len(l.Rows)-l.Height))
}

// Widths splits the available width between the columns.
func (l *List) Widths() []int {
	widths := make([]int, len(l.Columns))
	if len(l.Columns) == 0 {
		return widths
	}
	remaining := l.Width - l.Padding*(len(l.Columns)-1)
	weights := 0
	for i, c := range l.Columns {
		if c.Width > 0 {
			widths[i] = c.Width
			remaining -= c.Width
		} else {
			weights += max(c.Weight, 1)
		}
	}
	remaining = max(remaining, 0)
	left := remaining
	last := -1
	for i, c := range l.Columns {
		if c.Width > 0 {
			continue
		}
		w := remaining * max(c.Weight, 1) / weights
		widths[i] = w
		left -= w
		last = i
	}
	if last >= 0 {
		widths[last] += left
	}
	for i, c := range l.Columns {
		widths[i] = max(widths[i], c.MinWidth, 1)
	}
	return widths
}

func (l *List) cell(value string, c Column, width int) string {
	if Width(value) > width {
		if c.KeepEnd {
			value = TruncateStart(value, width)
		} else {
			value = Truncate(value, width)
		}
	}
	if c.Align == AlignRight {
		return PadLeft(value, width)
	}
	return PadRight(value, width)
}

func (l *List) line(cells []string, widths []int) string {
	parts := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		v := ""
		if i < len(cells) {
			v = cells[i]
		}
		parts[i] = l.cell(v, c, widths[i])
	}
	return strings.Join(parts, strings.Repeat(" ", l.Padding))
}

// Render draws the header and the visible rows.
func (l *List) Render() string {
	widths := l.Widths()
	headers := make([]string, len(l.Columns))
	for i, c := range l.Columns {
		headers[i] = c.Header
	}
	lines := []string{l.HeaderStyle.Render(l.line(headers, widths))}

	end := len(l.Rows)
	if l.Height > 0 {
		end = min(l.Offset+l.Height, len(l.Rows))
	}
	for i := l.Offset; i < end; i++ {
		row := l.line(l.Rows[i], widths)
		switch {
		case i == l.Cursor:
			row = l.CursorStyle.Inherit(l.markStyle(i)).Render(row)
		case i == l.Marked:
			row = l.MarkedStyle.Render(row)
		}
		lines = append(lines, row)
	}
	return strings.Join(lines, "\n")
}

func (l *List) markStyle(i int) lipgloss.Style {
	if i == l.Marked {
		return l.MarkedStyle
	}
	return lipgloss.NewStyle()
}
