package table

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

// Width is the display width in terminal cells, ignoring ANSI escapes.
func Width(s string) int {
	return lipgloss.Width(s)
}

// Truncate cuts s to maxWidth cells, ending in "…" when shortened. Wide
// runes are never split.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if Width(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return "…"
	}

	var b strings.Builder
	w := 0
	for _, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > maxWidth-1 {
			break
		}
		b.WriteRune(r)
		w += rw
	}
	return b.String() + "…"
}

// TruncateStart keeps the end of s, which is the useful part of a path.
func TruncateStart(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if Width(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return "…"
	}

	runes := []rune(s)
	w := 0
	start := len(runes)
	for i := len(runes) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(runes[i])
		if w+rw > maxWidth-1 {
			break
		}
		w += rw
		start = i
	}
	return "…" + string(runes[start:])
}

// PadRight pads or truncates s to exactly width cells.
func PadRight(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := Width(s)
	if w >= width {
		return Truncate(s, width)
	}
	return s + strings.Repeat(" ", width-w)
}

func PadLeft(s string, width int) string {
	if width <= 0 {
		return ""
	}
	w := Width(s)
	if w >= width {
		return Truncate(s, width)
	}
	return strings.Repeat(" ", width-w) + s
}
