package table

import (
	"os"

	"golang.org/x/term"
)

// DefaultTerminalWidth is used when the width cannot be determined.
const DefaultTerminalWidth = 80

// TerminalWidth returns the width of stdout, or stderr when stdout is piped.
func TerminalWidth() int {
	for _, f := range []*os.File{os.Stdout, os.Stderr} {
		if width, _, err := term.GetSize(int(f.Fd())); err == nil && width > 0 {
			return width
		}
	}
	return DefaultTerminalWidth
}
