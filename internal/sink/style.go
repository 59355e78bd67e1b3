package sink

import (
	"os"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const defaultWidth = 100

// Terminal describes the console as far as rendering cares.
type Terminal struct {
	Color bool
	Width int // columns; defaultWidth when unknown
}

// Inspect describes the console. Colors follow fatih/color's detection (NO_COLOR,
// TERM=dumb, not a tty); log files never get colors.
func Inspect(t Target) Terminal {
	if !t.Console() {
		return Terminal{Width: defaultWidth}
	}
	f, ok := Stdout.(*os.File)
	if !ok {
		return Terminal{Width: defaultWidth}
	}
	out := Terminal{Color: !color.NoColor && f == os.Stdout, Width: defaultWidth}
	if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
		out.Width = w
	}
	return out
}
