package output

import (
	"os"

	"golang.org/x/term"
)

// IsInteractive reports whether stdin and stdout are both attached to a terminal.
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
