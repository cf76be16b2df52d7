package cli

import (
	"encoding/json"
	"io"
	"os"

	"golang.org/x/term"
)

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r interface{}) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd())) //nolint:gosec // file descriptors fit in int
}

// terminalWidth returns the column count of w, or 0 when w is not a
// terminal.
func terminalWidth(w interface{}) int {
	f, ok := w.(*os.File)
	if !ok {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd())) //nolint:gosec // file descriptors fit in int
	if err != nil {
		return 0
	}
	return width
}
