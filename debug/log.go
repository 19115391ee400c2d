package debug

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
)

var logPrefix = func() string {
	if isatty.IsTerminal(os.Stderr.Fd()) {
		return color.New(color.FgHiBlack).Sprint("[debug] ")
	}
	return "[debug] "
}()

// Logf writes one debug line to stderr. Callers gate on the area flags, so
// Logf itself is unconditional.
func Logf(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, logPrefix+msg, args...)
}
