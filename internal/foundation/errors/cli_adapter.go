package errors

import (
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
)

// CLIErrorAdapter turns a command error into one report line on stderr and an exit
// status.
type CLIErrorAdapter struct {
	verbose bool
	out     io.Writer
}

// NewCLIErrorAdapter returns an adapter writing to stderr. Verbose reports carry the
// full classification and the error context.
func NewCLIErrorAdapter(verbose bool) *CLIErrorAdapter {
	return &CLIErrorAdapter{verbose: verbose, out: os.Stderr}
}

// ExitCodeFor returns 0 for nil and 1 for any error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// FormatError renders err as its report line.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	switch {
	case !ok:
		return "Error: " + err.Error()
	case a.verbose:
		return "Error: " + err.Error() + formatContext(classified.Context())
	case classified.Cause() != nil:
		return fmt.Sprintf("Error (%s): %s: %v", classified.Category(), classified.Message(), classified.Cause())
	default:
		return fmt.Sprintf("Error (%s): %s", classified.Category(), classified.Message())
	}
}

// Report writes the report line for err and returns the exit status.
func (a *CLIErrorAdapter) Report(err error) int {
	if err == nil {
		return 0
	}
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

func formatContext(c ErrorContext) string {
	if len(c) == 0 {
		return ""
	}
	fields := make([]string, 0, len(c))
	for _, k := range slices.Sorted(maps.Keys(c)) {
		fields = append(fields, fmt.Sprintf("%s=%v", k, c[k]))
	}
	return " (" + strings.Join(fields, ", ") + ")"
}
