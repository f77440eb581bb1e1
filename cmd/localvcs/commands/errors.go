package commands

import (
	"fmt"
	"io"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

// ReportError prints err with any suggestion and returns the exit code.
func ReportError(w io.Writer, err error) int {
	exitErr := errors.Classify(err)
	if exitErr == nil {
		return errors.ExitSuccess
	}

	p := paletteFor(w)
	if exitErr.Err != nil {
		fmt.Fprintf(w, "%s %v\n", p.bad("Error:"), exitErr.Err)
	}
	hint := exitErr.Suggestion
	if h := errors.FlattenHints(err); h != "" {
		hint = h
	}
	if hint != "" {
		fmt.Fprintf(w, "%s %s\n", p.dim("Hint:"), hint)
	}
	return exitErr.Code
}
