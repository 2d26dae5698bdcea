package formatter

import (
	"fmt"
	"io"

	"github.com/oxhq/rspecfx/core"
)

// Quiet prints offenses and errors only, one per line.
type Quiet struct {
	palette palette
}

func (f *Quiet) Format(w io.Writer, result *core.RunResult) error {
	for _, report := range result.Files {
		if report.Failed() {
			fmt.Fprintf(w, "%s: %s %s\n", f.palette.path.Sprint(report.Path), f.palette.errText.Sprint("E:"), report.Error)
			continue
		}
		for _, off := range report.Offenses {
			fmt.Fprintln(w, f.palette.offenseLine(report.Path, off))
		}
	}
	return nil
}
