package formatter

import (
	"fmt"
	"io"

	"github.com/oxhq/rspecfx/core"
)

// Progress prints one mark per file followed by every offense, the way
// RuboCop's default formatter does.
type Progress struct {
	palette palette
	diff    bool
}

func (f *Progress) Format(w io.Writer, result *core.RunResult) error {
	fmt.Fprintf(w, "Inspecting %s\n", plural(len(result.Files), "file"))
	for _, report := range result.Files {
		fmt.Fprint(w, f.mark(report))
	}
	fmt.Fprintln(w)

	if result.Summary.Offenses > 0 {
		fmt.Fprintf(w, "\nOffenses:\n\n")
		for _, report := range result.Files {
			for _, off := range report.Offenses {
				fmt.Fprintln(w, f.palette.offenseLine(report.Path, off))
			}
		}
	}

	f.palette.writeErrors(w, result)
	if f.diff {
		f.palette.writeDiffs(w, result)
	}

	fmt.Fprintf(w, "\n%s\n", f.palette.summaryLine(result))
	return nil
}

func (f *Progress) mark(report core.FileReport) string {
	switch {
	case report.Failed():
		return f.palette.errText.Sprint("E")
	case len(report.Offenses) == 0:
		return f.palette.corrected.Sprint(".")
	}
	for _, off := range report.Offenses {
		if !off.Corrected {
			return f.palette.severity.Sprint("C")
		}
	}
	return f.palette.corrected.Sprint("F")
}
