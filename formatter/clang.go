package formatter

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/oxhq/rspecfx/core"
	"github.com/oxhq/rspecfx/cop"
)

// Clang prints each offense with its source line and a caret underline.
type Clang struct {
	palette palette
	diff    bool
}

func (f *Clang) Format(w io.Writer, result *core.RunResult) error {
	for _, report := range result.Files {
		lines := strings.Split(report.Source, "\n")
		for _, off := range report.Offenses {
			fmt.Fprintln(w, f.palette.offenseLine(report.Path, off))
			// Corrected offenses point into an earlier version of the file.
			if off.Corrected {
				continue
			}
			if line, caret, ok := underline(lines, off); ok {
				fmt.Fprintln(w, line)
				fmt.Fprintln(w, f.palette.caret.Sprint(caret))
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

// underline returns the offense's first line and a caret line under its
// range, clipped to the end of that line. Padding follows the display width
// of the text before the offense and keeps tabs.
func underline(lines []string, off cop.Offense) (string, string, bool) {
	idx := off.Position.Line - 1
	if idx < 0 || idx >= len(lines) {
		return "", "", false
	}
	line := lines[idx]
	col := off.Position.Column
	if col > len(line) {
		return "", "", false
	}

	end := col + off.Range.Len()
	if end > len(line) {
		end = len(line)
	}

	var pad strings.Builder
	for _, r := range line[:col] {
		if r == '\t' {
			pad.WriteByte('\t')
			continue
		}
		pad.WriteString(strings.Repeat(" ", runewidth.RuneWidth(r)))
	}

	width := max(runewidth.StringWidth(line[col:end]), 1)
	return line, pad.String() + strings.Repeat("^", width), true
}
