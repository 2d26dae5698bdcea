// Package formatter renders run results for humans and machines.
package formatter

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/oxhq/rspecfx/core"
	"github.com/oxhq/rspecfx/cop"
)

// ErrUnknownFormat is returned by New for an unregistered formatter name.
var ErrUnknownFormat = errors.New("unknown format")

// Formatter writes a finished run.
type Formatter interface {
	Format(w io.Writer, result *core.RunResult) error
}

// Options tune the text formatters.
type Options struct {
	Color bool // ANSI colors, usually only when writing to a terminal
	Diff  bool // Append the diff of every corrected file
}

var constructors = map[string]func(Options) Formatter{
	"progress": func(o Options) Formatter { return &Progress{palette: newPalette(o.Color), diff: o.Diff} },
	"clang":    func(o Options) Formatter { return &Clang{palette: newPalette(o.Color), diff: o.Diff} },
	"json":     func(Options) Formatter { return &JSON{} },
	"quiet":    func(o Options) Formatter { return &Quiet{palette: newPalette(o.Color)} },
}

// Names lists the available formatters.
func Names() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the formatter called name.
func New(name string, opts Options) (Formatter, error) {
	ctor, ok := constructors[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownFormat, name, strings.Join(Names(), ", "))
	}
	return ctor(opts), nil
}

type palette struct {
	path, severity, corrected, correctable, cop, caret, added, removed, hunk, errText *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		path:        color.New(color.FgCyan),
		severity:    color.New(color.FgYellow),
		corrected:   color.New(color.FgGreen),
		correctable: color.New(color.FgYellow),
		cop:         color.New(color.Bold),
		caret:       color.New(color.FgYellow),
		added:       color.New(color.FgGreen),
		removed:     color.New(color.FgRed),
		hunk:        color.New(color.FgCyan),
		errText:     color.New(color.FgRed),
	}
	for _, c := range []*color.Color{
		p.path, p.severity, p.corrected, p.correctable, p.cop,
		p.caret, p.added, p.removed, p.hunk, p.errText,
	} {
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

// offenseLine renders "path:line:col: C: [Corrected] Cop: message".
func (p palette) offenseLine(path string, off cop.Offense) string {
	var status string
	switch {
	case off.Corrected:
		status = p.corrected.Sprint("[Corrected]") + " "
	case off.Correctable:
		status = p.correctable.Sprint("[Correctable]") + " "
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s%s: %s",
		p.path.Sprint(path), off.Position.Line, off.Position.Column+1,
		p.severity.Sprint("C"), status, p.cop.Sprint(off.CopName), off.Message)
}

func (p palette) writeDiff(w io.Writer, diff string) {
	for _, line := range strings.SplitAfter(diff, "\n") {
		switch {
		case line == "":
		case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
			fmt.Fprint(w, p.cop.Sprint(line))
		case strings.HasPrefix(line, "@@"):
			fmt.Fprint(w, p.hunk.Sprint(line))
		case strings.HasPrefix(line, "+"):
			fmt.Fprint(w, p.added.Sprint(line))
		case strings.HasPrefix(line, "-"):
			fmt.Fprint(w, p.removed.Sprint(line))
		default:
			fmt.Fprint(w, line)
		}
	}
}

func (p palette) writeDiffs(w io.Writer, result *core.RunResult) {
	for _, report := range result.Files {
		if report.Diff == "" {
			continue
		}
		fmt.Fprintln(w)
		p.writeDiff(w, report.Diff)
	}
}

func (p palette) writeErrors(w io.Writer, result *core.RunResult) {
	if result.Summary.FilesWithError == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n\n", p.errText.Sprint("Errors:"))
	for _, report := range result.Files {
		if report.Failed() {
			fmt.Fprintf(w, "%s: %s\n", p.path.Sprint(report.Path), report.Error)
		}
	}
}

// summaryLine renders RuboCop's closing sentence.
func (p palette) summaryLine(result *core.RunResult) string {
	s := result.Summary
	var b strings.Builder
	fmt.Fprintf(&b, "%s inspected, ", plural(s.Files, "file"))

	switch {
	case s.Offenses == 0:
		b.WriteString(p.corrected.Sprint("no offenses"))
		b.WriteString(" detected")
	default:
		b.WriteString(p.errText.Sprint(plural(s.Offenses, "offense")))
		b.WriteString(" detected")
	}

	if s.Corrected > 0 {
		verb := "corrected"
		if result.Mode == core.ModeDryRun {
			verb = "can be corrected"
		}
		fmt.Fprintf(&b, ", %s %s", p.corrected.Sprint(plural(s.Corrected, "offense")), verb)
	}

	if correctable := pendingCorrectable(result); correctable > 0 {
		fmt.Fprintf(&b, ", %s can be corrected with `rspecfx -a`",
			p.correctable.Sprint(plural(correctable, "offense")))
	}
	return b.String()
}

func pendingCorrectable(result *core.RunResult) int {
	n := 0
	for _, report := range result.Files {
		for _, off := range report.Offenses {
			if off.Correctable && !off.Corrected {
				n++
			}
		}
	}
	return n
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}
