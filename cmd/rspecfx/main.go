package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/oxhq/rspecfx/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK       = 0
	exitOffenses = 1
	exitError    = 2
)

// app carries the state shared by the commands of one invocation.
type app struct {
	stdout, stderr io.Writer
	env            config.Env
	opts           options
	exitCode       int
	debugLog       func(format string, args ...any)
}

func main() {
	// .env is optional
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// execute runs the CLI and returns the process exit code.
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr, env: config.LoadEnv()}
	a.debugLog = func(string, ...any) {}

	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	if err := root.ExecuteContext(ctx); err != nil {
		a.reportError(err)
		return exitError
	}
	return a.exitCode
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "rspecfx [paths...]",
		Short: "Static analysis and autocorrection for RSpec suites",
		Long: `rspecfx inspects RSpec files for style offenses and optionally rewrites them.

Without paths the current directory is inspected. Exit status is 0 when no
offenses remain, 1 when offenses remain and 2 on errors.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if a.opts.debug {
				a.debugLog = func(format string, args ...any) {
					fmt.Fprintf(a.stderr, "[DEBUG] "+format+"\n", args...)
				}
			}
		},
		RunE: a.runCheck,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.opts.configPath, "config", "c", a.env.ConfigPath, "Configuration file (default: discover .rspecfx.yml)")
	pf.StringVar(&a.opts.db, "db", a.env.DBPath, "Run history database (file path or libsql:// URL)")
	pf.BoolVar(&a.opts.debug, "debug", a.env.Debug, "Enable debug logging")

	bindCheckFlags(root, &a.opts)

	check := &cobra.Command{
		Use:   "check [paths...]",
		Short: "Inspect files (the default command)",
		Args:  cobra.ArbitraryArgs,
		RunE:  a.runCheck,
	}
	bindCheckFlags(check, &a.opts)

	root.AddCommand(check, newCopsCmd(a), newHistoryCmd(a))
	return root
}

// reportError prints err as JSON when JSON output was requested.
func (a *app) reportError(err error) {
	var cliErr CLIError
	if !errors.As(err, &cliErr) {
		cliErr = CLIError{Code: ErrIO, Message: err.Error()}
	}
	if a.opts.format == "json" {
		fmt.Fprintln(a.stdout, cliErr.JSON())
		return
	}
	red := color.New(color.FgRed, color.Bold)
	if !a.colorEnabled(a.stderr) {
		red.DisableColor()
	}
	fmt.Fprintf(a.stderr, "%s %s\n", red.Sprint("Error:"), cliErr.Error())
}

func (a *app) warn(format string, args ...any) {
	yellow := color.New(color.FgYellow)
	if !a.colorEnabled(a.stderr) {
		yellow.DisableColor()
	}
	fmt.Fprintf(a.stderr, "%s %s\n", yellow.Sprint("warning:"), fmt.Sprintf(format, args...))
}

// colorEnabled reports whether w is a terminal and NO_COLOR is unset.
func (a *app) colorEnabled(w io.Writer) bool {
	if color.NoColor {
		return false
	}
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
