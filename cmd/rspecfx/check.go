package main

import (
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/oxhq/rspecfx/config"
	"github.com/oxhq/rspecfx/cops"
	"github.com/oxhq/rspecfx/core"
	"github.com/oxhq/rspecfx/db"
	"github.com/oxhq/rspecfx/formatter"
	"github.com/oxhq/rspecfx/providers"
	"github.com/oxhq/rspecfx/providers/catalog"
	"github.com/oxhq/rspecfx/providers/ruby"
)

// historyRetention is the number of runs kept in the history database.
const historyRetention = 100

type options struct {
	configPath string
	db         string
	debug      bool

	autocorrect    bool
	dryRun         bool
	diff           bool
	format         string
	only           []string
	except         []string
	jobs           int
	cache          bool
	followSymlinks bool
}

func (o options) mode() core.Mode {
	switch {
	case o.dryRun:
		return core.ModeDryRun
	case o.autocorrect:
		return core.ModeAutocorrect
	default:
		return core.ModeCheck
	}
}

func bindCheckFlags(cmd *cobra.Command, opts *options) {
	f := cmd.Flags()
	f.BoolVarP(&opts.autocorrect, "autocorrect", "a", false, "Correct offenses in place")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Correct in memory and show the diff without writing files")
	f.BoolVar(&opts.diff, "diff", false, "Print a unified diff of every corrected file")
	f.StringVarP(&opts.format, "format", "f", "progress", "Output format: progress, clang, json, quiet")
	f.StringSliceVar(&opts.only, "only", nil, "Run only the given cops")
	f.StringSliceVar(&opts.except, "except", nil, "Skip the given cops")
	f.IntVarP(&opts.jobs, "jobs", "j", 0, "Files inspected in parallel (0 = number of CPUs)")
	f.BoolVar(&opts.cache, "cache", true, "Reuse results of unchanged files in check mode")
	f.BoolVar(&opts.followSymlinks, "follow-symlinks", false, "Follow symbolic links while walking directories")
}

func (a *app) loadCops() (*config.Config, *cops.Set, error) {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return nil, nil, wrap(ErrInvalidConfig, "failed to load configuration", err)
	}

	set, err := cops.Build(cfg, cops.Selection{Only: a.opts.only, Except: a.opts.except})
	if err != nil {
		if errors.Is(err, config.ErrUnknownCop) {
			return nil, nil, wrap(ErrUnknownCop, "invalid cop selection", err)
		}
		return nil, nil, wrap(ErrInvalidConfig, "invalid configuration", err)
	}
	return cfg, set, nil
}

func (a *app) runCheck(cmd *cobra.Command, args []string) error {
	started := time.Now()
	opts := a.opts

	out, err := formatter.New(opts.format, formatter.Options{
		Color: a.colorEnabled(a.stdout),
		Diff:  opts.diff || opts.mode() == core.ModeDryRun,
	})
	if err != nil {
		return wrap(ErrInvalidFormat, "invalid --format", err)
	}

	cfg, set, err := a.loadCops()
	if err != nil {
		return err
	}
	a.debugLog("cops: %v", set.Names())

	parser := ruby.New()
	registry := providers.NewRegistry()
	registry.Register(parser)

	scope := core.FileScope{
		Include:        cfg.AllCops.Include,
		Exclude:        cfg.AllCops.Exclude,
		FollowSymlinks: opts.followSymlinks,
	}
	if len(scope.Include) == 0 {
		scope.Include = catalog.DefaultIncludes()
	}

	root, err := os.Getwd()
	if err != nil {
		return wrap(ErrIO, "failed to get working directory", err)
	}

	rc := core.RunnerConfig{
		Mode:         opts.mode(),
		Jobs:         opts.jobs,
		Diff:         opts.diff,
		Debug:        opts.debug,
		Root:         root,
		ConfigDigest: cfg.Digest(),
	}
	if opts.cache && rc.Mode == core.ModeCheck && a.env.CacheDir != "" {
		cache, err := core.OpenResultCache(a.env.CacheDir)
		if err != nil {
			a.debugLog("result cache disabled: %v", err)
		} else {
			rc.Cache = cache
		}
	}

	runner := core.NewRunner(registry, set, rc)
	defer runner.Cleanup()

	result, err := runner.Run(cmd.Context(), args, scope)
	if err != nil {
		return wrap(ErrIO, "run failed", err)
	}
	a.debugLog("run finished: %d files, %d offenses, %d corrected",
		result.Summary.Files, result.Summary.Offenses, result.Summary.Corrected)
	stats := parser.Stats()
	a.debugLog("parser pool: %d borrowed, %d returned, %d active",
		stats.BorrowCount, stats.ReturnCount, stats.Active)

	if err := out.Format(a.stdout, result); err != nil {
		return wrap(ErrIO, "failed to write output", err)
	}

	if opts.db != "" {
		a.record(cmd, result, db.RunMeta{
			Root:         root,
			Paths:        args,
			ConfigDigest: rc.ConfigDigest,
			StartedAt:    started,
		})
	}

	a.exitCode = exitCodeFor(result)
	return nil
}

// record stores the run in the history database. Failures only warn.
func (a *app) record(cmd *cobra.Command, result *core.RunResult, meta db.RunMeta) {
	conn, err := db.Connect(a.opts.db, a.env.LibsqlToken, a.opts.debug)
	if err != nil {
		a.warn("run history not recorded: %v", err)
		return
	}
	defer db.Close(conn)

	run, err := db.RecordRun(cmd.Context(), conn, result, meta)
	if err != nil {
		a.warn("run history not recorded: %v", err)
		return
	}
	a.debugLog("recorded run %s", run.ID)

	if removed, err := db.Prune(cmd.Context(), conn, historyRetention); err != nil {
		a.warn("history pruning failed: %v", err)
	} else if removed > 0 {
		a.debugLog("pruned %d old runs", removed)
	}
}

func exitCodeFor(result *core.RunResult) int {
	if result.Summary.FilesWithError > 0 {
		return exitError
	}
	remaining := result.Summary.Offenses
	if result.Mode == core.ModeAutocorrect {
		remaining = result.Uncorrected()
	}
	if remaining > 0 {
		return exitOffenses
	}
	return exitOK
}
