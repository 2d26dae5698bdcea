package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oxhq/rspecfx/cop"
	"github.com/oxhq/rspecfx/providers"
)

// CopSet is the configured cops of a run.
type CopSet interface {
	Names() []string
	ForFile(path string) []cop.Cop
}

// RunnerConfig tunes a Runner.
type RunnerConfig struct {
	Mode   Mode
	Jobs   int  // Parallel files (0 = NumCPU)
	Diff   bool // Render diffs of corrected files
	Debug  bool
	Atomic AtomicWriteConfig
	// Root relativizes paths for reports and per-cop excludes. Defaults to
	// the working directory.
	Root string
	// Cache is consulted in check mode when set.
	Cache        *ResultCache
	ConfigDigest string
}

// Runner inspects files with the configured cops.
type Runner struct {
	walker    *FileWalker
	providers *providers.Registry
	cops      CopSet
	writer    *AtomicWriter
	config    RunnerConfig
	debugLog  func(format string, args ...any)
}

// NewRunner creates a runner over the given providers and cops
func NewRunner(registry *providers.Registry, cops CopSet, config RunnerConfig) *Runner {
	if config.Jobs <= 0 {
		config.Jobs = runtime.NumCPU()
	}
	if config.Root == "" {
		if wd, err := os.Getwd(); err == nil {
			config.Root = wd
		}
	}
	if config.Atomic.LockTimeout == 0 {
		config.Atomic = DefaultAtomicConfig()
	}

	r := &Runner{
		walker:    NewFileWalker(),
		providers: registry,
		cops:      cops,
		writer:    NewAtomicWriter(config.Atomic),
		config:    config,
	}

	if config.Debug {
		r.debugLog = func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "[DEBUG] "+format+"\n", args...)
		}
	} else {
		r.debugLog = func(format string, args ...any) {}
	}

	return r
}

// Targets resolves command line paths into the files to inspect. Directories
// are walked with scope's patterns; explicit files are always kept when a
// provider handles them.
func (r *Runner) Targets(ctx context.Context, paths []string, scope FileScope) ([]WalkResult, error) {
	if len(paths) == 0 {
		paths = []string{"."}
	}

	seen := make(map[string]struct{})
	var files []WalkResult
	add := func(wr WalkResult) {
		if _, dup := seen[wr.Path]; dup {
			return
		}
		seen[wr.Path] = struct{}{}
		files = append(files, wr)
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("cannot access path %s: %w", p, err)
		}

		if !info.IsDir() {
			wr := WalkResult{Path: filepath.Clean(p), Info: info, Language: DetectLanguage(p)}
			if _, ok := r.providers.Get(wr.Language); ok {
				add(wr)
			}
			continue
		}

		dirScope := scope
		dirScope.Path = p
		found, err := r.walker.Discover(ctx, dirScope)
		if err != nil {
			return nil, fmt.Errorf("failed to walk files: %w", err)
		}
		for _, wr := range found {
			add(wr)
		}
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Run inspects the files under paths.
func (r *Runner) Run(ctx context.Context, paths []string, scope FileScope) (*RunResult, error) {
	start := time.Now()

	files, err := r.Targets(ctx, paths, scope)
	if err != nil {
		return nil, err
	}
	scanDuration := time.Since(start)
	r.debugLog("discovered %d files in %v %v", len(files), scanDuration, languageStats(files))

	reports, err := r.RunFiles(ctx, files)
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Mode:  r.config.Mode,
		Cops:  r.cops.Names(),
		Files: reports,
	}
	result.Summary = summarize(reports)
	result.Summary.ScanDuration = scanDuration.Milliseconds()
	result.Summary.RunDuration = time.Since(start).Milliseconds()
	return result, nil
}

// RunFiles inspects files in parallel. Reports keep the order of files.
func (r *Runner) RunFiles(ctx context.Context, files []WalkResult) ([]FileReport, error) {
	reports := make([]FileReport, len(files))
	if len(files) == 0 {
		return reports, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(r.config.Jobs, len(files)))

	for i, wr := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			reports[i] = r.processFile(gctx, wr)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return reports, nil
}

func (r *Runner) processFile(ctx context.Context, wr WalkResult) FileReport {
	rel := r.relative(wr.Path)
	report := FileReport{Path: rel, Language: wr.Language, Offenses: []cop.Offense{}}
	if wr.Info != nil {
		report.Size = wr.Info.Size()
	}

	provider, ok := r.providers.Get(wr.Language)
	if !ok {
		report.Error = fmt.Sprintf("no provider for language: %s", wr.Language)
		return report
	}

	src, err := os.ReadFile(wr.Path)
	if err != nil {
		report.Error = fmt.Sprintf("failed to read file: %v", err)
		return report
	}

	cops := r.cops.ForFile(rel)
	if len(cops) == 0 {
		report.Source = string(src)
		return report
	}

	if r.config.Mode == ModeCheck {
		return r.check(ctx, provider, wr.Path, rel, src, cops, report)
	}
	return r.correct(ctx, provider, wr.Path, rel, src, cops, report)
}

func (r *Runner) check(ctx context.Context, parser Parser, path, rel string, src []byte, cops []cop.Cop, report FileReport) FileReport {
	report.Source = string(src)

	var key string
	if r.config.Cache != nil {
		key = ResultKey(rel, src, r.config.ConfigDigest, copNames(cops))
		if offenses, hit := r.config.Cache.Get(key); hit {
			r.debugLog("cache hit: %s", rel)
			report.Offenses = append(report.Offenses, offenses...)
			report.Cached = true
			return report
		}
	}

	insp, err := Inspect(ctx, parser, path, src, cops)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	report.Offenses = append(report.Offenses, insp.Offenses...)
	report.Passes = insp.Passes

	if r.config.Cache != nil {
		if err := r.config.Cache.Put(key, insp.Offenses); err != nil {
			r.debugLog("cache write failed for %s: %v", rel, err)
		}
	}
	return report
}

func (r *Runner) correct(ctx context.Context, parser Parser, path, rel string, src []byte, cops []cop.Cop, report FileReport) FileReport {
	report.Source = string(src)

	insp, err := Autocorrect(ctx, parser, path, src, cops)
	if err != nil {
		report.Error = err.Error()
		return report
	}
	r.debugLog("%s: %d offenses, %d corrected in %d passes", rel, len(insp.Offenses), insp.Corrected, insp.Passes)

	report.Offenses = append(report.Offenses, insp.Offenses...)
	report.Corrected = insp.Corrected
	report.Passes = insp.Passes
	report.Source = insp.Source
	report.Modified = insp.Source != string(src)
	if !report.Modified {
		return report
	}

	if r.config.Diff || r.config.Mode == ModeDryRun {
		report.Diff = Diff(rel, string(src), insp.Source)
	}

	if r.config.Mode == ModeAutocorrect {
		backup, err := r.writer.WriteFile(path, []byte(insp.Source))
		if err != nil {
			report.Error = fmt.Sprintf("failed to write file: %v", err)
			return report
		}
		if backup != "" {
			r.debugLog("backup of %s written to %s", rel, backup)
		}
	}
	return report
}

func (r *Runner) relative(path string) string {
	if r.config.Root == "" {
		return filepath.ToSlash(path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(r.config.Root, abs)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// Cleanup releases file locks still held.
func (r *Runner) Cleanup() {
	r.writer.Cleanup()
}

func copNames(cops []cop.Cop) []string {
	names := make([]string, len(cops))
	for i, c := range cops {
		names[i] = c.Name()
	}
	return names
}

func summarize(reports []FileReport) Summary {
	var s Summary
	for _, rep := range reports {
		s.Files++
		if rep.Failed() {
			s.FilesWithError++
		}
		if rep.Modified {
			s.FilesModified++
		}
		if rep.Cached {
			s.Cached++
		}
		s.Offenses += len(rep.Offenses)
		s.Corrected += rep.Corrected
	}
	return s
}
