package core

import (
	"github.com/oxhq/rspecfx/cop"
)

// FileScope defines which files a run inspects.
type FileScope struct {
	Path           string   `json:"path"`                // Root path to scan
	Include        []string `json:"include,omitempty"`   // Patterns relative to Path (**/*_spec.rb)
	Exclude        []string `json:"exclude,omitempty"`   // Patterns relative to Path
	MaxDepth       int      `json:"max_depth,omitempty"` // Max directory depth (0 = unlimited)
	MaxFiles       int      `json:"max_files,omitempty"` // Max files to inspect (0 = unlimited)
	FollowSymlinks bool     `json:"follow_symlinks"`     // Follow symbolic links
}

// Mode selects what a run does with the offenses it finds.
type Mode int

const (
	// ModeCheck only reports.
	ModeCheck Mode = iota
	// ModeAutocorrect rewrites files in place.
	ModeAutocorrect
	// ModeDryRun corrects in memory and reports the diff.
	ModeDryRun
)

func (m Mode) String() string {
	switch m {
	case ModeAutocorrect:
		return "autocorrect"
	case ModeDryRun:
		return "dry-run"
	default:
		return "check"
	}
}

// FileReport is the outcome of inspecting one file.
type FileReport struct {
	Path      string        `json:"path" msgpack:"path"`
	Language  string        `json:"language,omitempty" msgpack:"-"`
	Offenses  []cop.Offense `json:"offenses" msgpack:"offenses"`
	Corrected int           `json:"corrected,omitempty" msgpack:"-"`
	Modified  bool          `json:"modified,omitempty" msgpack:"-"`
	Passes    int           `json:"passes,omitempty" msgpack:"-"`
	Diff      string        `json:"diff,omitempty" msgpack:"-"`
	Cached    bool          `json:"cached,omitempty" msgpack:"-"`
	Error     string        `json:"error,omitempty" msgpack:"-"`
	Size      int64         `json:"size" msgpack:"-"`

	// Source is the final text, corrected when the mode allows it.
	Source string `json:"-" msgpack:"-"`
}

// Failed reports a file that could not be inspected.
func (r *FileReport) Failed() bool { return r.Error != "" }

// Summary aggregates a run.
type Summary struct {
	Files          int   `json:"files"`
	FilesWithError int   `json:"files_with_error"`
	FilesModified  int   `json:"files_modified"`
	Offenses       int   `json:"offenses"`
	Corrected      int   `json:"corrected"`
	Cached         int   `json:"cached"`
	ScanDuration   int64 `json:"scan_duration_ms"`
	RunDuration    int64 `json:"run_duration_ms"`
}

// RunResult is the outcome of a run over a file scope.
type RunResult struct {
	Mode    Mode         `json:"-"`
	Cops    []string     `json:"cops"`
	Files   []FileReport `json:"files"`
	Summary Summary      `json:"summary"`
}

// Uncorrected counts offenses left in the files after the run.
func (r *RunResult) Uncorrected() int {
	return r.Summary.Offenses - r.Summary.Corrected
}
