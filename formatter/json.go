package formatter

import (
	"encoding/json"
	"io"

	"github.com/oxhq/rspecfx/core"
)

// JSON writes the run in RuboCop's JSON layout.
type JSON struct{}

type jsonOutput struct {
	Metadata jsonMetadata `json:"metadata"`
	Files    []jsonFile   `json:"files"`
	Summary  jsonSummary  `json:"summary"`
}

type jsonMetadata struct {
	Mode string   `json:"mode"`
	Cops []string `json:"cops"`
}

type jsonFile struct {
	Path     string        `json:"path"`
	Offenses []jsonOffense `json:"offenses"`
	Modified bool          `json:"modified,omitempty"`
	Cached   bool          `json:"cached,omitempty"`
	Diff     string        `json:"diff,omitempty"`
	Error    string        `json:"error,omitempty"`
}

type jsonOffense struct {
	Severity    string       `json:"severity"`
	Message     string       `json:"message"`
	CopName     string       `json:"cop_name"`
	Corrected   bool         `json:"corrected"`
	Correctable bool         `json:"correctable"`
	Location    jsonLocation `json:"location"`
}

type jsonLocation struct {
	StartLine   int `json:"start_line"`
	StartColumn int `json:"start_column"`
	Length      int `json:"length"`
	Offset      int `json:"offset"`
}

type jsonSummary struct {
	OffenseCount       int   `json:"offense_count"`
	CorrectedCount     int   `json:"corrected_count"`
	TargetFileCount    int   `json:"target_file_count"`
	InspectedFileCount int   `json:"inspected_file_count"`
	ErrorFileCount     int   `json:"error_file_count"`
	ModifiedFileCount  int   `json:"modified_file_count"`
	DurationMS         int64 `json:"duration_ms"`
}

func (JSON) Format(w io.Writer, result *core.RunResult) error {
	out := jsonOutput{
		Metadata: jsonMetadata{Mode: result.Mode.String(), Cops: result.Cops},
		Files:    make([]jsonFile, 0, len(result.Files)),
		Summary: jsonSummary{
			OffenseCount:       result.Summary.Offenses,
			CorrectedCount:     result.Summary.Corrected,
			TargetFileCount:    result.Summary.Files,
			InspectedFileCount: result.Summary.Files - result.Summary.FilesWithError,
			ErrorFileCount:     result.Summary.FilesWithError,
			ModifiedFileCount:  result.Summary.FilesModified,
			DurationMS:         result.Summary.RunDuration,
		},
	}
	if out.Metadata.Cops == nil {
		out.Metadata.Cops = []string{}
	}

	for _, report := range result.Files {
		file := jsonFile{
			Path:     report.Path,
			Offenses: make([]jsonOffense, 0, len(report.Offenses)),
			Modified: report.Modified,
			Cached:   report.Cached,
			Diff:     report.Diff,
			Error:    report.Error,
		}
		for _, off := range report.Offenses {
			file.Offenses = append(file.Offenses, jsonOffense{
				Severity:    "convention",
				Message:     off.Message,
				CopName:     off.CopName,
				Corrected:   off.Corrected,
				Correctable: off.Correctable,
				Location: jsonLocation{
					StartLine:   off.Position.Line,
					StartColumn: off.Position.Column + 1,
					Length:      off.Range.Len(),
					Offset:      off.Range.Begin,
				},
			})
		}
		out.Files = append(out.Files, file)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
