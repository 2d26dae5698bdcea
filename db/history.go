package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/oxhq/rspecfx/core"
	"github.com/oxhq/rspecfx/models"
)

// ErrRunNotFound is returned when no recorded run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// RunMeta describes the invocation behind a run result.
type RunMeta struct {
	Root         string
	Paths        []string
	ConfigDigest string
	StartedAt    time.Time
}

// RecordRun stores result with one row per file and per offense.
func RecordRun(ctx context.Context, db *gorm.DB, result *core.RunResult, meta RunMeta) (*models.Run, error) {
	paths, err := json.Marshal(meta.Paths)
	if err != nil {
		return nil, fmt.Errorf("RecordRun: %w", err)
	}
	cops, err := json.Marshal(result.Cops)
	if err != nil {
		return nil, fmt.Errorf("RecordRun: %w", err)
	}

	s := result.Summary
	run := &models.Run{
		Mode:           result.Mode.String(),
		Root:           meta.Root,
		Paths:          datatypes.JSON(paths),
		Cops:           datatypes.JSON(cops),
		ConfigDigest:   meta.ConfigDigest,
		Files:          s.Files,
		FilesWithError: s.FilesWithError,
		FilesModified:  s.FilesModified,
		Offenses:       s.Offenses,
		Corrected:      s.Corrected,
		Cached:         s.Cached,
		DurationMS:     s.RunDuration,
		StartedAt:      meta.StartedAt,
		FinishedAt:     time.Now(),
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = run.FinishedAt.Add(-time.Duration(s.RunDuration) * time.Millisecond)
	}

	for _, report := range result.Files {
		fr := models.FileResult{
			Path:      report.Path,
			Offenses:  len(report.Offenses),
			Corrected: report.Corrected,
			Modified:  report.Modified,
			Cached:    report.Cached,
			Error:     report.Error,
		}
		for _, off := range report.Offenses {
			fr.Records = append(fr.Records, models.OffenseRecord{
				CopName:     off.CopName,
				Message:     off.Message,
				Line:        off.Position.Line,
				Column:      off.Position.Column + 1,
				Correctable: off.Correctable,
				Corrected:   off.Corrected,
			})
		}
		run.Results = append(run.Results, fr)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(run).Error
	})
	if err != nil {
		return nil, fmt.Errorf("RecordRun insert: %w", err)
	}
	return run, nil
}

// Recent returns the latest runs, newest first, without their files.
func Recent(ctx context.Context, db *gorm.DB, limit int) ([]models.Run, error) {
	var runs []models.Run
	q := db.WithContext(ctx).Order("started_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("Recent: %w", err)
	}
	return runs, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// LoadRun returns one run with its files and offenses. id may be a unique
// prefix of the run ID; it is matched literally.
func LoadRun(ctx context.Context, db *gorm.DB, id string) (*models.Run, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: empty id", ErrRunNotFound)
	}

	var runs []models.Run
	err := db.WithContext(ctx).
		Preload("Results", func(tx *gorm.DB) *gorm.DB { return tx.Order("path") }).
		Preload("Results.Records", func(tx *gorm.DB) *gorm.DB { return tx.Order("line, \"column\"") }).
		Where(`id LIKE ? ESCAPE '\'`, likeEscaper.Replace(id)+"%").
		Limit(2).
		Find(&runs).Error
	if err != nil {
		return nil, fmt.Errorf("LoadRun: %w", err)
	}

	switch len(runs) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
		return &runs[0], nil
	default:
		return nil, fmt.Errorf("LoadRun: ambiguous run id prefix %q", id)
	}
}

// Prune deletes all but the keep most recent runs and returns how many runs
// were removed.
func Prune(ctx context.Context, db *gorm.DB, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}

	var removed int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var stale []string
		err := tx.Model(&models.Run{}).
			Order("started_at DESC").
			Offset(keep).
			Limit(-1).
			Pluck("id", &stale).Error
		if err != nil {
			return err
		}
		if len(stale) == 0 {
			return nil
		}

		files := tx.Model(&models.FileResult{}).Select("id").Where("run_id IN ?", stale)
		if err := tx.Where("file_result_id IN (?)", files).Delete(&models.OffenseRecord{}).Error; err != nil {
			return err
		}
		if err := tx.Where("run_id IN ?", stale).Delete(&models.FileResult{}).Error; err != nil {
			return err
		}
		res := tx.Where("id IN ?", stale).Delete(&models.Run{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("Prune: %w", err)
	}
	return removed, nil
}
