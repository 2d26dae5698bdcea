package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/oxhq/rspecfx/ast"
	"github.com/oxhq/rspecfx/core"
	"github.com/oxhq/rspecfx/cop"
	"github.com/oxhq/rspecfx/models"
)

func TestConnect(t *testing.T) {
	tests := []struct {
		name          string
		dsn           func(t *testing.T) string
		debug         bool
		expectedError bool
		errorContains string
	}{
		{
			name: "memory database",
			dsn:  func(*testing.T) string { return ":memory:" },
		},
		{
			name:  "memory database with debug",
			dsn:   func(*testing.T) string { return ":memory:" },
			debug: true,
		},
		{
			name: "file database in nested directory",
			dsn: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "nested", "path", "history.db")
			},
		},
		{
			name: "directory cannot be created",
			dsn: func(t *testing.T) string {
				blocker := filepath.Join(t.TempDir(), "file")
				require.NoError(t, os.WriteFile(blocker, nil, 0o644))
				return filepath.Join(blocker, "history.db")
			},
			expectedError: true,
			errorContains: "failed to create database directory",
		},
		{
			name:          "unreachable libsql server",
			dsn:           func(*testing.T) string { return "http://127.0.0.1:19999/db" },
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := Connect(tt.dsn(t), "", tt.debug)
			if tt.expectedError {
				require.Error(t, err)
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
				return
			}
			require.NoError(t, err)
			defer Close(db)

			for _, table := range []string{"runs", "file_results", "offense_records"} {
				assert.True(t, db.Migrator().HasTable(table), table)
			}
		})
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, isURL("libsql://db.turso.io"))
	assert.True(t, isURL("http://127.0.0.1:8080"))
	assert.True(t, isURL("https://db.example.com"))
	assert.False(t, isURL(".rspecfx/history.db"))
	assert.False(t, isURL(":memory:"))
	assert.False(t, isURL("libsql"))
}

func TestWithPragmas(t *testing.T) {
	assert.Equal(t, "a.db?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", withPragmas("a.db"))
	assert.Equal(t, "a.db?mode=ro&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", withPragmas("a.db?mode=ro"))
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := Connect(":memory:", "", false)
	require.NoError(t, err)
	t.Cleanup(func() { Close(db) })
	return db
}

func sampleResult() *core.RunResult {
	return &core.RunResult{
		Mode: core.ModeAutocorrect,
		Cops: []string{"RSpec/ExampleWithoutExpectation", "RSpec/MatchArray"},
		Files: []core.FileReport{
			{
				Path:      "spec/a_spec.rb",
				Corrected: 1,
				Modified:  true,
				Offenses: []cop.Offense{
					{
						CopName:     "RSpec/MatchArray",
						Message:     "Prefer `contain_exactly` when matching an array literal.",
						Range:       ast.NewRange(40, 57),
						Position:    ast.Position{Line: 3, Column: 17},
						Correctable: true,
						Corrected:   true,
					},
					{
						CopName:  "RSpec/ExampleWithoutExpectation",
						Message:  "Example does not have at least one expectation.",
						Position: ast.Position{Line: 6, Column: 2},
					},
				},
			},
			{Path: "spec/b_spec.rb", Offenses: []cop.Offense{}, Error: "syntax error"},
		},
		Summary: core.Summary{Files: 2, FilesWithError: 1, FilesModified: 1, Offenses: 2, Corrected: 1, RunDuration: 42},
	}
}

func TestRecordRun(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	started := time.Now().Add(-time.Minute)
	run, err := RecordRun(ctx, db, sampleResult(), RunMeta{
		Root:         "/src/app",
		Paths:        []string{"spec"},
		ConfigDigest: "digest",
		StartedAt:    started,
	})
	require.NoError(t, err)
	_, err = uuid.Parse(run.ID)
	require.NoError(t, err)

	loaded, err := LoadRun(ctx, db, run.ID)
	require.NoError(t, err)

	assert.Equal(t, "autocorrect", loaded.Mode)
	assert.Equal(t, "/src/app", loaded.Root)
	assert.JSONEq(t, `["spec"]`, string(loaded.Paths))
	assert.JSONEq(t, `["RSpec/ExampleWithoutExpectation", "RSpec/MatchArray"]`, string(loaded.Cops))
	assert.Equal(t, 2, loaded.Files)
	assert.Equal(t, 1, loaded.FilesWithError)
	assert.Equal(t, 2, loaded.Offenses)
	assert.Equal(t, 1, loaded.Corrected)
	assert.Equal(t, int64(42), loaded.DurationMS)
	assert.WithinDuration(t, started, loaded.StartedAt, time.Second)

	require.Len(t, loaded.Results, 2)
	a := loaded.Results[0]
	assert.Equal(t, "spec/a_spec.rb", a.Path)
	assert.True(t, a.Modified)
	require.Len(t, a.Records, 2)
	assert.Equal(t, "RSpec/MatchArray", a.Records[0].CopName)
	assert.Equal(t, 3, a.Records[0].Line)
	assert.Equal(t, 18, a.Records[0].Column)
	assert.True(t, a.Records[0].Corrected)
	assert.Equal(t, 6, a.Records[1].Line)

	assert.Equal(t, "syntax error", loaded.Results[1].Error)
	assert.Empty(t, loaded.Results[1].Records)
}

func TestLoadRun(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Run{ID: "aaaa-1", Mode: "check"}).Error)
	require.NoError(t, db.Create(&models.Run{ID: "aaaa-2", Mode: "check"}).Error)
	require.NoError(t, db.Create(&models.Run{ID: "bbbb-1", Mode: "check"}).Error)

	run, err := LoadRun(ctx, db, "bbbb")
	require.NoError(t, err)
	assert.Equal(t, "bbbb-1", run.ID)

	_, err = LoadRun(ctx, db, "aaaa")
	assert.ErrorContains(t, err, "ambiguous")

	_, err = LoadRun(ctx, db, "cccc")
	assert.ErrorIs(t, err, ErrRunNotFound)
}

func TestLoadRun_LiteralPrefix(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Run{ID: "aaaa-1", Mode: "check"}).Error)
	require.NoError(t, db.Create(&models.Run{ID: "dd_d-1", Mode: "check"}).Error)
	require.NoError(t, db.Create(&models.Run{ID: `ee\e-1`, Mode: "check"}).Error)

	for _, id := range []string{"", "%", "_", "aaa_", "a%", `\`} {
		t.Run(id, func(t *testing.T) {
			_, err := LoadRun(ctx, db, id)
			assert.ErrorIs(t, err, ErrRunNotFound)
		})
	}

	run, err := LoadRun(ctx, db, "dd_")
	require.NoError(t, err)
	assert.Equal(t, "dd_d-1", run.ID)

	run, err = LoadRun(ctx, db, `ee\`)
	require.NoError(t, err)
	assert.Equal(t, `ee\e-1`, run.ID)
}

func TestRecentAndPrune(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	var ids []string
	for i := range 5 {
		run, err := RecordRun(ctx, db, sampleResult(), RunMeta{StartedAt: base.Add(time.Duration(i) * time.Minute)})
		require.NoError(t, err)
		ids = append(ids, run.ID)
	}

	recent, err := Recent(ctx, db, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, ids[4], recent[0].ID)
	assert.Equal(t, ids[2], recent[2].ID)
	assert.Empty(t, recent[0].Results, "files are not loaded")

	removed, err := Prune(ctx, db, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), removed)

	all, err := Recent(ctx, db, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, ids[4], all[0].ID)
	assert.Equal(t, ids[3], all[1].ID)

	var files, records int64
	require.NoError(t, db.Model(&models.FileResult{}).Count(&files).Error)
	require.NoError(t, db.Model(&models.OffenseRecord{}).Count(&records).Error)
	assert.Equal(t, int64(4), files)
	assert.Equal(t, int64(4), records)

	removed, err = Prune(ctx, db, 10)
	require.NoError(t, err)
	assert.Zero(t, removed)
}
