package models

import (
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func TestTableNames(t *testing.T) {
	assert.Equal(t, "runs", Run{}.TableName())
	assert.Equal(t, "file_results", FileResult{}.TableName())
	assert.Equal(t, "offense_records", OffenseRecord{}.TableName())
}

func TestRunModel(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	started := time.Now().Add(-time.Second)
	run := Run{
		Mode:         "autocorrect",
		Root:         "/src/app",
		Paths:        datatypes.JSON(`["spec"]`),
		Cops:         datatypes.JSON(`["RSpec/MatchArray"]`),
		ConfigDigest: "abc123",
		Files:        2,
		Offenses:     3,
		Corrected:    1,
		StartedAt:    started,
		FinishedAt:   time.Now(),
		Results: []FileResult{
			{
				Path:      "spec/a_spec.rb",
				Offenses:  2,
				Corrected: 1,
				Modified:  true,
				Records: []OffenseRecord{
					{CopName: "RSpec/MatchArray", Message: "m1", Line: 3, Column: 4, Correctable: true, Corrected: true},
					{CopName: "RSpec/ExampleWithoutExpectation", Message: "m2", Line: 7, Column: 2},
				},
			},
			{Path: "spec/b_spec.rb", Error: "syntax error"},
		},
	}
	require.NoError(t, db.Create(&run).Error)

	_, err := uuid.Parse(run.ID)
	require.NoError(t, err, "run ID is a UUID")
	for _, fr := range run.Results {
		assert.Equal(t, run.ID, fr.RunID)
		_, err := uuid.Parse(fr.ID)
		assert.NoError(t, err)
	}

	var loaded Run
	err = db.Preload("Results", func(tx *gorm.DB) *gorm.DB {
		return tx.Order("path")
	}).Preload("Results.Records").First(&loaded, "id = ?", run.ID).Error
	require.NoError(t, err)

	assert.Equal(t, "autocorrect", loaded.Mode)
	assert.JSONEq(t, `["RSpec/MatchArray"]`, string(loaded.Cops))
	assert.False(t, loaded.CreatedAt.IsZero())
	require.Len(t, loaded.Results, 2)
	assert.Equal(t, "spec/a_spec.rb", loaded.Results[0].Path)
	assert.True(t, loaded.Results[0].Modified)
	assert.Len(t, loaded.Results[0].Records, 2)
	assert.Equal(t, "syntax error", loaded.Results[1].Error)
	assert.Empty(t, loaded.Results[1].Records)
}

func TestExplicitIDsAreKept(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	run := Run{ID: "run-001", Mode: "check"}
	require.NoError(t, db.Create(&run).Error)
	assert.Equal(t, "run-001", run.ID)

	var count int64
	require.NoError(t, db.Model(&Run{}).Where("id = ?", "run-001").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestRequiredFields(t *testing.T) {
	db := setupTestDB(t)
	defer cleanupTestDB(db)

	err := db.Create(&FileResult{RunID: "missing"}).Error
	assert.Error(t, err, "file results need an existing run")
}

// Helper functions

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:?_pragma=foreign_keys(1)"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every pooled connection would open its own in-memory database.
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&Run{}, &FileResult{}, &OffenseRecord{})
	require.NoError(t, err)

	return db
}

func cleanupTestDB(db *gorm.DB) {
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
}
