package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Run is one recorded invocation of rspecfx
type Run struct {
	ID string `gorm:"primaryKey;type:varchar(36)"`

	// Invocation
	Mode         string         `gorm:"type:varchar(20);not null"` // check, autocorrect, dry-run
	Root         string         `gorm:"type:varchar(1024)"`
	Paths        datatypes.JSON `gorm:"type:jsonb"`
	Cops         datatypes.JSON `gorm:"type:jsonb"`
	ConfigDigest string         `gorm:"type:varchar(64)"` // SHA256 of the effective configuration

	// Summary
	Files          int `gorm:"default:0"`
	FilesWithError int `gorm:"default:0"`
	FilesModified  int `gorm:"default:0"`
	Offenses       int `gorm:"default:0"`
	Corrected      int `gorm:"default:0"`
	Cached         int `gorm:"default:0"`
	DurationMS     int64

	StartedAt  time.Time `gorm:"index"`
	FinishedAt time.Time
	CreatedAt  time.Time `gorm:"autoCreateTime"`

	// Relationships
	Results []FileResult `gorm:"foreignKey:RunID;constraint:OnDelete:CASCADE"`
}

// FileResult is the outcome of one file within a run
type FileResult struct {
	ID    string `gorm:"primaryKey;type:varchar(36)"`
	RunID string `gorm:"type:varchar(36);index;not null"`

	Path      string `gorm:"type:varchar(1024);not null"`
	Offenses  int    `gorm:"default:0"`
	Corrected int    `gorm:"default:0"`
	Modified  bool   `gorm:"default:false"`
	Cached    bool   `gorm:"default:false"`
	Error     string `gorm:"type:text"`

	// Relationships
	Records []OffenseRecord `gorm:"foreignKey:FileResultID;constraint:OnDelete:CASCADE"`
}

// OffenseRecord is a single reported offense
type OffenseRecord struct {
	ID           string `gorm:"primaryKey;type:varchar(36)"`
	FileResultID string `gorm:"type:varchar(36);index;not null"`

	CopName     string `gorm:"type:varchar(100);index;not null"`
	Message     string `gorm:"type:text"`
	Line        int
	Column      int
	Correctable bool `gorm:"default:false"`
	Corrected   bool `gorm:"default:false"`
}

// BeforeCreate assigns a random ID when none is set.
func (r *Run) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func (f *FileResult) BeforeCreate(*gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}

func (o *OffenseRecord) BeforeCreate(*gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

// TableName customizations for cleaner names
func (Run) TableName() string           { return "runs" }
func (FileResult) TableName() string    { return "file_results" }
func (OffenseRecord) TableName() string { return "offense_records" }
