package store

import (
	"time"

	"carvelens/internal/manifest"
)

// Status tracks the lifecycle of a processing session.
type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ConfigSnapshot captures the settings that shaped a session's results, so a
// later report command reproduces the run's intent.
type ConfigSnapshot struct {
	ReportFormat string `json:"report_format"`
	CopyImages   bool   `json:"copy_images"`
	KeepDatabase bool   `json:"keep_database"`
}

// Session is one processing run over a carver output directory.
type Session struct {
	ID      string
	Status  Status
	Summary manifest.Summary

	Snapshot     ConfigSnapshot
	ErrorMessage string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// FileRecord is one carved file after enrichment: the carver's manifest row
// joined with extraction and hashing outcomes.
type FileRecord struct {
	ID        int64
	SessionID string

	Seq          int
	Name         string
	Type         string
	RelPath      string
	Offset       int64
	ReportedSize int64
	Comment      string

	MeasuredSize int64
	Hash         string
	HashError    string

	Method       string
	MetadataJSON string
	ExtractError string

	CopiedPath string

	CreatedAt time.Time
}

// DuplicateGroup names a set of file records within a session sharing one
// content hash. Members are ordered by carve sequence number.
type DuplicateGroup struct {
	ID        int64
	SessionID string
	Hash      string
	FileIDs   []int64
	CreatedAt time.Time
}
