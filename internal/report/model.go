// Package report turns a persisted session into the presentation model the
// CLI renders and the JSON report file serializes.
package report

import (
	"time"

	"carvelens/internal/store"
)

// Model is the complete report for one session.
type Model struct {
	Session         SessionInfo      `json:"session"`
	Summary         Stats            `json:"summary"`
	Files           []File           `json:"files"`
	DuplicateGroups []DuplicateGroup `json:"duplicate_groups"`
}

// SessionInfo carries the run-level facts of the session being reported.
type SessionInfo struct {
	ID                string               `json:"id"`
	Status            string               `json:"status"`
	ImageName         string               `json:"image_name"`
	ImageSizeBytes    int64                `json:"image_size_bytes"`
	OutputDir         string               `json:"output_dir"`
	Invocation        string               `json:"invocation,omitempty"`
	CarverVersion     string               `json:"carver_version,omitempty"`
	ScanStart         *time.Time           `json:"scan_start,omitempty"`
	ScanEnd           *time.Time           `json:"scan_end,omitempty"`
	ReportedFileTotal int                  `json:"reported_file_total"`
	Config            store.ConfigSnapshot `json:"config"`
	GeneratedAt       time.Time            `json:"generated_at"`
}

// File is one carved file in presentation form, ordered by carve sequence.
type File struct {
	Seq          int    `json:"seq"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	RelPath      string `json:"rel_path"`
	Offset       int64  `json:"offset"`
	ReportedSize int64  `json:"reported_size"`
	MeasuredSize int64  `json:"measured_size"`
	Hash         string         `json:"hash,omitempty"`
	HashError    string         `json:"hash_error,omitempty"`
	Method       string         `json:"method"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	ExtractError string         `json:"extract_error,omitempty"`
	CopiedPath   string `json:"copied_path,omitempty"`
	Comment      string `json:"comment,omitempty"`
	// GroupID points at the duplicate group this file belongs to, if any.
	GroupID *int64 `json:"duplicate_group_id,omitempty"`
}

// DuplicateGroup is one set of identical-content files.
type DuplicateGroup struct {
	ID    int64    `json:"id"`
	Hash  string   `json:"hash"`
	Files []int    `json:"file_seqs"`
	Names []string `json:"file_names"`
}

// Stats aggregates the session for at-a-glance presentation.
type Stats struct {
	FileCount             int         `json:"file_count"`
	TotalMeasuredBytes    int64       `json:"total_measured_bytes"`
	TypeCounts            []TypeCount `json:"type_counts"`
	LargestFiles          []Largest   `json:"largest_files"`
	DuplicateGroupCount   int         `json:"duplicate_group_count"`
	DuplicateFileCount    int         `json:"duplicate_file_count"`
	FailedExtractionCount int         `json:"failed_extraction_count"`
	FailedHashCount       int         `json:"failed_hash_count"`
}

// TypeCount is the number of carved files of one type.
type TypeCount struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// Largest names one of the biggest recovered files by measured size.
type Largest struct {
	Seq          int    `json:"seq"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	MeasuredSize int64  `json:"measured_size"`
}
