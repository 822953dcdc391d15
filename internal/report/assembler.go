package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"carvelens/internal/store"
)

// topLargestCount bounds the largest-files list in the summary.
const topLargestCount = 10

// AssemblyError reports a session that cannot be turned into a report:
// unknown, still running, or failed before its records were committed.
type AssemblyError struct {
	SessionID string
	Reason    string
	Err       error
}

func (e *AssemblyError) Error() string {
	return fmt.Sprintf("cannot assemble report for session %s: %s", e.SessionID, e.Reason)
}

func (e *AssemblyError) Unwrap() error { return e.Err }

// Assembler builds report models from persisted sessions.
type Assembler struct {
	store store.Port
}

// NewAssembler constructs an assembler over a persistence port.
func NewAssembler(port store.Port) *Assembler {
	return &Assembler{store: port}
}

var typeTitler = cases.Title(language.English)

// Assemble loads a session and produces its full report model. Only
// completed sessions are reportable; unknown, running, and failed ones all
// yield an AssemblyError.
func (a *Assembler) Assemble(ctx context.Context, sessionID string) (*Model, error) {
	session, err := a.store.GetSession(ctx, sessionID)
	if errors.Is(err, store.ErrSessionNotFound) {
		return nil, &AssemblyError{SessionID: sessionID, Reason: "session does not exist", Err: err}
	}
	if err != nil {
		return nil, err
	}
	if session.Status != store.StatusCompleted {
		reason := fmt.Sprintf("session is %s", session.Status)
		if session.ErrorMessage != "" {
			reason = fmt.Sprintf("%s (%s)", reason, session.ErrorMessage)
		}
		return nil, &AssemblyError{SessionID: sessionID, Reason: reason}
	}

	records, err := a.store.ListFileRecords(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	groups, err := a.store.ListDuplicateGroups(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	model := &Model{
		Session: sessionInfo(session),
		Files:   make([]File, 0, len(records)),
	}

	groupByFileID := make(map[int64]int64)
	recordByID := make(map[int64]*store.FileRecord, len(records))
	for _, record := range records {
		recordByID[record.ID] = record
	}
	for _, group := range groups {
		modelGroup := DuplicateGroup{ID: group.ID, Hash: group.Hash}
		for _, fileID := range group.FileIDs {
			groupByFileID[fileID] = group.ID
			if record, ok := recordByID[fileID]; ok {
				modelGroup.Files = append(modelGroup.Files, record.Seq)
				modelGroup.Names = append(modelGroup.Names, record.Name)
			}
		}
		model.DuplicateGroups = append(model.DuplicateGroups, modelGroup)
	}

	for _, record := range records {
		file := File{
			Seq:          record.Seq,
			Name:         record.Name,
			Type:         record.Type,
			RelPath:      record.RelPath,
			Offset:       record.Offset,
			ReportedSize: record.ReportedSize,
			MeasuredSize: record.MeasuredSize,
			Hash:         record.Hash,
			HashError:    record.HashError,
			Method:       record.Method,
			ExtractError: record.ExtractError,
			CopiedPath:   record.CopiedPath,
			Comment:      record.Comment,
		}
		if record.MetadataJSON != "" {
			var metadata map[string]any
			if err := json.Unmarshal([]byte(record.MetadataJSON), &metadata); err == nil {
				file.Metadata = metadata
			}
		}
		if groupID, ok := groupByFileID[record.ID]; ok {
			id := groupID
			file.GroupID = &id
		}
		model.Files = append(model.Files, file)
	}

	model.Summary = summarize(records, groups)
	return model, nil
}

func sessionInfo(session *store.Session) SessionInfo {
	info := SessionInfo{
		ID:                session.ID,
		Status:            string(session.Status),
		ImageName:         session.Summary.ImageName,
		ImageSizeBytes:    session.Summary.ImageSizeBytes,
		OutputDir:         session.Summary.OutputDir,
		Invocation:        session.Summary.Invocation,
		CarverVersion:     session.Summary.CarverVersion,
		ReportedFileTotal: session.Summary.ReportedFileTotal,
		Config:            session.Snapshot,
		GeneratedAt:       time.Now().UTC(),
	}
	if !session.Summary.ScanStart.IsZero() {
		start := session.Summary.ScanStart
		info.ScanStart = &start
	}
	if !session.Summary.ScanEnd.IsZero() {
		end := session.Summary.ScanEnd
		info.ScanEnd = &end
	}
	return info
}

func summarize(records []*store.FileRecord, groups []*store.DuplicateGroup) Stats {
	stats := Stats{
		FileCount:           len(records),
		DuplicateGroupCount: len(groups),
	}

	typeCounts := make(map[string]int)
	for _, record := range records {
		typeCounts[record.Type]++
		stats.TotalMeasuredBytes += record.MeasuredSize
		if record.ExtractError != "" {
			stats.FailedExtractionCount++
		}
		if record.HashError != "" {
			stats.FailedHashCount++
		}
	}

	for fileType, count := range typeCounts {
		stats.TypeCounts = append(stats.TypeCounts, TypeCount{
			Type:  fileType,
			Label: typeTitler.String(fileType),
			Count: count,
		})
	}
	sort.Slice(stats.TypeCounts, func(i, j int) bool {
		if stats.TypeCounts[i].Count != stats.TypeCounts[j].Count {
			return stats.TypeCounts[i].Count > stats.TypeCounts[j].Count
		}
		return stats.TypeCounts[i].Type < stats.TypeCounts[j].Type
	})

	for _, group := range groups {
		stats.DuplicateFileCount += len(group.FileIDs)
	}

	bySize := append([]*store.FileRecord(nil), records...)
	sort.SliceStable(bySize, func(i, j int) bool {
		if bySize[i].MeasuredSize != bySize[j].MeasuredSize {
			return bySize[i].MeasuredSize > bySize[j].MeasuredSize
		}
		return bySize[i].Seq < bySize[j].Seq
	})
	limit := min(topLargestCount, len(bySize))
	for _, record := range bySize[:limit] {
		stats.LargestFiles = append(stats.LargestFiles, Largest{
			Seq:          record.Seq,
			Name:         record.Name,
			Type:         record.Type,
			MeasuredSize: record.MeasuredSize,
		})
	}
	return stats
}
