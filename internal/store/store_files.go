package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const insertFileSQL = `INSERT INTO file_records (
    session_id, seq, name, file_type, rel_path, byte_offset, reported_size,
    measured_size, hash, hash_error, method, metadata_json, extract_error,
    copied_path, comment, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

func fileInsertArgs(record *FileRecord, timestamp string) []any {
	return []any{
		record.SessionID,
		record.Seq,
		record.Name,
		record.Type,
		record.RelPath,
		record.Offset,
		record.ReportedSize,
		record.MeasuredSize,
		nullableString(record.Hash),
		nullableString(record.HashError),
		record.Method,
		nullableString(record.MetadataJSON),
		nullableString(record.ExtractError),
		nullableString(record.CopiedPath),
		nullableString(record.Comment),
		timestamp,
	}
}

// AddFileRecord inserts a single enriched file record and backfills its
// generated identifier.
func (s *Store) AddFileRecord(ctx context.Context, record *FileRecord) error {
	if record == nil {
		return errors.New("file record is nil")
	}
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.execWithRetry(ctx, insertFileSQL, fileInsertArgs(record, timestamp)...)
	if err != nil {
		return fmt.Errorf("insert file record: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	record.ID = id
	return nil
}

// AddFileRecords inserts a batch of file records in one transaction. Either
// the whole batch commits or none of it does; identifiers are backfilled on
// success.
func (s *Store) AddFileRecords(ctx context.Context, records []*FileRecord) error {
	if len(records) == 0 {
		return nil
	}
	ctx = ensureContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin insert tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertFileSQL)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	ids := make([]int64, len(records))
	for i, record := range records {
		if record == nil {
			return errors.New("file record is nil")
		}
		res, err := stmt.ExecContext(ctx, fileInsertArgs(record, timestamp)...)
		if err != nil {
			return fmt.Errorf("insert file record seq %d: %w", record.Seq, err)
		}
		if ids[i], err = res.LastInsertId(); err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit insert: %w", err)
	}
	for i, record := range records {
		record.ID = ids[i]
	}
	return nil
}

// SetCopiedPath records where a file's image copy landed.
func (s *Store) SetCopiedPath(ctx context.Context, fileID int64, copiedPath string) error {
	if err := s.execWithoutResultRetry(
		ctx,
		`UPDATE file_records SET copied_path = ? WHERE id = ?`,
		nullableString(copiedPath),
		fileID,
	); err != nil {
		return fmt.Errorf("set copied path: %w", err)
	}
	return nil
}

// ListFileRecords returns a session's file records ordered by carve sequence
// number.
func (s *Store) ListFileRecords(ctx context.Context, sessionID string) ([]*FileRecord, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+fileColumns+` FROM file_records WHERE session_id = ? ORDER BY seq, id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list file records: %w", err)
	}
	defer rows.Close()

	var records []*FileRecord
	for rows.Next() {
		record, err := scanFileRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
