package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"carvelens/internal/manifest"
)

// CreateSession inserts a new running session built from the parsed manifest
// summary and the effective configuration.
func (s *Store) CreateSession(ctx context.Context, summary manifest.Summary, snapshot ConfigSnapshot) (*Session, error) {
	configJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("marshal config snapshot: %w", err)
	}

	id := uuid.NewString()
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	if _, err := s.execWithRetry(
		ctx,
		`INSERT INTO sessions (
            id, status, image_name, image_size_bytes, output_dir, invocation,
            carver_version, scan_start, scan_end, reported_file_total,
            config_json, error_message, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id,
		StatusRunning,
		nullableString(summary.ImageName),
		summary.ImageSizeBytes,
		nullableString(summary.OutputDir),
		nullableString(summary.Invocation),
		nullableString(summary.CarverVersion),
		nullableTime(summary.ScanStart),
		nullableTime(summary.ScanEnd),
		summary.ReportedFileTotal,
		string(configJSON),
		nil,
		timestamp,
		timestamp,
	); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}

	return s.GetSession(ctx, id)
}

// GetSession fetches a session by identifier.
func (s *Store) GetSession(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// MarkSessionCompleted transitions a session to its terminal success state.
func (s *Store) MarkSessionCompleted(ctx context.Context, id string) error {
	return s.setSessionStatus(ctx, id, StatusCompleted, "")
}

// MarkSessionFailed transitions a session to its terminal failure state with
// a human-readable reason.
func (s *Store) MarkSessionFailed(ctx context.Context, id, reason string) error {
	return s.setSessionStatus(ctx, id, StatusFailed, reason)
}

func (s *Store) setSessionStatus(ctx context.Context, id string, status Status, reason string) error {
	res, err := s.execWithRetry(
		ctx,
		`UPDATE sessions SET status = ?, error_message = ?, updated_at = ? WHERE id = ?`,
		status,
		nullableString(reason),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("update session status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return nil
}

// DropSession removes a session and everything attached to it. The cascade
// is explicit so the delete order never depends on the foreign_keys pragma:
// duplicate members, duplicate groups, file records, then the session row.
// Dropping a session that is already gone is a no-op, so retrying a drop
// after a partial failure always converges.
func (s *Store) DropSession(ctx context.Context, id string) error {
	ctx = ensureContext(ctx)
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin drop tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM duplicate_members WHERE group_id IN
            (SELECT id FROM duplicate_groups WHERE session_id = ?)`, id); err != nil {
		return fmt.Errorf("delete duplicate members: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM duplicate_groups WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete duplicate groups: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM file_records WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("delete file records: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit drop: %w", err)
	}
	return nil
}
