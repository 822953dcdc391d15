package store

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// AddDuplicateGroup records one set of same-hash files for a session. Member
// order is preserved as given (callers pass carve-sequence order).
func (s *Store) AddDuplicateGroup(ctx context.Context, sessionID, hash string, fileIDs []int64) (*DuplicateGroup, error) {
	if hash == "" {
		return nil, errors.New("duplicate group hash is empty")
	}
	if len(fileIDs) < 2 {
		return nil, fmt.Errorf("duplicate group needs at least two members, got %d", len(fileIDs))
	}
	ctx = ensureContext(ctx)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin group tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO duplicate_groups (session_id, hash, created_at) VALUES (?, ?, ?)`,
		sessionID, hash, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert duplicate group: %w", err)
	}
	groupID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for rank, fileID := range fileIDs {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO duplicate_members (group_id, file_id, member_rank) VALUES (?, ?, ?)`,
			groupID, fileID, rank,
		); err != nil {
			return nil, fmt.Errorf("insert duplicate member: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit group: %w", err)
	}

	group := &DuplicateGroup{
		ID:        groupID,
		SessionID: sessionID,
		Hash:      hash,
		FileIDs:   append([]int64(nil), fileIDs...),
	}
	if created, err := parseTimeString(timestamp); err == nil {
		group.CreatedAt = created
	}
	return group, nil
}

// ListDuplicateGroups returns a session's duplicate groups in insertion
// order, members in their recorded rank order.
func (s *Store) ListDuplicateGroups(ctx context.Context, sessionID string) ([]*DuplicateGroup, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, session_id, hash, created_at FROM duplicate_groups WHERE session_id = ? ORDER BY id`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list duplicate groups: %w", err)
	}
	defer rows.Close()

	var groups []*DuplicateGroup
	for rows.Next() {
		var (
			group      DuplicateGroup
			createdRaw string
		)
		if err := rows.Scan(&group.ID, &group.SessionID, &group.Hash, &createdRaw); err != nil {
			return nil, err
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			group.CreatedAt = created
		}
		groups = append(groups, &group)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, group := range groups {
		memberRows, err := s.db.QueryContext(
			ctx,
			`SELECT file_id FROM duplicate_members WHERE group_id = ? ORDER BY member_rank`,
			group.ID,
		)
		if err != nil {
			return nil, fmt.Errorf("list duplicate members: %w", err)
		}
		for memberRows.Next() {
			var fileID int64
			if err := memberRows.Scan(&fileID); err != nil {
				memberRows.Close()
				return nil, err
			}
			group.FileIDs = append(group.FileIDs, fileID)
		}
		if err := memberRows.Err(); err != nil {
			memberRows.Close()
			return nil, err
		}
		memberRows.Close()
	}
	return groups, nil
}
