package store

import (
	"context"

	"carvelens/internal/manifest"
)

// Port is the persistence seam the pipeline and report layers depend on.
// Store satisfies it; tests may substitute their own implementation.
type Port interface {
	CreateSession(ctx context.Context, summary manifest.Summary, snapshot ConfigSnapshot) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	ListSessions(ctx context.Context) ([]*Session, error)
	MarkSessionCompleted(ctx context.Context, id string) error
	MarkSessionFailed(ctx context.Context, id, reason string) error
	DropSession(ctx context.Context, id string) error

	AddFileRecord(ctx context.Context, record *FileRecord) error
	AddFileRecords(ctx context.Context, records []*FileRecord) error
	SetCopiedPath(ctx context.Context, fileID int64, copiedPath string) error
	ListFileRecords(ctx context.Context, sessionID string) ([]*FileRecord, error)

	AddDuplicateGroup(ctx context.Context, sessionID, hash string, fileIDs []int64) (*DuplicateGroup, error)
	ListDuplicateGroups(ctx context.Context, sessionID string) ([]*DuplicateGroup, error)

	Close() error
}
