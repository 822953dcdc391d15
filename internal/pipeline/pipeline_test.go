package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"carvelens/internal/extraction"
	"carvelens/internal/store"
	"carvelens/internal/testsupport"
)

type stubProvider struct {
	unavailable bool
}

func (p *stubProvider) Name() string { return "stub" }

func (p *stubProvider) ExtractBatch(_ context.Context, paths []string) (map[string]extraction.Outcome, error) {
	if p.unavailable {
		return nil, fmt.Errorf("%w: stub refused", extraction.ErrProviderUnavailable)
	}
	outcomes := make(map[string]extraction.Outcome, len(paths))
	for _, path := range paths {
		outcomes[path] = extraction.Outcome{Payload: extraction.Payload{"File:MIMEType": "application/octet-stream"}}
	}
	return outcomes, nil
}

func (p *stubProvider) ExtractOne(_ context.Context, _ string) extraction.Outcome {
	if p.unavailable {
		return extraction.Outcome{Err: "stub refused"}
	}
	return extraction.Outcome{Payload: extraction.Payload{"File:MIMEType": "application/octet-stream"}}
}

func sampleTree(t *testing.T, dir string) {
	t.Helper()
	testsupport.WriteCarveTree(t, dir, "usb-stick.dd", []testsupport.CarvedFile{
		{Name: "00000001.jpg", Content: []byte("identical picture"), Offset: 4096},
		{Name: "00000002.jpg", Content: []byte("identical picture"), Offset: 8192},
		{Name: "00000003.png", Content: []byte("unique picture"), Offset: 16384},
		{Name: "00000004.pdf", Content: []byte("a document"), Offset: 32768},
	})
}

func TestRunnerEndToEnd(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithCopyImages(true))
	st := testsupport.MustOpenStore(t, cfg)

	outputDir := filepath.Join(testsupport.BaseDir(cfg), "carved")
	sampleTree(t, outputDir)

	runner := NewRunner(cfg, st, &stubProvider{}, &stubProvider{}, nil)
	outcome, err := runner.Run(context.Background(), outputDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if outcome.FileCount != 4 {
		t.Fatalf("file count = %d", outcome.FileCount)
	}
	if outcome.DuplicateGroups != 1 {
		t.Fatalf("duplicate groups = %d", outcome.DuplicateGroups)
	}
	if outcome.FailedExtractions != 0 {
		t.Fatalf("failed extractions = %d", outcome.FailedExtractions)
	}
	// jpg + jpg + png are images; pdf is not.
	if outcome.ImagesCopied != 3 {
		t.Fatalf("images copied = %d", outcome.ImagesCopied)
	}

	session, err := st.GetSession(context.Background(), outcome.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Status != store.StatusCompleted {
		t.Fatalf("session status = %q", session.Status)
	}
	if session.Summary.ImageName != "usb-stick.dd" || session.Summary.ReportedFileTotal != 4 {
		t.Fatalf("session summary = %+v", session.Summary)
	}

	records, err := st.ListFileRecords(context.Background(), outcome.SessionID)
	if err != nil {
		t.Fatalf("ListFileRecords: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("records = %d", len(records))
	}
	for _, record := range records {
		if record.Hash == "" {
			t.Fatalf("record %q has no hash", record.Name)
		}
		if record.Method != string(extraction.MethodBatch) {
			t.Fatalf("record %q method = %q", record.Name, record.Method)
		}
	}
	if records[0].Hash != records[1].Hash {
		t.Fatal("identical files hashed differently")
	}

	groups, err := st.ListDuplicateGroups(context.Background(), outcome.SessionID)
	if err != nil {
		t.Fatalf("ListDuplicateGroups: %v", err)
	}
	if len(groups) != 1 || len(groups[0].FileIDs) != 2 {
		t.Fatalf("groups = %+v", groups)
	}

	if _, err := os.Stat(outcome.ReportPath); err != nil {
		t.Fatalf("report file missing: %v", err)
	}
	copied := filepath.Join(cfg.Paths.FilesDir, "usb-stick.dd", "jpg", "00000001.jpg")
	if _, err := os.Stat(copied); err != nil {
		t.Fatalf("copied image missing: %v", err)
	}
	if records[3].CopiedPath != "" {
		t.Fatalf("pdf should not be copied: %q", records[3].CopiedPath)
	}
}

func TestRunnerManifestFailureCreatesNoSession(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	emptyDir := filepath.Join(testsupport.BaseDir(cfg), "empty")
	if err := os.MkdirAll(emptyDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	runner := NewRunner(cfg, st, &stubProvider{}, &stubProvider{}, nil)
	if _, err := runner.Run(context.Background(), emptyDir); err == nil {
		t.Fatal("expected error for missing manifest")
	}

	sessions, err := st.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 0 {
		t.Fatalf("sessions = %d, want 0", len(sessions))
	}
}

func TestRunnerFallsBackWhenToolMissing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	outputDir := filepath.Join(testsupport.BaseDir(cfg), "carved")
	sampleTree(t, outputDir)

	// A primary whose batches always fail wholesale pushes every file
	// through the in-process fallback.
	runner := NewRunner(cfg, st, &stubProvider{unavailable: true}, extraction.NewFallback(), nil)
	outcome, err := runner.Run(context.Background(), outputDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	records, err := st.ListFileRecords(context.Background(), outcome.SessionID)
	if err != nil {
		t.Fatalf("ListFileRecords: %v", err)
	}
	for _, record := range records {
		if record.Method != string(extraction.MethodFallback) {
			t.Fatalf("record %q method = %q, want fallback", record.Name, record.Method)
		}
		if record.Hash == "" {
			t.Fatalf("record %q not hashed", record.Name)
		}
	}
	if outcome.DuplicateGroups != 1 {
		t.Fatalf("duplicate groups = %d", outcome.DuplicateGroups)
	}
}

func TestRunnerDropsSessionWhenDatabaseNotKept(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithKeepDatabase(false))
	st := testsupport.MustOpenStore(t, cfg)

	outputDir := filepath.Join(testsupport.BaseDir(cfg), "carved")
	sampleTree(t, outputDir)

	runner := NewRunner(cfg, st, &stubProvider{}, &stubProvider{}, nil)
	outcome, err := runner.Run(context.Background(), outputDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	// The report survives even though the session rows are gone.
	if _, err := os.Stat(outcome.ReportPath); err != nil {
		t.Fatalf("report missing: %v", err)
	}
	if _, err := st.GetSession(context.Background(), outcome.SessionID); !errors.Is(err, store.ErrSessionNotFound) {
		t.Fatalf("session should be dropped, got %v", err)
	}
}

func TestRunnerRecordsExtractionFailures(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	outputDir := filepath.Join(testsupport.BaseDir(cfg), "carved")
	sampleTree(t, outputDir)

	// Both providers fail: extraction outcomes are failures, but hashing
	// and duplicate detection still run.
	runner := NewRunner(cfg, st, &stubProvider{unavailable: true}, &stubProvider{unavailable: true}, nil)
	outcome, err := runner.Run(context.Background(), outputDir)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.FailedExtractions != 4 {
		t.Fatalf("failed extractions = %d", outcome.FailedExtractions)
	}
	if outcome.DuplicateGroups != 1 {
		t.Fatalf("duplicate groups = %d", outcome.DuplicateGroups)
	}

	session, err := st.GetSession(context.Background(), outcome.SessionID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if session.Status != store.StatusCompleted {
		t.Fatalf("session status = %q", session.Status)
	}
}
