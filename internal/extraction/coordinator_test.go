package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"carvelens/internal/manifest"
)

// fakeProvider fails whole batches larger than failBatchesOver and records
// call counts for degradation assertions.
type fakeProvider struct {
	mu              sync.Mutex
	batchCalls      int
	singleCalls     int
	failBatchesOver int
	failFiles       map[string]string
	unavailable     bool
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) ExtractBatch(_ context.Context, paths []string) (map[string]Outcome, error) {
	f.mu.Lock()
	f.batchCalls++
	f.mu.Unlock()
	if f.unavailable || (f.failBatchesOver > 0 && len(paths) > f.failBatchesOver) {
		return nil, fmt.Errorf("%w: fake batch refused", ErrProviderUnavailable)
	}
	outcomes := make(map[string]Outcome, len(paths))
	for _, path := range paths {
		if reason, ok := f.failFiles[filepath.Base(path)]; ok {
			outcomes[path] = Outcome{Err: reason}
			continue
		}
		outcomes[path] = Outcome{Payload: Payload{"Fake:Source": "batch"}}
	}
	return outcomes, nil
}

func (f *fakeProvider) ExtractOne(_ context.Context, path string) Outcome {
	f.mu.Lock()
	f.singleCalls++
	f.mu.Unlock()
	if f.unavailable {
		return Outcome{Err: "fake single refused"}
	}
	if reason, ok := f.failFiles[filepath.Base(path)]; ok {
		return Outcome{Err: reason}
	}
	return Outcome{Payload: Payload{"Fake:Source": "single"}}
}

func writeCarveTree(t *testing.T, contents map[string]string) (string, []manifest.CarveRecord) {
	t.Helper()
	root := t.TempDir()
	records := make([]manifest.CarveRecord, 0, len(contents))
	seq := 0
	for _, name := range sortedKeys(contents) {
		ext := filepath.Ext(name)[1:]
		relPath := filepath.Join(ext, name)
		if err := os.MkdirAll(filepath.Join(root, ext), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(filepath.Join(root, relPath), []byte(contents[name]), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
		records = append(records, manifest.CarveRecord{
			Seq:     seq,
			Name:    name,
			Type:    ext,
			RelPath: ext + "/" + name,
		})
		seq++
	}
	return root, records
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func TestCoordinatorOneResultPerRecord(t *testing.T) {
	root, records := writeCarveTree(t, map[string]string{
		"a.jpg": "alpha",
		"b.jpg": "beta",
		"c.png": "gamma",
		"d.png": "delta",
		"e.gif": "epsilon",
	})
	primary := &fakeProvider{}
	coordinator := NewCoordinator(primary, &fakeProvider{}, 2, 3, nil)

	results, err := coordinator.Run(context.Background(), root, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != len(records) {
		t.Fatalf("results = %d, want %d", len(results), len(records))
	}
	for i, result := range results {
		if result.Record.Name != records[i].Name {
			t.Fatalf("result %d misaligned: got %q want %q", i, result.Record.Name, records[i].Name)
		}
		if result.Method != MethodBatch {
			t.Fatalf("result %d method = %q", i, result.Method)
		}
		if result.Hash == "" {
			t.Fatalf("result %d missing hash", i)
		}
	}
}

func TestCoordinatorBatchFailureFallsBackPerFile(t *testing.T) {
	root, records := writeCarveTree(t, map[string]string{
		"a.jpg": "alpha",
		"b.jpg": "beta",
	})
	primary := &fakeProvider{failBatchesOver: 1}
	fallback := &fakeProvider{failFiles: map[string]string{"b.jpg": "cannot probe"}}
	coordinator := NewCoordinator(primary, fallback, 2, 1, nil)

	results, err := coordinator.Run(context.Background(), root, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if fallback.singleCalls != 2 {
		t.Fatalf("fallback single calls = %d, want 2", fallback.singleCalls)
	}
	if results[0].Method != MethodFallback {
		t.Fatalf("a.jpg method = %q, want fallback", results[0].Method)
	}
	if results[1].Method != MethodFailed || results[1].ExtractErr != "cannot probe" {
		t.Fatalf("b.jpg = %+v, want failed with reason", results[1])
	}
	// Hashing is independent of extraction failure.
	if results[1].Hash == "" || results[1].HashErr != "" {
		t.Fatalf("b.jpg hash missing despite readable file: %+v", results[1])
	}
}

func TestCoordinatorInBatchFailureIsFinal(t *testing.T) {
	root, records := writeCarveTree(t, map[string]string{
		"a.jpg": "alpha",
		"b.jpg": "beta",
	})
	primary := &fakeProvider{failFiles: map[string]string{"a.jpg": "truncated jpeg"}}
	fallback := &fakeProvider{}
	coordinator := NewCoordinator(primary, fallback, 10, 1, nil)

	results, err := coordinator.Run(context.Background(), root, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Method != MethodFailed || results[0].ExtractErr != "truncated jpeg" {
		t.Fatalf("a.jpg = %+v", results[0])
	}
	if fallback.singleCalls != 0 {
		t.Fatalf("fallback must not run for in-batch failures, got %d calls", fallback.singleCalls)
	}
	if results[1].Method != MethodBatch {
		t.Fatalf("b.jpg method = %q", results[1].Method)
	}
}

func TestCoordinatorIdenticalContentHashesMatch(t *testing.T) {
	root, records := writeCarveTree(t, map[string]string{
		"a.jpg": "same bytes",
		"b.jpg": "other bytes",
		"c.jpg": "same bytes",
	})
	coordinator := NewCoordinator(&fakeProvider{}, &fakeProvider{}, 1, 2, nil)

	results, err := coordinator.Run(context.Background(), root, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Hash != results[2].Hash {
		t.Fatalf("identical content produced different hashes: %q vs %q", results[0].Hash, results[2].Hash)
	}
	if results[0].Hash == results[1].Hash {
		t.Fatal("different content produced identical hashes")
	}
	if results[0].Size != int64(len("same bytes")) {
		t.Fatalf("measured size = %d", results[0].Size)
	}
}

func TestCoordinatorUnreadableFileGetsHashError(t *testing.T) {
	root, records := writeCarveTree(t, map[string]string{"a.jpg": "alpha"})
	records = append(records, manifest.CarveRecord{
		Seq: 1, Name: "ghost.jpg", Type: "jpg", RelPath: "jpg/ghost.jpg",
	})
	coordinator := NewCoordinator(&fakeProvider{}, &fakeProvider{}, 10, 1, nil)

	results, err := coordinator.Run(context.Background(), root, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d, want 2", len(results))
	}
	ghost := results[1]
	if ghost.HashErr == "" || ghost.Hash != "" {
		t.Fatalf("expected hash error for missing file, got %+v", ghost)
	}
}

func TestCoordinatorBothProvidersUnavailable(t *testing.T) {
	root, records := writeCarveTree(t, map[string]string{
		"a.jpg": "alpha",
		"b.jpg": "beta",
	})
	primary := &fakeProvider{unavailable: true}
	fallback := &fakeProvider{unavailable: true}
	coordinator := NewCoordinator(primary, fallback, 2, 1, nil)

	results, err := coordinator.Run(context.Background(), root, records)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for i, result := range results {
		if result.Method != MethodFailed {
			t.Fatalf("result %d method = %q, want failed", i, result.Method)
		}
		if result.ExtractErr == "" {
			t.Fatalf("result %d missing error detail", i)
		}
	}
}

func TestCoordinatorCancelledContext(t *testing.T) {
	root, records := writeCarveTree(t, map[string]string{"a.jpg": "alpha"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	coordinator := NewCoordinator(&fakeProvider{}, &fakeProvider{}, 1, 1, nil)
	if _, err := coordinator.Run(ctx, root, records); err == nil {
		t.Fatal("expected error for cancelled context")
	}
}
