package extraction

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestFallbackExtractOne(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	// Minimal PNG signature so content sniffing identifies the type.
	pngHeader := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if err := os.WriteFile(path, pngHeader, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	outcome := NewFallback().ExtractOne(context.Background(), path)
	if outcome.Failed() {
		t.Fatalf("ExtractOne failed: %s", outcome.Err)
	}
	if got := outcome.Payload["File:FileTypeExtension"]; got != "PNG" {
		t.Fatalf("File:FileTypeExtension = %v", got)
	}
	if got := outcome.Payload["File:FileSize"]; got != int64(len(pngHeader)) {
		t.Fatalf("File:FileSize = %v", got)
	}
	if got := outcome.Payload["File:MIMEType"]; got != "image/png" {
		t.Fatalf("File:MIMEType = %v", got)
	}
}

func TestFallbackExtractOneMissingFile(t *testing.T) {
	outcome := NewFallback().ExtractOne(context.Background(), filepath.Join(t.TempDir(), "absent.jpg"))
	if !outcome.Failed() {
		t.Fatal("expected failure for missing file")
	}
}

func TestFallbackBatchNeverFailsWholesale(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "ok.txt")
	if err := os.WriteFile(good, []byte("hello"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	missing := filepath.Join(dir, "gone.txt")

	outcomes, err := NewFallback().ExtractBatch(context.Background(), []string{good, missing})
	if err != nil {
		t.Fatalf("ExtractBatch: %v", err)
	}
	if outcomes[good].Failed() {
		t.Fatalf("good file failed: %s", outcomes[good].Err)
	}
	if !outcomes[missing].Failed() {
		t.Fatal("missing file should fail individually")
	}
}
