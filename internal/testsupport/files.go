package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// WriteFile fills the target path with the requested number of bytes using a
// simple repeating pattern. A size <= 0 writes a single byte.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	const chunkSize = 32 * 1024
	buf := make([]byte, chunkSize)
	for i := range buf {
		buf[i] = 0x42
	}

	remaining := size
	for remaining > 0 {
		toWrite := int64(chunkSize)
		if remaining < toWrite {
			toWrite = remaining
		}
		if _, err := f.Write(buf[:toWrite]); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
		remaining -= toWrite
	}
}

// CarvedFile describes one fabricated carver output file.
type CarvedFile struct {
	Name    string
	Content []byte
	Offset  int64
}

// WriteCarveTree fabricates a carver output directory: one subdirectory per
// file type holding the carved files, plus an audit manifest listing them.
func WriteCarveTree(t testing.TB, dir, imageName string, files []CarvedFile) {
	t.Helper()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", dir, err)
	}

	var audit strings.Builder
	fmt.Fprintf(&audit, "Foremost version 1.5.7 by Jesse Kornblum, Kris Kendall, and Nick Mikus\n")
	fmt.Fprintf(&audit, "Audit File\n\n")
	fmt.Fprintf(&audit, "Invocation: foremost -i %s -o output\n", imageName)
	fmt.Fprintf(&audit, "Output directory: %s\n", dir)
	fmt.Fprintf(&audit, "------------------------------------------------------------------\n")
	fmt.Fprintf(&audit, "File: %s\n", imageName)
	fmt.Fprintf(&audit, "Start: Thu Aug 20 09:00:00 2026\n")
	fmt.Fprintf(&audit, "Length: 1 GB (1073741824 bytes)\n\n")
	fmt.Fprintf(&audit, "Num\t Name (bs=512)\t       Size\t  File Offset\t Comment\n\n")

	for seq, file := range files {
		ext := strings.TrimPrefix(filepath.Ext(file.Name), ".")
		if ext == "" {
			t.Fatalf("carved file %q has no extension", file.Name)
		}
		target := filepath.Join(dir, ext, file.Name)
		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			t.Fatalf("mkdir for %s: %v", target, err)
		}
		if err := os.WriteFile(target, file.Content, 0o644); err != nil {
			t.Fatalf("write %s: %v", target, err)
		}
		fmt.Fprintf(&audit, "%d:\t%s \t  %d B \t  %d\n", seq, file.Name, len(file.Content), file.Offset)
	}

	fmt.Fprintf(&audit, "Finish: Thu Aug 20 09:04:12 2026\n\n")
	fmt.Fprintf(&audit, "%d FILES EXTRACTED\n", len(files))

	if err := os.WriteFile(filepath.Join(dir, "audit.txt"), []byte(audit.String()), 0o644); err != nil {
		t.Fatalf("write audit.txt: %v", err)
	}
}
