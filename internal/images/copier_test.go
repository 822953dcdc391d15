package images

import (
	"os"
	"path/filepath"
	"testing"

	"carvelens/internal/store"
)

func TestIsImageType(t *testing.T) {
	for _, imageType := range []string{"jpg", "jpeg", "png", "gif", "webp", "svg", "JPG"} {
		if !IsImageType(imageType) {
			t.Fatalf("IsImageType(%q) = false", imageType)
		}
	}
	for _, other := range []string{"pdf", "docx", "zip", "mov", ""} {
		if IsImageType(other) {
			t.Fatalf("IsImageType(%q) = true", other)
		}
	}
}

func TestCopierMirrorsImageFiles(t *testing.T) {
	srcRoot := t.TempDir()
	filesDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(srcRoot, "jpg"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	src := filepath.Join(srcRoot, "jpg", "00000001.jpg")
	if err := os.WriteFile(src, []byte("jpeg bytes"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	copier := NewCopier(filesDir, "usb-stick.dd", nil)
	record := &store.FileRecord{Name: "00000001.jpg", Type: "jpg", RelPath: "jpg/00000001.jpg"}

	dest, err := copier.Copy(srcRoot, record)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	want := filepath.Join(filesDir, "usb-stick.dd", "jpg", "00000001.jpg")
	if dest != want {
		t.Fatalf("dest = %q, want %q", dest, want)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read copy: %v", err)
	}
	if string(got) != "jpeg bytes" {
		t.Fatalf("copied content = %q", got)
	}
}

func TestCopierSkipsNonImages(t *testing.T) {
	copier := NewCopier(t.TempDir(), "usb-stick.dd", nil)
	record := &store.FileRecord{Name: "00000002.pdf", Type: "pdf", RelPath: "pdf/00000002.pdf"}

	dest, err := copier.Copy(t.TempDir(), record)
	if err != nil {
		t.Fatalf("Copy: %v", err)
	}
	if dest != "" {
		t.Fatalf("dest = %q, want empty", dest)
	}
}

func TestCopierMissingSourceFails(t *testing.T) {
	copier := NewCopier(t.TempDir(), "usb-stick.dd", nil)
	record := &store.FileRecord{Name: "gone.png", Type: "png", RelPath: "png/gone.png"}
	if _, err := copier.Copy(t.TempDir(), record); err == nil {
		t.Fatal("expected error for missing source")
	}
}

func TestSanitizeImageName(t *testing.T) {
	cases := map[string]string{
		"usb-stick.dd":           "usb-stick.dd",
		"/cases/usb/stick.dd":    "stick.dd",
		"  /cases/usb/stick.dd ": "stick.dd",
		"":                       "unknown-image",
	}
	for input, want := range cases {
		if got := sanitizeImageName(input); got != want {
			t.Fatalf("sanitizeImageName(%q) = %q, want %q", input, got, want)
		}
	}
}
