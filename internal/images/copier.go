// Package images collects recovered picture files into a browsable
// directory tree, separate from the carver's raw output.
package images

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"carvelens/internal/fileutil"
	"carvelens/internal/logging"
	"carvelens/internal/store"
)

// imageTypes are the carved file types collected by the copier.
var imageTypes = map[string]struct{}{
	"jpg":  {},
	"jpeg": {},
	"png":  {},
	"gif":  {},
	"webp": {},
	"svg":  {},
}

// IsImageType reports whether a carved file type token names a picture
// format the copier collects.
func IsImageType(fileType string) bool {
	_, ok := imageTypes[strings.ToLower(fileType)]
	return ok
}

// Copier mirrors recovered images under filesDir/<image>/<type>/<name>,
// grouped by the source image they were carved from.
type Copier struct {
	filesDir  string
	imageName string
	logger    *slog.Logger
}

// NewCopier constructs a copier for one source image. The logger may be nil.
func NewCopier(filesDir, imageName string, logger *slog.Logger) *Copier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Copier{
		filesDir:  filesDir,
		imageName: sanitizeImageName(imageName),
		logger:    logger.With(slog.String(logging.FieldComponent, "images")),
	}
}

// Copy mirrors one carved image file from the carver output tree and returns
// the destination path. Non-image records are skipped with an empty path and
// no error.
func (c *Copier) Copy(srcRoot string, record *store.FileRecord) (string, error) {
	if record == nil || !IsImageType(record.Type) {
		return "", nil
	}

	src := filepath.Join(srcRoot, filepath.FromSlash(record.RelPath))
	destDir := filepath.Join(c.filesDir, c.imageName, strings.ToLower(record.Type))
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", fmt.Errorf("create image directory: %w", err)
	}

	dest := filepath.Join(destDir, record.Name)
	if err := fileutil.CopyFileVerified(src, dest); err != nil {
		return "", fmt.Errorf("copy carved image: %w", err)
	}

	c.logger.Debug("copied image",
		slog.String("name", record.Name),
		slog.String("dest", dest))
	return dest, nil
}

// sanitizeImageName strips path structure from the source image name so it
// forms a single directory component.
func sanitizeImageName(name string) string {
	base := filepath.Base(strings.TrimSpace(name))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return "unknown-image"
	}
	return base
}
