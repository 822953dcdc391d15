package extraction

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// Fallback is the in-process single-file provider used when the external
// tool cannot handle a file or cannot run at all. It produces a minimal
// payload from the filesystem and content sniffing, mirroring the basic
// fields the external tool would report.
type Fallback struct{}

// NewFallback constructs the in-process fallback provider.
func NewFallback() *Fallback { return &Fallback{} }

// Name identifies the provider in logs and records.
func (f *Fallback) Name() string { return "fallback" }

// ExtractBatch resolves each path independently. It never fails wholesale:
// there is no external tool to become unavailable.
func (f *Fallback) ExtractBatch(ctx context.Context, paths []string) (map[string]Outcome, error) {
	outcomes := make(map[string]Outcome, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: fallback batch: %v", ErrProviderUnavailable, err)
		}
		outcomes[path] = f.ExtractOne(ctx, path)
	}
	return outcomes, nil
}

// ExtractOne probes a single file with stat and content sniffing.
func (f *Fallback) ExtractOne(_ context.Context, path string) Outcome {
	info, err := os.Stat(path)
	if err != nil {
		return Outcome{Err: fmt.Sprintf("stat carved file: %v", err)}
	}

	payload := Payload{
		"File:FileTypeExtension": strings.ToUpper(strings.TrimPrefix(filepath.Ext(path), ".")),
		"File:FileSize":          info.Size(),
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return Outcome{Err: fmt.Sprintf("sniff carved file: %v", err)}
	}
	payload["File:MIMEType"] = mtype.String()
	payload["File:FileType"] = strings.ToUpper(strings.TrimPrefix(mtype.Extension(), "."))

	return Outcome{Payload: payload}
}
