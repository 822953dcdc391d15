package extraction

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"carvelens/internal/services"
)

// droppedKeys are metadata fields stripped from every payload: either noise
// from the invocation itself or filesystem timestamps of the carved copy,
// which describe the carving run rather than the recovered file.
var droppedKeys = []string{
	"SourceFile",
	"File:Directory",
	"File:FileName",
	"File:FileModifyDate",
	"File:FileAccessDate",
	"File:FileCreateDate",
	"File:FileInodeChangeDate",
	"ExifTool:ExifToolVersion",
}

// ExifTool invokes the exiftool binary to extract metadata, many files per
// invocation. Each invocation is bounded by the configured timeout.
type ExifTool struct {
	binary  string
	timeout time.Duration
}

// NewExifTool constructs the primary batch-capable provider.
func NewExifTool(binary string, timeout time.Duration) *ExifTool {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		binary = "exiftool"
	}
	return &ExifTool{binary: binary, timeout: timeout}
}

// Name identifies the provider in logs and records.
func (e *ExifTool) Name() string { return "exiftool" }

// Version reports the installed exiftool version, or an error when the tool
// cannot run.
func (e *ExifTool) Version(ctx context.Context) (string, error) {
	ctx, cancel := e.callContext(ctx)
	defer cancel()
	output, err := exec.CommandContext(ctx, e.binary, "-ver").Output()
	if err != nil {
		return "", fmt.Errorf("%w: exiftool version: %v", ErrProviderUnavailable, err)
	}
	return strings.TrimSpace(string(output)), nil
}

// ExtractBatch runs one exiftool invocation over all paths. Decodable JSON
// output counts as a successful batch even when individual files failed;
// those files get failed outcomes. An invocation that produces no decodable
// output is a wholesale failure.
func (e *ExifTool) ExtractBatch(ctx context.Context, paths []string) (map[string]Outcome, error) {
	if len(paths) == 0 {
		return map[string]Outcome{}, nil
	}

	entries, runErr := e.run(ctx, paths)
	if entries == nil {
		return nil, services.Wrap(services.ErrExternalTool, "extraction", "batch",
			fmt.Sprintf("%d files", len(paths)),
			fmt.Errorf("%w: %w", ErrProviderUnavailable, runErr))
	}

	byPath := make(map[string]Outcome, len(paths))
	for _, entry := range entries {
		source, _ := entry["SourceFile"].(string)
		if source == "" {
			continue
		}
		byPath[filepath.Clean(source)] = Outcome{Payload: prunePayload(entry)}
	}

	outcomes := make(map[string]Outcome, len(paths))
	for _, path := range paths {
		if outcome, ok := byPath[filepath.Clean(path)]; ok {
			outcomes[path] = outcome
			continue
		}
		outcomes[path] = Outcome{Err: "exiftool returned no metadata for file"}
	}
	return outcomes, nil
}

// ExtractOne runs exiftool for a single path.
func (e *ExifTool) ExtractOne(ctx context.Context, path string) Outcome {
	entries, runErr := e.run(ctx, []string{path})
	if entries == nil {
		return Outcome{Err: fmt.Sprintf("exiftool: %v", runErr)}
	}
	for _, entry := range entries {
		if source, _ := entry["SourceFile"].(string); filepath.Clean(source) == filepath.Clean(path) {
			return Outcome{Payload: prunePayload(entry)}
		}
	}
	return Outcome{Err: "exiftool returned no metadata for file"}
}

// run executes exiftool and decodes its JSON output. It returns nil entries
// only when no usable output was produced; a non-zero exit with decodable
// output still yields entries.
func (e *ExifTool) run(ctx context.Context, paths []string) ([]map[string]any, error) {
	ctx, cancel := e.callContext(ctx)
	defer cancel()

	args := make([]string, 0, len(paths)+2)
	args = append(args, "-j", "-G")
	args = append(args, paths...)

	cmd := exec.CommandContext(ctx, e.binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	execErr := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return nil, services.Wrap(services.ErrTimeout, "extraction", "exiftool",
				fmt.Sprintf("invocation exceeded %s", e.timeout), ctxErr)
		}
		return nil, fmt.Errorf("exiftool call: %w", ctxErr)
	}

	var entries []map[string]any
	if decodeErr := json.Unmarshal(stdout.Bytes(), &entries); decodeErr != nil || len(entries) == 0 {
		if execErr != nil {
			return nil, fmt.Errorf("%v: %s", execErr, strings.TrimSpace(stderr.String()))
		}
		return nil, fmt.Errorf("undecodable exiftool output: %s", strings.TrimSpace(stderr.String()))
	}
	return entries, nil
}

func (e *ExifTool) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.timeout)
}

func prunePayload(entry map[string]any) Payload {
	payload := make(Payload, len(entry))
	for key, value := range entry {
		payload[key] = value
	}
	for _, key := range droppedKeys {
		delete(payload, key)
	}
	return payload
}
