package extraction

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"carvelens/internal/logging"
	"carvelens/internal/manifest"
)

// Method records how a file's metadata outcome was produced.
type Method string

const (
	// MethodBatch marks files resolved by a successful batch invocation,
	// including files that failed individually inside it.
	MethodBatch Method = "batch"
	// MethodFallback marks files resolved by the fallback provider after a
	// wholesale batch failure.
	MethodFallback Method = "fallback"
	// MethodFailed marks files for which both paths produced no metadata.
	MethodFailed Method = "failed"
)

// Result is the enriched outcome for one carve record. Exactly one Result
// exists per input record regardless of provider failures.
type Result struct {
	Record manifest.CarveRecord
	Path   string

	Hash    string
	HashErr string
	Size    int64

	Method     Method
	Payload    Payload
	ExtractErr string
}

// Coordinator drives metadata extraction over the full carve record set:
// fixed-size batches through the primary provider, per-file fallback when a
// batch fails wholesale, and an independent content-hash pass per file.
type Coordinator struct {
	primary   Provider
	fallback  Provider
	batchSize int
	workers   int
	logger    *slog.Logger
}

// NewCoordinator constructs a coordinator. batchSize and workers must be
// positive; the logger may be nil.
func NewCoordinator(primary, fallback Provider, batchSize, workers int, logger *slog.Logger) *Coordinator {
	if batchSize <= 0 {
		batchSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Coordinator{
		primary:   primary,
		fallback:  fallback,
		batchSize: batchSize,
		workers:   workers,
		logger:    logger.With(slog.String(logging.FieldComponent, "extraction")),
	}
}

// Run processes every carve record exactly once and returns one Result per
// record, index-aligned with the input. Batches execute concurrently up to
// the worker bound; each batch writes only its own pre-sized slice of the
// result set, so output does not depend on completion order. The only error
// is context cancellation.
func (c *Coordinator) Run(ctx context.Context, root string, records []manifest.CarveRecord) ([]Result, error) {
	results := make([]Result, len(records))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(c.workers)

	for start := 0; start < len(records); start += c.batchSize {
		end := min(start+c.batchSize, len(records))
		batchRecords := records[start:end]
		batchResults := results[start:end]
		group.Go(func() error {
			if err := groupCtx.Err(); err != nil {
				return err
			}
			c.processBatch(groupCtx, root, batchRecords, batchResults)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("extraction cancelled: %w", err)
	}
	return results, nil
}

func (c *Coordinator) processBatch(ctx context.Context, root string, records []manifest.CarveRecord, results []Result) {
	logger := logging.WithContext(ctx, c.logger)

	paths := make([]string, len(records))
	for i, record := range records {
		paths[i] = filepath.Join(root, filepath.FromSlash(record.RelPath))
	}

	outcomes, err := c.primary.ExtractBatch(ctx, paths)
	if err != nil {
		// The whole invocation failed; every file in the batch gets an
		// independent fallback attempt.
		logger.Warn("batch extraction failed, falling back per file",
			slog.String("provider", c.primary.Name()),
			slog.Int("batch_size", len(records)),
			slog.Any("error", err))
		for i := range records {
			results[i] = c.resolveFallback(ctx, records[i], paths[i])
		}
	} else {
		for i := range records {
			results[i] = resolveBatchOutcome(records[i], paths[i], outcomes[paths[i]])
		}
	}

	// Hashing is independent of metadata extraction: duplicate detection
	// must work for files whose extraction failed.
	for i := range results {
		hash, size, hashErr := hashFile(paths[i])
		if hashErr != nil {
			results[i].HashErr = hashErr.Error()
			continue
		}
		results[i].Hash = hash
		results[i].Size = size
	}
}

func (c *Coordinator) resolveFallback(ctx context.Context, record manifest.CarveRecord, path string) Result {
	outcome := c.fallback.ExtractOne(ctx, path)
	result := Result{Record: record, Path: path}
	if outcome.Failed() {
		result.Method = MethodFailed
		result.ExtractErr = outcome.Err
		return result
	}
	result.Method = MethodFallback
	result.Payload = outcome.Payload
	return result
}

// resolveBatchOutcome finalizes a file inside a successful batch call. Files
// the batch mechanism already attempted and failed are final: no fallback
// retry.
func resolveBatchOutcome(record manifest.CarveRecord, path string, outcome Outcome) Result {
	result := Result{Record: record, Path: path}
	if outcome.Failed() {
		result.Method = MethodFailed
		result.ExtractErr = outcome.Err
		return result
	}
	if outcome.Payload == nil {
		result.Method = MethodFailed
		result.ExtractErr = "provider returned no outcome for file"
		return result
	}
	result.Method = MethodBatch
	result.Payload = outcome.Payload
	return result
}
