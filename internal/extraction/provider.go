package extraction

import "context"

// Payload is the extractor-defined key/value metadata for one file. There is
// no fixed schema: different file types expose different fields and callers
// must not assume any particular key exists.
type Payload map[string]any

// Outcome is the per-file result of a metadata extraction attempt. Exactly
// one of Payload or Err is meaningful.
type Outcome struct {
	Payload Payload
	Err     string
}

// Failed reports whether the extraction attempt produced no usable metadata.
func (o Outcome) Failed() bool {
	return o.Err != ""
}

// Provider is the capability of extracting metadata from files on the local
// filesystem. ExtractBatch resolves many paths in one invocation and returns
// a per-path outcome map; its only hard error is wholesale unavailability of
// the provider (tool missing, crash, timeout), in which case no path was
// resolved. Per-file failures are data inside the returned outcomes, never
// errors. ExtractOne resolves a single path and never fails hard: provider
// trouble surfaces as a failed Outcome.
type Provider interface {
	ExtractBatch(ctx context.Context, paths []string) (map[string]Outcome, error)
	ExtractOne(ctx context.Context, path string) Outcome
	Name() string
}
