package extraction

import (
	"context"
	"fmt"
	"strings"
)

// Chain resolves single files through an ordered list of providers: the
// first non-failed outcome wins. Chaining the external tool's per-file mode
// ahead of the in-process prober means a wholesale batch failure degrades
// one tier at a time instead of straight to minimal metadata.
type Chain struct {
	providers []Provider
}

// NewChain constructs a composite provider over the given tiers, tried in
// argument order.
func NewChain(providers ...Provider) *Chain {
	return &Chain{providers: providers}
}

// Name joins the tier names in retry order.
func (c *Chain) Name() string {
	names := make([]string, 0, len(c.providers))
	for _, provider := range c.providers {
		names = append(names, provider.Name())
	}
	return strings.Join(names, "+")
}

// ExtractBatch resolves each path independently through the chain. Like the
// in-process prober, it never fails wholesale except on cancellation.
func (c *Chain) ExtractBatch(ctx context.Context, paths []string) (map[string]Outcome, error) {
	outcomes := make(map[string]Outcome, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: chained batch: %v", ErrProviderUnavailable, err)
		}
		outcomes[path] = c.ExtractOne(ctx, path)
	}
	return outcomes, nil
}

// ExtractOne tries each tier in order and returns the first success. When
// every tier fails, the last failure is returned.
func (c *Chain) ExtractOne(ctx context.Context, path string) Outcome {
	outcome := Outcome{Err: "no extraction providers configured"}
	for _, provider := range c.providers {
		outcome = provider.ExtractOne(ctx, path)
		if !outcome.Failed() {
			return outcome
		}
	}
	return outcome
}
