// Package extraction enriches carved files with metadata and content
// hashes. A batch-capable external tool is the primary provider; an
// in-process prober serves as the per-file fallback when a whole batch
// invocation fails. The coordinator guarantees exactly one result per carve
// record no matter which providers fail.
package extraction
