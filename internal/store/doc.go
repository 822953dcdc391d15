// Package store persists processing sessions, enriched file records, and
// duplicate groups in SQLite. The Port interface is the seam consumers
// depend on; Store is the SQLite implementation.
package store
