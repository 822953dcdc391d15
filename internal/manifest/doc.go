// Package manifest parses the audit manifest a file-carving tool writes
// alongside its recovered files into structured carve records and a run
// summary. Parsing is line-oriented and pure: the same input always yields
// the same records in the same order.
package manifest
