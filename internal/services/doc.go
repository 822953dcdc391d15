// Package services provides shared error classification and context
// annotation helpers used across the processing pipeline.
package services
