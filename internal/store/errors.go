package store

import "errors"

// ErrSessionNotFound marks lookups for a session identifier the database
// does not hold.
var ErrSessionNotFound = errors.New("session not found")
