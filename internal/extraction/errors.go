package extraction

import "errors"

// ErrProviderUnavailable indicates a metadata provider could not run at all:
// the underlying tool is missing, crashed, or timed out for a whole
// invocation. It is never raised for individual files inside a successful
// invocation.
var ErrProviderUnavailable = errors.New("metadata provider unavailable")
