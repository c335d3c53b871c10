package transport

import "errors"

// ErrUnreachable is returned (never panicked) whenever a remote call
// fails for any transport-level reason: unknown peer, dial failure,
// timeout, or stream reset. NodeLookup treats it uniformly regardless
// of which concrete Transport produced it.
var ErrUnreachable = errors.New("transport: peer unreachable")
