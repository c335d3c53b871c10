package node

import "errors"

// ErrNotFound is returned by Get when no peer reached during the
// iterative lookup held the requested key.
var ErrNotFound = errors.New("node: key not found")
