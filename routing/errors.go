package routing

import "errors"

// ErrSelfReference is returned by Observe when asked to observe the
// table's own address.
var ErrSelfReference = errors.New("routing: cannot observe own address")
