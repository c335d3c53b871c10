package keyint

import "errors"

// ErrInvalidFormat is returned when a hex string is not exactly 40
// characters of lowercase hex digits.
var ErrInvalidFormat = errors.New("keyint: invalid format")

// ErrDivisionByZero is returned by DivMod when the divisor is zero.
var ErrDivisionByZero = errors.New("keyint: division by zero")
