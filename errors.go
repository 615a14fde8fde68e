package cb

import "errors"

// Sentinel errors corresponding to the Status taxonomy, so callers can use
// errors.Is instead of comparing a Status value.
var (
	errFailure  = errors.New("cb: failure")
	errBadParam = errors.New("cb: bad parameter")
	errDepleted = errors.New("cb: depleted")
)

// ErrBadParam is returned when a precondition (alignment, power-of-two
// size, offset range) is violated.
var ErrBadParam = errBadParam

// ErrDepleted is returned when an operation runs a sub-region past its end.
var ErrDepleted = errDepleted

// ErrFailure wraps a generic, usually OS-level, failure (mmap, open,
// ftruncate).
var ErrFailure = errFailure
