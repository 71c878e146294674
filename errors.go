package genref

import "github.com/pkg/errors"

var (
	// ErrReleased is returned when a handle that was already dropped, taken
	// or sent is used for a transfer.
	ErrReleased = errors.New("genref: handle already released")

	// ErrInvalid is returned when a Weak whose allocation is gone is used for
	// a transfer.
	ErrInvalid = errors.New("genref: stale reference")
)
