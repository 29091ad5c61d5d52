package bins

import "errors"

var (
	// ErrEmptyBin is returned when the center of a bin without members is
	// read, or when no bin is left to receive an amount.
	ErrEmptyBin = errors.New("bin has no members")

	ErrIndexOutOfRange  = errors.New("amount index out of range")
	ErrNotAssigned      = errors.New("amount is not assigned to a bin")
	ErrAlreadyAssigned  = errors.New("amount is already assigned to a bin")
	ErrInvalidPartition = errors.New("invalid partition")
	ErrUnknownStrategy  = errors.New("unknown nearest-bin strategy")
)
