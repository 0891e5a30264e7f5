package memutils

import "github.com/pkg/errors"

// PowerOfTwoError is the error returned from CheckPow2 or other methods if the number being tested is not a power of two
var PowerOfTwoError error = errors.New("number must be a power of two")

// ErrOutOfPoolMemory is the error returned when a linear pool's cursor cannot advance far enough
// to fit a requested allocation. Freed ranges are never reused, so the only recovery is a new pool.
var ErrOutOfPoolMemory error = errors.New("pool does not have enough space remaining for the allocation")
