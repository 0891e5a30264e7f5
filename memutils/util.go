package memutils

import (
	cerrors "github.com/cockroachdb/errors"
)

type Number interface {
	~int | ~uint | ~uint32 | ~uint64
}

// IsPow2 reports whether number is a nonzero power of two
func IsPow2[T Number](number T) bool {
	return number != 0 && number&(number-1) == 0
}

func CheckPow2[T Number](number T, name string) error {
	if !IsPow2(number) {
		return cerrors.Wrapf(PowerOfTwoError, "%s is %d", name, number)
	}
	return nil
}

// AlignUp rounds value up to the next multiple of alignment. An alignment of 0 or 1 leaves
// value unchanged. alignment must otherwise be a power of two.
func AlignUp[T Number](value T, alignment T) T {
	if alignment <= 1 {
		return value
	}
	return (value + alignment - 1) & ^(alignment - 1)
}
