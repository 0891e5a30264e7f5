//go:build debug_mem_utils

package memutils

// DebugValidate panics if validatable reports an inconsistency. Only built with the
// debug_mem_utils build tag.
func DebugValidate(validatable Validatable) {
	if err := validatable.Validate(); err != nil {
		panic(err)
	}
}
