//go:build !debug_mem_utils

package memutils

// DebugValidate is a no-op without the debug_mem_utils build tag
func DebugValidate(validatable Validatable) {
}
