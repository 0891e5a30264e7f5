package pool

import (
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
)

// CreateOptions describes a pool. The memory type is chosen once, when the pool is created, as
// the first type permitted by MemoryTypeBits whose property flags contain RequiredFlags.
type CreateOptions struct {
	Flags CreateFlags
	// Size is the size in bytes of the pool's single device memory allocation
	Size int

	RequiredFlags core1_0.MemoryPropertyFlags
	// MemoryTypeBits restricts the memory types the pool may use. 0 permits every type.
	MemoryTypeBits uint32

	VulkanCallbacks *driver.AllocationCallbacks
}

// Request describes a single suballocation
type Request struct {
	Size int
	// Alignment is the required alignment of the returned offset. 0 and 1 both mean that the
	// allocation is placed exactly at the cursor.
	Alignment uint
}
