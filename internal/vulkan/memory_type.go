package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
)

// FindMemoryTypeIndex returns the first memory type allowed by memoryTypeBits whose property flags
// contain every flag in requiredFlags. Nothing is ranked: the earliest compatible type wins.
func FindMemoryTypeIndex(memoryProperties *core1_0.PhysicalDeviceMemoryProperties, memoryTypeBits uint32, requiredFlags core1_0.MemoryPropertyFlags) (int, error) {
	for memTypeIndex, memoryType := range memoryProperties.MemoryTypes {
		memTypeBit := uint32(1) << memTypeIndex
		if memTypeBit&memoryTypeBits == 0 {
			continue
		}

		if memoryType.PropertyFlags&requiredFlags == requiredFlags {
			return memTypeIndex, nil
		}
	}

	return -1, errors.Wrapf(core1_0.VKErrorFeatureNotPresent.ToError(), "no memory type in mask %#x has the property flags %s", memoryTypeBits, requiredFlags)
}
