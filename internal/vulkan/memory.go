package vulkan

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/rtkit/internal/utils"
)

// SynchronizedMemory is a single device memory allocation that may be persistently mapped.
// Binding and mapping are serialized through an OptionalMutex.
type SynchronizedMemory struct {
	mapData unsafe.Pointer

	mapMutex        utils.OptionalMutex
	memory          core1_0.DeviceMemory
	size            int
	memoryTypeIndex int

	allocationCallbacks *driver.AllocationCallbacks
}

func AllocateSynchronizedMemory(device core1_0.Device, useMutex bool, callbacks *driver.AllocationCallbacks, allocateInfo core1_0.MemoryAllocateInfo) (*SynchronizedMemory, common.VkResult, error) {
	memory, res, err := device.AllocateMemory(callbacks, allocateInfo)
	if err != nil {
		return nil, res, err
	}

	return &SynchronizedMemory{
		memory: memory,
		mapMutex: utils.OptionalMutex{
			UseMutex: useMutex,
		},
		size:                allocateInfo.AllocationSize,
		memoryTypeIndex:     allocateInfo.MemoryTypeIndex,
		allocationCallbacks: callbacks,
	}, res, nil
}

func (m *SynchronizedMemory) VulkanDeviceMemory() core1_0.DeviceMemory {
	return m.memory
}

func (m *SynchronizedMemory) Size() int {
	return m.size
}

func (m *SynchronizedMemory) MemoryTypeIndex() int {
	return m.memoryTypeIndex
}

func (m *SynchronizedMemory) BindVulkanBuffer(offset int, buffer core1_0.Buffer) (common.VkResult, error) {
	m.mapMutex.Lock()
	defer m.mapMutex.Unlock()

	return buffer.BindBufferMemory(m.memory, offset)
}

// Map maps the whole allocation. The mapping persists until Unmap or FreeMemory, and repeated
// calls return the existing pointer.
func (m *SynchronizedMemory) Map() (unsafe.Pointer, common.VkResult, error) {
	m.mapMutex.Lock()
	defer m.mapMutex.Unlock()

	if m.mapData != nil {
		return m.mapData, core1_0.VKSuccess, nil
	}

	mappedData, result, err := m.memory.Map(0, common.WholeSize, 0)
	if err != nil {
		return nil, result, err
	}
	if mappedData == nil {
		return nil, core1_0.VKErrorMemoryMapFailed, errors.New("device memory was mapped but the driver returned no pointer")
	}

	m.mapData = mappedData
	return mappedData, result, nil
}

func (m *SynchronizedMemory) MappedData() unsafe.Pointer {
	return m.mapData
}

func (m *SynchronizedMemory) Unmap() {
	m.mapMutex.Lock()
	defer m.mapMutex.Unlock()

	if m.mapData != nil {
		m.memory.Unmap()
		m.mapData = nil
	}
}

// FreeMemory unmaps the memory if necessary and releases it to the device
func (m *SynchronizedMemory) FreeMemory() {
	m.mapMutex.Lock()
	defer m.mapMutex.Unlock()

	if m.mapData != nil {
		m.memory.Unmap()
		m.mapData = nil
	}

	m.memory.Free(m.allocationCallbacks)
}
