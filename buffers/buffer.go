package buffers

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/rtkit/internal/vulkan"
	"github.com/vkngwrapper/rtkit/pool"
	"golang.org/x/exp/slog"
)

// Resource is a buffer bound to device memory that acceleration structure and shader binding
// table builders can consume
type Resource interface {
	VulkanBuffer() core1_0.Buffer
	Size() int
	// DeviceAddress returns the buffer's device address, or 0 if it was created without
	// khr_buffer_device_address.BufferUsageShaderDeviceAddress
	DeviceAddress() uint64
	// Write copies data into host visible memory at offset bytes into the buffer
	Write(offset int, data []byte) error
	Destroy() error
}

// Source creates Resource objects
type Source interface {
	// CreateDeviceBuffer creates a buffer in device-local memory
	CreateDeviceBuffer(name string, size int, usage core1_0.BufferUsageFlags) (Resource, error)
	// CreateHostBuffer creates a buffer in host visible, host coherent memory that is persistently
	// mapped
	CreateHostBuffer(name string, size int, usage core1_0.BufferUsageFlags) (Resource, error)

	// CreateTransientDeviceBuffer creates a device-local buffer with its own memory, which is
	// returned to the device on Destroy. Pools never reclaim space, so buffers that only live
	// for one build use this instead of CreateDeviceBuffer.
	CreateTransientDeviceBuffer(name string, size int, usage core1_0.BufferUsageFlags) (Resource, error)
	// CreateTransientHostBuffer is the host visible counterpart of CreateTransientDeviceBuffer
	CreateTransientHostBuffer(name string, size int, usage core1_0.BufferUsageFlags) (Resource, error)
}

// Buffer is a core1_0.Buffer together with the memory it is bound to: either a suballocation of
// a pool.Pool or a dedicated device memory allocation
type Buffer struct {
	logger *slog.Logger
	name   string

	buffer core1_0.Buffer
	size   int
	usage  core1_0.BufferUsageFlags

	parentPool *pool.Pool
	dedicated  *vulkan.SynchronizedMemory
	offset     int

	deviceAddress uint64
	mappedData    unsafe.Pointer

	allocationCallbacks *driver.AllocationCallbacks
	destroyed           bool
}

var _ Resource = &Buffer{}

func (b *Buffer) Name() string {
	return b.name
}

func (b *Buffer) VulkanBuffer() core1_0.Buffer {
	return b.buffer
}

func (b *Buffer) Size() int {
	return b.size
}

func (b *Buffer) Usage() core1_0.BufferUsageFlags {
	return b.usage
}

// Offset returns the buffer's offset within the memory it is bound to
func (b *Buffer) Offset() int {
	return b.offset
}

func (b *Buffer) DeviceAddress() uint64 {
	return b.deviceAddress
}

// IsDedicated returns true if the buffer owns its device memory
func (b *Buffer) IsDedicated() bool {
	return b.dedicated != nil
}

// MappedData returns a pointer to the start of the buffer in host memory, or nil if the buffer
// is not host visible
func (b *Buffer) MappedData() unsafe.Pointer {
	return b.mappedData
}

func (b *Buffer) Write(offset int, data []byte) error {
	if b.destroyed {
		return errors.Newf("attempted to write to buffer %s after it was destroyed", b.name)
	}
	if b.mappedData == nil {
		return errors.Newf("attempted to write to buffer %s, which is not host visible", b.name)
	}
	if offset < 0 || offset+len(data) > b.size {
		return errors.Newf("write of %d bytes at offset %d overruns buffer %s of size %d", len(data), offset, b.name, b.size)
	}

	target := unsafe.Slice((*byte)(b.mappedData), b.size)
	copy(target[offset:], data)
	return nil
}

// Destroy destroys the vulkan buffer and releases its memory. Pool suballocations are forgotten
// but, as with every pool allocation, their space is not reclaimed.
func (b *Buffer) Destroy() error {
	b.logger.Debug("Buffer::Destroy", slog.String("Name", b.name))

	if b.destroyed {
		return errors.Newf("buffer %s was already destroyed", b.name)
	}
	b.destroyed = true

	var err error
	if b.parentPool != nil {
		err = b.parentPool.Free(b.buffer)
	}

	b.buffer.Destroy(b.allocationCallbacks)

	if b.dedicated != nil {
		b.dedicated.FreeMemory()
	}

	b.mappedData = nil
	return err
}
