package buffers

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_1"
	"github.com/vkngwrapper/core/v2/core1_2"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"
	"github.com/vkngwrapper/rtkit/internal/vulkan"
	"github.com/vkngwrapper/rtkit/pool"
	"golang.org/x/exp/slog"
)

// DeviceAddresser retrieves buffer device addresses. Both core1_2.Device and the
// khr_buffer_device_address shim satisfy it.
type DeviceAddresser interface {
	GetBufferDeviceAddress(o core1_2.BufferDeviceAddressInfo) (uint64, error)
}

type FactoryOptions struct {
	// DevicePool, when set, holds every buffer created by CreateDeviceBuffer. Otherwise each
	// device buffer receives dedicated device-local memory.
	DevicePool *pool.Pool
	// HostPool, when set, holds every buffer created by CreateHostBuffer. It must have been
	// created with pool.CreateMapped.
	HostPool *pool.Pool

	// DeviceAddresses is required to create buffers with BufferUsageShaderDeviceAddress
	DeviceAddresses DeviceAddresser

	VulkanCallbacks *driver.AllocationCallbacks
}

// Factory creates Buffer objects
type Factory struct {
	logger         *slog.Logger
	device         core1_0.Device
	physicalDevice core1_0.PhysicalDevice
	options        FactoryOptions
}

var _ Source = &Factory{}

func NewFactory(logger *slog.Logger, device core1_0.Device, physicalDevice core1_0.PhysicalDevice, options FactoryOptions) (*Factory, error) {
	if options.HostPool != nil && options.HostPool.MappedData(0) == nil {
		return nil, errors.New("the host pool must be created with pool.CreateMapped")
	}

	return &Factory{
		logger:         logger,
		device:         device,
		physicalDevice: physicalDevice,
		options:        options,
	}, nil
}

func (f *Factory) CreateDeviceBuffer(name string, size int, usage core1_0.BufferUsageFlags) (Resource, error) {
	f.logger.Debug("Factory::CreateDeviceBuffer")

	buffer, _, err := f.CreateBuffer(name, size, usage, core1_0.MemoryPropertyDeviceLocal, f.options.DevicePool)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

func (f *Factory) CreateHostBuffer(name string, size int, usage core1_0.BufferUsageFlags) (Resource, error) {
	f.logger.Debug("Factory::CreateHostBuffer")

	buffer, _, err := f.CreateBuffer(name, size, usage, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent, f.options.HostPool)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

func (f *Factory) CreateTransientDeviceBuffer(name string, size int, usage core1_0.BufferUsageFlags) (Resource, error) {
	f.logger.Debug("Factory::CreateTransientDeviceBuffer")

	buffer, _, err := f.CreateBuffer(name, size, usage, core1_0.MemoryPropertyDeviceLocal, nil)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

func (f *Factory) CreateTransientHostBuffer(name string, size int, usage core1_0.BufferUsageFlags) (Resource, error) {
	f.logger.Debug("Factory::CreateTransientHostBuffer")

	buffer, _, err := f.CreateBuffer(name, size, usage, core1_0.MemoryPropertyHostVisible|core1_0.MemoryPropertyHostCoherent, nil)
	if err != nil {
		return nil, err
	}
	return buffer, nil
}

// CreateBuffer creates a buffer and binds it either into targetPool or, if targetPool is nil, into
// a dedicated allocation of the first memory type with requiredFlags
func (f *Factory) CreateBuffer(name string, size int, usage core1_0.BufferUsageFlags, requiredFlags core1_0.MemoryPropertyFlags, targetPool *pool.Pool) (*Buffer, common.VkResult, error) {
	if size <= 0 {
		return nil, core1_0.VKErrorUnknown, errors.Newf("buffer %s must have a positive size but was %d", name, size)
	}

	needsAddress := usage&khr_buffer_device_address.BufferUsageShaderDeviceAddress != 0
	if needsAddress && f.options.DeviceAddresses == nil {
		return nil, core1_0.VKErrorExtensionNotPresent, errors.Newf("buffer %s uses BufferUsageShaderDeviceAddress, but khr_buffer_device_address is not loaded", name)
	}
	if needsAddress && targetPool != nil && targetPool.Flags()&pool.CreateDeviceAddress == 0 {
		return nil, core1_0.VKErrorFeatureNotPresent, errors.Newf("buffer %s uses BufferUsageShaderDeviceAddress, but its pool was not created with pool.CreateDeviceAddress", name)
	}

	vkBuffer, res, err := f.device.CreateBuffer(f.options.VulkanCallbacks, core1_0.BufferCreateInfo{
		Size:        size,
		Usage:       usage,
		SharingMode: core1_0.SharingModeExclusive,
	})
	if err != nil {
		return nil, res, errors.Wrapf(err, "failed to create buffer %s", name)
	}

	buffer := &Buffer{
		logger:              f.logger,
		name:                name,
		buffer:              vkBuffer,
		size:                size,
		usage:               usage,
		allocationCallbacks: f.options.VulkanCallbacks,
	}

	if targetPool != nil {
		res, err = f.bindToPool(buffer, targetPool)
	} else {
		res, err = f.bindDedicated(buffer, requiredFlags, needsAddress)
	}
	if err != nil {
		vkBuffer.Destroy(f.options.VulkanCallbacks)
		return nil, res, errors.Wrapf(err, "failed to bind buffer %s", name)
	}

	if needsAddress {
		buffer.deviceAddress, err = f.options.DeviceAddresses.GetBufferDeviceAddress(core1_2.BufferDeviceAddressInfo{
			Buffer: vkBuffer,
		})
		if err != nil {
			_ = buffer.Destroy()
			return nil, core1_0.VKErrorUnknown, errors.Wrapf(err, "failed to get the device address of buffer %s", name)
		}
	}

	f.logger.Debug("Buffer created",
		slog.String("Name", name),
		slog.Int("Size", size),
		slog.String("Usage", usage.String()),
		slog.Bool("Dedicated", buffer.IsDedicated()),
		slog.Int("Offset", buffer.offset),
	)

	return buffer, res, nil
}

func (f *Factory) bindToPool(buffer *Buffer, targetPool *pool.Pool) (common.VkResult, error) {
	offset, res, err := targetPool.AllocateForBuffer(buffer.buffer)
	if err != nil {
		return res, err
	}

	buffer.parentPool = targetPool
	buffer.offset = offset
	buffer.mappedData = targetPool.MappedData(offset)
	return res, nil
}

func (f *Factory) bindDedicated(buffer *Buffer, requiredFlags core1_0.MemoryPropertyFlags, needsAddress bool) (common.VkResult, error) {
	requirements := buffer.buffer.MemoryRequirements()

	memoryTypeIndex, err := vulkan.FindMemoryTypeIndex(f.physicalDevice.MemoryProperties(), requirements.MemoryTypeBits, requiredFlags)
	if err != nil {
		return core1_0.VKErrorFeatureNotPresent, err
	}

	allocateInfo := core1_0.MemoryAllocateInfo{
		AllocationSize:  requirements.Size,
		MemoryTypeIndex: memoryTypeIndex,
	}
	if needsAddress {
		allocateInfo.Next = core1_1.MemoryAllocateFlagsInfo{
			Flags: core1_2.MemoryAllocateDeviceAddress,
		}
	}

	memory, res, err := vulkan.AllocateSynchronizedMemory(f.device, false, f.options.VulkanCallbacks, allocateInfo)
	if err != nil {
		return res, err
	}

	res, err = memory.BindVulkanBuffer(0, buffer.buffer)
	if err != nil {
		memory.FreeMemory()
		return res, err
	}

	if requiredFlags&core1_0.MemoryPropertyHostVisible != 0 {
		buffer.mappedData, res, err = memory.Map()
		if err != nil {
			memory.FreeMemory()
			return res, err
		}
	}

	buffer.dedicated = memory
	return res, nil
}
