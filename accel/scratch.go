package accel

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"
	"github.com/vkngwrapper/rtkit/buffers"
	"github.com/vkngwrapper/rtkit/memutils"
)

// scratchBuffer is the temporary device memory a single build works in. It is created right
// before the build is recorded and destroyed as soon as the build completes.
type scratchBuffer struct {
	resource buffers.Resource
	address  uint64
}

func (b *Builder) createScratch(name string, size int) (*scratchBuffer, error) {
	if size <= 0 {
		return nil, errors.Newf("acceleration structure %s reported scratch size %d", name, size)
	}

	alignment := b.options.ScratchAlignment
	if alignment > 1 {
		err := memutils.CheckPow2(alignment, "scratch alignment")
		if err != nil {
			return nil, err
		}
		// Room to move the start up to the next aligned address
		size += alignment - 1
	}

	resource, err := b.buffers.CreateTransientDeviceBuffer(name+" scratch", size,
		core1_0.BufferUsageStorageBuffer|khr_buffer_device_address.BufferUsageShaderDeviceAddress)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create scratch buffer for acceleration structure %s", name)
	}

	address := resource.DeviceAddress()
	if alignment > 1 {
		address = memutils.AlignUp(address, uint64(alignment))
	}

	return &scratchBuffer{
		resource: resource,
		address:  address,
	}, nil
}

func (s *scratchBuffer) Destroy() error {
	return s.resource.Destroy()
}
