package vulkan

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_2"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"
	khr_buffer_device_address_shim "github.com/vkngwrapper/extensions/v2/khr_buffer_device_address/shim"
	"github.com/vkngwrapper/rtkit/khr_acceleration_structure"
	"github.com/vkngwrapper/rtkit/khr_ray_tracing_pipeline"
)

type ExtensionData struct {
	BufferDeviceAddress   khr_buffer_device_address_shim.Shim
	AccelerationStructure bool
	RayTracingPipeline    bool
}

func NewExtensionData(device core1_0.Device) *ExtensionData {
	data := &ExtensionData{}

	device12 := core1_2.PromoteDevice(device)
	if device12 != nil {
		// Core 1.2 active - that means we can use khr_buffer_device_address
		data.BufferDeviceAddress = device12
	}

	// khr_buffer_device_address if core 1.2 is not active
	if data.BufferDeviceAddress == nil && device.IsDeviceExtensionActive(khr_buffer_device_address.ExtensionName) {
		extension := khr_buffer_device_address.CreateExtensionFromDevice(device)
		data.BufferDeviceAddress = khr_buffer_device_address_shim.NewShim(extension, device)
	}

	data.AccelerationStructure = device.IsDeviceExtensionActive(khr_acceleration_structure.ExtensionName)
	data.RayTracingPipeline = device.IsDeviceExtensionActive(khr_ray_tracing_pipeline.ExtensionName)

	return data
}

// CheckRayTracing returns an error naming the first capability the device is missing
func (d *ExtensionData) CheckRayTracing() error {
	if d.BufferDeviceAddress == nil {
		return errors.Newf("ray tracing requires core 1.2 or %s", khr_buffer_device_address.ExtensionName)
	}
	if !d.AccelerationStructure {
		return errors.Newf("ray tracing requires %s", khr_acceleration_structure.ExtensionName)
	}
	if !d.RayTracingPipeline {
		return errors.Newf("ray tracing requires %s", khr_ray_tracing_pipeline.ExtensionName)
	}
	return nil
}
