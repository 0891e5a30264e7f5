// Package khr_ray_tracing_pipeline declares the subset of VK_KHR_ray_tracing_pipeline used by this
// module. vkngwrapper/extensions v2 does not wrap it, so the Extension implementation comes from
// the application: a loader that resolves vkCreateRayTracingPipelinesKHR, vkCmdTraceRaysKHR and
// the rest through vkGetDeviceProcAddr on the device the extension was enabled for. Tests use the
// gomock implementation in ./mocks.
package khr_ray_tracing_pipeline

//go:generate mockgen -source extension.go -destination ./mocks/extension.go -package mock_ray_tracing_pipeline

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
)

// ExtensionName is "VK_KHR_ray_tracing_pipeline"
const ExtensionName string = "VK_KHR_ray_tracing_pipeline"

// Extension contains all the commands for the khr_ray_tracing_pipeline extension that this
// module issues. Implementations are expected to be loaded from the device's proc addresses.
type Extension interface {
	PhysicalDeviceRayTracingPipelineProperties(physicalDevice core1_0.PhysicalDevice) (*PhysicalDeviceRayTracingPipelineProperties, error)
	CreateRayTracingPipelines(device core1_0.Device, pipelineCache core1_0.PipelineCache, allocationCallbacks *driver.AllocationCallbacks, o []PipelineCreateInfo) ([]core1_0.Pipeline, common.VkResult, error)
	// RayTracingShaderGroupHandles retrieves groupCount opaque handles starting at firstGroup,
	// tightly packed into dataSize bytes
	RayTracingShaderGroupHandles(device core1_0.Device, pipeline core1_0.Pipeline, firstGroup, groupCount, dataSize int) ([]byte, common.VkResult, error)
	CmdTraceRays(commandBuffer core1_0.CommandBuffer, raygen, miss, hit, callable StridedDeviceAddressRegion, width, height, depth int)
}
