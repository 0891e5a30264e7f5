// Package khr_acceleration_structure declares the subset of VK_KHR_acceleration_structure used by
// this module. vkngwrapper/extensions v2 does not wrap it, so the Extension implementation comes
// from the application: a loader that resolves vkCreateAccelerationStructureKHR,
// vkCmdBuildAccelerationStructuresKHR and the rest through vkGetDeviceProcAddr on the device the
// extension was enabled for. Tests use the gomock implementation in ./mocks.
package khr_acceleration_structure

//go:generate mockgen -source extension.go -destination ./mocks/extension.go -package mock_acceleration_structure

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
)

// ExtensionName is "VK_KHR_acceleration_structure"
const ExtensionName string = "VK_KHR_acceleration_structure"

// AccelerationStructureHandle is the raw VkAccelerationStructureKHR handle
type AccelerationStructureHandle uint64

// AccelerationStructure is an opaque acceleration structure object created by an Extension
type AccelerationStructure interface {
	Handle() AccelerationStructureHandle
}

// Extension contains all the commands for the khr_acceleration_structure extension that this
// module issues. Implementations are expected to be loaded from the device's proc addresses.
type Extension interface {
	// AccelerationStructureBuildSizes retrieves the size requirements for an acceleration structure
	// build. Only the structure type, flags and geometries of buildInfo are read.
	AccelerationStructureBuildSizes(device core1_0.Device, buildType BuildType, buildInfo BuildGeometryInfo, maxPrimitiveCounts []int) (BuildSizesInfo, error)
	CreateAccelerationStructure(device core1_0.Device, allocationCallbacks *driver.AllocationCallbacks, o CreateInfo) (AccelerationStructure, common.VkResult, error)
	DestroyAccelerationStructure(device core1_0.Device, accelerationStructure AccelerationStructure, allocationCallbacks *driver.AllocationCallbacks)
	AccelerationStructureDeviceAddress(device core1_0.Device, accelerationStructure AccelerationStructure) (uint64, error)
	// CmdBuildAccelerationStructures records builds into commandBuffer. rangeInfos must hold one
	// slice per entry of infos, each with one BuildRangeInfo per geometry.
	CmdBuildAccelerationStructures(commandBuffer core1_0.CommandBuffer, infos []BuildGeometryInfo, rangeInfos [][]BuildRangeInfo) error
}
