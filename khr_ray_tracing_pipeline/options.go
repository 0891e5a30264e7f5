package khr_ray_tracing_pipeline

import (
	"github.com/vkngwrapper/core/v2/core1_0"
)

type ShaderGroupType int32

var shaderGroupTypeMapping = make(map[ShaderGroupType]string)

func (e ShaderGroupType) Register(str string) {
	shaderGroupTypeMapping[e] = str
}

func (e ShaderGroupType) String() string {
	return shaderGroupTypeMapping[e]
}

const (
	ShaderGroupTypeGeneral            ShaderGroupType = 0
	ShaderGroupTypeTrianglesHitGroup  ShaderGroupType = 1
	ShaderGroupTypeProceduralHitGroup ShaderGroupType = 2

	// ShaderUnused marks an unused shader slot in a ShaderGroupCreateInfo
	ShaderUnused int = -1

	StageRaygen       core1_0.ShaderStageFlags = 0x00000100
	StageAnyHit       core1_0.ShaderStageFlags = 0x00000200
	StageClosestHit   core1_0.ShaderStageFlags = 0x00000400
	StageMiss         core1_0.ShaderStageFlags = 0x00000800
	StageIntersection core1_0.ShaderStageFlags = 0x00001000
	StageCallable     core1_0.ShaderStageFlags = 0x00002000

	PipelineBindPointRayTracing core1_0.PipelineBindPoint = 1000165000

	PipelineStageRayTracingShader core1_0.PipelineStageFlags = 0x00200000

	BufferUsageShaderBindingTable core1_0.BufferUsageFlags = 0x00000400
)

func init() {
	ShaderGroupTypeGeneral.Register("General")
	ShaderGroupTypeTrianglesHitGroup.Register("Triangles Hit Group")
	ShaderGroupTypeProceduralHitGroup.Register("Procedural Hit Group")

	StageRaygen.Register("Raygen")
	StageAnyHit.Register("Any Hit")
	StageClosestHit.Register("Closest Hit")
	StageMiss.Register("Miss")
	StageIntersection.Register("Intersection")
	StageCallable.Register("Callable")

	PipelineBindPointRayTracing.Register("Ray Tracing")
	PipelineStageRayTracingShader.Register("Ray Tracing Shader")
	BufferUsageShaderBindingTable.Register("Shader Binding Table")
}

// ShaderGroupCreateInfo references stages of a PipelineCreateInfo by index. Unused slots hold
// ShaderUnused.
type ShaderGroupCreateInfo struct {
	Type               ShaderGroupType
	GeneralShader      int
	ClosestHitShader   int
	AnyHitShader       int
	IntersectionShader int
}

type PipelineCreateInfo struct {
	Flags  core1_0.PipelineCreateFlags
	Stages []core1_0.PipelineShaderStageCreateInfo
	Groups []ShaderGroupCreateInfo

	MaxPipelineRayRecursionDepth int
	Layout                       core1_0.PipelineLayout
}

type PhysicalDeviceRayTracingPipelineProperties struct {
	ShaderGroupHandleSize              int
	MaxRayRecursionDepth               int
	MaxShaderGroupStride               int
	ShaderGroupBaseAlignment           int
	ShaderGroupHandleCaptureReplaySize int
	MaxRayDispatchInvocationCount      int
	ShaderGroupHandleAlignment         int
	MaxRayHitAttributeSize             int
}

// StridedDeviceAddressRegion is one region of a shader binding table as consumed by CmdTraceRays.
// The zero value is an empty region.
type StridedDeviceAddressRegion struct {
	DeviceAddress uint64
	Stride        int
	Size          int
}
