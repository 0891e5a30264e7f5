package khr_acceleration_structure

import (
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
)

type AccelerationStructureType int32

var accelerationStructureTypeMapping = make(map[AccelerationStructureType]string)

func (e AccelerationStructureType) Register(str string) {
	accelerationStructureTypeMapping[e] = str
}

func (e AccelerationStructureType) String() string {
	return accelerationStructureTypeMapping[e]
}

type BuildType int32

var buildTypeMapping = make(map[BuildType]string)

func (e BuildType) Register(str string) {
	buildTypeMapping[e] = str
}

func (e BuildType) String() string {
	return buildTypeMapping[e]
}

type BuildMode int32

var buildModeMapping = make(map[BuildMode]string)

func (e BuildMode) Register(str string) {
	buildModeMapping[e] = str
}

func (e BuildMode) String() string {
	return buildModeMapping[e]
}

type GeometryType int32

var geometryTypeMapping = make(map[GeometryType]string)

func (e GeometryType) Register(str string) {
	geometryTypeMapping[e] = str
}

func (e GeometryType) String() string {
	return geometryTypeMapping[e]
}

type BuildFlags int32

var buildFlagsMapping = common.NewFlagStringMapping[BuildFlags]()

func (f BuildFlags) Register(str string) {
	buildFlagsMapping.Register(f, str)
}

func (f BuildFlags) String() string {
	return buildFlagsMapping.FlagsToString(f)
}

type GeometryFlags int32

var geometryFlagsMapping = common.NewFlagStringMapping[GeometryFlags]()

func (f GeometryFlags) Register(str string) {
	geometryFlagsMapping.Register(f, str)
}

func (f GeometryFlags) String() string {
	return geometryFlagsMapping.FlagsToString(f)
}

// GeometryInstanceFlags occupy the top 8 bits of the instance's second packed word, so only
// the low 8 bits are meaningful
type GeometryInstanceFlags int32

var geometryInstanceFlagsMapping = common.NewFlagStringMapping[GeometryInstanceFlags]()

func (f GeometryInstanceFlags) Register(str string) {
	geometryInstanceFlagsMapping.Register(f, str)
}

func (f GeometryInstanceFlags) String() string {
	return geometryInstanceFlagsMapping.FlagsToString(f)
}

const (
	AccelerationStructureTypeTopLevel    AccelerationStructureType = 0
	AccelerationStructureTypeBottomLevel AccelerationStructureType = 1
	AccelerationStructureTypeGeneric     AccelerationStructureType = 2

	BuildTypeHost         BuildType = 0
	BuildTypeDevice       BuildType = 1
	BuildTypeHostOrDevice BuildType = 2

	BuildModeBuild  BuildMode = 0
	BuildModeUpdate BuildMode = 1

	GeometryTypeTriangles GeometryType = 0
	GeometryTypeAABBs     GeometryType = 1
	GeometryTypeInstances GeometryType = 2

	BuildAllowUpdate     BuildFlags = 0x00000001
	BuildAllowCompaction BuildFlags = 0x00000002
	BuildPreferFastTrace BuildFlags = 0x00000004
	BuildPreferFastBuild BuildFlags = 0x00000008
	BuildLowMemory       BuildFlags = 0x00000010

	GeometryOpaque                      GeometryFlags = 0x00000001
	GeometryNoDuplicateAnyHitInvocation GeometryFlags = 0x00000002

	GeometryInstanceTriangleFacingCullDisable GeometryInstanceFlags = 0x00000001
	GeometryInstanceTriangleFlipFacing        GeometryInstanceFlags = 0x00000002
	GeometryInstanceForceOpaque               GeometryInstanceFlags = 0x00000004
	GeometryInstanceForceNoOpaque             GeometryInstanceFlags = 0x00000008

	BufferUsageAccelerationStructureBuildInputReadOnly core1_0.BufferUsageFlags = 0x00080000
	BufferUsageAccelerationStructureStorage            core1_0.BufferUsageFlags = 0x00100000

	// IndexTypeNone marks triangle geometry that is not indexed
	IndexTypeNone core1_0.IndexType = 1000165000

	// AABBStride is the tightly packed size of a VkAabbPositionsKHR: two float32 corners of three components
	AABBStride int = 24
)

func init() {
	AccelerationStructureTypeTopLevel.Register("Top Level")
	AccelerationStructureTypeBottomLevel.Register("Bottom Level")
	AccelerationStructureTypeGeneric.Register("Generic")

	BuildTypeHost.Register("Host")
	BuildTypeDevice.Register("Device")
	BuildTypeHostOrDevice.Register("Host Or Device")

	BuildModeBuild.Register("Build")
	BuildModeUpdate.Register("Update")

	GeometryTypeTriangles.Register("Triangles")
	GeometryTypeAABBs.Register("AABBs")
	GeometryTypeInstances.Register("Instances")

	BuildAllowUpdate.Register("Allow Update")
	BuildAllowCompaction.Register("Allow Compaction")
	BuildPreferFastTrace.Register("Prefer Fast Trace")
	BuildPreferFastBuild.Register("Prefer Fast Build")
	BuildLowMemory.Register("Low Memory")

	GeometryOpaque.Register("Opaque")
	GeometryNoDuplicateAnyHitInvocation.Register("No Duplicate Any-Hit Invocation")

	GeometryInstanceTriangleFacingCullDisable.Register("Triangle Facing Cull Disable")
	GeometryInstanceTriangleFlipFacing.Register("Triangle Flip Facing")
	GeometryInstanceForceOpaque.Register("Force Opaque")
	GeometryInstanceForceNoOpaque.Register("Force No Opaque")

	BufferUsageAccelerationStructureBuildInputReadOnly.Register("Acceleration Structure Build Input Read-Only")
	BufferUsageAccelerationStructureStorage.Register("Acceleration Structure Storage")
}

// GeometryTrianglesData describes triangle geometry through device addresses
type GeometryTrianglesData struct {
	VertexFormat core1_0.Format
	VertexData   uint64
	VertexStride int
	// MaxVertex is the highest vertex index that can be addressed by the build
	MaxVertex int
	IndexType core1_0.IndexType
	IndexData uint64
	// TransformData is the device address of a TransformMatrix, or 0 for identity
	TransformData uint64
}

// GeometryAABBsData describes procedural geometry as an array of axis-aligned boxes
type GeometryAABBsData struct {
	Data   uint64
	Stride int
}

// GeometryInstancesData points at an array of packed Instance records
type GeometryInstancesData struct {
	ArrayOfPointers bool
	Data            uint64
}

// Geometry is one geometry of a build. Only the data field matching Type is read.
type Geometry struct {
	Type  GeometryType
	Flags GeometryFlags

	Triangles GeometryTrianglesData
	AABBs     GeometryAABBsData
	Instances GeometryInstancesData
}

type BuildGeometryInfo struct {
	Type  AccelerationStructureType
	Flags BuildFlags
	Mode  BuildMode

	SrcAccelerationStructure AccelerationStructure
	DstAccelerationStructure AccelerationStructure

	Geometries  []Geometry
	ScratchData uint64
}

type BuildRangeInfo struct {
	PrimitiveCount  int
	PrimitiveOffset int
	FirstVertex     int
	TransformOffset int
}

type BuildSizesInfo struct {
	AccelerationStructureSize int
	UpdateScratchSize         int
	BuildScratchSize          int
}

type CreateInfo struct {
	Buffer core1_0.Buffer
	Offset int
	Size   int
	Type   AccelerationStructureType
}
