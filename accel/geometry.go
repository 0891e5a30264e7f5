package accel

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/rtkit/khr_acceleration_structure"
)

// Geometry is one geometry of a bottom-level acceleration structure
type Geometry interface {
	describe() (khr_acceleration_structure.Geometry, int, error)
}

// Triangles is triangle geometry read from device memory. Every three indices, or every three
// vertices when IndexAddress is 0, form one triangle.
type Triangles struct {
	VertexAddress uint64
	// VertexFormat defaults to core1_0.FormatR32G32B32SignedFloat
	VertexFormat core1_0.Format
	VertexStride int
	VertexCount  int

	IndexAddress uint64
	// IndexType defaults to core1_0.IndexTypeUInt32
	IndexType  core1_0.IndexType
	IndexCount int

	// TransformAddress is the device address of a khr_acceleration_structure.TransformMatrix, or 0
	TransformAddress uint64
	// Flags defaults to khr_acceleration_structure.GeometryOpaque
	Flags khr_acceleration_structure.GeometryFlags
}

func (t Triangles) describe() (khr_acceleration_structure.Geometry, int, error) {
	if t.VertexAddress == 0 {
		return khr_acceleration_structure.Geometry{}, 0, errors.New("triangle geometry has no vertex address")
	}
	if t.VertexCount <= 0 || t.VertexStride <= 0 {
		return khr_acceleration_structure.Geometry{}, 0, errors.Newf("triangle geometry has %d vertices of stride %d", t.VertexCount, t.VertexStride)
	}

	vertexFormat := t.VertexFormat
	if vertexFormat == 0 {
		vertexFormat = core1_0.FormatR32G32B32SignedFloat
	}

	indexType := khr_acceleration_structure.IndexTypeNone
	primitiveCount := t.VertexCount / 3
	if t.IndexAddress != 0 {
		indexType = t.IndexType
		if indexType == 0 {
			indexType = core1_0.IndexTypeUInt32
		}
		primitiveCount = t.IndexCount / 3
	}

	if primitiveCount == 0 {
		return khr_acceleration_structure.Geometry{}, 0, errors.New("triangle geometry contains no complete triangles")
	}

	flags := t.Flags
	if flags == 0 {
		flags = khr_acceleration_structure.GeometryOpaque
	}

	return khr_acceleration_structure.Geometry{
		Type:  khr_acceleration_structure.GeometryTypeTriangles,
		Flags: flags,
		Triangles: khr_acceleration_structure.GeometryTrianglesData{
			VertexFormat:  vertexFormat,
			VertexData:    t.VertexAddress,
			VertexStride:  t.VertexStride,
			MaxVertex:     t.VertexCount - 1,
			IndexType:     indexType,
			IndexData:     t.IndexAddress,
			TransformData: t.TransformAddress,
		},
	}, primitiveCount, nil
}

// AABBs is procedural geometry: an array of axis-aligned bounding boxes in device memory, each
// of which is tested with the hit group's intersection shader
type AABBs struct {
	Address uint64
	// Stride defaults to khr_acceleration_structure.AABBStride
	Stride int
	Count  int
	// Flags defaults to khr_acceleration_structure.GeometryOpaque
	Flags khr_acceleration_structure.GeometryFlags
}

func (a AABBs) describe() (khr_acceleration_structure.Geometry, int, error) {
	if a.Address == 0 {
		return khr_acceleration_structure.Geometry{}, 0, errors.New("aabb geometry has no address")
	}
	if a.Count <= 0 {
		return khr_acceleration_structure.Geometry{}, 0, errors.Newf("aabb geometry has %d boxes", a.Count)
	}

	stride := a.Stride
	if stride == 0 {
		stride = khr_acceleration_structure.AABBStride
	}
	if stride%8 != 0 {
		return khr_acceleration_structure.Geometry{}, 0, errors.Newf("aabb stride %d is not a multiple of 8", stride)
	}

	flags := a.Flags
	if flags == 0 {
		flags = khr_acceleration_structure.GeometryOpaque
	}

	return khr_acceleration_structure.Geometry{
		Type:  khr_acceleration_structure.GeometryTypeAABBs,
		Flags: flags,
		AABBs: khr_acceleration_structure.GeometryAABBsData{
			Data:   a.Address,
			Stride: stride,
		},
	}, a.Count, nil
}

// Instance places a built bottom-level structure in a top-level structure
type Instance struct {
	BottomLevel *AccelerationStructure
	Transform   khr_acceleration_structure.TransformMatrix
	CustomIndex int
	Mask        uint8
	// HitGroupOffset selects the instance's hit group in the shader binding table
	HitGroupOffset int
	Flags          khr_acceleration_structure.GeometryInstanceFlags
}

// NewInstance returns an instance of bottomLevel with an identity transform that is visible to
// every ray and has triangle facing culling disabled
func NewInstance(bottomLevel *AccelerationStructure) Instance {
	return Instance{
		BottomLevel: bottomLevel,
		Transform:   khr_acceleration_structure.IdentityTransform(),
		Mask:        0xFF,
		Flags:       khr_acceleration_structure.GeometryInstanceTriangleFacingCullDisable,
	}
}
