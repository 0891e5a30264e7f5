package khr_acceleration_structure

import (
	"encoding/binary"
	"math"

	"github.com/cockroachdb/errors"
)

// InstanceSize is the size in bytes of one packed VkAccelerationStructureInstanceKHR
const InstanceSize int = 64

const maxInstance24Bit = 1<<24 - 1

// TransformMatrix is a row-major 3x4 affine transform
type TransformMatrix [3][4]float32

// IdentityTransform returns a transform that leaves instance geometry in place
func IdentityTransform() TransformMatrix {
	return TransformMatrix{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
	}
}

// Instance places a bottom-level acceleration structure in a top-level acceleration structure
type Instance struct {
	Transform TransformMatrix
	// CustomIndex is exposed to shaders as InstanceCustomIndex, 24 bits
	CustomIndex int
	// Mask is ANDed with the cull mask of a ray, the instance is skipped when the result is 0
	Mask uint8
	// ShaderBindingTableRecordOffset is added to the hit group index, 24 bits
	ShaderBindingTableRecordOffset int
	Flags                          GeometryInstanceFlags
	// AccelerationStructureReference is the device address of the referenced bottom-level structure
	AccelerationStructureReference uint64
}

// AppendBinary appends the packed little-endian record for this instance to b
func (i Instance) AppendBinary(b []byte) ([]byte, error) {
	if i.CustomIndex < 0 || i.CustomIndex > maxInstance24Bit {
		return b, errors.Newf("instance custom index %d does not fit in 24 bits", i.CustomIndex)
	}
	if i.ShaderBindingTableRecordOffset < 0 || i.ShaderBindingTableRecordOffset > maxInstance24Bit {
		return b, errors.Newf("instance shader binding table record offset %d does not fit in 24 bits", i.ShaderBindingTableRecordOffset)
	}
	if i.Flags < 0 || i.Flags > 0xff {
		return b, errors.Newf("instance flags %s do not fit in 8 bits", i.Flags)
	}

	for row := 0; row < 3; row++ {
		for col := 0; col < 4; col++ {
			b = binary.LittleEndian.AppendUint32(b, math.Float32bits(i.Transform[row][col]))
		}
	}

	b = binary.LittleEndian.AppendUint32(b, uint32(i.CustomIndex)|uint32(i.Mask)<<24)
	b = binary.LittleEndian.AppendUint32(b, uint32(i.ShaderBindingTableRecordOffset)|uint32(i.Flags)<<24)
	b = binary.LittleEndian.AppendUint64(b, i.AccelerationStructureReference)

	return b, nil
}

// EncodeInstances packs a slice of instances back to back
func EncodeInstances(instances []Instance) ([]byte, error) {
	data := make([]byte, 0, len(instances)*InstanceSize)

	var err error
	for index, instance := range instances {
		data, err = instance.AppendBinary(data)
		if err != nil {
			return nil, errors.Wrapf(err, "instance %d", index)
		}
	}

	return data, nil
}
