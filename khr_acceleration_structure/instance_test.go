package khr_acceleration_structure_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/rtkit/khr_acceleration_structure"
)

func TestInstanceLayout(t *testing.T) {
	instance := khr_acceleration_structure.Instance{
		Transform:                      khr_acceleration_structure.IdentityTransform(),
		CustomIndex:                    0x123456,
		Mask:                           0xFF,
		ShaderBindingTableRecordOffset: 2,
		Flags:                          khr_acceleration_structure.GeometryInstanceTriangleFacingCullDisable,
		AccelerationStructureReference: 0xdeadbeef00001000,
	}
	instance.Transform[0][3] = 5.5

	data, err := instance.AppendBinary(nil)
	require.NoError(t, err)
	require.Len(t, data, khr_acceleration_structure.InstanceSize)

	require.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(data[0:])))
	require.Equal(t, float32(5.5), math.Float32frombits(binary.LittleEndian.Uint32(data[12:])))
	require.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(data[20:])))
	require.Equal(t, float32(1), math.Float32frombits(binary.LittleEndian.Uint32(data[40:])))
	require.Equal(t, float32(0), math.Float32frombits(binary.LittleEndian.Uint32(data[44:])))

	require.Equal(t, uint32(0xFF123456), binary.LittleEndian.Uint32(data[48:]))
	require.Equal(t, uint32(0x01000002), binary.LittleEndian.Uint32(data[52:]))
	require.Equal(t, uint64(0xdeadbeef00001000), binary.LittleEndian.Uint64(data[56:]))
}

func TestInstanceFieldLimits(t *testing.T) {
	testCases := map[string]khr_acceleration_structure.Instance{
		"CustomIndexOverflow":  {CustomIndex: 1 << 24},
		"CustomIndexNegative":  {CustomIndex: -1},
		"RecordOffsetOverflow": {ShaderBindingTableRecordOffset: 1 << 24},
		"FlagsOverflow":        {Flags: 0x100},
	}

	for name, instance := range testCases {
		t.Run(name, func(t *testing.T) {
			_, err := instance.AppendBinary(nil)
			require.Error(t, err)
		})
	}

	_, err := khr_acceleration_structure.Instance{CustomIndex: 1<<24 - 1}.AppendBinary(nil)
	require.NoError(t, err)
}

func TestEncodeInstances(t *testing.T) {
	instances := []khr_acceleration_structure.Instance{
		{Mask: 0xFF, AccelerationStructureReference: 100},
		{Mask: 0x0F, CustomIndex: 1, AccelerationStructureReference: 200},
	}

	data, err := khr_acceleration_structure.EncodeInstances(instances)
	require.NoError(t, err)
	require.Len(t, data, 2*khr_acceleration_structure.InstanceSize)
	require.Equal(t, uint64(100), binary.LittleEndian.Uint64(data[56:]))
	require.Equal(t, uint32(0x0F000001), binary.LittleEndian.Uint32(data[64+48:]))
	require.Equal(t, uint64(200), binary.LittleEndian.Uint64(data[64+56:]))

	instances = append(instances, khr_acceleration_structure.Instance{CustomIndex: -4})
	_, err = khr_acceleration_structure.EncodeInstances(instances)
	require.ErrorContains(t, err, "instance 2")
}

func TestFlagStrings(t *testing.T) {
	flags := khr_acceleration_structure.BuildPreferFastTrace | khr_acceleration_structure.BuildAllowCompaction
	require.Contains(t, flags.String(), "Prefer Fast Trace")
	require.Contains(t, flags.String(), "Allow Compaction")
	require.Equal(t, "Bottom Level", khr_acceleration_structure.AccelerationStructureTypeBottomLevel.String())
	require.Equal(t, "Instances", khr_acceleration_structure.GeometryTypeInstances.String())
}
