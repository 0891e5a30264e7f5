package memutils

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

func TestAlignUp(t *testing.T) {
	require.Equal(t, 0, AlignUp(0, 16))
	require.Equal(t, 16, AlignUp(1, 16))
	require.Equal(t, 16, AlignUp(16, 16))
	require.Equal(t, 48, AlignUp(33, 16))
	require.Equal(t, 100, AlignUp(100, 1))
	require.Equal(t, 100, AlignUp(100, 0))
	require.Equal(t, uint32(64), AlignUp(uint32(32), uint32(64)))
	require.Equal(t, uint64(256), AlignUp(uint64(129), uint64(128)))
}

func TestCheckPow2(t *testing.T) {
	require.NoError(t, CheckPow2(1, "one"))
	require.NoError(t, CheckPow2(uint(64), "sixty-four"))

	err := CheckPow2(48, "alignment")
	require.Error(t, err)
	require.True(t, errors.Is(err, PowerOfTwoError))
	require.Contains(t, err.Error(), "alignment is 48")

	require.Error(t, CheckPow2(0, "zero"))
	require.False(t, IsPow2(uint64(0)))
	require.True(t, IsPow2(uint32(32)))
}

func TestDetailedStatisticsAdd(t *testing.T) {
	var first DetailedStatistics
	first.Clear()
	first.BlockCount = 1
	first.BlockBytes = 1024
	first.AddAllocation(100)
	first.AddAllocation(300)
	first.AddUnusedRange(24)
	first.UnreachableBytes = 24

	var second DetailedStatistics
	second.Clear()
	second.BlockCount = 1
	second.BlockBytes = 512
	second.AddUnusedRange(512)

	var total DetailedStatistics
	total.Clear()
	total.Add(&first)
	total.Add(&second)

	require.Equal(t, DetailedStatistics{
		Statistics: Statistics{
			BlockCount:      2,
			AllocationCount: 2,
			BlockBytes:      1536,
			AllocationBytes: 400,
		},
		UnusedRangeCount:   2,
		AllocationSizeMin:  100,
		AllocationSizeMax:  300,
		UnusedRangeSizeMin: 24,
		UnusedRangeSizeMax: 512,
		UnreachableBytes:   24,
	}, total)
}
