package metadata_test

import (
	"math"
	"testing"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/rtkit/memutils"
	"github.com/vkngwrapper/rtkit/memutils/metadata"
)

func allocate(t *testing.T, md *metadata.BumpBlockMetadata, size int, alignment uint) (int, metadata.BlockAllocationHandle) {
	success, request, err := md.CreateAllocationRequest(size, alignment)
	require.NoError(t, err)
	require.True(t, success)

	handle, err := md.Alloc(request, nil)
	require.NoError(t, err)

	offset, err := md.AllocationOffset(handle)
	require.NoError(t, err)
	require.Equal(t, request.Offset, offset)
	return offset, handle
}

func TestBumpPrefixSumOffsets(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(4096)

	sizes := []int{100, 1, 37, 512, 1024, 64, 2000}
	expected := 0
	for _, size := range sizes {
		offset, _ := allocate(t, md, size, 1)
		require.Equal(t, expected, offset)
		expected += size
	}

	require.Equal(t, expected, md.Cursor())
	require.Equal(t, 4096-expected, md.SumFreeSize())
	require.Equal(t, len(sizes), md.AllocationCount())
	require.NoError(t, md.Validate())
}

func TestBumpExhaustion(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(1000)

	allocate(t, md, 600, 1)

	success, _, err := md.CreateAllocationRequest(401, 1)
	require.NoError(t, err)
	require.False(t, success)

	offset, _ := allocate(t, md, 400, 1)
	require.Equal(t, 600, offset)
	require.Equal(t, 0, md.SumFreeSize())

	success, _, err = md.CreateAllocationRequest(1, 1)
	require.NoError(t, err)
	require.False(t, success)
}

func TestBumpHugeRequestDoesNotOverflow(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(1000)
	allocate(t, md, 10, 1)

	success, _, err := md.CreateAllocationRequest(math.MaxInt, 1)
	require.NoError(t, err)
	require.False(t, success)
}

func TestBumpFreeNeverReclaims(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(1024)

	offsetA, handleA := allocate(t, md, 100, 1)
	offsetB, _ := allocate(t, md, 200, 1)
	require.Equal(t, 0, offsetA)
	require.Equal(t, 100, offsetB)

	require.NoError(t, md.Free(handleA))

	_, err := md.AllocationOffset(handleA)
	require.Error(t, err)

	offsetC, _ := allocate(t, md, 50, 1)
	require.Equal(t, 300, offsetC)
	require.Equal(t, 100, md.UnreachableSize())
	require.NoError(t, md.Validate())

	// Freeing a stale handle is an error
	require.Error(t, md.Free(handleA))
}

func TestBumpFreedSpaceStillCountsTowardExhaustion(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(300)

	_, handleA := allocate(t, md, 200, 1)
	require.NoError(t, md.Free(handleA))
	require.True(t, md.IsEmpty())

	success, _, err := md.CreateAllocationRequest(150, 1)
	require.NoError(t, err)
	require.False(t, success)
}

func TestBumpAlignment(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(1024)

	allocate(t, md, 10, 1)

	success, request, err := md.CreateAllocationRequest(32, 64)
	require.NoError(t, err)
	require.True(t, success)
	require.Equal(t, 64, request.Offset)
	require.Equal(t, 54, request.Padding)

	_, err = md.Alloc(request, "aligned")
	require.NoError(t, err)
	require.Equal(t, 96, md.Cursor())

	_, _, err = md.CreateAllocationRequest(32, 48)
	require.ErrorIs(t, err, memutils.PowerOfTwoError)

	// Alignment padding pushes the request out of the block
	md2 := metadata.NewBumpBlockMetadata()
	md2.Init(128)
	allocate(t, md2, 65, 1)
	success, _, err = md2.CreateAllocationRequest(60, 64)
	require.NoError(t, err)
	require.False(t, success)
}

func TestBumpStaleRequest(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(1024)

	_, request, err := md.CreateAllocationRequest(10, 1)
	require.NoError(t, err)

	allocate(t, md, 20, 1)

	_, err = md.Alloc(request, nil)
	require.Error(t, err)
}

func TestBumpInvalidSize(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(1024)

	_, _, err := md.CreateAllocationRequest(0, 1)
	require.Error(t, err)
	_, _, err = md.CreateAllocationRequest(-5, 1)
	require.Error(t, err)
}

func TestBumpStatistics(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(1000)

	_, handleA := allocate(t, md, 100, 1)
	allocate(t, md, 300, 1)
	require.NoError(t, md.Free(handleA))

	var stats memutils.DetailedStatistics
	stats.Clear()
	md.AddDetailedStatistics(&stats)

	require.Equal(t, memutils.DetailedStatistics{
		Statistics: memutils.Statistics{
			BlockCount:      1,
			BlockBytes:      1000,
			AllocationCount: 1,
			AllocationBytes: 300,
		},
		UnusedRangeCount:   2,
		AllocationSizeMin:  300,
		AllocationSizeMax:  300,
		UnusedRangeSizeMin: 100,
		UnusedRangeSizeMax: 600,
		UnreachableBytes:   100,
	}, stats)

	var simple memutils.Statistics
	md.AddStatistics(&simple)
	require.Equal(t, memutils.Statistics{
		BlockCount:      1,
		BlockBytes:      1000,
		AllocationCount: 1,
		AllocationBytes: 300,
	}, simple)
}

func TestBumpVisitAllRegions(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(512)

	allocate(t, md, 16, 1)
	_, handleB := allocate(t, md, 16, 1)
	_, err := md.Alloc(mustRequest(t, md, 32, 64), "third")
	require.NoError(t, err)
	require.NoError(t, md.Free(handleB))

	type region struct {
		offset, size int
		free         bool
	}
	var regions []region
	err = md.VisitAllRegions(func(handle metadata.BlockAllocationHandle, offset int, size int, userData any, free bool) error {
		regions = append(regions, region{offset, size, free})
		return nil
	})
	require.NoError(t, err)

	require.Equal(t, []region{
		{0, 16, false},
		{16, 48, true},
		{64, 32, false},
		{96, 416, true},
	}, regions)
}

func TestBumpClear(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(256)

	allocate(t, md, 200, 1)
	md.Clear()

	require.Equal(t, 0, md.Cursor())
	require.Equal(t, 256, md.Size())
	require.True(t, md.IsEmpty())

	offset, _ := allocate(t, md, 200, 1)
	require.Equal(t, 0, offset)
}

func TestBumpBlockJsonData(t *testing.T) {
	md := metadata.NewBumpBlockMetadata()
	md.Init(256)
	_, handle := allocate(t, md, 64, 1)
	allocate(t, md, 32, 1)
	require.NoError(t, md.Free(handle))

	writer := jwriter.NewWriter()
	obj := writer.Object()
	md.BlockJsonData(obj)
	obj.End()

	require.NoError(t, writer.Error())
	require.JSONEq(t, `{
		"TotalBytes": 256,
		"UnusedBytes": 224,
		"Allocations": 1,
		"UnusedRanges": 2,
		"Cursor": 96,
		"UnreachableBytes": 64
	}`, string(writer.Bytes()))
}

func mustRequest(t *testing.T, md *metadata.BumpBlockMetadata, size int, alignment uint) metadata.AllocationRequest {
	success, request, err := md.CreateAllocationRequest(size, alignment)
	require.NoError(t, err)
	require.True(t, success)
	return request
}
