package metadata

import (
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/rtkit/memutils"
)

// BlockMetadata tracks the suballocations carved out of one device memory block. Pools hold
// one BlockMetadata per block and never touch offsets directly.
type BlockMetadata interface {
	// Init sizes the block in bytes and must be called before anything else
	Init(size int)
	Size() int

	// Validate checks internal consistency. An error means the metadata is corrupt.
	Validate() error
	AllocationCount() int
	// SumFreeSize is the number of bytes that a future allocation could still receive
	SumFreeSize() int
	IsEmpty() bool

	// VisitAllRegions calls handleBlock for every allocation and every unused range, in offset order
	VisitAllRegions(handleBlock func(handle BlockAllocationHandle, offset int, size int, userData any, free bool) error) error

	AllocationOffset(allocHandle BlockAllocationHandle) (int, error)
	AllocationUserData(allocHandle BlockAllocationHandle) (any, error)

	AddDetailedStatistics(stats *memutils.DetailedStatistics)
	AddStatistics(stats *memutils.Statistics)

	// Clear forgets every allocation at once
	Clear()
	// BlockJsonData writes summary fields for this block into an open json object
	BlockJsonData(json jwriter.ObjectState)

	// CreateAllocationRequest finds a place for allocSize bytes at allocAlignment without committing
	// it. The bool is false when the block can't fit the request. Alignments of 0 and 1 are unaligned.
	CreateAllocationRequest(allocSize int, allocAlignment uint) (bool, AllocationRequest, error)
	// Alloc commits a request. It fails if the block changed since the request was created.
	Alloc(request AllocationRequest, userData any) (BlockAllocationHandle, error)

	// Free releases a live allocation. Whether its range is handed out again depends on the
	// implementation.
	Free(allocHandle BlockAllocationHandle) error
}

// BlockMetadataBase holds the block size shared by BlockMetadata implementations
type BlockMetadataBase struct {
	size int
}

func (m *BlockMetadataBase) Init(size int) {
	m.size = size
}

func (m *BlockMetadataBase) Size() int { return m.size }

// WriteBlockJsonData populates a json object with the summary fields shared by all implementations
func (m *BlockMetadataBase) WriteBlockJsonData(json jwriter.ObjectState, unusedBytes, allocationCount, unusedRangeCount int) {
	json.Name("TotalBytes").Int(m.Size())
	json.Name("UnusedBytes").Int(unusedBytes)
	json.Name("Allocations").Int(allocationCount)
	json.Name("UnusedRanges").Int(unusedRangeCount)
}
