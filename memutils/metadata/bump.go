package metadata

import (
	"fmt"
	"sort"

	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/pkg/errors"
	"github.com/vkngwrapper/rtkit/memutils"
)

type bumpSuballocation struct {
	Suballocation
	handle BlockAllocationHandle
}

// BumpBlockMetadata is a BlockMetadata implementation that hands out memory from a single
// cursor which only ever moves forward.
//
// Every allocation is placed at the cursor (rounded up to the requested alignment) and the cursor
// is advanced past it. Freeing an allocation removes it from the metadata but never moves the cursor
// back, so freed ranges are not reused and adjacent free ranges are not merged. The only way to
// recover space is Clear, which forgets every allocation at once.
type BumpBlockMetadata struct {
	BlockMetadataBase

	cursor     int
	nextHandle BlockAllocationHandle

	// Live suballocations in ascending offset order. Offsets are handed out monotonically, so
	// appending keeps the slice sorted.
	suballocations []*bumpSuballocation
	handleKey      *swiss.Map[BlockAllocationHandle, *bumpSuballocation]
	liveBytes      int
}

var _ BlockMetadata = &BumpBlockMetadata{}

// NewBumpBlockMetadata creates a new, uninitialized BumpBlockMetadata. Init must be called before use.
func NewBumpBlockMetadata() *BumpBlockMetadata {
	return &BumpBlockMetadata{}
}

func (m *BumpBlockMetadata) Init(size int) {
	m.BlockMetadataBase.Init(size)
	m.cursor = 0
	m.nextHandle = 0
	m.suballocations = nil
	m.handleKey = swiss.NewMap[BlockAllocationHandle, *bumpSuballocation](42)
	m.liveBytes = 0
}

// Cursor returns the offset at which the next unaligned allocation would be placed
func (m *BumpBlockMetadata) Cursor() int {
	return m.cursor
}

// SumFreeSize returns the number of bytes past the cursor. Freed ranges behind the cursor are not
// counted because they can't be allocated again.
func (m *BumpBlockMetadata) SumFreeSize() int {
	return m.Size() - m.cursor
}

// UnreachableSize returns the number of bytes behind the cursor that are not held by a live allocation
func (m *BumpBlockMetadata) UnreachableSize() int {
	return m.cursor - m.liveBytes
}

func (m *BumpBlockMetadata) AllocationCount() int {
	return len(m.suballocations)
}

func (m *BumpBlockMetadata) IsEmpty() bool {
	return len(m.suballocations) == 0
}

func (m *BumpBlockMetadata) CreateAllocationRequest(allocSize int, allocAlignment uint) (bool, AllocationRequest, error) {
	if allocSize <= 0 {
		return false, AllocationRequest{}, errors.Errorf("allocation size must be positive but was %d", allocSize)
	}
	if allocAlignment > 1 {
		err := memutils.CheckPow2(allocAlignment, "allocation alignment")
		if err != nil {
			return false, AllocationRequest{}, err
		}
	}

	offset := memutils.AlignUp(m.cursor, int(allocAlignment))
	// Check without overflowing for sizes close to MaxInt
	if offset > m.Size() || allocSize > m.Size()-offset {
		return false, AllocationRequest{}, nil
	}

	return true, AllocationRequest{
		Offset:        offset,
		Size:          allocSize,
		Padding:       offset - m.cursor,
		AlgorithmData: uint64(m.cursor),
	}, nil
}

func (m *BumpBlockMetadata) Alloc(request AllocationRequest, userData any) (BlockAllocationHandle, error) {
	if request.AlgorithmData != uint64(m.cursor) {
		return NoAllocation, errors.Errorf("allocation request was created at cursor %d but the cursor is now %d", request.AlgorithmData, m.cursor)
	}
	if request.Offset < m.cursor || request.Offset+request.Size > m.Size() {
		return NoAllocation, errors.Errorf("allocation request for offset %d and size %d does not fit in the block", request.Offset, request.Size)
	}

	suballoc := &bumpSuballocation{
		Suballocation: Suballocation{
			Offset:   request.Offset,
			Size:     request.Size,
			UserData: userData,
		},
		handle: m.nextHandle,
	}
	m.nextHandle++

	m.suballocations = append(m.suballocations, suballoc)
	m.handleKey.Put(suballoc.handle, suballoc)
	m.cursor = request.Offset + request.Size
	m.liveBytes += request.Size

	memutils.DebugValidate(m)
	return suballoc.handle, nil
}

func (m *BumpBlockMetadata) getSuballocation(handle BlockAllocationHandle) (*bumpSuballocation, error) {
	suballoc, ok := m.handleKey.Get(handle)
	if !ok {
		return nil, errors.New("received a handle that was incompatible with this metadata")
	}
	return suballoc, nil
}

// Free forgets a live allocation. The cursor is not moved, so the range is never reused.
func (m *BumpBlockMetadata) Free(allocHandle BlockAllocationHandle) error {
	suballoc, err := m.getSuballocation(allocHandle)
	if err != nil {
		return err
	}

	index := sort.Search(len(m.suballocations), func(i int) bool {
		return m.suballocations[i].Offset >= suballoc.Offset
	})
	if index >= len(m.suballocations) || m.suballocations[index] != suballoc {
		return errors.Errorf("allocation at offset %d is missing from the offset list", suballoc.Offset)
	}

	m.suballocations = append(m.suballocations[:index], m.suballocations[index+1:]...)
	m.handleKey.Delete(allocHandle)
	m.liveBytes -= suballoc.Size

	memutils.DebugValidate(m)
	return nil
}

func (m *BumpBlockMetadata) AllocationOffset(allocHandle BlockAllocationHandle) (int, error) {
	suballoc, err := m.getSuballocation(allocHandle)
	if err != nil {
		return -1, err
	}
	return suballoc.Offset, nil
}

func (m *BumpBlockMetadata) AllocationSize(allocHandle BlockAllocationHandle) (int, error) {
	suballoc, err := m.getSuballocation(allocHandle)
	if err != nil {
		return -1, err
	}
	return suballoc.Size, nil
}

func (m *BumpBlockMetadata) AllocationUserData(allocHandle BlockAllocationHandle) (any, error) {
	suballoc, err := m.getSuballocation(allocHandle)
	if err != nil {
		return nil, err
	}
	return suballoc.UserData, nil
}

func (m *BumpBlockMetadata) VisitAllRegions(handleBlock func(handle BlockAllocationHandle, offset int, size int, userData any, free bool) error) error {
	lastEnd := 0
	for _, suballoc := range m.suballocations {
		if suballoc.Offset > lastEnd {
			err := handleBlock(NoAllocation, lastEnd, suballoc.Offset-lastEnd, nil, true)
			if err != nil {
				return err
			}
		}

		err := handleBlock(suballoc.handle, suballoc.Offset, suballoc.Size, suballoc.UserData, false)
		if err != nil {
			return err
		}
		lastEnd = suballoc.Offset + suballoc.Size
	}

	if lastEnd < m.Size() {
		return handleBlock(NoAllocation, lastEnd, m.Size()-lastEnd, nil, true)
	}

	return nil
}

func (m *BumpBlockMetadata) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	stats.BlockCount++
	stats.BlockBytes += m.Size()
	stats.UnreachableBytes += m.UnreachableSize()

	_ = m.VisitAllRegions(func(handle BlockAllocationHandle, offset int, size int, userData any, free bool) error {
		if free {
			stats.AddUnusedRange(size)
		} else {
			stats.AddAllocation(size)
		}
		return nil
	})
}

func (m *BumpBlockMetadata) AddStatistics(stats *memutils.Statistics) {
	stats.BlockCount++
	stats.BlockBytes += m.Size()
	stats.AllocationCount += len(m.suballocations)
	stats.AllocationBytes += m.liveBytes
}

// Clear forgets every allocation and moves the cursor back to the start of the block
func (m *BumpBlockMetadata) Clear() {
	m.Init(m.Size())
}

func (m *BumpBlockMetadata) BlockJsonData(json jwriter.ObjectState) {
	var stats memutils.DetailedStatistics
	stats.Clear()
	m.AddDetailedStatistics(&stats)

	m.WriteBlockJsonData(json, m.Size()-m.liveBytes, stats.AllocationCount, stats.UnusedRangeCount)
	json.Name("Cursor").Int(m.cursor)
	json.Name("UnreachableBytes").Int(m.UnreachableSize())
}

func (m *BumpBlockMetadata) Validate() error {
	if m.cursor < 0 || m.cursor > m.Size() {
		return errors.Errorf("cursor %d is outside of the block of size %d", m.cursor, m.Size())
	}

	if m.handleKey.Count() != len(m.suballocations) {
		return errors.Errorf("handle lookup holds %d allocations but the offset list holds %d", m.handleKey.Count(), len(m.suballocations))
	}

	lastEnd := 0
	liveBytes := 0
	for _, suballoc := range m.suballocations {
		if suballoc.Offset < lastEnd {
			return errors.Errorf("allocation at offset %d overlaps the previous allocation ending at %d", suballoc.Offset, lastEnd)
		}
		if suballoc.Size <= 0 {
			return errors.Errorf("allocation at offset %d has invalid size %d", suballoc.Offset, suballoc.Size)
		}

		lookup, ok := m.handleKey.Get(suballoc.handle)
		if !ok || lookup != suballoc {
			return errors.Errorf("allocation at offset %d is missing from the handle lookup", suballoc.Offset)
		}

		lastEnd = suballoc.Offset + suballoc.Size
		liveBytes += suballoc.Size
	}

	if lastEnd > m.cursor {
		return errors.Errorf("allocation ending at %d lies past the cursor %d", lastEnd, m.cursor)
	}

	if liveBytes != m.liveBytes {
		return errors.Errorf("live byte count is %d but allocations sum to %d", m.liveBytes, liveBytes)
	}

	return nil
}

func (m *BumpBlockMetadata) String() string {
	return fmt.Sprintf("BumpBlockMetadata{size: %d, cursor: %d, allocations: %d}", m.Size(), m.cursor, len(m.suballocations))
}
