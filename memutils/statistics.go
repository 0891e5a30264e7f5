package memutils

import "math"

// Statistics summarizes the occupancy of one or more pools
type Statistics struct {
	// BlockCount is the number of device memory allocations backing the pools
	BlockCount int
	// AllocationCount is the number of live suballocations
	AllocationCount int
	// BlockBytes is the total size of the backing device memory
	BlockBytes int
	// AllocationBytes is the total size of live suballocations
	AllocationBytes int
}

func (s *Statistics) Clear() {
	*s = Statistics{}
}

// Add sums other into s
func (s *Statistics) Add(other Statistics) {
	s.BlockCount += other.BlockCount
	s.AllocationCount += other.AllocationCount
	s.BlockBytes += other.BlockBytes
	s.AllocationBytes += other.AllocationBytes
}

// DetailedStatistics extends Statistics with information about the ranges of a pool
// that are not held by a live suballocation. Clear must be called before the size bounds
// are meaningful.
type DetailedStatistics struct {
	Statistics
	// UnusedRangeCount counts both the free tail past the cursor and ranges that were freed
	// or lost to alignment padding
	UnusedRangeCount   int
	AllocationSizeMin  int
	AllocationSizeMax  int
	UnusedRangeSizeMin int
	UnusedRangeSizeMax int
	// UnreachableBytes is the number of bytes behind the cursor that no live suballocation
	// holds. Linear pools never hand these bytes out again.
	UnreachableBytes int
}

func (s *DetailedStatistics) Clear() {
	*s = DetailedStatistics{
		AllocationSizeMin:  math.MaxInt,
		UnusedRangeSizeMin: math.MaxInt,
	}
}

func (s *DetailedStatistics) AddUnusedRange(size int) {
	s.UnusedRangeCount++
	s.UnusedRangeSizeMin, s.UnusedRangeSizeMax = widen(s.UnusedRangeSizeMin, s.UnusedRangeSizeMax, size, size)
}

func (s *DetailedStatistics) AddAllocation(size int) {
	s.AllocationCount++
	s.AllocationBytes += size
	s.AllocationSizeMin, s.AllocationSizeMax = widen(s.AllocationSizeMin, s.AllocationSizeMax, size, size)
}

// Add sums other into s and widens the size bounds to cover both
func (s *DetailedStatistics) Add(other *DetailedStatistics) {
	s.Statistics.Add(other.Statistics)
	s.UnusedRangeCount += other.UnusedRangeCount
	s.UnreachableBytes += other.UnreachableBytes
	s.AllocationSizeMin, s.AllocationSizeMax = widen(s.AllocationSizeMin, s.AllocationSizeMax, other.AllocationSizeMin, other.AllocationSizeMax)
	s.UnusedRangeSizeMin, s.UnusedRangeSizeMax = widen(s.UnusedRangeSizeMin, s.UnusedRangeSizeMax, other.UnusedRangeSizeMin, other.UnusedRangeSizeMax)
}

func widen(low, high, otherLow, otherHigh int) (int, int) {
	if otherLow < low {
		low = otherLow
	}
	if otherHigh > high {
		high = otherHigh
	}
	return low, high
}
