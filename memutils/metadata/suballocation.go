package metadata

import "math"

// BlockAllocationHandle is a numeric handle used to identify individual allocations within a BlockMetadata
type BlockAllocationHandle uint64

const (
	NoAllocation BlockAllocationHandle = math.MaxUint64
)

// Suballocation describes a single range within a block
type Suballocation struct {
	Offset   int
	Size     int
	UserData any
}
