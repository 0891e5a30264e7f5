package metadata

// AllocationRequest is a type returned from BlockMetadata.CreateAllocationRequest which indicates where
// the metadata intends to allocate new memory. This allocation can be applied to the actual memory system
// consuming memutils, and then committed to the metadata with BlockMetadata.Alloc
type AllocationRequest struct {
	// Offset is the offset in bytes within the block where the allocation will begin
	Offset int
	// Size is the size in bytes that was requested
	Size int
	// Padding is the number of bytes skipped ahead of Offset to satisfy the requested alignment
	Padding int

	// AlgorithmData is arbitrary data used by the BlockMetadata implementation for internal
	// purposes
	AlgorithmData uint64
}
