package sbt

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/rtkit/memutils"
)

// RegionKind identifies one of the four regions of a shader binding table
type RegionKind int32

var regionKindMapping = make(map[RegionKind]string)

func (k RegionKind) String() string {
	return regionKindMapping[k]
}

const (
	RegionRaygen RegionKind = iota
	RegionMiss
	RegionHit
	RegionCallable

	regionCount = 4
)

func init() {
	regionKindMapping[RegionRaygen] = "RegionRaygen"
	regionKindMapping[RegionMiss] = "RegionMiss"
	regionKindMapping[RegionHit] = "RegionHit"
	regionKindMapping[RegionCallable] = "RegionCallable"
}

// Layout counts the shader groups of a ray tracing pipeline per region. Groups are expected in
// pipeline order: the raygen group first, then miss groups, then hit groups, then callable groups.
type Layout struct {
	RaygenCount   int
	MissCount     int
	HitCount      int
	CallableCount int
}

func (l Layout) GroupCount() int {
	return l.RaygenCount + l.MissCount + l.HitCount + l.CallableCount
}

// Count returns the number of groups in a single region
func (l Layout) Count(kind RegionKind) int {
	switch kind {
	case RegionRaygen:
		return l.RaygenCount
	case RegionMiss:
		return l.MissCount
	case RegionHit:
		return l.HitCount
	case RegionCallable:
		return l.CallableCount
	}
	return 0
}

// FirstGroup returns the index of the first group of a region
func (l Layout) FirstGroup(kind RegionKind) int {
	first := 0
	for k := RegionRaygen; k < kind; k++ {
		first += l.Count(k)
	}
	return first
}

func (l Layout) Validate() error {
	if l.RaygenCount != 1 {
		return errors.Newf("a shader binding table needs exactly one raygen group but the layout has %d", l.RaygenCount)
	}
	if l.MissCount < 0 || l.HitCount < 0 || l.CallableCount < 0 {
		return errors.Newf("layout has negative group counts: %+v", l)
	}
	return nil
}

// HandleStride returns the distance between consecutive records of a region: the handle size
// rounded up to the handle alignment
func HandleStride(handleSize, handleAlignment int) (int, error) {
	if handleSize <= 0 {
		return 0, errors.Newf("shader group handle size must be positive but was %d", handleSize)
	}
	if handleAlignment <= 1 {
		return handleSize, nil
	}

	err := memutils.CheckPow2(handleAlignment, "shader group handle alignment")
	if err != nil {
		return 0, err
	}
	return memutils.AlignUp(handleSize, handleAlignment), nil
}

// SplitHandles breaks tightly packed handle data into one slice per group
func SplitHandles(data []byte, handleSize int, groupCount int) ([][]byte, error) {
	if len(data) < handleSize*groupCount {
		return nil, errors.Newf("received %d bytes of handle data for %d groups of %d bytes", len(data), groupCount, handleSize)
	}

	handles := make([][]byte, 0, groupCount)
	for i := 0; i < groupCount; i++ {
		handles = append(handles, data[i*handleSize:(i+1)*handleSize])
	}
	return handles, nil
}
