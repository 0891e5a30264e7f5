package trace

import (
	"encoding/binary"
	"math"
)

// PushConstantsSize is the size of the block PushConstants encodes
const PushConstantsSize = 16

// PushConstants is the per-frame data pushed to the closest hit shader: a vec3 position followed
// by a float time, laid out as a std430 block
type PushConstants struct {
	Position [3]float32
	Time     float32
}

func (p PushConstants) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, PushConstantsSize)
	for _, component := range p.Position {
		b = binary.LittleEndian.AppendUint32(b, math.Float32bits(component))
	}
	b = binary.LittleEndian.AppendUint32(b, math.Float32bits(p.Time))
	return b, nil
}
