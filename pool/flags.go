package pool

import "github.com/vkngwrapper/core/v2/common"

type CreateFlags int32

var createFlagsMapping = common.NewFlagStringMapping[CreateFlags]()

func (f CreateFlags) Register(str string) {
	createFlagsMapping.Register(f, str)
}
func (f CreateFlags) String() string {
	return createFlagsMapping.FlagsToString(f)
}

const (
	// CreateExternallySynchronized indicates that the caller guarantees the pool will never be
	// accessed from more than one goroutine at a time, so its internal mutex is skipped
	CreateExternallySynchronized CreateFlags = 1 << iota
	// CreateMapped persistently maps the pool's memory when the pool is created. The memory type
	// must be HostVisible.
	CreateMapped
	// CreateDeviceAddress allocates the pool's memory with MemoryAllocateDeviceAddress so that
	// buffers bound to it can be created with BufferUsageShaderDeviceAddress
	CreateDeviceAddress
)

func init() {
	CreateExternallySynchronized.Register("CreateExternallySynchronized")
	CreateMapped.Register("CreateMapped")
	CreateDeviceAddress.Register("CreateDeviceAddress")
}
