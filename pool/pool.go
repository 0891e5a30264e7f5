package pool

import (
	"unsafe"

	"github.com/cockroachdb/errors"
	"github.com/dolthub/swiss"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_1"
	"github.com/vkngwrapper/core/v2/core1_2"
	"github.com/vkngwrapper/rtkit/internal/utils"
	"github.com/vkngwrapper/rtkit/internal/vulkan"
	"github.com/vkngwrapper/rtkit/memutils"
	"github.com/vkngwrapper/rtkit/memutils/metadata"
	"golang.org/x/exp/slog"
)

// Pool is a single device memory allocation that buffers are bound into with a bump allocator.
// Each allocation is placed at the pool's cursor and advances it. Freeing a buffer only forgets
// its bookkeeping: the bytes it occupied are never handed out again, and once the cursor reaches
// the end of the pool every further allocation fails.
type Pool struct {
	logger *slog.Logger
	mutex  utils.OptionalMutex

	device core1_0.Device
	flags  CreateFlags
	memory *vulkan.SynchronizedMemory

	metadata    *metadata.BumpBlockMetadata
	allocations *swiss.Map[core1_0.Buffer, metadata.BlockAllocationHandle]
}

// New allocates the pool's device memory. logger and device must not be nil.
func New(logger *slog.Logger, device core1_0.Device, physicalDevice core1_0.PhysicalDevice, options CreateOptions) (*Pool, common.VkResult, error) {
	if options.Size <= 0 {
		return nil, core1_0.VKErrorUnknown, errors.Newf("pool size must be positive but was %d", options.Size)
	}

	memoryTypeBits := options.MemoryTypeBits
	if memoryTypeBits == 0 {
		memoryTypeBits = ^uint32(0)
	}

	requiredFlags := options.RequiredFlags
	if options.Flags&CreateMapped != 0 {
		requiredFlags |= core1_0.MemoryPropertyHostVisible
	}

	memoryTypeIndex, err := vulkan.FindMemoryTypeIndex(physicalDevice.MemoryProperties(), memoryTypeBits, requiredFlags)
	if err != nil {
		return nil, core1_0.VKErrorFeatureNotPresent, err
	}

	allocateInfo := core1_0.MemoryAllocateInfo{
		AllocationSize:  options.Size,
		MemoryTypeIndex: memoryTypeIndex,
	}
	if options.Flags&CreateDeviceAddress != 0 {
		allocateInfo.Next = core1_1.MemoryAllocateFlagsInfo{
			Flags: core1_2.MemoryAllocateDeviceAddress,
		}
	}

	useMutex := options.Flags&CreateExternallySynchronized == 0
	memory, res, err := vulkan.AllocateSynchronizedMemory(device, useMutex, options.VulkanCallbacks, allocateInfo)
	if err != nil {
		return nil, res, err
	}

	if options.Flags&CreateMapped != 0 {
		_, res, err = memory.Map()
		if err != nil {
			memory.FreeMemory()
			return nil, res, err
		}
	}

	md := metadata.NewBumpBlockMetadata()
	md.Init(options.Size)

	pool := &Pool{
		logger: logger,
		mutex: utils.OptionalMutex{
			UseMutex: useMutex,
		},
		device:      device,
		flags:       options.Flags,
		memory:      memory,
		metadata:    md,
		allocations: swiss.NewMap[core1_0.Buffer, metadata.BlockAllocationHandle](42),
	}

	logger.Debug("Pool created",
		slog.Int("Size", options.Size),
		slog.Int("MemoryTypeIndex", memoryTypeIndex),
		slog.String("Flags", options.Flags.String()),
	)

	return pool, res, nil
}

// Size returns the size in bytes of the pool's device memory
func (p *Pool) Size() int {
	return p.memory.Size()
}

// MemoryTypeIndex returns the memory type chosen when the pool was created
func (p *Pool) MemoryTypeIndex() int {
	return p.memory.MemoryTypeIndex()
}

// Memory returns the device memory that buffers are bound into
func (p *Pool) Memory() core1_0.DeviceMemory {
	return p.memory.VulkanDeviceMemory()
}

// Flags returns the flags the pool was created with
func (p *Pool) Flags() CreateFlags {
	return p.flags
}

// Allocate places request at the cursor and binds buffer to the pool's memory at the resulting
// offset.
//
// When the request does not fit in the remaining space, Allocate returns common.WholeSize together
// with core1_0.VKErrorOutOfDeviceMemory and an error wrapping memutils.ErrOutOfPoolMemory. The pool
// never compacts or retries.
func (p *Pool) Allocate(buffer core1_0.Buffer, request Request) (int, common.VkResult, error) {
	p.logger.Debug("Pool::Allocate")

	if buffer == nil {
		return common.WholeSize, core1_0.VKErrorUnknown, errors.New("attempted to allocate for a nil buffer")
	}

	p.mutex.Lock()
	defer p.mutex.Unlock()

	_, alreadyAllocated := p.allocations.Get(buffer)
	if alreadyAllocated {
		return common.WholeSize, core1_0.VKErrorUnknown, errors.New("attempted to allocate for a buffer that is already bound to this pool")
	}

	success, allocRequest, err := p.metadata.CreateAllocationRequest(request.Size, request.Alignment)
	if err != nil {
		return common.WholeSize, core1_0.VKErrorUnknown, err
	}
	if !success {
		return common.WholeSize, core1_0.VKErrorOutOfDeviceMemory, errors.Wrapf(memutils.ErrOutOfPoolMemory,
			"requested %d bytes with alignment %d, but only %d bytes remain", request.Size, request.Alignment, p.metadata.SumFreeSize())
	}

	res, err := p.memory.BindVulkanBuffer(allocRequest.Offset, buffer)
	if err != nil {
		return common.WholeSize, res, err
	}

	handle, err := p.metadata.Alloc(allocRequest, buffer)
	if err != nil {
		return common.WholeSize, core1_0.VKErrorUnknown, err
	}
	p.allocations.Put(buffer, handle)

	return allocRequest.Offset, res, nil
}

// AllocateForBuffer allocates space for buffer using the size and alignment the driver reports
// for it
func (p *Pool) AllocateForBuffer(buffer core1_0.Buffer) (int, common.VkResult, error) {
	p.logger.Debug("Pool::AllocateForBuffer")

	if buffer == nil {
		return common.WholeSize, core1_0.VKErrorUnknown, errors.New("attempted to allocate for a nil buffer")
	}

	requirements := buffer.MemoryRequirements()
	memTypeBit := uint32(1) << p.memory.MemoryTypeIndex()
	if requirements.MemoryTypeBits&memTypeBit == 0 {
		return common.WholeSize, core1_0.VKErrorFeatureNotPresent, errors.Newf("buffer accepts memory types %#x, which excludes the pool's memory type %d", requirements.MemoryTypeBits, p.memory.MemoryTypeIndex())
	}

	return p.Allocate(buffer, Request{
		Size:      requirements.Size,
		Alignment: uint(requirements.Alignment),
	})
}

// Offset returns the offset that buffer was bound at. The boolean return value is false if the
// buffer has no live allocation in this pool.
func (p *Pool) Offset(buffer core1_0.Buffer) (int, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	handle, ok := p.allocations.Get(buffer)
	if !ok {
		return common.WholeSize, false
	}

	offset, err := p.metadata.AllocationOffset(handle)
	if err != nil {
		return common.WholeSize, false
	}

	return offset, true
}

// Free forgets buffer's allocation. The space it occupied is not reclaimed. The buffer itself is
// not destroyed.
func (p *Pool) Free(buffer core1_0.Buffer) error {
	p.logger.Debug("Pool::Free")

	p.mutex.Lock()
	defer p.mutex.Unlock()

	handle, ok := p.allocations.Get(buffer)
	if !ok {
		return errors.New("attempted to free a buffer that has no allocation in this pool")
	}

	err := p.metadata.Free(handle)
	if err != nil {
		return err
	}

	p.allocations.Delete(buffer)
	return nil
}

// MappedData returns a pointer to the given offset within the pool's persistently mapped memory,
// or nil if the pool was not created with CreateMapped
func (p *Pool) MappedData(offset int) unsafe.Pointer {
	data := p.memory.MappedData()
	if data == nil {
		return nil
	}

	return unsafe.Add(data, offset)
}

// Cursor returns the offset at which the next unaligned allocation would be placed
func (p *Pool) Cursor() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.metadata.Cursor()
}

// AllocationCount returns the number of buffers with a live allocation in this pool
func (p *Pool) AllocationCount() int {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	return p.allocations.Count()
}

func (p *Pool) AddStatistics(stats *memutils.Statistics) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.metadata.AddStatistics(stats)
}

func (p *Pool) AddDetailedStatistics(stats *memutils.DetailedStatistics) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.metadata.AddDetailedStatistics(stats)
}

// PrintDetailedMap writes a json object describing the pool and each of its regions
func (p *Pool) PrintDetailedMap(writer *jwriter.Writer) {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	obj := writer.Object()
	defer obj.End()

	obj.Name("MemoryTypeIndex").Int(p.memory.MemoryTypeIndex())
	obj.Name("Flags").String(p.flags.String())
	p.metadata.BlockJsonData(obj)

	regions := obj.Name("Regions").Array()
	defer regions.End()

	_ = p.metadata.VisitAllRegions(func(handle metadata.BlockAllocationHandle, offset int, size int, userData any, free bool) error {
		region := regions.Object()
		defer region.End()

		region.Name("Offset").Int(offset)
		region.Name("Size").Int(size)
		if free {
			region.Name("Type").String("Free")
			return nil
		}

		region.Name("Type").String("Buffer")
		return nil
	})
}

// Destroy frees the pool's device memory. It fails if any buffer still has a live allocation,
// because those buffers would be left bound to freed memory.
func (p *Pool) Destroy() error {
	p.logger.Debug("Pool::Destroy")

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if p.allocations.Count() > 0 {
		p.logger.Warn("Pool destroyed with live allocations", slog.Int("Allocations", p.allocations.Count()))
		return errors.Newf("the pool still has %d allocations that remain unfreed", p.allocations.Count())
	}

	memutils.DebugValidate(p.metadata)
	p.memory.FreeMemory()
	return nil
}
