package app

import (
	"encoding/json"
	"io"
	"testing"
	"testing/fstest"
	"unsafe"

	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/stretchr/testify/require"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/core1_1"
	"github.com/vkngwrapper/core/v2/core1_2"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/core/v2/mocks"
	"github.com/vkngwrapper/rtkit/accel"
	"github.com/vkngwrapper/rtkit/config"
	"github.com/vkngwrapper/rtkit/khr_acceleration_structure"
	mock_acceleration_structure "github.com/vkngwrapper/rtkit/khr_acceleration_structure/mocks"
	"github.com/vkngwrapper/rtkit/khr_ray_tracing_pipeline"
	mock_ray_tracing_pipeline "github.com/vkngwrapper/rtkit/khr_ray_tracing_pipeline/mocks"
	"github.com/vkngwrapper/rtkit/memutils"
	"github.com/vkngwrapper/rtkit/rtpipeline"
	"github.com/vkngwrapper/rtkit/trace"
	"go.uber.org/mock/gomock"
	"golang.org/x/exp/slog"
)

type fakeAddresser struct {
	addresses map[core1_0.Buffer]uint64
}

func (a *fakeAddresser) GetBufferDeviceAddress(o core1_2.BufferDeviceAddressInfo) (uint64, error) {
	return a.addresses[o.Buffer], nil
}

var testMemoryProperties = &core1_0.PhysicalDeviceMemoryProperties{
	MemoryTypes: []core1_0.MemoryType{
		{PropertyFlags: core1_0.MemoryPropertyDeviceLocal, HeapIndex: 0},
		{PropertyFlags: core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent, HeapIndex: 1},
	},
	MemoryHeaps: []core1_0.MemoryHeap{
		{Size: 1 << 30, Flags: core1_0.MemoryHeapDeviceLocal},
		{Size: 1 << 30},
	},
}

var spirv = []byte{0x03, 0x02, 0x23, 0x07}

var testShaders = fstest.MapFS{
	"RT_raygen.spv":        {Data: spirv},
	"RT_miss.spv":          {Data: spirv},
	"RT_missShadow.spv":    {Data: spirv},
	"RT_closesthit.spv":    {Data: spirv},
	"RT_anyhit_shadow.spv": {Data: spirv},
}

const (
	devicePoolSize = 1 << 20
	hostPoolSize   = 1 << 16
)

// harness simulates a device that supports ray tracing. Buffers, command buffers and
// acceleration structures all succeed.
type harness struct {
	ctrl *gomock.Controller

	device         *mocks.MockDevice
	physicalDevice *mocks.MockPhysicalDevice
	queue          *mocks.MockQueue
	commandPool    *mocks.MockCommandPool
	commandBuffer  *mocks.MockCommandBuffer

	accelerationStructures *mock_acceleration_structure.MockExtension
	rayTracingPipelines    *mock_ray_tracing_pipeline.MockExtension
	addresser              *fakeAddresser

	deviceMemory  *mocks.MockDeviceMemory
	hostMemory    *mocks.MockDeviceMemory
	hostData      []byte
	nextAddress   uint64
	dedicatedData [][]byte
}

func newHarness(ctrl *gomock.Controller) *harness {
	h := &harness{
		ctrl:                   ctrl,
		device:                 mocks.NewMockDevice(ctrl),
		physicalDevice:         mocks.NewMockPhysicalDevice(ctrl),
		queue:                  mocks.NewMockQueue(ctrl),
		commandPool:            mocks.NewMockCommandPool(ctrl),
		commandBuffer:          mocks.NewMockCommandBuffer(ctrl),
		accelerationStructures: mock_acceleration_structure.NewMockExtension(ctrl),
		rayTracingPipelines:    mock_ray_tracing_pipeline.NewMockExtension(ctrl),
		addresser:              &fakeAddresser{addresses: make(map[core1_0.Buffer]uint64)},
		deviceMemory:           mocks.EasyMockDeviceMemory(ctrl),
		hostMemory:             mocks.EasyMockDeviceMemory(ctrl),
		hostData:               make([]byte, hostPoolSize),
		nextAddress:            0x100000,
	}

	h.physicalDevice.EXPECT().MemoryProperties().Return(testMemoryProperties).AnyTimes()
	h.rayTracingPipelines.EXPECT().PhysicalDeviceRayTracingPipelineProperties(h.physicalDevice).Return(&khr_ray_tracing_pipeline.PhysicalDeviceRayTracingPipelineProperties{
		ShaderGroupHandleSize:      32,
		ShaderGroupHandleAlignment: 32,
		ShaderGroupBaseAlignment:   64,
		MaxShaderGroupStride:       4096,
		MaxRayRecursionDepth:       1,
	}, nil)

	deviceAddressNext := common.NextOptions{Next: core1_1.MemoryAllocateFlagsInfo{Flags: core1_2.MemoryAllocateDeviceAddress}}
	h.device.EXPECT().AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  devicePoolSize,
		MemoryTypeIndex: 0,
		NextOptions:     deviceAddressNext,
	}).Return(h.deviceMemory, core1_0.VKSuccess, nil)
	h.device.EXPECT().AllocateMemory(nil, core1_0.MemoryAllocateInfo{
		AllocationSize:  hostPoolSize,
		MemoryTypeIndex: 1,
		NextOptions:     deviceAddressNext,
	}).Return(h.hostMemory, core1_0.VKSuccess, nil)
	h.hostMemory.EXPECT().Map(0, common.WholeSize, core1_0.MemoryMapFlags(0)).Return(unsafe.Pointer(&h.hostData[0]), core1_0.VKSuccess, nil)

	// Scratch and instance buffers receive their own memory, freed with the buffer
	h.device.EXPECT().AllocateMemory(nil, gomock.Any()).DoAndReturn(func(callbacks *driver.AllocationCallbacks, o core1_0.MemoryAllocateInfo) (core1_0.DeviceMemory, common.VkResult, error) {
		memory := mocks.EasyMockDeviceMemory(ctrl)
		if o.MemoryTypeIndex == 1 {
			data := make([]byte, o.AllocationSize)
			h.dedicatedData = append(h.dedicatedData, data)
			memory.EXPECT().Map(0, common.WholeSize, core1_0.MemoryMapFlags(0)).Return(unsafe.Pointer(&data[0]), core1_0.VKSuccess, nil)
			memory.EXPECT().Unmap()
		}
		memory.EXPECT().Free(nil)
		return memory, core1_0.VKSuccess, nil
	}).AnyTimes()

	h.device.EXPECT().CreateBuffer(nil, gomock.Any()).DoAndReturn(func(callbacks *driver.AllocationCallbacks, o core1_0.BufferCreateInfo) (core1_0.Buffer, common.VkResult, error) {
		buffer := mocks.NewMockBuffer(ctrl)
		buffer.EXPECT().MemoryRequirements().Return(&core1_0.MemoryRequirements{
			Size:           memutils.AlignUp(o.Size, 256),
			Alignment:      256,
			MemoryTypeBits: 0b11,
		}).AnyTimes()
		buffer.EXPECT().BindBufferMemory(gomock.Any(), gomock.Any()).Return(core1_0.VKSuccess, nil)
		buffer.EXPECT().Destroy(nil)

		h.addresser.addresses[buffer] = h.nextAddress
		h.nextAddress += 0x10000
		return buffer, core1_0.VKSuccess, nil
	}).AnyTimes()

	h.device.EXPECT().AllocateCommandBuffers(gomock.Any()).Return([]core1_0.CommandBuffer{h.commandBuffer}, core1_0.VKSuccess, nil).AnyTimes()
	h.device.EXPECT().FreeCommandBuffers([]core1_0.CommandBuffer{h.commandBuffer}).AnyTimes()
	h.commandBuffer.EXPECT().Begin(gomock.Any()).Return(core1_0.VKSuccess, nil).AnyTimes()
	h.commandBuffer.EXPECT().End().Return(core1_0.VKSuccess, nil).AnyTimes()
	h.queue.EXPECT().Submit(nil, gomock.Any()).Return(core1_0.VKSuccess, nil).AnyTimes()
	h.queue.EXPECT().WaitIdle().Return(core1_0.VKSuccess, nil).AnyTimes()

	h.accelerationStructures.EXPECT().AccelerationStructureBuildSizes(h.device, khr_acceleration_structure.BuildTypeDevice, gomock.Any(), gomock.Any()).
		Return(khr_acceleration_structure.BuildSizesInfo{AccelerationStructureSize: 1024, BuildScratchSize: 512}, nil).AnyTimes()
	h.accelerationStructures.EXPECT().CreateAccelerationStructure(h.device, gomock.Nil(), gomock.Any()).
		DoAndReturn(func(device core1_0.Device, callbacks *driver.AllocationCallbacks, o khr_acceleration_structure.CreateInfo) (khr_acceleration_structure.AccelerationStructure, common.VkResult, error) {
			structure := mock_acceleration_structure.NewMockAccelerationStructure(ctrl)
			h.accelerationStructures.EXPECT().DestroyAccelerationStructure(h.device, structure, gomock.Nil())
			return structure, core1_0.VKSuccess, nil
		}).AnyTimes()
	h.accelerationStructures.EXPECT().CmdBuildAccelerationStructures(h.commandBuffer, gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	h.accelerationStructures.EXPECT().AccelerationStructureDeviceAddress(h.device, gomock.Any()).Return(uint64(0xA50000), nil).AnyTimes()

	return h
}

func (h *harness) options() Options {
	cfg := config.Default()
	cfg.DevicePoolSize = devicePoolSize
	cfg.HostPoolSize = hostPoolSize
	cfg.ScratchAlignment = 256

	return Options{
		Config:                 cfg,
		Device:                 h.device,
		PhysicalDevice:         h.physicalDevice,
		Queue:                  h.queue,
		CommandPool:            h.commandPool,
		AccelerationStructures: h.accelerationStructures,
		RayTracingPipelines:    h.rayTracingPipelines,
		DeviceAddresses:        h.addresser,
		Loader:                 rtpipeline.FSLoader{FS: testShaders},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard))
}

func sceneGeometry() []accel.Geometry {
	return []accel.Geometry{
		accel.Triangles{
			VertexAddress: 0x1000,
			VertexStride:  12,
			VertexCount:   24,
			IndexAddress:  0x2000,
			IndexCount:    36,
		},
	}
}

func TestContextLifecycle(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHarness(ctrl)

	ctx, err := New(testLogger(), h.options())
	require.NoError(t, err)

	// Nothing to dispatch yet
	_, err = ctx.NewDispatcher(nil)
	require.Error(t, err)
	require.Error(t, ctx.Draw(trace.Frame{Width: 1, Height: 1}))

	require.NoError(t, ctx.BuildScene(sceneGeometry(), accel.NewInstance(nil)))
	require.Equal(t, accel.StateBuilt, ctx.BottomLevel().State())
	require.Equal(t, accel.StateBuilt, ctx.TopLevel().State())
	require.Equal(t, 12, ctx.BottomLevel().PrimitiveCount())
	require.Equal(t, []*accel.AccelerationStructure{ctx.BottomLevel()}, ctx.TopLevel().Instances())
	require.Error(t, ctx.BuildScene(sceneGeometry(), accel.NewInstance(nil)))

	// Only the two structures occupy the device pool. Scratch and instance buffers used their
	// own memory and left no trace in either pool.
	require.Equal(t, 2, ctx.DevicePool().AllocationCount())
	require.Equal(t, 2048, ctx.DevicePool().Cursor())
	require.Equal(t, 0, ctx.HostPool().AllocationCount())
	require.Equal(t, 0, ctx.HostPool().Cursor())
	require.Len(t, h.dedicatedData, 1)

	stats := ctx.Statistics()
	require.Equal(t, 2, stats.BlockCount)
	require.Equal(t, devicePoolSize+hostPoolSize, stats.BlockBytes)
	require.Equal(t, 2, stats.AllocationCount)
	require.Equal(t, 2048, stats.AllocationBytes)
	require.Equal(t, 1024, stats.AllocationSizeMin)
	require.Equal(t, 1024, stats.AllocationSizeMax)

	_, err = ctx.NewDispatcher(nil)
	require.Error(t, err)

	vkPipeline := mocks.NewMockPipeline(ctrl)
	layout := mocks.NewMockPipelineLayout(ctrl)
	h.device.EXPECT().CreateShaderModule(nil, gomock.Any()).DoAndReturn(func(callbacks *driver.AllocationCallbacks, o core1_0.ShaderModuleCreateInfo) (core1_0.ShaderModule, common.VkResult, error) {
		module := mocks.NewMockShaderModule(ctrl)
		module.EXPECT().Destroy(nil)
		return module, core1_0.VKSuccess, nil
	}).Times(5)
	h.rayTracingPipelines.EXPECT().CreateRayTracingPipelines(h.device, nil, nil, gomock.Any()).Return([]core1_0.Pipeline{vkPipeline}, core1_0.VKSuccess, nil)

	handles := make([]byte, 5*32)
	for i := range handles {
		handles[i] = byte(i/32 + 1)
	}
	h.rayTracingPipelines.EXPECT().RayTracingShaderGroupHandles(h.device, vkPipeline, 0, 5, 5*32).Return(handles, core1_0.VKSuccess, nil)

	require.NoError(t, ctx.CreatePipeline(layout))
	require.Error(t, ctx.CreatePipeline(layout))
	require.Equal(t, 3, ctx.HostPool().AllocationCount())

	raygen, miss, hit, callable := ctx.Table().Regions()
	require.Equal(t, 32, raygen.Size)
	require.Equal(t, 64, miss.Size)
	require.Equal(t, 64, hit.Size)
	require.Zero(t, callable.Size)

	fence := mocks.NewMockFence(ctrl)
	semaphore := mocks.NewMockSemaphore(ctrl)
	h.device.EXPECT().CreateFence(nil, core1_0.FenceCreateInfo{Flags: core1_0.FenceCreateSignaled}).Return(fence, core1_0.VKSuccess, nil)
	h.device.EXPECT().CreateSemaphore(nil, core1_0.SemaphoreCreateInfo{}).Return(semaphore, core1_0.VKSuccess, nil)

	dispatcher, err := ctx.NewDispatcher(nil)
	require.NoError(t, err)
	require.Equal(t, dispatcher, ctx.Dispatcher())
	_, err = ctx.NewDispatcher(nil)
	require.Error(t, err)

	h.device.EXPECT().WaitForFences(true, common.NoTimeout, []core1_0.Fence{fence}).Return(core1_0.VKSuccess, nil).Times(3)
	h.commandBuffer.EXPECT().Reset(core1_0.CommandBufferResetFlags(0)).Return(core1_0.VKSuccess, nil).Times(2)
	h.commandBuffer.EXPECT().CmdBindPipeline(khr_ray_tracing_pipeline.PipelineBindPointRayTracing, vkPipeline).Times(2)
	h.rayTracingPipelines.EXPECT().CmdTraceRays(h.commandBuffer, raygen, miss, hit, callable, 800, 600, 1).Times(2)
	h.device.EXPECT().ResetFences([]core1_0.Fence{fence}).Return(core1_0.VKSuccess, nil).Times(2)
	h.queue.EXPECT().Submit(fence, gomock.Any()).Return(core1_0.VKSuccess, nil).Times(2)

	require.NoError(t, ctx.Draw(trace.Frame{Width: 800, Height: 600}))

	constants := trace.PushConstants{Position: [3]float32{1, 2, 3}, Time: 0.5}
	pushed, err := constants.MarshalBinary()
	require.NoError(t, err)
	h.commandBuffer.EXPECT().CmdPushConstants(layout, khr_ray_tracing_pipeline.StageClosestHit, 0, pushed)

	require.NoError(t, ctx.DrawWithConstants(trace.Frame{Width: 800, Height: 600}, constants))
	require.Equal(t, 2, dispatcher.FrameCount())

	writer := jwriter.NewWriter()
	ctx.PrintDetailedMap(&writer)
	require.NoError(t, writer.Error())

	var detailedMap map[string]map[string]any
	require.NoError(t, json.Unmarshal(writer.Bytes(), &detailedMap))
	require.Len(t, detailedMap["DevicePool"]["Regions"], 3)
	require.Equal(t, float64(1), detailedMap["HostPool"]["MemoryTypeIndex"])

	semaphore.EXPECT().Destroy(nil)
	fence.EXPECT().Destroy(nil)
	vkPipeline.EXPECT().Destroy(nil)
	h.hostMemory.EXPECT().Unmap()
	h.hostMemory.EXPECT().Free(nil)
	h.deviceMemory.EXPECT().Free(nil)

	require.NoError(t, ctx.Destroy())
	require.Error(t, ctx.Destroy())
	require.Error(t, ctx.BuildScene(sceneGeometry(), accel.NewInstance(nil)))
}

func TestContextRejectsInvalidConfig(t *testing.T) {
	ctrl := gomock.NewController(t)

	options := Options{
		Config: config.Default(),
		Device: mocks.NewMockDevice(ctrl),
	}
	options.Config.DevicePoolSize = 0

	_, err := New(testLogger(), options)
	require.Error(t, err)
}

func TestContextDestroyWithoutScene(t *testing.T) {
	ctrl := gomock.NewController(t)
	h := newHarness(ctrl)

	ctx, err := New(testLogger(), h.options())
	require.NoError(t, err)

	h.hostMemory.EXPECT().Unmap()
	h.hostMemory.EXPECT().Free(nil)
	h.deviceMemory.EXPECT().Free(nil)
	require.NoError(t, ctx.Destroy())
}
