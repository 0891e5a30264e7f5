package trace

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/rtkit/khr_ray_tracing_pipeline"
	"golang.org/x/exp/slog"
)

// Pipeline is the ray tracing pipeline a Dispatcher binds
type Pipeline interface {
	VulkanPipeline() core1_0.Pipeline
	PipelineLayout() core1_0.PipelineLayout
}

// RegionSource provides the shader binding table regions passed to every trace
type RegionSource interface {
	Regions() (raygen, miss, hit, callable khr_ray_tracing_pipeline.StridedDeviceAddressRegion)
}

type DispatcherOptions struct {
	// DescriptorSets are bound at set 0 onward before every trace
	DescriptorSets []core1_0.DescriptorSet
	// PushConstantStages defaults to khr_ray_tracing_pipeline.StageClosestHit
	PushConstantStages core1_0.ShaderStageFlags

	VulkanCallbacks *driver.AllocationCallbacks
}

// Frame is a single ray dispatch
type Frame struct {
	Width  int
	Height int
	// Depth defaults to 1
	Depth int

	PushConstants []byte
	// WaitSemaphores are waited on at the ray tracing shader stage before the trace runs
	WaitSemaphores []core1_0.Semaphore
}

// Dispatcher records and submits ray dispatches into a single reusable command buffer. Only one
// frame is in flight at a time: Draw waits for the previous frame's fence before recording.
type Dispatcher struct {
	logger      *slog.Logger
	device      core1_0.Device
	queue       core1_0.Queue
	commandPool core1_0.CommandPool
	extension   khr_ray_tracing_pipeline.Extension
	pipeline    Pipeline
	regions     RegionSource
	options     DispatcherOptions

	commandBuffer core1_0.CommandBuffer
	inFlight      core1_0.Fence
	finished      core1_0.Semaphore
	frameCount    int
	// unsubmitted is set while the fence is reset but no submission exists to signal it
	unsubmitted bool
}

func NewDispatcher(logger *slog.Logger, device core1_0.Device, queue core1_0.Queue, commandPool core1_0.CommandPool, extension khr_ray_tracing_pipeline.Extension, pipeline Pipeline, regions RegionSource, options DispatcherOptions) (*Dispatcher, common.VkResult, error) {
	logger.Debug("trace::NewDispatcher")

	if options.PushConstantStages == 0 {
		options.PushConstantStages = khr_ray_tracing_pipeline.StageClosestHit
	}

	d := &Dispatcher{
		logger:      logger,
		device:      device,
		queue:       queue,
		commandPool: commandPool,
		extension:   extension,
		pipeline:    pipeline,
		regions:     regions,
		options:     options,
	}

	commandBuffers, res, err := device.AllocateCommandBuffers(core1_0.CommandBufferAllocateInfo{
		CommandPool:        commandPool,
		Level:              core1_0.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	})
	if err != nil {
		return nil, res, errors.Wrap(err, "failed to allocate the ray tracing command buffer")
	}
	d.commandBuffer = commandBuffers[0]

	// Created signaled so the first Draw doesn't wait forever
	d.inFlight, res, err = device.CreateFence(options.VulkanCallbacks, core1_0.FenceCreateInfo{
		Flags: core1_0.FenceCreateSignaled,
	})
	if err != nil {
		d.inFlight = nil
		d.release()
		return nil, res, errors.Wrap(err, "failed to create the ray tracing fence")
	}

	d.finished, res, err = device.CreateSemaphore(options.VulkanCallbacks, core1_0.SemaphoreCreateInfo{})
	if err != nil {
		d.finished = nil
		d.release()
		return nil, res, errors.Wrap(err, "failed to create the ray tracing semaphore")
	}

	return d, res, nil
}

// FinishedSemaphore is signaled when a submitted frame's trace completes
func (d *Dispatcher) FinishedSemaphore() core1_0.Semaphore {
	return d.finished
}

func (d *Dispatcher) CommandBuffer() core1_0.CommandBuffer {
	return d.commandBuffer
}

// FrameCount returns the number of frames submitted so far
func (d *Dispatcher) FrameCount() int {
	return d.frameCount
}

// Wait blocks until the most recently submitted frame has finished executing
func (d *Dispatcher) Wait() (common.VkResult, error) {
	if d.unsubmitted {
		return core1_0.VKSuccess, nil
	}

	res, err := d.device.WaitForFences(true, common.NoTimeout, []core1_0.Fence{d.inFlight})
	if err != nil {
		return res, errors.Wrap(err, "failed waiting for the ray tracing fence")
	}
	return res, nil
}

// Draw records a trace of frame.Width x frame.Height x frame.Depth rays and submits it
func (d *Dispatcher) Draw(frame Frame) (common.VkResult, error) {
	d.logger.Debug("Dispatcher::Draw")

	depth := frame.Depth
	if depth == 0 {
		depth = 1
	}
	if frame.Width <= 0 || frame.Height <= 0 || depth < 0 {
		return core1_0.VKErrorUnknown, errors.Newf("cannot trace a %dx%dx%d frame", frame.Width, frame.Height, depth)
	}

	res, err := d.Wait()
	if err != nil {
		return res, err
	}

	res, err = d.commandBuffer.Reset(0)
	if err != nil {
		return res, errors.Wrap(err, "failed to reset the ray tracing command buffer")
	}

	res, err = d.commandBuffer.Begin(core1_0.CommandBufferBeginInfo{
		Flags: core1_0.CommandBufferUsageSimultaneousUse,
	})
	if err != nil {
		return res, errors.Wrap(err, "failed to begin the ray tracing command buffer")
	}

	layout := d.pipeline.PipelineLayout()
	d.commandBuffer.CmdBindPipeline(khr_ray_tracing_pipeline.PipelineBindPointRayTracing, d.pipeline.VulkanPipeline())
	if len(d.options.DescriptorSets) > 0 {
		d.commandBuffer.CmdBindDescriptorSets(khr_ray_tracing_pipeline.PipelineBindPointRayTracing, layout, 0, d.options.DescriptorSets, nil)
	}
	if len(frame.PushConstants) > 0 {
		d.commandBuffer.CmdPushConstants(layout, d.options.PushConstantStages, 0, frame.PushConstants)
	}

	raygen, miss, hit, callable := d.regions.Regions()
	d.extension.CmdTraceRays(d.commandBuffer, raygen, miss, hit, callable, frame.Width, frame.Height, depth)

	res, err = d.commandBuffer.End()
	if err != nil {
		return res, errors.Wrap(err, "failed to end the ray tracing command buffer")
	}

	res, err = d.device.ResetFences([]core1_0.Fence{d.inFlight})
	if err != nil {
		return res, errors.Wrap(err, "failed to reset the ray tracing fence")
	}
	d.unsubmitted = true

	var waitStages []core1_0.PipelineStageFlags
	for range frame.WaitSemaphores {
		waitStages = append(waitStages, khr_ray_tracing_pipeline.PipelineStageRayTracingShader)
	}

	res, err = d.queue.Submit(d.inFlight, []core1_0.SubmitInfo{
		{
			WaitSemaphores:   frame.WaitSemaphores,
			WaitDstStageMask: waitStages,
			CommandBuffers:   []core1_0.CommandBuffer{d.commandBuffer},
			SignalSemaphores: []core1_0.Semaphore{d.finished},
		},
	})
	if err != nil {
		return res, errors.Wrap(err, "failed to submit the ray tracing command buffer")
	}
	d.unsubmitted = false

	d.frameCount++
	return res, nil
}

func (d *Dispatcher) release() {
	if d.finished != nil {
		d.finished.Destroy(d.options.VulkanCallbacks)
		d.finished = nil
	}
	if d.inFlight != nil {
		d.inFlight.Destroy(d.options.VulkanCallbacks)
		d.inFlight = nil
	}
	if d.commandBuffer != nil {
		d.device.FreeCommandBuffers([]core1_0.CommandBuffer{d.commandBuffer})
		d.commandBuffer = nil
	}
}

// Destroy waits for the frame in flight and releases the dispatcher's command buffer and
// synchronization objects
func (d *Dispatcher) Destroy() error {
	d.logger.Debug("Dispatcher::Destroy")

	if d.commandBuffer == nil {
		return errors.New("dispatcher was already destroyed")
	}

	_, err := d.Wait()
	d.release()
	return err
}
