package app

import (
	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jwriter"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/rtkit/accel"
	"github.com/vkngwrapper/rtkit/buffers"
	"github.com/vkngwrapper/rtkit/commands"
	"github.com/vkngwrapper/rtkit/config"
	"github.com/vkngwrapper/rtkit/internal/vulkan"
	"github.com/vkngwrapper/rtkit/khr_acceleration_structure"
	"github.com/vkngwrapper/rtkit/khr_ray_tracing_pipeline"
	"github.com/vkngwrapper/rtkit/memutils"
	"github.com/vkngwrapper/rtkit/pool"
	"github.com/vkngwrapper/rtkit/rtpipeline"
	"github.com/vkngwrapper/rtkit/sbt"
	"github.com/vkngwrapper/rtkit/trace"
	"golang.org/x/exp/slog"
)

type Options struct {
	Config config.Config

	Device         core1_0.Device
	PhysicalDevice core1_0.PhysicalDevice
	// Queue receives acceleration structure builds and ray dispatches and must support compute
	Queue       core1_0.Queue
	CommandPool core1_0.CommandPool

	AccelerationStructures khr_acceleration_structure.Extension
	RayTracingPipelines    khr_ray_tracing_pipeline.Extension

	// DeviceAddresses retrieves buffer device addresses. When nil, the device is probed for core
	// 1.2 or khr_buffer_device_address along with the ray tracing extensions.
	DeviceAddresses buffers.DeviceAddresser
	// Loader reads shaders. Defaults to a rtpipeline.FileLoader rooted at Config.ShaderRoot.
	Loader rtpipeline.Loader

	VulkanCallbacks *driver.AllocationCallbacks
}

// Context owns every ray tracing object of an application. Objects are created in stages,
// BuildScene and CreatePipeline in either order followed by NewDispatcher, and Destroy releases
// them in reverse.
type Context struct {
	logger  *slog.Logger
	options Options

	devicePool *pool.Pool
	hostPool   *pool.Pool
	buffers    *buffers.Factory
	submitter  *commands.SingleTime
	builder    *accel.Builder
	sbtBuilder *sbt.Builder

	bottomLevel *accel.AccelerationStructure
	topLevel    *accel.AccelerationStructure
	pipeline    *rtpipeline.Pipeline
	table       *sbt.Table
	dispatcher  *trace.Dispatcher
	destroyed   bool
}

func New(logger *slog.Logger, options Options) (*Context, error) {
	logger.Debug("app::New")

	err := options.Config.Validate()
	if err != nil {
		return nil, err
	}

	if options.DeviceAddresses == nil {
		extensions := vulkan.NewExtensionData(options.Device)
		err = extensions.CheckRayTracing()
		if err != nil {
			return nil, err
		}
		options.DeviceAddresses = extensions.BufferDeviceAddress
	}

	if options.Loader == nil {
		options.Loader = rtpipeline.FileLoader{Root: options.Config.ShaderRoot}
	}

	c := &Context{
		logger:  logger,
		options: options,
	}

	poolFlags := pool.CreateDeviceAddress
	if options.Config.ExternallySynchronized {
		poolFlags |= pool.CreateExternallySynchronized
	}

	c.devicePool, _, err = pool.New(logger, options.Device, options.PhysicalDevice, pool.CreateOptions{
		Flags:           poolFlags,
		Size:            options.Config.DevicePoolSize,
		RequiredFlags:   core1_0.MemoryPropertyDeviceLocal,
		VulkanCallbacks: options.VulkanCallbacks,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create the device pool")
	}

	c.hostPool, _, err = pool.New(logger, options.Device, options.PhysicalDevice, pool.CreateOptions{
		Flags:           poolFlags | pool.CreateMapped,
		Size:            options.Config.HostPoolSize,
		RequiredFlags:   core1_0.MemoryPropertyHostVisible | core1_0.MemoryPropertyHostCoherent,
		VulkanCallbacks: options.VulkanCallbacks,
	})
	if err != nil {
		c.destroyPools()
		return nil, errors.Wrap(err, "failed to create the host pool")
	}

	c.buffers, err = buffers.NewFactory(logger, options.Device, options.PhysicalDevice, buffers.FactoryOptions{
		DevicePool:      c.devicePool,
		HostPool:        c.hostPool,
		DeviceAddresses: options.DeviceAddresses,
		VulkanCallbacks: options.VulkanCallbacks,
	})
	if err != nil {
		c.destroyPools()
		return nil, err
	}

	c.submitter = commands.NewSingleTime(logger, options.Device, options.CommandPool, options.Queue)
	c.builder = accel.NewBuilder(logger, options.Device, options.AccelerationStructures, c.buffers, c.submitter, accel.BuilderOptions{
		BuildFlags:       options.Config.BuildFlags,
		ScratchAlignment: options.Config.ScratchAlignment,
		VulkanCallbacks:  options.VulkanCallbacks,
	})

	c.sbtBuilder, err = sbt.NewBuilder(logger, options.Device, options.PhysicalDevice, options.RayTracingPipelines, c.buffers)
	if err != nil {
		c.destroyPools()
		return nil, err
	}

	return c, nil
}

func (c *Context) DevicePool() *pool.Pool {
	return c.devicePool
}

func (c *Context) HostPool() *pool.Pool {
	return c.hostPool
}

// Buffers creates buffers suballocated from the context's pools
func (c *Context) Buffers() *buffers.Factory {
	return c.buffers
}

func (c *Context) Submitter() commands.Submitter {
	return c.submitter
}

func (c *Context) BottomLevel() *accel.AccelerationStructure {
	return c.bottomLevel
}

func (c *Context) TopLevel() *accel.AccelerationStructure {
	return c.topLevel
}

func (c *Context) Pipeline() *rtpipeline.Pipeline {
	return c.pipeline
}

func (c *Context) Table() *sbt.Table {
	return c.table
}

func (c *Context) Dispatcher() *trace.Dispatcher {
	return c.dispatcher
}

func (c *Context) checkLive() error {
	if c.destroyed {
		return errors.New("the context was already destroyed")
	}
	return nil
}

// BuildScene builds a bottom-level acceleration structure from geometries and a top-level
// structure with a single instance of it. instance.BottomLevel is ignored.
func (c *Context) BuildScene(geometries []accel.Geometry, instance accel.Instance) error {
	c.logger.Debug("Context::BuildScene")

	if err := c.checkLive(); err != nil {
		return err
	}
	if c.topLevel != nil {
		return errors.New("the scene was already built")
	}

	bottomLevel, err := c.builder.BuildBottomLevel("scene bottom level", geometries...)
	if err != nil {
		return err
	}

	instance.BottomLevel = bottomLevel
	topLevel, err := c.builder.BuildTopLevel("scene top level", []accel.Instance{instance})
	if err != nil {
		destroyErr := bottomLevel.Destroy()
		if destroyErr != nil {
			c.logger.Warn("failed to clean up bottom-level acceleration structure", slog.Any("Error", destroyErr))
		}
		return err
	}

	c.bottomLevel = bottomLevel
	c.topLevel = topLevel
	return nil
}

// CreatePipeline creates the ray tracing pipeline from the configured shaders and its shader
// binding table
func (c *Context) CreatePipeline(layout core1_0.PipelineLayout) error {
	c.logger.Debug("Context::CreatePipeline")

	if err := c.checkLive(); err != nil {
		return err
	}
	if c.pipeline != nil {
		return errors.New("the pipeline was already created")
	}

	pipeline, _, err := rtpipeline.Create(c.logger, c.options.Device, c.options.RayTracingPipelines, c.sbtBuilder.Properties(), c.options.Loader, rtpipeline.CreateOptions{
		Shaders:           c.options.Config.Shaders,
		Layout:            layout,
		MaxRecursionDepth: c.options.Config.MaxRecursionDepth,
		VulkanCallbacks:   c.options.VulkanCallbacks,
	})
	if err != nil {
		return err
	}

	table, err := c.sbtBuilder.Build("scene", pipeline.VulkanPipeline(), pipeline.Layout())
	if err != nil {
		destroyErr := pipeline.Destroy()
		if destroyErr != nil {
			c.logger.Warn("failed to clean up ray tracing pipeline", slog.Any("Error", destroyErr))
		}
		return err
	}

	c.pipeline = pipeline
	c.table = table
	return nil
}

// NewDispatcher creates the dispatcher that traces the scene. The scene must be built and the
// pipeline created first.
func (c *Context) NewDispatcher(descriptorSets []core1_0.DescriptorSet) (*trace.Dispatcher, error) {
	c.logger.Debug("Context::NewDispatcher")

	if err := c.checkLive(); err != nil {
		return nil, err
	}
	if c.topLevel == nil {
		return nil, errors.New("the scene must be built before creating a dispatcher")
	}
	if c.pipeline == nil {
		return nil, errors.New("the pipeline must be created before creating a dispatcher")
	}
	if c.dispatcher != nil {
		return nil, errors.New("the dispatcher was already created")
	}

	dispatcher, _, err := trace.NewDispatcher(c.logger, c.options.Device, c.options.Queue, c.options.CommandPool, c.options.RayTracingPipelines, c.pipeline, c.table, trace.DispatcherOptions{
		DescriptorSets:  descriptorSets,
		VulkanCallbacks: c.options.VulkanCallbacks,
	})
	if err != nil {
		return nil, err
	}

	c.dispatcher = dispatcher
	return dispatcher, nil
}

// Draw traces one frame with the configured trace depth
func (c *Context) Draw(frame trace.Frame) error {
	if c.dispatcher == nil {
		return errors.New("a dispatcher must be created before drawing")
	}
	if frame.Depth == 0 {
		frame.Depth = c.options.Config.TraceDepth
	}

	_, err := c.dispatcher.Draw(frame)
	return err
}

// Statistics sums the detailed statistics of both pools
func (c *Context) Statistics() memutils.DetailedStatistics {
	var total memutils.DetailedStatistics
	total.Clear()

	for _, p := range []*pool.Pool{c.devicePool, c.hostPool} {
		var stats memutils.DetailedStatistics
		stats.Clear()
		p.AddDetailedStatistics(&stats)
		total.Add(&stats)
	}

	return total
}

// DrawWithConstants traces one frame, pushing constants to the dispatcher's push constant stages
func (c *Context) DrawWithConstants(frame trace.Frame, constants trace.PushConstants) error {
	data, err := constants.MarshalBinary()
	if err != nil {
		return err
	}

	frame.PushConstants = data
	return c.Draw(frame)
}

// PrintDetailedMap writes the layout of both pools as a JSON object
func (c *Context) PrintDetailedMap(writer *jwriter.Writer) {
	obj := writer.Object()
	defer obj.End()

	obj.Name("DevicePool")
	c.devicePool.PrintDetailedMap(writer)

	obj.Name("HostPool")
	c.hostPool.PrintDetailedMap(writer)
}

func (c *Context) destroyPools() error {
	var err error
	if c.hostPool != nil {
		err = errors.CombineErrors(err, c.hostPool.Destroy())
		c.hostPool = nil
	}
	if c.devicePool != nil {
		err = errors.CombineErrors(err, c.devicePool.Destroy())
		c.devicePool = nil
	}
	return err
}

// Destroy releases everything the context created, newest first. Errors are collected and
// destruction continues past them.
func (c *Context) Destroy() error {
	c.logger.Debug("Context::Destroy")

	if err := c.checkLive(); err != nil {
		return err
	}
	c.destroyed = true

	var err error
	if c.dispatcher != nil {
		err = errors.CombineErrors(err, c.dispatcher.Destroy())
		c.dispatcher = nil
	}
	if c.table != nil {
		err = errors.CombineErrors(err, c.table.Destroy())
		c.table = nil
	}
	if c.pipeline != nil {
		err = errors.CombineErrors(err, c.pipeline.Destroy())
		c.pipeline = nil
	}
	if c.topLevel != nil {
		err = errors.CombineErrors(err, c.topLevel.Destroy())
		c.topLevel = nil
	}
	if c.bottomLevel != nil {
		err = errors.CombineErrors(err, c.bottomLevel.Destroy())
		c.bottomLevel = nil
	}

	return errors.CombineErrors(err, c.destroyPools())
}
