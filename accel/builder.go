package accel

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"
	"github.com/vkngwrapper/rtkit/buffers"
	"github.com/vkngwrapper/rtkit/commands"
	"github.com/vkngwrapper/rtkit/khr_acceleration_structure"
	"golang.org/x/exp/slog"
)

type BuilderOptions struct {
	// BuildFlags are applied to every build. 0 selects khr_acceleration_structure.BuildPreferFastTrace.
	BuildFlags khr_acceleration_structure.BuildFlags
	// ScratchAlignment is the device's minAccelerationStructureScratchOffsetAlignment. 0 and 1 leave
	// scratch addresses unaligned.
	ScratchAlignment int

	VulkanCallbacks *driver.AllocationCallbacks
}

// Builder builds acceleration structures synchronously. Each build allocates the structure's
// buffer and a scratch buffer, records the build into a single-time command buffer, waits for it
// to complete, and destroys the scratch buffer.
type Builder struct {
	logger    *slog.Logger
	device    core1_0.Device
	extension khr_acceleration_structure.Extension
	buffers   buffers.Source
	submitter commands.Submitter
	options   BuilderOptions
}

func NewBuilder(logger *slog.Logger, device core1_0.Device, extension khr_acceleration_structure.Extension, source buffers.Source, submitter commands.Submitter, options BuilderOptions) *Builder {
	if options.BuildFlags == 0 {
		options.BuildFlags = khr_acceleration_structure.BuildPreferFastTrace
	}

	return &Builder{
		logger:    logger,
		device:    device,
		extension: extension,
		buffers:   source,
		submitter: submitter,
		options:   options,
	}
}

// BuildBottomLevel builds a bottom-level acceleration structure over one or more geometries
func (b *Builder) BuildBottomLevel(name string, geometries ...Geometry) (*AccelerationStructure, error) {
	b.logger.Debug("Builder::BuildBottomLevel")

	if len(geometries) == 0 {
		return nil, errors.Newf("bottom-level acceleration structure %s has no geometry", name)
	}

	vkGeometries := make([]khr_acceleration_structure.Geometry, 0, len(geometries))
	ranges := make([]khr_acceleration_structure.BuildRangeInfo, 0, len(geometries))
	for index, geometry := range geometries {
		vkGeometry, primitiveCount, err := geometry.describe()
		if err != nil {
			return nil, errors.Wrapf(err, "bottom-level acceleration structure %s geometry %d", name, index)
		}

		vkGeometries = append(vkGeometries, vkGeometry)
		ranges = append(ranges, khr_acceleration_structure.BuildRangeInfo{
			PrimitiveCount: primitiveCount,
		})
	}

	structure := b.newStructure(name, khr_acceleration_structure.AccelerationStructureTypeBottomLevel)
	err := b.build(structure, vkGeometries, ranges)
	if err != nil {
		return nil, err
	}

	return structure, nil
}

// BuildTopLevel builds a top-level acceleration structure with one instance per entry of
// instances. Every referenced bottom-level structure must be built, and may appear only once.
func (b *Builder) BuildTopLevel(name string, instances []Instance) (*AccelerationStructure, error) {
	b.logger.Debug("Builder::BuildTopLevel")

	if len(instances) == 0 {
		return nil, errors.Newf("top-level acceleration structure %s has no instances", name)
	}

	records := make([]khr_acceleration_structure.Instance, 0, len(instances))
	referenced := make([]*AccelerationStructure, 0, len(instances))
	seen := make(map[*AccelerationStructure]int, len(instances))
	for index, instance := range instances {
		if instance.BottomLevel == nil {
			return nil, errors.Newf("top-level acceleration structure %s instance %d has no bottom-level structure", name, index)
		}
		if instance.BottomLevel.level != khr_acceleration_structure.AccelerationStructureTypeBottomLevel {
			return nil, errors.Newf("top-level acceleration structure %s instance %d references %s, which is not bottom-level", name, index, instance.BottomLevel.name)
		}
		if previous, duplicate := seen[instance.BottomLevel]; duplicate {
			return nil, errors.Newf("top-level acceleration structure %s instances %d and %d both reference %s", name, previous, index, instance.BottomLevel.name)
		}
		seen[instance.BottomLevel] = index

		address, err := instance.BottomLevel.DeviceAddress()
		if err != nil {
			return nil, err
		}

		records = append(records, khr_acceleration_structure.Instance{
			Transform:                      instance.Transform,
			CustomIndex:                    instance.CustomIndex,
			Mask:                           instance.Mask,
			ShaderBindingTableRecordOffset: instance.HitGroupOffset,
			Flags:                          instance.Flags,
			AccelerationStructureReference: address,
		})
		referenced = append(referenced, instance.BottomLevel)
	}

	data, err := khr_acceleration_structure.EncodeInstances(records)
	if err != nil {
		return nil, errors.Wrapf(err, "top-level acceleration structure %s", name)
	}

	instanceBuffer, err := b.buffers.CreateTransientHostBuffer(name+" instances", len(data),
		khr_buffer_device_address.BufferUsageShaderDeviceAddress|khr_acceleration_structure.BufferUsageAccelerationStructureBuildInputReadOnly)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to create the instance buffer for top-level acceleration structure %s", name)
	}
	defer func() {
		destroyErr := instanceBuffer.Destroy()
		if destroyErr != nil {
			b.logger.Warn("failed to destroy instance buffer", slog.String("Name", name), slog.Any("Error", destroyErr))
		}
	}()

	err = instanceBuffer.Write(0, data)
	if err != nil {
		return nil, err
	}

	structure := b.newStructure(name, khr_acceleration_structure.AccelerationStructureTypeTopLevel)
	err = b.build(structure, []khr_acceleration_structure.Geometry{
		{
			Type:  khr_acceleration_structure.GeometryTypeInstances,
			Flags: khr_acceleration_structure.GeometryOpaque,
			Instances: khr_acceleration_structure.GeometryInstancesData{
				Data: instanceBuffer.DeviceAddress(),
			},
		},
	}, []khr_acceleration_structure.BuildRangeInfo{
		{PrimitiveCount: len(records)},
	})
	if err != nil {
		return nil, err
	}

	structure.instances = referenced
	return structure, nil
}

func (b *Builder) newStructure(name string, level khr_acceleration_structure.AccelerationStructureType) *AccelerationStructure {
	return &AccelerationStructure{
		logger:  b.logger,
		builder: b,
		name:    name,
		level:   level,
		state:   StateUnbuilt,
	}
}

func (b *Builder) build(structure *AccelerationStructure, geometries []khr_acceleration_structure.Geometry, ranges []khr_acceleration_structure.BuildRangeInfo) (err error) {
	defer func() {
		if err != nil && structure.state != StateDestroyed {
			destroyErr := structure.Destroy()
			if destroyErr != nil {
				b.logger.Warn("failed to clean up acceleration structure", slog.String("Name", structure.name), slog.Any("Error", destroyErr))
			}
		}
	}()

	buildInfo := khr_acceleration_structure.BuildGeometryInfo{
		Type:       structure.level,
		Flags:      b.options.BuildFlags,
		Mode:       khr_acceleration_structure.BuildModeBuild,
		Geometries: geometries,
	}

	primitiveCounts := make([]int, 0, len(ranges))
	for _, buildRange := range ranges {
		primitiveCounts = append(primitiveCounts, buildRange.PrimitiveCount)
		structure.primitiveCount += buildRange.PrimitiveCount
	}

	structure.sizes, err = b.extension.AccelerationStructureBuildSizes(b.device, khr_acceleration_structure.BuildTypeDevice, buildInfo, primitiveCounts)
	if err != nil {
		return errors.Wrapf(err, "failed to query build sizes for acceleration structure %s", structure.name)
	}
	if structure.sizes.AccelerationStructureSize <= 0 {
		return errors.Newf("acceleration structure %s reported size %d", structure.name, structure.sizes.AccelerationStructureSize)
	}
	err = structure.advance(StateSizeQueried)
	if err != nil {
		return err
	}

	structure.buffer, err = b.buffers.CreateDeviceBuffer(structure.name, structure.sizes.AccelerationStructureSize,
		khr_acceleration_structure.BufferUsageAccelerationStructureStorage|khr_buffer_device_address.BufferUsageShaderDeviceAddress)
	if err != nil {
		return errors.Wrapf(err, "failed to create the buffer for acceleration structure %s", structure.name)
	}

	structure.handle, _, err = b.extension.CreateAccelerationStructure(b.device, b.options.VulkanCallbacks, khr_acceleration_structure.CreateInfo{
		Buffer: structure.buffer.VulkanBuffer(),
		Offset: 0,
		Size:   structure.sizes.AccelerationStructureSize,
		Type:   structure.level,
	})
	if err != nil {
		structure.handle = nil
		return errors.Wrapf(err, "failed to create acceleration structure %s", structure.name)
	}
	err = structure.advance(StateAllocated)
	if err != nil {
		return err
	}

	scratch, err := b.createScratch(structure.name, structure.sizes.BuildScratchSize)
	if err != nil {
		return err
	}
	defer func() {
		scratchErr := scratch.Destroy()
		if err == nil {
			err = scratchErr
		}
	}()
	err = structure.advance(StateScratchReady)
	if err != nil {
		return err
	}

	buildInfo.DstAccelerationStructure = structure.handle
	buildInfo.ScratchData = scratch.address

	err = b.submitter.Submit(func(commandBuffer core1_0.CommandBuffer) error {
		return b.extension.CmdBuildAccelerationStructures(commandBuffer,
			[]khr_acceleration_structure.BuildGeometryInfo{buildInfo},
			[][]khr_acceleration_structure.BuildRangeInfo{ranges})
	})
	if err != nil {
		return errors.Wrapf(err, "failed to build acceleration structure %s", structure.name)
	}

	structure.deviceAddress, err = b.extension.AccelerationStructureDeviceAddress(b.device, structure.handle)
	if err != nil {
		return errors.Wrapf(err, "failed to get the device address of acceleration structure %s", structure.name)
	}
	err = structure.advance(StateBuilt)
	if err != nil {
		return err
	}

	b.logger.Debug("Acceleration structure built",
		slog.String("Name", structure.name),
		slog.String("Type", structure.level.String()),
		slog.Int("Primitives", structure.primitiveCount),
		slog.Int("Size", structure.sizes.AccelerationStructureSize),
		slog.Int("ScratchSize", structure.sizes.BuildScratchSize),
	)

	return nil
}
