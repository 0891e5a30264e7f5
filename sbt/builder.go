package sbt

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/extensions/v2/khr_buffer_device_address"
	"github.com/vkngwrapper/rtkit/buffers"
	"github.com/vkngwrapper/rtkit/khr_ray_tracing_pipeline"
	"github.com/vkngwrapper/rtkit/memutils"
	"golang.org/x/exp/slog"
)

// Builder creates shader binding tables for ray tracing pipelines created on a single device
type Builder struct {
	logger     *slog.Logger
	device     core1_0.Device
	extension  khr_ray_tracing_pipeline.Extension
	buffers    buffers.Source
	properties *khr_ray_tracing_pipeline.PhysicalDeviceRayTracingPipelineProperties
}

func NewBuilder(logger *slog.Logger, device core1_0.Device, physicalDevice core1_0.PhysicalDevice, extension khr_ray_tracing_pipeline.Extension, source buffers.Source) (*Builder, error) {
	properties, err := extension.PhysicalDeviceRayTracingPipelineProperties(physicalDevice)
	if err != nil {
		return nil, errors.Wrap(err, "failed to retrieve ray tracing pipeline properties")
	}

	stride, err := HandleStride(properties.ShaderGroupHandleSize, properties.ShaderGroupHandleAlignment)
	if err != nil {
		return nil, err
	}
	if properties.MaxShaderGroupStride > 0 && stride > properties.MaxShaderGroupStride {
		return nil, errors.Newf("shader group stride %d exceeds the device maximum of %d", stride, properties.MaxShaderGroupStride)
	}
	if properties.ShaderGroupBaseAlignment > 1 {
		err = memutils.CheckPow2(properties.ShaderGroupBaseAlignment, "shader group base alignment")
		if err != nil {
			return nil, err
		}
	}

	return &Builder{
		logger:     logger,
		device:     device,
		extension:  extension,
		buffers:    source,
		properties: properties,
	}, nil
}

func (b *Builder) Properties() *khr_ray_tracing_pipeline.PhysicalDeviceRayTracingPipelineProperties {
	return b.properties
}

// Build retrieves the group handles of pipeline and copies each region's handles into its own
// buffer. Any failure destroys whatever was already created.
func (b *Builder) Build(name string, pipeline core1_0.Pipeline, layout Layout) (table *Table, err error) {
	b.logger.Debug("Builder::Build")

	err = layout.Validate()
	if err != nil {
		return nil, err
	}

	handleSize := b.properties.ShaderGroupHandleSize
	stride, err := HandleStride(handleSize, b.properties.ShaderGroupHandleAlignment)
	if err != nil {
		return nil, err
	}

	groupCount := layout.GroupCount()
	data, _, err := b.extension.RayTracingShaderGroupHandles(b.device, pipeline, 0, groupCount, groupCount*handleSize)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to retrieve shader group handles for shader binding table %s", name)
	}

	handles, err := SplitHandles(data, handleSize, groupCount)
	if err != nil {
		return nil, err
	}

	table = &Table{
		logger:     b.logger,
		name:       name,
		layout:     layout,
		handleSize: handleSize,
		stride:     stride,
	}
	defer func() {
		if err != nil {
			destroyErr := table.Destroy()
			if destroyErr != nil {
				b.logger.Warn("failed to clean up shader binding table", slog.String("Name", name), slog.Any("Error", destroyErr))
			}
			table = nil
		}
	}()

	for kind := RegionRaygen; kind < regionCount; kind++ {
		count := layout.Count(kind)
		if count == 0 {
			continue
		}

		first := layout.FirstGroup(kind)
		err = b.buildRegion(table, kind, handles[first:first+count])
		if err != nil {
			return table, err
		}
	}

	b.logger.Debug("Shader binding table built",
		slog.String("Name", name),
		slog.Int("Groups", groupCount),
		slog.Int("HandleSize", handleSize),
		slog.Int("Stride", stride),
	)

	return table, nil
}

func (b *Builder) buildRegion(table *Table, kind RegionKind, handles [][]byte) error {
	regionSize := len(handles) * table.stride

	baseAlignment := b.properties.ShaderGroupBaseAlignment
	bufferSize := regionSize
	if baseAlignment > 1 {
		// Room to move the region start up to the next aligned address
		bufferSize += baseAlignment - 1
	}

	resource, err := b.buffers.CreateHostBuffer(table.name+" "+kind.String(), bufferSize,
		khr_ray_tracing_pipeline.BufferUsageShaderBindingTable|khr_buffer_device_address.BufferUsageShaderDeviceAddress)
	if err != nil {
		return errors.Wrapf(err, "failed to create the %s buffer of shader binding table %s", kind, table.name)
	}
	table.buffers[kind] = resource

	address := resource.DeviceAddress()
	if baseAlignment > 1 {
		address = memutils.AlignUp(address, uint64(baseAlignment))
	}
	start := int(address - resource.DeviceAddress())

	records := make([]byte, regionSize)
	for index, handle := range handles {
		copy(records[index*table.stride:], handle)
	}

	err = resource.Write(start, records)
	if err != nil {
		return errors.Wrapf(err, "failed to write the %s records of shader binding table %s", kind, table.name)
	}

	table.regions[kind] = khr_ray_tracing_pipeline.StridedDeviceAddressRegion{
		DeviceAddress: address,
		Stride:        table.stride,
		Size:          regionSize,
	}
	return nil
}
