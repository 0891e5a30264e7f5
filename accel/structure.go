package accel

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/rtkit/buffers"
	"github.com/vkngwrapper/rtkit/khr_acceleration_structure"
	"golang.org/x/exp/slog"
)

// AccelerationStructure is a bottom-level or top-level acceleration structure together with the
// buffer that stores it
type AccelerationStructure struct {
	logger  *slog.Logger
	builder *Builder

	name  string
	level khr_acceleration_structure.AccelerationStructureType
	state State

	sizes          khr_acceleration_structure.BuildSizesInfo
	primitiveCount int

	buffer        buffers.Resource
	handle        khr_acceleration_structure.AccelerationStructure
	deviceAddress uint64

	// Bottom-level structures referenced by a top-level structure
	instances []*AccelerationStructure
}

func (a *AccelerationStructure) Name() string {
	return a.name
}

func (a *AccelerationStructure) Type() khr_acceleration_structure.AccelerationStructureType {
	return a.level
}

func (a *AccelerationStructure) State() State {
	return a.state
}

// Sizes returns the size requirements reported when the build was prepared
func (a *AccelerationStructure) Sizes() khr_acceleration_structure.BuildSizesInfo {
	return a.sizes
}

func (a *AccelerationStructure) PrimitiveCount() int {
	return a.primitiveCount
}

func (a *AccelerationStructure) Handle() khr_acceleration_structure.AccelerationStructure {
	return a.handle
}

// Buffer returns the buffer the acceleration structure is stored in
func (a *AccelerationStructure) Buffer() buffers.Resource {
	return a.buffer
}

// DeviceAddress returns the address used to reference this structure from instances and shaders.
// It is only available once the build has completed.
func (a *AccelerationStructure) DeviceAddress() (uint64, error) {
	if a.state != StateBuilt {
		return 0, errors.Newf("acceleration structure %s has no device address in state %s", a.name, a.state)
	}
	return a.deviceAddress, nil
}

// Instances returns the bottom-level structures a top-level structure was built from
func (a *AccelerationStructure) Instances() []*AccelerationStructure {
	return a.instances
}

func (a *AccelerationStructure) advance(to State) error {
	if to != a.state+1 {
		return errors.Newf("acceleration structure %s cannot move from %s to %s", a.name, a.state, to)
	}
	a.state = to
	return nil
}

// Destroy releases the acceleration structure and its buffer
func (a *AccelerationStructure) Destroy() error {
	a.logger.Debug("AccelerationStructure::Destroy", slog.String("Name", a.name))

	if a.state == StateDestroyed {
		return errors.Newf("acceleration structure %s was already destroyed", a.name)
	}
	a.state = StateDestroyed

	if a.handle != nil {
		a.builder.extension.DestroyAccelerationStructure(a.builder.device, a.handle, a.builder.options.VulkanCallbacks)
		a.handle = nil
	}

	var err error
	if a.buffer != nil {
		err = a.buffer.Destroy()
		a.buffer = nil
	}

	a.instances = nil
	return err
}
