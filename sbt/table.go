package sbt

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/rtkit/buffers"
	"github.com/vkngwrapper/rtkit/khr_ray_tracing_pipeline"
	"golang.org/x/exp/slog"
)

// Table is a shader binding table with one host visible buffer per non-empty region
type Table struct {
	logger *slog.Logger
	name   string

	layout     Layout
	handleSize int
	stride     int

	buffers   [regionCount]buffers.Resource
	regions   [regionCount]khr_ray_tracing_pipeline.StridedDeviceAddressRegion
	destroyed bool
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Layout() Layout {
	return t.layout
}

func (t *Table) HandleSize() int {
	return t.handleSize
}

// Stride is the distance between records in every region
func (t *Table) Stride() int {
	return t.stride
}

// Region returns the address range of a single region. Empty regions are zero.
func (t *Table) Region(kind RegionKind) khr_ray_tracing_pipeline.StridedDeviceAddressRegion {
	return t.regions[kind]
}

// Regions returns the four regions in the order khr_ray_tracing_pipeline.Extension.CmdTraceRays
// accepts them
func (t *Table) Regions() (raygen, miss, hit, callable khr_ray_tracing_pipeline.StridedDeviceAddressRegion) {
	return t.regions[RegionRaygen], t.regions[RegionMiss], t.regions[RegionHit], t.regions[RegionCallable]
}

func (t *Table) Destroy() error {
	t.logger.Debug("Table::Destroy", slog.String("Name", t.name))

	if t.destroyed {
		return errors.Newf("shader binding table %s was already destroyed", t.name)
	}
	t.destroyed = true

	var err error
	for kind, resource := range t.buffers {
		if resource == nil {
			continue
		}

		destroyErr := resource.Destroy()
		if destroyErr != nil && err == nil {
			err = errors.Wrapf(destroyErr, "failed to destroy the %s buffer", RegionKind(kind))
		}
		t.buffers[kind] = nil
	}

	return err
}
