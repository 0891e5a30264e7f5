package rtpipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/common"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/core/v2/driver"
	"github.com/vkngwrapper/rtkit/khr_ray_tracing_pipeline"
	"github.com/vkngwrapper/rtkit/sbt"
	"golang.org/x/exp/slog"
)

// CreateOptions describes a ray tracing pipeline
type CreateOptions struct {
	Shaders ShaderSet
	Layout  core1_0.PipelineLayout
	// MaxRecursionDepth defaults to 1 and may not exceed the device's MaxRayRecursionDepth
	MaxRecursionDepth int

	VulkanCallbacks *driver.AllocationCallbacks
}

// Pipeline is a ray tracing pipeline together with the shader binding table layout of its groups
type Pipeline struct {
	logger    *slog.Logger
	pipeline  core1_0.Pipeline
	layout    core1_0.PipelineLayout
	sbtLayout sbt.Layout

	stages []Stage
	groups []khr_ray_tracing_pipeline.ShaderGroupCreateInfo

	allocationCallbacks *driver.AllocationCallbacks
	destroyed           bool
}

// Create loads every shader of options.Shaders through loader, creates the pipeline, and
// destroys the shader modules again
func Create(logger *slog.Logger, device core1_0.Device, extension khr_ray_tracing_pipeline.Extension, properties *khr_ray_tracing_pipeline.PhysicalDeviceRayTracingPipelineProperties, loader Loader, options CreateOptions) (*Pipeline, common.VkResult, error) {
	logger.Debug("rtpipeline::Create")

	if options.Layout == nil {
		return nil, core1_0.VKErrorUnknown, errors.New("a ray tracing pipeline needs a pipeline layout")
	}

	depth := options.MaxRecursionDepth
	if depth == 0 {
		depth = 1
	}
	if depth < 1 || depth > properties.MaxRayRecursionDepth {
		return nil, core1_0.VKErrorFeatureNotPresent, errors.Newf("recursion depth %d is outside of the device's supported range 1-%d", depth, properties.MaxRayRecursionDepth)
	}

	stages, groups, err := options.Shaders.Assemble()
	if err != nil {
		return nil, core1_0.VKErrorUnknown, err
	}

	modules := make(map[string]core1_0.ShaderModule)
	defer func() {
		for _, module := range modules {
			module.Destroy(options.VulkanCallbacks)
		}
	}()

	stageInfos := make([]core1_0.PipelineShaderStageCreateInfo, 0, len(stages))
	for _, stage := range stages {
		module, ok := modules[stage.Path]
		if !ok {
			var res common.VkResult
			module, res, err = createShaderModule(device, loader, stage.Path, options.VulkanCallbacks)
			if err != nil {
				return nil, res, err
			}
			modules[stage.Path] = module
		}

		stageInfos = append(stageInfos, core1_0.PipelineShaderStageCreateInfo{
			Stage:  stage.Stage,
			Module: module,
			Name:   "main",
		})
	}

	pipelines, res, err := extension.CreateRayTracingPipelines(device, nil, options.VulkanCallbacks, []khr_ray_tracing_pipeline.PipelineCreateInfo{
		{
			Stages:                       stageInfos,
			Groups:                       groups,
			MaxPipelineRayRecursionDepth: depth,
			Layout:                       options.Layout,
		},
	})
	if err != nil {
		return nil, res, errors.Wrap(err, "failed to create the ray tracing pipeline")
	}
	if len(pipelines) != 1 {
		return nil, core1_0.VKErrorUnknown, errors.Newf("expected one ray tracing pipeline but received %d", len(pipelines))
	}

	logger.Debug("Ray tracing pipeline created",
		slog.Int("Stages", len(stageInfos)),
		slog.Int("Groups", len(groups)),
		slog.Int("Modules", len(modules)),
		slog.Int("RecursionDepth", depth),
	)

	return &Pipeline{
		logger:              logger,
		pipeline:            pipelines[0],
		layout:              options.Layout,
		sbtLayout:           options.Shaders.Layout(),
		stages:              stages,
		groups:              groups,
		allocationCallbacks: options.VulkanCallbacks,
	}, res, nil
}

func createShaderModule(device core1_0.Device, loader Loader, path string, callbacks *driver.AllocationCallbacks) (core1_0.ShaderModule, common.VkResult, error) {
	data, err := loader.Load(path)
	if err != nil {
		return nil, core1_0.VKErrorUnknown, err
	}

	code, err := BytesToBytecode(data)
	if err != nil {
		return nil, core1_0.VKErrorUnknown, errors.Wrapf(err, "shader %s", path)
	}

	module, res, err := device.CreateShaderModule(callbacks, core1_0.ShaderModuleCreateInfo{
		Code: code,
	})
	if err != nil {
		return nil, res, errors.Wrapf(err, "failed to create the shader module for %s", path)
	}
	return module, res, nil
}

func (p *Pipeline) VulkanPipeline() core1_0.Pipeline {
	return p.pipeline
}

func (p *Pipeline) PipelineLayout() core1_0.PipelineLayout {
	return p.layout
}

// Layout returns the shader binding table layout of the pipeline's groups
func (p *Pipeline) Layout() sbt.Layout {
	return p.sbtLayout
}

func (p *Pipeline) Stages() []Stage {
	return p.stages
}

func (p *Pipeline) Groups() []khr_ray_tracing_pipeline.ShaderGroupCreateInfo {
	return p.groups
}

func (p *Pipeline) Destroy() error {
	p.logger.Debug("Pipeline::Destroy")

	if p.destroyed {
		return errors.New("ray tracing pipeline was already destroyed")
	}
	p.destroyed = true

	p.pipeline.Destroy(p.allocationCallbacks)
	return nil
}
