package rtpipeline

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/core/v2/core1_0"
	"github.com/vkngwrapper/rtkit/khr_ray_tracing_pipeline"
	"github.com/vkngwrapper/rtkit/sbt"
)

// HitGroup names the SPIR-V files of a hit group. A group with an intersection shader is a
// procedural hit group and is hit by AABB geometry; a group without one is a triangle hit group
// and needs at least one of ClosestHit and AnyHit.
type HitGroup struct {
	ClosestHit   string
	AnyHit       string
	Intersection string
}

func (g HitGroup) groupType() khr_ray_tracing_pipeline.ShaderGroupType {
	if g.Intersection != "" {
		return khr_ray_tracing_pipeline.ShaderGroupTypeProceduralHitGroup
	}
	return khr_ray_tracing_pipeline.ShaderGroupTypeTrianglesHitGroup
}

// ShaderSet lists the SPIR-V files of a ray tracing pipeline by group. Groups are created in the
// order raygen, miss, hit, callable, which is also the order of the shader binding table regions.
type ShaderSet struct {
	Raygen   string
	Miss     []string
	Hit      []HitGroup
	Callable []string
}

// Layout returns the shader binding table layout that matches the pipeline's groups
func (s ShaderSet) Layout() sbt.Layout {
	layout := sbt.Layout{
		MissCount:     len(s.Miss),
		HitCount:      len(s.Hit),
		CallableCount: len(s.Callable),
	}
	if s.Raygen != "" {
		layout.RaygenCount = 1
	}
	return layout
}

// Stage is one shader stage of a pipeline. The same file may back several groups but appears as
// a single stage.
type Stage struct {
	Path  string
	Stage core1_0.ShaderStageFlags
}

type stageKey struct {
	path  string
	stage core1_0.ShaderStageFlags
}

type groupAssembler struct {
	stages  []Stage
	indices map[stageKey]int
	groups  []khr_ray_tracing_pipeline.ShaderGroupCreateInfo
}

func (a *groupAssembler) stage(path string, stage core1_0.ShaderStageFlags) int {
	if path == "" {
		return khr_ray_tracing_pipeline.ShaderUnused
	}

	key := stageKey{path: path, stage: stage}
	index, ok := a.indices[key]
	if ok {
		return index
	}

	index = len(a.stages)
	a.stages = append(a.stages, Stage{Path: path, Stage: stage})
	a.indices[key] = index
	return index
}

func (a *groupAssembler) general(path string, stage core1_0.ShaderStageFlags) {
	a.groups = append(a.groups, khr_ray_tracing_pipeline.ShaderGroupCreateInfo{
		Type:               khr_ray_tracing_pipeline.ShaderGroupTypeGeneral,
		GeneralShader:      a.stage(path, stage),
		ClosestHitShader:   khr_ray_tracing_pipeline.ShaderUnused,
		AnyHitShader:       khr_ray_tracing_pipeline.ShaderUnused,
		IntersectionShader: khr_ray_tracing_pipeline.ShaderUnused,
	})
}

// Assemble returns the deduplicated stages of the set and its groups, which reference stages
// by index
func (s ShaderSet) Assemble() ([]Stage, []khr_ray_tracing_pipeline.ShaderGroupCreateInfo, error) {
	if s.Raygen == "" {
		return nil, nil, errors.New("a ray tracing pipeline needs a raygen shader")
	}

	assembler := &groupAssembler{indices: make(map[stageKey]int)}
	assembler.general(s.Raygen, khr_ray_tracing_pipeline.StageRaygen)

	for index, miss := range s.Miss {
		if miss == "" {
			return nil, nil, errors.Newf("miss group %d has no shader", index)
		}
		assembler.general(miss, khr_ray_tracing_pipeline.StageMiss)
	}

	for index, hit := range s.Hit {
		if hit.ClosestHit == "" && hit.AnyHit == "" && hit.Intersection == "" {
			return nil, nil, errors.Newf("hit group %d has no shaders", index)
		}

		assembler.groups = append(assembler.groups, khr_ray_tracing_pipeline.ShaderGroupCreateInfo{
			Type:               hit.groupType(),
			GeneralShader:      khr_ray_tracing_pipeline.ShaderUnused,
			ClosestHitShader:   assembler.stage(hit.ClosestHit, khr_ray_tracing_pipeline.StageClosestHit),
			AnyHitShader:       assembler.stage(hit.AnyHit, khr_ray_tracing_pipeline.StageAnyHit),
			IntersectionShader: assembler.stage(hit.Intersection, khr_ray_tracing_pipeline.StageIntersection),
		})
	}

	for index, callable := range s.Callable {
		if callable == "" {
			return nil, nil, errors.Newf("callable group %d has no shader", index)
		}
		assembler.general(callable, khr_ray_tracing_pipeline.StageCallable)
	}

	return assembler.stages, assembler.groups, nil
}
