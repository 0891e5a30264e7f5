package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/launchdarkly/go-jsonstream/v3/jreader"
	"github.com/vkngwrapper/rtkit/khr_acceleration_structure"
	"github.com/vkngwrapper/rtkit/rtpipeline"
)

// Config holds the settings an app.Context is created from
type Config struct {
	// DevicePoolSize is the size in bytes of the device-local pool that acceleration structures
	// are suballocated from. Scratch buffers get their own memory for the length of one build.
	DevicePoolSize int
	// HostPoolSize is the size in bytes of the host visible pool that shader binding tables are
	// suballocated from
	HostPoolSize int
	// ExternallySynchronized disables the pools' internal locking
	ExternallySynchronized bool

	// ScratchAlignment is the device's minimum scratch offset alignment
	ScratchAlignment int
	BuildFlags       khr_acceleration_structure.BuildFlags

	// ShaderRoot is the directory relative shader paths are resolved against
	ShaderRoot        string
	Shaders           rtpipeline.ShaderSet
	MaxRecursionDepth int
	TraceDepth        int
}

// Default returns the settings of the demo scene: a 256MiB device pool, a 16MiB host pool, a
// single raygen shader with normal and shadow miss and hit groups, and a recursion depth of 1
func Default() Config {
	return Config{
		DevicePoolSize:   256 * 1024 * 1024,
		HostPoolSize:     16 * 1024 * 1024,
		ScratchAlignment: 128,
		BuildFlags:       khr_acceleration_structure.BuildPreferFastTrace,
		ShaderRoot:       "shaders",
		Shaders: rtpipeline.ShaderSet{
			Raygen: "RT_raygen.spv",
			Miss:   []string{"RT_miss.spv", "RT_missShadow.spv"},
			Hit: []rtpipeline.HitGroup{
				{ClosestHit: "RT_closesthit.spv"},
				{AnyHit: "RT_anyhit_shadow.spv"},
			},
		},
		MaxRecursionDepth: 1,
		TraceDepth:        1,
	}
}

func (c Config) Validate() error {
	if c.DevicePoolSize <= 0 {
		return errors.Newf("DevicePoolSize must be positive but was %d", c.DevicePoolSize)
	}
	if c.HostPoolSize <= 0 {
		return errors.Newf("HostPoolSize must be positive but was %d", c.HostPoolSize)
	}
	if c.ScratchAlignment < 0 || (c.ScratchAlignment > 1 && c.ScratchAlignment&(c.ScratchAlignment-1) != 0) {
		return errors.Newf("ScratchAlignment must be a power of two but was %d", c.ScratchAlignment)
	}
	if c.BuildFlags&khr_acceleration_structure.BuildPreferFastTrace != 0 && c.BuildFlags&khr_acceleration_structure.BuildPreferFastBuild != 0 {
		return errors.New("BuildFlags cannot prefer both fast trace and fast build")
	}
	if c.MaxRecursionDepth < 1 {
		return errors.Newf("MaxRecursionDepth must be at least 1 but was %d", c.MaxRecursionDepth)
	}
	if c.TraceDepth < 1 {
		return errors.Newf("TraceDepth must be at least 1 but was %d", c.TraceDepth)
	}

	_, _, err := c.Shaders.Assemble()
	if err != nil {
		return errors.Wrap(err, "Shaders")
	}

	return nil
}

// Load reads a JSON config file. Fields missing from the file keep their Default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "failed to read config %s", path)
	}

	config, err := Parse(data)
	if err != nil {
		return Config{}, errors.Wrapf(err, "config %s", path)
	}
	return config, nil
}

// Parse reads a JSON config document on top of Default and validates the result
func Parse(data []byte) (Config, error) {
	config := Default()
	r := jreader.NewReader(data)
	config.readFrom(&r)
	if err := r.Error(); err != nil {
		return Config{}, errors.Wrap(err, "malformed config")
	}

	err := config.Validate()
	if err != nil {
		return Config{}, err
	}
	return config, nil
}

func (c *Config) readFrom(r *jreader.Reader) {
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "DevicePoolSize":
			c.DevicePoolSize = r.Int()
		case "HostPoolSize":
			c.HostPoolSize = r.Int()
		case "ExternallySynchronized":
			c.ExternallySynchronized = r.Bool()
		case "ScratchAlignment":
			c.ScratchAlignment = r.Int()
		case "BuildFlags":
			c.BuildFlags = readBuildFlags(r)
		case "ShaderRoot":
			c.ShaderRoot = r.String()
		case "Shaders":
			c.Shaders = readShaderSet(r)
		case "MaxRecursionDepth":
			c.MaxRecursionDepth = r.Int()
		case "TraceDepth":
			c.TraceDepth = r.Int()
		default:
			r.AddError(errors.Newf("unknown config field %s", obj.Name()))
		}
	}
}

var buildFlagNames = map[string]khr_acceleration_structure.BuildFlags{
	"AllowUpdate":     khr_acceleration_structure.BuildAllowUpdate,
	"AllowCompaction": khr_acceleration_structure.BuildAllowCompaction,
	"PreferFastTrace": khr_acceleration_structure.BuildPreferFastTrace,
	"PreferFastBuild": khr_acceleration_structure.BuildPreferFastBuild,
	"LowMemory":       khr_acceleration_structure.BuildLowMemory,
}

func readBuildFlags(r *jreader.Reader) khr_acceleration_structure.BuildFlags {
	var flags khr_acceleration_structure.BuildFlags
	for arr := r.Array(); arr.Next(); {
		name := r.String()
		flag, ok := buildFlagNames[name]
		if !ok {
			r.AddError(errors.Newf("unknown build flag %s", name))
			continue
		}
		flags |= flag
	}
	return flags
}

func readStrings(r *jreader.Reader) []string {
	var values []string
	for arr := r.Array(); arr.Next(); {
		values = append(values, r.String())
	}
	return values
}

func readShaderSet(r *jreader.Reader) rtpipeline.ShaderSet {
	var set rtpipeline.ShaderSet
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "Raygen":
			set.Raygen = r.String()
		case "Miss":
			set.Miss = readStrings(r)
		case "Hit":
			for arr := r.Array(); arr.Next(); {
				set.Hit = append(set.Hit, readHitGroup(r))
			}
		case "Callable":
			set.Callable = readStrings(r)
		default:
			r.AddError(errors.Newf("unknown shader field %s", obj.Name()))
		}
	}
	return set
}

func readHitGroup(r *jreader.Reader) rtpipeline.HitGroup {
	var group rtpipeline.HitGroup
	for obj := r.Object(); obj.Next(); {
		switch string(obj.Name()) {
		case "ClosestHit":
			group.ClosestHit = r.String()
		case "AnyHit":
			group.AnyHit = r.String()
		case "Intersection":
			group.Intersection = r.String()
		default:
			r.AddError(errors.Newf("unknown hit group field %s", obj.Name()))
		}
	}
	return group
}
