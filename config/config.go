// Package config parses and validates the YAML test configuration that
// drives the occlusion test executor.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sraesch/raycasting-occlusion/sampler"
	"github.com/sraesch/raycasting-occlusion/types"
)

// ErrInvalidConfig marks configurations that fail validation.
var ErrInvalidConfig = errors.New("config: invalid test configuration")

// Method selects the estimation strategies a test run uses.
type Method string

const (
	MethodRaycast   Method = "raycast"
	MethodRasterize Method = "rasterize"

	// MethodBoth runs both strategies and cross-validates their frames.
	MethodBoth Method = "both"
)

// View is one camera record of the configuration.
type View struct {
	Position [3]float32 `yaml:"position"`
	LookAt   [3]float32 `yaml:"look_at"`
	Up       [3]float32 `yaml:"up"`
	FOV      float32    `yaml:"fov"`
	Near     float32    `yaml:"near"`
	Far      float32    `yaml:"far"`
}

// Camera converts the record into a sampler camera, filling in the
// defaults for omitted fields.
func (v View) Camera() sampler.Camera {
	c := sampler.NewCamera(v.FOV)
	c.Position = types.Vec3(v.Position)
	c.LookAt = types.Vec3(v.LookAt)
	if v.Up != ([3]float32{}) {
		c.Up = types.Vec3(v.Up)
	}
	if v.Near > 0 {
		c.Near = v.Near
	}
	if v.Far > 0 {
		c.Far = v.Far
	}
	return c
}

// TestConfig describes a full occlusion test run.
type TestConfig struct {
	// The estimation strategies to run.
	Method Method `yaml:"method"`

	// The scene files to test.
	Input []string `yaml:"input"`

	// The viewpoints to estimate from.
	Views []View `yaml:"views"`

	// Width and height of the estimation frame.
	FrameSize int `yaml:"frame_size"`

	// Worker goroutines per estimation, 0 for one per CPU.
	NumThreads int `yaml:"num_threads"`

	// Memory cap for the spatial index, 0 for unbounded.
	BudgetBytes int64 `yaml:"budget_bytes"`

	// Triangle count at which index leaves stop splitting, 0 for the
	// builder default.
	MaxLeafSize int `yaml:"max_leaf_size"`

	// Optional seed for jittered sampling; nil samples pixel centers.
	JitterSeed *uint64 `yaml:"jitter_seed"`

	// Dump the estimated frames next to the results.
	WriteFrames bool `yaml:"write_frames"`
}

// Read parses a configuration. Unrecognized options and validation
// violations are errors.
func Read(r io.Reader) (*TestConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	cfg := &TestConfig{}
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	if cfg.FrameSize == 0 {
		cfg.FrameSize = 256
	}
	if cfg.Method == "" {
		cfg.Method = MethodRaycast
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ReadFile parses a configuration file.
func ReadFile(path string) (*TestConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return Read(f)
}

// Write serializes the configuration as YAML.
func (c *TestConfig) Write(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	return enc.Encode(c)
}

// Validate checks the configuration for consistency.
func (c *TestConfig) Validate() error {
	switch c.Method {
	case MethodRaycast, MethodRasterize, MethodBoth:
	default:
		return fmt.Errorf("%w: unknown method %q", ErrInvalidConfig, c.Method)
	}

	if len(c.Input) == 0 {
		return fmt.Errorf("%w: no input scenes", ErrInvalidConfig)
	}
	if len(c.Views) == 0 {
		return fmt.Errorf("%w: no views", ErrInvalidConfig)
	}
	if c.FrameSize <= 0 {
		return fmt.Errorf("%w: frame size %d", ErrInvalidConfig, c.FrameSize)
	}
	if c.NumThreads < 0 {
		return fmt.Errorf("%w: negative thread count %d", ErrInvalidConfig, c.NumThreads)
	}
	if c.BudgetBytes < 0 {
		return fmt.Errorf("%w: negative memory budget %d", ErrInvalidConfig, c.BudgetBytes)
	}

	for i, v := range c.Views {
		if err := v.Camera().Validate(); err != nil {
			return fmt.Errorf("%w: view %d: %v", ErrInvalidConfig, i, err)
		}
	}

	return nil
}
