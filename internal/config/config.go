// Package config handles paintmap configuration loading and management.
package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is returned by Validate for out-of-range settings.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all generator settings.
type Config struct {
	Projection ProjectionConfig `yaml:"projection"`
	Symmetry   SymmetryConfig   `yaml:"symmetry"`
	Output     OutputConfig     `yaml:"output"`
	Data       DataConfig       `yaml:"data"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ProjectionConfig selects the view and the image geometry.
type ProjectionConfig struct {
	Axis    string  `yaml:"axis"`    // front, side or top
	Size    int     `yaml:"size"`    // output edge length in pixels
	Padding float64 `yaml:"padding"` // margin as a fraction of Size
}

// SymmetryConfig controls mirror face matching.
type SymmetryConfig struct {
	Plane     string  `yaml:"plane"` // yz, xz, xy or none
	Tolerance float64 `yaml:"tolerance"`
	ChunkSize int     `yaml:"chunk_size"`
	Workers   int     `yaml:"workers"` // 0 means GOMAXPROCS
}

// OutputConfig holds artifact destinations.
type OutputConfig struct {
	Dir string `yaml:"dir"`
}

// DataConfig holds game data file paths.
type DataConfig struct {
	GRFPaths []string `yaml:"grf_paths"` // archives searched for models missing on disk
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with the documented defaults.
func Default() *Config {
	return &Config{
		Projection: ProjectionConfig{
			Axis:    "front",
			Size:    512,
			Padding: 0.06,
		},
		Symmetry: SymmetryConfig{
			Plane:     "yz",
			Tolerance: 0.02,
			ChunkSize: 1000,
		},
		Output: OutputConfig{
			Dir: "static/models",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Validate reports the first setting outside its accepted range.
func (c *Config) Validate() error {
	switch c.Projection.Axis {
	case "front", "side", "top":
	default:
		return fmt.Errorf("%w: axis %q (want front, side or top)", ErrInvalid, c.Projection.Axis)
	}
	if c.Projection.Size <= 0 {
		return fmt.Errorf("%w: size %d must be positive", ErrInvalid, c.Projection.Size)
	}
	if c.Projection.Padding < 0 || c.Projection.Padding >= 0.5 {
		return fmt.Errorf("%w: padding %g must be in [0, 0.5)", ErrInvalid, c.Projection.Padding)
	}

	switch c.Symmetry.Plane {
	case "yz", "xz", "xy", "none":
	default:
		return fmt.Errorf("%w: symmetry %q (want yz, xz, xy or none)", ErrInvalid, c.Symmetry.Plane)
	}
	if c.Symmetry.Tolerance < 0 {
		return fmt.Errorf("%w: tolerance %g must not be negative", ErrInvalid, c.Symmetry.Tolerance)
	}
	if c.Symmetry.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size %d must be positive", ErrInvalid, c.Symmetry.ChunkSize)
	}
	if c.Symmetry.Workers < 0 {
		return fmt.Errorf("%w: workers %d must not be negative", ErrInvalid, c.Symmetry.Workers)
	}

	if c.Output.Dir == "" {
		return fmt.Errorf("%w: output dir is empty", ErrInvalid)
	}
	return nil
}
