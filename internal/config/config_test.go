package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Projection.Axis != "front" {
		t.Errorf("expected axis front, got %s", cfg.Projection.Axis)
	}
	if cfg.Projection.Size != 512 {
		t.Errorf("expected size 512, got %d", cfg.Projection.Size)
	}
	if cfg.Projection.Padding != 0.06 {
		t.Errorf("expected padding 0.06, got %f", cfg.Projection.Padding)
	}
	if cfg.Symmetry.Plane != "yz" {
		t.Errorf("expected symmetry yz, got %s", cfg.Symmetry.Plane)
	}
	if cfg.Symmetry.Tolerance != 0.02 {
		t.Errorf("expected tolerance 0.02, got %f", cfg.Symmetry.Tolerance)
	}
	if cfg.Symmetry.ChunkSize != 1000 {
		t.Errorf("expected chunk size 1000, got %d", cfg.Symmetry.ChunkSize)
	}
	if cfg.Output.Dir != "static/models" {
		t.Errorf("expected output dir static/models, got %s", cfg.Output.Dir)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("expected log level 'info', got %s", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults do not validate: %v", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad axis", func(c *Config) { c.Projection.Axis = "back" }},
		{"zero size", func(c *Config) { c.Projection.Size = 0 }},
		{"negative size", func(c *Config) { c.Projection.Size = -4 }},
		{"padding too large", func(c *Config) { c.Projection.Padding = 0.5 }},
		{"negative padding", func(c *Config) { c.Projection.Padding = -0.1 }},
		{"bad plane", func(c *Config) { c.Symmetry.Plane = "xyz" }},
		{"negative tolerance", func(c *Config) { c.Symmetry.Tolerance = -1 }},
		{"zero chunk", func(c *Config) { c.Symmetry.ChunkSize = 0 }},
		{"negative workers", func(c *Config) { c.Symmetry.Workers = -2 }},
		{"empty output", func(c *Config) { c.Output.Dir = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "paintmap.yaml")

	yamlContent := `
projection:
  axis: side
  size: 1024
  padding: 0.1

symmetry:
  plane: none
  chunk_size: 64
  workers: 2

output:
  dir: out

data:
  grf_paths:
    - data.grf
    - rdata.grf

logging:
  level: debug
  log_file: paintmap.log
`

	if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg := Default()
	if err := loadFromFile(cfg, configPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if cfg.Projection.Axis != "side" {
		t.Errorf("expected axis side, got %s", cfg.Projection.Axis)
	}
	if cfg.Projection.Size != 1024 {
		t.Errorf("expected size 1024, got %d", cfg.Projection.Size)
	}
	if cfg.Projection.Padding != 0.1 {
		t.Errorf("expected padding 0.1, got %f", cfg.Projection.Padding)
	}
	if cfg.Symmetry.Plane != "none" {
		t.Errorf("expected plane none, got %s", cfg.Symmetry.Plane)
	}
	// Keys absent from the file keep their defaults.
	if cfg.Symmetry.Tolerance != 0.02 {
		t.Errorf("expected default tolerance, got %f", cfg.Symmetry.Tolerance)
	}
	if cfg.Symmetry.ChunkSize != 64 || cfg.Symmetry.Workers != 2 {
		t.Errorf("unexpected symmetry config: %+v", cfg.Symmetry)
	}
	if cfg.Output.Dir != "out" {
		t.Errorf("expected output dir out, got %s", cfg.Output.Dir)
	}
	if len(cfg.Data.GRFPaths) != 2 || cfg.Data.GRFPaths[1] != "rdata.grf" {
		t.Errorf("unexpected grf paths: %v", cfg.Data.GRFPaths)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.LogFile != "paintmap.log" {
		t.Errorf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadFromFileInvalid(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "invalid.yaml")

	invalidYAML := `
projection:
  size: not a number
  invalid syntax here
`
	if err := os.WriteFile(configPath, []byte(invalidYAML), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	if err := loadFromFile(Default(), configPath); err == nil {
		t.Error("expected error loading invalid YAML, got nil")
	}
}

func TestLoadFromFileMissing(t *testing.T) {
	if err := loadFromFile(Default(), "/nonexistent/path/paintmap.yaml"); err == nil {
		t.Error("expected error loading missing file, got nil")
	}
}

func TestSaveToRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "paintmap.yaml")

	cfg := Default()
	cfg.Projection.Axis = "top"
	cfg.Data.GRFPaths = []string{"data.grf"}
	if err := cfg.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded := Default()
	if err := loadFromFile(loaded, path); err != nil {
		t.Fatalf("loadFromFile failed: %v", err)
	}
	if loaded.Projection.Axis != "top" {
		t.Errorf("expected axis top, got %s", loaded.Projection.Axis)
	}
	if len(loaded.Data.GRFPaths) != 1 || loaded.Data.GRFPaths[0] != "data.grf" {
		t.Errorf("unexpected grf paths: %v", loaded.Data.GRFPaths)
	}
}

func TestConfigDir(t *testing.T) {
	dir := ConfigDir()
	if dir == "" {
		t.Error("ConfigDir returned empty string")
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	origDir, _ := os.Getwd()
	defer os.Chdir(origDir)

	tmpDir := t.TempDir()
	os.Chdir(tmpDir)

	if path := findConfigFile(); path != "" {
		t.Errorf("expected empty path when no config exists, got %s", path)
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "paintmap.yaml"), []byte("projection:\n  size: 256\n"), 0644); err != nil {
		t.Fatalf("failed to create test config: %v", err)
	}

	if path := findConfigFile(); path == "" {
		t.Error("expected to find paintmap.yaml in current directory")
	}
}

func TestApplyFlags(t *testing.T) {
	tests := []struct {
		name     string
		setup    func()
		verify   func(*testing.T, *Config)
		teardown func()
	}{
		{
			name:  "debug flag",
			setup: func() { *flagDebug = true; setFlags = givenFlags("debug") },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("expected log level 'debug', got %s", cfg.Logging.Level)
				}
			},
			teardown: func() { *flagDebug = false; setFlags = givenFlags() },
		},
		{
			name:  "axis and size flags",
			setup: func() { *flagAxis = "top"; *flagSize = 256; setFlags = givenFlags("axis", "size") },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Projection.Axis != "top" || cfg.Projection.Size != 256 {
					t.Errorf("unexpected projection: %+v", cfg.Projection)
				}
			},
			teardown: func() { *flagAxis = ""; *flagSize = 0; setFlags = givenFlags() },
		},
		{
			name:  "symmetry none",
			setup: func() { *flagSymmetry = "none"; setFlags = givenFlags("symmetry") },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Symmetry.Plane != "none" {
					t.Errorf("expected plane none, got %s", cfg.Symmetry.Plane)
				}
			},
			teardown: func() { *flagSymmetry = ""; setFlags = givenFlags() },
		},
		{
			name:  "zero padding and tolerance are honored",
			setup: func() { *flagPadding = 0; *flagTolerance = 0; setFlags = givenFlags("padding", "tolerance") },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Projection.Padding != 0 || cfg.Symmetry.Tolerance != 0 {
					t.Errorf("expected zero padding and tolerance, got %f %f",
						cfg.Projection.Padding, cfg.Symmetry.Tolerance)
				}
			},
			teardown: func() { setFlags = givenFlags() },
		},
		{
			name:  "output dir and log file",
			setup: func() { *flagOutputDir = "/tmp/out"; *flagLogFile = "run.log"; setFlags = givenFlags("output-dir", "log-file") },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Output.Dir != "/tmp/out" || cfg.Logging.LogFile != "run.log" {
					t.Errorf("unexpected output/logging: %+v %+v", cfg.Output, cfg.Logging)
				}
			},
			teardown: func() { *flagOutputDir = ""; *flagLogFile = ""; setFlags = givenFlags() },
		},
		{
			name:  "unset flags do not override",
			setup: func() { *flagSize = 64; *flagAxis = "side" },
			verify: func(t *testing.T, cfg *Config) {
				if cfg.Projection != Default().Projection {
					t.Errorf("unset flags changed projection: %+v", cfg.Projection)
				}
			},
			teardown: func() { *flagSize = 0; *flagAxis = "" },
		},
		{
			name:  "no flags keep defaults",
			setup: func() {},
			verify: func(t *testing.T, cfg *Config) {
				def := Default()
				if cfg.Projection != def.Projection || cfg.Symmetry != def.Symmetry {
					t.Errorf("config changed without flags: %+v", cfg)
				}
			},
			teardown: func() {},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer tt.teardown()

			cfg := Default()
			applyFlags(cfg)
			tt.verify(t, cfg)
		})
	}
}

func givenFlags(names ...string) map[string]bool {
	m := make(map[string]bool)
	for _, n := range names {
		m[n] = true
	}
	return m
}

func TestExplicitBadFlagsRejected(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
	}{
		{"zero size", func() { *flagSize = 0; setFlags = givenFlags("size") }},
		{"negative size", func() { *flagSize = -8; setFlags = givenFlags("size") }},
		{"negative padding", func() { *flagPadding = -0.1; setFlags = givenFlags("padding") }},
		{"negative tolerance", func() { *flagTolerance = -1; setFlags = givenFlags("tolerance") }},
		{"empty axis", func() { *flagAxis = ""; setFlags = givenFlags("axis") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.setup()
			defer func() {
				*flagSize, *flagPadding, *flagTolerance, *flagAxis = 0, 0, 0, ""
				setFlags = givenFlags()
			}()

			cfg := Default()
			applyFlags(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("Validate() = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestVisited(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Int("size", 512, "")
	fs.Float64("padding", 0.06, "")
	fs.String("axis", "front", "")

	if _, err := parseInterspersed(fs, []string{"model.glb", "-size", "0", "-padding=0.1"}); err != nil {
		t.Fatal(err)
	}
	got := visited(fs)
	if !got["size"] || !got["padding"] || got["axis"] {
		t.Errorf("visited = %v, want size and padding only", got)
	}
}

func TestParseInterspersed(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	axis := fs.String("axis", "front", "")
	size := fs.Int("size", 512, "")

	rest, err := parseInterspersed(fs, []string{"-axis", "side", "model.glb", "--size", "128"})
	if err != nil {
		t.Fatalf("parseInterspersed failed: %v", err)
	}
	if *axis != "side" || *size != 128 {
		t.Errorf("flags = %s %d, want side 128", *axis, *size)
	}
	if len(rest) != 1 || rest[0] != "model.glb" {
		t.Errorf("positional = %v, want [model.glb]", rest)
	}

	if _, err := parseInterspersed(fs, []string{"model.glb", "-unknown"}); err == nil {
		t.Error("expected error for unknown flag")
	}
}
