package config

import (
	"flag"
	"os"
)

var (
	flagConfig      = flag.String("config", "", "Path to config file")
	flagDebug       = flag.Bool("debug", false, "Enable debug logging")
	flagLogFile     = flag.String("log-file", "", "Also write logs to this rotating file")
	flagAxis        = flag.String("axis", "", "Projection axis: front, side or top (default front)")
	flagSize        = flag.Int("size", 0, "Output image edge length in pixels (default 512)")
	flagSymmetry    = flag.String("symmetry", "", "Mirror plane: yz, xz, xy or none (default yz)")
	flagOutputDir   = flag.String("output-dir", "", "Directory for generated files (default static/models)")
	flagPadding     = flag.Float64("padding", 0, "Image margin as a fraction of size (default 0.06)")
	flagTolerance   = flag.Float64("tolerance", 0, "Mirror centroid match tolerance (default 0.02)")
	flagWriteConfig = flag.String("write-config", "", "Write the effective config to this path")
)

var (
	positional []string
	// setFlags holds the names of flags given on the command line.
	setFlags = map[string]bool{}
)

// ParseFlags parses command-line flags. Flags may follow positional
// arguments. Call this early in main().
func ParseFlags() {
	// CommandLine exits on error, so the error is always nil here.
	positional, _ = parseInterspersed(flag.CommandLine, os.Args[1:])
	setFlags = visited(flag.CommandLine)
}

// visited returns the names of the flags that were explicitly set in fs.
func visited(fs *flag.FlagSet) map[string]bool {
	set := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}

// Args returns the positional arguments left after flag parsing.
func Args() []string {
	return positional
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// WriteConfigPath returns the --write-config destination, if any.
func WriteConfigPath() string {
	return *flagWriteConfig
}

// parseInterspersed parses args with fs, collecting non-flag arguments
// wherever they appear.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	var rest []string
	for {
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		args = fs.Args()
		if len(args) == 0 {
			return rest, nil
		}
		rest = append(rest, args[0])
		args = args[1:]
	}
}

// applyFlags applies CLI flag overrides to the config. Only flags given on
// the command line override, so an explicit bad value such as -size 0
// reaches Validate instead of falling back silently.
func applyFlags(cfg *Config) {
	if setFlags["debug"] && *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if setFlags["log-file"] {
		cfg.Logging.LogFile = *flagLogFile
	}
	if setFlags["axis"] {
		cfg.Projection.Axis = *flagAxis
	}
	if setFlags["size"] {
		cfg.Projection.Size = *flagSize
	}
	if setFlags["padding"] {
		cfg.Projection.Padding = *flagPadding
	}
	if setFlags["symmetry"] {
		cfg.Symmetry.Plane = *flagSymmetry
	}
	if setFlags["tolerance"] {
		cfg.Symmetry.Tolerance = *flagTolerance
	}
	if setFlags["output-dir"] {
		cfg.Output.Dir = *flagOutputDir
	}
}
