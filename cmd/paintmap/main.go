// Package main is the entry point for the paintmap converter.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"go.uber.org/zap"

	"github.com/Faultbox/paintmap/internal/config"
	"github.com/Faultbox/paintmap/internal/logger"
	"github.com/Faultbox/paintmap/internal/mesh"
	"github.com/Faultbox/paintmap/internal/pipeline"
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if path := config.WriteConfigPath(); path != "" {
		if err := cfg.SaveTo(path); err != nil {
			logger.Error("failed to write config", zap.String("path", path), zap.Error(err))
			os.Exit(1)
		}
		logger.Info("config written", zap.String("path", path))
		if len(config.Args()) == 0 {
			return
		}
	}

	args := config.Args()
	if len(args) != 1 {
		printUsage()
		os.Exit(2)
	}
	logger.Sugar.Debugf("Config: %+v", cfg)

	opts, err := pipeline.FromConfig(cfg, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts.Progress = func(p pipeline.Progress) {
		logger.Debug("progress", zap.String("stage", p.Stage), zap.Float64("fraction", p.Fraction))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := pipeline.Run(ctx, opts)
	if code := reportError(os.Stderr, err); code != 0 {
		logger.Sync()
		os.Exit(code)
	}

	fmt.Printf("Paint template: %s\n", res.Paths.Projection)
	fmt.Printf("UV map:         %s\n", res.Paths.UVMap)
	fmt.Printf("Mapping:        %s\n", res.Paths.Mapping)
	fmt.Printf("Coverage:       %d px, %d mirror pairs (uvs: %s)\n",
		res.Record.CoveragePx, len(res.Record.UVMirrorPairs), res.UVSource)
}

// reportError prints a failed run to w and returns the process exit code.
func reportError(w io.Writer, err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, mesh.ErrInput):
		fmt.Fprintf(w, "Input error: %v\n", err)
	case errors.Is(err, mesh.ErrLoad):
		fmt.Fprintf(w, "Load error: %v\n", err)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
	return 1
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `paintmap - turn a 3D model into a paintable 2D template

Usage:
  paintmap [flags] <model.glb|model.gltf|model.rsm|model.stl>

Writes <stem>_projection_<axis>.png, <stem>_uvmap_<axis>.png and
<stem>_mapping_<axis>.json to the output directory. Models not found on
disk are looked up in the GRF archives listed under data.grf_paths.

Flags:`)
	flag.PrintDefaults()
}
