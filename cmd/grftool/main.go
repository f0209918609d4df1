// grftool lists, extracts and batch-converts models stored in GRF archives.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/paintmap/internal/assets"
	"github.com/Faultbox/paintmap/internal/config"
	"github.com/Faultbox/paintmap/internal/logger"
	"github.com/Faultbox/paintmap/internal/pipeline"
	"github.com/Faultbox/paintmap/internal/projection"
	"github.com/Faultbox/paintmap/pkg/grf"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	var err error
	switch command {
	case "info":
		err = cmdInfo(args)
	case "models", "ls":
		err = cmdModels(args)
	case "extract", "x":
		err = cmdExtract(args)
	case "convert":
		err = cmdConvert(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`grftool - GRF archive helper for paintmap

Usage:
  grftool <command> [options]

Commands:
  info <file.grf>                      Show archive information
  models <file.grf> [pattern]          List convertible models
  extract <file.grf> <path> [output]   Extract a file or a glob of files
  convert [flags] <file.grf> [pattern] Generate paint templates for models

Output files are named after the model's file name, so a model whose name
repeats one already converted in the same run is skipped. Archived .gltf
files must keep their .bin buffers next to them inside the archive.

Examples:
  grftool models data.grf "*.rsm"
  grftool extract data.grf data/model/prontera/fountain.rsm ./out
  grftool convert -axis side -output-dir ./templates data.grf "*fountain*"`)
}

// modelExts are the extensions paintmap can load.
var modelExts = map[string]bool{".rsm": true, ".glb": true, ".gltf": true, ".stl": true}

func isModel(name string) bool {
	return modelExts[strings.ToLower(filepath.Ext(name))]
}

// matchEntry reports whether an archive entry matches pattern, either as a
// glob on its base name or as a substring of its full path.
func matchEntry(name, pattern string) bool {
	if pattern == "" {
		return true
	}
	pattern = strings.ToLower(pattern)
	if ok, _ := filepath.Match(pattern, strings.ToLower(filepath.Base(name))); ok {
		return true
	}
	return strings.Contains(strings.ToLower(name), pattern)
}

// findModels returns the sorted model entries of archive matching pattern.
func findModels(archive *grf.Archive, pattern string) []string {
	var out []string
	for _, f := range archive.List() {
		if isModel(f) && matchEntry(f, pattern) {
			out = append(out, f)
		}
	}
	return out
}

// splitCollisions keeps the first model for each output path. Models in
// different folders can share a file name and would overwrite each other's
// artifacts. Each dropped entry pairs the skipped model with the kept one.
func splitCollisions(models []string, dir string, axis projection.Axis) (keep []string, dropped [][2]string) {
	owner := make(map[string]string, len(models))
	for _, m := range models {
		key := pipeline.OutputPaths(m, dir, axis).Projection
		if first, ok := owner[key]; ok {
			dropped = append(dropped, [2]string{m, first})
			continue
		}
		owner[key] = m
		keep = append(keep, m)
	}
	return keep, dropped
}

func cmdInfo(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: grftool info <file.grf>")
	}

	archive, err := grf.Open(args[0])
	if err != nil {
		return err
	}
	defer archive.Close()

	files := archive.List()
	extCount := make(map[string]int)
	for _, f := range files {
		ext := strings.ToLower(filepath.Ext(f))
		if ext == "" {
			ext = "(no ext)"
		}
		extCount[ext]++
	}

	fmt.Printf("Archive: %s\n", args[0])
	fmt.Printf("Files:   %d\n", len(files))
	fmt.Printf("Models:  %d\n", len(findModels(archive, "")))
	fmt.Println()
	fmt.Println("Files by type:")

	type extStat struct {
		ext   string
		count int
	}
	var stats []extStat
	for ext, count := range extCount {
		stats = append(stats, extStat{ext, count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].count != stats[j].count {
			return stats[i].count > stats[j].count
		}
		return stats[i].ext < stats[j].ext
	})
	for _, s := range stats {
		fmt.Printf("  %-10s %d\n", s.ext, s.count)
	}
	return nil
}

func cmdModels(args []string) error {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	limit := fs.Int("n", 0, "Limit output to N files (0 = all)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: grftool models <file.grf> [pattern]")
	}

	archive, err := grf.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	models := findModels(archive, fs.Arg(1))
	for i, m := range models {
		if *limit > 0 && i >= *limit {
			break
		}
		fmt.Println(m)
	}
	fmt.Fprintf(os.Stderr, "\n(%d models)\n", len(models))
	return nil
}

func cmdExtract(args []string) error {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	fs.Parse(args)

	if fs.NArg() < 2 {
		return fmt.Errorf("usage: grftool extract <file.grf> <path> [output_dir]")
	}

	filePath := fs.Arg(1)
	outputDir := "."
	if fs.NArg() > 2 {
		outputDir = fs.Arg(2)
	}

	archive, err := grf.Open(fs.Arg(0))
	if err != nil {
		return err
	}
	defer archive.Close()

	if strings.Contains(filePath, "*") {
		return extractPattern(archive, filePath, outputDir)
	}

	data, err := archive.Read(filePath)
	if err != nil {
		return err
	}

	outputPath := filepath.Join(outputDir, filepath.Base(filePath))
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	if err := os.WriteFile(outputPath, data, 0644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	fmt.Printf("Extracted: %s (%d bytes)\n", outputPath, len(data))
	return nil
}

func extractPattern(archive *grf.Archive, pattern, outputDir string) error {
	pattern = strings.ToLower(pattern)

	extracted := 0
	for _, f := range archive.List() {
		if ok, _ := filepath.Match(pattern, filepath.Base(f)); !ok {
			continue
		}

		data, err := archive.Read(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", f, err)
			continue
		}

		// Preserve directory structure
		outputPath := filepath.Join(outputDir, filepath.FromSlash(f))
		if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
			return fmt.Errorf("creating directory: %w", err)
		}
		if err := os.WriteFile(outputPath, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}

		fmt.Printf("Extracted: %s\n", outputPath)
		extracted++
	}

	fmt.Fprintf(os.Stderr, "\nExtracted %d files\n", extracted)
	return nil
}

func cmdConvert(args []string) error {
	cfg := config.Default()

	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	fs.StringVar(&cfg.Projection.Axis, "axis", cfg.Projection.Axis, "Projection axis: front, side or top")
	fs.IntVar(&cfg.Projection.Size, "size", cfg.Projection.Size, "Output image edge length in pixels")
	fs.StringVar(&cfg.Symmetry.Plane, "symmetry", cfg.Symmetry.Plane, "Mirror plane: yz, xz, xy or none")
	fs.StringVar(&cfg.Output.Dir, "output-dir", cfg.Output.Dir, "Directory for generated files")
	debug := fs.Bool("debug", false, "Enable debug logging")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: grftool convert [flags] <file.grf> [pattern]")
	}
	if *debug {
		cfg.Logging.Level = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if err := logger.Init(cfg.Logging.Level, ""); err != nil {
		return err
	}
	defer logger.Sync()

	grfPath := fs.Arg(0)
	archive, err := grf.Open(grfPath)
	if err != nil {
		return err
	}
	models := findModels(archive, fs.Arg(1))
	archive.Close()

	mgr := assets.NewManager()
	defer mgr.Close()
	if err := mgr.AddArchive(grfPath); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	axis, err := projection.ParseAxis(cfg.Projection.Axis)
	if err != nil {
		return err
	}
	models, dupes := splitCollisions(models, cfg.Output.Dir, axis)
	for _, d := range dupes {
		logger.Warn("skipping model, output name already taken",
			zap.String("model", d[0]), zap.String("kept", d[1]))
	}

	var failed int
	for _, m := range models {
		opts, err := pipeline.FromConfig(cfg, m)
		if err != nil {
			return err
		}
		opts.Assets = mgr
		res, err := pipeline.Run(ctx, opts)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			failed++
			logger.Warn("conversion failed", zap.String("model", m), zap.Error(err))
			continue
		}
		fmt.Printf("%s -> %s\n", m, res.Paths.Projection)
	}

	fmt.Fprintf(os.Stderr, "\nConverted %d of %d models", len(models)-failed, len(models))
	if len(dupes) > 0 {
		fmt.Fprintf(os.Stderr, " (%d skipped with duplicate names)", len(dupes))
	}
	fmt.Fprintln(os.Stderr)
	if failed > 0 {
		return fmt.Errorf("%d models failed", failed)
	}
	return nil
}
