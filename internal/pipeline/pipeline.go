// Package pipeline turns one mesh asset into a paint template, a UV map
// and a JSON mapping record.
package pipeline

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/paintmap/internal/assets"
	"github.com/Faultbox/paintmap/internal/compose"
	"github.com/Faultbox/paintmap/internal/config"
	"github.com/Faultbox/paintmap/internal/logger"
	"github.com/Faultbox/paintmap/internal/mesh"
	"github.com/Faultbox/paintmap/internal/metadata"
	"github.com/Faultbox/paintmap/internal/projection"
	"github.com/Faultbox/paintmap/internal/raster"
	"github.com/Faultbox/paintmap/internal/symmetry"
	"github.com/Faultbox/paintmap/internal/uv"
)

// Stage names reported through Progress.
const (
	StageLoad     = "load"
	StageUV       = "uv"
	StageProject  = "project"
	StageRaster   = "raster"
	StageSymmetry = "symmetry"
	StageCompose  = "compose"
	StageWrite    = "write"
)

// Progress reports how far a stage has come. Fraction is in [0, 1].
type Progress struct {
	Stage    string
	Fraction float64
}

// Options configures a single run.
type Options struct {
	Model     string
	Axis      projection.Axis
	Size      int
	Padding   float64
	Plane     symmetry.Plane
	Symmetry  symmetry.Options
	OutputDir string
	Archives  []string

	// Assets, if set, replaces Archives as the archive source.
	Assets *assets.Manager

	// Progress, if set, is called synchronously as stages advance.
	Progress func(Progress)
}

// FromConfig builds run options for model from a validated config.
func FromConfig(cfg *config.Config, model string) (Options, error) {
	axis, err := projection.ParseAxis(cfg.Projection.Axis)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	plane, err := symmetry.ParsePlane(cfg.Symmetry.Plane)
	if err != nil {
		return Options{}, fmt.Errorf("%w: %v", config.ErrInvalid, err)
	}
	return Options{
		Model:   model,
		Axis:    axis,
		Size:    cfg.Projection.Size,
		Padding: cfg.Projection.Padding,
		Plane:   plane,
		Symmetry: symmetry.Options{
			Tolerance: cfg.Symmetry.Tolerance,
			ChunkSize: cfg.Symmetry.ChunkSize,
			Workers:   cfg.Symmetry.Workers,
		},
		OutputDir: cfg.Output.Dir,
		Archives:  cfg.Data.GRFPaths,
	}, nil
}

// Paths are the artifact locations of a run.
type Paths struct {
	Projection string
	UVMap      string
	Mapping    string
}

// OutputPaths derives artifact paths from the model's file name stem.
func OutputPaths(model, dir string, axis projection.Axis) Paths {
	base := mesh.BaseName(model)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return Paths{
		Projection: filepath.Join(dir, fmt.Sprintf("%s_projection_%s.png", stem, axis)),
		UVMap:      filepath.Join(dir, fmt.Sprintf("%s_uvmap_%s.png", stem, axis)),
		Mapping:    filepath.Join(dir, fmt.Sprintf("%s_mapping_%s.json", stem, axis)),
	}
}

// Result holds everything a run produced.
type Result struct {
	Template *image.NRGBA
	UVMap    *image.NRGBA
	Record   metadata.Record
	Paths    Paths

	// UVSource names the strategy that supplied the UVs.
	UVSource string
}

// Run executes every stage in order and writes the three artifacts. The
// output directory is only created once the mesh has loaded, so a failed
// load leaves the filesystem untouched.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if opts.Size <= 0 {
		return nil, fmt.Errorf("%w: image size must be positive, got %d", config.ErrInvalid, opts.Size)
	}
	report := func(stage string, fraction float64) {
		if opts.Progress != nil {
			opts.Progress(Progress{Stage: stage, Fraction: fraction})
		}
	}
	start := time.Now()

	report(StageLoad, 0)
	m, err := mesh.Load(opts.Model, mesh.LoadOptions{Archives: opts.Archives, Assets: opts.Assets})
	if err != nil {
		return nil, err
	}
	report(StageLoad, 1)

	uvs, uvSource := uv.Resolve(m)
	report(StageUV, 1)

	verts2d := projection.Project(m.Vertices, opts.Axis, opts.Size, opts.Padding)
	report(StageProject, 1)

	buf := raster.Rasterize(verts2d, m.Faces, uvs, opts.Size, func(done, total int) {
		report(StageRaster, float64(done)/float64(max(total, 1)))
	})
	covered := buf.CoveredCount()
	logger.Info("rasterized",
		zap.Int("faces", len(m.Faces)),
		zap.Int("coverage_px", covered),
	)

	pairs, err := symmetry.Match(ctx, m, uvs, opts.Plane, opts.Symmetry)
	if err != nil {
		return nil, fmt.Errorf("symmetry: %w", err)
	}
	report(StageSymmetry, 1)
	if opts.Plane != symmetry.PlaneNone {
		logger.Info("symmetry pairs",
			zap.Int("pairs", len(pairs)),
			zap.Int("face_pairs", len(pairs)/3),
		)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	res := &Result{
		Template: compose.Template(buf, verts2d, m.Faces),
		UVMap:    compose.UVMap(buf),
		Paths:    OutputPaths(opts.Model, opts.OutputDir, opts.Axis),
		UVSource: uvSource,
	}
	report(StageCompose, 1)

	res.Record = metadata.Record{
		Model:           m.Name,
		Axis:            opts.Axis.String(),
		ImageSize:       opts.Size,
		SymmetryAxis:    opts.Plane.String(),
		CoveragePx:      covered,
		ProjectionImage: filepath.Base(res.Paths.Projection),
		UVMapImage:      filepath.Base(res.Paths.UVMap),
		UVMirrorPairs:   pairs,
	}

	if err := writeArtifacts(opts.OutputDir, res); err != nil {
		return nil, err
	}
	report(StageWrite, 1)

	logger.Info("artifacts written",
		zap.String("projection", res.Paths.Projection),
		zap.String("uvmap", res.Paths.UVMap),
		zap.String("mapping", res.Paths.Mapping),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

func writeArtifacts(dir string, res *Result) error {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	if err := compose.WritePNG(res.Paths.Projection, res.Template); err != nil {
		return fmt.Errorf("writing %s: %w", res.Paths.Projection, err)
	}
	if err := compose.WritePNG(res.Paths.UVMap, res.UVMap); err != nil {
		return fmt.Errorf("writing %s: %w", res.Paths.UVMap, err)
	}
	if err := metadata.WriteFile(res.Paths.Mapping, res.Record); err != nil {
		return fmt.Errorf("writing %s: %w", res.Paths.Mapping, err)
	}
	return nil
}
