// Package symmetry pairs mesh faces with their mirror images and reports
// the UV correspondences between them.
package symmetry

import (
	"context"
	"fmt"
	"math"
	"runtime"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/paintmap/internal/logger"
	"github.com/Faultbox/paintmap/internal/mesh"
)

// Plane is the mirror plane. Its normal component is negated when
// reflecting a point.
type Plane int

const (
	PlaneNone Plane = iota
	PlaneYZ         // mirrors X
	PlaneXZ         // mirrors Y
	PlaneXY         // mirrors Z
)

// Defaults for Options.
const (
	DefaultTolerance = 0.02
	DefaultChunkSize = 1000
)

// ParsePlane accepts "yz", "xz", "xy" or "none".
func ParsePlane(s string) (Plane, error) {
	switch s {
	case "yz":
		return PlaneYZ, nil
	case "xz":
		return PlaneXZ, nil
	case "xy":
		return PlaneXY, nil
	case "none":
		return PlaneNone, nil
	}
	return PlaneNone, fmt.Errorf("unknown symmetry plane %q (want yz, xz, xy or none)", s)
}

func (p Plane) String() string {
	switch p {
	case PlaneNone:
		return "none"
	case PlaneYZ:
		return "yz"
	case PlaneXZ:
		return "xz"
	case PlaneXY:
		return "xy"
	default:
		return fmt.Sprintf("Plane(%d)", int(p))
	}
}

// FlipIndex returns the coordinate index negated by the plane, or -1 for
// PlaneNone.
func (p Plane) FlipIndex() int {
	switch p {
	case PlaneYZ:
		return 0
	case PlaneXZ:
		return 1
	case PlaneXY:
		return 2
	default:
		return -1
	}
}

// Pair maps the UV of a source vertex to the UV of its mirrored twin.
type Pair struct {
	Source [2]float64 `json:"source"`
	Target [2]float64 `json:"target"`
}

// Options tunes Match. Zero values fall back to the package defaults,
// except Tolerance which is used as given.
type Options struct {
	Tolerance float64
	// ChunkSize is the number of mirror centroids whose distance rows are
	// held in memory at once.
	ChunkSize int
	// Workers bounds the goroutines computing distance rows. Zero means
	// GOMAXPROCS.
	Workers int
}

// DefaultOptions returns the tolerance and chunk size used by the CLI.
func DefaultOptions() Options {
	return Options{Tolerance: DefaultTolerance, ChunkSize: DefaultChunkSize}
}

// matchState is the mutable part of a greedy matching pass.
type matchState struct {
	used    []bool
	matches [][2]int
}

// Match pairs every face with the closest unused face to its mirrored
// centroid, visiting faces in order. A face stays unmatched when no
// candidate lies within opts.Tolerance (Chebyshev distance). Each matched
// face pair contributes three Pairs, one per corresponding vertex.
func Match(ctx context.Context, m *mesh.Mesh, uvs []mgl64.Vec2, plane Plane, opts Options) ([]Pair, error) {
	if len(uvs) != len(m.Vertices) {
		return nil, fmt.Errorf("have %d uvs for %d vertices", len(uvs), len(m.Vertices))
	}
	matches, err := matchFaces(ctx, m, plane, opts)
	if err != nil {
		return nil, err
	}
	if matches == nil {
		return nil, nil
	}

	pairs := make([]Pair, 0, 3*len(matches))
	for _, fp := range matches {
		a, b := m.Faces[fp[0]], m.Faces[fp[1]]
		for k := 0; k < 3; k++ {
			pairs = append(pairs, Pair{
				Source: [2]float64(uvs[a[k]]),
				Target: [2]float64(uvs[b[k]]),
			})
		}
	}

	logger.Debug("symmetry matched",
		zap.Stringer("plane", plane),
		zap.Int("faces", len(m.Faces)),
		zap.Int("face_pairs", len(matches)),
	)
	return pairs, nil
}

// matchFaces runs the greedy pass and returns matched face index pairs in
// the order they were accepted.
func matchFaces(ctx context.Context, m *mesh.Mesh, plane Plane, opts Options) ([][2]int, error) {
	flip := plane.FlipIndex()
	if flip < 0 || len(m.Faces) == 0 {
		return nil, nil
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}

	n := len(m.Faces)
	centroids := make([]mgl64.Vec3, n)
	for i, f := range m.Faces {
		centroids[i] = m.Vertices[f[0]].Add(m.Vertices[f[1]]).Add(m.Vertices[f[2]]).Mul(1.0 / 3)
	}

	chunk := min(opts.ChunkSize, n)
	dist := make([]float64, chunk*n)
	st := &matchState{used: make([]bool, n), matches: [][2]int{}}

	for start := 0; start < n; start += chunk {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		end := min(start+chunk, n)

		if err := distanceRows(ctx, dist, centroids, start, end, flip, opts.Workers); err != nil {
			return nil, err
		}

		for fi := start; fi < end; fi++ {
			if st.used[fi] {
				continue
			}
			row := dist[(fi-start)*n : (fi-start+1)*n]
			j, d := st.nearest(row, fi)
			if j < 0 || d > opts.Tolerance {
				continue
			}
			st.accept(fi, j)
		}
	}
	return st.matches, nil
}

// distanceRows fills one row of dist per face in [start, end): the
// Chebyshev distance from that face's mirrored centroid to every centroid.
func distanceRows(ctx context.Context, dist []float64, centroids []mgl64.Vec3, start, end, flip, workers int) error {
	n := len(centroids)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for fi := start; fi < end; fi++ {
		fi := fi
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			mirror := centroids[fi]
			mirror[flip] = -mirror[flip]

			row := dist[(fi-start)*n : (fi-start+1)*n]
			for j, c := range centroids {
				row[j] = math.Max(math.Abs(c[0]-mirror[0]),
					math.Max(math.Abs(c[1]-mirror[1]), math.Abs(c[2]-mirror[2])))
			}
			return nil
		})
	}
	return g.Wait()
}

// nearest returns the first face with the smallest distance in row,
// skipping self and used faces. It returns -1 when every face is excluded.
func (s *matchState) nearest(row []float64, self int) (int, float64) {
	best, bestDist := -1, math.Inf(1)
	for j, d := range row {
		if j == self || s.used[j] {
			continue
		}
		if d < bestDist {
			best, bestDist = j, d
		}
	}
	return best, bestDist
}

func (s *matchState) accept(fi, fj int) {
	s.used[fi] = true
	s.used[fj] = true
	s.matches = append(s.matches, [2]int{fi, fj})
}
