// Package mesh loads 3D assets into a single indexed triangle mesh.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Load errors. Callers test them with errors.Is.
var (
	// ErrInput means the asset path is missing or unreadable.
	ErrInput = errors.New("input error")
	// ErrLoad means the asset was read but holds no usable triangle geometry.
	ErrLoad = errors.New("load error")
)

// Mesh is an indexed triangle mesh. It is built once by Load and treated as
// read-only afterwards.
type Mesh struct {
	Name     string
	Vertices []mgl64.Vec3
	Faces    [][3]int

	// UVs holds authored per-vertex texture coordinates, or nil.
	UVs []mgl64.Vec2

	// CornerUVs holds texture coordinates per face corner, for formats that
	// index positions and UVs separately. Nil when absent.
	CornerUVs [][3]mgl64.Vec2
}

// Validate checks that every face index is in range and that the optional
// per-face data matches the face count.
func (m *Mesh) Validate() error {
	n := len(m.Vertices)
	for i, f := range m.Faces {
		for _, idx := range f {
			if idx < 0 || idx >= n {
				return fmt.Errorf("face %d references vertex %d of %d", i, idx, n)
			}
		}
	}
	if m.CornerUVs != nil && len(m.CornerUVs) != len(m.Faces) {
		return fmt.Errorf("%d corner UV triples for %d faces", len(m.CornerUVs), len(m.Faces))
	}
	return nil
}

// Bounds returns the axis-aligned bounding box of the vertices. An empty
// mesh yields two zero vectors.
func (m *Mesh) Bounds() (lo, hi mgl64.Vec3) {
	if len(m.Vertices) == 0 {
		return lo, hi
	}
	lo = mgl64.Vec3{math.Inf(1), math.Inf(1), math.Inf(1)}
	hi = mgl64.Vec3{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range m.Vertices {
		for k := 0; k < 3; k++ {
			lo[k] = math.Min(lo[k], v[k])
			hi[k] = math.Max(hi[k], v[k])
		}
	}
	return lo, hi
}

// Merge concatenates parts into one mesh, renumbering face indices so the
// vertex index space is contiguous. UVs and corner UVs survive only if
// every non-empty part carries them.
func Merge(name string, parts ...*Mesh) *Mesh {
	out := &Mesh{Name: name}

	keepUVs, keepCorners := true, true
	var nparts int
	for _, p := range parts {
		if p == nil || len(p.Vertices) == 0 {
			continue
		}
		nparts++
		if len(p.UVs) != len(p.Vertices) {
			keepUVs = false
		}
		if len(p.Faces) > 0 && len(p.CornerUVs) != len(p.Faces) {
			keepCorners = false
		}
	}
	if nparts == 0 {
		return out
	}

	for _, p := range parts {
		if p == nil || len(p.Vertices) == 0 {
			continue
		}
		base := len(out.Vertices)
		out.Vertices = append(out.Vertices, p.Vertices...)
		for _, f := range p.Faces {
			out.Faces = append(out.Faces, [3]int{f[0] + base, f[1] + base, f[2] + base})
		}
		if keepUVs {
			out.UVs = append(out.UVs, p.UVs...)
		}
		if keepCorners {
			out.CornerUVs = append(out.CornerUVs, p.CornerUVs...)
		}
	}
	return out
}
