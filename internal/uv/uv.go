// Package uv resolves one texture coordinate per mesh vertex.
package uv

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"go.uber.org/zap"

	"github.com/Faultbox/paintmap/internal/logger"
	"github.com/Faultbox/paintmap/internal/mesh"
)

// Strategy derives per-vertex UVs from a mesh. It reports false when the
// mesh does not carry what the strategy needs.
type Strategy struct {
	Name string
	Fn   func(*mesh.Mesh) ([]mgl64.Vec2, bool)
}

var (
	// Authored uses the mesh's own per-vertex UVs.
	Authored = Strategy{Name: "authored", Fn: authored}
	// FromCorners collapses per-face-corner UVs onto vertices.
	FromCorners = Strategy{Name: "corners", Fn: fromCorners}
	// Planar maps X/Y extents onto the unit square. It always succeeds.
	Planar = Strategy{Name: "planar", Fn: func(m *mesh.Mesh) ([]mgl64.Vec2, bool) {
		return PlanarUVs(m.Vertices), true
	}}
)

// DefaultStrategies is the order Resolve tries when none are given.
var DefaultStrategies = []Strategy{Authored, FromCorners}

// Resolve returns the UVs of the first strategy that succeeds, together with
// its name. When all fail it falls back to Planar and logs a warning.
func Resolve(m *mesh.Mesh, strategies ...Strategy) ([]mgl64.Vec2, string) {
	if len(strategies) == 0 {
		strategies = DefaultStrategies
	}
	for _, s := range strategies {
		if uvs, ok := s.Fn(m); ok && len(uvs) == len(m.Vertices) {
			logger.Debug("uvs resolved", zap.String("strategy", s.Name), zap.Int("count", len(uvs)))
			return uvs, s.Name
		}
	}

	logger.Warn("no usable uvs, using planar fallback", zap.String("model", m.Name))
	return PlanarUVs(m.Vertices), Planar.Name
}

func authored(m *mesh.Mesh) ([]mgl64.Vec2, bool) {
	if len(m.UVs) == 0 || len(m.UVs) != len(m.Vertices) {
		return nil, false
	}
	return m.UVs, true
}

// fromCorners assigns each vertex the first corner UV referencing it in
// face order. Vertices no face references leave the strategy unusable.
func fromCorners(m *mesh.Mesh) ([]mgl64.Vec2, bool) {
	if len(m.CornerUVs) == 0 || len(m.CornerUVs) != len(m.Faces) {
		return nil, false
	}

	uvs := make([]mgl64.Vec2, len(m.Vertices))
	seen := make([]bool, len(m.Vertices))
	assigned := 0
	for fi, f := range m.Faces {
		for k, vi := range f {
			if vi < 0 || vi >= len(uvs) || seen[vi] {
				continue
			}
			uvs[vi] = m.CornerUVs[fi][k]
			seen[vi] = true
			assigned++
		}
	}
	if assigned != len(m.Vertices) {
		return nil, false
	}
	return uvs, true
}

// PlanarUVs maps vertex X to U and Y to an inverted V over the mesh extents.
// A zero extent on an axis is treated as 1.
func PlanarUVs(verts []mgl64.Vec3) []mgl64.Vec2 {
	if len(verts) == 0 {
		return nil
	}
	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, v := range verts {
		minX, maxX = math.Min(minX, v[0]), math.Max(maxX, v[0])
		minY, maxY = math.Min(minY, v[1]), math.Max(maxY, v[1])
	}
	rx, ry := maxX-minX, maxY-minY
	if rx == 0 {
		rx = 1
	}
	if ry == 0 {
		ry = 1
	}

	uvs := make([]mgl64.Vec2, len(verts))
	for i, v := range verts {
		uvs[i] = mgl64.Vec2{(v[0] - minX) / rx, 1 - (v[1]-minY)/ry}
	}
	return uvs
}
