// Package projection maps 3D vertices to image pixels with an orthographic
// projection along one of three axes.
package projection

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Axis selects which two coordinates survive the projection.
type Axis int

const (
	Front Axis = iota // (X, Y)
	Side              // (Z, Y)
	Top               // (X, Z)
)

// DefaultPadding is the fraction of the image edge kept free on each side.
const DefaultPadding = 0.06

// minRange guards the scale against flat or single-point meshes.
const minRange = 1e-9

func (a Axis) String() string {
	switch a {
	case Front:
		return "front"
	case Side:
		return "side"
	case Top:
		return "top"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis accepts "front", "side" or "top".
func ParseAxis(s string) (Axis, error) {
	switch s {
	case "front":
		return Front, nil
	case "side":
		return Side, nil
	case "top":
		return Top, nil
	}
	return 0, fmt.Errorf("unknown axis %q (want front, side or top)", s)
}

// components returns the indices of the vertex coordinates kept by a.
func (a Axis) components() (int, int) {
	switch a {
	case Side:
		return 2, 1
	case Top:
		return 0, 2
	default:
		return 0, 1
	}
}

// Transform is the uniform scale and per-axis offset taking projected
// coordinates to pixels.
type Transform struct {
	Scale  float64
	Offset mgl64.Vec2
}

// Apply maps a projected point to pixel space.
func (t Transform) Apply(p mgl64.Vec2) mgl64.Vec2 {
	return mgl64.Vec2{p[0]*t.Scale + t.Offset[0], p[1]*t.Scale + t.Offset[1]}
}

// Fit computes the transform that centres verts, seen along axis, in a
// size x size image with padding*size pixels kept free on each side.
func Fit(verts []mgl64.Vec3, axis Axis, size int, padding float64) Transform {
	if len(verts) == 0 {
		return Transform{Scale: 1}
	}
	i, j := axis.components()

	lo := mgl64.Vec2{math.Inf(1), math.Inf(1)}
	hi := mgl64.Vec2{math.Inf(-1), math.Inf(-1)}
	for _, v := range verts {
		lo[0], hi[0] = math.Min(lo[0], v[i]), math.Max(hi[0], v[i])
		lo[1], hi[1] = math.Min(lo[1], v[j]), math.Max(hi[1], v[j])
	}
	rng := hi.Sub(lo)

	maxRange := math.Max(rng[0], rng[1])
	if maxRange < minRange {
		maxRange = 1
	}

	s := float64(size)
	pad := s * padding
	scale := (s - 2*pad) / maxRange

	return Transform{
		Scale: scale,
		Offset: mgl64.Vec2{
			(s-rng[0]*scale)/2 - lo[0]*scale,
			(s-rng[1]*scale)/2 - lo[1]*scale,
		},
	}
}

// Project returns one pixel-space point per vertex.
func Project(verts []mgl64.Vec3, axis Axis, size int, padding float64) []mgl64.Vec2 {
	t := Fit(verts, axis, size, padding)
	i, j := axis.components()

	out := make([]mgl64.Vec2, len(verts))
	for k, v := range verts {
		out[k] = t.Apply(mgl64.Vec2{v[i], v[j]})
	}
	return out
}
