// Package raster fills a square pixel buffer with UVs interpolated over
// projected triangles.
package raster

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ProgressInterval is the number of faces between progress callbacks.
const ProgressInterval = 5000

// degenerateEpsilon is the smallest |denominator| accepted by Barycentric.
const degenerateEpsilon = 1e-10

// Buffer holds one UV per pixel in row-major order. A pixel's UV is
// meaningful only when it is covered.
type Buffer struct {
	Size    int
	UV      []mgl64.Vec2
	Covered []bool
}

// NewBuffer returns an empty size x size buffer.
func NewBuffer(size int) *Buffer {
	return &Buffer{
		Size:    size,
		UV:      make([]mgl64.Vec2, size*size),
		Covered: make([]bool, size*size),
	}
}

// At returns the UV at pixel (x, y) and whether any triangle covered it.
func (b *Buffer) At(x, y int) (mgl64.Vec2, bool) {
	if x < 0 || y < 0 || x >= b.Size || y >= b.Size {
		return mgl64.Vec2{}, false
	}
	i := y*b.Size + x
	return b.UV[i], b.Covered[i]
}

func (b *Buffer) set(x, y int, uv mgl64.Vec2) {
	i := y*b.Size + x
	b.UV[i] = uv
	b.Covered[i] = true
}

// CoveredCount returns the number of covered pixels.
func (b *Buffer) CoveredCount() int {
	n := 0
	for _, c := range b.Covered {
		if c {
			n++
		}
	}
	return n
}

// Barycentric returns the weights of p with respect to triangle (a, b, c).
// ok is false when the triangle is degenerate.
func Barycentric(p, a, b, c mgl64.Vec2) (w mgl64.Vec3, ok bool) {
	denom := (b[1]-c[1])*(a[0]-c[0]) + (c[0]-b[0])*(a[1]-c[1])
	if math.Abs(denom) < degenerateEpsilon {
		return w, false
	}
	w0 := ((b[1]-c[1])*(p[0]-c[0]) + (c[0]-b[0])*(p[1]-c[1])) / denom
	w1 := ((c[1]-a[1])*(p[0]-c[0]) + (a[0]-c[0])*(p[1]-c[1])) / denom
	return mgl64.Vec3{w0, w1, 1 - w0 - w1}, true
}

// Rasterize draws faces in order into a new buffer. Pixels are sampled at
// their centres; a pixel on a shared edge belongs to every adjacent face
// and keeps the UV of the last one drawn. progress, if non-nil, receives
// the number of faces done every ProgressInterval faces and at the end.
func Rasterize(verts []mgl64.Vec2, faces [][3]int, uvs []mgl64.Vec2, size int, progress func(done, total int)) *Buffer {
	buf := NewBuffer(size)
	total := len(faces)

	for fi, f := range faces {
		if progress != nil && fi > 0 && fi%ProgressInterval == 0 {
			progress(fi, total)
		}
		drawTriangle(buf, verts, uvs, f)
	}

	if progress != nil {
		progress(total, total)
	}
	return buf
}

func drawTriangle(buf *Buffer, verts []mgl64.Vec2, uvs []mgl64.Vec2, f [3]int) {
	a, b, c := verts[f[0]], verts[f[1]], verts[f[2]]
	last := float64(buf.Size - 1)

	// Bounding box clipped to the image; triangles fully outside it end up
	// with an empty range.
	x0 := math.Max(0, math.Floor(math.Min(a[0], math.Min(b[0], c[0]))))
	x1 := math.Min(last, math.Ceil(math.Max(a[0], math.Max(b[0], c[0]))))
	y0 := math.Max(0, math.Floor(math.Min(a[1], math.Min(b[1], c[1]))))
	y1 := math.Min(last, math.Ceil(math.Max(a[1], math.Max(b[1], c[1]))))
	if x0 > x1 || y0 > y1 {
		return
	}

	ua, ub, uc := uvs[f[0]], uvs[f[1]], uvs[f[2]]

	for y := int(y0); y <= int(y1); y++ {
		for x := int(x0); x <= int(x1); x++ {
			p := mgl64.Vec2{float64(x) + 0.5, float64(y) + 0.5}
			w, ok := Barycentric(p, a, b, c)
			if !ok {
				return
			}
			if w[0] < 0 || w[1] < 0 || w[2] < 0 {
				continue
			}
			uv := ua.Mul(w[0]).Add(ub.Mul(w[1])).Add(uc.Mul(w[2]))
			buf.set(x, y, mgl64.Vec2{clamp(uv[0], 0, 1), clamp(uv[1], 0, 1)})
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
