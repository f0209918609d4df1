package compose

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/disintegration/gift"
	"github.com/go-gl/mathgl/mgl64"
	"golang.org/x/image/vector"

	"github.com/Faultbox/paintmap/internal/raster"
)

var (
	Background = color.NRGBA{255, 255, 255, 255}
	Fill       = color.NRGBA{230, 235, 245, 255}
	Wireframe  = color.NRGBA{100, 120, 200, 160}
)

// smoothKernel is a 5x5 low-pass kernel: a heavy centre, a medium inner
// ring and a light outer ring. Its weights sum to 100.
var smoothKernel = []float32{
	1, 1, 1, 1, 1,
	1, 5, 5, 5, 1,
	1, 5, 44, 5, 1,
	1, 5, 5, 5, 1,
	1, 1, 1, 1, 1,
}

// Template renders the paint template: covered pixels tinted on a white
// canvas, every face outlined, and the result softened once.
func Template(buf *raster.Buffer, verts []mgl64.Vec2, faces [][3]int) *image.NRGBA {
	size := buf.Size
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			if _, ok := buf.At(x, y); ok {
				img.SetNRGBA(x, y, Fill)
			}
		}
	}

	drawWireframe(img, verts, faces)
	return Smooth(img)
}

// Smooth applies one pass of smoothKernel to every channel, alpha included.
func Smooth(src image.Image) *image.NRGBA {
	g := gift.New(gift.Convolution(smoothKernel, true, true, false, 0))
	dst := image.NewNRGBA(g.Bounds(src.Bounds()))
	g.Draw(dst, src)
	return dst
}

// drawWireframe outlines each face with a one pixel stroke. Corners are
// clipped to the image and snapped to whole pixels before drawing. Stroke
// pixels move towards Wireframe by their coverage rather than being
// composited over, so the stroke colour replaces what is underneath.
func drawWireframe(img *image.NRGBA, verts []mgl64.Vec2, faces [][3]int) {
	size := img.Bounds().Dx()
	if size == 0 || len(faces) == 0 {
		return
	}

	snap := func(v mgl64.Vec2) mgl64.Vec2 {
		last := float64(size - 1)
		x := math.Trunc(math.Max(0, math.Min(last, v[0])))
		y := math.Trunc(math.Max(0, math.Min(last, v[1])))
		// Centre of the pixel.
		return mgl64.Vec2{x + 0.5, y + 0.5}
	}

	r := vector.NewRasterizer(size, size)
	for _, f := range faces {
		a, b, c := snap(verts[f[0]]), snap(verts[f[1]]), snap(verts[f[2]])
		strokeSegment(r, a, b)
		strokeSegment(r, b, c)
		strokeSegment(r, c, a)
	}
	mask := image.NewAlpha(image.Rect(0, 0, size, size))
	r.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			a := mask.AlphaAt(x, y).A
			if a == 0 {
				continue
			}
			img.SetNRGBA(x, y, lerpNRGBA(img.NRGBAAt(x, y), Wireframe, a))
		}
	}
}

// lerpNRGBA moves c towards to by a/255, channel by channel.
func lerpNRGBA(c, to color.NRGBA, a uint8) color.NRGBA {
	mix := func(p, q uint8) uint8 {
		return uint8((int(p)*(255-int(a)) + int(q)*int(a) + 127) / 255)
	}
	return color.NRGBA{mix(c.R, to.R), mix(c.G, to.G), mix(c.B, to.B), mix(c.A, to.A)}
}

// strokeSegment adds a closed quad covering the segment p-q, one pixel
// wide and extended half a pixel past both ends. Every quad is wound the
// same way so overlapping strokes accumulate instead of cancelling.
func strokeSegment(r *vector.Rasterizer, p, q mgl64.Vec2) {
	d := q.Sub(p)
	l := d.Len()
	if l == 0 {
		d = mgl64.Vec2{1, 0}
	} else {
		d = d.Mul(1 / l)
	}
	d = d.Mul(0.5)
	n := mgl64.Vec2{-d[1], d[0]}

	p0 := p.Sub(d)
	q0 := q.Add(d)
	r.MoveTo(float32(p0[0]+n[0]), float32(p0[1]+n[1]))
	r.LineTo(float32(q0[0]+n[0]), float32(q0[1]+n[1]))
	r.LineTo(float32(q0[0]-n[0]), float32(q0[1]-n[1]))
	r.LineTo(float32(p0[0]-n[0]), float32(p0[1]-n[1]))
	r.ClosePath()
}
