// Package compose renders raster buffers into the paint template and the
// UV-map images.
package compose

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/paintmap/internal/raster"
)

// UVMap encodes buf as an image: R holds U, G holds V, A marks coverage.
// Uncovered pixels are fully transparent black.
func UVMap(buf *raster.Buffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, buf.Size, buf.Size))
	for y := 0; y < buf.Size; y++ {
		for x := 0; x < buf.Size; x++ {
			uv, ok := buf.At(x, y)
			if !ok {
				continue
			}
			img.SetNRGBA(x, y, EncodeUV(uv))
		}
	}
	return img
}

// EncodeUV packs a UV into a covered pixel.
func EncodeUV(uv mgl64.Vec2) color.NRGBA {
	return color.NRGBA{R: channel(uv[0]), G: channel(uv[1]), A: 255}
}

// DecodeUV recovers the UV stored in c, within 1/255 of the encoded value.
// ok is false for uncovered pixels.
func DecodeUV(c color.NRGBA) (uv mgl64.Vec2, ok bool) {
	if c.A == 0 {
		return uv, false
	}
	return mgl64.Vec2{float64(c.R) / 255, float64(c.G) / 255}, true
}

func channel(v float64) uint8 {
	return uint8(math.Round(math.Max(0, math.Min(1, v)) * 255))
}
