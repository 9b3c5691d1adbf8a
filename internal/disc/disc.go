// Package disc estimates the circular moon disc inside an image from its
// transparency channel.
package disc

import (
	"fmt"
	"image"
	"math"
)

// RimMargin is added to the measured radius so the mask reaches into the
// anti-aliased rim and no lit halo survives at the silhouette.
const RimMargin = 2.0

// minRadius keeps degenerate images from producing a non-positive disc.
const minRadius = 1.0

// Geometry is the estimated disc in source-image pixel coordinates.
type Geometry struct {
	CX, CY float64 // center, sub-pixel
	R      float64 // radius
	// Fallback is set when no opaque pixel was found and the image frame
	// was used instead.
	Fallback bool
}

// String formats the geometry for logs.
func (g Geometry) String() string {
	if g.Fallback {
		return fmt.Sprintf("fallback center=(%.1f,%.1f) R=%.1f", g.CX, g.CY, g.R)
	}
	return fmt.Sprintf("center=(%.2f,%.2f) R=%.2f", g.CX, g.CY, g.R)
}

// Scale returns the geometry in a coordinate space s times larger.
func (g Geometry) Scale(s float64) Geometry {
	return Geometry{CX: g.CX * s, CY: g.CY * s, R: g.R * s, Fallback: g.Fallback}
}

// Default is the disc inscribed in a w×h frame.
func Default(w, h int) Geometry {
	return Geometry{CX: float64(w) / 2, CY: float64(h) / 2, R: float64(min(w, h)) / 2}
}

// Measure estimates the disc from the bounding box of non-transparent
// pixels. The radius is half the smaller box side plus RimMargin. A fully
// transparent image falls back to the image center with radius
// min(w,h)/2 - 1.
func Measure(img image.Image) Geometry {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	box, ok := OpaqueBounds(img)
	if !ok {
		return Geometry{
			CX:       float64(w) / 2,
			CY:       float64(h) / 2,
			R:        math.Max(minRadius, float64(min(w, h))/2-1),
			Fallback: true,
		}
	}

	// Box in image-local coordinates.
	box = box.Sub(b.Min)
	bw, bh := float64(box.Dx()), float64(box.Dy())
	return Geometry{
		CX: float64(box.Min.X) + bw/2,
		CY: float64(box.Min.Y) + bh/2,
		R:  math.Max(minRadius, math.Min(bw, bh)/2+RimMargin),
	}
}

// OpaqueBounds returns the smallest rectangle containing every pixel with
// non-zero alpha. ok is false when the image is fully transparent.
func OpaqueBounds(img image.Image) (image.Rectangle, bool) {
	b := img.Bounds()
	minX, minY := b.Max.X, b.Max.Y
	maxX, maxY := b.Min.X-1, b.Min.Y-1

	alphaAt := alphaFunc(img)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if alphaAt(x, y) == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}

	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

// alphaFunc returns a fast alpha accessor for the common concrete types.
func alphaFunc(img image.Image) func(x, y int) uint8 {
	switch m := img.(type) {
	case *image.NRGBA:
		return func(x, y int) uint8 { return m.Pix[m.PixOffset(x, y)+3] }
	case *image.RGBA:
		return func(x, y int) uint8 { return m.Pix[m.PixOffset(x, y)+3] }
	case *image.Alpha:
		return func(x, y int) uint8 { return m.Pix[m.PixOffset(x, y)] }
	}
	return func(x, y int) uint8 {
		_, _, _, a := img.At(x, y).RGBA()
		if a == 0 {
			return 0
		}
		return max(uint8(a>>8), 1)
	}
}
