// Package shade builds the lunar phase mask and composites the dark side
// of the moon against the lit base image.
//
// Mask intensity is "degree of darkness": 0 is fully lit, 255 is fully
// dark, intermediate values are the feathered terminator.
package shade

import (
	"fmt"
	"image"
	"math"
	"runtime"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"

	"github.com/litescript/lunie/internal/disc"
)

const (
	// rimTolerance bounds the squared normalized radius that is still lit
	// or darkened. Pixels slightly past the disc edge are shaded so the
	// rim is never truncated; the base alpha clips them later.
	rimTolerance = 1.15

	// minNZ2 replaces non-positive squared depth at and beyond the
	// silhouette so the normal stays finite.
	minNZ2 = 0.0001

	// DefaultSoftness is the terminator feather radius in pixels.
	DefaultSoftness = 0.9

	// DefaultOversample is the mask supersampling factor.
	DefaultOversample = 2
)

// Params controls one mask generation.
type Params struct {
	K          float64 // illuminated fraction, clamped to [0,1]
	Waxing     bool    // lit limb on the right when true
	Softness   float64 // feather radius in output pixels
	Oversample int     // supersampling factor, >= 1
}

// DefaultParams returns params for fraction k with default feathering.
func DefaultParams(k float64, waxing bool) Params {
	return Params{K: k, Waxing: waxing, Softness: DefaultSoftness, Oversample: DefaultOversample}
}

// sun is the unit light direction: x lateral, z toward the viewer.
type sun struct {
	x, z float64
}

// sunFor derives the light direction from k = (1 + cos a) / 2.
func sunFor(k float64, waxing bool) sun {
	cosA := math.Max(-1, math.Min(1, 2*k-1))
	a := math.Acos(cosA)
	sx := math.Sin(a)
	if !waxing {
		sx = -sx
	}
	return sun{x: sx, z: cosA}
}

// Generate builds a w×h darkness mask for the disc g.
//
// k <= 0 yields a filled dark disc, k >= 1 an all-zero mask. Otherwise the
// disc is lit as an orthographically projected hemisphere at Oversample×
// resolution, blurred by Softness×Oversample and downsampled.
//
// Generate panics if p.Oversample < 1.
func Generate(w, h int, p Params, g disc.Geometry) *image.Gray {
	if p.Oversample < 1 {
		panic(fmt.Sprintf("shade: oversample must be >= 1, got %d", p.Oversample))
	}

	mask := image.NewGray(image.Rect(0, 0, w, h))
	k := clamp01(p.K)
	if k <= 0 {
		fillDisc(mask, g)
		return mask
	}
	if k >= 1 {
		return mask
	}

	factor := p.Oversample
	hi := mask
	if factor > 1 {
		hi = image.NewGray(image.Rect(0, 0, w*factor, h*factor))
	}
	light(hi, sunFor(k, p.Waxing), g.Scale(float64(factor)))

	if p.Softness > 0 {
		hi = GaussianBlur(hi, p.Softness*float64(factor))
	}

	if factor == 1 {
		return hi
	}
	xdraw.CatmullRom.Scale(mask, mask.Bounds(), hi, hi.Bounds(), xdraw.Src, nil)
	return mask
}

// light marks dark pixels (ndot <= 0) with 255. Rows are independent and
// processed in parallel bands.
func light(dst *image.Gray, s sun, g disc.Geometry) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	if w == 0 || h == 0 || g.R <= 0 {
		return
	}

	var eg errgroup.Group
	for _, b := range bands(h) {
		eg.Go(func() error {
			for j := b.lo; j < b.hi; j++ {
				row := dst.Pix[j*dst.Stride : j*dst.Stride+w]
				lightRow(row, j, s, g)
			}
			return nil
		})
	}
	_ = eg.Wait()
}

func lightRow(row []uint8, j int, s sun, g disc.Geometry) {
	y := (float64(j) + 0.5 - g.CY) / g.R
	for i := range row {
		x := (float64(i) + 0.5 - g.CX) / g.R
		r2 := x*x + y*y
		if r2 > rimTolerance {
			continue
		}
		nz2 := 1 - r2
		if nz2 <= 0 {
			nz2 = minNZ2
		}
		ndot := x*s.x + math.Sqrt(nz2)*s.z
		if ndot <= 0 {
			row[i] = 255
		} else {
			row[i] = 0
		}
	}
}

// fillDisc paints every pixel whose center lies inside g with 255.
func fillDisc(dst *image.Gray, g disc.Geometry) {
	r := math.Max(1, g.R)
	r2 := r * r
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	y0 := max(0, int(math.Floor(g.CY-r)))
	y1 := min(h, int(math.Ceil(g.CY+r))+1)
	x0 := max(0, int(math.Floor(g.CX-r)))
	x1 := min(w, int(math.Ceil(g.CX+r))+1)
	for j := y0; j < y1; j++ {
		dy := float64(j) + 0.5 - g.CY
		for i := x0; i < x1; i++ {
			dx := float64(i) + 0.5 - g.CX
			if dx*dx+dy*dy <= r2 {
				dst.Pix[j*dst.Stride+i] = 255
			}
		}
	}
}

type band struct{ lo, hi int }

// bands splits n rows into contiguous ranges, one per available CPU.
func bands(n int) []band {
	workers := max(1, min(runtime.GOMAXPROCS(0), n))
	step := (n + workers - 1) / workers
	out := make([]band, 0, workers)
	for lo := 0; lo < n; lo += step {
		out = append(out, band{lo: lo, hi: min(n, lo+step)})
	}
	return out
}

func clamp01(k float64) float64 {
	if !(k > 0) {
		return 0
	}
	if k > 1 {
		return 1
	}
	return k
}
