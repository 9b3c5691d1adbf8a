// Package asset loads the raster layers of the moon scene: the base disc,
// the face overlays and the optional dark-side texture.
package asset

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// ErrNotFound is returned when no readable image exists for a layer.
var ErrNotFound = errors.New("asset: not found")

// Load decodes the image at path and converts it to NRGBA with a zero
// origin. A missing file is reported as ErrNotFound.
func Load(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return ToNRGBA(img), nil
}

// ToNRGBA returns img as non-premultiplied RGBA anchored at (0,0). An
// *image.NRGBA that already has a zero origin is returned as is.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(out, out.Rect, img, b.Min, xdraw.Src)
	return out
}

// Resize scales img to exactly w×h using Catmull-Rom resampling.
func Resize(img image.Image, w, h int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return ToNRGBA(img)
	}
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(out, out.Rect, img, b, xdraw.Src, nil)
	return out
}

// FitSize returns the largest size with the aspect ratio of (w, h) that fits
// inside a limit×limit box. Images are never enlarged; limit <= 0 disables
// the bound.
func FitSize(w, h, limit int) (int, int) {
	if limit <= 0 || (w <= limit && h <= limit) {
		return w, h
	}
	scale := min(float64(limit)/float64(w), float64(limit)/float64(h))
	return max(1, int(float64(w)*scale)), max(1, int(float64(h)*scale))
}

// Fit downscales img to fit within limit×limit.
func Fit(img *image.NRGBA, limit int) *image.NRGBA {
	w, h := FitSize(img.Rect.Dx(), img.Rect.Dy(), limit)
	return Resize(img, w, h)
}

// LoadFit loads path and fits it within limit.
func LoadFit(path string, limit int) (*image.NRGBA, error) {
	img, err := Load(path)
	if err != nil {
		return nil, err
	}
	return Fit(img, limit), nil
}
