package shade

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrSizeMismatch is returned when the mask or dark texture does not match
// the base image dimensions.
var ErrSizeMismatch = errors.New("shade: image size mismatch")

// ClipMask multiplies mask by the base image's alpha channel so shading
// never extends past the real silhouette.
func ClipMask(mask *image.Gray, base *image.NRGBA) (*image.Gray, error) {
	w, h := base.Rect.Dx(), base.Rect.Dy()
	if mask.Rect.Dx() != w || mask.Rect.Dy() != h {
		return nil, fmt.Errorf("%w: mask %v, base %v", ErrSizeMismatch, mask.Rect.Size(), base.Rect.Size())
	}

	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		mrow := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		brow := base.Pix[y*base.Stride : y*base.Stride+4*w]
		orow := out.Pix[y*out.Stride : y*out.Stride+w]
		for x := range orow {
			orow[x] = mul8(mrow[x], brow[4*x+3])
		}
	}
	return out, nil
}

// Composite blends dark over base through mask and keeps base's alpha.
//
// The mask is first clipped by base alpha. For each pixel the RGB result
// is lerp(base, dark, m/255); alpha is copied from base unchanged. A nil
// dark image means opaque black.
func Composite(base *image.NRGBA, mask *image.Gray, dark image.Image) (*image.NRGBA, error) {
	clipped, err := ClipMask(mask, base)
	if err != nil {
		return nil, err
	}

	w, h := base.Rect.Dx(), base.Rect.Dy()
	darkAt, err := darkSampler(dark, w, h)
	if err != nil {
		return nil, err
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		brow := base.Pix[y*base.Stride : y*base.Stride+4*w]
		mrow := clipped.Pix[y*clipped.Stride : y*clipped.Stride+w]
		orow := out.Pix[y*out.Stride : y*out.Stride+4*w]
		for x := 0; x < w; x++ {
			m := mrow[x]
			i := 4 * x
			if m == 0 {
				copy(orow[i:i+4], brow[i:i+4])
				continue
			}
			d := darkAt(x, y)
			orow[i+0] = lerp8(brow[i+0], d.R, m)
			orow[i+1] = lerp8(brow[i+1], d.G, m)
			orow[i+2] = lerp8(brow[i+2], d.B, m)
			orow[i+3] = brow[i+3]
		}
	}
	return out, nil
}

// darkSampler returns a local-coordinate accessor for the dark texture.
func darkSampler(dark image.Image, w, h int) (func(x, y int) color.NRGBA, error) {
	if dark == nil {
		black := color.NRGBA{A: 255}
		return func(int, int) color.NRGBA { return black }, nil
	}

	b := dark.Bounds()
	if b.Dx() != w || b.Dy() != h {
		return nil, fmt.Errorf("%w: dark texture %v, base %v", ErrSizeMismatch, b.Size(), image.Pt(w, h))
	}

	if n, ok := dark.(*image.NRGBA); ok {
		return func(x, y int) color.NRGBA {
			i := n.PixOffset(b.Min.X+x, b.Min.Y+y)
			return color.NRGBA{n.Pix[i], n.Pix[i+1], n.Pix[i+2], n.Pix[i+3]}
		}, nil
	}
	return func(x, y int) color.NRGBA {
		return color.NRGBAModel.Convert(dark.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
	}, nil
}

// mul8 returns a*b/255 rounded.
func mul8(a, b uint8) uint8 {
	return uint8((uint32(a)*uint32(b) + 127) / 255)
}

// lerp8 blends from a toward b by t/255, rounded.
func lerp8(a, b, t uint8) uint8 {
	return uint8((uint32(b)*uint32(t) + uint32(a)*(255-uint32(t)) + 127) / 255)
}
