package shade

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/lunie/internal/disc"
)

func uniformNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func uniformGray(w, h int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// moonBase is an opaque disc with a soft one-pixel rim on a transparent
// background.
func moonBase(size int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	c := float64(size) / 2
	r := c - 4
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx := float64(x) + 0.5 - c
			dy := float64(y) + 0.5 - c
			d2 := dx*dx + dy*dy
			switch {
			case d2 <= r*r:
				img.SetNRGBA(x, y, color.NRGBA{210, 205, 190, 255})
			case d2 <= (r+1)*(r+1):
				img.SetNRGBA(x, y, color.NRGBA{210, 205, 190, 96})
			}
		}
	}
	return img
}

func TestComposite_AlphaPreserved(t *testing.T) {
	base := moonBase(64)
	g := disc.Measure(base)
	dark := uniformNRGBA(64, 64, color.NRGBA{20, 20, 40, 255})

	for _, k := range []float64{0, 0.1, 0.5, 0.83, 1} {
		for _, waxing := range []bool{true, false} {
			mask := Generate(64, 64, DefaultParams(k, waxing), g)

			for _, d := range []image.Image{nil, dark} {
				out, err := Composite(base, mask, d)
				require.NoError(t, err)
				require.Equal(t, base.Rect, out.Rect)
				for i := 3; i < len(out.Pix); i += 4 {
					if out.Pix[i] != base.Pix[i] {
						t.Fatalf("k=%v waxing=%v: alpha at byte %d = %d, want %d", k, waxing, i, out.Pix[i], base.Pix[i])
					}
				}
			}
		}
	}
}

func TestComposite_Blend(t *testing.T) {
	base := uniformNRGBA(2, 1, color.NRGBA{200, 100, 50, 255})
	mask := image.NewGray(image.Rect(0, 0, 2, 1))
	mask.Pix[0] = 255
	mask.Pix[1] = 0

	out, err := Composite(base, mask, nil)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{0, 0, 0, 255}, out.NRGBAAt(0, 0), "full mask goes to black")
	assert.Equal(t, color.NRGBA{200, 100, 50, 255}, out.NRGBAAt(1, 0), "zero mask keeps base")

	dark := uniformNRGBA(2, 1, color.NRGBA{10, 20, 30, 255})
	mask.Pix[1] = 128
	out, err = Composite(base, mask, dark)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{10, 20, 30, 255}, out.NRGBAAt(0, 0))
	assert.Equal(t, color.NRGBA{105, 60, 40, 255}, out.NRGBAAt(1, 0))
}

func TestComposite_MaskClippedByAlpha(t *testing.T) {
	// Half-transparent base: a full mask only darkens by alpha/255.
	base := uniformNRGBA(1, 1, color.NRGBA{200, 200, 200, 128})
	out, err := Composite(base, uniformGray(1, 1, 255), nil)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{100, 100, 100, 128}, out.NRGBAAt(0, 0))

	// Fully transparent pixels never change.
	base = uniformNRGBA(1, 1, color.NRGBA{1, 2, 3, 0})
	out, err = Composite(base, uniformGray(1, 1, 255), nil)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{1, 2, 3, 0}, out.NRGBAAt(0, 0))
}

func TestComposite_GenericDarkTexture(t *testing.T) {
	base := uniformNRGBA(3, 3, color.NRGBA{255, 255, 255, 255})
	dark := image.NewGray(image.Rect(5, 5, 8, 8))
	for i := range dark.Pix {
		dark.Pix[i] = 40
	}

	out, err := Composite(base, uniformGray(3, 3, 255), dark)
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{40, 40, 40, 255}, out.NRGBAAt(2, 2))
}

func TestComposite_SizeMismatch(t *testing.T) {
	base := uniformNRGBA(4, 4, color.NRGBA{A: 255})

	_, err := Composite(base, uniformGray(3, 4, 0), nil)
	assert.ErrorIs(t, err, ErrSizeMismatch)

	_, err = Composite(base, uniformGray(4, 4, 0), uniformNRGBA(4, 5, color.NRGBA{}))
	assert.ErrorIs(t, err, ErrSizeMismatch)

	_, err = ClipMask(uniformGray(5, 5, 0), base)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestClipMask(t *testing.T) {
	base := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	base.Pix[3] = 255
	base.Pix[7] = 128
	base.Pix[11] = 0

	got, err := ClipMask(uniformGray(3, 1, 200), base)
	require.NoError(t, err)
	assert.Equal(t, []uint8{200, 100, 0}, got.Pix)
}

func TestLerp8(t *testing.T) {
	assert.Equal(t, uint8(10), lerp8(10, 250, 0))
	assert.Equal(t, uint8(250), lerp8(10, 250, 255))
	assert.Equal(t, uint8(128), lerp8(0, 255, 128))
	assert.Equal(t, uint8(0), mul8(0, 255))
	assert.Equal(t, uint8(255), mul8(255, 255))
}
