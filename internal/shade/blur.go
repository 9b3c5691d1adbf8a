package shade

import (
	"image"
	"math"

	"golang.org/x/sync/errgroup"
)

// gaussianKernel returns normalized weights for offsets -r..r where
// r = ceil(3σ).
func gaussianKernel(sigma float64) []float32 {
	r := int(math.Ceil(3 * sigma))
	k := make([]float32, 2*r+1)
	var sum float64
	for i := -r; i <= r; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		k[i+r] = float32(v)
		sum += v
	}
	for i := range k {
		k[i] = float32(float64(k[i]) / sum)
	}
	return k
}

// GaussianBlur returns src blurred with standard deviation sigma pixels.
// The filter is separable: a horizontal pass over rows, then a vertical
// pass over columns, each split into parallel bands. Edges are clamped.
func GaussianBlur(src *image.Gray, sigma float64) *image.Gray {
	w, h := src.Rect.Dx(), src.Rect.Dy()
	dst := image.NewGray(image.Rect(0, 0, w, h))
	if w == 0 || h == 0 {
		return dst
	}
	if sigma <= 0 {
		for y := 0; y < h; y++ {
			copy(dst.Pix[y*dst.Stride:y*dst.Stride+w], src.Pix[y*src.Stride:y*src.Stride+w])
		}
		return dst
	}

	kernel := gaussianKernel(sigma)
	r := len(kernel) / 2
	tmp := make([]float32, w*h)

	// Horizontal pass: src -> tmp.
	var rows errgroup.Group
	for _, b := range bands(h) {
		rows.Go(func() error {
			for y := b.lo; y < b.hi; y++ {
				row := src.Pix[y*src.Stride : y*src.Stride+w]
				out := tmp[y*w : (y+1)*w]
				for x := 0; x < w; x++ {
					var acc float32
					for i, kv := range kernel {
						sx := min(max(x+i-r, 0), w-1)
						acc += kv * float32(row[sx])
					}
					out[x] = acc
				}
			}
			return nil
		})
	}
	_ = rows.Wait()

	// Vertical pass: tmp -> dst, banded by column.
	var cols errgroup.Group
	for _, b := range bands(w) {
		cols.Go(func() error {
			for x := b.lo; x < b.hi; x++ {
				for y := 0; y < h; y++ {
					var acc float32
					for i, kv := range kernel {
						sy := min(max(y+i-r, 0), h-1)
						acc += kv * tmp[sy*w+x]
					}
					dst.Pix[y*dst.Stride+x] = quantize(acc)
				}
			}
			return nil
		})
	}
	_ = cols.Wait()

	return dst
}

func quantize(v float32) uint8 {
	v = float32(math.Round(float64(v)))
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v)
}
