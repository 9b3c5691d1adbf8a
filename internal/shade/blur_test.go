package shade

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func TestGaussianKernel(t *testing.T) {
	for _, sigma := range []float64{0.5, 0.9, 1.8, 4} {
		k := gaussianKernel(sigma)
		r := int(math.Ceil(3 * sigma))
		if len(k) != 2*r+1 {
			t.Errorf("sigma %v: len = %d, want %d", sigma, len(k), 2*r+1)
		}

		var sum float64
		for i, v := range k {
			sum += float64(v)
			if v != k[len(k)-1-i] {
				t.Errorf("sigma %v: kernel not symmetric at %d", sigma, i)
			}
		}
		if math.Abs(sum-1) > 1e-5 {
			t.Errorf("sigma %v: weights sum to %v", sigma, sum)
		}
		if k[r] < k[0] {
			t.Errorf("sigma %v: center weight below tail", sigma)
		}
	}
}

func TestGaussianBlur_ConstantImage(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 17, 9))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	dst := GaussianBlur(src, 1.5)
	for i, v := range dst.Pix {
		if v != 200 {
			t.Fatalf("pixel %d = %d, want 200", i, v)
		}
	}
}

func TestGaussianBlur_ZeroSigmaCopies(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 4))
	src.Pix[5] = 255
	dst := GaussianBlur(src, 0)

	if &dst.Pix[0] == &src.Pix[0] {
		t.Fatal("blur returned the source buffer")
	}
	for i := range src.Pix {
		if dst.Pix[i] != src.Pix[i] {
			t.Fatalf("pixel %d = %d, want %d", i, dst.Pix[i], src.Pix[i])
		}
	}
}

func TestGaussianBlur_SpreadsEdge(t *testing.T) {
	// Left half dark, right half lit.
	src := image.NewGray(image.Rect(0, 0, 20, 3))
	for y := 0; y < 3; y++ {
		for x := 0; x < 10; x++ {
			src.SetGray(x, y, color.Gray{Y: 255})
		}
	}
	dst := GaussianBlur(src, 1)

	if v := dst.GrayAt(0, 1).Y; v != 255 {
		t.Errorf("far dark pixel = %d, want 255", v)
	}
	if v := dst.GrayAt(19, 1).Y; v != 0 {
		t.Errorf("far lit pixel = %d, want 0", v)
	}
	a, b := dst.GrayAt(9, 1).Y, dst.GrayAt(10, 1).Y
	if a <= b || a == 255 || b == 0 {
		t.Errorf("edge pixels = %d,%d, want a falling intermediate ramp", a, b)
	}
	// The ramp is symmetric about the edge.
	if d := int(a) + int(b) - 255; d > 1 || d < -1 {
		t.Errorf("edge pixels %d + %d, want about 255", a, b)
	}
}

func TestGaussianBlur_SubImageSource(t *testing.T) {
	full := image.NewGray(image.Rect(0, 0, 10, 10))
	for i := range full.Pix {
		full.Pix[i] = 90
	}
	sub := full.SubImage(image.Rect(3, 3, 8, 8)).(*image.Gray)

	dst := GaussianBlur(sub, 1)
	if dst.Rect != image.Rect(0, 0, 5, 5) {
		t.Fatalf("bounds = %v", dst.Rect)
	}
	for i, v := range dst.Pix {
		if v != 90 {
			t.Fatalf("pixel %d = %d, want 90", i, v)
		}
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{-3, 0},
		{0.4, 0},
		{0.5, 1},
		{127.49, 127},
		{254.6, 255},
		{300, 255},
	}
	for _, tt := range tests {
		if got := quantize(tt.in); got != tt.want {
			t.Errorf("quantize(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
