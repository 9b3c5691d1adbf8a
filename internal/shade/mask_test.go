package shade

import (
	"image"
	"math"
	"testing"

	"github.com/litescript/lunie/internal/disc"
)

const (
	testSize = 100
)

var testDisc = disc.Geometry{CX: 50, CY: 50, R: 40}

func insideDisc(g disc.Geometry, x, y int) bool {
	dx := float64(x) + 0.5 - g.CX
	dy := float64(y) + 0.5 - g.CY
	return dx*dx+dy*dy <= g.R*g.R
}

// darkFraction is the mean darkness over pixels inside the disc.
func darkFraction(m *image.Gray, g disc.Geometry) float64 {
	var sum, n float64
	b := m.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if !insideDisc(g, x, y) {
				continue
			}
			sum += float64(m.GrayAt(x, y).Y) / 255
			n++
		}
	}
	return sum / n
}

func totalDarkness(m *image.Gray) float64 {
	var sum float64
	for _, v := range m.Pix {
		sum += float64(v)
	}
	return sum / 255
}

func TestGenerate_FullMoonIsUniformlyLit(t *testing.T) {
	for _, k := range []float64{1, 1.5} {
		m := Generate(testSize, testSize, DefaultParams(k, true), testDisc)
		for i, v := range m.Pix {
			if v != 0 {
				t.Fatalf("k=%v: pixel %d = %d, want 0", k, i, v)
			}
		}
	}
}

func TestGenerate_NewMoonFillsDisc(t *testing.T) {
	for _, k := range []float64{0, -0.2, math.NaN()} {
		m := Generate(testSize, testSize, DefaultParams(k, true), testDisc)
		for y := 0; y < testSize; y++ {
			for x := 0; x < testSize; x++ {
				got := m.GrayAt(x, y).Y
				want := uint8(0)
				if insideDisc(testDisc, x, y) {
					want = 255
				}
				if got != want {
					t.Fatalf("k=%v: (%d,%d) = %d, want %d", k, x, y, got, want)
				}
			}
		}
	}
}

func TestGenerate_DarkFractionTracksIllumination(t *testing.T) {
	ks := []float64{0.95, 0.8, 0.6, 0.5, 0.4, 0.2, 0.05}
	prev := -1.0

	for _, k := range ks {
		m := Generate(testSize, testSize, DefaultParams(k, true), testDisc)
		dark := darkFraction(m, testDisc)

		if dark <= prev {
			t.Errorf("k=%v: dark fraction %.4f not greater than %.4f at larger k", k, dark, prev)
		}
		if math.Abs(dark-(1-k)) > 0.04 {
			t.Errorf("k=%v: dark fraction %.4f, want about %.4f", k, dark, 1-k)
		}
		prev = dark
	}
}

func TestGenerate_WaxingLitOnRight(t *testing.T) {
	m := Generate(testSize, testSize, DefaultParams(0.3, true), testDisc)
	left := m.GrayAt(20, 50).Y
	right := m.GrayAt(85, 50).Y
	if left != 255 || right != 0 {
		t.Errorf("waxing crescent: left=%d right=%d, want 255 and 0", left, right)
	}

	m = Generate(testSize, testSize, DefaultParams(0.3, false), testDisc)
	left = m.GrayAt(15, 50).Y
	right = m.GrayAt(80, 50).Y
	if left != 0 || right != 255 {
		t.Errorf("waning crescent: left=%d right=%d, want 0 and 255", left, right)
	}
}

func TestGenerate_QuarterMirror(t *testing.T) {
	waxing := Generate(testSize, testSize, DefaultParams(0.5, true), testDisc)
	waning := Generate(testSize, testSize, DefaultParams(0.5, false), testDisc)

	for y := 0; y < testSize; y++ {
		for x := 0; x < testSize; x++ {
			a := int(waxing.GrayAt(x, y).Y)
			b := int(waning.GrayAt(testSize-1-x, y).Y)
			if d := a - b; d > 2 || d < -2 {
				t.Fatalf("(%d,%d): waxing %d vs mirrored waning %d", x, y, a, b)
			}
		}
	}
}

func TestGenerate_OversampleConverges(t *testing.T) {
	p := DefaultParams(0.3, true)

	p.Oversample = 2
	two := totalDarkness(Generate(testSize, testSize, p, testDisc))
	p.Oversample = 4
	four := totalDarkness(Generate(testSize, testSize, p, testDisc))

	if rel := math.Abs(two-four) / two; rel > 0.02 {
		t.Errorf("oversample 2 vs 4 dark totals %.1f vs %.1f differ by %.2f%%", two, four, rel*100)
	}
}

func TestGenerate_NoSoftnessNoOversampleIsBinary(t *testing.T) {
	p := Params{K: 0.4, Waxing: true, Softness: 0, Oversample: 1}
	m := Generate(testSize, testSize, p, testDisc)
	for i, v := range m.Pix {
		if v != 0 && v != 255 {
			t.Fatalf("pixel %d = %d, want 0 or 255", i, v)
		}
	}
}

func TestGenerate_FeatheredTerminator(t *testing.T) {
	p := Params{K: 0.5, Waxing: true, Softness: 2, Oversample: 2}
	m := Generate(testSize, testSize, p, testDisc)

	// The terminator runs down x=50; pixels next to it sit between the
	// fully dark and fully lit halves.
	v := m.GrayAt(50, 50).Y
	if v == 0 || v == 255 {
		t.Errorf("terminator pixel = %d, want an intermediate value", v)
	}
}

func TestGenerate_OutsideRimUntouched(t *testing.T) {
	m := Generate(testSize, testSize, DefaultParams(0.2, true), testDisc)
	for _, p := range []image.Point{{0, 0}, {99, 0}, {0, 99}, {99, 99}, {2, 50}} {
		if v := m.GrayAt(p.X, p.Y).Y; v != 0 {
			t.Errorf("pixel %v outside the disc = %d, want 0", p, v)
		}
	}
}

func TestGenerate_PanicsOnBadOversample(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for oversample 0")
		}
	}()
	Generate(10, 10, Params{K: 0.5, Oversample: 0}, disc.Default(10, 10))
}

func TestGenerate_ZeroSize(t *testing.T) {
	m := Generate(0, 0, DefaultParams(0.5, true), disc.Geometry{})
	if m.Bounds().Dx() != 0 || m.Bounds().Dy() != 0 {
		t.Errorf("bounds = %v, want empty", m.Bounds())
	}
}

func TestSunFor(t *testing.T) {
	tests := []struct {
		k      float64
		waxing bool
		wantX  float64
		wantZ  float64
	}{
		{0.5, true, 1, 0},
		{0.5, false, -1, 0},
		{1, true, 0, 1},
		{0, true, 0, -1},
	}
	for _, tt := range tests {
		s := sunFor(tt.k, tt.waxing)
		if math.Abs(s.x-tt.wantX) > 1e-9 || math.Abs(s.z-tt.wantZ) > 1e-9 {
			t.Errorf("sunFor(%v, %v) = %+v, want {%v %v}", tt.k, tt.waxing, s, tt.wantX, tt.wantZ)
		}
	}
}

func TestBands(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 1001} {
		covered := 0
		next := 0
		for _, b := range bands(n) {
			if b.lo != next || b.hi <= b.lo {
				t.Fatalf("n=%d: bad band %+v after %d", n, b, next)
			}
			covered += b.hi - b.lo
			next = b.hi
		}
		if covered != n {
			t.Errorf("n=%d: bands cover %d rows", n, covered)
		}
	}
}
