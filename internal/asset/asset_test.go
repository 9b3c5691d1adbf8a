package asset

import (
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "moon.png")
	writePNG(t, p, 6, 4, color.NRGBA{10, 20, 30, 128})

	img, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 6, 4), img.Rect)
	assert.Equal(t, color.NRGBA{10, 20, 30, 128}, img.NRGBAAt(3, 2))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.png"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLoad_Undecodable(t *testing.T) {
	p := filepath.Join(t.TempDir(), "junk.png")
	require.NoError(t, os.WriteFile(p, []byte("not an image"), 0o644))

	_, err := Load(p)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestToNRGBA_SubImage(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 10, 10))
	src.Set(5, 5, color.RGBA{255, 0, 0, 255})
	sub := src.SubImage(image.Rect(4, 4, 8, 8))

	out := ToNRGBA(sub)
	assert.Equal(t, image.Rect(0, 0, 4, 4), out.Rect)
	assert.Equal(t, color.NRGBA{255, 0, 0, 255}, out.NRGBAAt(1, 1))
}

func TestFitSize(t *testing.T) {
	tests := []struct {
		w, h, limit  int
		wantW, wantH int
	}{
		{300, 200, 400, 300, 200},
		{800, 400, 400, 400, 200},
		{400, 1000, 400, 160, 400},
		{1000, 1000, 0, 1000, 1000},
		{5000, 1, 400, 400, 1},
	}
	for _, tt := range tests {
		w, h := FitSize(tt.w, tt.h, tt.limit)
		assert.Equal(t, [2]int{tt.wantW, tt.wantH}, [2]int{w, h}, "FitSize(%d,%d,%d)", tt.w, tt.h, tt.limit)
	}
}

func TestFitAndResize(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 80, 40))
	fitted := Fit(img, 20)
	assert.Equal(t, image.Rect(0, 0, 20, 10), fitted.Rect)

	assert.Same(t, img, Fit(img, 100), "images inside the bound are not copied")
	assert.Equal(t, image.Rect(0, 0, 7, 9), Resize(img, 7, 9).Rect)
}

func TestNameVariants(t *testing.T) {
	assert.Equal(t, []string{"new-moon", "new_moon", "newmoon"}, NameVariants("new-moon"))
	assert.Equal(t, []string{"dark"}, NameVariants("dark"))
	assert.Equal(t, []string{"a-b-c", "a_b_c", "abc"}, NameVariants("a-b-c"))
}

func TestCandidates_Priority(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"new_moon.webp", "new-moon.png", "newmoon.bmp", "new-moon-hires.jpg", "new-moon.jpg"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "new-moon.d"), 0o755))

	got := Candidates(dir, "new-moon")
	want := []string{
		filepath.Join(dir, "new-moon.png"),
		filepath.Join(dir, "new-moon.jpg"),
		filepath.Join(dir, "new_moon.webp"),
		filepath.Join(dir, "newmoon.bmp"),
		filepath.Join(dir, "new-moon-hires.jpg"),
	}
	assert.Equal(t, want, got)
}

func TestLoadTexture_PrefersHyphenatedPNG(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "new-moon.png"), 4, 4, color.NRGBA{1, 1, 1, 255})
	// Decoders sniff content, so a PNG payload under .webp still loads.
	writePNG(t, filepath.Join(dir, "new_moon.webp"), 4, 4, color.NRGBA{2, 2, 2, 255})

	img, path, err := LoadTexture(dir, "new-moon", 4, 4)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new-moon.png"), path)
	assert.Equal(t, color.NRGBA{1, 1, 1, 255}, img.NRGBAAt(0, 0))
}

func TestLoadTexture_SkipsUndecodable(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new-moon.png"), []byte("garbage"), 0o644))
	writePNG(t, filepath.Join(dir, "new_moon.webp"), 2, 2, color.NRGBA{9, 9, 9, 255})

	img, path, err := LoadTexture(dir, "new-moon", 6, 3)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new_moon.webp"), path)
	assert.Equal(t, image.Rect(0, 0, 6, 3), img.Rect)
}

func TestLoadTexture_GlobFallback(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "new-moon-dark.jpg"), 3, 3, color.NRGBA{5, 5, 5, 255})

	_, path, err := LoadTexture(dir, "new-moon", 3, 3)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "new-moon-dark.jpg"), path)
}

func TestLoadTexture_NotFound(t *testing.T) {
	_, _, err := LoadTexture(t.TempDir(), "new-moon", 4, 4)
	assert.ErrorIs(t, err, ErrNotFound)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "new-moon.png"), []byte("garbage"), 0o644))
	_, _, err = LoadTexture(dir, "new-moon", 4, 4)
	assert.ErrorIs(t, err, ErrNotFound)
}
