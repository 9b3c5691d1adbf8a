package ui

import (
	"image"
	"strings"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/litescript/lunie/internal/asset"
)

// Night sky gradient behind the moon, top to bottom.
var (
	SkyTop    = rgb(10, 10, 35)
	SkyBottom = rgb(15, 30, 60)
)

const halfBlock = "▀"

func rgb(r, g, b uint8) colorful.Color {
	return colorful.Color{R: float64(r) / 255, G: float64(g) / 255, B: float64(b) / 255}
}

// SkyAt returns the backdrop color for pixel row y of h.
func SkyAt(y, h int) colorful.Color {
	if h <= 1 || y <= 0 {
		return SkyTop
	}
	if y >= h-1 {
		return SkyBottom
	}
	return SkyTop.BlendRgb(SkyBottom, float64(y)/float64(h-1))
}

// over composites a non-premultiplied pixel onto bg.
func over(bg colorful.Color, r, g, b, a uint8) colorful.Color {
	switch a {
	case 0:
		return bg
	case 255:
		return rgb(r, g, b)
	}
	return bg.BlendRgb(rgb(r, g, b), float64(a)/255)
}

// FitCells returns the image size in pixels when scaled to fit cols by
// rows terminal cells. Each cell holds two vertically stacked pixels, so
// rows <= 0 lets the height follow the aspect ratio. Images are never
// upscaled.
func FitCells(w, h, cols, rows int) (int, int) {
	if w <= 0 || h <= 0 || cols <= 0 {
		return 0, 0
	}
	maxH := rows * 2
	if rows <= 0 {
		maxH = h
	}
	scale := min(1, float64(cols)/float64(w), float64(maxH)/float64(h))
	pw := max(1, int(float64(w)*scale+0.5))
	ph := max(1, int(float64(h)*scale+0.5))
	return min(pw, cols), ph
}

// HalfBlock draws img centered on the sky gradient as cols by rows cells
// of upper half blocks. rows <= 0 sizes the canvas to the image.
func HalfBlock(img image.Image, cols, rows int) string {
	if cols <= 0 {
		return ""
	}

	var src *image.NRGBA
	pw, ph := 0, 0
	if img != nil {
		b := img.Bounds()
		pw, ph = FitCells(b.Dx(), b.Dy(), cols, rows)
		if pw > 0 && ph > 0 {
			src = asset.Resize(img, pw, ph)
		}
	}
	if rows <= 0 {
		rows = max(1, (ph+1)/2)
	}

	canvasH := rows * 2
	offX := (cols - pw) / 2
	offY := (canvasH - ph) / 2

	pixel := func(x, y int) colorful.Color {
		sky := SkyAt(y, canvasH)
		if src == nil {
			return sky
		}
		ix, iy := x-offX, y-offY
		if ix < 0 || iy < 0 || ix >= pw || iy >= ph {
			return sky
		}
		i := src.PixOffset(ix, iy)
		p := src.Pix[i : i+4 : i+4]
		return over(sky, p[0], p[1], p[2], p[3])
	}

	var b strings.Builder
	for row := 0; row < rows; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		for x := 0; x < cols; x++ {
			top := pixel(x, row*2)
			bot := pixel(x, row*2+1)
			style := lipgloss.NewStyle().
				Foreground(lipgloss.Color(top.Clamped().Hex())).
				Background(lipgloss.Color(bot.Clamped().Hex()))
			b.WriteString(style.Render(halfBlock))
		}
	}
	return b.String()
}
