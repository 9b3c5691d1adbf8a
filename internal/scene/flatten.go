package scene

import (
	"image"

	xdraw "golang.org/x/image/draw"
)

// Flatten stacks the frame's face over its moon, both centered on one
// canvas large enough for either layer. closedEyes selects the closed face
// when the frame has one. It returns nil when the frame has no layers.
func (f Frame) Flatten(closedEyes bool) *image.NRGBA {
	face := f.Face
	if closedEyes && f.FaceClosed != nil {
		face = f.FaceClosed
	}

	var w, h int
	for _, l := range []*image.NRGBA{f.Moon, face} {
		if l != nil {
			w = max(w, l.Rect.Dx())
			h = max(h, l.Rect.Dy())
		}
	}
	if w == 0 || h == 0 {
		return nil
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for _, l := range []*image.NRGBA{f.Moon, face} {
		if l == nil {
			continue
		}
		off := image.Pt((w-l.Rect.Dx())/2, (h-l.Rect.Dy())/2)
		xdraw.Draw(out, l.Rect.Add(off), l, l.Rect.Min, xdraw.Over)
	}
	return out
}
