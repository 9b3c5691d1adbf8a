// Package scene assembles the moon layers and renders shaded frames for a
// phase record.
package scene

import (
	"errors"
	"image"
	"path/filepath"
	"sync"

	"github.com/litescript/lunie/internal/asset"
	"github.com/litescript/lunie/internal/disc"
	"github.com/litescript/lunie/internal/logging"
	"github.com/litescript/lunie/internal/phase"
	"github.com/litescript/lunie/internal/shade"
)

// Reasons reported on unshaded frames.
const (
	ReasonNoMoon         = "moon image unavailable"
	ReasonNoRecord       = "no phase data"
	ReasonNoIllumination = "record has no illumination value"
	ReasonCompositeError = "composite failed"
)

// Assets names the image files that make up the scene.
type Assets struct {
	Dir             string
	MoonImage       string
	FaceImage       string
	FaceClosedImage string
	TextureName     string
	MaxSize         int
}

// DefaultAssets returns the stock asset names in the working directory.
func DefaultAssets() Assets {
	return Assets{
		Dir:             ".",
		MoonImage:       "moon.png",
		FaceImage:       "moon-face.png",
		FaceClosedImage: "moon-face-closed.png",
		TextureName:     "new-moon",
		MaxSize:         400,
	}
}

// Options are the per-render shading controls.
type Options struct {
	Hemisphere phase.Hemisphere
	ShadeFace  bool
	Softness   float64
	Oversample int
}

// DefaultOptions returns northern-hemisphere moon-only shading with the default
// feather and supersampling.
func DefaultOptions() Options {
	return Options{
		Hemisphere: phase.North,
		ShadeFace:  false,
		Softness:   shade.DefaultSoftness,
		Oversample: shade.DefaultOversample,
	}
}

// Layer is a loaded image with its measured disc.
type Layer struct {
	Path     string
	Image    *image.NRGBA
	Geometry disc.Geometry
}

func newLayer(path string, img *image.NRGBA) *Layer {
	return &Layer{Path: path, Image: img, Geometry: disc.Measure(img)}
}

// Frame is one rendered state of the scene. When Shaded is false the
// images are the unshaded originals and Reason says why.
type Frame struct {
	Moon       *image.NRGBA
	Face       *image.NRGBA
	FaceClosed *image.NRGBA
	Record     phase.Record
	HasRecord  bool
	K          float64
	Waxing     bool
	Shaded     bool
	Reason     string
}

// Scene holds the loaded layers. Geometry and the resized dark texture are
// computed on load and reused for every render until Reload.
type Scene struct {
	mu     sync.RWMutex
	assets Assets
	log    *logging.Logger

	moon       *Layer
	face       *Layer
	faceClosed *Layer

	texture     *image.NRGBA
	texturePath string
}

// New loads every layer in a. Missing or undecodable layers are logged
// and left empty; New never fails.
func New(a Assets, log *logging.Logger) *Scene {
	if log == nil {
		log = logging.Discard()
	}
	s := &Scene{assets: a, log: log}
	s.Reload()
	return s
}

// Reload re-reads all layers from disk and recomputes cached geometry.
func (s *Scene) Reload() {
	a := s.Assets()

	moon := s.loadLayer(a.MoonImage)
	face := s.loadLayer(a.FaceImage)
	closed := s.loadLayer(a.FaceClosedImage)

	var tex *image.NRGBA
	var texPath string
	if moon != nil && a.TextureName != "" {
		b := moon.Image.Rect
		img, p, err := asset.LoadTexture(a.Dir, a.TextureName, b.Dx(), b.Dy())
		if err != nil {
			s.log.Info("No dark-side texture, using black: %v", err)
		} else {
			tex, texPath = img, p
			s.log.Info("Loaded dark-side texture %s", p)
		}
	}

	s.mu.Lock()
	s.moon, s.face, s.faceClosed = moon, face, closed
	s.texture, s.texturePath = tex, texPath
	s.mu.Unlock()
}

func (s *Scene) loadLayer(name string) *Layer {
	if name == "" {
		return nil
	}
	p := s.path(name)
	img, err := asset.LoadFit(p, s.assets.MaxSize)
	if err != nil {
		if errors.Is(err, asset.ErrNotFound) {
			s.log.Warn("Image not found: %s", p)
		} else {
			s.log.Warn("Failed to load image: %v", err)
		}
		return nil
	}
	l := newLayer(p, img)
	if l.Geometry.Fallback {
		s.log.Warn("No opaque pixels in %s, using %s", p, l.Geometry)
	} else {
		s.log.Debug("Measured %s: %s", p, l.Geometry)
	}
	return l
}

func (s *Scene) path(name string) string {
	if filepath.IsAbs(name) || s.assets.Dir == "" {
		return name
	}
	return filepath.Join(s.assets.Dir, name)
}

// Assets returns the asset configuration. It is fixed at construction.
func (s *Scene) Assets() Assets {
	return s.assets
}

// Paths lists the files a watcher should follow for this scene.
func (s *Scene) Paths() []string {
	a := s.Assets()
	var out []string
	for _, n := range []string{a.MoonImage, a.FaceImage, a.FaceClosedImage} {
		if n != "" {
			out = append(out, s.path(n))
		}
	}
	return out
}

// Moon returns the moon layer, or nil if it failed to load.
func (s *Scene) Moon() *Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.moon
}

// Face returns the open-eyes face layer, or nil.
func (s *Scene) Face() *Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.face
}

// FaceClosed returns the closed-eyes face layer, or nil.
func (s *Scene) FaceClosed() *Layer {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.faceClosed
}

// TexturePath returns the dark-side texture in use, or "" for black.
func (s *Scene) TexturePath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.texturePath
}

// Render shades the scene for rec. ok reports whether rec came from a
// store lookup; a false ok or a record without illumination yields an
// unshaded frame.
func (s *Scene) Render(rec phase.Record, ok bool, opts Options) Frame {
	s.mu.RLock()
	moon, face, closed := s.moon, s.face, s.faceClosed
	tex := s.texture
	s.mu.RUnlock()

	f := Frame{Record: rec, HasRecord: ok}
	if face != nil {
		f.Face = face.Image
	}
	if closed != nil {
		f.FaceClosed = closed.Image
	}

	if moon == nil {
		f.Reason = ReasonNoMoon
		return f
	}
	f.Moon = moon.Image

	if !ok {
		f.Reason = ReasonNoRecord
		s.log.Warn("No phase data, skipping shading")
		return f
	}
	k, hasK := rec.Fraction()
	if !hasK {
		f.Reason = ReasonNoIllumination
		s.log.Warn("No illumination for %s, skipping shading", phase.FormatDatasetDate(rec.Date))
		return f
	}
	f.K = k
	f.Waxing = rec.Waxing(opts.Hemisphere)

	params := shade.Params{
		K:          k,
		Waxing:     f.Waxing,
		Softness:   max(0, opts.Softness),
		Oversample: max(1, opts.Oversample),
	}

	var dark image.Image
	if tex != nil {
		dark = tex
	}
	shaded, err := shadeLayer(moon, params, dark, nil)
	if err != nil {
		f.Reason = ReasonCompositeError
		s.log.Error("Shading moon: %v", err)
		return f
	}
	f.Moon = shaded.img

	if opts.ShadeFace && face != nil {
		open, err := shadeLayer(face, params, nil, nil)
		if err != nil {
			s.log.Error("Shading face: %v", err)
		} else {
			f.Face = open.img
			if closed != nil {
				// Same-size closed eyes reuse the open face's mask.
				var reuse *image.Gray
				if closed.Image.Rect.Size() == face.Image.Rect.Size() {
					reuse = open.mask
				}
				cs, err := shadeLayer(closed, params, nil, reuse)
				if err != nil {
					s.log.Error("Shading closed face: %v", err)
				} else {
					f.FaceClosed = cs.img
				}
			}
		}
	}

	f.Shaded = true
	return f
}

type shadedLayer struct {
	img  *image.NRGBA
	mask *image.Gray
}

// shadeLayer generates a mask for l (unless one is supplied) and
// composites dark through it.
func shadeLayer(l *Layer, p shade.Params, dark image.Image, mask *image.Gray) (shadedLayer, error) {
	if mask == nil {
		b := l.Image.Rect
		mask = shade.Generate(b.Dx(), b.Dy(), p, l.Geometry)
	}
	img, err := shade.Composite(l.Image, mask, dark)
	if err != nil {
		return shadedLayer{}, err
	}
	return shadedLayer{img: img, mask: mask}, nil
}
