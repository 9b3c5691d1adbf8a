// Package music plays the looping background track.
package music

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/speaker"
	"github.com/gopxl/beep/vorbis"
	"github.com/gopxl/beep/wav"
)

// DefaultVolume is the playback gain, 0..1.
const DefaultVolume = 0.5

// Extensions are tried in order when resolving a track name.
var Extensions = []string{".mp3", ".wav", ".ogg"}

// ErrNotFound is returned when no track file exists for a name.
var ErrNotFound = errors.New("music: track not found")

// Find returns the first existing <name><ext> in dir.
func Find(dir, name string) (string, error) {
	var tried []string
	for _, ext := range Extensions {
		p := filepath.Join(dir, name+ext)
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			return p, nil
		}
		tried = append(tried, filepath.Base(p))
	}
	return "", fmt.Errorf("%w: %s in %s", ErrNotFound, strings.Join(tried, ", "), dir)
}

// Player loops one track on the default audio device.
type Player struct {
	mu     sync.Mutex
	path   string
	stream beep.StreamSeekCloser
	ctrl   *beep.Ctrl
}

// Start decodes path and plays it on an endless loop at volume (0..1).
func Start(path string, volume float64) (*Player, error) {
	stream, format, err := decode(path)
	if err != nil {
		return nil, err
	}

	if err := speaker.Init(format.SampleRate, format.SampleRate.N(time.Second/10)); err != nil {
		stream.Close()
		return nil, fmt.Errorf("audio init: %w", err)
	}

	loop := beep.Loop(-1, stream)
	ctrl := &beep.Ctrl{Streamer: newVolume(loop, volume)}
	speaker.Play(ctrl)

	return &Player{path: path, stream: stream, ctrl: ctrl}, nil
}

// Path returns the file being played.
func (p *Player) Path() string {
	return p.path
}

// SetPaused pauses or resumes playback.
func (p *Player) SetPaused(paused bool) {
	speaker.Lock()
	p.ctrl.Paused = paused
	speaker.Unlock()
}

// Paused reports whether playback is paused.
func (p *Player) Paused() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return p.ctrl.Paused
}

// Stop halts playback and releases the audio device.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stream == nil {
		return
	}
	speaker.Clear()
	speaker.Close()
	p.stream.Close()
	p.stream = nil
}

func decode(path string) (beep.StreamSeekCloser, beep.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, err := os.Open(path)
	if err != nil {
		return nil, beep.Format{}, err
	}

	var (
		s      beep.StreamSeekCloser
		format beep.Format
	)
	switch ext {
	case ".mp3":
		s, format, err = mp3.Decode(f)
	case ".wav":
		s, format, err = wav.Decode(f)
	case ".ogg":
		s, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("unsupported audio format %q", ext)
	}
	if err != nil {
		f.Close()
		return nil, beep.Format{}, fmt.Errorf("decode %s: %w", path, err)
	}
	return s, format, nil
}

// newVolume scales s by gain vol; zero or less is silent.
func newVolume(s beep.Streamer, vol float64) *effects.Volume {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
