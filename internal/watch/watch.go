// Package watch reports debounced changes to the dataset and image assets.
package watch

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a file must be quiet before its change is
// reported.
const DefaultDebounce = 150 * time.Millisecond

// Change is one debounced file change.
type Change struct {
	Path    string
	Removed bool
}

// Config selects the files to follow. Files are matched exactly; Prefixes
// match any file whose path starts with the prefix (texture variants).
type Config struct {
	Files    []string
	Prefixes []string
	Debounce time.Duration
}

// Watcher follows the parent directories of the configured files so that
// editors which replace files on save are still seen.
type Watcher struct {
	Changes <-chan Change

	changes  chan Change
	done     chan struct{}
	watcher  *fsnotify.Watcher
	files    map[string]bool
	prefixes []string
	dirs     []string
	debounce time.Duration
}

// New creates a watcher for cfg. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounce := cfg.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	ch := make(chan Change, 16)
	w := &Watcher{
		Changes:  ch,
		changes:  ch,
		done:     make(chan struct{}),
		watcher:  fw,
		files:    make(map[string]bool),
		debounce: debounce,
	}

	seen := make(map[string]bool)
	addDir := func(p string) {
		d := filepath.Dir(p)
		if !seen[d] {
			seen[d] = true
			w.dirs = append(w.dirs, d)
		}
	}
	for _, f := range cfg.Files {
		p := clean(f)
		w.files[p] = true
		addDir(p)
	}
	for _, pre := range cfg.Prefixes {
		p := clean(pre)
		w.prefixes = append(w.prefixes, p)
		addDir(p)
	}
	return w, nil
}

// Dirs returns the directories being watched.
func (w *Watcher) Dirs() []string {
	return w.dirs
}

// Start begins watching. Directories that do not exist are an error.
func (w *Watcher) Start() error {
	for _, d := range w.dirs {
		if err := w.watcher.Add(d); err != nil {
			w.watcher.Close()
			close(w.done)
			return err
		}
	}
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. Pending changes are
// dropped.
func (w *Watcher) Stop() {
	w.watcher.Close()
	<-w.done
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	type pendingChange struct {
		at      time.Time
		removed bool
	}
	pending := make(map[string]pendingChange)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			name := clean(event.Name)
			if !w.matches(name) {
				continue
			}
			switch {
			case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
				pending[name] = pendingChange{at: time.Now(), removed: true}
			case event.Has(fsnotify.Write) || event.Has(fsnotify.Create):
				pending[name] = pendingChange{at: time.Now()}
			}

		case <-ticker.C:
			now := time.Now()
			for name, p := range pending {
				if now.Sub(p.at) >= w.debounce {
					w.emit(Change{Path: name, Removed: p.removed})
					delete(pending, name)
				}
			}

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal.
		}
	}
}

// emit never blocks; a full buffer already holds a pending reload.
func (w *Watcher) emit(c Change) {
	select {
	case w.changes <- c:
	default:
	}
}

func (w *Watcher) matches(name string) bool {
	if w.files[name] {
		return true
	}
	for _, p := range w.prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

func clean(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return filepath.Clean(p)
}
