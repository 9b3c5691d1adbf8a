// Package session ties the phase dataset, the image scene and the state
// manager together. The interactive viewer and the headless commands both
// render through a Session.
package session

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/litescript/lunie/internal/asset"
	"github.com/litescript/lunie/internal/config"
	"github.com/litescript/lunie/internal/logging"
	"github.com/litescript/lunie/internal/phase"
	"github.com/litescript/lunie/internal/phasedb"
	"github.com/litescript/lunie/internal/scene"
	"github.com/litescript/lunie/internal/state"
	"github.com/litescript/lunie/internal/watch"
)

// Session is safe for concurrent use.
type Session struct {
	cfg   config.Config
	log   *logging.Logger
	state *state.Manager
	scene *scene.Scene

	mu  sync.RWMutex
	src phase.Source
	db  *phasedb.Store
}

// Open loads the dataset and assets named by cfg. A missing dataset or
// missing images are logged and leave the session unshaded; only a
// database that cannot be opened is an error.
func Open(ctx context.Context, cfg config.Config, log *logging.Logger) (*Session, error) {
	if log == nil {
		log = logging.Discard()
	}

	stateCfg := state.DefaultConfig()
	stateCfg.Options = cfg.Options()

	s := &Session{
		cfg:   cfg,
		log:   log,
		state: state.NewManager(stateCfg),
	}

	if cfg.DB != "" {
		db, err := phasedb.Open(cfg.DB)
		if err != nil {
			return nil, err
		}
		s.db = db
	}

	if err := s.ReloadDataset(ctx); err != nil {
		s.Close()
		return nil, err
	}

	s.scene = scene.New(cfg.Assets(), log)

	target, err := phase.ParseTarget(cfg.Date, time.Now())
	if err != nil {
		log.Warn("%v", err)
	}
	s.state.SetTarget(target)
	return s, nil
}

// Close releases the database, if any.
func (s *Session) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// State returns the state manager.
func (s *Session) State() *state.Manager {
	return s.state
}

// Scene returns the loaded scene.
func (s *Session) Scene() *scene.Scene {
	return s.scene
}

// Config returns the configuration the session was opened with.
func (s *Session) Config() config.Config {
	return s.cfg
}

func (s *Session) source() phase.Source {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.src
}

// ReloadDataset re-reads the CSV dataset. With a database configured the
// CSV is imported into it first (existing dates are kept) and lookups go
// to the database.
func (s *Session) ReloadDataset(ctx context.Context) error {
	path := s.cfg.DatasetPath()

	store, report, err := phase.LoadFile(path)
	if err != nil {
		s.log.Warn("Phase dataset unavailable: %v", err)
		store = phase.NewStore(nil)
	} else {
		s.log.Info("Loaded %d phase records from %s", report.Kept, path)
		if report.BadDates > 0 || report.Duplicates > 0 {
			s.log.Warn("Dropped %d rows with bad dates and %d duplicate dates", report.BadDates, report.Duplicates)
		}
		for _, e := range report.Errors {
			s.log.Debug("%s: %s", filepath.Base(path), e)
		}
	}

	if s.db == nil {
		s.setSource(store)
		s.state.Record(state.EventDatasetLoaded, fmt.Sprintf("%d records from %s", store.Len(), filepath.Base(path)))
		return nil
	}

	added, err := s.db.Import(ctx, store.Records())
	if err != nil {
		return fmt.Errorf("import dataset: %w", err)
	}
	n, err := s.db.Count(ctx)
	if err != nil {
		return err
	}
	s.log.Info("Database %s: %d records (%d new)", s.db.Path(), n, added)
	s.setSource(s.db)
	s.state.Record(state.EventDatasetLoaded, fmt.Sprintf("%d records in %s", n, filepath.Base(s.db.Path())))
	return nil
}

func (s *Session) setSource(src phase.Source) {
	s.mu.Lock()
	s.src = src
	s.mu.Unlock()
}

// ReloadAssets re-reads every image layer.
func (s *Session) ReloadAssets() {
	s.scene.Reload()
	s.state.Record(state.EventAssetsReloaded, s.cfg.AssetsDir)
}

// Lookup returns the record for the current target date.
func (s *Session) Lookup(ctx context.Context) (phase.Record, bool, error) {
	target := s.state.Target()
	rec, err := s.source().Lookup(ctx, target)
	switch {
	case err == nil:
		return rec, true, nil
	case errors.Is(err, phase.ErrNoData):
		return phase.Record{}, false, nil
	default:
		return phase.Record{}, false, err
	}
}

// Render shades the scene for the current target date and options and
// records the frame in the state manager. The frame is always usable; the
// error reports a failed lookup, not a missing record.
func (s *Session) Render(ctx context.Context) (scene.Frame, error) {
	start := time.Now()

	rec, ok, err := s.Lookup(ctx)
	if err != nil {
		s.log.Error("Phase lookup failed: %v", err)
	}
	s.state.SetRecord(rec, ok)

	f := s.scene.Render(rec, ok, s.state.Options())
	dur := time.Since(start)
	s.state.Update(f, dur, err)

	if f.Shaded {
		s.log.Debug("Rendered %s k=%.3f waxing=%t in %v", phase.FormatDatasetDate(rec.Date), f.K, f.Waxing, dur)
	}
	return f, err
}

// WatchConfig lists the dataset, the image layers and the texture name
// variants for a file watcher.
func (s *Session) WatchConfig() watch.Config {
	files := append([]string{s.cfg.DatasetPath()}, s.scene.Paths()...)

	var prefixes []string
	a := s.cfg.Assets()
	if a.TextureName != "" {
		for _, v := range asset.NameVariants(a.TextureName) {
			prefixes = append(prefixes, filepath.Join(a.Dir, v))
		}
	}
	return watch.Config{Files: files, Prefixes: prefixes}
}

// IsDataset reports whether path is the configured dataset file.
func (s *Session) IsDataset(path string) bool {
	want, err := filepath.Abs(s.cfg.DatasetPath())
	if err != nil {
		return false
	}
	got, err := filepath.Abs(path)
	return err == nil && got == want
}
