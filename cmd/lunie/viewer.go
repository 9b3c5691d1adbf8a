package main

import (
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/litescript/lunie/internal/config"
	"github.com/litescript/lunie/internal/logging"
	"github.com/litescript/lunie/internal/music"
	"github.com/litescript/lunie/internal/session"
	"github.com/litescript/lunie/internal/ui"
	"github.com/litescript/lunie/internal/watch"
)

// runViewer starts the interactive full-screen viewer.
func runViewer(cmd *cobra.Command, _ []string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("the viewer needs a terminal; use 'lunie ansi' or 'lunie render' instead")
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	log, closeLog, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx := cmd.Context()
	sess, err := session.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer sess.Close()

	var player ui.Music
	if cfg.Music {
		if p := startMusic(cfg, log); p != nil {
			defer p.Stop()
			player = p
		}
	}

	p := tea.NewProgram(ui.New(ctx, sess, player), tea.WithAltScreen(), tea.WithContext(ctx))

	if cfg.Watch {
		if w := startWatcher(sess, log); w != nil {
			defer w.Stop()
			go func() {
				for c := range w.Changes {
					log.Info("Changed: %s", c.Path)
					p.Send(ui.ChangeMsg{Path: c.Path, Removed: c.Removed})
				}
			}()
		}
	}

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run viewer: %w", err)
	}
	return nil
}

// startMusic plays the configured track. A missing track or audio device
// only disables music.
func startMusic(cfg config.Config, log *logging.Logger) *music.Player {
	path, err := music.Find(cfg.AssetsDir, cfg.MusicName)
	if err != nil {
		log.Info("No background music: %v", err)
		return nil
	}
	p, err := music.Start(path, music.DefaultVolume)
	if err != nil {
		log.Warn("Background music disabled: %v", err)
		return nil
	}
	log.Info("Playing %s", path)
	return p
}

func startWatcher(sess *session.Session, log *logging.Logger) *watch.Watcher {
	w, err := watch.New(sess.WatchConfig())
	if err != nil {
		log.Warn("File watching disabled: %v", err)
		return nil
	}
	if err := w.Start(); err != nil {
		log.Warn("File watching disabled: %v", err)
		return nil
	}
	log.Debug("Watching %v", w.Dirs())
	return w
}
