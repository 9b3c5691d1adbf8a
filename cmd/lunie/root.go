package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/litescript/lunie/internal/config"
	"github.com/litescript/lunie/internal/logging"
	"github.com/litescript/lunie/internal/session"
)

var rootCmd = &cobra.Command{
	Use:   "lunie",
	Short: "Moon phase viewer for the terminal",
	Long: `lunie shades a moon image to match the illuminated fraction recorded
for a date in a daily phase dataset and shows it in the terminal. Without a
subcommand it starts the interactive viewer.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runViewer,
}

// flagKeys maps persistent flags onto config keys.
var flagKeys = map[string]string{
	"date":       "date",
	"hemisphere": "hemisphere",
	"shade-face": "shade_face",
	"softness":   "softness",
	"oversample": "oversample",
	"dataset":    "dataset",
	"db":         "db",
	"assets":     "assets_dir",
	"log-level":  "log_level",
	"log-file":   "log_file",
}

func Execute() {
	ctx, cancel := setupSignalContext()
	err := rootCmd.ExecuteContext(ctx)
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	f := rootCmd.PersistentFlags()
	f.String("config", "", "config file (default .lunie.toml)")
	f.StringP("date", "d", "", "date to show: MM/DD/YYYY, YYYY-MM-DD, today, +N or -N days")
	f.String("hemisphere", "", "observer hemisphere: north or south")
	f.Bool("shade-face", false, "shade the face overlay as well")
	f.Float64("softness", 0, "terminator blur radius in pixels")
	f.Int("oversample", 0, "mask supersampling factor")
	f.String("dataset", "", "phase dataset CSV")
	f.String("db", "", "SQLite phase database (imported from the CSV)")
	f.String("assets", "", "directory holding images and music")
	f.String("log-level", "", "log level (debug, info, warn, error)")
	f.String("log-file", "", "write viewer logs to this file")
	f.Bool("no-music", false, "disable background music")

	for flag, key := range flagKeys {
		_ = viper.BindPFlag(key, f.Lookup(flag))
	}
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	config.Setup(viper.GetViper(), cfgFile)
}

// loadConfig resolves flags, environment, config file and defaults.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return config.Config{}, err
	}
	if noMusic, _ := cmd.Flags().GetBool("no-music"); noMusic {
		cfg.Music = false
	}
	return cfg, nil
}

// newLogger logs to stderr, or for the full-screen viewer to the log file
// (or nowhere) so the alternate screen stays clean.
func newLogger(cfg config.Config, fullscreen bool) (*logging.Logger, func(), error) {
	log := logging.New(cfg.Level())
	if !fullscreen {
		return log, func() { _ = log.Sync() }, nil
	}
	if cfg.LogFile == "" {
		log.SetOutput(io.Discard)
		return log, func() {}, nil
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	log.SetOutput(f)
	return log, func() {
		_ = log.Sync()
		f.Close()
	}, nil
}

// openSession loads config, logging and the session for a headless
// command.
func openSession(cmd *cobra.Command) (*session.Session, *logging.Logger, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	log, closeLog, err := newLogger(cfg, false)
	if err != nil {
		return nil, nil, nil, err
	}
	sess, err := session.Open(cmd.Context(), cfg, log)
	if err != nil {
		closeLog()
		return nil, nil, nil, err
	}
	return sess, log, func() {
		sess.Close()
		closeLog()
	}, nil
}

// setupSignalContext returns a context that is canceled on SIGINT or SIGTERM.
func setupSignalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}
