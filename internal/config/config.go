// Package config resolves lunie's settings from flags, LUNIE_* environment
// variables, a .lunie.toml file and built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"github.com/litescript/lunie/internal/logging"
	"github.com/litescript/lunie/internal/phase"
	"github.com/litescript/lunie/internal/scene"
	"github.com/litescript/lunie/internal/shade"
)

const (
	// EnvPrefix namespaces environment overrides (LUNIE_SOFTNESS, ...).
	EnvPrefix = "LUNIE"

	// FileName is the config file looked up in the working directory,
	// then the home directory.
	FileName = ".lunie.toml"
)

// ErrExists is returned by WriteDefault when the file is already present.
var ErrExists = errors.New("config: file already exists")

// Config holds all runtime settings.
type Config struct {
	Dataset    string  `mapstructure:"dataset" toml:"dataset"`
	DB         string  `mapstructure:"db" toml:"db"`
	Date       string  `mapstructure:"date" toml:"date"`
	Hemisphere string  `mapstructure:"hemisphere" toml:"hemisphere"`
	ShadeFace  bool    `mapstructure:"shade_face" toml:"shade_face"`
	Softness   float64 `mapstructure:"softness" toml:"softness"`
	Oversample int     `mapstructure:"oversample" toml:"oversample"`

	AssetsDir       string `mapstructure:"assets_dir" toml:"assets_dir"`
	MoonImage       string `mapstructure:"moon_image" toml:"moon_image"`
	FaceImage       string `mapstructure:"face_image" toml:"face_image"`
	FaceClosedImage string `mapstructure:"face_closed_image" toml:"face_closed_image"`
	TextureName     string `mapstructure:"texture_name" toml:"texture_name"`
	MaxSize         int    `mapstructure:"max_size" toml:"max_size"`

	Music     bool   `mapstructure:"music" toml:"music"`
	MusicName string `mapstructure:"music_name" toml:"music_name"`
	Watch     bool   `mapstructure:"watch" toml:"watch"`

	LogLevel string `mapstructure:"log_level" toml:"log_level"`
	LogFile  string `mapstructure:"log_file" toml:"log_file"`
}

// Default returns the built-in settings.
func Default() Config {
	a := scene.DefaultAssets()
	return Config{
		Dataset:         "moongiant_moon_daily.csv",
		Hemisphere:      phase.North.String(),
		Softness:        shade.DefaultSoftness,
		Oversample:      shade.DefaultOversample,
		AssetsDir:       a.Dir,
		MoonImage:       a.MoonImage,
		FaceImage:       a.FaceImage,
		FaceClosedImage: a.FaceClosedImage,
		TextureName:     a.TextureName,
		MaxSize:         a.MaxSize,
		Music:           true,
		MusicName:       "break_in_roblox_night_theme",
		Watch:           true,
		LogLevel:        "info",
	}
}

// SetDefaults registers every key's default on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("dataset", d.Dataset)
	v.SetDefault("db", d.DB)
	v.SetDefault("date", d.Date)
	v.SetDefault("hemisphere", d.Hemisphere)
	v.SetDefault("shade_face", d.ShadeFace)
	v.SetDefault("softness", d.Softness)
	v.SetDefault("oversample", d.Oversample)
	v.SetDefault("assets_dir", d.AssetsDir)
	v.SetDefault("moon_image", d.MoonImage)
	v.SetDefault("face_image", d.FaceImage)
	v.SetDefault("face_closed_image", d.FaceClosedImage)
	v.SetDefault("texture_name", d.TextureName)
	v.SetDefault("max_size", d.MaxSize)
	v.SetDefault("music", d.Music)
	v.SetDefault("music_name", d.MusicName)
	v.SetDefault("watch", d.Watch)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
}

// Setup points v at the config file (explicit path, or .lunie.toml in the
// working and home directories) and the LUNIE_* environment.
func Setup(v *viper.Viper, file string) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(strings.TrimSuffix(FileName, ".toml"))
		v.SetConfigType("toml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
}

// Load reads the config file if there is one and unmarshals v into a
// validated Config. A missing file is not an error; an unreadable one is.
func Load(v *viper.Viper) (Config, error) {
	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Validate()
	return cfg, nil
}

// Validate clamps numeric settings into range and normalizes names.
func (c *Config) Validate() {
	if c.Oversample < 1 {
		c.Oversample = 1
	}
	if c.Softness < 0 {
		c.Softness = 0
	}
	if c.MaxSize < 0 {
		c.MaxSize = 0
	}
	c.Hemisphere = phase.ParseHemisphere(c.Hemisphere).String()
	c.LogLevel = strings.ToLower(logging.ParseLevel(c.LogLevel).String())
}

// HemisphereValue returns the parsed hemisphere.
func (c Config) HemisphereValue() phase.Hemisphere {
	return phase.ParseHemisphere(c.Hemisphere)
}

// Level returns the parsed log level.
func (c Config) Level() logging.Level {
	return logging.ParseLevel(c.LogLevel)
}

// Assets returns the scene asset configuration.
func (c Config) Assets() scene.Assets {
	return scene.Assets{
		Dir:             c.AssetsDir,
		MoonImage:       c.MoonImage,
		FaceImage:       c.FaceImage,
		FaceClosedImage: c.FaceClosedImage,
		TextureName:     c.TextureName,
		MaxSize:         c.MaxSize,
	}
}

// Options returns the render options.
func (c Config) Options() scene.Options {
	return scene.Options{
		Hemisphere: c.HemisphereValue(),
		ShadeFace:  c.ShadeFace,
		Softness:   c.Softness,
		Oversample: c.Oversample,
	}
}

// DatasetPath resolves the dataset relative to the assets directory when
// it is not absolute and not found as given.
func (c Config) DatasetPath() string {
	if filepath.IsAbs(c.Dataset) {
		return c.Dataset
	}
	if _, err := os.Stat(c.Dataset); err == nil || c.AssetsDir == "" {
		return c.Dataset
	}
	return filepath.Join(c.AssetsDir, c.Dataset)
}

// Marshal renders c as TOML.
func (c Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

// WriteDefault writes the default config to path. An existing file is
// only replaced when force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	data, err := Default().Marshal()
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	header := []byte("# lunie configuration\n\n")
	return os.WriteFile(path, append(header, data...), 0o644)
}
