package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litescript/lunie/internal/logging"
	"github.com/litescript/lunie/internal/phase"
)

// isolated returns a viper bound to a config file under a fresh temp dir,
// so the user's own ~/.lunie.toml never leaks into a test.
func isolated(t *testing.T, content string) *viper.Viper {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if content != "" {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	v := viper.New()
	Setup(v, path)
	return v
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(isolated(t, ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"Dataset", cfg.Dataset, "moongiant_moon_daily.csv"},
		{"Softness", cfg.Softness, 0.9},
		{"Oversample", cfg.Oversample, 2},
		{"MoonImage", cfg.MoonImage, "moon.png"},
		{"TextureName", cfg.TextureName, "new-moon"},
		{"MaxSize", cfg.MaxSize, 400},
		{"Music", cfg.Music, true},
		{"ShadeFace", cfg.ShadeFace, false},
		{"Hemisphere", cfg.Hemisphere, "north"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("LUNIE_SOFTNESS", "1.5")
	t.Setenv("LUNIE_OVERSAMPLE", "4")
	t.Setenv("LUNIE_HEMISPHERE", "Southern")
	t.Setenv("LUNIE_MUSIC", "false")

	cfg, err := Load(isolated(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 1.5, cfg.Softness)
	assert.Equal(t, 4, cfg.Oversample)
	assert.Equal(t, "south", cfg.Hemisphere)
	assert.Equal(t, phase.South, cfg.HemisphereValue())
	assert.False(t, cfg.Music)
}

func TestLoad_File(t *testing.T) {
	v := isolated(t, `
dataset = "/data/moon.csv"
shade_face = true
oversample = 0
softness = -2
assets_dir = "/assets"
log_level = "DEBUG"
`)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, "/data/moon.csv", cfg.Dataset)
	assert.True(t, cfg.ShadeFace)
	assert.Equal(t, 1, cfg.Oversample, "oversample clamps to 1")
	assert.Equal(t, 0.0, cfg.Softness, "softness clamps to 0")
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, logging.LevelDebug, cfg.Level())

	assert.Equal(t, "/assets", cfg.Assets().Dir)
	assert.True(t, cfg.Options().ShadeFace)
	assert.Equal(t, "/data/moon.csv", cfg.DatasetPath())
}

func TestLoad_BadFile(t *testing.T) {
	_, err := Load(isolated(t, "softness = = 3"))
	assert.Error(t, err)
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, WriteDefault(path, false))

	err := WriteDefault(path, false)
	assert.ErrorIs(t, err, ErrExists)
	require.NoError(t, WriteDefault(path, true))

	v := viper.New()
	Setup(v, path)
	cfg, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDatasetPath(t *testing.T) {
	dir := t.TempDir()
	c := Default()
	c.AssetsDir = dir
	assert.Equal(t, filepath.Join(dir, c.Dataset), c.DatasetPath())

	c.AssetsDir = ""
	assert.Equal(t, c.Dataset, c.DatasetPath())
}
