package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kerbaras/mangasync/pkg/data"
)

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)

	require.NoError(t, err)
	assert.Equal(t, data.DefaultChaptersSaved, cfg.Capacity)
	assert.False(t, cfg.AutoSync)
	assert.Empty(t, cfg.Services)
	assert.Equal(t, data.DriverDuckDB, cfg.StoreDriver)
	assert.Equal(t, "en", cfg.MangaDexLanguage)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, 2.0, cfg.HTTPRate)
}

func TestNewReadsFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
chapters:
  saved: 50
sync:
  auto: true
  services: [al, mal]
store:
  driver: sqlite3
  path: /tmp/titles.db
`), 0o644))
	t.Setenv("MANGASYNC_ANILIST_TOKEN", "secret")
	t.Setenv("MANGASYNC_SYNC_CONCURRENCY", "4")

	v, err := New(path)
	require.NoError(t, err)
	cfg, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 50, cfg.Capacity)
	assert.True(t, cfg.AutoSync)
	assert.Equal(t, []data.ServiceKey{data.Anilist, data.MyAnimeList}, cfg.Services)
	assert.Equal(t, data.DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "secret", cfg.AniListToken)
	assert.Equal(t, 4, cfg.Concurrency)

	opts := cfg.Options()
	assert.Equal(t, 50, opts.Capacity)
	assert.True(t, opts.AutoSync)
	assert.Equal(t, 4, opts.Concurrency)
	assert.Equal(t, cfg.Services, opts.Priority)
}

func TestNewWithoutConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	v, err := New("")

	require.NoError(t, err)
	assert.Equal(t, data.DefaultChaptersSaved, v.GetInt("chapters.saved"))
}

func TestNewRejectsBrokenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chapters: [unclosed"), 0o644))

	_, err := New(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{Capacity: 10, StoreDriver: data.DriverDuckDB, StorePath: "x.db"}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero capacity", func(c *Config) { c.Capacity = 0 }},
		{"negative concurrency", func(c *Config) { c.Concurrency = -1 }},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mysql" }},
		{"empty path", func(c *Config) { c.StorePath = "" }},
		{"duplicate service", func(c *Config) { c.Services = []data.ServiceKey{data.Anilist, data.Anilist} }},
	}

	require.NoError(t, valid().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid()
			tt.mutate(c)
			assert.Error(t, c.Validate())
		})
	}
}
