package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/integrations"
	"github.com/kerbaras/mangasync/pkg/services"
	"github.com/kerbaras/mangasync/pkg/sources"
)

const EnvPrefix = "MANGASYNC"

// Config is the resolved configuration of the CLI.
type Config struct {
	Capacity    int
	AutoSync    bool
	Services    []data.ServiceKey
	Concurrency int

	StoreDriver string
	// StorePath is a file path for duckdb and sqlite3 and a DSN for pgx.
	StorePath string

	MangaDexURL      string
	MangaDexToken    string
	MangaDexLanguage string
	AniListURL       string
	AniListToken     string

	HTTPRate    float64
	HTTPTimeout time.Duration

	LogLevel      string
	LogFile       string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int

	MetricsTextfile string
}

// Dir is the directory holding the config file and the default database.
func Dir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mangasync"
	}
	return filepath.Join(home, ".mangasync")
}

func SetDefaults(v *viper.Viper) {
	v.SetDefault("chapters.saved", data.DefaultChaptersSaved)
	v.SetDefault("sync.auto", false)
	v.SetDefault("sync.services", []string{})
	v.SetDefault("sync.concurrency", 0)
	v.SetDefault("store.driver", data.DriverDuckDB)
	v.SetDefault("store.path", filepath.Join(Dir(), "titles.db"))
	v.SetDefault("mangadex.url", sources.MangaDexURL)
	v.SetDefault("mangadex.token", "")
	v.SetDefault("mangadex.language", "en")
	v.SetDefault("anilist.url", integrations.AniListURL)
	v.SetDefault("anilist.token", "")
	v.SetDefault("http.rate", 2.0)
	v.SetDefault("http.timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("metrics.textfile", "")
}

// New returns a viper instance reading cfgFile (or config.yaml in Dir) and
// MANGASYNC_* environment variables. A .env file in the working directory is
// loaded first and never overrides variables already set. A missing config
// file is not an error.
func New(cfgFile string) (*viper.Viper, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(Dir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load resolves and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Capacity:         v.GetInt("chapters.saved"),
		AutoSync:         v.GetBool("sync.auto"),
		Concurrency:      v.GetInt("sync.concurrency"),
		StoreDriver:      v.GetString("store.driver"),
		StorePath:        v.GetString("store.path"),
		MangaDexURL:      v.GetString("mangadex.url"),
		MangaDexToken:    v.GetString("mangadex.token"),
		MangaDexLanguage: v.GetString("mangadex.language"),
		AniListURL:       v.GetString("anilist.url"),
		AniListToken:     v.GetString("anilist.token"),
		HTTPRate:         v.GetFloat64("http.rate"),
		HTTPTimeout:      v.GetDuration("http.timeout"),
		LogLevel:         v.GetString("log.level"),
		LogFile:          v.GetString("log.file"),
		LogMaxSize:       v.GetInt("log.max_size"),
		LogMaxBackups:    v.GetInt("log.max_backups"),
		LogMaxAge:        v.GetInt("log.max_age"),
		MetricsTextfile:  v.GetString("metrics.textfile"),
	}

	for _, s := range v.GetStringSlice("sync.services") {
		key := data.ServiceKey(strings.TrimSpace(s))
		if key == "" {
			continue
		}
		cfg.Services = append(cfg.Services, key)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("chapters.saved must be positive, got %d", c.Capacity)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("sync.concurrency must not be negative, got %d", c.Concurrency)
	}
	switch c.StoreDriver {
	case data.DriverDuckDB, data.DriverSQLite, data.DriverPostgres:
	default:
		return fmt.Errorf("unknown store.driver %q", c.StoreDriver)
	}
	if c.StorePath == "" {
		return errors.New("store.path is empty")
	}
	seen := make(map[data.ServiceKey]bool, len(c.Services))
	for _, s := range c.Services {
		if seen[s] {
			return fmt.Errorf("sync.services lists %s twice", s)
		}
		seen[s] = true
	}
	return nil
}

// Options is the sync configuration handed to the controller.
func (c *Config) Options() services.Options {
	return services.Options{
		Capacity:    c.Capacity,
		AutoSync:    c.AutoSync,
		Priority:    c.Services,
		Concurrency: c.Concurrency,
	}
}
