// Package config loads the service configuration from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/mcdev12/champdraft/go/internal/models"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStatsFile    = "wins.json"
	DefaultDevStatsFile = "wins_dev.json"
	DefaultSQLitePath   = "stats.db"
	DefaultLocale       = "ko_KR"
	DefaultCatalogURL   = "https://ddragon.leagueoflegends.com"
	DefaultPort         = "8080"
	DefaultNATSURL      = "nats://127.0.0.1:4222"
	DefaultStream       = "DRAFT_EVENTS"
)

type DraftConfig struct {
	PickTimeoutSec int  `yaml:"pick_timeout_sec" env:"PICK_TIMEOUT_SEC"`
	ChampionCount  int  `yaml:"champion_count" env:"CHAMPION_COUNT"`
	TeamSize       int  `yaml:"team_size" env:"TEAM_SIZE"`
	Fearless       bool `yaml:"fearless" env:"FEARLESS"`
}

type StatsConfig struct {
	Backend    string `yaml:"backend" env:"STATS_BACKEND"`
	File       string `yaml:"file" env:"STATS_FILE"`
	SQLitePath string `yaml:"sqlite_path" env:"STATS_SQLITE_PATH"`
}

type CatalogConfig struct {
	Locale     string `yaml:"locale" env:"CATALOG_LOCALE"`
	BaseURL    string `yaml:"base_url" env:"CATALOG_BASE_URL"`
	TimeoutSec int    `yaml:"timeout_sec" env:"CATALOG_TIMEOUT_SEC"`
}

type ServerConfig struct {
	Port string `yaml:"port" env:"PORT"`
}

type NATSConfig struct {
	Enabled bool   `yaml:"enabled" env:"NATS_ENABLED"`
	URL     string `yaml:"url" env:"NATS_URL"`
	Stream  string `yaml:"stream" env:"NATS_STREAM"`
}

// Candidate is one statically configured participant.
type Candidate struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// RuntimeConfig holds the top-level switches.
type RuntimeConfig struct {
	DevMode  bool   `yaml:"dev_mode" env:"DEV_MODE"`
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// Config is the full service configuration.
type Config struct {
	RuntimeConfig `yaml:",inline"`

	Draft      DraftConfig   `yaml:"draft"`
	Stats      StatsConfig   `yaml:"stats"`
	Catalog    CatalogConfig `yaml:"catalog"`
	Server     ServerConfig  `yaml:"server"`
	NATS       NATSConfig    `yaml:"nats"`
	Candidates []Candidate   `yaml:"candidates"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		RuntimeConfig: RuntimeConfig{LogLevel: "info"},
		Draft: DraftConfig{
			PickTimeoutSec: int(models.DefaultPickTimeout / time.Second),
			ChampionCount:  models.DefaultChampionCount,
			TeamSize:       models.DefaultTeamSize,
		},
		Stats:   StatsConfig{Backend: "file", SQLitePath: DefaultSQLitePath},
		Catalog: CatalogConfig{Locale: DefaultLocale, BaseURL: DefaultCatalogURL, TimeoutSec: 10},
		Server:  ServerConfig{Port: DefaultPort},
		NATS:    NATSConfig{URL: DefaultNATSURL, Stream: DefaultStream},
	}
}

// Load reads the YAML file at path, then applies environment overrides.
// A missing file is not an error; defaults are used instead.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Warn().Str("path", path).Msg("config file not found, using defaults")
		case err != nil:
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	// candidates only come from the file
	for _, section := range []any{&cfg.RuntimeConfig, &cfg.Draft, &cfg.Stats, &cfg.Catalog, &cfg.Server, &cfg.NATS} {
		if err := ParseEnv(section); err != nil {
			return Config{}, err
		}
	}
	cfg.normalize()
	return cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadDotEnv loads .env files into the process environment when present.
func LoadDotEnv(paths ...string) {
	if err := godotenv.Load(paths...); err != nil {
		log.Debug().Err(err).Msg("no .env file loaded")
	}
}

func (c *Config) normalize() {
	def := Default()
	if c.Draft.PickTimeoutSec <= 0 {
		c.Draft.PickTimeoutSec = def.Draft.PickTimeoutSec
	}
	if c.Draft.ChampionCount <= 0 {
		c.Draft.ChampionCount = def.Draft.ChampionCount
	}
	if c.Draft.TeamSize <= 0 {
		c.Draft.TeamSize = def.Draft.TeamSize
	}
	c.Stats.Backend = strings.ToLower(strings.TrimSpace(c.Stats.Backend))
	if c.Stats.Backend == "" {
		c.Stats.Backend = def.Stats.Backend
	}
	if c.Stats.File == "" {
		c.Stats.File = DefaultStatsFile
		if c.DevMode {
			c.Stats.File = DefaultDevStatsFile
		}
	}
	if c.Stats.SQLitePath == "" {
		c.Stats.SQLitePath = def.Stats.SQLitePath
	}
	if c.Catalog.Locale == "" {
		c.Catalog.Locale = def.Catalog.Locale
	}
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = def.Catalog.BaseURL
	}
	if c.Catalog.TimeoutSec <= 0 {
		c.Catalog.TimeoutSec = def.Catalog.TimeoutSec
	}
	if c.Server.Port == "" {
		c.Server.Port = def.Server.Port
	}
	if c.NATS.URL == "" {
		c.NATS.URL = def.NATS.URL
	}
	if c.NATS.Stream == "" {
		c.NATS.Stream = def.NATS.Stream
	}
}

// DraftSettings converts the draft section to session settings.
func (c Config) DraftSettings() models.DraftSettings {
	return models.DraftSettings{
		PickTimeout:   time.Duration(c.Draft.PickTimeoutSec) * time.Second,
		ChampionCount: c.Draft.ChampionCount,
		TeamSize:      c.Draft.TeamSize,
		Fearless:      c.Draft.Fearless,
	}.WithDefaults()
}

// Participants returns the statically configured candidates.
func (c Config) Participants() []models.Participant {
	out := make([]models.Participant, 0, len(c.Candidates))
	for _, cand := range c.Candidates {
		out = append(out, models.Participant{ID: cand.ID, Name: cand.Name})
	}
	return out
}

// Level parses the log level, falling back to info.
func (c Config) Level() zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
