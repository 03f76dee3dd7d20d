package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	settings := cfg.DraftSettings()
	assert.Equal(t, 15*time.Second, settings.PickTimeout)
	assert.Equal(t, 8, settings.ChampionCount)
	assert.Equal(t, 3, settings.TeamSize)
	assert.False(t, settings.Fearless)
	assert.Equal(t, "file", cfg.Stats.Backend)
	assert.Equal(t, DefaultStatsFile, cfg.Stats.File)
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, DefaultLocale, cfg.Catalog.Locale)
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, `
draft:
  pick_timeout_sec: 30
  champion_count: 10
  fearless: true
stats:
  backend: SQLite
  sqlite_path: /tmp/draft.db
server:
  port: "9090"
nats:
  enabled: true
candidates:
  - id: "1"
    name: 철수
  - id: "2"
    name: 영희
log_level: debug
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	settings := cfg.DraftSettings()
	assert.Equal(t, 30*time.Second, settings.PickTimeout)
	assert.Equal(t, 10, settings.ChampionCount)
	assert.True(t, settings.Fearless)
	assert.Equal(t, "sqlite", cfg.Stats.Backend)
	assert.Equal(t, "/tmp/draft.db", cfg.Stats.SQLitePath)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.NATS.Enabled)
	assert.Equal(t, DefaultNATSURL, cfg.NATS.URL)
	assert.Equal(t, zerolog.DebugLevel, cfg.Level())

	participants := cfg.Participants()
	require.Len(t, participants, 2)
	assert.Equal(t, "영희", participants[1].Name)
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, "draft:\n  pick_timeout_sec: 30\n")
	t.Setenv("PICK_TIMEOUT_SEC", "5")
	t.Setenv("CHAMPION_COUNT", "12")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.DraftSettings().PickTimeout)
	assert.Equal(t, 12, cfg.Draft.ChampionCount)
	assert.True(t, cfg.DevMode)
	assert.Equal(t, DefaultDevStatsFile, cfg.Stats.File)
}

func TestLoadNonPositiveFallsBack(t *testing.T) {
	path := writeConfig(t, "draft:\n  pick_timeout_sec: 0\n  champion_count: -3\n")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 15, cfg.Draft.PickTimeoutSec)
	assert.Equal(t, 8, cfg.Draft.ChampionCount)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "draft: [unclosed"))
	assert.Error(t, err)

	t.Setenv("PICK_TIMEOUT_SEC", "soon")
	_, err = Load("")
	assert.Error(t, err)
}

func TestLevelFallback(t *testing.T) {
	assert.Equal(t, zerolog.InfoLevel, Config{RuntimeConfig: RuntimeConfig{LogLevel: "loud"}}.Level())
	assert.Equal(t, zerolog.InfoLevel, Config{}.Level())
	assert.Equal(t, zerolog.WarnLevel, Config{RuntimeConfig: RuntimeConfig{LogLevel: "WARN"}}.Level())
}
