package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"dayplan/internal/scheduler"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DAYPLAN_CONFIG", "")
	t.Setenv("PORT", "")
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, scheduler.DefaultPolicy, cfg.Breaks)
	require.Zero(t, cfg.StaleAfter)
}

func TestLoadYAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dayplan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: "9090"
timezone: UTC
stale_after: 2h
breaks:
  work_threshold_minutes: 50
  long_break_every: 4
cors_origins:
  - https://plan.example.com
`), 0o600))

	t.Setenv("DAYPLAN_CONFIG", path)
	t.Setenv("PORT", "")
	t.Setenv("BREAK_SHORT_MINUTES", "10")
	t.Setenv("CORS_ORIGINS", " , ")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, 2*time.Hour, cfg.StaleAfter)
	require.Equal(t, 50, cfg.Breaks.WorkThreshold)
	require.Equal(t, 4, cfg.Breaks.LongBreakEvery)
	require.Equal(t, 10, cfg.Breaks.ShortBreakMinutes)
	require.Equal(t, 15, cfg.Breaks.LongBreakMinutes)
	require.Equal(t, []string{"https://plan.example.com"}, cfg.CORSOrigins)
	require.Equal(t, time.UTC, cfg.Location())
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("DAYPLAN_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	_, err := Load()
	require.Error(t, err)
}
