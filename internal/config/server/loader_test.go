package server_config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	require.Equal(t, "calmer", cfg.App.Name)
	require.Equal(t, ":8080", cfg.Server.HTTPAddr)
	require.Equal(t, []string{"*"}, cfg.Server.CORSAllowOrigins)

	require.Equal(t, int32(10), cfg.DB.MaxConns)
	require.Equal(t, 2*time.Second, cfg.DB.QueryTimeout)

	require.Equal(t, "https://calmer.fyi", cfg.Push.TargetURL)
	require.Equal(t, 10*time.Second, cfg.Push.Timeout)

	require.Equal(t, 8, cfg.Reminder.MorningHour)
	require.Equal(t, 21, cfg.Reminder.EveningHour)
	require.Equal(t, 100, cfg.Reminder.BatchSize)
	require.Equal(t, 500*time.Millisecond, cfg.Reminder.PaceInterval)
	require.Equal(t, 3*time.Hour, cfg.Reminder.QuietWindow)
	require.Empty(t, cfg.Reminder.Secret)

	require.Equal(t, "info", cfg.Log.Level)
	require.False(t, cfg.OTEL.Enable)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
server:
  http_addr: ":9090"
reminder:
  morning_hour: 6
  secret: "s3cret"
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	require.Equal(t, ":9090", cfg.Server.HTTPAddr)
	require.Equal(t, 6, cfg.Reminder.MorningHour)
	require.Equal(t, "s3cret", cfg.Reminder.Secret)
	require.Equal(t, 21, cfg.Reminder.EveningHour)
}
