package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, time.Minute, cfg.TickInterval)
	assert.NotEmpty(t, cfg.DBPath)
	assert.Equal(t, "mailto:admin@localhost", cfg.Push.Subscriber)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HORAE_HTTP_ADDR", ":9999")
	t.Setenv("HORAE_DB_PATH", "/tmp/test.db")
	t.Setenv("HORAE_PUSH_SUBSCRIBER", "mailto:ops@example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "mailto:ops@example.com", cfg.Push.Subscriber)
}
