package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME at a temp dir and clears every variable a test may set.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range []string{
		"REALTY_PORT", "REALTY_DEV_MODE", "REALTY_STORE", "REALTY_POSTGRES_DSN",
		"REALTY_REDIS_ADDR", "REALTY_CACHE_TTL", "REALTY_SMTP_HOST", "REALTY_NOTIFY_TO",
		"REALTY_BACKUP_SCHEDULE", "REALTY_RATE_LIMIT",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("", filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 100, cfg.Server.RateLimit)
	assert.Equal(t, BackendSQLite, cfg.Store.Backend)
	assert.Equal(t, filepath.Join(home, ".realty", "realty.db"), cfg.Store.SQLitePath)
	assert.Equal(t, 5*time.Minute, cfg.Redis.TTL)
	assert.False(t, cfg.SMTP.Enabled())
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", `
server:
  port: 9090
  dev_mode: true
store:
  backend: json
  json_path: /tmp/listings.json
redis:
  addr: localhost:6379
  ttl: 30s
smtp:
  host: smtp.example.com
  notify_to: office@example.com
backup:
  schedule: "@daily"
  dir: /tmp/backups
`)

	cfg, err := Load(path, filepath.Join(dir, "none.env"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.DevMode)
	assert.Equal(t, BackendJSON, cfg.Store.Backend)
	assert.Equal(t, "/tmp/listings.json", cfg.Store.JSONPath)
	assert.Equal(t, 30*time.Second, cfg.Redis.TTL)
	assert.True(t, cfg.SMTP.Enabled())
	assert.Equal(t, "587", cfg.SMTP.Port, "unset keys keep defaults")
	assert.Equal(t, "@daily", cfg.Backup.Schedule)
}

func TestLoadExplicitPathMustExist(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	isolate(t)
	path := writeFile(t, t.TempDir(), "config.yaml", "server: [oops")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverridesYAML(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yaml", "server:\n  port: 9090\n")

	t.Setenv("REALTY_PORT", "7070")
	t.Setenv("REALTY_STORE", "postgres")
	t.Setenv("REALTY_POSTGRES_DSN", "postgres://realty@localhost/realty")
	t.Setenv("REALTY_CACHE_TTL", "1m")

	cfg, err := Load(path, filepath.Join(dir, "none.env"))
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://realty@localhost/realty", cfg.Postgres.DSN)
	assert.Equal(t, time.Minute, cfg.Redis.TTL)
}

func TestDotEnvFile(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", "REALTY_PORT=6060\nREALTY_SMTP_HOST=mail.local\n")

	t.Setenv("REALTY_SMTP_HOST", "already.set")

	cfg, err := Load("", envFile)
	require.NoError(t, err)

	assert.Equal(t, 6060, cfg.Server.Port)
	assert.Equal(t, "already.set", cfg.SMTP.Host, ".env never overrides the environment")
}

func TestInvalidEnvValues(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"REALTY_PORT", "eighty"},
		{"REALTY_DEV_MODE", "sometimes"},
		{"REALTY_CACHE_TTL", "forever"},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			isolate(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load("", filepath.Join(t.TempDir(), "none.env"))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		want   string
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, "server.port"},
		{"unknown backend", func(c *Config) { c.Store.Backend = "mongo" }, "store.backend"},
		{"postgres without dsn", func(c *Config) { c.Store.Backend = BackendPostgres }, "postgres.dsn"},
		{"json without path", func(c *Config) { c.Store.Backend = BackendJSON; c.Store.JSONPath = "" }, "store.json_path"},
		{"bad cron", func(c *Config) { c.Backup.Schedule = "every tuesday" }, "backup.schedule"},
		{"schedule without dir", func(c *Config) { c.Backup.Schedule = "0 3 * * *"; c.Backup.Dir = "" }, "backup.dir"},
		{"negative rate limit", func(c *Config) { c.Server.RateLimit = -1 }, "server.rate_limit"},
		{"redis without ttl", func(c *Config) { c.Redis.Addr = "localhost:6379"; c.Redis.TTL = 0 }, "redis.ttl"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.modify(c)
			err := c.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("backend is normalized", func(t *testing.T) {
		c := Default()
		c.Store.Backend = " SQLite "
		require.NoError(t, c.Validate())
		assert.Equal(t, BackendSQLite, c.Store.Backend)
	})
}
