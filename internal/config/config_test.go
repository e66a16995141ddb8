package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points CONFIG_FILE at a path that does not exist so a stray
// config.toml in the package directory cannot leak into tests.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("CONFIG_FILE", filepath.Join(dir, "missing.toml"))
	for _, key := range []string{
		"APP_ENV", "LOG_LEVEL", "HTTP_PORT", "DATABASE_DRIVER", "DATABASE_DSN",
		"SESSION_STORE", "SESSION_SECRET", "SESSION_TTL", "SECURE_COOKIES",
		"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"ADMIN_USERNAME", "ADMIN_PASSWORD", "CATALOG_SEED_PATH",
	} {
		t.Setenv(key, "")
	}
	return dir
}

func TestLoad_Defaults(t *testing.T) {
	isolate(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, ":8080", cfg.HTTPAddr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "music.db", cfg.Database.DSN)
	assert.Equal(t, SessionStoreCookie, cfg.Session.Store)
	assert.Equal(t, DefaultSecret, cfg.Session.Secret)
	assert.Equal(t, 24*time.Hour, cfg.Session.TTL.Duration)
	assert.Equal(t, "admin", cfg.Seed.AdminUsername)
	assert.Equal(t, DefaultAdminPassword, cfg.Seed.AdminPassword)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
http_port = "9000"

[database]
dsn = "file.db"

[session]
secret = "from-file"
ttl = "2h"

[seed]
admin_username = "root"
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SESSION_SECRET", "from-env")
	t.Setenv("ADMIN_PASSWORD", "s3cret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.HTTPPort)
	assert.Equal(t, "file.db", cfg.Database.DSN)
	assert.Equal(t, "from-env", cfg.Session.Secret)
	assert.Equal(t, 2*time.Hour, cfg.Session.TTL.Duration)
	assert.Equal(t, "root", cfg.Seed.AdminUsername)
	assert.Equal(t, "s3cret", cfg.Seed.AdminPassword)
}

func TestLoad_InvalidPortFallsBack(t *testing.T) {
	isolate(t)
	t.Setenv("HTTP_PORT", "abc")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "oracle"}},
		{"unknown store", map[string]string{"SESSION_STORE": "memcached"}},
		{"redis without addr", map[string]string{"SESSION_STORE": "redis"}},
		{"bad ttl", map[string]string{"SESSION_TTL": "forever"}},
		{"bad secure flag", map[string]string{"SECURE_COOKIES": "maybe"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
		})
	}
}

func TestLoad_BadFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("http_port = ["), 0o600))
	t.Setenv("CONFIG_FILE", path)

	_, err := Load()
	require.Error(t, err)
}
