package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("CI", "")
	t.Setenv("ENV", "development")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SECRETS_DIR", t.TempDir())
	for _, key := range []string{"DB_DRIVER", "DB_HOST", "DB_NAME", "DB_PASSWORD", "JWT_SECRET", "JWT_EXPIRY", "AI_TIMEOUT", "REDIS_URL", "ALLOWED_ORIGINS", "SQLITE_PATH", "S3_BUCKET_NAME", "IMPORTS_PER_HOUR", "REFRESH_TOKEN_EXPIRY", "LOGINS_PER_MINUTE"} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	isolate(t)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "larder_dev")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("JWT_EXPIRY", "2h")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.DBHost)
	assert.Equal(t, "larder_dev", cfg.DBName)
	assert.Equal(t, "5432", cfg.DBPort)
	assert.Equal(t, "test-secret", cfg.JWTSecret)
	assert.Equal(t, 2*time.Hour, cfg.JWTExpiry)
	assert.Equal(t, 60*time.Second, cfg.AITimeout)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.AllowedOrigins)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 30, cfg.ImportsPerHour)
	assert.Equal(t, 7*24*time.Hour, cfg.RefreshExpiry)
	assert.Equal(t, 5, cfg.LoginsPerMinute)
	assert.False(t, cfg.SnapshotsEnabled())
}

func TestLoadConfigSecretsOverrideEnvironment(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	t.Setenv("SECRETS_DIR", dir)
	t.Setenv("JWT_SECRET", "from-env")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "jwt_secret"), []byte("from-secret\n"), 0600))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "from-secret", cfg.JWTSecret)
}

func TestLoadConfigFileOverlay(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "test-secret")
	path := filepath.Join(t.TempDir(), "larder.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: "9090"
database:
  driver: sqlite
  sqlite_path: /tmp/larder-test.db
auth:
  refresh_token_expiry: 72h
  logins_per_minute: 0
ai:
  timeout: 15s
  imports_per_hour: 5
snapshots:
  bucket: larder-snapshots
`), 0600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, DriverSQLite, cfg.DBDriver)
	assert.Equal(t, "/tmp/larder-test.db", cfg.SQLitePath)
	assert.Equal(t, 15*time.Second, cfg.AITimeout)
	assert.Equal(t, 5, cfg.ImportsPerHour)
	assert.Equal(t, 72*time.Hour, cfg.RefreshExpiry)
	assert.Equal(t, 0, cfg.LoginsPerMinute)
	assert.True(t, cfg.SnapshotsEnabled())
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	isolate(t)
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("AI_TIMEOUT", "soon")

	_, err := LoadConfig()
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	isolate(t)

	cfg := defaults()
	cfg.JWTSecret = "secret"
	assert.NoError(t, ValidateConfig(cfg))

	cfg.DBDriver = "mysql"
	assert.ErrorContains(t, ValidateConfig(cfg), "unsupported driver")

	cfg = defaults()
	cfg.JWTSecret = "secret"
	cfg.RefreshExpiry = cfg.JWTExpiry
	cfg.LoginsPerMinute = -1
	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh_token_expiry")
	assert.Contains(t, err.Error(), "logins_per_minute")

	t.Setenv("ENV", "production")
	cfg = defaults()
	cfg.JWTSecret = "short"
	err = ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt_secret")
	assert.Contains(t, err.Error(), "db_password")
}

func TestGetEnvironment(t *testing.T) {
	t.Setenv("CI", "true")
	t.Setenv("ENV", "production")
	assert.Equal(t, CI, GetEnvironment())

	t.Setenv("CI", "")
	assert.Equal(t, Production, GetEnvironment())
	assert.True(t, IsProduction())

	t.Setenv("ENV", "")
	assert.Equal(t, Development, GetEnvironment())
}
