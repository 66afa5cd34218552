package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/joho/godotenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noDotEnv(t *testing.T) {
	t.Helper()
	orig := loadDotEnv
	loadDotEnv = func() error { return nil }
	t.Cleanup(func() { loadDotEnv = orig })
}

func Test_parseEnv(t *testing.T) {
	noDotEnv(t)

	t.Setenv("CREDKEEPER_DATABASE_DSN", "sqlite:env.db")
	t.Setenv("CREDKEEPER_SECRET_KEY", "env-secret")
	t.Setenv("CREDKEEPER_TOKEN_VALIDITY", "1h")
	t.Setenv("CREDKEEPER_PROFILE_URL_VALIDITY", "30s")
	t.Setenv("CREDKEEPER_S3_REGION", "eu-west-1")
	t.Setenv("CREDKEEPER_LOG_LEVEL", "error")

	cfg := &Config{}
	cfg.LoadDefaults()
	parseEnv(cfg)

	assert.Equal(t, "sqlite:env.db", cfg.DatabaseDSN)
	assert.Equal(t, "env-secret", cfg.SecretKey)
	assert.Equal(t, time.Hour, cfg.TokenValidityDuration)
	assert.Equal(t, 30*time.Second, cfg.ProfileURLValidity)
	assert.Equal(t, "eu-west-1", cfg.S3Region)
	assert.Equal(t, "error", cfg.LogLevel)
	assert.Equal(t, "credkeeper", cfg.S3Bucket, "unset vars keep defaults")
}

func Test_parseEnv_BadDuration(t *testing.T) {
	noDotEnv(t)
	t.Setenv("CREDKEEPER_TOKEN_VALIDITY", "a week")

	require.Panics(t, func() { parseEnv(&Config{}) })
}

func Test_parseEnv_DotEnvFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"),
		[]byte("CREDKEEPER_S3_BUCKET=dotenv-bucket\nCREDKEEPER_SECRET_KEY=dotenv-secret\n"), 0o600))

	orig := loadDotEnv
	loadDotEnv = func() error { return godotenv.Load(filepath.Join(dir, ".env")) }
	t.Cleanup(func() { loadDotEnv = orig })

	// godotenv.Load never overrides variables already present
	t.Setenv("CREDKEEPER_SECRET_KEY", "process-secret")
	t.Setenv("CREDKEEPER_S3_BUCKET", "")
	require.NoError(t, os.Unsetenv("CREDKEEPER_S3_BUCKET"))

	cfg := &Config{}
	parseEnv(cfg)

	assert.Equal(t, "dotenv-bucket", cfg.S3Bucket)
	assert.Equal(t, "process-secret", cfg.SecretKey)
}

func Test_parseEnv_MissingDotEnvIgnored(t *testing.T) {
	orig := loadDotEnv
	loadDotEnv = func() error { return godotenv.Load(filepath.Join(t.TempDir(), ".env")) }
	t.Cleanup(func() { loadDotEnv = orig })

	cfg := &Config{}
	require.NotPanics(t, func() { parseEnv(cfg) })
}
