package config

import (
	"errors"
	"io/fs"
	"os"
	"time"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/joho/godotenv"
)

// loadDotEnv is a seam for tests.
var loadDotEnv = func() error {
	return godotenv.Load()
}

// parseEnv overlays CREDKEEPER_* environment variables. A .env file in the
// working directory is loaded first; variables already set in the process
// environment win over it. A malformed duration panics.
func parseEnv(config *Config) {
	if err := loadDotEnv(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		panic(err)
	}

	setString(&config.DatabaseDSN, getEnv("DATABASE_DSN"))
	setString(&config.SecretKey, getEnv("SECRET_KEY"))
	setDuration(&config.TokenValidityDuration, getEnv("TOKEN_VALIDITY"))
	setDuration(&config.ProfileURLValidity, getEnv("PROFILE_URL_VALIDITY"))
	setString(&config.S3RootUser, getEnv("S3_ROOT_USER"))
	setString(&config.S3RootPassword, getEnv("S3_ROOT_PASSWORD"))
	setString(&config.S3Bucket, getEnv("S3_BUCKET"))
	setString(&config.S3Region, getEnv("S3_REGION"))
	setString(&config.S3BaseEndpoint, getEnv("S3_BASE_ENDPOINT"))
	setString(&config.LogLevel, getEnv("LOG_LEVEL"))
}

func getEnv(key string) string {
	return os.Getenv(common.EnvPrefix + key)
}

func setDuration(dst *time.Duration, v string) {
	if v == "" {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		panic(err)
	}
	*dst = d
}
