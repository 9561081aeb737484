// Package config loads process configuration once at startup from
// environment variables, following the teacher's flat os.Getenv style
// (§4.14) rather than a config-framework dependency.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full set of environment-derived settings shared by the
// api and processor binaries.
type Config struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string

	RedisAddr     string
	RedisPassword string

	APIPort string

	ImportChunkSizeCSV  int
	ImportChunkSizeXLSX int
	ImportLockTTL       time.Duration
	ImportMaxFileBytes  int64
	ImportMaxRows       int
	UploadDir           string

	LogDir  string
	PrintLog bool
}

// Load reads every setting from the environment, applying the same
// defaults the teacher's own NewMySQL/logger.New use where one exists.
func Load() Config {
	return Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     envOr("DB_PORT", "3306"),
		DBName:     os.Getenv("DB_NAME"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),

		RedisAddr:     envOr("REDIS_ADDR", "localhost:6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		APIPort: envOr("API_PORT", "8080"),

		ImportChunkSizeCSV:  envInt("IMPORT_CHUNK_SIZE_CSV", 100),
		ImportChunkSizeXLSX: envInt("IMPORT_CHUNK_SIZE_XLSX", 50),
		ImportLockTTL:       time.Duration(envInt("IMPORT_LOCK_TTL_SECONDS", 90)) * time.Second,
		ImportMaxFileBytes:  envInt64("IMPORT_MAX_FILE_BYTES", 20*1024*1024),
		ImportMaxRows:       envInt("IMPORT_MAX_ROWS", 50_000),
		UploadDir:           envOr("IMPORT_UPLOAD_DIR", "./uploads"),

		LogDir:   envOr("LOG_DIR", "./logs"),
		PrintLog: os.Getenv("PRINTLOG") == "true",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return n
}
