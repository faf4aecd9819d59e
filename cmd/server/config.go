package main

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/adapters/rest"
	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/domain"
)

// Config holds application configuration
type Config struct {
	HTTPPort        string
	GRPCPort        string // empty disables the gRPC listener
	BasePath        string
	RepoType        string // "memory" | "sqlite" | "postgres"
	DBPath          string // SQLite database file path (used when RepoType=sqlite)
	DBDSN           string // PostgreSQL DSN (used when RepoType=postgres)
	MaxListLimit    int
	MaxBulkSize     int
	LogLevel        string
	LogFormat       string // "console" | "json"
	TLSCert         string // path to this service's certificate
	TLSKey          string // path to this service's private key
	TLSCA           string // path to the CA certificate; enables client cert checks
	ShutdownTimeout time.Duration
}

// loadConfig reads configuration from environment variables
func loadConfig() Config {
	return Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		GRPCPort:        os.Getenv("GRPC_PORT"),
		BasePath:        getEnv("BASE_PATH", rest.DefaultBasePath),
		RepoType:        getEnv("REPO_TYPE", "memory"),
		DBPath:          getEnv("DB_PATH", "./polaris.db"),
		DBDSN:           os.Getenv("DB_DSN"),
		MaxListLimit:    getEnvInt("MAX_LIST_LIMIT", domain.MaxListLimit),
		MaxBulkSize:     getEnvInt("MAX_BULK_SIZE", domain.MaxBulkSize),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		TLSCert:         os.Getenv("TLS_CERT"),
		TLSKey:          os.Getenv("TLS_KEY"),
		TLSCA:           os.Getenv("TLS_CA"),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		log.Warn().Str("key", key).Str("value", raw).Int("default", fallback).Msg("ignoring invalid integer setting")
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Warn().Str("key", key).Str("value", raw).Dur("default", fallback).Msg("ignoring invalid duration setting")
		return fallback
	}
	return d
}
