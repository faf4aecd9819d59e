package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/adapters/memory"
	"github.com/AmirhosseinHanifehzadeh/Polaris/internal/adapters/sqlite"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"HTTP_PORT", "GRPC_PORT", "BASE_PATH", "REPO_TYPE", "DB_PATH", "DB_DSN",
		"MAX_LIST_LIMIT", "MAX_BULK_SIZE", "LOG_LEVEL", "LOG_FORMAT", "SHUTDOWN_TIMEOUT",
	} {
		t.Setenv(key, "")
	}

	cfg := loadConfig()
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Empty(t, cfg.GRPCPort)
	assert.Equal(t, "/api/v1/measurements", cfg.BasePath)
	assert.Equal(t, "memory", cfg.RepoType)
	assert.Equal(t, 1000, cfg.MaxListLimit)
	assert.Equal(t, 1000, cfg.MaxBulkSize)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("GRPC_PORT", "50051")
	t.Setenv("REPO_TYPE", "sqlite")
	t.Setenv("MAX_LIST_LIMIT", "250")
	t.Setenv("MAX_BULK_SIZE", "not-a-number")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")

	cfg := loadConfig()
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, "50051", cfg.GRPCPort)
	assert.Equal(t, "sqlite", cfg.RepoType)
	assert.Equal(t, 250, cfg.MaxListLimit)
	assert.Equal(t, 1000, cfg.MaxBulkSize, "invalid values fall back to the default")
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
}

func TestOpenRepository(t *testing.T) {
	ctx := context.Background()

	repo, err := openRepository(ctx, Config{RepoType: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &memory.MeasurementRepository{}, repo)
	require.NoError(t, repo.Close())

	repo, err = openRepository(ctx, Config{RepoType: "sqlite", DBPath: filepath.Join(t.TempDir(), "polaris.db")})
	require.NoError(t, err)
	assert.IsType(t, &sqlite.MeasurementRepository{}, repo)
	require.NoError(t, repo.Close())

	_, err = openRepository(ctx, Config{RepoType: "postgres"})
	assert.ErrorContains(t, err, "DB_DSN")

	_, err = openRepository(ctx, Config{RepoType: "cassandra"})
	assert.ErrorContains(t, err, "unknown repository type")
}
