package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/medmarket-admin/internal/config"
)

func TestRunMigrationsSkipsWithoutPool(t *testing.T) {
	cfg := config.PostgresConfig{RunMigrations: true, MigrationsDir: "migrations"}
	require.NoError(t, RunMigrations(context.Background(), nil, cfg, zap.NewNop()))
}

func TestRunMigrationsWithoutPoolIgnoresMissingDir(t *testing.T) {
	// Log-only mode never touches the filesystem, a bogus dir is fine.
	cfg := config.PostgresConfig{RunMigrations: true, MigrationsDir: "does/not/exist"}
	require.NoError(t, RunMigrations(context.Background(), nil, cfg, zap.NewNop()))
}
