package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")

	cfg, err := Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, DriverMongo, cfg.StoreDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenTTL)
	assert.Equal(t, 5*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, 20, cfg.Redis.PoolSize)
	assert.Empty(t, cfg.Redis.Password)
	assert.Equal(t, "seminar", cfg.Mongo.Database)
	assert.Equal(t, 8, cfg.ActivityWorkers)
	assert.True(t, cfg.IsDevelopment())
}

func TestLoad_MissingSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("SEMINAR_TEST_FILE_ONLY=yes\n"), 0o600))
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Cleanup(func() { os.Unsetenv("SEMINAR_TEST_FILE_ONLY") })

	cfg, err := Load(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, "yes", os.Getenv("SEMINAR_TEST_FILE_ONLY"))
}

func TestValidate(t *testing.T) {
	cases := map[string]Config{
		"unknown driver": {JWTSecret: "x", StoreDriver: "sqlite", TokenTTL: time.Hour},
		"blank secret":   {JWTSecret: "  ", StoreDriver: DriverMongo, TokenTTL: time.Hour},
		"zero ttl":       {JWTSecret: "x", StoreDriver: DriverMongo},
	}
	for name, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}
