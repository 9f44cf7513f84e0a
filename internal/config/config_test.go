package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	req := require.New(t)
	t.Setenv("STORAGE_DRIVER", "")
	t.Setenv("SERVER_PORT", "")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(StorageDriverPostgres, cfg.Storage.Driver)
	req.Equal(4000, cfg.Server.Port)
	req.Equal(24*time.Hour, cfg.JWT.TTL)
}

func TestLoad_Overrides(t *testing.T) {
	req := require.New(t)
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_TTL", "30m")
	t.Setenv("RATE_LIMIT", "not-a-number")

	cfg, err := Load()
	req.NoError(err)
	req.Equal(StorageDriverMemory, cfg.Storage.Driver)
	req.Equal(9090, cfg.Server.Port)
	req.Equal(30*time.Minute, cfg.JWT.TTL)
	req.Equal(100, cfg.RateLimit.Limit)
}

func TestLoad_UnknownDriver(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "sqlite")

	_, err := Load()
	require.ErrorContains(t, err, "config validation failed")
}
