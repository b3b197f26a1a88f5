package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMA_STORAGE_DRIVER", "")
	t.Setenv("GEMA_API_BASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:5000/api", cfg.APIBaseURL)
	require.Equal(t, "http://localhost:5000", cfg.UploadBaseURL)
	require.Equal(t, StorageBolt, cfg.Storage.Driver)
	require.Equal(t, time.Duration(0), cfg.HTTPTimeout)
	require.True(t, cfg.DiscardStale)
	require.Equal(t, ":5000", cfg.Collaborator.HTTPAddress())
	require.Equal(t, 24*time.Hour, cfg.Collaborator.TokenTTL)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("GEMA_API_BASE_URL", "https://projects.example.com/api/")
	t.Setenv("GEMA_HTTP_TIMEOUT", "15s")
	t.Setenv("GEMA_FETCH_DISCARD_STALE", "false")
	t.Setenv("GEMA_STORAGE_DRIVER", "memory")
	t.Setenv("GEMA_COLLABORATOR_ALLOW_ORIGINS", "http://localhost:3000, ,https://gema.example.com")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "https://projects.example.com/api", cfg.APIBaseURL)
	require.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	require.False(t, cfg.DiscardStale)
	require.Equal(t, StorageMemory, cfg.Storage.Driver)
	require.Equal(t, []string{"http://localhost:3000", "https://gema.example.com"}, cfg.Collaborator.AllowOrigins)
}

func TestLoadRejectsUnknownStorageDriver(t *testing.T) {
	t.Setenv("GEMA_STORAGE_DRIVER", "localstorage")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRedisStorageRequiresURL(t *testing.T) {
	t.Setenv("GEMA_STORAGE_DRIVER", "redis")
	t.Setenv("GEMA_STORAGE_REDIS_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestCollaboratorValidate(t *testing.T) {
	cfg := CollaboratorConfig{DatabaseURL: "file::memory:"}
	require.Error(t, cfg.Validate())

	cfg.JWTSecret = "secret"
	require.NoError(t, cfg.Validate())
}
