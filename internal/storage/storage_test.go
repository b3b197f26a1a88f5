package storage

import (
	"context"
	"path/filepath"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/gema-projects/internal/config"
)

func exerciseStorage(t *testing.T, s Storage) {
	t.Helper()
	ctx := context.Background()

	_, err := s.Get(ctx, KeyToken)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(ctx, KeyToken, "tok-1"))
	require.NoError(t, s.Set(ctx, KeyUser, `{"id":"u1","name":"Jane","role":"learner"}`))

	token, err := s.Get(ctx, KeyToken)
	require.NoError(t, err)
	require.Equal(t, "tok-1", token)

	require.NoError(t, s.Set(ctx, KeyToken, "tok-2"))
	token, err = s.Get(ctx, KeyToken)
	require.NoError(t, err)
	require.Equal(t, "tok-2", token)

	require.NoError(t, s.Delete(ctx, KeyToken, KeyUser))
	_, err = s.Get(ctx, KeyToken)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = s.Get(ctx, KeyUser)
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Delete(ctx, "missing"))
}

func TestMemoryStorage(t *testing.T) {
	exerciseStorage(t, NewMemory())
}

func TestBoltStorage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.db")
	s, err := OpenBolt(path, zerolog.Nop())
	require.NoError(t, err)
	exerciseStorage(t, s)

	require.NoError(t, s.Set(context.Background(), KeyToken, "persisted"))
	require.NoError(t, s.Close())

	reopened, err := OpenBolt(path, zerolog.Nop())
	require.NoError(t, err)
	defer reopened.Close()

	token, err := reopened.Get(context.Background(), KeyToken)
	require.NoError(t, err)
	require.Equal(t, "persisted", token)
}

func TestRedisStorage(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	s := NewRedis(client, "gema:session:", zerolog.Nop())
	defer s.Close()

	exerciseStorage(t, s)

	require.NoError(t, s.Set(context.Background(), KeyToken, "tok"))
	require.True(t, mini.Exists("gema:session:token"))
	require.Equal(t, 0, int(mini.TTL("gema:session:token")))
}

func TestOpenSelectsDriver(t *testing.T) {
	s, err := Open(config.StorageConfig{Driver: config.StorageMemory}, zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &MemoryStorage{}, s)

	s, err = Open(config.StorageConfig{Driver: config.StorageBolt, Path: filepath.Join(t.TempDir(), "s.db")}, zerolog.Nop())
	require.NoError(t, err)
	require.IsType(t, &BoltStorage{}, s)
	require.NoError(t, s.Close())

	_, err = Open(config.StorageConfig{Driver: "cookie"}, zerolog.Nop())
	require.Error(t, err)
}
