package redis

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/kpsahani/Contest-Participation-System/internal/pkg/errors"
)

func newTestCache(t *testing.T) (*CacheRepo, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	repo, err := NewCacheRepo(client)
	require.NoError(t, err)
	return repo, mr
}

type cachedBoard struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}

func TestCacheRepo_JSONRoundTripWithTTL(t *testing.T) {
	repo, mr := newTestCache(t)

	in := []cachedBoard{{Username: "bob", Score: 80}, {Username: "amy", Score: 50}}
	require.NoError(t, repo.SetJSON("leaderboard:contest:1", in, 5*time.Minute))

	var out []cachedBoard
	require.NoError(t, repo.GetJSON("leaderboard:contest:1", &out))
	assert.Equal(t, in, out)

	mr.FastForward(5*time.Minute + time.Second)

	err := repo.GetJSON("leaderboard:contest:1", &out)
	assert.ErrorIs(t, err, apperrors.ErrNotFound, "После истечения TTL ключ должен исчезнуть")
}

func TestCacheRepo_GetMissingKey(t *testing.T) {
	repo, _ := newTestCache(t)

	_, err := repo.Get("nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCacheRepo_Delete(t *testing.T) {
	repo, mr := newTestCache(t)

	require.NoError(t, repo.SetJSON("contests:user", []string{}, time.Minute))
	require.NoError(t, repo.SetJSON("contests:vip", []string{}, time.Minute))

	require.NoError(t, repo.Delete("contests:user", "contests:vip"))

	assert.False(t, mr.Exists("contests:user"))
	assert.False(t, mr.Exists("contests:vip"))
	assert.NoError(t, repo.Delete(), "Пустой список ключей - no-op")
}

func TestCacheRepo_SetNX(t *testing.T) {
	repo, _ := newTestCache(t)

	first, err := repo.SetNX("lock:contest:7", "1", time.Minute)
	require.NoError(t, err)
	second, err := repo.SetNX("lock:contest:7", "1", time.Minute)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second, "Повторный SetNX не должен перезаписывать ключ")

	val, err := repo.Get("lock:contest:7")
	require.NoError(t, err)
	assert.Equal(t, "1", val)
}

func TestNewCacheRepo_NilClient(t *testing.T) {
	_, err := NewCacheRepo(nil)
	assert.Error(t, err)
}
