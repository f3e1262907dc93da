package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLockKey(t *testing.T) {
	t.Parallel()

	id := uuid.MustParse("7d444840-9dc0-11d1-b245-5ffdce74fad2")
	assert.Equal(t, "repurposer:lock:7d444840-9dc0-11d1-b245-5ffdce74fad2", lockKey(id))
}

func TestNewJobLockerDefaults(t *testing.T) {
	t.Parallel()

	l := NewJobLocker(nil, 0, nil)
	assert.Equal(t, defaultLockTTL, l.ttl)
	assert.NotNil(t, l.logger)
}

func TestNewClientRejectsBadURL(t *testing.T) {
	t.Parallel()

	_, err := NewClient(context.Background(), config.RedisConfig{URL: "http://not-redis"})
	assert.Error(t, err)
}

// TestJobLocker_Redis runs against a real server when REDIS_URL is set.
func TestJobLocker_Redis(t *testing.T) {
	url := os.Getenv("REDIS_URL")
	if url == "" {
		t.Skip("REDIS_URL not set")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, config.RedisConfig{Enabled: true, URL: url})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	l := NewJobLocker(client, time.Minute, nil)
	id := uuid.New()

	unlock, err := l.Lock(ctx, id)
	require.NoError(t, err)

	_, err = l.Lock(ctx, id)
	assert.ErrorIs(t, err, task.ErrJobLocked)

	require.NoError(t, unlock(ctx))

	unlock, err = l.Lock(ctx, id)
	require.NoError(t, err)
	require.NoError(t, unlock(ctx))
}
