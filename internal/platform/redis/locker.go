package redis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/content-repurposer/internal/config"
	"github.com/phrazzld/content-repurposer/internal/task"
	goredis "github.com/redis/go-redis/v9"
)

var _ task.JobLocker = (*JobLocker)(nil)

const (
	lockKeyPrefix  = "repurposer:lock:"
	defaultLockTTL = 30 * time.Minute
)

// releaseScript deletes the lock only if it still holds our token, so a
// worker whose lock expired cannot release a lock taken by another worker.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// JobLocker implements task.JobLocker with SET NX and a TTL.
// The TTL should exceed the longest expected job run.
type JobLocker struct {
	client goredis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewJobLocker creates a JobLocker on client.
func NewJobLocker(client goredis.UniversalClient, ttl time.Duration, logger *slog.Logger) *JobLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &JobLocker{client: client, ttl: ttl, logger: logger.With("component", "job_locker")}
}

// NewClient parses cfg.URL and pings the server.
func NewClient(ctx context.Context, cfg config.RedisConfig) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping: %w", err)
	}
	return client, nil
}

// Lock implements task.JobLocker.
func (l *JobLocker) Lock(ctx context.Context, jobID uuid.UUID) (func(context.Context) error, error) {
	key := lockKey(jobID)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("redis: acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", task.ErrJobLocked, jobID)
	}

	l.logger.Debug("job lock acquired", "job_id", jobID, "ttl", l.ttl)

	return func(ctx context.Context) error {
		if err := releaseScript.Run(ctx, l.client, []string{key}, token).Err(); err != nil {
			return fmt.Errorf("redis: release lock: %w", err)
		}
		return nil
	}, nil
}

func lockKey(jobID uuid.UUID) string {
	return lockKeyPrefix + jobID.String()
}
