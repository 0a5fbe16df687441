package lock

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"FnoSentinel/pkg/errors"
)

// Locker guards a named cycle against overlapping runs. Acquire returns
// false when another holder owns the key.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

// RedisLock is a SETNX lock with TTL, shared across processes.
type RedisLock struct {
	rdb *redis.Client
}

// NewRedisLock connects to Redis and verifies the connection.
func NewRedisLock(ctx context.Context, addr, password string, db int) (*RedisLock, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, errors.Wrapf(err, "redis ping %s", addr)
	}
	return &RedisLock{rdb: rdb}, nil
}

// NewRedisLockFromClient wraps an existing client.
func NewRedisLockFromClient(rdb *redis.Client) *RedisLock {
	return &RedisLock{rdb: rdb}
}

func (l *RedisLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, "lock:"+key, "1", ttl).Result()
	if err != nil {
		return false, errors.Wrapf(err, "acquire lock %s", key)
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context, key string) error {
	return errors.Wrapf(l.rdb.Del(ctx, "lock:"+key).Err(), "release lock %s", key)
}

// Close closes the Redis connection.
func (l *RedisLock) Close() error {
	return l.rdb.Close()
}

// LocalLock is an in-process lock with the same expiry semantics.
type LocalLock struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{held: make(map[string]time.Time), clock: time.Now}
}

func (l *LocalLock) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if exp, ok := l.held[key]; ok && now.Before(exp) {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}

func (l *LocalLock) Release(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
