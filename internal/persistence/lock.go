package persistence

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SweepLocker provides run-level mutual exclusion for the escalation sweep.
// Acquire returns ok=false when another holder owns the lock; callers skip
// the tick instead of queuing.
type SweepLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, ok bool, err error)
}

const releaseScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`

// RedisSweepLocker implements SweepLocker with SETNX and a compare-and-delete
// release, so an expired lock is never released by a stale holder.
type RedisSweepLocker struct {
	client *redis.Client
}

// NewRedisSweepLocker wraps a redis client as a SweepLocker.
func NewRedisSweepLocker(client *redis.Client) *RedisSweepLocker {
	return &RedisSweepLocker{client: client}
}

// Acquire takes the named lock for at most ttl.
func (l *RedisSweepLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if l.client == nil {
		return nil, false, errors.New("redis client not initialized")
	}
	if ttl <= 0 {
		return nil, false, errors.New("ttl must be > 0")
	}
	token := uuid.NewString()
	acquired, err := l.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !acquired {
		return nil, false, nil
	}
	release := func(ctx context.Context) error {
		return l.client.Eval(ctx, releaseScript, []string{key}, token).Err()
	}
	return release, true, nil
}

// LocalSweepLocker guards sweeps within a single process. Used when Redis is
// not configured; sufficient for single-instance deployments.
type LocalSweepLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewLocalSweepLocker creates an in-process locker.
func NewLocalSweepLocker() *LocalSweepLocker {
	return &LocalSweepLocker{held: make(map[string]bool)}
}

// Acquire takes the named lock if free.
func (l *LocalSweepLocker) Acquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] {
		return nil, false, nil
	}
	l.held[key] = true
	release := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.held, key)
		return nil
	}
	return release, true, nil
}
