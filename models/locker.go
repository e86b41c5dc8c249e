package models

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
)

// Locker serializes mutations of one collection.
type Locker interface {
	Lock(ctx context.Context, name string) (unlock func(), err error)
}

// LocalLocker holds one in-process slot per collection.
type LocalLocker struct {
	mu    sync.Mutex
	slots map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{slots: map[string]chan struct{}{}}
}

func (l *LocalLocker) Lock(ctx context.Context, name string) (func(), error) {
	l.mu.Lock()
	slot, ok := l.slots[name]
	if !ok {
		slot = make(chan struct{}, 1)
		l.slots[name] = slot
	}
	l.mu.Unlock()

	select {
	case slot <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-slot }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

const (
	DefaultRedisLockPrefix = "pos-sync:lock:"
	DefaultRedisLockTTL    = 30 * time.Second
)

// RedisLocker serializes collection writes across every process sharing
// the same data directory. Local contention is resolved first so one
// process does not spin against its own redis lock.
type RedisLocker struct {
	client *redislock.Client
	prefix string
	ttl    time.Duration
	local  *LocalLocker
}

func NewRedisLocker(client *redislock.Client, prefix string, ttl time.Duration) *RedisLocker {
	if prefix == "" {
		prefix = DefaultRedisLockPrefix
	}
	if ttl <= 0 {
		ttl = DefaultRedisLockTTL
	}
	return &RedisLocker{client: client, prefix: prefix, ttl: ttl, local: NewLocalLocker()}
}

func (l *RedisLocker) Lock(ctx context.Context, name string) (func(), error) {
	unlockLocal, err := l.local.Lock(ctx, name)
	if err != nil {
		return nil, err
	}

	lock, err := l.client.Obtain(ctx, l.prefix+name, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(50 * time.Millisecond),
	})
	if err != nil {
		unlockLocal()
		if errors.Is(err, redislock.ErrNotObtained) {
			return nil, fmt.Errorf("could not obtain lock for %s: %w", name, err)
		}
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			_ = lock.Release(context.Background())
			unlockLocal()
		})
	}, nil
}
