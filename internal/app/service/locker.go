package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/halalverify/halal-backend/pkg/logger"
	pkgredis "github.com/halalverify/halal-backend/pkg/redis"
	"github.com/redis/go-redis/v9"
)

// SubjectLocker serializes issuance per subject. The returned unlock must be
// called exactly once.
type SubjectLocker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

func issuanceLockKey(businessID uint) string {
	return fmt.Sprintf("certificate:issue:business:%d", businessID)
}

// KeyedMutex is the single-process SubjectLocker.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	entry, ok := m.locks[key]
	if !ok {
		entry = &keyedEntry{sem: make(chan struct{}, 1)}
		m.locks[key] = entry
	}
	entry.refs++
	m.mu.Unlock()

	select {
	case entry.sem <- struct{}{}:
		var once sync.Once
		return func() {
			once.Do(func() {
				<-entry.sem
				m.release(key, entry)
			})
		}, nil
	case <-ctx.Done():
		m.release(key, entry)
		return nil, ctx.Err()
	}
}

func (m *KeyedMutex) release(key string, entry *keyedEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.refs--
	if entry.refs == 0 {
		delete(m.locks, key)
	}
}

// RedisLocker is the SubjectLocker shared by every replica.
type RedisLocker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := pkgredis.AcquireLock(ctx, l.rdb, key, l.ttl)
	if err != nil {
		return nil, err
	}
	return releaseFunc(key, lock.Release), nil
}

// releaseFunc wraps a lock release as an unlock callback. The release runs
// under its own deadline, independent of the caller's context.
func releaseFunc(key string, release func(ctx context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := release(ctx); err != nil {
			logger.Error("Failed to release issuance lock", err, map[string]interface{}{
				"key": key,
			})
		}
	}
}
