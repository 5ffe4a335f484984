package distlock

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// The holder token is compared server-side so a replica never refreshes or
// deletes a lock another replica took over after expiry.
var (
	acquireScript = redis.NewScript(`
		local cur = redis.call("get", KEYS[1])
		if not cur then
			redis.call("set", KEYS[1], ARGV[1], "px", ARGV[2])
			return 1
		end
		if cur == ARGV[1] then
			redis.call("pexpire", KEYS[1], ARGV[2])
			return 1
		end
		return 0
	`)
	extendScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("pexpire", KEYS[1], ARGV[2])
		end
		return 0
	`)
	releaseScript = redis.NewScript(`
		if redis.call("get", KEYS[1]) == ARGV[1] then
			return redis.call("del", KEYS[1])
		end
		return 0
	`)
)

// RedisLock is a TTL lease in Redis. The stored value identifies the
// holder as "host/pid/random", which Holder reports to standby replicas.
type RedisLock struct {
	client *redis.Client
	key    string
	token  string
	ttl    time.Duration
}

// NewRedisLock creates a lease on "lock:<key>" lasting ttl unless extended.
func NewRedisLock(client *redis.Client, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		client: client,
		key:    "lock:" + key,
		token:  holderToken(),
		ttl:    ttl,
	}
}

func holderToken() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "unknown"
	}
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return fmt.Sprintf("%s/%d/%s", host, os.Getpid(), hex.EncodeToString(b))
}

// Acquire takes the lease, or refreshes it when this lock already holds it.
func (l *RedisLock) Acquire(ctx context.Context) (bool, error) {
	n, err := acquireScript.Run(ctx, l.client, []string{l.key}, l.token, l.ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("acquire %s: %w", l.key, err)
	}
	return n == 1, nil
}

// Extend resets the lease to ttl. Returns ErrNotHeld if the key expired or
// another holder took it.
func (l *RedisLock) Extend(ctx context.Context, ttl time.Duration) error {
	n, err := extendScript.Run(ctx, l.client, []string{l.key}, l.token, ttl.Milliseconds()).Int()
	if err != nil {
		return fmt.Errorf("extend %s: %w", l.key, err)
	}
	if n == 0 {
		return ErrNotHeld
	}
	return nil
}

// Release deletes the lease if this lock still holds it.
func (l *RedisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil {
		return fmt.Errorf("release %s: %w", l.key, err)
	}
	return nil
}

// Holder returns the current holder's token, or "" when the lease is free.
func (l *RedisLock) Holder(ctx context.Context) (string, error) {
	v, err := l.client.Get(ctx, l.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("holder %s: %w", l.key, err)
	}
	return v, nil
}
