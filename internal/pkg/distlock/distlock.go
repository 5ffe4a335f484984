// Package distlock elects a single holder of a named lock across replicas.
package distlock

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotHeld is returned by Extend when the lock was lost or never taken.
var ErrNotHeld = errors.New("lock not held")

// DistLock is the interface for distributed locking.
// Implementations must be safe for use from a single goroutine;
// concurrent use across goroutines requires separate lock instances.
type DistLock interface {
	// Acquire tries to acquire the lock. Returns true if successful.
	Acquire(ctx context.Context) (bool, error)
	// Extend refreshes ownership. Returns ErrNotHeld if the lock was lost.
	Extend(ctx context.Context, ttl time.Duration) error
	// Release releases the lock if we still own it.
	Release(ctx context.Context) error
}

// NewLock creates a distributed lock using the best available backend.
// If redisClient is non-nil, uses Redis (preferred for cross-host locking).
// Otherwise falls back to PostgreSQL advisory locks, and to an in-process
// lock when there is no database either.
func NewLock(redisClient *redis.Client, db *sql.DB, key string, ttl time.Duration) DistLock {
	if redisClient != nil {
		return NewRedisLock(redisClient, key, ttl)
	}
	if db != nil {
		return NewPGAdvisoryLock(db, key)
	}
	return NewLocalLock(key)
}

// =============================================================================
// PostgreSQL Advisory Lock (fallback when Redis is unavailable)
// =============================================================================
// Uses pg_try_advisory_lock / pg_advisory_unlock which are session-scoped.
// The lock is automatically released if the DB connection drops, providing
// crash-safety similar to Redis TTL expiration. Lock and unlock must run on
// the same server session, so the connection is pinned while held.

// PGAdvisoryLock implements DistLock using PostgreSQL advisory locks.
type PGAdvisoryLock struct {
	db     *sql.DB
	lockID int64
	conn   *sql.Conn
}

// NewPGAdvisoryLock creates a PG advisory lock with a deterministic lock ID
// derived from the given key string.
func NewPGAdvisoryLock(db *sql.DB, key string) *PGAdvisoryLock {
	h := fnv.New64a()
	h.Write([]byte(key))
	return &PGAdvisoryLock{
		db:     db,
		lockID: int64(h.Sum64()),
	}
}

// Acquire tries to acquire the advisory lock. Returns true if successful.
// Uses pg_try_advisory_lock which returns immediately (non-blocking).
func (l *PGAdvisoryLock) Acquire(ctx context.Context) (bool, error) {
	if l.conn != nil {
		return true, nil
	}
	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("pinning connection: %w", err)
	}
	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", l.lockID).Scan(&acquired); err != nil {
		conn.Close()
		return false, err
	}
	if !acquired {
		conn.Close()
		return false, nil
	}
	l.conn = conn
	return true, nil
}

// Extend checks the pinned session is still alive; advisory locks have no TTL.
func (l *PGAdvisoryLock) Extend(ctx context.Context, _ time.Duration) error {
	if l.conn == nil {
		return ErrNotHeld
	}
	if err := l.conn.PingContext(ctx); err != nil {
		l.conn.Close()
		l.conn = nil
		return fmt.Errorf("%w: %v", ErrNotHeld, err)
	}
	return nil
}

// Release releases the advisory lock and returns the connection to the pool.
func (l *PGAdvisoryLock) Release(ctx context.Context) error {
	if l.conn == nil {
		return nil
	}
	_, err := l.conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", l.lockID)
	l.conn.Close()
	l.conn = nil
	return err
}

// =============================================================================
// In-process lock (single replica, no shared backend)
// =============================================================================

var (
	localMu   sync.Mutex
	localHeld = map[string]*LocalLock{}
)

// LocalLock only excludes holders within this process.
type LocalLock struct {
	key string
}

// NewLocalLock creates an in-process lock for key.
func NewLocalLock(key string) *LocalLock {
	return &LocalLock{key: key}
}

// Acquire takes the lock if no other LocalLock in this process holds key.
func (l *LocalLock) Acquire(context.Context) (bool, error) {
	localMu.Lock()
	defer localMu.Unlock()
	if holder, ok := localHeld[l.key]; ok {
		return holder == l, nil
	}
	localHeld[l.key] = l
	return true, nil
}

// Extend reports whether l still holds the lock.
func (l *LocalLock) Extend(context.Context, time.Duration) error {
	localMu.Lock()
	defer localMu.Unlock()
	if localHeld[l.key] != l {
		return ErrNotHeld
	}
	return nil
}

// Release frees the lock if l holds it.
func (l *LocalLock) Release(context.Context) error {
	localMu.Lock()
	defer localMu.Unlock()
	if localHeld[l.key] == l {
		delete(localHeld, l.key)
	}
	return nil
}
