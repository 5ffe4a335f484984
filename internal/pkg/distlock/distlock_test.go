package distlock

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return mr, client
}

func TestRedisLock_Exclusive(t *testing.T) {
	ctx := context.Background()
	_, client := newRedis(t)

	a := NewRedisLock(client, "poller", time.Minute)
	b := NewRedisLock(client, "poller", time.Minute)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "second holder must be refused")

	// b cannot release a's lock
	require.NoError(t, b.Release(ctx))
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, a.Release(ctx))
	ok, err = b.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisLock_ExtendAfterExpiry(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	l := NewRedisLock(client, "poller", 10*time.Second)
	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, l.Extend(ctx, 30*time.Second))
	assert.Equal(t, 30*time.Second, mr.TTL("lock:poller"))

	mr.FastForward(31 * time.Second)
	assert.ErrorIs(t, l.Extend(ctx, 30*time.Second), ErrNotHeld)
}

func TestRedisLock_ReacquireAndHolder(t *testing.T) {
	ctx := context.Background()
	mr, client := newRedis(t)

	a := NewRedisLock(client, "poller", 10*time.Second)
	holder, err := a.Holder(ctx)
	require.NoError(t, err)
	assert.Empty(t, holder)

	ok, err := a.Acquire(ctx)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(8 * time.Second)
	ok, err = a.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok, "holder re-acquires its own lease")
	assert.Equal(t, 10*time.Second, mr.TTL("lock:poller"))

	b := NewRedisLock(client, "poller", 10*time.Second)
	holder, err = b.Holder(ctx)
	require.NoError(t, err)
	assert.Equal(t, a.token, holder)
	assert.Contains(t, holder, "/")
}

func TestNewLock_Backends(t *testing.T) {
	_, client := newRedis(t)
	assert.IsType(t, &RedisLock{}, NewLock(client, nil, "k", time.Second))

	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	assert.IsType(t, &PGAdvisoryLock{}, NewLock(nil, db, "k", time.Second))

	assert.IsType(t, &LocalLock{}, NewLock(nil, nil, "k", time.Second))
}

func TestPGAdvisoryLock(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "poller")

	mock.ExpectQuery(`SELECT pg_try_advisory_lock\(\$1\)`).
		WithArgs(l.lockID).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(true))
	mock.ExpectExec(`SELECT pg_advisory_unlock\(\$1\)`).
		WithArgs(l.lockID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, l.Extend(ctx, time.Minute))

	require.NoError(t, l.Release(ctx))
	assert.ErrorIs(t, l.Extend(ctx, time.Minute), ErrNotHeld)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPGAdvisoryLock_Busy(t *testing.T) {
	ctx := context.Background()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	l := NewPGAdvisoryLock(db, "poller")
	mock.ExpectQuery(`SELECT pg_try_advisory_lock`).
		WillReturnRows(sqlmock.NewRows([]string{"pg_try_advisory_lock"}).AddRow(false))

	ok, err := l.Acquire(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	// Nothing held, so release issues no query.
	assert.NoError(t, l.Release(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLocalLock(t *testing.T) {
	ctx := context.Background()
	a := NewLocalLock("local-test")
	b := NewLocalLock("local-test")

	ok, _ := a.Acquire(ctx)
	assert.True(t, ok)
	ok, _ = a.Acquire(ctx)
	assert.True(t, ok, "reacquire by the holder succeeds")
	ok, _ = b.Acquire(ctx)
	assert.False(t, ok)
	assert.ErrorIs(t, b.Extend(ctx, 0), ErrNotHeld)

	require.NoError(t, a.Release(ctx))
	ok, _ = b.Acquire(ctx)
	assert.True(t, ok)
	require.NoError(t, b.Release(ctx))
}
