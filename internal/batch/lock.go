package batch

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Guard releases a held job lock. Release must be safe to call on all exit
// paths, including after failures.
type Guard interface {
	Release(ctx context.Context) error
}

// JobLock is a named, non-blocking, process-wide mutual exclusion capability.
// TryAcquire returns ok=false without waiting when another run of the same
// job type holds the lock.
type JobLock interface {
	TryAcquire(ctx context.Context, job string) (Guard, bool, error)
}

// AdvisoryLock implements JobLock with Postgres session advisory locks, so
// exclusion holds across processes and hosts sharing the database.
type AdvisoryLock struct {
	pool *pgxpool.Pool
}

func NewAdvisoryLock(pool *pgxpool.Pool) *AdvisoryLock {
	return &AdvisoryLock{pool: pool}
}

func (l *AdvisoryLock) TryAcquire(ctx context.Context, job string) (Guard, bool, error) {
	// The lock is bound to the session, so the connection must stay held
	// until release.
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("acquire lock connection: %w", err)
	}

	key := lockKey(job)
	var ok bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&ok); err != nil {
		conn.Release()
		return nil, false, fmt.Errorf("try advisory lock %q: %w", job, err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}

	return &advisoryGuard{conn: conn, key: key}, true, nil
}

type advisoryGuard struct {
	conn *pgxpool.Conn
	key  int64
	once sync.Once
}

func (g *advisoryGuard) Release(ctx context.Context) error {
	var err error
	g.once.Do(func() {
		_, err = g.conn.Exec(ctx, `SELECT pg_advisory_unlock($1)`, g.key)
		g.conn.Release()
	})
	if err != nil {
		return fmt.Errorf("release advisory lock: %w", err)
	}
	return nil
}

func lockKey(job string) int64 {
	h := fnv.New64a()
	h.Write([]byte("pagwall:" + job))
	return int64(h.Sum64())
}

// MemoryLock implements JobLock within a single process. Used in tests and
// anywhere a database is not available.
type MemoryLock struct {
	mu   sync.Mutex
	held map[string]bool
}

func NewMemoryLock() *MemoryLock {
	return &MemoryLock{held: make(map[string]bool)}
}

func (l *MemoryLock) TryAcquire(ctx context.Context, job string) (Guard, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[job] {
		return nil, false, nil
	}
	l.held[job] = true
	return &memoryGuard{lock: l, job: job}, true, nil
}

type memoryGuard struct {
	lock *MemoryLock
	job  string
	once sync.Once
}

func (g *memoryGuard) Release(ctx context.Context) error {
	g.once.Do(func() {
		g.lock.mu.Lock()
		delete(g.lock.held, g.job)
		g.lock.mu.Unlock()
	})
	return nil
}
