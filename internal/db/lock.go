package db

import (
	"context"
	"hash/fnv"

	"github.com/rotisserie/eris"
)

// LockKey derives a stable 64-bit advisory lock key from a scope name.
func LockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte(name))
	return int64(h.Sum64())
}

// TryAdvisoryLock attempts to take a session-level advisory lock for the
// given scope name. Returns false without error when another session
// already holds the lock.
func TryAdvisoryLock(ctx context.Context, pool Pool, name string) (bool, error) {
	var acquired bool
	err := pool.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, LockKey(name)).Scan(&acquired)
	if err != nil {
		return false, eris.Wrapf(err, "db: try advisory lock %s", name)
	}
	return acquired, nil
}

// AdvisoryUnlock releases a session-level advisory lock taken with
// TryAdvisoryLock.
func AdvisoryUnlock(ctx context.Context, pool Pool, name string) error {
	var released bool
	err := pool.QueryRow(ctx, `SELECT pg_advisory_unlock($1)`, LockKey(name)).Scan(&released)
	if err != nil {
		return eris.Wrapf(err, "db: advisory unlock %s", name)
	}
	if !released {
		return eris.Errorf("db: advisory lock %s was not held", name)
	}
	return nil
}
