// Package locker provides short lived mutual exclusion keyed by string, used
// to reject duplicate submissions across service instances.
package locker

import (
	"context"
	"sync"
	"time"
)

// DistributedLocker grants a key to one holder at a time.
// Implementations must be safe for concurrent use.
//
//	acquired, err := l.Acquire(ctx, "upload:u1:movie:arrival", 30*time.Second)
//	if err != nil {
//	    return err
//	}
//	if !acquired {
//	    return ErrBusy
//	}
//	defer l.Release(context.WithoutCancel(ctx), "upload:u1:movie:arrival")
type DistributedLocker interface {
	// Acquire takes key without waiting. It returns false when another
	// holder has it. The key expires after ttl if never released.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release gives key back. Releasing a key this holder does not own is a
	// no-op.
	Release(ctx context.Context, key string) error
}

// MemoryLocker is a process local DistributedLocker for single instance
// deployments and tests.
type MemoryLocker struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewMemoryLocker creates an empty MemoryLocker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{
		expires: make(map[string]time.Time),
		now:     time.Now,
	}
}

// Acquire implements DistributedLocker.
func (m *MemoryLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if exp, held := m.expires[key]; held && now.Before(exp) {
		return false, nil
	}
	m.expires[key] = now.Add(ttl)

	return true, nil
}

// Release implements DistributedLocker.
func (m *MemoryLocker) Release(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.expires, key)
	m.mu.Unlock()

	return nil
}
