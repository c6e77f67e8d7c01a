package datastore

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bsm/redislock"
	"github.com/mmdatafocus/insights_backend/config"
)

// Loader builds a fresh Snapshot from some backing source.
type Loader func(ctx context.Context) (*Snapshot, error)

// Store publishes the current Snapshot to concurrent readers. Readers call
// Current and keep computing against the pointer they got; Reload builds a
// complete replacement snapshot first and only then swaps it in, so an
// in-flight computation never observes a partially-updated table.
type Store struct {
	current atomic.Pointer[Snapshot]
	loader  Loader
	mu      sync.Mutex
}

func NewStore(loader Loader) *Store {
	s := &Store{loader: loader}
	s.current.Store(NewSnapshot(nil, nil, nil, "empty"))
	return s
}

// Current never returns nil; before the first successful load it returns an
// empty snapshot, which engines report as zero coverage rather than erroring.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

// Reload builds and atomically publishes a fresh snapshot. Reloads are
// serialized within the process; when Redis is configured, a best-effort
// distributed lock also keeps replicas from reloading simultaneously.
// Correctness does not depend on the lock.
func (s *Store) Reload(ctx context.Context) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if locker := config.GetRedisLock(); locker != nil {
		lock, err := locker.Obtain(ctx, "insights:snapshot-reload", 30*time.Second, nil)
		if err == nil {
			defer lock.Release(ctx)
		} else if err != redislock.ErrNotObtained {
			config.LogError(config.GetLogger(), "datastore", "Reload", "redislock.Obtain", nil, err)
		}
	}

	snap, err := s.loader(ctx)
	if err != nil {
		return nil, err
	}
	s.current.Store(snap)
	return snap, nil
}
