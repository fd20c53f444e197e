package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ShortlistCache is the read cache and distributed lock used by the
// matching usecase. A cache that cannot reach its backend degrades to
// misses and no-op locks.
type ShortlistCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Lock(ctx context.Context, name string, ttl, wait time.Duration) (func(), error)
}

func shortlistCacheKey(jobID uuid.UUID) string {
	return "shortlist:" + jobID.String()
}

func shortlistLockName(jobID uuid.UUID) string {
	return "shortlist:" + jobID.String()
}

// keyedMutex serializes work per job id inside one process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[uuid.UUID]*refMutex)}
}

func (k *keyedMutex) Lock(id uuid.UUID) func() {
	k.mu.Lock()
	m, ok := k.locks[id]
	if !ok {
		m = &refMutex{}
		k.locks[id] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, id)
		}
		k.mu.Unlock()
	}
}
