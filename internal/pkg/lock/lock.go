// Package lock provides keyed locking for serializing pick mutations
// within one process.
package lock

import (
	"context"
	"sync"
	"time"
)

// keyMutex is a one-slot semaphore so that acquisition can be raced
// against a context. refs counts callers holding or waiting on it.
type keyMutex struct {
	sem  chan struct{}
	refs int
}

// KeyLock hands out one mutex per key. Keys are pick identifiers or
// fixed names such as the short id allocator. An entry lives only while
// some caller holds or waits on it.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*keyMutex
}

// NewKeyLock creates a new KeyLock instance.
func NewKeyLock() *KeyLock {
	return &KeyLock{locks: make(map[string]*keyMutex)}
}

func (kl *KeyLock) acquire(key string) *keyMutex {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	m, ok := kl.locks[key]
	if !ok {
		m = &keyMutex{sem: make(chan struct{}, 1)}
		kl.locks[key] = m
	}
	m.refs++
	return m
}

func (kl *KeyLock) release(key string, m *keyMutex) {
	kl.mu.Lock()
	defer kl.mu.Unlock()

	m.refs--
	if m.refs == 0 {
		delete(kl.locks, key)
	}
}

// WithLockContext executes fn while holding the lock for key, giving up
// with ErrLockTimeout if the lock is not acquired within timeout.
func (kl *KeyLock) WithLockContext(ctx context.Context, key string, timeout time.Duration, fn func() error) error {
	m := kl.acquire(key)
	defer kl.release(key, m)

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	select {
	case m.sem <- struct{}{}:
	case <-timeoutCtx.Done():
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrLockTimeout
	}
	defer func() { <-m.sem }()

	return fn()
}
