// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package syncrw provides blocking, goroutine-safe locks with the same
// method sets as the single-goroutine locks in package cell, so code
// written against the generic lock interfaces can swap between the two
// backends without modification.
//
// The locks wrap sync.Mutex and sync.RWMutex and add held-state
// counters so that IsLocked and IsLockedExclusive exist on this
// backend too. Those reports are best effort: by the time a caller
// acts on one, another goroutine may have changed the lock state.
package syncrw

import (
	"sync"
	"sync/atomic"
)

// An RwLock is a blocking reader/writer lock. Any number of
// goroutines may hold it shared, or one may hold it exclusive.
// The zero value is an unlocked RwLock.
type RwLock struct {
	mu      sync.RWMutex
	write   atomic.Bool  // an exclusive holder exists
	readers atomic.Int32 // number of shared holders
}

// LockShared acquires a shared borrow, blocking until no exclusive
// holder remains.
func (l *RwLock) LockShared() {
	l.mu.RLock()
	l.readers.Add(1)
}

// TryLockShared acquires a shared borrow without blocking and reports
// whether it succeeded.
func (l *RwLock) TryLockShared() bool {
	if !l.mu.TryRLock() {
		return false
	}
	l.readers.Add(1)
	return true
}

// UnlockShared releases one shared borrow. It must pair with a
// successful LockShared or TryLockShared.
func (l *RwLock) UnlockShared() {
	l.readers.Add(-1)
	l.mu.RUnlock()
}

// LockExclusive acquires the exclusive borrow, blocking until all
// other holders release.
func (l *RwLock) LockExclusive() {
	l.mu.Lock()
	l.write.Store(true)
}

// TryLockExclusive acquires the exclusive borrow without blocking and
// reports whether it succeeded.
func (l *RwLock) TryLockExclusive() bool {
	if !l.mu.TryLock() {
		return false
	}
	l.write.Store(true)
	return true
}

// UnlockExclusive releases the exclusive borrow. It must pair with a
// successful LockExclusive or TryLockExclusive.
func (l *RwLock) UnlockExclusive() {
	l.write.Store(false)
	l.mu.Unlock()
}

// LockSharedRecursive acquires a shared borrow. Unlike the cell
// backend, sync.RWMutex gives waiting writers priority over new
// readers, so a goroutine that already holds a shared borrow can
// deadlock here if a writer is waiting. Callers relying on recursive
// shared acquisition should prefer the cell backend or restructure to
// avoid re-entry.
func (l *RwLock) LockSharedRecursive() { l.LockShared() }

// TryLockSharedRecursive is the try variant of LockSharedRecursive.
// It fails rather than deadlocks when a writer is waiting.
func (l *RwLock) TryLockSharedRecursive() bool { return l.TryLockShared() }

// IsLocked reports whether any holder existed at some instant during
// the call.
func (l *RwLock) IsLocked() bool {
	return l.write.Load() || l.readers.Load() > 0
}

// IsLockedExclusive reports whether an exclusive holder existed at
// some instant during the call.
func (l *RwLock) IsLockedExclusive() bool {
	return l.write.Load()
}

// A Mutex is a blocking mutual exclusion lock with held-state
// reporting. The zero value is an unlocked Mutex.
type Mutex struct {
	mu   sync.Mutex
	held atomic.Bool
}

// Lock acquires the lock, blocking until it is available.
func (m *Mutex) Lock() {
	m.mu.Lock()
	m.held.Store(true)
}

// TryLock acquires the lock without blocking and reports whether it
// succeeded.
func (m *Mutex) TryLock() bool {
	if !m.mu.TryLock() {
		return false
	}
	m.held.Store(true)
	return true
}

// Unlock releases the lock. It must pair with a successful Lock or
// TryLock.
func (m *Mutex) Unlock() {
	m.held.Store(false)
	m.mu.Unlock()
}

// IsLocked reports whether the lock was held at some instant during
// the call.
func (m *Mutex) IsLocked() bool {
	return m.held.Load()
}
