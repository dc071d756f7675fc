// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package celllock

import (
	"github.com/tailscale/celllock/cell"
	"github.com/tailscale/celllock/syncrw"
)

// A Mutex couples a value of type T with a [RawMutex] and exposes the
// value only through guards, so every access happens under the lock.
// Construct one with [NewMutex], [NewCellMutex], or [NewSyncMutex];
// the zero value has no raw lock and is not usable.
type Mutex[T any] struct {
	raw RawMutex
	val T
}

// NewMutex returns a Mutex guarding val with the given raw lock,
// which must be unlocked. It panics if raw is nil.
func NewMutex[T any](raw RawMutex, val T) *Mutex[T] {
	if raw == nil {
		panic("celllock: nil RawMutex")
	}
	return &Mutex[T]{raw: raw, val: val}
}

// NewCellMutex returns a Mutex guarding val with a single-goroutine
// [cell.Mutex].
func NewCellMutex[T any](val T) *Mutex[T] {
	return NewMutex(new(cell.Mutex), val)
}

// NewSyncMutex returns a Mutex guarding val with a blocking
// [syncrw.Mutex].
func NewSyncMutex[T any](val T) *Mutex[T] {
	return NewMutex(new(syncrw.Mutex), val)
}

// Lock acquires the lock and returns a guard for the value. With a
// cell-backed raw lock it panics on conflict instead of blocking.
func (m *Mutex[T]) Lock() *MutexGuard[T] {
	m.raw.Lock()
	return &MutexGuard[T]{m: m}
}

// TryLock acquires the lock without blocking. On failure it returns
// a nil guard and false.
func (m *Mutex[T]) TryLock() (*MutexGuard[T], bool) {
	if !m.raw.TryLock() {
		return nil, false
	}
	return &MutexGuard[T]{m: m}, true
}

// IsLocked reports whether the lock is held, with the staleness
// caveats of the underlying [RawMutex].
func (m *Mutex[T]) IsLocked() bool { return m.raw.IsLocked() }

// A MutexGuard represents a held [Mutex] and gives access to the
// guarded value. A guard from a cell-backed lock must be used and
// unlocked on the goroutine that acquired it.
type MutexGuard[T any] struct {
	m *Mutex[T] // nil after Unlock
}

// Value returns the guarded value. It panics if the guard has been
// unlocked.
func (g *MutexGuard[T]) Value() *T {
	if g.m == nil {
		panic("use after unlock")
	}
	return &g.m.val
}

// Unlock releases the lock. It panics if the guard has already been
// unlocked.
func (g *MutexGuard[T]) Unlock() {
	if g.m == nil {
		panic("already unlocked")
	}
	m := g.m
	g.m = nil
	m.raw.Unlock()
}

// An RwLock couples a value of type T with a [RawRwLock] and exposes
// it through read and write guards. Construct one with [NewRwLock],
// [NewCellRwLock], or [NewSyncRwLock]; the zero value has no raw lock
// and is not usable.
type RwLock[T any] struct {
	raw RawRwLock
	val T
}

// NewRwLock returns an RwLock guarding val with the given raw lock,
// which must be unlocked. It panics if raw is nil.
func NewRwLock[T any](raw RawRwLock, val T) *RwLock[T] {
	if raw == nil {
		panic("celllock: nil RawRwLock")
	}
	return &RwLock[T]{raw: raw, val: val}
}

// NewCellRwLock returns an RwLock guarding val with a
// single-goroutine [cell.RwLock].
func NewCellRwLock[T any](val T) *RwLock[T] {
	return NewRwLock(new(cell.RwLock), val)
}

// NewSyncRwLock returns an RwLock guarding val with a blocking
// [syncrw.RwLock].
func NewSyncRwLock[T any](val T) *RwLock[T] {
	return NewRwLock(new(syncrw.RwLock), val)
}

// Read acquires a shared borrow and returns a read guard. With a
// cell-backed raw lock it panics on conflict instead of blocking.
func (l *RwLock[T]) Read() *ReadGuard[T] {
	l.raw.LockShared()
	return &ReadGuard[T]{l: l}
}

// TryRead acquires a shared borrow without blocking. On failure it
// returns a nil guard and false.
func (l *RwLock[T]) TryRead() (*ReadGuard[T], bool) {
	if !l.raw.TryLockShared() {
		return nil, false
	}
	return &ReadGuard[T]{l: l}, true
}

// ReadRecursive acquires a shared borrow that is safe to take while
// the same goroutine already holds one, when the raw lock supports
// it; otherwise it behaves like [RwLock.Read].
func (l *RwLock[T]) ReadRecursive() *ReadGuard[T] {
	if raw, ok := l.raw.(RawRwLockRecursive); ok {
		raw.LockSharedRecursive()
	} else {
		l.raw.LockShared()
	}
	return &ReadGuard[T]{l: l}
}

// TryReadRecursive is the non-blocking variant of [RwLock.ReadRecursive].
func (l *RwLock[T]) TryReadRecursive() (*ReadGuard[T], bool) {
	ok := false
	if raw, isRec := l.raw.(RawRwLockRecursive); isRec {
		ok = raw.TryLockSharedRecursive()
	} else {
		ok = l.raw.TryLockShared()
	}
	if !ok {
		return nil, false
	}
	return &ReadGuard[T]{l: l}, true
}

// Write acquires the exclusive borrow and returns a write guard. With
// a cell-backed raw lock it panics on conflict instead of blocking.
func (l *RwLock[T]) Write() *WriteGuard[T] {
	l.raw.LockExclusive()
	return &WriteGuard[T]{l: l}
}

// TryWrite acquires the exclusive borrow without blocking. On failure
// it returns a nil guard and false.
func (l *RwLock[T]) TryWrite() (*WriteGuard[T], bool) {
	if !l.raw.TryLockExclusive() {
		return nil, false
	}
	return &WriteGuard[T]{l: l}, true
}

// IsLocked reports whether any borrow is held, with the staleness
// caveats of the underlying [RawRwLock].
func (l *RwLock[T]) IsLocked() bool { return l.raw.IsLocked() }

// IsLockedExclusive reports whether the exclusive borrow is held,
// with the staleness caveats of the underlying [RawRwLock].
func (l *RwLock[T]) IsLockedExclusive() bool { return l.raw.IsLockedExclusive() }

// A ReadGuard represents a shared borrow of an [RwLock]. The value it
// exposes may have other simultaneous readers, so callers must not
// mutate it. A guard from a cell-backed lock must be used and
// unlocked on the goroutine that acquired it.
type ReadGuard[T any] struct {
	l *RwLock[T] // nil after Unlock
}

// Value returns the guarded value for reading. It panics if the guard
// has been unlocked.
func (g *ReadGuard[T]) Value() *T {
	if g.l == nil {
		panic("use after unlock")
	}
	return &g.l.val
}

// Unlock releases the shared borrow. It panics if the guard has
// already been unlocked.
func (g *ReadGuard[T]) Unlock() {
	if g.l == nil {
		panic("already unlocked")
	}
	l := g.l
	g.l = nil
	l.raw.UnlockShared()
}

// A WriteGuard represents the exclusive borrow of an [RwLock]. A
// guard from a cell-backed lock must be used and unlocked on the
// goroutine that acquired it.
type WriteGuard[T any] struct {
	l *RwLock[T] // nil after Unlock
}

// Value returns the guarded value for reading or writing. It panics
// if the guard has been unlocked.
func (g *WriteGuard[T]) Value() *T {
	if g.l == nil {
		panic("use after unlock")
	}
	return &g.l.val
}

// Unlock releases the exclusive borrow. It panics if the guard has
// already been unlocked.
func (g *WriteGuard[T]) Unlock() {
	if g.l == nil {
		panic("already unlocked")
	}
	l := g.l
	g.l = nil
	l.raw.UnlockExclusive()
}
