// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package celllock

import (
	"sync"

	"github.com/tailscale/celllock/cell"
	"github.com/tailscale/celllock/syncrw"
)

// A RawMutex is an exclusive-only lock. Implementations must be
// usable in their zero value as an unlocked lock.
//
// Lock acquires the lock. Blocking implementations wait for the
// holder to release; non-blocking ones (the cell backend) panic on
// conflict, since no other holder on the same goroutine could ever
// release. Unlock requires that the caller holds the lock; the
// implementation is not obliged to detect violations.
type RawMutex interface {
	sync.Locker

	// TryLock acquires the lock without blocking and reports
	// whether it succeeded.
	TryLock() bool

	// IsLocked reports whether the lock is held. On concurrent
	// implementations the answer may be stale by the time it is
	// returned.
	IsLocked() bool
}

// A RawRwLock is a reader/writer lock admitting any number of shared
// holders or one exclusive holder. Implementations must be usable in
// their zero value as an unlocked lock.
//
// The blocking entry points follow the same policy as [RawMutex.Lock]:
// wait on concurrent implementations, panic on conflict on
// single-goroutine ones. The Unlock* methods require that the caller
// holds the corresponding borrow.
type RawRwLock interface {
	LockShared()
	TryLockShared() bool
	UnlockShared()

	LockExclusive()
	TryLockExclusive() bool
	UnlockExclusive()

	IsLocked() bool
	IsLockedExclusive() bool
}

// A RawRwLockRecursive is a [RawRwLock] whose shared borrows may be
// re-acquired by a holder without deadlock. On implementations where
// shared borrows always stack (the cell backend) the recursive entry
// points are aliases of the plain shared ones.
type RawRwLockRecursive interface {
	RawRwLock

	LockSharedRecursive()
	TryLockSharedRecursive() bool
}

var (
	_ RawMutex           = (*cell.Mutex)(nil)
	_ RawMutex           = (*syncrw.Mutex)(nil)
	_ RawRwLockRecursive = (*cell.RwLock)(nil)
	_ RawRwLockRecursive = (*syncrw.RwLock)(nil)
)
