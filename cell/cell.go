// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package cell implements single-goroutine read/write locks that never
// block. They keep a signed borrow count in the spirit of an interior
// mutability cell: any number of shared holders, or one exclusive
// holder, and a conflicting Lock call panics with a [*BorrowError]
// instead of waiting for a release that could never come on the same
// goroutine.
//
// By default each lock also records the file:line of its earliest
// active borrow so the panic can say who is in the way. Builds with
// the "celllock_omit_borrowloc" tag drop the recording, the unlock
// state checks, and the associated cost.
//
// The locks contain no synchronization at all, so sharing one across
// goroutines is a data race; the race detector reports such misuse.
package cell

// noCopy triggers `go vet -copylocks` when a containing struct is
// copied by value.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// entrySkip is the stack distance from a tryAcquire* call to the
// user frame that invoked the exported method: tryAcquire* itself,
// the unexported helper, and the exported method.
const entrySkip = 3

// An RwLock is a non-blocking single-goroutine reader/writer lock.
// It admits any number of shared holders or a single exclusive
// holder; a Lock call that cannot be admitted panics rather than
// blocking. The zero value is an unlocked RwLock.
//
// An RwLock must not be copied after first use.
type RwLock struct {
	noCopy  noCopy
	borrows borrowCounter
}

// LockShared acquires a shared borrow, which stacks with other shared
// borrows. It panics with a [*BorrowError] if an exclusive borrow is
// held.
func (l *RwLock) LockShared() { l.lockShared(entrySkip) }

// TryLockShared acquires a shared borrow and reports whether it
// succeeded. It fails only while an exclusive borrow is held.
func (l *RwLock) TryLockShared() bool { return l.tryLockShared(entrySkip) }

// UnlockShared releases one shared borrow. It must pair with a
// successful LockShared or TryLockShared; unpaired calls corrupt the
// borrow count and panic when the build carries state checks.
func (l *RwLock) UnlockShared() { l.borrows.releaseShared() }

// LockExclusive acquires the exclusive borrow. It panics with a
// [*BorrowError] if any borrow is held, including a shared one taken
// earlier on the same goroutine.
func (l *RwLock) LockExclusive() { l.lockExclusive(entrySkip) }

// TryLockExclusive acquires the exclusive borrow and reports whether
// it succeeded. It fails while any borrow is held.
func (l *RwLock) TryLockExclusive() bool { return l.tryLockExclusive(entrySkip) }

// UnlockExclusive releases the exclusive borrow. It must pair with a
// successful LockExclusive or TryLockExclusive; unpaired calls corrupt
// the borrow count and panic when the build carries state checks.
func (l *RwLock) UnlockExclusive() { l.borrows.releaseExclusive() }

// LockSharedRecursive acquires a shared borrow like LockShared.
// Shared borrows always stack here, so recursive acquisition needs no
// special handling; the method exists for callers written against
// lock implementations where a plain shared lock may deadlock when
// re-acquired around a waiting writer.
func (l *RwLock) LockSharedRecursive() { l.lockShared(entrySkip) }

// TryLockSharedRecursive is the try variant of LockSharedRecursive.
func (l *RwLock) TryLockSharedRecursive() bool { return l.tryLockShared(entrySkip) }

// IsLocked reports whether any borrow is held.
func (l *RwLock) IsLocked() bool { return l.borrows.isLocked() }

// IsLockedExclusive reports whether the exclusive borrow is held.
func (l *RwLock) IsLockedExclusive() bool { return l.borrows.isLockedExclusive() }

// HolderLocation returns the file:line of the earliest active borrow.
// ok is false when the lock is unused or the build omits location
// tracking.
func (l *RwLock) HolderLocation() (loc string, ok bool) {
	if s := l.borrows.holderLocation(); s != "" {
		return s, true
	}
	return "", false
}

func (l *RwLock) lockShared(callerSkip int) {
	if err := l.borrows.tryAcquireShared(callerSkip); err != nil {
		panic(err)
	}
}

func (l *RwLock) tryLockShared(callerSkip int) bool {
	return l.borrows.tryAcquireShared(callerSkip) == nil
}

func (l *RwLock) lockExclusive(callerSkip int) {
	if err := l.borrows.tryAcquireExclusive(callerSkip); err != nil {
		panic(err)
	}
}

func (l *RwLock) tryLockExclusive(callerSkip int) bool {
	return l.borrows.tryAcquireExclusive(callerSkip) == nil
}

// A Mutex is a non-blocking single-goroutine mutual exclusion lock,
// equivalent to the exclusive half of an [RwLock]. A Lock call while
// the Mutex is held panics rather than blocking. The zero value is an
// unlocked Mutex.
//
// A Mutex must not be copied after first use.
type Mutex struct {
	rw RwLock
}

// Lock acquires the lock. It panics with a [*BorrowError] if the
// Mutex is already locked, since on a single goroutine no other
// holder could ever release it.
func (m *Mutex) Lock() { m.rw.lockExclusive(entrySkip) }

// TryLock acquires the lock and reports whether it succeeded.
func (m *Mutex) TryLock() bool { return m.rw.tryLockExclusive(entrySkip) }

// Unlock releases the lock. It must pair with a successful Lock or
// TryLock; unpaired calls corrupt the lock state and panic when the
// build carries state checks.
func (m *Mutex) Unlock() { m.rw.borrows.releaseExclusive() }

// IsLocked reports whether the Mutex is locked.
func (m *Mutex) IsLocked() bool { return m.rw.borrows.isLocked() }

// HolderLocation returns the file:line where the Mutex was locked.
// ok is false when the Mutex is unlocked or the build omits location
// tracking.
func (m *Mutex) HolderLocation() (loc string, ok bool) {
	return m.rw.HolderLocation()
}
