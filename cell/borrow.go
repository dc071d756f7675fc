// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package cell

import (
	"math"
	"strings"
)

// borrowState classifies a borrow counter by the sign of its count.
type borrowState int8

const (
	unused borrowState = iota
	sharedBorrow
	mutableBorrow
)

func (s borrowState) String() string {
	switch s {
	case unused:
		return "unused"
	case sharedBorrow:
		return "shared"
	case mutableBorrow:
		return "exclusive"
	default:
		return "invalid"
	}
}

// borrowCounter tracks how many borrows of a lock are outstanding and of
// which kind. A positive count is the number of active shared borrows, a
// negative count the number of active exclusive borrows, and zero means
// the lock is unused. The admission rules below never grant a second
// exclusive borrow, so -1 is the only reachable negative value; the
// signed encoding leaves room for borrowing disjoint sub-objects
// exclusively, should that ever be wanted.
//
// The zero value is an unused counter.
type borrowCounter struct {
	count int

	// loc is where the earliest borrow of the current streak was taken.
	// Set whenever count != 0, cleared when the counter returns to
	// unused, and empty in builds without location tracking.
	loc borrowLoc
}

func (c *borrowCounter) state() borrowState {
	switch {
	case c.count < 0:
		return mutableBorrow
	case c.count > 0:
		return sharedBorrow
	default:
		return unused
	}
}

// tryAcquireExclusive attempts to take the sole exclusive borrow,
// which succeeds only when the counter is unused. On failure the
// counter is left unchanged and the error describes the existing
// holder. callerSkip is the stack distance to the frame recorded as
// the borrow location.
func (c *borrowCounter) tryAcquireExclusive(callerSkip int) *BorrowError {
	if c.state() != unused {
		return &BorrowError{exclusive: true, holder: c.holderLocation()}
	}
	c.count = -1
	c.loc.capture(callerSkip)
	return nil
}

// tryAcquireShared attempts to add a shared borrow, which succeeds
// unless an exclusive borrow is held. The location is recorded only
// for the first shared borrow of a streak; later ones keep the
// earliest holder on record.
func (c *borrowCounter) tryAcquireShared(callerSkip int) *BorrowError {
	if c.state() == mutableBorrow {
		return &BorrowError{exclusive: false, holder: c.holderLocation()}
	}
	if c.count == math.MaxInt {
		// Only reachable by leaking borrows in a loop. There is no
		// sensible recovery, so this aborts even on the try path.
		panic("cell: shared borrow count overflow")
	}
	if c.count == 0 {
		c.loc.capture(callerSkip)
	}
	c.count++
	return nil
}

// releaseShared undoes one shared borrow. The caller must hold one;
// the counter verifies that only when debugChecks is set.
func (c *borrowCounter) releaseShared() {
	if debugChecks && c.state() != sharedBorrow {
		panic("cell: shared unlock of " + c.state().String() + " lock")
	}
	c.count--
	if c.count == 0 {
		c.loc.clear()
	}
}

// releaseExclusive undoes the exclusive borrow. The caller must hold
// it; the counter verifies that only when debugChecks is set.
func (c *borrowCounter) releaseExclusive() {
	if debugChecks && c.state() != mutableBorrow {
		panic("cell: exclusive unlock of " + c.state().String() + " lock")
	}
	c.count++
	if c.count == 0 {
		c.loc.clear()
	}
}

func (c *borrowCounter) isLocked() bool { return c.count != 0 }

func (c *borrowCounter) isLockedExclusive() bool { return c.count < 0 }

// holderLocation returns the recorded location of the earliest active
// borrow, or "" when none is recorded.
func (c *borrowCounter) holderLocation() string {
	s, ok := c.loc.location()
	if !ok {
		return ""
	}
	return s
}

// A BorrowError describes a refused borrow: which kind of borrow was
// attempted and, when tracked, where the conflicting earlier borrow
// was taken. The blocking lock entry points panic with a *BorrowError;
// the TryLock variants discard it and report plain failure.
type BorrowError struct {
	exclusive bool   // an exclusive borrow was attempted
	holder    string // location of the earliest active borrow, if tracked
}

// Exclusive reports whether the refused attempt was for an exclusive
// borrow. If false, the attempt was shared and the refusing holder was
// necessarily exclusive.
func (e *BorrowError) Exclusive() bool { return e.exclusive }

// HolderLocation returns the file:line of the earliest active borrow
// at the time of the refusal. ok is false in builds without location
// tracking; see [TracksBorrowLocation].
func (e *BorrowError) HolderLocation() (loc string, ok bool) {
	return e.holder, e.holder != ""
}

func (e *BorrowError) Error() string {
	var sb strings.Builder
	sb.WriteString("unable to ")
	if e.exclusive {
		sb.WriteString("exclusively ")
	}
	sb.WriteString("borrow")
	if e.holder != "" {
		if e.exclusive {
			sb.WriteString(": already borrowed at ")
		} else {
			sb.WriteString(": exclusively borrowed at ")
		}
		sb.WriteString(e.holder)
	}
	return sb.String()
}
