// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package syncrw

import (
	"fmt"
	"testing"
	"time"

	"github.com/creachadair/taskgroup"
	qt "github.com/frankban/quicktest"
	"golang.org/x/sync/errgroup"
)

func TestZeroValueReady(t *testing.T) {
	c := qt.New(t)

	var l RwLock
	c.Assert(l.TryLockExclusive(), qt.IsTrue)
	l.UnlockExclusive()
	c.Assert(l.TryLockShared(), qt.IsTrue)
	l.UnlockShared()

	var m Mutex
	c.Assert(m.TryLock(), qt.IsTrue)
	m.Unlock()
}

func TestSharedHoldersBlockWriter(t *testing.T) {
	c := qt.New(t)
	var l RwLock

	const readers = 4
	for range readers {
		c.Assert(l.TryLockShared(), qt.IsTrue)
	}
	c.Check(l.IsLocked(), qt.IsTrue)
	c.Check(l.IsLockedExclusive(), qt.IsFalse)
	c.Check(l.TryLockExclusive(), qt.IsFalse)

	acquired := make(chan struct{})
	var g errgroup.Group
	g.Go(func() error {
		l.LockExclusive() // blocks until all readers release
		close(acquired)
		l.UnlockExclusive()
		return nil
	})

	// Give the writer a chance to misbehave.
	select {
	case <-acquired:
		t.Fatal("writer acquired the lock while readers held it")
	case <-time.After(10 * time.Millisecond):
	}

	for range readers {
		l.UnlockShared()
	}
	c.Assert(g.Wait(), qt.IsNil)
	<-acquired
	c.Check(l.IsLocked(), qt.IsFalse)
}

func TestWriterExcludesAll(t *testing.T) {
	c := qt.New(t)
	var l RwLock

	l.LockExclusive()
	c.Check(l.IsLocked(), qt.IsTrue)
	c.Check(l.IsLockedExclusive(), qt.IsTrue)
	c.Check(l.TryLockShared(), qt.IsFalse)
	c.Check(l.TryLockSharedRecursive(), qt.IsFalse)
	c.Check(l.TryLockExclusive(), qt.IsFalse)

	l.UnlockExclusive()
	c.Check(l.IsLocked(), qt.IsFalse)
	c.Check(l.IsLockedExclusive(), qt.IsFalse)
	c.Assert(l.TryLockShared(), qt.IsTrue)
	l.UnlockShared()
}

func TestRecursiveSharedStacks(t *testing.T) {
	c := qt.New(t)
	var l RwLock

	// With no writer waiting, recursive shared acquisition on one
	// goroutine stacks just like on the cell backend.
	l.LockShared()
	l.LockSharedRecursive()
	c.Assert(l.TryLockSharedRecursive(), qt.IsTrue)
	c.Check(l.IsLocked(), qt.IsTrue)
	l.UnlockShared()
	l.UnlockShared()
	l.UnlockShared()
	c.Check(l.IsLocked(), qt.IsFalse)
}

func TestMutexExcludes(t *testing.T) {
	c := qt.New(t)
	var m Mutex

	const (
		workers = 4
		iters   = 1000
	)
	var count int
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for range iters {
				m.Lock()
				count++
				m.Unlock()
			}
			return nil
		})
	}
	c.Assert(g.Wait(), qt.IsNil)
	c.Check(count, qt.Equals, workers*iters)
}

func TestMutexHeldReporting(t *testing.T) {
	c := qt.New(t)
	var m Mutex

	c.Check(m.IsLocked(), qt.IsFalse)
	m.Lock()
	c.Check(m.IsLocked(), qt.IsTrue)
	c.Check(m.TryLock(), qt.IsFalse)
	m.Unlock()
	c.Check(m.IsLocked(), qt.IsFalse)
}

// TestStress hammers an RwLock with concurrent readers and writers.
// Writers keep two variables equal; any reader observing them unequal
// proves a broken critical section.
func TestStress(t *testing.T) {
	var l RwLock
	var a, b int // kept equal under l

	var g taskgroup.Group
	for range 4 {
		g.Go(func() error {
			for range 500 {
				l.LockShared()
				ga, gb := a, b
				l.UnlockShared()
				if ga != gb {
					return fmt.Errorf("torn read: a=%d b=%d", ga, gb)
				}
			}
			return nil
		})
	}
	for range 2 {
		g.Go(func() error {
			for i := range 500 {
				l.LockExclusive()
				a = i
				b = i
				l.UnlockExclusive()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
	if l.IsLocked() {
		t.Error("lock still held after stress run")
	}
}
