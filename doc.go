// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// Package celllock provides non-blocking read/write locks for
// single-goroutine use, with the borrow-checking semantics of an
// interior mutability cell, behind small lock interfaces that let the
// same calling code later swap in real blocking locks.
//
// Two backends implement the interfaces:
//
//   - [github.com/tailscale/celllock/cell]: single-goroutine locks
//     that never block. A conflicting Lock call panics with a
//     [cell.BorrowError] naming the conflict and, by default, the
//     location of the earliest conflicting borrow.
//   - [github.com/tailscale/celllock/syncrw]: goroutine-safe blocking
//     locks built on the sync package, for when the same code later
//     runs concurrently.
//
// The [Mutex] and [RwLock] types couple a value with a raw lock from
// either backend and hand out guards that expose the value until
// unlocked:
//
//	type Config struct {
//		Peers []string
//	}
//
//	func main() {
//		cfg := celllock.NewCellRwLock(Config{})
//
//		w := cfg.Write()
//		w.Value().Peers = append(w.Value().Peers, "10.0.0.1")
//		w.Unlock()
//
//		r := cfg.Read()
//		fmt.Println(r.Value().Peers) // [10.0.0.1]
//		r.Unlock()
//	}
//
// Swapping [NewCellRwLock] for [NewSyncRwLock] changes nothing else
// in the calling code; reads and writes then block instead of
// panicking on conflict.
//
// Guards obtained from a cell-backed lock must be used and unlocked
// on the goroutine that acquired them, like the lock itself. Builds
// with the celllock_omit_borrowloc tag drop borrow location tracking
// and the unlock state checks from the cell backend; see
// [cell.TracksBorrowLocation].
package celllock
