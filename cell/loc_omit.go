// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build celllock_omit_borrowloc

package cell

// TracksBorrowLocation is false in builds with the
// celllock_omit_borrowloc tag: borrow counters carry no location field
// and conflict diagnostics name only the kind of the existing borrow.
const TracksBorrowLocation = false

const debugChecks = false

type borrowLoc = noLoc
