// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

//go:build !celllock_omit_borrowloc

package cell

// TracksBorrowLocation reports whether this build records where the
// earliest active borrow of each lock was taken, for use in conflict
// diagnostics. It is true unless the celllock_omit_borrowloc build tag
// is set.
const TracksBorrowLocation = true

// debugChecks gates the precondition assertions in the unlock paths.
// It rides the same build tag as location tracking.
const debugChecks = true

type borrowLoc = callerLoc
