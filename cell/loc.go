// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package cell

import (
	"runtime"
	"strconv"
	"strings"
)

// callerLoc remembers where a borrow was taken. It stores raw program
// counters so the acquire path never symbolizes; the file:line lookup
// happens only when a failed borrow needs a message.
type callerLoc struct {
	pcs [4]uintptr
	n   int
}

// capture records the call stack starting skip frames above capture's
// caller; skip = 0 starts at the caller itself.
func (l *callerLoc) capture(skip int) {
	l.n = runtime.Callers(skip+2, l.pcs[:])
}

// location resolves the recorded stack to a single file:line, choosing
// the innermost frame that is not lock plumbing so the result names
// the code that took the borrow rather than a wrapper method.
func (l *callerLoc) location() (loc string, ok bool) {
	if l.n == 0 {
		return "", false
	}
	frames := runtime.CallersFrames(l.pcs[:l.n])
	var first runtime.Frame
	for i := 0; ; i++ {
		f, more := frames.Next()
		if i == 0 {
			first = f
		}
		if f.File != "" && !plumbingFrame(f.Function, f.File) {
			return formatFrame(f), true
		}
		if !more {
			break
		}
	}
	if first.File == "" {
		return "", false
	}
	return formatFrame(first), true
}

func (l *callerLoc) clear() { *l = callerLoc{} }

// modulePath is this lock's module, used to recognize our own wrapper
// frames when resolving a borrow location.
const modulePath = "github.com/tailscale/celllock"

// plumbingFrame reports whether a frame belongs to the lock
// implementation itself (this package or the wrapper package at the
// module root) rather than to the code that took the borrow. Test
// files count as callers even inside those packages.
func plumbingFrame(fn, file string) bool {
	if strings.HasSuffix(file, "_test.go") {
		return false
	}
	rest, ok := strings.CutPrefix(fn, modulePath)
	if !ok {
		return false
	}
	return strings.HasPrefix(rest, ".") || strings.HasPrefix(rest, "/cell.")
}

func formatFrame(f runtime.Frame) string {
	return shortFile(f.File) + ":" + strconv.Itoa(f.Line)
}

// shortFile trims file to its last two path elements, enough to tell
// call sites apart without the noise of a full build path.
func shortFile(file string) string {
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		if j := strings.LastIndexByte(file[:i], '/'); j >= 0 {
			return file[j+1:]
		}
	}
	return file
}

// noLoc is the location store for builds that omit borrow tracking.
// It compiles to nothing.
type noLoc struct{}

func (noLoc) capture(int) {}

func (noLoc) location() (string, bool) { return "", false }

func (noLoc) clear() {}
