// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

package logger

import (
	"fmt"
	"log"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

// logRecorder returns a Logf that appends formatted messages to a
// slice for later comparison.
func logRecorder(got *[]string) Logf {
	return func(format string, args ...any) {
		*got = append(*got, fmt.Sprintf(format, args...))
	}
}

func TestWithPrefix(t *testing.T) {
	var got []string
	lg := WithPrefix(logRecorder(&got), "stress: ")
	lg("workers=%d", 4)
	lg("done")

	want := []string{"stress: workers=4", "stress: done"}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("logged lines (-got+want):\n%s", diff)
	}
}

func TestFuncWriter(t *testing.T) {
	w := FuncWriter(t.Logf)
	lg := log.New(w, "prefix: ", 0)
	lg.Printf("plumbed through")
}

func TestStdLogger(t *testing.T) {
	var got []string
	lg := StdLogger(logRecorder(&got))
	lg.Printf("value=%v", 7)

	want := []string{"value=7\n"}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("logged lines (-got+want):\n%s", diff)
	}
}

func TestDiscard(t *testing.T) {
	Discard("this goes %s", "nowhere")
}

func TestRateLimitedFn(t *testing.T) {
	var got []string
	// A refill interval of an hour means no tokens come back during
	// the test; only the burst gets through.
	lg := RateLimitedFn(logRecorder(&got), time.Hour, 2, 50)

	lg("spam %d", 1)
	lg("spam %d", 2)
	lg("spam %d", 3) // over burst: suppression notice
	lg("spam %d", 4) // silently dropped
	lg("spam %d", 5) // silently dropped
	lg("other format %v", true)

	want := []string{
		"spam 1",
		"spam 2",
		`[RATE LIMITED] format string "spam %d" (example: "spam 3")`,
		"other format true",
	}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("logged lines (-got+want):\n%s", diff)
	}
}

// TestRateLimitedFnCacheEviction verifies that evicting a format from
// the LRU forgets its rate-limit state.
func TestRateLimitedFnCacheEviction(t *testing.T) {
	var got []string
	lg := RateLimitedFn(logRecorder(&got), time.Hour, 1, 2)

	lg("a")
	lg("b")
	lg("c") // evicts "a" from the two-entry cache
	lg("a") // fresh bucket: allowed again

	want := []string{"a", "b", "c", "a"}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Errorf("logged lines (-got+want):\n%s", diff)
	}
}
