// Copyright (c) Tailscale Inc & AUTHORS
// SPDX-License-Identifier: BSD-3-Clause

// The lockstress command hammers a lock backend and reports
// throughput, as a quick way to compare the single-goroutine cell
// backend against the blocking sync backend and to shake out torn
// reads under load.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"sync/atomic"
	"time"

	"github.com/creachadair/taskgroup"
	"github.com/peterbourgon/ff/v3"
	"github.com/tailscale/celllock"
	"github.com/tailscale/celllock/logger"
)

func main() {
	fs := flag.NewFlagSet("lockstress", flag.ContinueOnError)
	var (
		backend  = fs.String("backend", "cell", "lock backend to exercise: cell or sync")
		workers  = fs.Int("workers", 1, "concurrent workers; must be 1 with -backend=cell")
		duration = fs.Duration("duration", 2*time.Second, "how long to run")
		readPct  = fs.Int("read-pct", 90, "percentage of operations that are reads")
		quiet    = fs.Bool("quiet", false, "suppress output")
	)
	if err := ff.Parse(fs, os.Args[1:], ff.WithEnvVarPrefix("CELLLOCK")); err != nil {
		log.Fatal(err)
	}

	logf := logger.Logf(log.Printf)
	if *quiet {
		logf = logger.Discard
	}
	cfg := config{
		backend:  *backend,
		workers:  *workers,
		duration: *duration,
		readPct:  *readPct,
	}
	if err := run(cfg, logf); err != nil {
		log.Fatal(err)
	}
}

type config struct {
	backend  string
	workers  int
	duration time.Duration
	readPct  int
}

func run(cfg config, logf logger.Logf) error {
	if cfg.readPct < 0 || cfg.readPct > 100 {
		return fmt.Errorf("read-pct %d out of range 0-100", cfg.readPct)
	}
	if cfg.duration <= 0 {
		return fmt.Errorf("duration must be positive, not %v", cfg.duration)
	}
	switch cfg.backend {
	case "cell":
		return runCell(cfg, logf)
	case "sync":
		return runSync(cfg, logf)
	default:
		return fmt.Errorf("unknown backend %q (want cell or sync)", cfg.backend)
	}
}

// pair is the guarded workload value. Writers bump both halves under
// the exclusive borrow; any reader seeing them differ has caught a
// broken critical section.
type pair [2]uint64

// runCell drives the single-goroutine backend in a tight loop and
// reports the cost per operation.
func runCell(cfg config, logf logger.Logf) error {
	if cfg.workers != 1 {
		return fmt.Errorf("cell backend is single-goroutine; -workers must be 1, not %d", cfg.workers)
	}
	l := celllock.NewCellRwLock(pair{})
	var reads, writes uint64
	start := time.Now()
	deadline := start.Add(cfg.duration)
	for time.Now().Before(deadline) {
		// Batch operations so the clock check stays off the hot path.
		for range 4096 {
			if rand.IntN(100) < cfg.readPct {
				r := l.Read()
				v := *r.Value()
				r.Unlock()
				if v[0] != v[1] {
					return fmt.Errorf("torn read: %d != %d", v[0], v[1])
				}
				reads++
			} else {
				w := l.Write()
				w.Value()[0]++
				w.Value()[1]++
				w.Unlock()
				writes++
			}
		}
	}
	elapsed := time.Since(start)
	ops := reads + writes
	logf("done: backend=cell ops=%d reads=%d writes=%d elapsed=%v (%.1f ns/op)",
		ops, reads, writes, elapsed.Round(time.Millisecond),
		float64(elapsed.Nanoseconds())/float64(ops))
	return nil
}

// runSync drives the blocking backend with a pool of workers mixing
// shared reads and exclusive writes.
func runSync(cfg config, logf logger.Logf) error {
	if cfg.workers < 1 {
		return fmt.Errorf("-workers must be at least 1, not %d", cfg.workers)
	}
	l := celllock.NewSyncRwLock(pair{})
	var reads, writes, contended atomic.Uint64

	ctx, cancel := context.WithTimeout(context.Background(), cfg.duration)
	defer cancel()

	progress := logger.RateLimitedFn(logf, time.Second, 1, cfg.workers+1)
	start := time.Now()
	var g taskgroup.Group
	for i := range cfg.workers {
		workerLogf := logger.WithPrefix(progress, fmt.Sprintf("worker%d: ", i))
		g.Go(func() error {
			var ops uint64
			for ctx.Err() == nil {
				if rand.IntN(100) < cfg.readPct {
					r := l.Read()
					v := *r.Value()
					r.Unlock()
					if v[0] != v[1] {
						return fmt.Errorf("torn read: %d != %d", v[0], v[1])
					}
					reads.Add(1)
				} else {
					w, ok := l.TryWrite()
					if !ok {
						contended.Add(1)
						w = l.Write()
					}
					w.Value()[0]++
					w.Value()[1]++
					w.Unlock()
					writes.Add(1)
				}
				if ops++; ops%65536 == 0 {
					workerLogf("ops=%d", ops)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	elapsed := time.Since(start)
	ops := reads.Load() + writes.Load()
	logf("done: backend=sync workers=%d ops=%d reads=%d writes=%d contended=%d elapsed=%v",
		cfg.workers, ops, reads.Load(), writes.Load(), contended.Load(),
		elapsed.Round(time.Millisecond))
	return nil
}
