// Package cpuinfo wraps the two external collaborators spec.md §6
// groups under "process/CPU introspection": a logical-core count query
// and a process-wide GOMAXPROCS adjustment for container cgroup
// limits. Neither call sits on the scheduler's hot path; both are
// consulted once, at scheduler construction, to pick a default worker
// count.
package cpuinfo

import (
	"runtime"
	"sync"

	"github.com/klauspost/cpuid/v2"
	"go.uber.org/automaxprocs/maxprocs"
)

var adjustOnce sync.Once

// LogicalCores returns the number of logical cores this process
// should schedule against. It adjusts GOMAXPROCS for cgroup CPU quotas
// the first time it's called (via automaxprocs), then returns
// runtime.GOMAXPROCS(0) rather than runtime.NumCPU() so that a process
// confined to, say, two cores by a container doesn't oversubscribe.
func LogicalCores() int {
	adjustOnce.Do(func() {
		// Logging is deliberately discarded: a failed adjustment just
		// means we fall back to the host's NumCPU, which is always a
		// valid (if possibly oversized) worker count.
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...any) {}))
	})
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return runtime.NumCPU()
}

// Summary is a short, human-readable description of the host CPU,
// attached to scheduler startup log lines for diagnostic purposes
// only. It is never used for scheduling decisions.
func Summary() string {
	return cpuid.CPU.BrandName
}
