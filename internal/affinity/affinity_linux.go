//go:build linux

// Package affinity pins the calling OS thread to a single logical
// core. It is the Go analogue of the reference design's
// OS-specific set_affinity helper (spec.md §6): best-effort, narrow,
// and consulted only at worker startup.
package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its current OS thread and
// restricts that thread's CPU affinity mask to the single core
// identified by coreID. The caller must not unlock the OS thread
// afterwards; the pin lasts for the goroutine's lifetime.
//
// Pin is best-effort: on failure it returns an error and leaves the
// thread's affinity unchanged, matching the "affinity setting is
// best-effort" language in spec.md §4.D.
func Pin(coreID int) error {
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(coreID)

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: pin to core %d: %w", coreID, err)
	}
	return nil
}
