//go:build !linux

package affinity

import "fmt"

// Pin is a documented no-op outside Linux: the reference design's
// affinity helper is OS-specific, and the spec requires only that
// failure to pin not prevent the scheduler from running (spec.md
// §4.D). Returning an error here lets callers log it through the same
// best-effort path used on Linux.
func Pin(coreID int) error {
	return fmt.Errorf("affinity: pinning to core %d is not implemented on this platform", coreID)
}
