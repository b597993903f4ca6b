package taskgraph

import (
	"testing"
	"unsafe"

	"golang.org/x/sys/cpu"
)

// Test_sizeOfCacheLine verifies the sizeOfCacheLine constant used to
// pad taskSlot.unfinished onto its own cache line is never smaller
// than the actual platform cache line, and is an exact multiple of it
// (so the padding doesn't itself introduce a fractional-line offset).
func Test_sizeOfCacheLine(t *testing.T) {
	actual := unsafe.Sizeof(cpu.CacheLinePad{})
	if sizeOfCacheLine < actual {
		t.Fatalf("sizeOfCacheLine (%d) is less than actual cache line size (%d)", sizeOfCacheLine, actual)
	}
	if sizeOfCacheLine%actual != 0 {
		t.Fatalf("sizeOfCacheLine (%d) is not a multiple of actual cache line size (%d)", sizeOfCacheLine, actual)
	}
}

// Test_taskSlot_unfinishedCacheLinePadding verifies unfinished sits at
// least sizeOfCacheLine bytes into the struct (clear of fn/parent/gen)
// and that the struct extends at least sizeOfCacheLine bytes past it,
// so no other field of a neighboring slot in the arena's ring can
// share a cache line with this slot's unfinished counter.
func Test_taskSlot_unfinishedCacheLinePadding(t *testing.T) {
	var s taskSlot

	unfinishedOffset := unsafe.Offsetof(s.unfinished)
	if unfinishedOffset < sizeOfCacheLine {
		t.Fatalf("unfinished offset (%d) is less than sizeOfCacheLine (%d)", unfinishedOffset, sizeOfCacheLine)
	}

	total := unsafe.Sizeof(s)
	unfinishedEnd := unfinishedOffset + sizeOfAtomicInt32
	trailing := total - unfinishedEnd
	if trailing < sizeOfCacheLine-sizeOfAtomicInt32 {
		t.Fatalf("only %d bytes follow unfinished, want at least %d", trailing, sizeOfCacheLine-sizeOfAtomicInt32)
	}
}
