package taskgraph

import "github.com/go-foundations/taskgraph/internal/cpuinfo"

// Config holds construction-time configuration shared by
// ConcurrentScheduler and SerialScheduler.
type Config struct {
	// NumWorkers is the total number of workers a ConcurrentScheduler
	// runs, counting the owning goroutine (which always becomes worker
	// 0 inside Run); Run spawns NumWorkers-1 further goroutines. A
	// value below 1 is treated as 1. Ignored by SerialScheduler, which
	// always has exactly one worker. The default is
	// cpuinfo.LogicalCores(), at least 1.
	NumWorkers int

	// ArenaCapacity is the number of task slots each worker's arena
	// holds before reuse must overwrite the oldest slot. The shared
	// external-poster arena is package-wide and always holds
	// DefaultArenaCapacity slots, whatever this is set to.
	ArenaCapacity int

	// EnableAffinity, when true, pins each spawned ConcurrentScheduler
	// worker goroutine (worker i to core i) via internal/affinity.Pin.
	// The owning goroutine (worker 0) is not pinned. Failure to pin is
	// logged and otherwise ignored (best effort); SerialScheduler never
	// pins.
	EnableAffinity bool

	// StrictOwnerChecks enables the owner-goroutine assertions on
	// ConcurrentScheduler's Run/Stop (ErrOwnerViolation); SerialScheduler
	// does not check its owner. Off by default, matching the reference
	// implementation's debug-only assertions.
	StrictOwnerChecks bool

	// OutOfTaskHandler is invoked when an arena would have to overwrite
	// a still-live task, or when PostTask is called after Stop.
	// Defaults to a handler that panics.
	OutOfTaskHandler OutOfTaskHandler

	// Logger receives scheduler lifecycle and diagnostic events. It is
	// never on the hot path: not consulted from Task.Execute, Deque
	// operations, or workCycle. Defaults to DefaultLogger().
	Logger Logger
}

// DefaultConfig returns the configuration used when a scheduler is
// constructed with no options: worker count derived from the
// container-aware logical core count, the reference implementation's
// arena capacity, affinity and strict owner checks off, and the
// package-wide default logger.
func DefaultConfig() Config {
	return Config{
		NumWorkers:        defaultWorkerCount(),
		ArenaCapacity:     DefaultArenaCapacity,
		EnableAffinity:    false,
		StrictOwnerChecks: false,
		OutOfTaskHandler:  defaultOutOfTaskHandler,
		Logger:            DefaultLogger(),
	}
}

func defaultWorkerCount() int {
	n := cpuinfo.LogicalCores()
	if n < 1 {
		n = 1
	}
	return n
}

// Option mutates a Config at construction time. NewConcurrentScheduler
// and NewSerialScheduler both start from DefaultConfig() and apply
// Options in order.
type Option func(*Config)

// WithNumWorkers overrides the worker goroutine count (ConcurrentScheduler
// only).
func WithNumWorkers(n int) Option {
	return func(c *Config) { c.NumWorkers = n }
}

// WithArenaCapacity overrides the per-worker task arena capacity.
func WithArenaCapacity(n int) Option {
	return func(c *Config) { c.ArenaCapacity = n }
}

// WithAffinity enables pinning each spawned ConcurrentScheduler worker
// to a distinct logical core (see Config.EnableAffinity).
func WithAffinity() Option {
	return func(c *Config) { c.EnableAffinity = true }
}

// WithStrictOwnerChecks enables owner-goroutine assertions on
// ConcurrentScheduler's Run/Stop.
func WithStrictOwnerChecks() Option {
	return func(c *Config) { c.StrictOwnerChecks = true }
}

// WithOutOfTaskHandler overrides the handler invoked on arena
// exhaustion or post-after-stop.
func WithOutOfTaskHandler(h OutOfTaskHandler) Option {
	return func(c *Config) { c.OutOfTaskHandler = h }
}

// WithLogger overrides the scheduler's diagnostic logger.
func WithLogger(l Logger) Option {
	return func(c *Config) { c.Logger = l }
}

func buildConfig(opts []Option) Config {
	c := DefaultConfig()
	for _, o := range opts {
		o(&c)
	}
	return c
}
