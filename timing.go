// FILE: lixenwraith/namespace/timing.go
package namespace

import "time"

// Core timing constants for root watching.
const (
	// Polling intervals (ordered by frequency)
	SpinWaitInterval     = 5 * time.Millisecond   // CPU-friendly busy-wait quantum
	MinPollInterval      = 100 * time.Millisecond // Hard floor for root stat polling
	ShutdownTimeout      = 100 * time.Millisecond // Graceful watcher termination window
	DefaultDebounce      = 500 * time.Millisecond // Change coalescence period
	DefaultPollInterval  = time.Second            // Standard root monitoring frequency
	DefaultReloadTimeout = 5 * time.Second        // Maximum duration for a rebuild
)

// DefaultMaxWatchers caps subscriber channels per watcher.
const DefaultMaxWatchers = 100
