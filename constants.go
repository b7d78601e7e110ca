package aio

import "github.com/aioq/go-aio/internal/constants"

// Re-exported tunables. MaxInFlightWorkers bounds how many requests can
// be outstanding across every descriptor at once; Submit-family calls
// return ErrAgain once the pool is saturated instead of spawning an
// unbounded number of LockOSThread'd goroutines.
const (
	MaxInFlightWorkers = constants.MaxInFlightWorkers
)
