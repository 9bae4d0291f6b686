package rip

import (
	"math/rand"
	"time"
)

// Base delays at scale multiplier 1. A deployment divides these by the
// configured multiplier (6 gives the 5s/30s/20s effective values used
// in automated testing).
const (
	basePeriodicUpdate     = 30 * time.Second
	baseEntryTimeout       = 180 * time.Second
	baseGarbageCollection  = 120 * time.Second
	baseTriggeredSuppress  = 5 * time.Second
)

// These package vars are the effective, multiplier-scaled delays.
// SetScale must be called once before constructing a Manager if the
// default (unscaled) timing is not desired.
var (
	PeriodicUpdate    = basePeriodicUpdate
	EntryTimeout      = baseEntryTimeout
	GarbageCollection = baseGarbageCollection
	TriggeredSuppress = baseTriggeredSuppress
)

// SetScale divides every base delay by multiplier, matching the
// daemon's global time-scaling knob.
func SetScale(multiplier float64) {
	PeriodicUpdate = time.Duration(float64(basePeriodicUpdate) / multiplier)
	EntryTimeout = time.Duration(float64(baseEntryTimeout) / multiplier)
	GarbageCollection = time.Duration(float64(baseGarbageCollection) / multiplier)
	TriggeredSuppress = time.Duration(float64(baseTriggeredSuppress) / multiplier)
}

// periodicJitter returns PeriodicUpdate plus uniform jitter in
// [-1/6, +1/6] of the base interval.
func periodicJitter() time.Duration {
	spread := PeriodicUpdate / 6
	return PeriodicUpdate - spread + time.Duration(rand.Int63n(int64(2*spread+1)))
}

// triggeredJitter returns a uniform delay in [1/5, 1] of
// TriggeredSuppress.
func triggeredJitter() time.Duration {
	lo := TriggeredSuppress / 5
	span := TriggeredSuppress - lo
	if span <= 0 {
		return lo
	}
	return lo + time.Duration(rand.Int63n(int64(span)+1))
}
