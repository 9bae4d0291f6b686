package rip

import "time"

// Clock abstracts the passage of time so tests can drive the update
// rule and deletion lifecycle without real sleeps. Production code
// wires in systemClock, whose time.Now() already carries a monotonic
// reading, unlike a raw Unix-timestamp subtraction.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock is the production Clock.
var SystemClock Clock = systemClock{}
