package scheduler

import (
	"time"

	"promopilot/internal/core/port"
)

// systemClock is the production port.Clock backed by the time package.
type systemClock struct{}

// SystemClock returns a Clock reading real wall-clock time.
func SystemClock() port.Clock {
	return systemClock{}
}

func (systemClock) Now() time.Time {
	return time.Now()
}

func (systemClock) AfterFunc(d time.Duration, f func()) port.Timer {
	return time.AfterFunc(d, f)
}
