package port

import "time"

// Clock abstracts wall-clock time and timer arming so the scheduler can
// be driven by a virtual clock in tests. AfterFunc returns an explicit
// handle; holding the handle is what makes cancellation possible.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is an armed timer handle. Stop reports whether the timer was
// cancelled before firing.
type Timer interface {
	Stop() bool
}
