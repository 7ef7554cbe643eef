package completion

import "time"

// Clock schedules the debounce timer
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a scheduled callback that can be canceled
type Timer interface {
	// Stop cancels the callback and reports whether it was still pending
	Stop() bool
}

// RealClock is the wall clock
type RealClock struct{}

func (RealClock) Now() time.Time {
	return time.Now()
}

func (RealClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
