package services

import "time"

// Timer is a cancellable pending callback, satisfied by *time.Timer.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall time and timer scheduling so the debounce
// machinery in the visit lifecycle can be tested without sleeping.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

func (systemClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemClock returns the real wall clock
func SystemClock() Clock {
	return systemClock{}
}
