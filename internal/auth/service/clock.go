package service

import "time"

// Clock supplies the current time to the session registry.
type Clock interface {
	Now() time.Time
}

// SystemClock reads wall-clock UTC time.
type SystemClock struct{}

func (SystemClock) Now() time.Time {
	return time.Now().UTC()
}
