package utils

import "time"

// Clock is the time source for token issuing and expiry checks. Production
// code uses RealClock; tests substitute a controllable clock.
type Clock interface {
	Now() time.Time
}

type RealClock struct{}

func (RealClock) Now() time.Time { return time.Now() }
