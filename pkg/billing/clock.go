package billing

import "time"

// Clock supplies the current time. Injecting it keeps every amount and window
// computation deterministic under test.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns a Clock backed by wall-clock time in UTC.
func SystemClock() Clock { return systemClock{} }

// FixedClock returns a Clock pinned to t.
func FixedClock(t time.Time) Clock { return fixedClock{t} }

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }
