package finance

import "time"

// Clock supplies the current instant. Services never read the wall clock
// directly so that due-date logic can be tested at fixed dates.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in the school's time zone.
type SystemClock struct {
	Location *time.Location
}

// NewSystemClock loads the named IANA zone, falling back to UTC.
func NewSystemClock(zone string) SystemClock {
	loc, err := time.LoadLocation(zone)
	if err != nil || zone == "" {
		loc = time.UTC
	}
	return SystemClock{Location: loc}
}

// Now returns the current time in the clock's location.
func (c SystemClock) Now() time.Time {
	if c.Location == nil {
		return time.Now().UTC()
	}
	return time.Now().In(c.Location)
}

// FixedClock always returns the same instant.
type FixedClock time.Time

// Now returns the fixed instant.
func (c FixedClock) Now() time.Time { return time.Time(c) }
