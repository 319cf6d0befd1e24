package service

import (
	"time"

	"github.com/VersaceXcodes/airbnb-but-just-for-libya-sub000/internal/domain"
)

// Clock supplies "today" for date validation
type Clock interface {
	Today() domain.Date
}

// ZoneClock reports the current calendar date in a fixed time zone
type ZoneClock struct {
	loc *time.Location
	now func() time.Time
}

// NewZoneClock creates a clock for loc. A nil loc means UTC.
func NewZoneClock(loc *time.Location) *ZoneClock {
	if loc == nil {
		loc = time.UTC
	}
	return &ZoneClock{loc: loc, now: time.Now}
}

// Today returns the current date in the clock's zone
func (c *ZoneClock) Today() domain.Date {
	return domain.DateOf(c.now().In(c.loc))
}

// FixedClock always returns the same date
type FixedClock domain.Date

// Today returns the fixed date
func (c FixedClock) Today() domain.Date {
	return domain.Date(c)
}
