// Package system provides the wall clock used to timestamp digest records.
package system

import "time"

// Clock implements digest.Clock using time.Now in UTC.
type Clock struct{}

// New creates a new Clock.
func New() *Clock {
	return &Clock{}
}

// Now returns the current time truncated to the microsecond precision
// Postgres keeps, so stored and returned records compare equal.
func (Clock) Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
