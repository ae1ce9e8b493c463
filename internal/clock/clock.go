// Package clock supplies the time source shared by circulation components.
package clock

import "time"

// Func returns the current instant.
type Func func() time.Time

// System returns the wall clock in UTC at microsecond precision, which both
// storage engines round-trip exactly.
func System() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
