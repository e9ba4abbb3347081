package bitemporal

import (
	"fmt"
	"time"
)

// Infinity is the sentinel upper bound of open intervals.
var Infinity = time.Date(9999, time.December, 1, 23, 59, 0, 0, time.UTC)

// Interval is the half-open range [From, Thru).
type Interval struct {
	From time.Time
	Thru time.Time
}

// Universal covers every instant. It stands in for the interval of an
// axis the table does not have.
var Universal = Interval{Thru: Infinity}

// Since returns [from, inf) where inf is the open upper bound.
func Since(from, inf time.Time) Interval {
	return Interval{From: from, Thru: inf}
}

// Contains reports whether t lies in the interval.
func (i Interval) Contains(t time.Time) bool {
	return !t.Before(i.From) && t.Before(i.Thru)
}

// Overlaps reports whether the two intervals share an instant.
func (i Interval) Overlaps(o Interval) bool {
	return i.From.Before(o.Thru) && o.From.Before(i.Thru)
}

// Empty reports whether the interval contains no instant.
func (i Interval) Empty() bool {
	return !i.From.Before(i.Thru)
}

// OpenAt reports whether the interval is unbounded above, with inf as
// the sentinel upper bound.
func (i Interval) OpenAt(inf time.Time) bool {
	return !i.Thru.Before(inf)
}

// String formats the interval as [from, thru).
func (i Interval) String() string {
	return fmt.Sprintf("[%s, %s)", i.From.Format(time.RFC3339Nano), i.Thru.Format(time.RFC3339Nano))
}

// Point is a location in the bitemporal plane. A zero Processing
// instant means the current processing state; a zero Business instant
// means now.
type Point struct {
	Business   time.Time
	Processing time.Time
}

// AsOf returns a Point at the given business instant and the current
// processing state.
func AsOf(business time.Time) Point {
	return Point{Business: business}
}
