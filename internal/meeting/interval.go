package meeting

import (
	"fmt"
	"slices"
	"time"
)

// TimeInterval is a half-open span of time [Start, End). Start is always before End.
type TimeInterval struct {
	start time.Time
	end   time.Time
}

// NewTimeInterval returns the interval [start, end). Both instants are expressed in the
// location of start.
func NewTimeInterval(start, end time.Time) (TimeInterval, error) {
	if !start.Before(end) {
		return TimeInterval{}, invalidf("interval start %s is not before end %s",
			start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return TimeInterval{start: start, end: end.In(start.Location())}, nil
}

// Start returns the inclusive start of the interval.
func (i TimeInterval) Start() time.Time { return i.start }

// End returns the exclusive end of the interval.
func (i TimeInterval) End() time.Time { return i.end }

// Location returns the time zone both bounds are expressed in.
func (i TimeInterval) Location() *time.Location { return i.start.Location() }

// Duration returns End - Start.
func (i TimeInterval) Duration() time.Duration { return i.end.Sub(i.start) }

// In returns the same interval expressed in loc.
func (i TimeInterval) In(loc *time.Location) TimeInterval {
	return TimeInterval{start: i.start.In(loc), end: i.end.In(loc)}
}

// Overlaps reports whether the two intervals share at least one instant.
func (i TimeInterval) Overlaps(o TimeInterval) bool {
	return i.start.Before(o.end) && o.start.Before(i.end)
}

// Equal reports whether both intervals cover the same instants.
func (i TimeInterval) Equal(o TimeInterval) bool {
	return i.start.Equal(o.start) && i.end.Equal(o.end)
}

func (i TimeInterval) String() string {
	return fmt.Sprintf("%s - %s", i.start.Format(time.RFC3339), i.end.Format(time.RFC3339))
}

// Event is a calendar entry as delivered by a calendar provider.
//
// When TimeZone is empty, Start and End are absolute instants. When TimeZone names an IANA
// zone, their wall clock readings are interpreted in that zone and their own location is
// ignored. Calendars deliver all-day entries this way.
type Event struct {
	Start    time.Time
	End      time.Time
	TimeZone string
}

func (e Event) resolve() (time.Time, time.Time, error) {
	if e.TimeZone == "" {
		return e.Start, e.End, nil
	}
	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		return time.Time{}, time.Time{}, invalidf("unknown time zone %q", e.TimeZone)
	}
	return reinterpret(e.Start, loc), reinterpret(e.End, loc), nil
}

func reinterpret(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)
}

// BusyCalendar is a sorted sequence of non-overlapping busy intervals in one location.
type BusyCalendar struct {
	Location  *time.Location
	Intervals []TimeInterval
}

// Len returns the number of busy intervals.
func (c BusyCalendar) Len() int { return len(c.Intervals) }

// Busy reports whether any busy interval overlaps iv.
func (c BusyCalendar) Busy(iv TimeInterval) bool {
	idx := c.firstEndingAfter(iv.start)
	return idx < len(c.Intervals) && c.Intervals[idx].start.Before(iv.end)
}

// firstEndingAfter returns the index of the first interval whose end lies after t.
func (c BusyCalendar) firstEndingAfter(t time.Time) int {
	idx, _ := slices.BinarySearchFunc(c.Intervals, t, func(iv TimeInterval, t time.Time) int {
		if iv.end.After(t) {
			return 1
		}
		return -1
	})
	return idx
}

// Normalize converts events into a BusyCalendar expressed in loc. Intervals are sorted by
// start and overlapping or touching intervals are merged. Zero-length events are dropped.
func Normalize(events []Event, loc *time.Location) (BusyCalendar, error) {
	if loc == nil {
		return BusyCalendar{}, invalidf("target location is required")
	}

	intervals := make([]TimeInterval, 0, len(events))
	for idx, e := range events {
		start, end, err := e.resolve()
		if err != nil {
			return BusyCalendar{}, fmt.Errorf("event %d: %w", idx, err)
		}
		if start.After(end) {
			return BusyCalendar{}, invalidf("event %d starts at %s after it ends at %s",
				idx, start.Format(time.RFC3339), end.Format(time.RFC3339))
		}
		if start.Equal(end) {
			continue
		}
		intervals = append(intervals, TimeInterval{start: start.In(loc), end: end.In(loc)})
	}

	return Merge(intervals, loc), nil
}

// Merge sorts intervals and folds overlapping or adjacent ones together. Merging the
// intervals of an existing BusyCalendar returns an equal calendar.
func Merge(intervals []TimeInterval, loc *time.Location) BusyCalendar {
	if loc == nil {
		loc = time.UTC
	}

	sorted := make([]TimeInterval, len(intervals))
	for idx, iv := range intervals {
		sorted[idx] = iv.In(loc)
	}
	slices.SortFunc(sorted, func(a, b TimeInterval) int {
		if c := a.start.Compare(b.start); c != 0 {
			return c
		}
		return a.end.Compare(b.end)
	})

	merged := make([]TimeInterval, 0, len(sorted))
	for _, iv := range sorted {
		if n := len(merged); n > 0 && !iv.start.After(merged[n-1].end) {
			if iv.end.After(merged[n-1].end) {
				merged[n-1].end = iv.end
			}
			continue
		}
		merged = append(merged, iv)
	}

	return BusyCalendar{Location: loc, Intervals: merged}
}
