package meeting

import (
	"fmt"
	"iter"
	"time"

	"cloud.google.com/go/civil"
)

// SlotCandidate is a free slot of exactly the requested duration.
type SlotCandidate struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
}

// Interval returns the slot as a TimeInterval.
func (s SlotCandidate) Interval() TimeInterval {
	return TimeInterval{start: s.Start, end: s.End}
}

func (s SlotCandidate) String() string {
	return fmt.Sprintf("%s %s-%s (%s)", s.Start.Format("Mon 2006-01-02"), s.Start.Format("15:04"), s.End.Format("15:04"), s.Duration)
}

// SearchSlots enumerates free slots of exactly duration inside business hours on every
// allowed day between from and to, inclusive. Slots are packed from the start of each free
// stretch; a stretch shorter than duration yields nothing. At most limit slots are produced,
// a limit of zero or less means no limit.
//
// The returned sequence may be ranged over any number of times and always yields the same
// slots.
func SearchSlots(busy BusyCalendar, policy BusinessHoursPolicy, from, to civil.Date, duration time.Duration, limit int) (iter.Seq[SlotCandidate], error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	if !from.IsValid() || !to.IsValid() {
		return nil, invalidf("invalid date range %s..%s", from, to)
	}
	if from.After(to) {
		return nil, invalidf("range start %s is after range end %s", from, to)
	}
	if duration <= 0 {
		return nil, invalidf("meeting duration must be positive, got %s", duration)
	}

	return func(yield func(SlotCandidate) bool) {
		emitted := 0
		for d := from; !d.After(to); d = d.AddDays(1) {
			window, ok := policy.Window(d)
			if !ok {
				continue
			}
			for free := range busy.free(window) {
				for start := free.start; !start.Add(duration).After(free.end); start = start.Add(duration) {
					if !yield(SlotCandidate{Start: start, End: start.Add(duration), Duration: duration}) {
						return
					}
					emitted++
					if limit > 0 && emitted >= limit {
						return
					}
				}
			}
		}
	}, nil
}

// free yields the parts of window not covered by any busy interval, in order.
func (c BusyCalendar) free(window TimeInterval) iter.Seq[TimeInterval] {
	return func(yield func(TimeInterval) bool) {
		cursor := window.start
		for idx := c.firstEndingAfter(window.start); idx < len(c.Intervals); idx++ {
			b := c.Intervals[idx]
			if !b.start.Before(window.end) {
				break
			}
			if b.start.After(cursor) {
				if !yield(TimeInterval{start: cursor, end: b.start.In(cursor.Location())}) {
					return
				}
			}
			if b.end.After(cursor) {
				cursor = b.end.In(cursor.Location())
			}
		}
		if cursor.Before(window.end) {
			yield(TimeInterval{start: cursor, end: window.end})
		}
	}
}
