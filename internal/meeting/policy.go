package meeting

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// Weekdays is a set of days of the week.
type Weekdays uint8

// WorkWeek is Monday through Friday.
const WorkWeek Weekdays = 1<<time.Monday | 1<<time.Tuesday | 1<<time.Wednesday | 1<<time.Thursday | 1<<time.Friday

// NewWeekdays returns the set containing days.
func NewWeekdays(days ...time.Weekday) Weekdays {
	var w Weekdays
	for _, d := range days {
		w |= 1 << d
	}
	return w
}

// Has reports whether d is in the set.
func (w Weekdays) Has(d time.Weekday) bool {
	return w&(1<<d) != 0
}

// Days returns the members of the set starting with Monday.
func (w Weekdays) Days() []time.Weekday {
	var days []time.Weekday
	for i := 1; i <= 7; i++ {
		d := time.Weekday(i % 7)
		if w.Has(d) {
			days = append(days, d)
		}
	}
	return days
}

func (w Weekdays) String() string {
	names := make([]string, 0, 7)
	for _, d := range w.Days() {
		names = append(names, strings.ToLower(d.String()[:3]))
	}
	return strings.Join(names, ",")
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tues": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "weds": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday parses an English weekday name or its common abbreviation.
func ParseWeekday(s string) (time.Weekday, bool) {
	d, ok := weekdayNames[strings.ToLower(strings.TrimSpace(s))]
	return d, ok
}

// ParseWeekdays parses a comma separated list of weekdays or ranges such as
// "mon-fri" or "mon,wed,fri". Ranges wrap around the end of the week ("fri-mon").
func ParseWeekdays(s string) (Weekdays, error) {
	var w Weekdays
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		from, to, isRange := strings.Cut(part, "-")
		first, ok := ParseWeekday(from)
		if !ok {
			return 0, invalidf("unknown weekday %q", from)
		}
		if !isRange {
			w |= 1 << first
			continue
		}
		last, ok := ParseWeekday(to)
		if !ok {
			return 0, invalidf("unknown weekday %q", to)
		}
		for d := first; ; d = (d + 1) % 7 {
			w |= 1 << d
			if d == last {
				break
			}
		}
	}
	if w == 0 {
		return 0, invalidf("no weekdays in %q", s)
	}
	return w, nil
}

// BusinessHoursPolicy describes when meetings may be placed: between StartHour and EndHour
// on the allowed weekdays, in Location.
type BusinessHoursPolicy struct {
	StartHour       int
	EndHour         int
	AllowedWeekdays Weekdays
	Location        *time.Location
}

// DefaultBusinessHours is 09:00-17:00, Monday to Friday, in loc.
func DefaultBusinessHours(loc *time.Location) BusinessHoursPolicy {
	return BusinessHoursPolicy{
		StartHour:       9,
		EndHour:         17,
		AllowedWeekdays: WorkWeek,
		Location:        loc,
	}
}

// Validate checks the hour bounds, the weekday set and the location.
func (p BusinessHoursPolicy) Validate() error {
	if p.Location == nil {
		return invalidf("business hours need a time zone")
	}
	if p.StartHour < 0 || p.EndHour > 24 || p.StartHour >= p.EndHour {
		return invalidf("business hours %02d:00-%02d:00 are not a valid window", p.StartHour, p.EndHour)
	}
	if p.AllowedWeekdays == 0 {
		return invalidf("business hours allow no weekday")
	}
	return nil
}

// Window returns the business-hours interval on d, or false when d is not an allowed day
// or daylight saving leaves no business hours on it.
func (p BusinessHoursPolicy) Window(d civil.Date) (TimeInterval, bool) {
	midnight := d.In(p.Location)
	if !p.AllowedWeekdays.Has(midnight.Weekday()) {
		return TimeInterval{}, false
	}
	start := wallClock(d, p.StartHour, p.Location)
	end := wallClock(d, p.EndHour, p.Location)
	if !start.Before(end) {
		return TimeInterval{}, false
	}
	return TimeInterval{start: start, end: end}, true
}

// wallClock returns hour:00 on d in loc. An hour skipped by a daylight saving change
// resolves to the first instant after the gap.
func wallClock(d civil.Date, hour int, loc *time.Location) time.Time {
	t := time.Date(d.Year, d.Month, d.Day, hour, 0, 0, 0, loc)
	want := civil.DateTime{Date: d.AddDays(hour / 24), Time: civil.Time{Hour: hour % 24}}
	if civil.DateTimeOf(t).Before(want) {
		if _, end := t.ZoneBounds(); !end.IsZero() {
			return end
		}
	}
	return t
}

func (p BusinessHoursPolicy) String() string {
	return fmt.Sprintf("%02d:00-%02d:00 %s (%s)", p.StartHour, p.EndHour, p.AllowedWeekdays, p.Location)
}
