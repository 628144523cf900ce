package meeting

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// match is one pattern hit inside a sentence. start and end are byte offsets into the
// full text.
type match struct {
	signal Signal
	start  int
	end    int
	date   civil.Date
	vague  bool
	clock  civil.Time
}

func (m match) overlaps(o match) bool {
	return m.start < o.end && o.start < m.end
}

// matcher finds one family of patterns. span is the capture group that delimits the hit;
// zero means the whole match.
type matcher struct {
	signal Signal
	re     *regexp.Regexp
	span   int
	parse  func(groups []string, today civil.Date) (match, bool)
}

const monthPattern = `(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)`

// weekdayPattern leaves out "sat" and "sun", which are matched only where they cannot be
// ordinary words.
const weekdayPattern = `((?:monday|tuesday|wednesday|thursday|friday|saturday|sunday|tues|thurs|thur|weds|mon|tue|wed|thu|fri)\b\.?)`

// clockPattern is a time of day following a weekend abbreviation.
const clockPattern = `(?:at\s+|@\s*)?(?:(?:1[0-2]|0?[1-9])(?:[:.][0-5]\d)?\s*[ap]\.?m\b|[01]?\d:[0-5]\d\b|noon\b)`

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
}

var smallNumbers = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6, "seven": 7,
	"eight": 8, "nine": 9, "ten": 10, "a couple of": 2, "a few": 3,
}

var matchers = []matcher{
	// Explicit dates.
	{
		signal: SignalDate,
		re:     regexp.MustCompile(`(?i)\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
		parse: func(g []string, today civil.Date) (match, bool) {
			return dateMatch(atoi(g[1]), atoi(g[2]), atoi(g[3]), today)
		},
	},
	{
		// A fraction such as "1/2 hour" is not a date.
		signal: SignalDate,
		re:     regexp.MustCompile(`(?i)\b(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?\b(\s*(?:hours?|hrs?|h\b|minutes?|mins?|days?|weeks?|months?|of\s+an?\b))?`),
		parse: func(g []string, today civil.Date) (match, bool) {
			if g[4] != "" {
				return match{}, false
			}
			return numericDate(g, today)
		},
	},
	{
		signal: SignalDate,
		re:     regexp.MustCompile(`(?i)\b(\d{1,2})-(\d{1,2})-(\d{2}|\d{4})\b`),
		parse:  numericDate,
	},
	{
		signal: SignalDate,
		re:     regexp.MustCompile(`(?i)\b` + monthPattern + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?(?:,?\s+(\d{4}))?\b`),
		parse: func(g []string, today civil.Date) (match, bool) {
			return dateMatch(atoi(g[3]), int(monthOf(g[1])), atoi(g[2]), today)
		},
	},
	{
		signal: SignalDate,
		re:     regexp.MustCompile(`(?i)\b(\d{1,2})(?:st|nd|rd|th)?\s+(?:of\s+)?` + monthPattern + `\b\.?(?:,?\s+(\d{4}))?`),
		parse: func(g []string, today civil.Date) (match, bool) {
			return dateMatch(atoi(g[3]), int(monthOf(g[2])), atoi(g[1]), today)
		},
	},

	// Relative days.
	{
		signal: SignalRelativeDay,
		re:     regexp.MustCompile(`(?i)\b(?:the\s+)?day\s+after\s+tomorrow\b`),
		parse: func(_ []string, today civil.Date) (match, bool) {
			return match{date: today.AddDays(2)}, true
		},
	},
	{
		signal: SignalRelativeDay,
		re:     regexp.MustCompile(`(?i)\btomorrow\b`),
		parse: func(_ []string, today civil.Date) (match, bool) {
			return match{date: today.AddDays(1)}, true
		},
	},
	{
		signal: SignalRelativeDay,
		re:     regexp.MustCompile(`(?i)\b(?:today|tonight|this\s+(?:morning|afternoon|evening))\b`),
		parse: func(_ []string, today civil.Date) (match, bool) {
			return match{date: today}, true
		},
	},
	{
		signal: SignalRelativeDay,
		re:     regexp.MustCompile(`(?i)\bin\s+(\d{1,2}|one|two|three|four|five|six|seven|eight|nine|ten|a couple of|a few)\s+days?\b`),
		parse: func(g []string, today civil.Date) (match, bool) {
			n, ok := smallNumbers[strings.ToLower(g[1])]
			if !ok {
				n = atoi(g[1])
			}
			if n <= 0 {
				return match{}, false
			}
			return match{date: today.AddDays(n)}, true
		},
	},
	{
		signal: SignalRelativeDay,
		re:     regexp.MustCompile(`(?i)\bnext\s+week\b`),
		parse: func(_ []string, today civil.Date) (match, bool) {
			return match{date: startOfNextWeek(today), vague: true}, true
		},
	},
	{
		signal: SignalRelativeDay,
		re:     regexp.MustCompile(`(?i)\b(?:later\s+)?this\s+week\b`),
		parse: func(_ []string, today civil.Date) (match, bool) {
			return match{date: today, vague: true}, true
		},
	},

	// Weekdays.
	{
		signal: SignalWeekday,
		re:     regexp.MustCompile(`(?i)\b(?:(this|next|coming)\s+)?` + weekdayPattern),
		parse:  weekdayMatch,
	},
	{
		signal: SignalWeekday,
		re:     regexp.MustCompile(`(?i)\b(this|next|coming)\s+((?:sat|sun)\b\.?)`),
		parse:  weekdayMatch,
	},
	{
		signal: SignalWeekday,
		re:     regexp.MustCompile(`(?i)\b()((?:sat|sun)\b\.?)\s*,?\s+` + clockPattern),
		span:   2,
		parse:  weekdayMatch,
	},

	// Times of day.
	{
		signal: SignalTime,
		re:     regexp.MustCompile(`(?i)\b((1[0-2]|0?[1-9])(?:[:.]([0-5]\d))?\s*(a\.?m\.?|p\.?m\.?))(?:[^a-z]|$)`),
		span:   1,
		parse: func(g []string, _ civil.Date) (match, bool) {
			hour := atoi(g[2]) % 12
			if strings.HasPrefix(strings.ToLower(g[4]), "p") {
				hour += 12
			}
			return match{clock: civil.Time{Hour: hour, Minute: atoi(g[3])}}, true
		},
	},
	{
		signal: SignalTime,
		re:     regexp.MustCompile(`(?i)\b([01]?\d|2[0-3]):([0-5]\d)\b`),
		parse: func(g []string, _ civil.Date) (match, bool) {
			hour := atoi(g[1])
			// "at 2:30" means the afternoon when no meridiem is given.
			if hour >= 1 && hour < 8 && len(g[1]) == 1 {
				hour += 12
			}
			return match{clock: civil.Time{Hour: hour, Minute: atoi(g[2])}}, true
		},
	},
	{
		signal: SignalTime,
		re:     regexp.MustCompile(`(?i)\b(?:noon|midday)\b`),
		parse: func(_ []string, _ civil.Date) (match, bool) {
			return match{clock: civil.Time{Hour: 12}}, true
		},
	},

	// Meeting keywords.
	{
		signal: SignalKeyword,
		re: regexp.MustCompile(`(?i)\b(?:(?:re)?schedul(?:e|es|ed|ing)|meet(?:s|ing|ings|up)?|calls?|sync(?:-up)?|catch(?:\s+|-)up|available|availability|book(?:ing)?|slots?|appointments?|invite)\b`),
		parse: func(_ []string, _ civil.Date) (match, bool) {
			return match{}, true
		},
	},
}

// weekdayMatch resolves a weekday hit. g[1] is the optional qualifier and g[2] the name,
// possibly abbreviated with a trailing dot.
func weekdayMatch(g []string, today civil.Date) (match, bool) {
	d, ok := ParseWeekday(strings.TrimSuffix(g[2], "."))
	if !ok {
		return match{}, false
	}
	return match{date: resolveWeekday(today, d, strings.ToLower(g[1]))}, true
}

func numericDate(g []string, today civil.Date) (match, bool) {
	month, day := atoi(g[1]), atoi(g[2])
	if month > 12 && day <= 12 {
		month, day = day, month
	}
	year := 0
	if g[3] != "" {
		year = atoi(g[3])
		if year < 100 {
			year += 2000
		}
	}
	return dateMatch(year, month, day, today)
}

// dateMatch builds a date match. A zero year picks the first occurrence on or after today.
func dateMatch(year, month, day int, today civil.Date) (match, bool) {
	if month < 1 || month > 12 {
		return match{}, false
	}
	d := civil.Date{Year: year, Month: time.Month(month), Day: day}
	if year == 0 {
		d.Year = today.Year
		if d.IsValid() && d.Before(today) {
			d.Year++
		}
	}
	if !d.IsValid() {
		return match{}, false
	}
	return match{date: d}, true
}

func monthOf(s string) time.Month {
	s = strings.ToLower(s)
	if len(s) > 3 {
		s = s[:3]
	}
	return months[s]
}

// resolveWeekday maps a weekday name to a date. A bare name or "coming" means the next
// such day after today, "this" includes today, "next" means that day in the following
// Monday-based week.
func resolveWeekday(today civil.Date, d time.Weekday, qualifier string) civil.Date {
	switch qualifier {
	case "this":
		return today.AddDays(daysUntil(today, d))
	case "next":
		return startOfNextWeek(today).AddDays(isoWeekday(d) - 1)
	default:
		ahead := daysUntil(today, d)
		if ahead == 0 {
			ahead = 7
		}
		return today.AddDays(ahead)
	}
}

func daysUntil(today civil.Date, d time.Weekday) int {
	return (int(d) - int(weekdayOf(today)) + 7) % 7
}

func startOfNextWeek(today civil.Date) civil.Date {
	return today.AddDays(8 - isoWeekday(weekdayOf(today)))
}

func isoWeekday(d time.Weekday) int {
	if d == time.Sunday {
		return 7
	}
	return int(d)
}

func weekdayOf(d civil.Date) time.Weekday {
	return d.In(time.UTC).Weekday()
}

func atoi(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
