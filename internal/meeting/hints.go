package meeting

import (
	"iter"
	"math/bits"
	"regexp"
	"slices"
	"strings"
	"time"
	"unicode"

	"cloud.google.com/go/civil"
)

// Signal identifies the kind of evidence a hint was built from. Signals are bit flags so a
// merged hint can carry several of them.
type Signal uint8

const (
	SignalKeyword Signal = 1 << iota
	SignalTime
	SignalWeekday
	SignalRelativeDay
	SignalDate
)

var signalNames = []struct {
	signal Signal
	name   string
}{
	{SignalDate, "date"},
	{SignalRelativeDay, "relative_day"},
	{SignalWeekday, "weekday"},
	{SignalTime, "time"},
	{SignalKeyword, "keyword"},
}

// Has reports whether s includes every flag of o.
func (s Signal) Has(o Signal) bool { return s&o == o }

// Count returns the number of distinct signal kinds in s.
func (s Signal) Count() int { return bits.OnesCount8(uint8(s)) }

func (s Signal) String() string {
	var names []string
	for _, n := range signalNames {
		if s.Has(n.signal) {
			names = append(names, n.name)
		}
	}
	return strings.Join(names, "+")
}

// MeetingHint is a piece of text suggesting when a meeting should happen.
type MeetingHint struct {
	// Span is the raw text the hint was built from and Offset its byte position.
	Span   string
	Offset int

	Date    *civil.Date
	Time    *civil.Time
	Weekday *time.Weekday

	Signals    Signal
	Confidence float64
}

// At combines date and time in loc. It reports false unless both are known.
func (h MeetingHint) At(loc *time.Location) (time.Time, bool) {
	if h.Date == nil || h.Time == nil {
		return time.Time{}, false
	}
	return civil.DateTime{Date: *h.Date, Time: *h.Time}.In(loc), true
}

// Weights maps the specificity of a hint to a confidence in [0, 1].
type Weights struct {
	DateTime    float64
	WeekdayTime float64
	Date        float64
	Weekday     float64
	Time        float64
	Week        float64
	Keyword     float64
}

// DefaultWeights rank an explicit date and time above a weekday above a lone keyword.
var DefaultWeights = Weights{
	DateTime:    0.9,
	WeekdayTime: 0.8,
	Date:        0.6,
	Weekday:     0.5,
	Time:        0.4,
	Week:        0.35,
	Keyword:     0.3,
}

// Extractor turns free text into meeting hints.
type Extractor struct {
	Weights Weights
}

// NewExtractor returns an extractor using w.
func NewExtractor(w Weights) *Extractor {
	return &Extractor{Weights: w}
}

var defaultExtractor = NewExtractor(DefaultWeights)

// Extract scans text with the default weights. See Extractor.Extract.
func Extract(text string, now time.Time) iter.Seq[MeetingHint] {
	return defaultExtractor.Extract(text, now)
}

// Extract yields meeting hints found in text, sentence by sentence, in text order.
// Relative phrases such as "tomorrow" are resolved against the date of now in now's
// location.
//
// Matches within one sentence are merged into a single hint. A second day or a second
// time of day in the same sentence starts a new hint that keeps the day already seen.
func (e *Extractor) Extract(text string, now time.Time) iter.Seq[MeetingHint] {
	today := civil.DateOf(now)
	return func(yield func(MeetingHint) bool) {
		for start, end := range sentences(text) {
			for _, h := range e.hintsIn(text, start, end, today) {
				if !yield(h) {
					return
				}
			}
		}
	}
}

func (e *Extractor) hintsIn(text string, start, end int, today civil.Date) []MeetingHint {
	found := findMatches(text[start:end], start, today)
	if len(found) == 0 {
		return nil
	}

	var (
		hints []MeetingHint
		group hintGroup
	)
	for _, m := range found {
		switch {
		case m.signal == SignalKeyword:
		case m.signal == SignalTime && group.hasTime:
			hints = append(hints, group.hint(text, e.Weights))
			group = group.carryDay()
		case m.signal != SignalTime && group.hasDay:
			hints = append(hints, group.hint(text, e.Weights))
			group = hintGroup{}
		}
		group.add(m)
	}
	return append(hints, group.hint(text, e.Weights))
}

// hintGroup accumulates the matches that form one hint.
type hintGroup struct {
	matches []match
	signals Signal

	hasDay bool
	day    match
	// dayCarried marks a day inherited from the previous hint of the sentence.
	dayCarried bool

	hasTime bool
	clock   civil.Time
}

func (g *hintGroup) add(m match) {
	g.matches = append(g.matches, m)
	g.signals |= m.signal
	switch m.signal {
	case SignalKeyword:
	case SignalTime:
		g.hasTime = true
		g.clock = m.clock
	default:
		g.hasDay = true
		g.day = m
	}
}

func (g hintGroup) carryDay() hintGroup {
	if !g.hasDay {
		return hintGroup{}
	}
	return hintGroup{hasDay: true, day: g.day, dayCarried: true, signals: g.day.signal}
}

func (g hintGroup) hint(text string, w Weights) MeetingHint {
	first, last := g.matches[0], g.matches[len(g.matches)-1]
	h := MeetingHint{
		Span:    text[first.start:last.end],
		Offset:  first.start,
		Signals: g.signals,
	}

	if g.hasDay {
		d := g.day.date
		wd := weekdayOf(d)
		h.Date = &d
		h.Weekday = &wd
	}
	if g.hasTime {
		c := g.clock
		h.Time = &c
	}

	h.Confidence = g.confidence(w)
	return h
}

func (g hintGroup) confidence(w Weights) float64 {
	exactDay := g.hasDay && !g.day.vague && g.day.signal != SignalWeekday
	weekday := g.hasDay && g.day.signal == SignalWeekday

	best := 0.0
	consider := func(ok bool, c float64) {
		if ok && c > best {
			best = c
		}
	}
	consider(exactDay && g.hasTime, w.DateTime)
	consider(weekday && g.hasTime, w.WeekdayTime)
	consider(exactDay, w.Date)
	consider(weekday, w.Weekday)
	consider(g.hasTime, w.Time)
	consider(g.hasDay && g.day.vague, w.Week)
	consider(g.signals.Has(SignalKeyword), w.Keyword)
	return best
}

// findMatches runs every matcher over a sentence and resolves overlapping hits in favour
// of the more specific, then the longer one. offset is the sentence's position in the
// full text. The result is ordered by position.
func findMatches(sentence string, offset int, today civil.Date) []match {
	var candidates []match
	for _, mt := range matchers {
		for _, loc := range mt.re.FindAllStringSubmatchIndex(sentence, -1) {
			groups := make([]string, len(loc)/2)
			for i := range groups {
				if loc[2*i] >= 0 {
					groups[i] = sentence[loc[2*i]:loc[2*i+1]]
				}
			}
			m, ok := mt.parse(groups, today)
			if !ok {
				continue
			}
			m.signal = mt.signal
			m.start = offset + loc[2*mt.span]
			m.end = offset + loc[2*mt.span+1]
			candidates = append(candidates, m)
		}
	}

	slices.SortStableFunc(candidates, func(a, b match) int {
		if a.signal != b.signal {
			return int(b.signal) - int(a.signal)
		}
		if la, lb := a.end-a.start, b.end-b.start; la != lb {
			return lb - la
		}
		return a.start - b.start
	})

	var kept []match
	for _, c := range candidates {
		if !slices.ContainsFunc(kept, c.overlaps) {
			kept = append(kept, c)
		}
	}

	slices.SortFunc(kept, func(a, b match) int { return a.start - b.start })
	return kept
}

// sentences yields the byte ranges of the sentences in text. A sentence ends at a line
// break, at '!', '?' or ';', or at a '.' followed by the end of text or by whitespace and
// an upper case letter. The dot of "a.m." or "p.m." after a time never ends a sentence.
func sentences(text string) iter.Seq2[int, int] {
	return func(yield func(int, int) bool) {
		start := 0
		for i := 0; i < len(text); i++ {
			if !endsSentence(text, i) {
				continue
			}
			if strings.TrimSpace(text[start:i+1]) != "" {
				if !yield(start, i+1) {
					return
				}
			}
			start = i + 1
		}
		if strings.TrimSpace(text[start:]) != "" {
			yield(start, len(text))
		}
	}
}

// meridiemEnd matches a time of day written with a dotted "a.m." or "p.m.".
var meridiemEnd = regexp.MustCompile(`(?i)\d\s*[ap]\.m\.$`)

func endsSentence(text string, i int) bool {
	switch text[i] {
	case '\n', '!', '?', ';':
		return true
	case '.':
		if meridiemEnd.MatchString(text[max(0, i-6) : i+1]) {
			return false
		}
		rest := text[i+1:]
		trimmed := strings.TrimLeft(rest, " \t\r\n")
		if trimmed == "" {
			return true
		}
		if len(trimmed) == len(rest) {
			return false
		}
		return unicode.IsUpper(rune(trimmed[0]))
	}
	return false
}
