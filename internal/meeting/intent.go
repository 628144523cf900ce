package meeting

import (
	"iter"
	"slices"
)

// IntentPolicy decides whether a set of hints amounts to a meeting request.
type IntentPolicy struct {
	// Threshold is the confidence a single hint must exceed on its own.
	Threshold float64
	// MinSignals is the number of distinct signal kinds that corroborate each other when
	// no single hint is confident enough.
	MinSignals int
}

// DefaultIntentPolicy returns a threshold of 0.7 with two-signal corroboration.
func DefaultIntentPolicy() IntentPolicy {
	return IntentPolicy{Threshold: 0.7, MinSignals: 2}
}

// Decision is the outcome of IntentPolicy.Decide.
type Decision struct {
	IsMeetingRequest bool
	// Corroborated is set when the decision rests on several weak signals rather than one
	// confident hint.
	Corroborated bool
	// Signals is the union of the signal kinds seen across all hints.
	Signals Signal
	// Hints are ranked by confidence, earlier text first among equals.
	Hints []MeetingHint
}

// Best returns the top ranked hint.
func (d Decision) Best() (MeetingHint, bool) {
	if len(d.Hints) == 0 {
		return MeetingHint{}, false
	}
	return d.Hints[0], true
}

// Decide consumes hints and reports whether they describe a meeting request. A single hint
// above the threshold is enough; otherwise at least MinSignals distinct signal kinds must
// appear. A lone keyword, however often repeated, is never enough.
func (p IntentPolicy) Decide(hints iter.Seq[MeetingHint]) Decision {
	var d Decision
	confident := false
	for h := range hints {
		d.Hints = append(d.Hints, h)
		d.Signals |= h.Signals
		if h.Confidence > p.Threshold {
			confident = true
		}
	}

	slices.SortStableFunc(d.Hints, func(a, b MeetingHint) int {
		switch {
		case a.Confidence > b.Confidence:
			return -1
		case a.Confidence < b.Confidence:
			return 1
		}
		return a.Offset - b.Offset
	})

	minSignals := max(p.MinSignals, 2)
	switch {
	case confident:
		d.IsMeetingRequest = true
	case d.Signals.Count() >= minSignals:
		d.IsMeetingRequest = true
		d.Corroborated = true
	}
	return d
}
