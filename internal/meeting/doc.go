// Package meeting decides whether a piece of email text asks for a meeting and finds
// free calendar slots for it.
//
// The package is split into four pure building blocks:
//
//   - Extract scans text for weekday names, relative days, dates, times and meeting
//     keywords and yields confidence-weighted hints.
//   - IntentPolicy.Decide turns hints into a yes/no decision plus a ranking.
//   - Normalize converts calendar events into a sorted, merged BusyCalendar.
//   - SearchSlots walks business hours between two dates and yields free slots of an
//     exact duration.
//
// Nothing here performs I/O or keeps state between calls, so every function is safe for
// concurrent use. Malformed input (an event ending before it starts, a date range running
// backwards) is reported as ErrInvalidInput; finding nothing is never an error.
//
// Example usage:
//
//	now := time.Now()
//	decision := meeting.DefaultIntentPolicy().Decide(meeting.Extract(body, now))
//	if !decision.IsMeetingRequest {
//	    return nil
//	}
//
//	busy, err := meeting.Normalize(events, policy.Location)
//	if err != nil {
//	    return err
//	}
//	slots, err := meeting.SearchSlots(busy, policy, from, to, 30*time.Minute, 3)
//	if err != nil {
//	    return err
//	}
//	for slot := range slots {
//	    fmt.Println(slot)
//	}
package meeting
