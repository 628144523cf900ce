// Package calendar reads availability from and writes meetings to Google
// Calendar.
//
// BusyEvents feeds the meeting package: it returns the time-blocking events
// of one or more calendars as meeting.Event values, with all-day entries
// expressed as floating dates in the calendar's zone. ScheduleMeeting turns a
// chosen meeting.SlotCandidate into an event with invitations and reminders.
//
// Example usage:
//
//	client, err := calendar.NewClient(ctx, "work", metrics, option.WithHTTPClient(httpClient))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	busy, err := client.BusyEvents(ctx, []string{"primary"}, from, to)
package calendar
