package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"

	"github.com/teemow/mailmeet/internal/meeting"
)

const dateLayout = "2006-01-02"

// Reminder defaults for scheduled meetings.
const (
	EmailReminderMinutes = 24 * 60
	PopupReminderMinutes = 30
)

// MeetingRequest describes a meeting to put on a calendar.
type MeetingRequest struct {
	Title       string
	Description string
	Location    string
	Slot        meeting.SlotCandidate
	// TimeZone is the IANA zone the event is displayed in. Empty uses the
	// location of Slot.Start.
	TimeZone    string
	Attendees   []string
	AddMeetLink bool
}

// MeetingUpdate changes an existing meeting. Nil and empty fields are kept.
type MeetingUpdate struct {
	Title       string
	Description string
	Slot        *meeting.SlotCandidate
	TimeZone    string
	Attendees   []string
}

// EventSummary is a simplified calendar event.
type EventSummary struct {
	ID          string         `json:"id"`
	Summary     string         `json:"summary"`
	Description string         `json:"description,omitempty"`
	Location    string         `json:"location,omitempty"`
	Start       time.Time      `json:"start"`
	End         time.Time      `json:"end"`
	AllDay      bool           `json:"all_day,omitempty"`
	Organizer   string         `json:"organizer,omitempty"`
	Status      string         `json:"status,omitempty"`
	Attendees   []AttendeeInfo `json:"attendees,omitempty"`
	MeetLink    string         `json:"meet_link,omitempty"`
	HTMLLink    string         `json:"html_link,omitempty"`
}

// AttendeeInfo is an event attendee.
type AttendeeInfo struct {
	Email          string `json:"email"`
	ResponseStatus string `json:"response_status,omitempty"` // needsAction, declined, tentative, accepted
	Organizer      bool   `json:"organizer,omitempty"`
	Self           bool   `json:"self,omitempty"`
}

// CalendarInfo describes a calendar of the account.
type CalendarInfo struct {
	ID         string `json:"id"`
	Summary    string `json:"summary"`
	TimeZone   string `json:"time_zone"`
	Primary    bool   `json:"primary,omitempty"`
	AccessRole string `json:"access_role"` // owner, writer, reader, freeBusyReader
}

// FreeBusyInfo is the availability of one calendar or attendee.
type FreeBusyInfo struct {
	Calendar string      `json:"calendar"`
	Busy     []TimeRange `json:"busy"`
	Errors   []string    `json:"errors,omitempty"`
}

// TimeRange is a busy range.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func parseEventTime(dt *calendar.EventDateTime) (t time.Time, allDay bool) {
	if dt == nil {
		return time.Time{}, false
	}
	if dt.DateTime != "" {
		if parsed, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return parsed, false
		}
	}
	if dt.Date != "" {
		if parsed, err := time.Parse(dateLayout, dt.Date); err == nil {
			return parsed, true
		}
	}
	return time.Time{}, false
}

func toEventSummary(event *calendar.Event) EventSummary {
	summary := EventSummary{
		ID:          event.Id,
		Summary:     event.Summary,
		Description: event.Description,
		Location:    event.Location,
		Status:      event.Status,
		HTMLLink:    event.HtmlLink,
	}
	summary.Start, summary.AllDay = parseEventTime(event.Start)
	summary.End, _ = parseEventTime(event.End)

	if event.Organizer != nil {
		summary.Organizer = event.Organizer.Email
	}
	for _, att := range event.Attendees {
		summary.Attendees = append(summary.Attendees, AttendeeInfo{
			Email:          att.Email,
			ResponseStatus: att.ResponseStatus,
			Organizer:      att.Organizer,
			Self:           att.Self,
		})
	}
	if event.ConferenceData != nil {
		for _, ep := range event.ConferenceData.EntryPoints {
			if ep.EntryPointType == "video" {
				summary.MeetLink = ep.Uri
				break
			}
		}
	}
	return summary
}

// blocksTime reports whether event occupies the account owner's time.
// Cancelled, transparent and declined events do not.
func blocksTime(event *calendar.Event) bool {
	if event.Status == "cancelled" || event.Transparency == "transparent" {
		return false
	}
	for _, att := range event.Attendees {
		if att.Self && att.ResponseStatus == "declined" {
			return false
		}
	}
	return true
}

// busyEvent converts event to a meeting.Event. All-day events are floating
// dates interpreted in the calendar's zone.
func busyEvent(event *calendar.Event, calendarZone string) (meeting.Event, bool) {
	start, allDay := parseEventTime(event.Start)
	end, _ := parseEventTime(event.End)
	if start.IsZero() || end.IsZero() {
		return meeting.Event{}, false
	}
	e := meeting.Event{Start: start, End: end}
	if allDay {
		e.TimeZone = calendarZone
		if event.Start.TimeZone != "" {
			e.TimeZone = event.Start.TimeZone
		}
	}
	return e, true
}

func toCalendarInfo(entry *calendar.CalendarListEntry) CalendarInfo {
	return CalendarInfo{
		ID:         entry.Id,
		Summary:    entry.Summary,
		TimeZone:   entry.TimeZone,
		Primary:    entry.Primary,
		AccessRole: entry.AccessRole,
	}
}

func eventDateTime(t time.Time, zone string) *calendar.EventDateTime {
	if zone == "" {
		zone = t.Location().String()
		if zone == "Local" {
			zone = ""
		}
	}
	return &calendar.EventDateTime{DateTime: t.Format(time.RFC3339), TimeZone: zone}
}

func attendees(emails []string) []*calendar.EventAttendee {
	out := make([]*calendar.EventAttendee, 0, len(emails))
	for _, email := range emails {
		out = append(out, &calendar.EventAttendee{Email: email})
	}
	return out
}
