package google

import (
	calendar "google.golang.org/api/calendar/v3"
	gmail "google.golang.org/api/gmail/v1"
)

// Scopes are requested for every account. Reading threads and calendars,
// sending replies and writing events are all needed by the meeting workflow.
var Scopes = []string{
	gmail.GmailReadonlyScope,
	gmail.GmailModifyScope,
	gmail.GmailSendScope,
	calendar.CalendarScope,
}
