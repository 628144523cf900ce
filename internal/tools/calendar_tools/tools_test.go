package calendar_tools

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendarapi "google.golang.org/api/calendar/v3"

	"github.com/teemow/mailmeet/internal/tools/toolstest"
)

func newGoogle() *toolstest.Google {
	return &toolstest.Google{
		Events: map[string][]*calendarapi.Event{
			"primary": {{
				Id:        "standup",
				Summary:   "Standup",
				Start:     &calendarapi.EventDateTime{DateTime: "2030-03-11T09:00:00Z"},
				End:       &calendarapi.EventDateTime{DateTime: "2030-03-11T10:00:00Z"},
				Attendees: []*calendarapi.EventAttendee{{Email: "bob@example.com"}},
			}},
		},
		FreeBusy: map[string]calendarapi.FreeBusyCalendar{
			"bob@example.com": {Busy: []*calendarapi.TimePeriod{{Start: "2030-03-11T09:00:00Z", End: "2030-03-11T10:00:00Z"}}},
			"eve@example.com": {Errors: []*calendarapi.Error{{Reason: "notFound"}}},
			"ann@example.com": {},
		},
		Calendars: []*calendarapi.CalendarListEntry{
			{Id: "me@example.com", Summary: "Me", TimeZone: "Europe/Berlin", Primary: true, AccessRole: "owner"},
			{Id: "team@example.com", Summary: "Team", AccessRole: "reader"},
		},
	}
}

func TestRegisterCalendarTools(t *testing.T) {
	tests := []struct {
		name     string
		readOnly bool
		want     []string
	}{
		{
			name:     "read-only",
			readOnly: true,
			want:     []string{"calendar_list_calendars", "calendar_list_upcoming", "calendar_query_freebusy"},
		},
		{
			name: "read-write",
			want: []string{
				"calendar_cancel_meeting", "calendar_list_calendars", "calendar_list_upcoming",
				"calendar_query_freebusy", "calendar_schedule_meeting", "calendar_update_meeting",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc := toolstest.NewServerContext(t, newGoogle())
			s := mcpserver.NewMCPServer("test-server", "1.0.0", mcpserver.WithToolCapabilities(true))

			require.NoError(t, RegisterCalendarTools(s, sc, tt.readOnly))
			assert.Equal(t, tt.want, toolstest.ToolNames(t, s))
		})
	}
}

func TestHandleListUpcoming(t *testing.T) {
	sc := toolstest.NewServerContext(t, newGoogle())

	result, err := handleListUpcoming(context.Background(), toolstest.Request("calendar_list_upcoming", nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)
	text := toolstest.Text(t, result)
	assert.Contains(t, text, "Found 1 upcoming meetings")
	assert.Contains(t, text, "1. Standup")
	assert.Contains(t, text, "Attendees: bob@example.com")

	result, err = handleListUpcoming(context.Background(), toolstest.Request("calendar_list_upcoming", map[string]any{"calendarId": "empty"}), sc)
	require.NoError(t, err)
	assert.Equal(t, "No upcoming meetings.", toolstest.Text(t, result))
}

func TestHandleQueryFreeBusy(t *testing.T) {
	sc := toolstest.NewServerContext(t, newGoogle())

	tests := []struct {
		name     string
		args     map[string]any
		isError  bool
		contains []string
	}{
		{
			name: "busy free and failed calendars",
			args: map[string]any{
				"timeMin":   "2030-03-11T00:00:00Z",
				"timeMax":   "2030-03-12T00:00:00Z",
				"calendars": "bob@example.com, eve@example.com, ann@example.com",
			},
			contains: []string{
				"Free/Busy information for 3 calendar(s)",
				"1. 2030-03-11 09:00 to 2030-03-11 10:00",
				"Errors: notFound",
				"Status: FREE for entire range",
			},
		},
		{
			name:     "reversed range",
			args:     map[string]any{"timeMin": "2030-03-12T00:00:00Z", "timeMax": "2030-03-11T00:00:00Z", "calendars": "bob@example.com"},
			isError:  true,
			contains: []string{"timeMin must be before timeMax"},
		},
		{
			name:     "missing calendars",
			args:     map[string]any{"timeMin": "2030-03-11T00:00:00Z", "timeMax": "2030-03-12T00:00:00Z"},
			isError:  true,
			contains: []string{"calendars is required"},
		},
		{
			name:     "bad time",
			args:     map[string]any{"timeMin": "monday", "timeMax": "2030-03-12T00:00:00Z", "calendars": "bob@example.com"},
			isError:  true,
			contains: []string{"invalid timeMin format"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleQueryFreeBusy(context.Background(), toolstest.Request("calendar_query_freebusy", tt.args), sc)
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)
			text := toolstest.Text(t, result)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
		})
	}
}

func TestHandleScheduleMeeting(t *testing.T) {
	tests := []struct {
		name         string
		args         map[string]any
		isError      bool
		contains     []string
		wantInserted int
	}{
		{
			name: "free slot",
			args: map[string]any{
				"title":     "Planning",
				"start":     "2030-03-11T15:00:00Z",
				"attendees": "jane@example.com, bob@example.com",
			},
			contains:     []string{"Meeting scheduled.", "ID: new-event", "Start: 2030-03-11T15:00:00Z", "End: 2030-03-11T15:30:00Z", "jane@example.com, bob@example.com"},
			wantInserted: 1,
		},
		{
			name:     "conflicting slot",
			args:     map[string]any{"title": "Planning", "start": "2030-03-11T09:30:00Z"},
			isError:  true,
			contains: []string{"overlaps 1 busy period(s)"},
		},
		{
			name:         "conflict check disabled",
			args:         map[string]any{"title": "Planning", "start": "2030-03-11T09:30:00Z", "durationMinutes": float64(60), "checkConflicts": false},
			contains:     []string{"End: 2030-03-11T10:30:00Z"},
			wantInserted: 1,
		},
		{
			name:     "invalid attendee",
			args:     map[string]any{"title": "Planning", "start": "2030-03-11T15:00:00Z", "attendees": "jane"},
			isError:  true,
			contains: []string{"not an email address"},
		},
		{
			name:     "missing title",
			args:     map[string]any{"start": "2030-03-11T15:00:00Z"},
			isError:  true,
			contains: []string{"title is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			google := newGoogle()
			sc := toolstest.NewServerContext(t, google)

			result, err := handleScheduleMeeting(context.Background(), toolstest.Request("calendar_schedule_meeting", tt.args), sc)
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)
			text := toolstest.Text(t, result)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}

			inserted := google.Inserted()
			require.Len(t, inserted, tt.wantInserted)
			if tt.wantInserted > 0 {
				assert.Equal(t, "UTC", inserted[0].Start.TimeZone)
				assert.Equal(t, "Planning", inserted[0].Summary)
			}
		})
	}
}

func TestHandleUpdateMeeting(t *testing.T) {
	google := newGoogle()
	sc := toolstest.NewServerContext(t, google)

	result, err := handleUpdateMeeting(context.Background(), toolstest.Request("calendar_update_meeting", map[string]any{
		"eventId":         "standup",
		"start":           "2030-03-12T09:00:00Z",
		"durationMinutes": float64(15),
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError, toolstest.Text(t, result))
	assert.Contains(t, toolstest.Text(t, result), "Meeting updated.")

	patched := google.Patched()
	require.Len(t, patched, 1)
	assert.Equal(t, "standup", patched[0].Id)
	assert.Equal(t, "2030-03-12T09:15:00Z", patched[0].End.DateTime)

	result, err = handleUpdateMeeting(context.Background(), toolstest.Request("calendar_update_meeting", map[string]any{"eventId": "standup"}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolstest.Text(t, result), "nothing to update")
}

func TestHandleCancelMeeting(t *testing.T) {
	google := newGoogle()
	sc := toolstest.NewServerContext(t, google)

	result, err := handleCancelMeeting(context.Background(), toolstest.Request("calendar_cancel_meeting", map[string]any{"eventId": "standup"}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Equal(t, []string{"standup"}, google.Deleted())

	result, err = handleCancelMeeting(context.Background(), toolstest.Request("calendar_cancel_meeting", map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleListCalendars(t *testing.T) {
	sc := toolstest.NewServerContext(t, newGoogle())

	result, err := handleListCalendars(context.Background(), toolstest.Request("calendar_list_calendars", nil), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)
	text := toolstest.Text(t, result)
	assert.Contains(t, text, "Found 2 calendar(s)")
	assert.Contains(t, text, "ID: me@example.com\n   Access Role: owner\n   [PRIMARY]\n   Time Zone: Europe/Berlin")
	assert.Contains(t, text, "2. Team")
}

func TestHandleListCalendars_NotAuthenticated(t *testing.T) {
	sc := toolstest.NewServerContext(t, newGoogle())

	result, err := handleListCalendars(context.Background(), toolstest.Request("calendar_list_calendars", map[string]any{"account": "work"}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolstest.Text(t, result), "not authenticated")
}
