package calendar

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/mailmeet/internal/meeting"
)

type recordedCall struct {
	method string
	path   string
	query  url.Values
	event  *calendar.Event
}

// fakeCalendar serves the subset of the Calendar REST API the client uses.
type fakeCalendar struct {
	events map[string][]*calendar.Event

	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeCalendar) recorded() []recordedCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *fakeCalendar) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/calendar/v3")
	call := recordedCall{method: r.Method, path: path, query: r.URL.Query()}
	if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPatch) {
		var e calendar.Event
		if json.NewDecoder(r.Body).Decode(&e) == nil {
			call.event = &e
		}
	}
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case path == "/freeBusy":
		_ = json.NewEncoder(w).Encode(&calendar.FreeBusyResponse{Calendars: map[string]calendar.FreeBusyCalendar{
			"bob@example.com": {Busy: []*calendar.TimePeriod{{Start: "2025-03-11T09:00:00Z", End: "2025-03-11T10:00:00Z"}}},
			"eve@example.com": {Errors: []*calendar.Error{{Reason: "notFound"}}},
		}})

	case path == "/users/me/calendarList":
		_ = json.NewEncoder(w).Encode(&calendar.CalendarList{Items: []*calendar.CalendarListEntry{
			{Id: "primary@example.com", Summary: "Me", TimeZone: "Europe/Berlin", Primary: true, AccessRole: "owner"},
		}})

	case len(parts) == 3 && parts[0] == "calendars" && parts[2] == "events" && r.Method == http.MethodGet:
		items := f.events[parts[1]]
		res := &calendar.Events{TimeZone: "Europe/Berlin"}
		if r.URL.Query().Get("pageToken") == "" && len(items) > 1 {
			res.Items = items[:1]
			res.NextPageToken = "p2"
		} else if r.URL.Query().Get("pageToken") != "" {
			res.Items = items[1:]
		} else {
			res.Items = items
		}
		_ = json.NewEncoder(w).Encode(res)

	case len(parts) == 3 && parts[2] == "events" && r.Method == http.MethodPost:
		created := *call.event
		created.Id = "new-event"
		_ = json.NewEncoder(w).Encode(&created)

	case len(parts) == 4 && r.Method == http.MethodPatch:
		patched := *call.event
		patched.Id = parts[3]
		_ = json.NewEncoder(w).Encode(&patched)

	case len(parts) == 4 && r.Method == http.MethodDelete:
		w.WriteHeader(http.StatusNoContent)

	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, fake *fakeCalendar) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	c, err := NewClient(context.Background(), "default", nil,
		option.WithHTTPClient(srv.Client()),
		option.WithEndpoint(srv.URL+"/"),
	)
	require.NoError(t, err)
	return c
}

func TestClient_BusyEvents(t *testing.T) {
	fake := &fakeCalendar{events: map[string][]*calendar.Event{
		"primary": {
			{Id: "a", Start: &calendar.EventDateTime{DateTime: "2025-03-11T09:00:00Z"}, End: &calendar.EventDateTime{DateTime: "2025-03-11T10:00:00Z"}},
			{Id: "b", Transparency: "transparent", Start: &calendar.EventDateTime{DateTime: "2025-03-11T11:00:00Z"}, End: &calendar.EventDateTime{DateTime: "2025-03-11T12:00:00Z"}},
			{Id: "c", Start: &calendar.EventDateTime{Date: "2025-03-12"}, End: &calendar.EventDateTime{Date: "2025-03-13"}},
		},
		"team": {
			{Id: "d", Start: &calendar.EventDateTime{DateTime: "2025-03-11T13:00:00Z"}, End: &calendar.EventDateTime{DateTime: "2025-03-11T14:00:00Z"}},
		},
	}}
	c := newTestClient(t, fake)

	from := time.Date(2025, time.March, 10, 0, 0, 0, 0, time.UTC)
	busy, err := c.BusyEvents(context.Background(), []string{"primary", "team"}, from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, busy, 3)
	assert.Empty(t, busy[0].TimeZone)
	assert.Equal(t, "Europe/Berlin", busy[1].TimeZone)
	assert.Equal(t, 13, busy[2].Start.Hour())
}

func TestClient_ScheduleMeeting(t *testing.T) {
	fake := &fakeCalendar{}
	c := newTestClient(t, fake)

	start := time.Date(2025, time.March, 11, 15, 0, 0, 0, time.UTC)
	summary, err := c.ScheduleMeeting(context.Background(), "primary", MeetingRequest{
		Title:       "Project sync",
		Slot:        meeting.SlotCandidate{Start: start, End: start.Add(30 * time.Minute), Duration: 30 * time.Minute},
		Attendees:   []string{"jane@example.com"},
		AddMeetLink: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "new-event", summary.ID)
	assert.True(t, summary.Start.Equal(start))

	calls := fake.recorded()
	require.Len(t, calls, 1)
	call := calls[0]
	assert.Equal(t, "all", call.query.Get("sendUpdates"))
	assert.Equal(t, "1", call.query.Get("conferenceDataVersion"))
	require.NotNil(t, call.event.Reminders)
	assert.False(t, call.event.Reminders.UseDefault)
	require.Len(t, call.event.Reminders.Overrides, 2)
	assert.Equal(t, int64(EmailReminderMinutes), call.event.Reminders.Overrides[0].Minutes)
	assert.Equal(t, "popup", call.event.Reminders.Overrides[1].Method)
	assert.NotEmpty(t, call.event.ConferenceData.CreateRequest.RequestId)
	assert.Equal(t, "UTC", call.event.Start.TimeZone)

	_, err = c.ScheduleMeeting(context.Background(), "primary", MeetingRequest{})
	assert.ErrorIs(t, err, ErrInvalidMeeting)
	assert.Len(t, fake.recorded(), 1)
}

func TestClient_UpdateAndCancel(t *testing.T) {
	fake := &fakeCalendar{}
	c := newTestClient(t, fake)

	start := time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)
	slot := meeting.SlotCandidate{Start: start, End: start.Add(time.Hour), Duration: time.Hour}
	updated, err := c.UpdateMeeting(context.Background(), "primary", "evt1", MeetingUpdate{Slot: &slot})
	require.NoError(t, err)
	assert.Equal(t, "evt1", updated.ID)

	require.NoError(t, c.CancelMeeting(context.Background(), "primary", "evt1"))

	calls := fake.recorded()
	require.Len(t, calls, 2)
	assert.Equal(t, http.MethodPatch, calls[0].method)
	assert.Equal(t, "all", calls[0].query.Get("sendUpdates"))
	assert.Equal(t, http.MethodDelete, calls[1].method)
	assert.Equal(t, "all", calls[1].query.Get("sendUpdates"))
}

func TestClient_QueryFreeBusy(t *testing.T) {
	c := newTestClient(t, &fakeCalendar{})

	from := time.Date(2025, time.March, 11, 0, 0, 0, 0, time.UTC)
	infos, err := c.QueryFreeBusy(context.Background(), from, from.Add(24*time.Hour), []string{"bob@example.com", "eve@example.com"})
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "bob@example.com", infos[0].Calendar)
	require.Len(t, infos[0].Busy, 1)
	assert.Equal(t, []string{"notFound"}, infos[1].Errors)
}

func TestClient_Calendars(t *testing.T) {
	c := newTestClient(t, &fakeCalendar{})

	cals, err := c.Calendars(context.Background())
	require.NoError(t, err)
	require.Len(t, cals, 1)
	assert.Equal(t, "Europe/Berlin", cals[0].TimeZone)
	assert.True(t, cals[0].Primary)
}
