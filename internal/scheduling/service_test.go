package scheduling

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailmeet/internal/config"
	"github.com/teemow/mailmeet/internal/gmail"
	"github.com/teemow/mailmeet/internal/meeting"
)

// mondayMorning is Monday, 10 March 2025.
var mondayMorning = time.Date(2025, time.March, 10, 9, 0, 0, 0, time.UTC)

func at(day, hour, minute int) time.Time {
	return time.Date(2025, time.March, day, hour, minute, 0, 0, time.UTC)
}

type busyQuery struct {
	calendarIDs      []string
	timeMin, timeMax time.Time
}

type fakeBusy struct {
	events []meeting.Event
	err    error

	mu      sync.Mutex
	queries []busyQuery
}

func (f *fakeBusy) BusyEvents(_ context.Context, calendarIDs []string, timeMin, timeMax time.Time) ([]meeting.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, busyQuery{calendarIDs: calendarIDs, timeMin: timeMin, timeMax: timeMax})
	return f.events, f.err
}

type fakeThreads map[string]*gmail.Thread

func (f fakeThreads) GetThread(_ context.Context, id string) (*gmail.Thread, error) {
	thread, ok := f[id]
	if !ok {
		return nil, errors.New("thread not found")
	}
	return thread, nil
}

func (f fakeThreads) ListThreads(_ context.Context, _ string, maxResults int) ([]gmail.ThreadSummary, error) {
	var out []gmail.ThreadSummary
	for _, id := range []string{"t1", "t2", "t3"} {
		if len(out) == maxResults {
			break
		}
		out = append(out, gmail.ThreadSummary{ID: id})
	}
	return out, nil
}

func newTestService(busy BusySource, threads ThreadSource) *Service {
	svc := NewService(Options{
		Policy:         meeting.DefaultBusinessHours(time.UTC),
		Intent:         meeting.DefaultIntentPolicy(),
		Duration:       30 * time.Minute,
		DaysAhead:      7,
		MaxSuggestions: 3,
	}, busy, threads, nil)
	svc.now = func() time.Time { return mondayMorning }
	return svc
}

func starts(slots []Suggestion) []time.Time {
	out := make([]time.Time, len(slots))
	for i, s := range slots {
		out[i] = s.Start
	}
	return out
}

func TestNewService_Defaults(t *testing.T) {
	svc := NewService(Options{Policy: meeting.DefaultBusinessHours(time.UTC)}, &fakeBusy{}, nil, nil)

	opts := svc.Options()
	assert.Equal(t, 30*time.Minute, opts.Duration)
	assert.Equal(t, 7, opts.DaysAhead)
	assert.Equal(t, 3, opts.MaxSuggestions)
	assert.Equal(t, []string{"primary"}, opts.CalendarIDs)
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Scheduling.TimeZone = "Europe/Berlin"
	cfg.Scheduling.MeetingDurationMinutes = 45

	opts, err := OptionsFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Berlin", opts.Policy.Location.String())
	assert.Equal(t, 45*time.Minute, opts.Duration)
	assert.Equal(t, meeting.DefaultIntentPolicy(), opts.Intent)

	cfg.Scheduling.TimeZone = "Mars/Olympus"
	_, err = OptionsFromConfig(cfg)
	assert.Error(t, err)
}

func TestService_DetectIntent(t *testing.T) {
	svc := newTestService(&fakeBusy{}, nil)

	d := svc.DetectIntent("Can we meet tomorrow at 3pm?", mondayMorning)
	assert.True(t, d.IsMeetingRequest)
	best, ok := d.Best()
	require.True(t, ok)
	assert.Equal(t, "meet tomorrow at 3pm", best.Span)

	assert.False(t, svc.DetectIntent("Thanks, the report looks great.", mondayMorning).IsMeetingRequest)
}

func TestService_SuggestForText_RequestedSlotFirst(t *testing.T) {
	busy := &fakeBusy{}
	svc := newTestService(busy, nil)

	p, err := svc.SuggestForText(context.Background(), "Can we meet tomorrow at 3pm?", SuggestOptions{})
	require.NoError(t, err)
	require.True(t, p.IsMeetingRequest())

	assert.Equal(t, []time.Time{at(11, 15, 0), at(11, 9, 0), at(11, 9, 30)}, starts(p.Slots))
	assert.True(t, p.Slots[0].Requested)
	assert.False(t, p.Slots[1].Requested)
	assert.Equal(t, 30*time.Minute, p.Slots[0].Duration)

	require.Len(t, busy.queries, 1)
	q := busy.queries[0]
	assert.Equal(t, []string{"primary"}, q.calendarIDs)
	assert.True(t, q.timeMin.Equal(at(11, 0, 0)))
	assert.True(t, q.timeMax.Equal(at(18, 0, 0)))
}

func TestService_SuggestForText_RequestedSlotBusy(t *testing.T) {
	busy := &fakeBusy{events: []meeting.Event{{Start: at(11, 15, 0), End: at(11, 16, 0)}}}
	svc := newTestService(busy, nil)

	p, err := svc.SuggestForText(context.Background(), "Can we meet tomorrow at 3pm?", SuggestOptions{})
	require.NoError(t, err)
	assert.Equal(t, []time.Time{at(11, 9, 0), at(11, 9, 30), at(11, 10, 0)}, starts(p.Slots))
	for _, s := range p.Slots {
		assert.False(t, s.Requested)
	}
}

func TestService_SuggestForText_RequestedOutsideBusinessHours(t *testing.T) {
	svc := newTestService(&fakeBusy{}, nil)

	p, err := svc.SuggestForText(context.Background(), "Can we meet tomorrow at 8pm?", SuggestOptions{MaxSuggestions: 1})
	require.NoError(t, err)
	require.Len(t, p.Slots, 1)
	assert.False(t, p.Slots[0].Requested)
	assert.Equal(t, at(11, 9, 0), p.Slots[0].Start)
}

func TestService_SuggestForText_SkipsPastSlots(t *testing.T) {
	svc := newTestService(&fakeBusy{}, nil)

	p, err := svc.SuggestForText(context.Background(), "Can we meet today?", SuggestOptions{Now: at(10, 10, 10)})
	require.NoError(t, err)
	require.True(t, p.IsMeetingRequest())
	assert.Equal(t, []time.Time{at(10, 10, 30), at(10, 11, 0), at(10, 11, 30)}, starts(p.Slots))
}

func TestService_SuggestForText_NotARequest(t *testing.T) {
	busy := &fakeBusy{}
	svc := newTestService(busy, nil)

	p, err := svc.SuggestForText(context.Background(), "Thanks, the report looks great.", SuggestOptions{})
	require.NoError(t, err)
	assert.False(t, p.IsMeetingRequest())
	assert.Empty(t, p.Slots)
	assert.Empty(t, busy.queries)
}

func TestService_SuggestForText_BusySourceError(t *testing.T) {
	boom := errors.New("calendar unavailable")
	svc := newTestService(&fakeBusy{err: boom}, nil)

	_, err := svc.SuggestForText(context.Background(), "Can we meet tomorrow at 3pm?", SuggestOptions{})
	assert.ErrorIs(t, err, boom)
}

func TestService_SuggestForText_InvalidBusyEvent(t *testing.T) {
	busy := &fakeBusy{events: []meeting.Event{{Start: at(11, 10, 0), End: at(11, 9, 0)}}}
	svc := newTestService(busy, nil)

	_, err := svc.SuggestForText(context.Background(), "Can we meet tomorrow at 3pm?", SuggestOptions{})
	assert.ErrorIs(t, err, meeting.ErrInvalidInput)
}

func TestService_SuggestForThread(t *testing.T) {
	threads := fakeThreads{
		"t1": {
			ID: "t1",
			Messages: []gmail.Message{{
				From:    "jane@example.com",
				Subject: "Project sync",
				Date:    at(10, 8, 0),
				Body:    "Could we schedule a call on Thursday at 10am?",
			}},
		},
	}
	busy := &fakeBusy{}
	svc := newTestService(busy, threads)

	p, err := svc.SuggestForThread(context.Background(), "t1", SuggestOptions{Duration: time.Hour, CalendarIDs: []string{"team"}})
	require.NoError(t, err)
	assert.Equal(t, "t1", p.ThreadID)
	assert.Equal(t, "Project sync", p.Subject)
	require.NotEmpty(t, p.Slots)
	assert.True(t, p.Slots[0].Requested)
	assert.Equal(t, at(13, 10, 0), p.Slots[0].Start)
	assert.Equal(t, at(13, 11, 0), p.Slots[0].End)
	assert.Equal(t, []string{"team"}, busy.queries[0].calendarIDs)

	_, err = svc.SuggestForThread(context.Background(), "missing", SuggestOptions{})
	assert.Error(t, err)
}

func TestService_SuggestForThread_IgnoresHeaderDates(t *testing.T) {
	threads := fakeThreads{
		"t1": {ID: "t1", Messages: []gmail.Message{{
			From:    "jane@example.com",
			Subject: "Quarterly report",
			Date:    at(10, 9, 30),
			Body:    "Please find the report attached.",
		}}},
	}
	svc := newTestService(&fakeBusy{}, threads)

	p, err := svc.SuggestForThread(context.Background(), "t1", SuggestOptions{})
	require.NoError(t, err)
	assert.False(t, p.IsMeetingRequest())
}

func TestService_SuggestForThread_NoThreadSource(t *testing.T) {
	svc := newTestService(&fakeBusy{}, nil)
	_, err := svc.SuggestForThread(context.Background(), "t1", SuggestOptions{})
	assert.Error(t, err)
}

func TestService_FindSlots(t *testing.T) {
	busy := &fakeBusy{events: []meeting.Event{{Start: at(10, 9, 0), End: at(10, 12, 0)}}}
	svc := newTestService(busy, nil)

	day := civil.Date{Year: 2025, Month: time.March, Day: 10}
	slots, err := svc.FindSlots(context.Background(), day, day, 0, 2, nil)
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.Equal(t, at(10, 12, 0), slots[0].Start)
	assert.Equal(t, at(10, 12, 30), slots[1].Start)

	require.Len(t, busy.queries, 1)
	assert.True(t, busy.queries[0].timeMax.Equal(at(11, 0, 0)))
}

func TestService_FindSlots_InvalidRange(t *testing.T) {
	busy := &fakeBusy{}
	svc := newTestService(busy, nil)

	from := civil.Date{Year: 2025, Month: time.March, Day: 12}
	_, err := svc.FindSlots(context.Background(), from, from.AddDays(-1), time.Hour, 3, nil)
	assert.ErrorIs(t, err, meeting.ErrInvalidInput)
	assert.Empty(t, busy.queries)
}
