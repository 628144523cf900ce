package calendar

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/mailmeet/internal/instrumentation"
	"github.com/teemow/mailmeet/internal/meeting"
)

// ErrInvalidMeeting is returned for meeting requests that cannot be created.
var ErrInvalidMeeting = errors.New("invalid meeting")

// Client wraps the Google Calendar service for one account.
type Client struct {
	svc     *calendar.Service
	account string
	metrics *instrumentation.Metrics
}

// NewClient creates a Calendar client for account. Pass option.WithHTTPClient
// with an authorized client; metrics may be nil.
func NewClient(ctx context.Context, account string, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	return &Client{svc: svc, account: account, metrics: metrics}, nil
}

// Account returns the account name this client is associated with.
func (c *Client) Account() string {
	return c.account
}

func (c *Client) observe(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceCalendar, operation)
	return ctx, func(err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceCalendar, operation, status, time.Since(start))
		instrumentation.EndSpan(span, err)
	}
}

// ListEvents lists single events of a calendar overlapping [timeMin, timeMax).
func (c *Client) ListEvents(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string) (summaries []EventSummary, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationList)
	defer func() { done(err) }()

	err = c.eachEvent(ctx, calendarID, timeMin, timeMax, query, func(event *calendar.Event, _ string) {
		summaries = append(summaries, toEventSummary(event))
	})
	return summaries, err
}

func (c *Client) eachEvent(ctx context.Context, calendarID string, timeMin, timeMax time.Time, query string, fn func(*calendar.Event, string)) error {
	pageToken := ""
	for {
		call := c.svc.Events.List(calendarID).
			TimeMin(timeMin.Format(time.RFC3339)).
			TimeMax(timeMax.Format(time.RFC3339)).
			SingleEvents(true).
			OrderBy("startTime").
			Context(ctx)
		if query != "" {
			call = call.Q(query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		events, err := call.Do()
		if err != nil {
			return fmt.Errorf("failed to list events of %s: %w", calendarID, err)
		}
		for _, event := range events.Items {
			fn(event, events.TimeZone)
		}
		if events.NextPageToken == "" {
			return nil
		}
		pageToken = events.NextPageToken
	}
}

// UpcomingMeetings returns the next maxResults events of a calendar starting now.
func (c *Client) UpcomingMeetings(ctx context.Context, calendarID string, maxResults int) (summaries []EventSummary, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationList)
	defer func() { done(err) }()

	events, err := c.svc.Events.List(calendarID).
		TimeMin(time.Now().Format(time.RFC3339)).
		MaxResults(int64(maxResults)).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list upcoming events: %w", err)
	}
	for _, event := range events.Items {
		summaries = append(summaries, toEventSummary(event))
	}
	return summaries, nil
}

// GetEvent retrieves a specific event by ID.
func (c *Client) GetEvent(ctx context.Context, calendarID, eventID string) (summary *EventSummary, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationGet)
	defer func() { done(err) }()

	event, err := c.svc.Events.Get(calendarID, eventID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	s := toEventSummary(event)
	return &s, nil
}

// BusyEvents lists the events that block time on the given calendars within
// [timeMin, timeMax). Free, cancelled and declined events are skipped.
func (c *Client) BusyEvents(ctx context.Context, calendarIDs []string, timeMin, timeMax time.Time) (busy []meeting.Event, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationList)
	defer func() { done(err) }()

	for _, id := range calendarIDs {
		err := c.eachEvent(ctx, id, timeMin, timeMax, "", func(event *calendar.Event, zone string) {
			if !blocksTime(event) {
				return
			}
			if e, ok := busyEvent(event, zone); ok {
				busy = append(busy, e)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return busy, nil
}

// QueryFreeBusy returns the busy ranges of calendars or attendee addresses.
func (c *Client) QueryFreeBusy(ctx context.Context, timeMin, timeMax time.Time, calendarIDs []string) (infos []FreeBusyInfo, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationFreeBusy)
	defer func() { done(err) }()

	items := make([]*calendar.FreeBusyRequestItem, len(calendarIDs))
	for i, id := range calendarIDs {
		items[i] = &calendar.FreeBusyRequestItem{Id: id}
	}

	result, err := c.svc.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: timeMin.Format(time.RFC3339),
		TimeMax: timeMax.Format(time.RFC3339),
		Items:   items,
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to query freebusy: %w", err)
	}

	for _, id := range calendarIDs {
		cal, ok := result.Calendars[id]
		if !ok {
			continue
		}
		info := FreeBusyInfo{Calendar: id}
		for _, b := range cal.Busy {
			start, err1 := time.Parse(time.RFC3339, b.Start)
			end, err2 := time.Parse(time.RFC3339, b.End)
			if err1 != nil || err2 != nil {
				continue
			}
			info.Busy = append(info.Busy, TimeRange{Start: start, End: end})
		}
		for _, e := range cal.Errors {
			info.Errors = append(info.Errors, e.Reason)
		}
		infos = append(infos, info)
	}
	return infos, nil
}

func (r MeetingRequest) validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidMeeting)
	}
	if !r.Slot.Start.Before(r.Slot.End) {
		return fmt.Errorf("%w: slot start must be before its end", ErrInvalidMeeting)
	}
	for _, a := range r.Attendees {
		if !strings.Contains(a, "@") {
			return fmt.Errorf("%w: attendee %q is not an email address", ErrInvalidMeeting, a)
		}
	}
	return nil
}

// ScheduleMeeting creates an event for the chosen slot and invites the
// attendees. It sets an email reminder a day ahead and a popup reminder half
// an hour ahead.
func (c *Client) ScheduleMeeting(ctx context.Context, calendarID string, req MeetingRequest) (summary *EventSummary, err error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	ctx, done := c.observe(ctx, instrumentation.OperationCreate)
	defer func() { done(err) }()

	event := &calendar.Event{
		Summary:     req.Title,
		Description: req.Description,
		Location:    req.Location,
		Start:       eventDateTime(req.Slot.Start, req.TimeZone),
		End:         eventDateTime(req.Slot.End, req.TimeZone),
		Attendees:   attendees(req.Attendees),
		Reminders: &calendar.EventReminders{
			UseDefault: false,
			Overrides: []*calendar.EventReminder{
				{Method: "email", Minutes: EmailReminderMinutes},
				{Method: "popup", Minutes: PopupReminderMinutes},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	call := c.svc.Events.Insert(calendarID, event).SendUpdates("all").Context(ctx)
	if req.AddMeetLink {
		event.ConferenceData = &calendar.ConferenceData{
			CreateRequest: &calendar.CreateConferenceRequest{
				RequestId:             uuid.NewString(),
				ConferenceSolutionKey: &calendar.ConferenceSolutionKey{Type: "hangoutsMeet"},
			},
		}
		call = call.ConferenceDataVersion(1)
	}

	created, err := call.Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}
	s := toEventSummary(created)
	return &s, nil
}

// UpdateMeeting patches an existing meeting and notifies attendees.
func (c *Client) UpdateMeeting(ctx context.Context, calendarID, eventID string, upd MeetingUpdate) (summary *EventSummary, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationUpdate)
	defer func() { done(err) }()

	patch := &calendar.Event{
		Summary:     upd.Title,
		Description: upd.Description,
	}
	if upd.Slot != nil {
		if !upd.Slot.Start.Before(upd.Slot.End) {
			return nil, fmt.Errorf("%w: slot start must be before its end", ErrInvalidMeeting)
		}
		patch.Start = eventDateTime(upd.Slot.Start, upd.TimeZone)
		patch.End = eventDateTime(upd.Slot.End, upd.TimeZone)
	}
	if len(upd.Attendees) > 0 {
		patch.Attendees = attendees(upd.Attendees)
	}

	updated, err := c.svc.Events.Patch(calendarID, eventID, patch).SendUpdates("all").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to update event: %w", err)
	}
	s := toEventSummary(updated)
	return &s, nil
}

// CancelMeeting deletes a meeting and notifies attendees.
func (c *Client) CancelMeeting(ctx context.Context, calendarID, eventID string) (err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationDelete)
	defer func() { done(err) }()

	if err := c.svc.Events.Delete(calendarID, eventID).SendUpdates("all").Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to cancel event: %w", err)
	}
	return nil
}

// Calendars lists all calendars accessible to the account.
func (c *Client) Calendars(ctx context.Context) (calendars []CalendarInfo, err error) {
	ctx, done := c.observe(ctx, instrumentation.OperationList)
	defer func() { done(err) }()

	list, err := c.svc.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to list calendars: %w", err)
	}
	for _, entry := range list.Items {
		calendars = append(calendars, toCalendarInfo(entry))
	}
	return calendars, nil
}
