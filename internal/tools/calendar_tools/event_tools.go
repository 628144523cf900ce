package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailmeet/internal/calendar"
	"github.com/teemow/mailmeet/internal/meeting"
	"github.com/teemow/mailmeet/internal/server"
	"github.com/teemow/mailmeet/internal/tools/common"
)

// RegisterEventTools registers event-related tools with the MCP server
func RegisterEventTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	// List upcoming meetings (read-only, always available)
	listUpcomingTool := mcp.NewTool("calendar_list_upcoming",
		mcp.WithDescription("List the next meetings on a calendar"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for primary calendar)"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of events to return (default: 10)"),
		),
	)

	s.AddTool(listUpcomingTool, common.InstrumentedToolHandler("calendar_list_upcoming", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListUpcoming(ctx, request, sc)
		}))

	// Register write tools only if not in read-only mode
	if readOnly {
		return nil
	}

	scheduleTool := mcp.NewTool("calendar_schedule_meeting",
		mcp.WithDescription("Schedule a meeting in a slot and invite the attendees. Refuses slots that overlap existing meetings unless checkConflicts is false."),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for primary calendar)"),
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Meeting title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time (RFC3339 format, e.g., '2025-03-11T15:00:00Z'), usually a suggested slot"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Meeting length in minutes (default from configuration)"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated list of attendee email addresses"),
		),
		mcp.WithString("description",
			mcp.Description("Meeting description"),
		),
		mcp.WithString("location",
			mcp.Description("Meeting location"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone the event is shown in (e.g., 'Europe/Berlin'). Defaults to the business hours zone."),
		),
		mcp.WithBoolean("addGoogleMeet",
			mcp.Description("Add a Google Meet link to the event"),
		),
		mcp.WithBoolean("checkConflicts",
			mcp.Description("Refuse the slot if it overlaps a busy event (default: true)"),
		),
	)

	s.AddTool(scheduleTool, common.InstrumentedToolHandler("calendar_schedule_meeting", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleScheduleMeeting(ctx, request, sc)
		}))

	updateTool := mcp.NewTool("calendar_update_meeting",
		mcp.WithDescription("Move or edit a scheduled meeting and notify the attendees"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for primary calendar)"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the meeting to update"),
		),
		mcp.WithString("title",
			mcp.Description("New meeting title"),
		),
		mcp.WithString("description",
			mcp.Description("New meeting description"),
		),
		mcp.WithString("start",
			mcp.Description("New start time (RFC3339 format). Requires durationMinutes or keeps the configured default length."),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Meeting length in minutes when moving the meeting"),
		),
		mcp.WithString("timeZone",
			mcp.Description("Time zone (e.g., 'Europe/Berlin')"),
		),
		mcp.WithString("attendees",
			mcp.Description("New comma-separated list of attendee email addresses"),
		),
	)

	s.AddTool(updateTool, common.InstrumentedToolHandler("calendar_update_meeting", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateMeeting(ctx, request, sc)
		}))

	cancelTool := mcp.NewTool("calendar_cancel_meeting",
		mcp.WithDescription("Cancel a meeting and notify the attendees"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (use 'primary' for primary calendar)"),
		),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the meeting to cancel"),
		),
	)

	s.AddTool(cancelTool, common.InstrumentedToolHandler("calendar_cancel_meeting", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleCancelMeeting(ctx, request, sc)
		}))

	return nil
}

func calendarIDArg(args map[string]any) string {
	if id, ok := args["calendarId"].(string); ok && id != "" {
		return id
	}
	return "primary"
}

// timeZoneArg returns the timeZone argument or the configured business hours zone.
func timeZoneArg(args map[string]any, sc *server.ServerContext) string {
	if tz, ok := args["timeZone"].(string); ok && tz != "" {
		return tz
	}
	if tz := sc.Config().Scheduling.TimeZone; tz != "Local" {
		return tz
	}
	return ""
}

func slotArg(args map[string]any, sc *server.ServerContext) (meeting.SlotCandidate, error) {
	start, err := common.TimeArg(args, "start")
	if err != nil {
		return meeting.SlotCandidate{}, err
	}
	minutes := common.IntArg(args, "durationMinutes", int(sc.Config().MeetingDuration()/time.Minute))
	duration := time.Duration(minutes) * time.Minute
	return meeting.SlotCandidate{Start: start, End: start.Add(duration), Duration: duration}, nil
}

func handleListUpcoming(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	client, err := sc.CalendarClient(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	events, err := client.UpcomingMeetings(ctx, calendarIDArg(args), common.IntArg(args, "maxResults", 10))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list events: %v", err)), nil
	}

	if len(events) == 0 {
		return mcp.NewToolResultText("No upcoming meetings."), nil
	}
	result := fmt.Sprintf("Found %d upcoming meetings:\n\n", len(events))
	for i, event := range events {
		result += fmt.Sprintf("%d. %s\n", i+1, formatEvent(event))
	}

	return mcp.NewToolResultText(result), nil
}

func handleScheduleMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)
	calendarID := calendarIDArg(args)

	title, ok := args["title"].(string)
	if !ok || strings.TrimSpace(title) == "" {
		return mcp.NewToolResultError("title is required"), nil
	}
	slot, err := slotArg(args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := calendar.MeetingRequest{
		Title:     title,
		Slot:      slot,
		TimeZone:  timeZoneArg(args, sc),
		Attendees: common.ListArg(args, "attendees"),
	}
	if desc, ok := args["description"].(string); ok {
		req.Description = desc
	}
	if loc, ok := args["location"].(string); ok {
		req.Location = loc
	}
	if meet, ok := args["addGoogleMeet"].(bool); ok {
		req.AddMeetLink = meet
	}

	client, err := sc.CalendarClient(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if check, ok := args["checkConflicts"].(bool); !ok || check {
		conflicts, err := countConflicts(ctx, client, calendarID, slot)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to check for conflicts: %v", err)), nil
		}
		if conflicts > 0 {
			return mcp.NewToolResultError(fmt.Sprintf("Slot %s overlaps %d busy period(s). Pick another slot or set checkConflicts to false.", slot, conflicts)), nil
		}
	}

	event, err := client.ScheduleMeeting(ctx, calendarID, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to schedule meeting: %v", err)), nil
	}
	common.Annotate(ctx, event.ID, req.Attendees...)

	return mcp.NewToolResultText("Meeting scheduled.\n\n" + formatEvent(*event)), nil
}

// countConflicts returns the number of merged busy periods overlapping slot.
func countConflicts(ctx context.Context, client *calendar.Client, calendarID string, slot meeting.SlotCandidate) (int, error) {
	events, err := client.BusyEvents(ctx, []string{calendarID}, slot.Start, slot.End)
	if err != nil {
		return 0, err
	}
	busy, err := meeting.Normalize(events, slot.Start.Location())
	if err != nil {
		return 0, err
	}
	n := 0
	for _, iv := range busy.Intervals {
		if iv.Overlaps(slot.Interval()) {
			n++
		}
	}
	return n, nil
}

func handleUpdateMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	var upd calendar.MeetingUpdate
	if title, ok := args["title"].(string); ok {
		upd.Title = title
	}
	if desc, ok := args["description"].(string); ok {
		upd.Description = desc
	}
	if _, ok := args["start"]; ok {
		slot, err := slotArg(args, sc)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		upd.Slot = &slot
		upd.TimeZone = timeZoneArg(args, sc)
	}
	upd.Attendees = common.ListArg(args, "attendees")

	if upd.Title == "" && upd.Description == "" && upd.Slot == nil && len(upd.Attendees) == 0 {
		return mcp.NewToolResultError("nothing to update: set title, description, start or attendees"), nil
	}

	client, err := sc.CalendarClient(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	event, err := client.UpdateMeeting(ctx, calendarIDArg(args), eventID, upd)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to update meeting: %v", err)), nil
	}
	common.Annotate(ctx, eventID, upd.Attendees...)

	return mcp.NewToolResultText("Meeting updated.\n\n" + formatEvent(*event)), nil
}

func handleCancelMeeting(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	eventID, ok := args["eventId"].(string)
	if !ok || eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	client, err := sc.CalendarClient(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := client.CancelMeeting(ctx, calendarIDArg(args), eventID); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to cancel meeting: %v", err)), nil
	}
	common.Annotate(ctx, eventID)

	return mcp.NewToolResultText(fmt.Sprintf("Meeting %s cancelled. Attendees have been notified.", eventID)), nil
}

func formatEvent(event calendar.EventSummary) string {
	result := fmt.Sprintf("%s\n", event.Summary)
	result += fmt.Sprintf("   ID: %s\n", event.ID)
	if event.AllDay {
		result += fmt.Sprintf("   Date: %s (all day)\n", event.Start.Format("2006-01-02"))
	} else {
		result += fmt.Sprintf("   Start: %s\n", event.Start.Format(time.RFC3339))
		result += fmt.Sprintf("   End: %s\n", event.End.Format(time.RFC3339))
	}
	if event.Location != "" {
		result += fmt.Sprintf("   Location: %s\n", event.Location)
	}
	if event.MeetLink != "" {
		result += fmt.Sprintf("   Meet: %s\n", event.MeetLink)
	}
	if len(event.Attendees) > 0 {
		emails := make([]string, len(event.Attendees))
		for i, att := range event.Attendees {
			emails[i] = att.Email
		}
		result += fmt.Sprintf("   Attendees: %s\n", strings.Join(emails, ", "))
	}
	return result
}
