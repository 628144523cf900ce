package meeting_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailmeet/internal/meeting"
	"github.com/teemow/mailmeet/internal/scheduling"
	"github.com/teemow/mailmeet/internal/server"
	"github.com/teemow/mailmeet/internal/tools/common"
)

// RegisterMeetingTools registers the meeting tools. All of them are read-only.
func RegisterMeetingTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	detectTool := mcp.NewTool("meeting_detect_intent",
		mcp.WithDescription("Decide whether a text asks for a meeting and list the date and time hints found in it"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Email or message text to analyze"),
		),
	)
	s.AddTool(detectTool, common.InstrumentedToolHandler("meeting_detect_intent", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDetectIntent(ctx, request, sc)
		}))

	suggestTool := mcp.NewTool("meeting_suggest_slots",
		mcp.WithDescription("Suggest free calendar slots for the meeting a Gmail thread or a text asks for"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("threadId",
			mcp.Description("Gmail thread to analyze. Either threadId or text is required."),
		),
		mcp.WithString("text",
			mcp.Description("Text to analyze instead of a thread"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Meeting length in minutes (default from configuration)"),
		),
		mcp.WithNumber("maxSuggestions",
			mcp.Description("Maximum number of slots to suggest (default from configuration)"),
		),
		mcp.WithString("calendarIds",
			mcp.Description("Comma-separated calendars to check for conflicts (default from configuration)"),
		),
	)
	s.AddTool(suggestTool, common.InstrumentedToolHandler("meeting_suggest_slots", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSuggestSlots(ctx, request, sc)
		}))

	findTool := mcp.NewTool("meeting_find_slots",
		mcp.WithDescription("Find free slots within business hours between two dates"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("First day to search (YYYY-MM-DD)"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Last day to search, inclusive (YYYY-MM-DD)"),
		),
		mcp.WithNumber("durationMinutes",
			mcp.Description("Slot length in minutes (default from configuration)"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of slots to return (default: 10)"),
		),
		mcp.WithString("calendarIds",
			mcp.Description("Comma-separated calendars to check for conflicts (default from configuration)"),
		),
	)
	s.AddTool(findTool, common.InstrumentedToolHandler("meeting_find_slots", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindSlots(ctx, request, sc)
		}))

	scanTool := mcp.NewTool("meeting_scan_inbox",
		mcp.WithDescription("Check recent Gmail threads for meeting requests and suggest slots for each"),
		mcp.WithString("account",
			mcp.Description("Account name (default: 'default'). Used to manage multiple Google accounts."),
		),
		mcp.WithString("query",
			mcp.Description("Gmail search query selecting the threads (default from configuration)"),
		),
		mcp.WithNumber("maxThreads",
			mcp.Description("Maximum number of threads to check (default from configuration)"),
		),
		mcp.WithNumber("maxSuggestions",
			mcp.Description("Maximum number of slots to suggest per thread (default from configuration)"),
		),
	)
	s.AddTool(scanTool, common.InstrumentedToolHandler("meeting_scan_inbox", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleScanInbox(ctx, request, sc)
		}))

	return nil
}

func handleDetectIntent(_ context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	text, ok := args["text"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text is required"), nil
	}

	decision := sc.TextScheduler().DetectIntent(text, time.Now())
	return mcp.NewToolResultText(formatDecision(decision)), nil
}

func handleSuggestSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	threadID, _ := args["threadId"].(string)
	text, _ := args["text"].(string)
	if threadID == "" && strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("threadId or text is required"), nil
	}

	svc, err := sc.Scheduler(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	defaults := svc.Options()
	opts := scheduling.SuggestOptions{
		Duration:       time.Duration(common.IntArg(args, "durationMinutes", int(defaults.Duration/time.Minute))) * time.Minute,
		MaxSuggestions: common.IntArg(args, "maxSuggestions", defaults.MaxSuggestions),
		CalendarIDs:    common.ListArg(args, "calendarIds"),
	}

	var proposal *scheduling.Proposal
	if threadID != "" {
		common.Annotate(ctx, threadID)
		proposal, err = svc.SuggestForThread(ctx, threadID, opts)
	} else {
		proposal, err = svc.SuggestForText(ctx, text, opts)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to suggest slots: %v", err)), nil
	}

	return mcp.NewToolResultText(formatProposal(proposal)), nil
}

func handleFindSlots(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	from, err := dateArg(args, "from")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	to, err := dateArg(args, "to")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	svc, err := sc.Scheduler(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	duration := time.Duration(common.IntArg(args, "durationMinutes", int(svc.Options().Duration/time.Minute))) * time.Minute
	limit := common.IntArg(args, "limit", 10)

	slots, err := svc.FindSlots(ctx, from, to, duration, limit, common.ListArg(args, "calendarIds"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to find slots: %v", err)), nil
	}

	if len(slots) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No free %s slots between %s and %s.", duration, from, to)), nil
	}
	result := fmt.Sprintf("Found %d free slots:\n\n", len(slots))
	for i, slot := range slots {
		result += fmt.Sprintf("%d. %s\n", i+1, slot)
	}
	return mcp.NewToolResultText(result), nil
}

func handleScanInbox(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)
	cfg := sc.Config()

	query, _ := args["query"].(string)
	if query == "" {
		query = cfg.Mail.WatchQuery
	}

	client, err := sc.GmailClient(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	svc, err := sc.Scheduler(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	proposals, err := svc.Scan(ctx, client, query, common.IntArg(args, "maxThreads", cfg.Mail.MaxThreads), scheduling.SuggestOptions{
		MaxSuggestions: common.IntArg(args, "maxSuggestions", svc.Options().MaxSuggestions),
	})
	if err != nil && len(proposals) == 0 {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to scan threads: %v", err)), nil
	}

	var b strings.Builder
	if len(proposals) == 0 {
		fmt.Fprintf(&b, "No meeting requests in threads matching %q.\n", query)
	} else {
		fmt.Fprintf(&b, "Found %d meeting requests:\n", len(proposals))
		for _, p := range proposals {
			b.WriteString("\n")
			b.WriteString(formatProposal(p))
		}
	}
	if err != nil {
		fmt.Fprintf(&b, "\nSome threads could not be checked: %v\n", err)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func dateArg(args map[string]any, key string) (civil.Date, error) {
	s, ok := args[key].(string)
	if !ok || s == "" {
		return civil.Date{}, fmt.Errorf("%s is required", key)
	}
	d, err := civil.ParseDate(s)
	if err != nil {
		return civil.Date{}, fmt.Errorf("invalid %s date, expected YYYY-MM-DD: %w", key, err)
	}
	return d, nil
}

func formatDecision(d meeting.Decision) string {
	var b strings.Builder
	switch {
	case d.IsMeetingRequest && d.Corroborated:
		b.WriteString("Meeting request: yes (several weak signals)\n")
	case d.IsMeetingRequest:
		b.WriteString("Meeting request: yes\n")
	default:
		b.WriteString("Meeting request: no\n")
	}
	if d.Signals != 0 {
		fmt.Fprintf(&b, "Signals: %s\n", d.Signals)
	}
	if len(d.Hints) == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "\nHints (%d):\n", len(d.Hints))
	for i, h := range d.Hints {
		fmt.Fprintf(&b, "%d. %q confidence %.2f", i+1, h.Span, h.Confidence)
		if h.Date != nil {
			fmt.Fprintf(&b, ", date %s", h.Date)
		}
		if h.Weekday != nil && h.Date == nil {
			fmt.Fprintf(&b, ", %s", h.Weekday)
		}
		if h.Time != nil {
			fmt.Fprintf(&b, ", time %02d:%02d", h.Time.Hour, h.Time.Minute)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatProposal(p *scheduling.Proposal) string {
	var b strings.Builder
	if p.ThreadID != "" {
		fmt.Fprintf(&b, "Thread: %s\n", p.ThreadID)
	}
	if p.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", p.Subject)
	}
	if !p.IsMeetingRequest() {
		b.WriteString("No meeting request detected.\n")
		return b.String()
	}
	if best, ok := p.Decision.Best(); ok {
		fmt.Fprintf(&b, "Meeting request detected: %q\n", best.Span)
	}
	if len(p.Slots) == 0 {
		b.WriteString("No free slots found.\n")
		return b.String()
	}

	fmt.Fprintf(&b, "\nSuggested slots (%d):\n", len(p.Slots))
	for i, slot := range p.Slots {
		fmt.Fprintf(&b, "%d. %s", i+1, slot.SlotCandidate)
		if slot.Requested {
			b.WriteString(" [requested]")
		}
		fmt.Fprintf(&b, "\n   start: %s\n", slot.Start.Format(time.RFC3339))
	}
	return b.String()
}
