package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailmeet/internal/server"
	"github.com/teemow/mailmeet/internal/tools/common"
)

const (
	PolicyURI    = "mailmeet://scheduling/policy"
	CalendarsURI = "mailmeet://calendar/calendars"
)

// RegisterSchedulingResources registers the scheduling resources.
func RegisterSchedulingResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	policyResource := mcp.NewResource(
		PolicyURI,
		"Scheduling Policy",
		mcp.WithResourceDescription("Business hours, meeting defaults and intent thresholds used to suggest slots"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(policyResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSchedulingPolicy(ctx, request, sc)
	})

	calendarsResource := mcp.NewResource(
		CalendarsURI,
		"Calendars",
		mcp.WithResourceDescription("Calendars of the default account with their time zones"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(calendarsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleCalendars(ctx, request, sc)
	})

	return nil
}

type policyData struct {
	TimeZone          string   `json:"time_zone"`
	BusinessHours     string   `json:"business_hours"`
	StartHour         int      `json:"start_hour"`
	EndHour           int      `json:"end_hour"`
	Weekdays          []string `json:"weekdays"`
	DurationMinutes   int      `json:"duration_minutes"`
	DaysAhead         int      `json:"days_ahead"`
	MaxSuggestions    int      `json:"max_suggestions"`
	CalendarIDs       []string `json:"calendar_ids"`
	IntentThreshold   float64  `json:"intent_threshold"`
	IntentMinSignals  int      `json:"intent_min_signals"`
	WatchQuery        string   `json:"watch_query"`
	AssistantEnabled  bool     `json:"assistant_enabled"`
	ReplyStoreEnabled bool     `json:"reply_store_enabled"`
}

func handleSchedulingPolicy(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	opts := sc.TextScheduler().Options()
	policy := opts.Policy

	weekdays := make([]string, 0, 7)
	for _, d := range policy.AllowedWeekdays.Days() {
		weekdays = append(weekdays, d.String())
	}
	_, assistantErr := sc.Assistant()

	return jsonContents(request.Params.URI, policyData{
		TimeZone:          policy.Location.String(),
		BusinessHours:     policy.String(),
		StartHour:         policy.StartHour,
		EndHour:           policy.EndHour,
		Weekdays:          weekdays,
		DurationMinutes:   int(opts.Duration.Minutes()),
		DaysAhead:         opts.DaysAhead,
		MaxSuggestions:    opts.MaxSuggestions,
		CalendarIDs:       opts.CalendarIDs,
		IntentThreshold:   opts.Intent.Threshold,
		IntentMinSignals:  opts.Intent.MinSignals,
		WatchQuery:        sc.Config().Mail.WatchQuery,
		AssistantEnabled:  assistantErr == nil,
		ReplyStoreEnabled: sc.Replies() != nil,
	})
}

func handleCalendars(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	client, err := sc.CalendarClient(common.DefaultAccount)
	if err != nil {
		return nil, err
	}
	calendars, err := client.Calendars(ctx)
	if err != nil {
		return nil, err
	}
	return jsonContents(request.Params.URI, map[string]any{
		"account":   common.DefaultAccount,
		"calendars": calendars,
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
