package meeting_tools

import (
	"context"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	calendarapi "google.golang.org/api/calendar/v3"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailmeet/internal/tools/toolstest"
)

func newGoogle() *toolstest.Google {
	return &toolstest.Google{
		Threads: []*gmailapi.Thread{
			toolstest.Thread("t1",
				toolstest.Message("t1", "m1", "jane@example.com", "Planning", "Could we meet on 2030-03-11 at 3pm to go through the plan?"),
			),
			toolstest.Thread("t2",
				toolstest.Message("t2", "m2", "news@example.com", "Newsletter", "Thanks for subscribing."),
			),
		},
		Events: map[string][]*calendarapi.Event{
			"primary": {{
				Id:    "standup",
				Start: &calendarapi.EventDateTime{DateTime: "2030-03-11T09:00:00Z"},
				End:   &calendarapi.EventDateTime{DateTime: "2030-03-11T10:00:00Z"},
			}},
		},
	}
}

func TestRegisterMeetingTools(t *testing.T) {
	sc := toolstest.NewServerContext(t, newGoogle())
	s := mcpserver.NewMCPServer("test-server", "1.0.0", mcpserver.WithToolCapabilities(true))

	require.NoError(t, RegisterMeetingTools(s, sc))
	assert.Equal(t, []string{"meeting_detect_intent", "meeting_find_slots", "meeting_scan_inbox", "meeting_suggest_slots"}, toolstest.ToolNames(t, s))
}

func TestHandleDetectIntent(t *testing.T) {
	sc := toolstest.NewServerContext(t, newGoogle())

	tests := []struct {
		name     string
		args     map[string]any
		isError  bool
		contains []string
	}{
		{
			name:     "meeting request",
			args:     map[string]any{"text": "Can we meet tomorrow at 3pm?"},
			contains: []string{"Meeting request: yes", `"tomorrow at 3pm"`, "time 15:00"},
		},
		{
			name:     "no request",
			args:     map[string]any{"text": "Thanks for the update."},
			contains: []string{"Meeting request: no"},
		},
		{
			name:     "missing text",
			args:     map[string]any{},
			isError:  true,
			contains: []string{"text is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleDetectIntent(context.Background(), toolstest.Request("meeting_detect_intent", tt.args), sc)
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)
			text := toolstest.Text(t, result)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
		})
	}
}

func TestHandleSuggestSlots(t *testing.T) {
	sc := toolstest.NewServerContext(t, newGoogle())

	tests := []struct {
		name        string
		args        map[string]any
		isError     bool
		contains    []string
		notContains []string
	}{
		{
			name: "thread with request",
			args: map[string]any{"threadId": "t1"},
			contains: []string{
				"Subject: Planning",
				"1. Mon 2030-03-11 15:00-15:30 (30m0s) [requested]",
				"2. Mon 2030-03-11 10:00-10:30",
				"3. Mon 2030-03-11 10:30-11:00",
			},
			notContains: []string{"09:00-09:30"},
		},
		{
			name:     "thread without request",
			args:     map[string]any{"threadId": "t2"},
			contains: []string{"No meeting request detected."},
		},
		{
			name:     "text with custom duration",
			args:     map[string]any{"text": "Let's meet on 2030-03-11 at 3pm.", "durationMinutes": float64(60), "maxSuggestions": float64(1)},
			contains: []string{"Suggested slots (1)", "15:00-16:00 (1h0m0s) [requested]"},
		},
		{
			name:     "unknown thread",
			args:     map[string]any{"threadId": "missing"},
			isError:  true,
			contains: []string{"Failed to suggest slots"},
		},
		{
			name:     "unauthenticated account",
			args:     map[string]any{"threadId": "t1", "account": "work"},
			isError:  true,
			contains: []string{"mailmeet auth --account work"},
		},
		{
			name:     "nothing to analyze",
			args:     map[string]any{},
			isError:  true,
			contains: []string{"threadId or text is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleSuggestSlots(context.Background(), toolstest.Request("meeting_suggest_slots", tt.args), sc)
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)
			text := toolstest.Text(t, result)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, text, unwanted)
			}
		})
	}
}

func TestHandleFindSlots(t *testing.T) {
	sc := toolstest.NewServerContext(t, newGoogle())

	tests := []struct {
		name     string
		args     map[string]any
		isError  bool
		contains []string
	}{
		{
			name:     "skips busy morning",
			args:     map[string]any{"from": "2030-03-11", "to": "2030-03-11", "durationMinutes": float64(60), "limit": float64(2)},
			contains: []string{"Found 2 free slots", "1. Mon 2030-03-11 10:00-11:00", "2. Mon 2030-03-11 11:00-12:00"},
		},
		{
			name:     "weekend only",
			args:     map[string]any{"from": "2030-03-16", "to": "2030-03-17"},
			contains: []string{"No free 30m0s slots between 2030-03-16 and 2030-03-17."},
		},
		{
			name:     "reversed range",
			args:     map[string]any{"from": "2030-03-12", "to": "2030-03-11"},
			isError:  true,
			contains: []string{"Failed to find slots"},
		},
		{
			name:     "bad date",
			args:     map[string]any{"from": "11/03/2030", "to": "2030-03-11"},
			isError:  true,
			contains: []string{"invalid from date"},
		},
		{
			name:     "missing to",
			args:     map[string]any{"from": "2030-03-11"},
			isError:  true,
			contains: []string{"to is required"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleFindSlots(context.Background(), toolstest.Request("meeting_find_slots", tt.args), sc)
			require.NoError(t, err)
			assert.Equal(t, tt.isError, result.IsError)
			text := toolstest.Text(t, result)
			for _, want := range tt.contains {
				assert.Contains(t, text, want)
			}
		})
	}
}

func TestHandleScanInbox(t *testing.T) {
	sc := toolstest.NewServerContext(t, newGoogle())

	result, err := handleScanInbox(context.Background(), toolstest.Request("meeting_scan_inbox", map[string]any{
		"query":          "is:unread",
		"maxSuggestions": float64(1),
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError, toolstest.Text(t, result))

	text := toolstest.Text(t, result)
	assert.Contains(t, text, "Found 1 meeting requests")
	assert.Contains(t, text, "Thread: t1")
	assert.Contains(t, text, "1. Mon 2030-03-11 15:00-15:30 (30m0s) [requested]")
	assert.NotContains(t, text, "t2")
	assert.NotContains(t, text, "could not be checked")
}

func TestHandleScanInbox_NoRequests(t *testing.T) {
	g := newGoogle()
	g.Threads = g.Threads[1:]
	sc := toolstest.NewServerContext(t, g)

	result, err := handleScanInbox(context.Background(), toolstest.Request("meeting_scan_inbox", map[string]any{}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, toolstest.Text(t, result), "No meeting requests in threads matching")
}

func TestHandleScanInbox_UnknownAccount(t *testing.T) {
	sc := toolstest.NewServerContext(t, newGoogle())

	result, err := handleScanInbox(context.Background(), toolstest.Request("meeting_scan_inbox", map[string]any{"account": "other"}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}
