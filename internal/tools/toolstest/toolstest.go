// Package toolstest provides an in-memory Google API and helpers for testing MCP
// tool handlers end to end.
package toolstest

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/require"
	calendarapi "google.golang.org/api/calendar/v3"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/mailmeet/internal/config"
	"github.com/teemow/mailmeet/internal/server"
)

// Google serves the parts of the Gmail and Calendar REST APIs the clients use.
// Calendar events are listed regardless of the requested time range.
type Google struct {
	Threads   []*gmailapi.Thread
	Events    map[string][]*calendarapi.Event
	FreeBusy  map[string]calendarapi.FreeBusyCalendar
	Calendars []*calendarapi.CalendarListEntry

	mu       sync.Mutex
	sent     []*gmailapi.Message
	inserted []*calendarapi.Event
	patched  []*calendarapi.Event
	deleted  []string
}

// Sent returns the messages sent so far.
func (g *Google) Sent() []*gmailapi.Message {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.sent)
}

// Inserted returns the events created so far.
func (g *Google) Inserted() []*calendarapi.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.inserted)
}

// Patched returns the event patches received so far, with Id set to the patched event.
func (g *Google) Patched() []*calendarapi.Event {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.patched)
}

// Deleted returns the IDs of deleted events.
func (g *Google) Deleted() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.deleted)
}

func (g *Google) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if path, ok := strings.CutPrefix(r.URL.Path, "/gmail/v1/users/me/"); ok {
		g.serveGmail(w, r, path)
		return
	}
	g.serveCalendar(w, r, strings.TrimPrefix(r.URL.Path, "/calendar/v3"))
}

func (g *Google) serveGmail(w http.ResponseWriter, r *http.Request, path string) {
	switch {
	case path == "threads" && r.Method == http.MethodGet:
		res := &gmailapi.ListThreadsResponse{}
		for _, t := range g.Threads {
			res.Threads = append(res.Threads, &gmailapi.Thread{Id: t.Id, Snippet: t.Snippet})
		}
		_ = json.NewEncoder(w).Encode(res)

	case strings.HasPrefix(path, "threads/"):
		id := strings.TrimPrefix(path, "threads/")
		for _, t := range g.Threads {
			if t.Id == id {
				_ = json.NewEncoder(w).Encode(t)
				return
			}
		}
		notFound(w)

	case path == "messages/send" && r.Method == http.MethodPost:
		var msg gmailapi.Message
		if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		g.mu.Lock()
		g.sent = append(g.sent, &msg)
		g.mu.Unlock()
		_ = json.NewEncoder(w).Encode(&gmailapi.Message{Id: "sent-1", ThreadId: msg.ThreadId})

	case path == "settings/sendAs/me":
		_ = json.NewEncoder(w).Encode(&gmailapi.SendAs{})

	default:
		notFound(w)
	}
}

func (g *Google) serveCalendar(w http.ResponseWriter, r *http.Request, path string) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	switch {
	case path == "/freeBusy":
		_ = json.NewEncoder(w).Encode(&calendarapi.FreeBusyResponse{Calendars: g.FreeBusy})

	case path == "/users/me/calendarList":
		_ = json.NewEncoder(w).Encode(&calendarapi.CalendarList{Items: g.Calendars})

	case len(parts) == 3 && parts[0] == "calendars" && parts[2] == "events" && r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(&calendarapi.Events{TimeZone: "UTC", Items: g.Events[parts[1]]})

	case len(parts) == 3 && parts[2] == "events" && r.Method == http.MethodPost:
		var event calendarapi.Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		event.Id = "new-event"
		event.Status = "confirmed"
		g.mu.Lock()
		g.inserted = append(g.inserted, &event)
		g.mu.Unlock()
		_ = json.NewEncoder(w).Encode(&event)

	case len(parts) == 4 && r.Method == http.MethodPatch:
		var event calendarapi.Event
		if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		event.Id = parts[3]
		g.mu.Lock()
		g.patched = append(g.patched, &event)
		g.mu.Unlock()
		_ = json.NewEncoder(w).Encode(&event)

	case len(parts) == 4 && r.Method == http.MethodDelete:
		g.mu.Lock()
		g.deleted = append(g.deleted, parts[3])
		g.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)

	default:
		notFound(w)
	}
}

func notFound(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
}

// clients authorizes the "default" account and every account a code was saved for.
// The code "invalid" is rejected.
type clients struct {
	httpClient *http.Client

	mu    sync.Mutex
	saved map[string]bool
}

func (c *clients) HasToken(account string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return account == "default" || c.saved[account]
}

func (c *clients) HTTPClient(context.Context, string) (*http.Client, error) {
	return c.httpClient, nil
}

func (c *clients) AuthURL(account string) (string, error) {
	return "https://accounts.example.com/o/oauth2/auth?state=" + account, nil
}

func (c *clients) SaveToken(_ context.Context, account, code string) error {
	if code == "invalid" {
		return errors.New("invalid_grant")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.saved == nil {
		c.saved = make(map[string]bool)
	}
	c.saved[account] = true
	return nil
}

// NewServerContext starts g on a test server and returns a server context whose
// Google clients talk to it. Business hours are 9 to 17 UTC on weekdays. modify may
// adjust the options before the context is created.
func NewServerContext(t *testing.T, g *Google, modify ...func(*server.Options)) *server.ServerContext {
	t.Helper()
	srv := httptest.NewServer(g)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.Scheduling.TimeZone = "UTC"

	opts := server.Options{
		Config:        cfg,
		Clients:       &clients{httpClient: srv.Client()},
		ClientOptions: []option.ClientOption{option.WithEndpoint(srv.URL + "/")},
	}
	for _, fn := range modify {
		fn(&opts)
	}

	sc, err := server.NewServerContext(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

// Request builds a tool call request with args.
func Request(name string, args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

// ToolNames lists the tools registered on s, sorted by name.
func ToolNames(t *testing.T, s *mcpserver.MCPServer) []string {
	t.Helper()
	resp := s.HandleMessage(context.Background(), json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`))
	raw, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Tools []struct {
				Name string `json:"name"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	names := make([]string, 0, len(decoded.Result.Tools))
	for _, tool := range decoded.Result.Tools {
		names = append(names, tool.Name)
	}
	slices.Sort(names)
	return names
}

// Text returns the text of the first content item of result.
func Text(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, result)
	require.NotEmpty(t, result.Content)
	text, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", result.Content[0])
	return text.Text
}

// Message builds a plain text Gmail message.
func Message(threadID, id, from, subject, body string) *gmailapi.Message {
	return &gmailapi.Message{
		Id:       id,
		ThreadId: threadID,
		Payload: &gmailapi.MessagePart{
			MimeType: "text/plain",
			Body:     &gmailapi.MessagePartBody{Data: encode(body)},
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: from},
				{Name: "To", Value: "me@example.com"},
				{Name: "Subject", Value: subject},
				{Name: "Message-ID", Value: "<" + id + "@example.com>"},
			},
		},
	}
}

// Thread builds a Gmail thread from messages.
func Thread(id string, messages ...*gmailapi.Message) *gmailapi.Thread {
	snippet := ""
	if len(messages) > 0 {
		snippet = HeaderSubject(messages[0])
	}
	return &gmailapi.Thread{Id: id, Snippet: snippet, Messages: messages}
}

// HeaderSubject returns the Subject header of m.
func HeaderSubject(m *gmailapi.Message) string {
	for _, h := range m.Payload.Headers {
		if h.Name == "Subject" {
			return h.Value
		}
	}
	return ""
}

func encode(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}
