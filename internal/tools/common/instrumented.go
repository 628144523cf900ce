package common

import (
	"context"
	"errors"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/mailmeet/internal/instrumentation"
	"github.com/teemow/mailmeet/internal/server"
)

// ToolHandler is the signature of an mcp-go tool handler.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

type invocationKey struct{}

// Annotate records the resource a tool call acted on and the addresses it touched
// in the audit entry of the call. It is a no-op outside an instrumented handler.
func Annotate(ctx context.Context, resourceID string, attendees ...string) {
	inv, ok := ctx.Value(invocationKey{}).(*instrumentation.ToolInvocation)
	if !ok {
		return
	}
	if resourceID != "" {
		inv.ResourceID = resourceID
	}
	inv.Attendees = append(inv.Attendees, attendees...)
}

// InstrumentedToolHandler wraps a tool handler with a span, metrics and an audit
// log entry. A result with IsError set counts as a failed call.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		account := GetAccountFromArgs(request.GetArguments())

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, account)
		invocation := instrumentation.NewToolInvocation(toolName, account).WithSpanContext(ctx)
		ctx = context.WithValue(ctx, invocationKey{}, invocation)

		start := time.Now()
		result, err := handler(ctx, request)
		duration := time.Since(start)

		failure := err
		if failure == nil && result != nil && result.IsError {
			failure = errors.New(resultText(result))
		}
		invocation.Complete(failure)
		instrumentation.EndSpan(span, failure)

		sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Status(), account, duration)
		sc.AuditLogger().LogToolInvocation(invocation)

		return result, err
	}
}

func resultText(result *mcp.CallToolResult) string {
	for _, content := range result.Content {
		if text, ok := content.(mcp.TextContent); ok && text.Text != "" {
			return text.Text
		}
	}
	return "tool returned an error"
}
