package gmail_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailmeet/internal/server"
	"github.com/teemow/mailmeet/internal/tools/batch"
	"github.com/teemow/mailmeet/internal/tools/common"
)

const accountDescription = "Account name (default: 'default'). Used to manage multiple Google accounts."

// RegisterGmailTools registers all Gmail-related tools with the MCP server.
// Sending replies is only registered when readOnly is false.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listThreadsTool := mcp.NewTool("gmail_list_threads",
		mcp.WithDescription("List Gmail threads matching a query"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("query",
			mcp.Description("Gmail search query (default from configuration, e.g., 'is:unread in:inbox')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description("Maximum number of results to return (default from configuration)"),
		),
	)

	s.AddTool(listThreadsTool, common.InstrumentedToolHandler("gmail_list_threads", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListThreads(ctx, request, sc)
		}))

	getThreadTool := mcp.NewTool("gmail_get_thread",
		mcp.WithDescription("Read the messages of one or more Gmail threads"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("threadIds",
			mcp.Required(),
			mcp.Description("Thread ID (string) or array of thread IDs to read"),
		),
	)

	s.AddTool(getThreadTool, common.InstrumentedToolHandler("gmail_get_thread", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetThread(ctx, request, sc)
		}))

	if !readOnly {
		if err := RegisterEmailTools(s, sc); err != nil {
			return fmt.Errorf("failed to register email tools: %w", err)
		}
	}

	return nil
}

func handleListThreads(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	query, ok := args["query"].(string)
	if !ok || query == "" {
		query = sc.Config().Mail.WatchQuery
	}
	maxResults := common.IntArg(args, "maxResults", sc.Config().Mail.MaxThreads)

	client, err := sc.GmailClient(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	threads, err := client.ListThreads(ctx, query, maxResults)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list threads: %v", err)), nil
	}

	result := fmt.Sprintf("Found %d threads:\n", len(threads))
	for i, thread := range threads {
		result += fmt.Sprintf("%d. Thread ID: %s (Snippet: %s)\n", i+1, thread.ID, thread.Snippet)
	}

	return mcp.NewToolResultText(result), nil
}

func handleGetThread(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	threadIDs, err := batch.ParseStringOrArray(args["threadIds"], "threadIds")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	client, err := sc.GmailClient(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(threadIDs) == 1 {
		thread, err := client.GetThread(ctx, threadIDs[0])
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to get thread: %v", err)), nil
		}
		common.Annotate(ctx, thread.ID)
		return mcp.NewToolResultText(fmt.Sprintf("Thread %s (%d messages)\n\n%s", thread.ID, len(thread.Messages), thread.Text())), nil
	}

	results := batch.Process(ctx, threadIDs, batch.DefaultWorkers, func(ctx context.Context, id string) (string, error) {
		thread, err := client.GetThread(ctx, id)
		if err != nil {
			return "", err
		}
		return thread.Text(), nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}
