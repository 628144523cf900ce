package gmail_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailmeet/internal/gmail"
	"github.com/teemow/mailmeet/internal/server"
	"github.com/teemow/mailmeet/internal/tools/common"
)

// RegisterEmailTools registers the tools that send mail.
func RegisterEmailTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	replyTool := mcp.NewTool("gmail_reply",
		mcp.WithDescription("Reply within a Gmail thread. The reply keeps the thread's subject and headers and appends the account signature."),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("The thread to reply in"),
		),
		mcp.WithString("body",
			mcp.Required(),
			mcp.Description("Reply body"),
		),
		mcp.WithString("messageId",
			mcp.Description("Gmail message ID to answer (default: the latest message of the thread)"),
		),
		mcp.WithString("cc",
			mcp.Description("CC email address(es), comma-separated for multiple recipients"),
		),
		mcp.WithBoolean("isHTML",
			mcp.Description("Whether the body is HTML (default: false for plain text)"),
		),
	)

	s.AddTool(replyTool, common.InstrumentedToolHandler("gmail_reply", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleReply(ctx, request, sc)
		}))

	return nil
}

func handleReply(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	threadID, ok := args["threadId"].(string)
	if !ok || threadID == "" {
		return mcp.NewToolResultError("'threadId' field is required"), nil
	}
	body, ok := args["body"].(string)
	if !ok || strings.TrimSpace(body) == "" {
		return mcp.NewToolResultError("'body' field is required"), nil
	}

	in := gmail.ReplyInput{
		ThreadID: threadID,
		Body:     body,
		Cc:       common.ListArg(args, "cc"),
	}
	if messageID, ok := args["messageId"].(string); ok {
		in.MessageID = messageID
	}
	if isHTML, ok := args["isHTML"].(bool); ok {
		in.HTML = isHTML
	}

	client, err := sc.GmailClient(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sentID, err := client.Reply(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send reply: %v", err)), nil
	}
	common.Annotate(ctx, threadID, in.Cc...)

	result := fmt.Sprintf("Reply sent successfully!\nMessage ID: %s\nThread ID: %s", sentID, threadID)
	if len(in.Cc) > 0 {
		result += fmt.Sprintf("\nCC: %s", strings.Join(in.Cc, ", "))
	}
	return mcp.NewToolResultText(result), nil
}
