package reply_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailmeet/internal/assistant"
	"github.com/teemow/mailmeet/internal/gmail"
	"github.com/teemow/mailmeet/internal/logging"
	"github.com/teemow/mailmeet/internal/server"
	"github.com/teemow/mailmeet/internal/tools/common"
)

const accountDescription = "Account name (default: 'default'). Used to manage multiple Google accounts."

// RegisterReplyTools registers the reply drafting tools. None of them sends mail.
func RegisterReplyTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	analyzeTool := mcp.NewTool("reply_analyze_thread",
		mcp.WithDescription("Summarize a Gmail thread and rate its sentiment, tone and urgency"),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("The thread to analyze"),
		),
	)
	s.AddTool(analyzeTool, common.InstrumentedToolHandler("reply_analyze_thread", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAnalyzeThread(ctx, request, sc)
		}))

	generateTool := mcp.NewTool("reply_generate",
		mcp.WithDescription("Draft replies to a Gmail thread. Without a tone a formal, a casual and a direct draft are returned and stored for later lookup."),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("threadId",
			mcp.Required(),
			mcp.Description("The thread to reply to"),
		),
		mcp.WithString("tone",
			mcp.Description("Draft a single reply in this tone: formal, casual or direct"),
		),
		mcp.WithString("language",
			mcp.Description("Translate the drafts into this language, as a code such as 'de' or a name"),
		),
	)
	s.AddTool(generateTool, common.InstrumentedToolHandler("reply_generate", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGenerate(ctx, request, sc)
		}))

	similarTool := mcp.NewTool("reply_find_similar",
		mcp.WithDescription("Find stored reply drafts similar to a text"),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Text to compare the stored replies with, for example a new email"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of replies to return (default: 3)"),
		),
	)
	s.AddTool(similarTool, common.InstrumentedToolHandler("reply_find_similar", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleFindSimilar(ctx, request, sc)
		}))

	translateTool := mcp.NewTool("reply_translate",
		mcp.WithDescription("Translate a text or every message of a Gmail thread, keeping tone and formatting. Messages already in the target language are left as they are."),
		mcp.WithString("text",
			mcp.Description("Text to translate. Either text or threadId is required."),
		),
		mcp.WithString("threadId",
			mcp.Description("ID of a Gmail thread to translate instead of text"),
		),
		mcp.WithString("account",
			mcp.Description(accountDescription),
		),
		mcp.WithString("language",
			mcp.Description("Target language as a code such as 'de' or a name (default from configuration)"),
		),
	)
	s.AddTool(translateTool, common.InstrumentedToolHandler("reply_translate", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleTranslate(ctx, request, sc)
		}))

	return nil
}

// loadThread resolves the assistant and the thread named by the threadId argument.
func loadThread(ctx context.Context, args map[string]any, sc *server.ServerContext) (*assistant.Assistant, *gmail.Thread, error) {
	threadID, ok := args["threadId"].(string)
	if !ok || threadID == "" {
		return nil, nil, fmt.Errorf("threadId is required")
	}
	a, err := sc.Assistant()
	if err != nil {
		return nil, nil, err
	}
	client, err := sc.GmailClient(common.GetAccountFromArgs(args))
	if err != nil {
		return nil, nil, err
	}
	thread, err := client.GetThread(ctx, threadID)
	if err != nil {
		return nil, nil, err
	}
	common.Annotate(ctx, thread.ID)
	return a, thread, nil
}

func handleAnalyzeThread(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	a, thread, err := loadThread(ctx, request.GetArguments(), sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	analysis, err := a.AnalyzeThread(ctx, thread)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to analyze thread: %v", err)), nil
	}

	return mcp.NewToolResultText(formatAnalysis(thread, analysis)), nil
}

func handleGenerate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	tone, _ := args["tone"].(string)
	if tone != "" {
		if err := assistant.ValidateTone(tone); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}
	language, _ := args["language"].(string)

	a, thread, err := loadThread(ctx, args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if tone != "" {
		reply, err := a.GenerateReply(ctx, thread, tone)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if language != "" {
			if reply, err = a.Translate(ctx, reply, language); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		return mcp.NewToolResultText(fmt.Sprintf("%s reply to %q:\n\n%s", titleCase(tone), thread.Subject(), reply)), nil
	}

	analysis, err := a.AnalyzeThread(ctx, thread)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to analyze thread: %v", err)), nil
	}
	replies, err := a.GenerateReplies(ctx, analysis)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to generate replies: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Reply drafts for %q:\n", thread.Subject())
	for _, t := range assistant.Tones {
		draft := replies.Get(t)
		if language != "" {
			if draft, err = a.Translate(ctx, draft, language); err != nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
		}
		fmt.Fprintf(&b, "\n%s:\n%s\n", titleCase(t), draft)
	}

	switch store := sc.Replies(); {
	case replies.Degraded || analysis.Degraded:
		b.WriteString("\nThe model did not answer every request; these drafts were not stored.\n")
	case store != nil:
		ids, err := store.Save(ctx, replies, analysis)
		if err != nil {
			sc.Logger().Warn("failed to store replies", logging.Thread(thread.ID), logging.Err(err))
			break
		}
		fmt.Fprintf(&b, "\nStored %d drafts for similar mail.\n", len(ids))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func handleFindSimilar(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return mcp.NewToolResultError("query is required"), nil
	}
	store := sc.Replies()
	if store == nil {
		return mcp.NewToolResultError("reply store is not configured"), nil
	}

	matches, err := store.Similar(ctx, query, common.IntArg(args, "limit", 3))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to search replies: %v", err)), nil
	}
	if len(matches) == 0 {
		return mcp.NewToolResultText("No stored replies yet."), nil
	}

	result := fmt.Sprintf("Found %d similar replies:\n\n", len(matches))
	for i, m := range matches {
		result += fmt.Sprintf("%d. [%s, similarity %.2f] %s\n", i+1, m.Tone, m.Similarity, m.Reply)
	}
	return mcp.NewToolResultText(result), nil
}

func handleTranslate(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	language, _ := args["language"].(string)
	if language == "" {
		language = sc.Config().Mail.TargetLanguage
	}

	if threadID, _ := args["threadId"].(string); threadID != "" {
		return handleTranslateThread(ctx, args, language, sc)
	}

	text, ok := args["text"].(string)
	if !ok || strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("text or threadId is required"), nil
	}

	a, err := sc.Assistant()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	translated, err := a.Translate(ctx, text, language)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(translated), nil
}

func handleTranslateThread(ctx context.Context, args map[string]any, language string, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	a, thread, err := loadThread(ctx, args, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	translation, err := a.TranslateThread(ctx, thread, language)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to translate thread: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Thread %s in %s:\n", translation.ThreadID, assistant.LanguageName(translation.TargetLanguage))
	for i, m := range translation.Messages {
		note := "original"
		if m.Translated {
			note = "translated from " + assistant.LanguageName(m.SourceLanguage)
		}
		fmt.Fprintf(&b, "\n%d. From: %s (%s)\nSubject: %s\n\n%s\n", i+1, m.From, note, m.Subject, m.Body)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func formatAnalysis(thread *gmail.Thread, a assistant.Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thread: %s\n", thread.ID)
	if subject := thread.Subject(); subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", subject)
	}
	fmt.Fprintf(&b, "Participants: %s\n\n", strings.Join(thread.Participants(), ", "))
	fmt.Fprintf(&b, "Summary:\n%s\n\n", a.Summary)
	fmt.Fprintf(&b, "Sentiment: %s\nTone: %s\nUrgency: %s\n", a.Sentiment, a.Tone, a.Urgency)
	b.WriteString("\nKey points:\n")
	for _, p := range a.KeyPoints {
		fmt.Fprintf(&b, "- %s\n", p)
	}
	if a.Degraded {
		b.WriteString("\nSome parts fell back to defaults because the model did not answer.\n")
	}
	return b.String()
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
