package reply_tools

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"
	"sync"
	"testing"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailmeet/internal/assistant"
	"github.com/teemow/mailmeet/internal/config"
	"github.com/teemow/mailmeet/internal/replystore"
	"github.com/teemow/mailmeet/internal/server"
	"github.com/teemow/mailmeet/internal/tools/toolstest"
)

// scriptedGenerator answers prompts by the first matching prefix.
type scriptedGenerator struct {
	answers map[string]string

	mu      sync.Mutex
	prompts []string
}

func (g *scriptedGenerator) Generate(_ context.Context, prompt string) (string, error) {
	g.mu.Lock()
	g.prompts = append(g.prompts, prompt)
	g.mu.Unlock()

	for prefix, answer := range g.answers {
		if strings.HasPrefix(prompt, prefix) {
			return answer, nil
		}
	}
	return "", errors.New("unexpected prompt")
}

type wordEmbedder struct{}

func (wordEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	v := make([]float32, 32)
	v[0] = 0.01
	for _, w := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(strings.Trim(w, ".,!?")))
		v[1+h.Sum32()%31]++
	}
	return v, nil
}

func fullAnswers() map[string]string {
	return map[string]string{
		"Analyze the following email thread":                   "Jane asks for the budget numbers.\n- Send the numbers by Friday",
		"Analyze the sentiment":                                "Neutral, professional tone.",
		"Analyze the following text and determine its urgency": "High",
		"Based on the following email thread analysis":         "Formal:\nDear Jane, the numbers are attached.\n\nCasual:\nHi Jane, here you go!\n\nDirect:\nNumbers attached.",
		"Please generate a casual reply":                       "Hey Jane, sending them over today.",
		"Translate the following text to German.":              "Hallo Jane!",
	}
}

func newGoogle() *toolstest.Google {
	return &toolstest.Google{
		Threads: []*gmailapi.Thread{
			toolstest.Thread("t1",
				toolstest.Message("t1", "m1", "jane@example.com", "Budget", "Can you send the numbers by Friday?"),
			),
		},
	}
}

func newServerContext(t *testing.T, gen assistant.Generator) (*server.ServerContext, *replystore.Store) {
	t.Helper()
	store, err := replystore.Open(config.ReplyStoreConfig{}, wordEmbedder{})
	require.NoError(t, err)

	sc := toolstest.NewServerContext(t, newGoogle(), func(o *server.Options) {
		if gen != nil {
			o.Assistant = assistant.New(gen, nil)
		}
		o.Replies = store
	})
	return sc, store
}

func TestRegisterReplyTools(t *testing.T) {
	sc, _ := newServerContext(t, &scriptedGenerator{})
	s := mcpserver.NewMCPServer("test-server", "1.0.0", mcpserver.WithToolCapabilities(true))

	require.NoError(t, RegisterReplyTools(s, sc))
	assert.Equal(t, []string{"reply_analyze_thread", "reply_find_similar", "reply_generate", "reply_translate"}, toolstest.ToolNames(t, s))
}

func TestHandleAnalyzeThread(t *testing.T) {
	sc, _ := newServerContext(t, &scriptedGenerator{answers: fullAnswers()})

	result, err := handleAnalyzeThread(context.Background(), toolstest.Request("reply_analyze_thread", map[string]any{"threadId": "t1"}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError, toolstest.Text(t, result))

	text := toolstest.Text(t, result)
	assert.Contains(t, text, "Subject: Budget")
	assert.Contains(t, text, "Sentiment: neutral")
	assert.Contains(t, text, "Tone: professional")
	assert.Contains(t, text, "Urgency: high")
	assert.Contains(t, text, "- Send the numbers by Friday")
	assert.NotContains(t, text, "fell back")
}

func TestHandleAnalyzeThread_Errors(t *testing.T) {
	tests := []struct {
		name string
		gen  assistant.Generator
		args map[string]any
		want string
	}{
		{name: "missing thread id", gen: &scriptedGenerator{}, args: map[string]any{}, want: "threadId is required"},
		{name: "no assistant", args: map[string]any{"threadId": "t1"}, want: "assistant"},
		{name: "unknown thread", gen: &scriptedGenerator{}, args: map[string]any{"threadId": "nope"}, want: "failed to get thread"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, _ := newServerContext(t, tt.gen)
			result, err := handleAnalyzeThread(context.Background(), toolstest.Request("reply_analyze_thread", tt.args), sc)
			require.NoError(t, err)
			assert.True(t, result.IsError)
			assert.Contains(t, toolstest.Text(t, result), tt.want)
		})
	}
}

func TestHandleGenerate_AllTonesStored(t *testing.T) {
	sc, store := newServerContext(t, &scriptedGenerator{answers: fullAnswers()})

	result, err := handleGenerate(context.Background(), toolstest.Request("reply_generate", map[string]any{"threadId": "t1"}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError, toolstest.Text(t, result))

	text := toolstest.Text(t, result)
	assert.Contains(t, text, "Formal:\nDear Jane, the numbers are attached.")
	assert.Contains(t, text, "Casual:\nHi Jane, here you go!")
	assert.Contains(t, text, "Direct:\nNumbers attached.")
	assert.Contains(t, text, "Stored 3 drafts")
	assert.Equal(t, 3, store.Count())
}

func TestHandleGenerate_DegradedNotStored(t *testing.T) {
	answers := fullAnswers()
	delete(answers, "Based on the following email thread analysis")
	sc, store := newServerContext(t, &scriptedGenerator{answers: answers})

	result, err := handleGenerate(context.Background(), toolstest.Request("reply_generate", map[string]any{"threadId": "t1"}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError)
	assert.Contains(t, toolstest.Text(t, result), "were not stored")
	assert.Zero(t, store.Count())
}

func TestHandleGenerate_SingleTone(t *testing.T) {
	gen := &scriptedGenerator{answers: fullAnswers()}
	sc, store := newServerContext(t, gen)

	result, err := handleGenerate(context.Background(), toolstest.Request("reply_generate", map[string]any{
		"threadId": "t1",
		"tone":     "casual",
		"language": "de",
	}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError, toolstest.Text(t, result))
	assert.Equal(t, "Casual reply to \"Budget\":\n\nHallo Jane!", toolstest.Text(t, result))
	assert.Zero(t, store.Count())
	assert.Len(t, gen.prompts, 2)
}

func TestHandleGenerate_InvalidTone(t *testing.T) {
	sc, _ := newServerContext(t, &scriptedGenerator{answers: fullAnswers()})

	result, err := handleGenerate(context.Background(), toolstest.Request("reply_generate", map[string]any{"threadId": "t1", "tone": "angry"}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolstest.Text(t, result), "invalid tone")
}

func TestHandleFindSimilar(t *testing.T) {
	sc, store := newServerContext(t, &scriptedGenerator{})
	ctx := context.Background()

	result, err := handleFindSimilar(ctx, toolstest.Request("reply_find_similar", map[string]any{"query": "numbers"}), sc)
	require.NoError(t, err)
	assert.Equal(t, "No stored replies yet.", toolstest.Text(t, result))

	_, err = store.Save(ctx, assistant.Replies{
		Formal: "Dear Jane, the numbers are attached.",
		Casual: "Lunch on Friday sounds great!",
		Direct: "Numbers attached.",
	}, assistant.Analysis{Sentiment: assistant.SentimentNeutral, Urgency: assistant.UrgencyHigh})
	require.NoError(t, err)

	result, err = handleFindSimilar(ctx, toolstest.Request("reply_find_similar", map[string]any{"query": "numbers attached", "limit": float64(1)}), sc)
	require.NoError(t, err)
	text := toolstest.Text(t, result)
	assert.Contains(t, text, "Found 1 similar replies")
	assert.Contains(t, text, "[direct, similarity")

	result, err = handleFindSimilar(ctx, toolstest.Request("reply_find_similar", map[string]any{"query": " "}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestHandleFindSimilar_NoStore(t *testing.T) {
	sc := toolstest.NewServerContext(t, newGoogle())

	result, err := handleFindSimilar(context.Background(), toolstest.Request("reply_find_similar", map[string]any{"query": "numbers"}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolstest.Text(t, result), "reply store is not configured")
}

func TestHandleTranslate(t *testing.T) {
	gen := &scriptedGenerator{answers: fullAnswers()}
	sc, _ := newServerContext(t, gen)

	result, err := handleTranslate(context.Background(), toolstest.Request("reply_translate", map[string]any{"text": "Hello Jane!", "language": "de"}), sc)
	require.NoError(t, err)
	require.False(t, result.IsError, toolstest.Text(t, result))
	assert.Equal(t, "Hallo Jane!", toolstest.Text(t, result))

	result, err = handleTranslate(context.Background(), toolstest.Request("reply_translate", map[string]any{"text": "Hello", "language": "xx"}), sc)
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Contains(t, toolstest.Text(t, result), "failed to translate")
}

func TestHandleTranslate_Thread(t *testing.T) {
	answers := fullAnswers()
	answers["Identify the language"] = "en"
	sc, _ := newServerContext(t, &scriptedGenerator{answers: answers})

	tests := []struct {
		name         string
		args         map[string]any
		wantError    string
		wantContains []string
	}{
		{
			name:         "translated into German",
			args:         map[string]any{"threadId": "t1", "language": "de"},
			wantContains: []string{"Thread t1 in German:", "1. From: jane@example.com (translated from English)", "Subject: Hallo Jane!"},
		},
		{
			name:         "already in the target language",
			args:         map[string]any{"threadId": "t1", "language": "en"},
			wantContains: []string{"Thread t1 in English:", "(original)", "Subject: Budget", "Can you send the numbers by Friday?"},
		},
		{
			name:      "unknown thread",
			args:      map[string]any{"threadId": "missing", "language": "de"},
			wantError: "failed to get thread",
		},
		{
			name:      "neither text nor thread",
			args:      map[string]any{"language": "de"},
			wantError: "text or threadId is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := handleTranslate(context.Background(), toolstest.Request("reply_translate", tt.args), sc)
			require.NoError(t, err)
			text := toolstest.Text(t, result)
			if tt.wantError != "" {
				assert.True(t, result.IsError)
				assert.Contains(t, text, tt.wantError)
				return
			}
			require.False(t, result.IsError, text)
			for _, want := range tt.wantContains {
				assert.Contains(t, text, want)
			}
		})
	}
}
