package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/teemow/mailmeet/internal/gmail"
	"github.com/teemow/mailmeet/internal/logging"
)

// Reply tones.
const (
	ToneFormal = "formal"
	ToneCasual = "casual"
	ToneDirect = "direct"
)

// Tones lists the reply tones in presentation order.
var Tones = []string{ToneFormal, ToneCasual, ToneDirect}

// ErrInvalidTone is returned for a tone outside Tones.
var ErrInvalidTone = errors.New("invalid tone")

// ValidateTone checks that tone is one of Tones.
func ValidateTone(tone string) error {
	if !slices.Contains(Tones, tone) {
		return fmt.Errorf("%w %q: must be one of %s", ErrInvalidTone, tone, strings.Join(Tones, ", "))
	}
	return nil
}

const (
	analysisFallback = "Unable to analyze thread content."
	keyPointFallback = "Please review the email thread manually."
)

// Analysis summarizes a thread.
type Analysis struct {
	Summary   string   `json:"summary"`
	Sentiment string   `json:"sentiment"`
	Tone      string   `json:"tone"`
	Urgency   string   `json:"urgency"`
	KeyPoints []string `json:"key_points"`
	// Degraded is set when a model call failed and a default was used instead.
	Degraded bool `json:"degraded,omitempty"`
}

// Replies holds one reply draft per tone.
type Replies struct {
	Formal   string `json:"formal"`
	Casual   string `json:"casual"`
	Direct   string `json:"direct"`
	Degraded bool   `json:"degraded,omitempty"`
}

// Get returns the draft for tone.
func (r Replies) Get(tone string) string {
	switch tone {
	case ToneFormal:
		return r.Formal
	case ToneCasual:
		return r.Casual
	case ToneDirect:
		return r.Direct
	}
	return ""
}

// Each calls fn for every tone with a draft.
func (r Replies) Each(fn func(tone, reply string)) {
	for _, t := range Tones {
		if reply := r.Get(t); reply != "" {
			fn(t, reply)
		}
	}
}

// Assistant drafts replies with a Generator.
type Assistant struct {
	gen    Generator
	logger *slog.Logger
}

// New creates an Assistant. A nil logger discards log output.
func New(gen Generator, logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Assistant{gen: gen, logger: logger}
}

// AnalyzeThread summarizes thread and rates its sentiment, tone and urgency. Each part
// falls back to a neutral default when the model fails; the result is then marked
// Degraded. Only a cancelled context is returned as an error.
func (a *Assistant) AnalyzeThread(ctx context.Context, thread *gmail.Thread) (Analysis, error) {
	content := thread.Text()
	logger := a.logger.With(logging.Operation("analyze_thread"), logging.Thread(thread.ID))

	var analysis Analysis
	fail := func(step string, err error) {
		logger.Warn("model call failed, using default", slog.String("step", step), logging.Err(err))
		analysis.Degraded = true
	}

	summary, err := a.gen.Generate(ctx, fmt.Sprintf(threadAnalysisPrompt, content))
	if err != nil {
		if ctx.Err() != nil {
			return Analysis{}, ctx.Err()
		}
		fail("summary", err)
		analysis.Summary = analysisFallback
	} else {
		analysis.Summary = summary
		analysis.KeyPoints = extractKeyPoints(summary)
	}
	if len(analysis.KeyPoints) == 0 {
		analysis.KeyPoints = []string{keyPointFallback}
	}

	analysis.Sentiment, analysis.Tone = SentimentNeutral, ToneUnknown
	if answer, err := a.gen.Generate(ctx, fmt.Sprintf(sentimentPrompt, content)); err != nil {
		if ctx.Err() != nil {
			return Analysis{}, ctx.Err()
		}
		fail("sentiment", err)
	} else {
		analysis.Sentiment, analysis.Tone = parseSentiment(answer)
	}

	analysis.Urgency = UrgencyMedium
	if answer, err := a.gen.Generate(ctx, fmt.Sprintf(urgencyPrompt, content)); err != nil {
		if ctx.Err() != nil {
			return Analysis{}, ctx.Err()
		}
		fail("urgency", err)
	} else {
		analysis.Urgency = parseUrgency(answer)
	}

	return analysis, nil
}

func formatAnalysis(a Analysis) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thread Analysis:\n%s\n\n", a.Summary)
	fmt.Fprintf(&b, "Sentiment: %s\nTone: %s\nUrgency: %s\n\nKey Points:\n", a.Sentiment, a.Tone, a.Urgency)
	for _, p := range a.KeyPoints {
		b.WriteString("- " + p + "\n")
	}
	return b.String()
}

func toneFallback(tone string) string {
	return fmt.Sprintf("I apologize, but I couldn't generate a %s reply at this time.", tone)
}

// GenerateReplies drafts a formal, a casual and a direct reply from an analysis. A tone
// the model left empty gets a fallback text and marks the result Degraded.
func (a *Assistant) GenerateReplies(ctx context.Context, analysis Analysis) (Replies, error) {
	answer, err := a.gen.Generate(ctx, fmt.Sprintf(replyGenerationPrompt, formatAnalysis(analysis)))
	if err != nil {
		if ctx.Err() != nil {
			return Replies{}, ctx.Err()
		}
		a.logger.Warn("failed to generate replies", logging.Operation("generate_replies"), logging.Err(err))
		answer = ""
	}

	parsed := parseReplies(answer)
	var replies Replies
	for _, t := range Tones {
		if parsed[t] == "" {
			parsed[t] = toneFallback(t)
			replies.Degraded = true
		}
	}
	replies.Formal = parsed[ToneFormal]
	replies.Casual = parsed[ToneCasual]
	replies.Direct = parsed[ToneDirect]
	return replies, nil
}

// GenerateReply drafts a single reply to thread in tone.
func (a *Assistant) GenerateReply(ctx context.Context, thread *gmail.Thread, tone string) (string, error) {
	if err := ValidateTone(tone); err != nil {
		return "", err
	}
	reply, err := a.gen.Generate(ctx, fmt.Sprintf(singleReplyPrompt, tone, thread.Text()))
	if err != nil {
		return "", fmt.Errorf("failed to generate %s reply: %w", tone, err)
	}
	return reply, nil
}

var languageNames = map[string]string{
	"en": "English", "es": "Spanish", "fr": "French", "de": "German",
	"it": "Italian", "pt": "Portuguese", "ru": "Russian", "zh": "Chinese",
	"ja": "Japanese", "ko": "Korean", "ar": "Arabic", "hi": "Hindi",
}

// LanguageName returns the English name of a language code, or the input when the code
// is not known.
func LanguageName(code string) string {
	if name, ok := languageNames[strings.ToLower(code)]; ok {
		return name
	}
	return code
}

// Translate translates text into targetLanguage, given as a code such as "de" or as a
// language name.
func (a *Assistant) Translate(ctx context.Context, text, targetLanguage string) (string, error) {
	if strings.TrimSpace(targetLanguage) == "" {
		return "", errors.New("target language is required")
	}
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	translated, err := a.gen.Generate(ctx, fmt.Sprintf(translatePrompt, LanguageName(targetLanguage), text))
	if err != nil {
		return "", fmt.Errorf("failed to translate: %w", err)
	}
	return translated, nil
}
