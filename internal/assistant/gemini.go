package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"golang.org/x/time/rate"
	"google.golang.org/api/option"

	"github.com/teemow/mailmeet/internal/config"
	"github.com/teemow/mailmeet/internal/instrumentation"
)

var (
	// ErrNoAPIKey is returned when Gemini is used without an API key.
	ErrNoAPIKey = errors.New("gemini API key is not configured")
	// ErrEmptyResponse is returned when the model produced no text.
	ErrEmptyResponse = errors.New("empty response from model")
)

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Gemini talks to the Gemini API. Generate and Embed share one rate limit.
type Gemini struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	embedding *genai.EmbeddingModel
	limiter   *rate.Limiter
	metrics   *instrumentation.Metrics
}

// NewGemini creates a Gemini client from cfg. metrics may be nil.
func NewGemini(ctx context.Context, cfg config.GeminiConfig, metrics *instrumentation.Metrics, opts ...option.ClientOption) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}

	opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}

	rpm := max(cfg.RequestsPerMinute, 1)
	return &Gemini{
		client:    client,
		model:     model,
		embedding: client.EmbeddingModel(cfg.EmbeddingModel),
		limiter:   rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), min(rpm, 5)),
		metrics:   metrics,
	}, nil
}

// Close releases the underlying client.
func (g *Gemini) Close() error {
	return g.client.Close()
}

func (g *Gemini) observe(ctx context.Context, operation string) (context.Context, func(error)) {
	start := time.Now()
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceGemini, operation)
	return ctx, func(err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		g.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceGemini, operation, status, time.Since(start))
		instrumentation.EndSpan(span, err)
	}
}

// Generate waits for the rate limit and returns the text of the first candidate.
func (g *Gemini) Generate(ctx context.Context, prompt string) (text string, err error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ctx, done := g.observe(ctx, instrumentation.OperationGenerate)
	defer func() { done(err) }()

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini generate error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrEmptyResponse
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if textPart, ok := part.(genai.Text); ok {
			sb.WriteString(string(textPart))
		}
	}
	text = strings.TrimSpace(sb.String())
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Embed returns the embedding of text.
func (g *Gemini) Embed(ctx context.Context, text string) (values []float32, err error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	ctx, done := g.observe(ctx, instrumentation.OperationEmbed)
	defer func() { done(err) }()

	res, err := g.embedding.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("gemini embed error: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, ErrEmptyResponse
	}
	return res.Embedding.Values, nil
}
