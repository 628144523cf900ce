package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/teemow/mailmeet/internal/assistant"
	"github.com/teemow/mailmeet/internal/config"
	"github.com/teemow/mailmeet/internal/google"
	"github.com/teemow/mailmeet/internal/instrumentation"
	"github.com/teemow/mailmeet/internal/logging"
	"github.com/teemow/mailmeet/internal/replystore"
	"github.com/teemow/mailmeet/internal/server"
)

// appOptions select what newApp sets up.
type appOptions struct {
	debug     bool
	logOutput io.Writer
	// instrument creates an instrumentation provider from the environment.
	instrument bool
	// assistant connects the language model and the reply store when an API key is set.
	assistant bool
}

// app holds what the commands share: configuration, logger, telemetry and the server
// context with its Google clients.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	instr    instrumentation.Config
	provider *instrumentation.Provider
	auth     *google.Authenticator
	sc       *server.ServerContext

	closers []func(context.Context) error
}

func newApp(ctx context.Context, opts appOptions) (_ *app, err error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		logger: logging.New(opts.logOutput, opts.debug),
		instr:  instrumentation.DefaultConfig(),
	}
	a.instr.ServiceVersion = version
	defer func() {
		if err != nil {
			a.Close(context.Background())
		}
	}()

	if opts.instrument {
		a.provider, err = instrumentation.NewProvider(ctx, a.instr)
		if err != nil {
			return nil, fmt.Errorf("failed to create instrumentation provider: %w", err)
		}
		a.closers = append(a.closers, a.provider.Shutdown)
	}

	a.auth, err = google.NewAuthenticator(cfg.Google, "")
	if err != nil {
		return nil, err
	}

	serverOpts := server.Options{
		Config:          cfg,
		Clients:         a.auth,
		Instrumentation: a.provider,
		Audit:           a.instr.AuditLogging,
		Logger:          a.logger,
	}
	if opts.assistant {
		if err := a.connectAssistant(ctx, &serverOpts); err != nil {
			return nil, err
		}
	}

	a.sc, err = server.NewServerContext(ctx, serverOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create server context: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error { return a.sc.Shutdown() })
	return a, nil
}

// connectAssistant sets up Gemini and the reply store. Without an API key the reply
// tools report that no assistant is configured.
func (a *app) connectAssistant(ctx context.Context, opts *server.Options) error {
	gem, err := assistant.NewGemini(ctx, a.cfg.Gemini, a.metrics())
	if errors.Is(err, assistant.ErrNoAPIKey) {
		a.logger.Info("GEMINI_API_KEY is not set, reply tools are disabled")
		return nil
	}
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func(context.Context) error { return gem.Close() })

	embedder, err := replystore.NewCachedEmbedder(gem, a.cfg.ReplyStore.CacheSize)
	if err != nil {
		return err
	}
	store, err := replystore.Open(a.cfg.ReplyStore, embedder)
	if err != nil {
		return fmt.Errorf("failed to open reply store: %w", err)
	}

	opts.Assistant = assistant.New(gem, a.logger)
	opts.Replies = store
	return nil
}

func (a *app) metrics() *instrumentation.Metrics {
	if a.provider == nil {
		return nil
	}
	return a.provider.Metrics()
}

// Close releases everything in reverse order of creation.
func (a *app) Close(ctx context.Context) {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Warn("shutdown failed", logging.Err(err))
		}
	}
	a.closers = nil
}
