package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"google.golang.org/api/option"

	"github.com/teemow/mailmeet/internal/assistant"
	"github.com/teemow/mailmeet/internal/calendar"
	"github.com/teemow/mailmeet/internal/config"
	"github.com/teemow/mailmeet/internal/gmail"
	"github.com/teemow/mailmeet/internal/google"
	"github.com/teemow/mailmeet/internal/instrumentation"
	"github.com/teemow/mailmeet/internal/logging"
	"github.com/teemow/mailmeet/internal/replystore"
	"github.com/teemow/mailmeet/internal/scheduling"
)

var (
	// ErrNotAuthenticated is returned for an account without a stored token.
	ErrNotAuthenticated = errors.New("account is not authenticated")
	// ErrAssistantUnavailable is returned when no language model is configured.
	ErrAssistantUnavailable = errors.New("assistant is not configured")
	// ErrNoAuthorizer is returned when the client provider cannot run the consent flow.
	ErrNoAuthorizer = errors.New("account authorization is not available")
	// ErrShutdown is returned after Shutdown.
	ErrShutdown = errors.New("server is shutting down")
)

// Options configure a ServerContext.
type Options struct {
	Config  *config.Config
	Clients google.ClientProvider
	// ClientOptions are appended to the options of every Google API client.
	ClientOptions []option.ClientOption
	// Assistant and Replies are optional.
	Assistant       *assistant.Assistant
	Replies         *replystore.Store
	Instrumentation *instrumentation.Provider
	Audit           instrumentation.AuditLoggingConfig
	Logger          *slog.Logger
}

// ServerContext holds the state shared by all tool handlers.
type ServerContext struct {
	ctx        context.Context
	cancel     context.CancelFunc
	cfg        *config.Config
	clients    google.ClientProvider
	clientOpts []option.ClientOption
	scheduling scheduling.Options
	assistant  *assistant.Assistant
	replies    *replystore.Store
	metrics    *instrumentation.Metrics
	audit      *instrumentation.AuditLogger
	logger     *slog.Logger

	mu              sync.RWMutex
	gmailClients    map[string]*gmail.Client    // by account name
	calendarClients map[string]*calendar.Client // by account name
	shutdown        bool
}

// NewServerContext creates a server context. Google clients are created lazily per
// account on first use.
func NewServerContext(ctx context.Context, opts Options) (*ServerContext, error) {
	if opts.Config == nil {
		return nil, fmt.Errorf("config is required")
	}
	if opts.Clients == nil {
		return nil, fmt.Errorf("client provider is required")
	}
	schedOpts, err := scheduling.OptionsFromConfig(opts.Config)
	if err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	var metrics *instrumentation.Metrics
	if opts.Instrumentation != nil {
		metrics = opts.Instrumentation.Metrics()
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	return &ServerContext{
		ctx:             shutdownCtx,
		cancel:          cancel,
		cfg:             opts.Config,
		clients:         opts.Clients,
		clientOpts:      opts.ClientOptions,
		scheduling:      schedOpts,
		assistant:       opts.Assistant,
		replies:         opts.Replies,
		metrics:         metrics,
		audit:           instrumentation.NewAuditLogger(logger, opts.Audit),
		logger:          logger,
		gmailClients:    make(map[string]*gmail.Client),
		calendarClients: make(map[string]*calendar.Client),
	}, nil
}

// Context returns the server context.
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

// Config returns the application configuration.
func (sc *ServerContext) Config() *config.Config {
	return sc.cfg
}

// Logger returns the server logger.
func (sc *ServerContext) Logger() *slog.Logger {
	return sc.logger
}

// Metrics returns the metrics recorder. It may be nil.
func (sc *ServerContext) Metrics() *instrumentation.Metrics {
	return sc.metrics
}

// AuditLogger returns the tool audit logger.
func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger {
	return sc.audit
}

func (sc *ServerContext) apiOptions(account string) ([]option.ClientOption, error) {
	if !sc.clients.HasToken(account) {
		return nil, fmt.Errorf("%w: %q, run `mailmeet auth --account %s`", ErrNotAuthenticated, account, account)
	}
	httpClient, err := sc.clients.HTTPClient(sc.ctx, account)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client for account %s: %w", account, err)
	}
	return append([]option.ClientOption{option.WithHTTPClient(httpClient)}, sc.clientOpts...), nil
}

// GmailClient returns the Gmail client of account, creating and caching it on first use.
func (sc *ServerContext) GmailClient(account string) (*gmail.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if client, ok := sc.gmailClients[account]; ok {
		return client, nil
	}

	opts, err := sc.apiOptions(account)
	if err != nil {
		return nil, err
	}
	client, err := gmail.NewClient(sc.ctx, account, sc.metrics, opts...)
	if err != nil {
		sc.logger.Warn("failed to create Gmail client", logging.Account(account), logging.Err(err))
		return nil, err
	}
	sc.gmailClients[account] = client
	return client, nil
}

// CalendarClient returns the Calendar client of account, creating and caching it on
// first use.
func (sc *ServerContext) CalendarClient(account string) (*calendar.Client, error) {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil, ErrShutdown
	}
	if client, ok := sc.calendarClients[account]; ok {
		return client, nil
	}

	opts, err := sc.apiOptions(account)
	if err != nil {
		return nil, err
	}
	client, err := calendar.NewClient(sc.ctx, account, sc.metrics, opts...)
	if err != nil {
		sc.logger.Warn("failed to create Calendar client", logging.Account(account), logging.Err(err))
		return nil, err
	}
	sc.calendarClients[account] = client
	return client, nil
}

// Accounts returns the number of accounts with a cached client.
func (sc *ServerContext) Accounts() int {
	sc.mu.RLock()
	defer sc.mu.RUnlock()

	seen := make(map[string]bool, len(sc.gmailClients)+len(sc.calendarClients))
	for account := range sc.gmailClients {
		seen[account] = true
	}
	for account := range sc.calendarClients {
		seen[account] = true
	}
	return len(seen)
}

// Scheduler returns a scheduling service reading the calendars and mail of account.
func (sc *ServerContext) Scheduler(account string) (*scheduling.Service, error) {
	cal, err := sc.CalendarClient(account)
	if err != nil {
		return nil, err
	}
	mail, err := sc.GmailClient(account)
	if err != nil {
		return nil, err
	}
	return scheduling.NewService(sc.scheduling, cal, mail, sc.metrics), nil
}

// TextScheduler returns a scheduling service without calendar or mail access. It can
// detect intent but not suggest slots.
func (sc *ServerContext) TextScheduler() *scheduling.Service {
	return scheduling.NewService(sc.scheduling, nil, nil, sc.metrics)
}

// Authorizer returns the consent flow of the client provider.
func (sc *ServerContext) Authorizer() (google.Authorizer, error) {
	a, ok := sc.clients.(google.Authorizer)
	if !ok {
		return nil, ErrNoAuthorizer
	}
	return a, nil
}

// Assistant returns the language model assistant.
func (sc *ServerContext) Assistant() (*assistant.Assistant, error) {
	if sc.assistant == nil {
		return nil, ErrAssistantUnavailable
	}
	return sc.assistant, nil
}

// Replies returns the reply store, or nil when none is configured.
func (sc *ServerContext) Replies() *replystore.Store {
	return sc.replies
}

// IsShutdown returns whether the server has been shut down.
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown cancels the server context. Further client requests fail.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	defer sc.mu.Unlock()

	if sc.shutdown {
		return nil
	}
	sc.shutdown = true
	sc.cancel()
	return nil
}
