package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/mailmeet/internal/logging"
)

// ToolInvocation describes one MCP tool call for the audit log.
type ToolInvocation struct {
	Tool    string
	Account string

	// Attendees are the addresses a calendar or mail write touched.
	Attendees []string

	// ResourceID is the thread or event the call acted on.
	ResourceID string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewToolInvocation starts timing a tool call.
func NewToolInvocation(tool, account string) *ToolInvocation {
	return &ToolInvocation{Tool: tool, Account: account, StartTime: time.Now()}
}

// WithSpanContext copies trace identifiers from ctx.
func (ti *ToolInvocation) WithSpanContext(ctx context.Context) *ToolInvocation {
	ti.TraceID = GetTraceID(ctx)
	ti.SpanID = GetSpanID(ctx)
	return ti
}

// Complete stops the timer and records the outcome.
func (ti *ToolInvocation) Complete(err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = err == nil
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

// Status returns StatusSuccess or StatusError.
func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

func (ti *ToolInvocation) attrs(includePII bool) []any {
	args := []any{
		logging.Tool(ti.Tool),
		logging.Account(ti.Account),
		logging.Duration(ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.ResourceID != "" {
		args = append(args, slog.String("resource_id", ti.ResourceID))
	}
	if len(ti.Attendees) > 0 {
		attendees := make([]string, len(ti.Attendees))
		for i, a := range ti.Attendees {
			if includePII {
				attendees[i] = a
			} else {
				attendees[i] = logging.AnonymizeEmail(a)
			}
		}
		args = append(args, slog.Any("attendees", attendees))
	}
	if ti.TraceID != "" {
		args = append(args, slog.String("trace_id", ti.TraceID), slog.String("span_id", ti.SpanID))
	}
	if ti.Error != "" {
		args = append(args, slog.String("error", ti.Error))
	}
	return args
}

// AuditLogger writes one structured line per tool call.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an AuditLogger. A nil logger uses slog.Default.
func NewAuditLogger(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger.With(slog.String("component", "audit")),
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogToolInvocation logs a completed tool call. Attendee addresses are hashed
// unless PII logging is enabled.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.enabled {
		return
	}
	if ti.Success {
		al.logger.Info("tool_executed", ti.attrs(al.includePII)...)
	} else {
		al.logger.Warn("tool_failed", ti.attrs(al.includePII)...)
	}
}
