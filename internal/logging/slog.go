package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
)

// Attribute keys shared by every package that logs.
const (
	KeyOperation = "operation"
	KeyService   = "service"
	KeyAccount   = "account"
	KeyTool      = "tool"
	KeyThread    = "thread_id"
	KeyStatus    = "status"
	KeyDuration  = "duration"
	KeyError     = "error"
	KeyCount     = "count"
	KeyAttendee  = "attendee"
)

// Status values. They mirror the instrumentation status labels.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// New returns a text logger writing to w. Debug enables debug level output.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// WithOperation returns logger annotated with an operation name such as "calendar.freebusy".
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(Operation(operation))
}

// WithTool returns logger annotated with an MCP tool name.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(Tool(tool))
}

// WithAccount returns logger annotated with the Google account alias.
func WithAccount(logger *slog.Logger, account string) *slog.Logger {
	return logger.With(Account(account))
}

func Operation(op string) slog.Attr      { return slog.String(KeyOperation, op) }
func Service(svc string) slog.Attr       { return slog.String(KeyService, svc) }
func Account(account string) slog.Attr   { return slog.String(KeyAccount, account) }
func Tool(tool string) slog.Attr         { return slog.String(KeyTool, tool) }
func Thread(id string) slog.Attr         { return slog.String(KeyThread, id) }
func Status(status string) slog.Attr     { return slog.String(KeyStatus, status) }
func Count(n int) slog.Attr              { return slog.Int(KeyCount, n) }
func Duration(d time.Duration) slog.Attr { return slog.Duration(KeyDuration, d) }

// Err returns the error attribute. A nil error yields an empty group, which slog drops.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// Attendee returns an anonymized attendee attribute.
func Attendee(email string) slog.Attr {
	return slog.String(KeyAttendee, AnonymizeEmail(email))
}

// AnonymizeEmail hashes an address so log lines can be correlated without storing it.
// The domain is kept since it is useful and rarely identifying.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	hashed := "user:" + hex.EncodeToString(sum[:8])
	if domain := ExtractDomain(email); domain != "" {
		hashed += "@" + domain
	}
	return hashed
}

// ExtractDomain returns the part after the @ of an address, or "".
func ExtractDomain(email string) string {
	_, domain, ok := strings.Cut(email, "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(domain))
}

// SanitizeToken describes a secret by its length only.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}
