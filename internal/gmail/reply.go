package gmail

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailmeet/internal/instrumentation"
)

// ErrInvalidReply is returned for replies that cannot be sent as given.
var ErrInvalidReply = errors.New("invalid reply")

// ReplyInput describes a reply within an existing thread.
type ReplyInput struct {
	ThreadID string
	// MessageID is the Gmail ID of the message answered. Empty means the last
	// message of the thread.
	MessageID string
	Body      string
	Cc        []string
	HTML      bool
}

func (in ReplyInput) validate() error {
	if strings.TrimSpace(in.ThreadID) == "" {
		return fmt.Errorf("%w: thread id is required", ErrInvalidReply)
	}
	if strings.TrimSpace(in.Body) == "" {
		return fmt.Errorf("%w: body is required", ErrInvalidReply)
	}
	return nil
}

// Reply answers a message in a thread and returns the ID of the sent message.
func (c *Client) Reply(ctx context.Context, in ReplyInput) (string, error) {
	if err := in.validate(); err != nil {
		return "", err
	}

	thread, err := c.GetThread(ctx, in.ThreadID)
	if err != nil {
		return "", err
	}
	original, err := pickMessage(thread, in.MessageID)
	if err != nil {
		return "", err
	}

	raw, err := buildReply(original, in, c.Signature(ctx))
	if err != nil {
		return "", err
	}

	ctx, done := c.observe(ctx, instrumentation.OperationSend)
	sent, err := c.svc.Messages.Send("me", &gmail.Message{
		Raw:      base64.URLEncoding.EncodeToString([]byte(raw)),
		ThreadId: in.ThreadID,
	}).Context(ctx).Do()
	done(err)
	if err != nil {
		return "", fmt.Errorf("failed to send reply: %w", err)
	}
	return sent.Id, nil
}

func pickMessage(thread *Thread, messageID string) (Message, error) {
	if messageID == "" {
		m, ok := thread.Latest()
		if !ok {
			return Message{}, fmt.Errorf("%w: thread %s has no messages", ErrInvalidReply, thread.ID)
		}
		return m, nil
	}
	for _, m := range thread.Messages {
		if m.ID == messageID {
			return m, nil
		}
	}
	return Message{}, fmt.Errorf("%w: message %s is not part of thread %s", ErrInvalidReply, messageID, thread.ID)
}

// buildReply renders an RFC 2822 reply to original.
func buildReply(original Message, in ReplyInput, signature string) (string, error) {
	to := original.ReplyTo
	if to == "" {
		to = original.From
	}
	if to == "" {
		return "", fmt.Errorf("%w: original message has no sender", ErrInvalidReply)
	}

	subject := original.Subject
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	references := original.MessageID
	if original.References != "" {
		references = strings.TrimSpace(original.References + " " + original.MessageID)
	}

	var b strings.Builder
	b.WriteString("To: " + to + "\r\n")
	if len(in.Cc) > 0 {
		b.WriteString("Cc: " + strings.Join(in.Cc, ", ") + "\r\n")
	}
	b.WriteString("Subject: " + encodeRFC2047(subject) + "\r\n")
	if original.MessageID != "" {
		b.WriteString("In-Reply-To: " + original.MessageID + "\r\n")
	}
	if references != "" {
		b.WriteString("References: " + references + "\r\n")
	}
	if in.HTML {
		b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	} else {
		b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	}
	b.WriteString("MIME-Version: 1.0\r\n\r\n")
	b.WriteString(appendSignature(in.Body, signature, in.HTML))
	return b.String(), nil
}

func appendSignature(body, signature string, isHTML bool) string {
	if signature == "" {
		return body
	}
	if isHTML {
		return body + "<br><br>-- <br>" + signature
	}
	return body + "\n\n-- \n" + signature
}
