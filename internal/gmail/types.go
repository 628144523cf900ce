package gmail

import (
	"strings"
	"time"
)

// ThreadSummary is a thread as returned by a list call.
type ThreadSummary struct {
	ID      string `json:"id"`
	Snippet string `json:"snippet"`
}

// Message is one decoded message of a thread.
type Message struct {
	ID         string    `json:"id"`
	ThreadID   string    `json:"thread_id"`
	From       string    `json:"from"`
	ReplyTo    string    `json:"reply_to,omitempty"`
	To         string    `json:"to"`
	Subject    string    `json:"subject"`
	Date       time.Time `json:"date"`
	Body       string    `json:"body"`
	MessageID  string    `json:"message_id,omitempty"`
	References string    `json:"references,omitempty"`
}

// Thread is a conversation in chronological order.
type Thread struct {
	ID       string    `json:"id"`
	Snippet  string    `json:"snippet,omitempty"`
	Messages []Message `json:"messages"`
}

const separator = "=================================================="

// Text renders the thread as From, Date, Subject and Body blocks separated by
// a line of equals signs.
func (t *Thread) Text() string {
	blocks := make([]string, 0, len(t.Messages))
	for _, m := range t.Messages {
		var b strings.Builder
		b.WriteString("From: " + m.From + "\n")
		if !m.Date.IsZero() {
			b.WriteString("Date: " + m.Date.Format(time.RFC1123Z) + "\n")
		} else {
			b.WriteString("Date: \n")
		}
		b.WriteString("Subject: " + m.Subject + "\n")
		b.WriteString("Body: " + m.Body + "\n")
		b.WriteString(separator + "\n")
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n")
}

// Content is the subject followed by the message bodies, without headers. Header dates
// would otherwise read as proposed meeting times.
func (t *Thread) Content() string {
	parts := make([]string, 0, len(t.Messages)+1)
	if subject := t.Subject(); subject != "" {
		parts = append(parts, subject)
	}
	for _, m := range t.Messages {
		if body := strings.TrimSpace(m.Body); body != "" {
			parts = append(parts, body)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Latest returns the last message of the thread.
func (t *Thread) Latest() (Message, bool) {
	if len(t.Messages) == 0 {
		return Message{}, false
	}
	return t.Messages[len(t.Messages)-1], true
}

// Subject is the subject of the first message.
func (t *Thread) Subject() string {
	if len(t.Messages) == 0 {
		return ""
	}
	return t.Messages[0].Subject
}

// Participants lists the distinct sender addresses in order of appearance.
func (t *Thread) Participants() []string {
	seen := make(map[string]bool)
	var out []string
	for _, m := range t.Messages {
		if m.From == "" || seen[m.From] {
			continue
		}
		seen[m.From] = true
		out = append(out, m.From)
	}
	return out
}
