package gmail

import (
	"encoding/base64"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/net/html"
	gmail "google.golang.org/api/gmail/v1"
)

// HeaderValue returns the first header named name, case-insensitively.
func HeaderValue(msg *gmail.Message, name string) string {
	if msg == nil || msg.Payload == nil {
		return ""
	}
	for _, h := range msg.Payload.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

func convertThread(t *gmail.Thread) *Thread {
	out := &Thread{ID: t.Id, Snippet: t.Snippet, Messages: make([]Message, 0, len(t.Messages))}
	for _, m := range t.Messages {
		out.Messages = append(out.Messages, convertMessage(m))
	}
	return out
}

func convertMessage(m *gmail.Message) Message {
	return Message{
		ID:         m.Id,
		ThreadID:   m.ThreadId,
		From:       HeaderValue(m, "From"),
		ReplyTo:    HeaderValue(m, "Reply-To"),
		To:         HeaderValue(m, "To"),
		Subject:    decodeHeader(HeaderValue(m, "Subject")),
		Date:       messageDate(m),
		Body:       extractBody(m.Payload),
		MessageID:  HeaderValue(m, "Message-ID"),
		References: HeaderValue(m, "References"),
	}
}

func messageDate(m *gmail.Message) time.Time {
	if d := HeaderValue(m, "Date"); d != "" {
		if t, err := mail.ParseDate(d); err == nil {
			return t
		}
	}
	if m.InternalDate > 0 {
		return time.UnixMilli(m.InternalDate)
	}
	return time.Time{}
}

var headerDecoder = new(mime.WordDecoder)

func decodeHeader(s string) string {
	decoded, err := headerDecoder.DecodeHeader(s)
	if err != nil {
		return s
	}
	return decoded
}

// extractBody prefers the first text/plain part and falls back to the first
// text/html part converted to text.
func extractBody(payload *gmail.MessagePart) string {
	var plain, htmlBody string
	walkParts(payload, func(part *gmail.MessagePart) {
		if part.Body == nil || part.Body.Data == "" {
			return
		}
		switch {
		case plain == "" && strings.HasPrefix(part.MimeType, "text/plain"):
			plain = part.Body.Data
		case htmlBody == "" && strings.HasPrefix(part.MimeType, "text/html"):
			htmlBody = part.Body.Data
		}
	})

	if plain != "" {
		if text, err := decodeData(plain); err == nil {
			return strings.TrimSpace(text)
		}
	}
	if htmlBody != "" {
		if text, err := decodeData(htmlBody); err == nil {
			return htmlToText(text)
		}
	}
	return ""
}

func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, sub := range part.Parts {
		walkParts(sub, fn)
	}
}

// decodeData decodes Gmail body data, which is base64url with or without
// padding.
func decodeData(data string) (string, error) {
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding} {
		if decoded, err := enc.DecodeString(data); err == nil {
			return string(decoded), nil
		}
	}
	return "", fmt.Errorf("failed to decode message body")
}

var blockElements = map[string]bool{
	"br": true, "p": true, "div": true, "li": true, "tr": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "blockquote": true,
}

// htmlToText keeps the visible text of an HTML body with one line per block
// element.
func htmlToText(src string) string {
	z := html.NewTokenizer(strings.NewReader(src))
	var b strings.Builder
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			return collapseLines(b.String())
		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" {
				skip++
			} else if blockElements[tag] {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if (tag == "script" || tag == "style") && skip > 0 {
				skip--
			} else if blockElements[tag] {
				b.WriteByte('\n')
			}
		}
	}
}

func collapseLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

// encodeRFC2047 encodes non-ASCII header values such as subjects with umlauts.
func encodeRFC2047(s string) string {
	for _, r := range s {
		if r > 127 {
			return mime.BEncoding.Encode("UTF-8", s)
		}
	}
	return s
}
