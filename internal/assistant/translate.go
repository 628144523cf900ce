package assistant

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/teemow/mailmeet/internal/gmail"
)

// MessageTranslation is one message of a translated thread.
type MessageTranslation struct {
	From    string    `json:"from"`
	Date    time.Time `json:"date"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	// SourceLanguage is the detected language code of the original body.
	SourceLanguage string `json:"source_language,omitempty"`
	// Translated is false when the message already was in the target language.
	Translated bool `json:"translated"`
}

// ThreadTranslation is a thread rendered in TargetLanguage.
type ThreadTranslation struct {
	ThreadID       string               `json:"thread_id"`
	TargetLanguage string               `json:"target_language"`
	Messages       []MessageTranslation `json:"messages"`
}

// languageCode returns the code for a language given as a code or an English name.
func languageCode(language string) string {
	language = strings.ToLower(strings.TrimSpace(language))
	if _, ok := languageNames[language]; ok {
		return language
	}
	for code, name := range languageNames {
		if strings.EqualFold(name, language) {
			return code
		}
	}
	return language
}

// DetectLanguage asks the model for the ISO 639-1 code of the language text is written in.
// Empty text has no language.
func (a *Assistant) DetectLanguage(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	answer, err := a.gen.Generate(ctx, fmt.Sprintf(detectLanguagePrompt, text))
	if err != nil {
		return "", fmt.Errorf("failed to detect language: %w", err)
	}
	code, ok := parseLanguageCode(answer)
	if !ok {
		return "", fmt.Errorf("failed to detect language: unexpected answer %q", answer)
	}
	return code, nil
}

// parseLanguageCode accepts a bare code such as "de", optionally quoted or followed by
// more words, or a known language name.
func parseLanguageCode(answer string) (string, bool) {
	fields := strings.Fields(answer)
	if len(fields) == 0 {
		return "", false
	}
	word := strings.ToLower(strings.TrimFunc(fields[0], func(r rune) bool { return !unicode.IsLetter(r) }))
	if len(word) == 2 && word[0] >= 'a' && word[0] <= 'z' && word[1] >= 'a' && word[1] <= 'z' {
		return word, true
	}
	if code := languageCode(word); code != word {
		return code, true
	}
	return "", false
}

// TranslateThread translates the subject and body of every message of thread that is not
// already written in targetLanguage. Errors of any message fail the whole translation.
func (a *Assistant) TranslateThread(ctx context.Context, thread *gmail.Thread, targetLanguage string) (ThreadTranslation, error) {
	target := languageCode(targetLanguage)
	if target == "" {
		return ThreadTranslation{}, fmt.Errorf("target language is required")
	}

	out := ThreadTranslation{ThreadID: thread.ID, TargetLanguage: target}
	for _, m := range thread.Messages {
		mt := MessageTranslation{From: m.From, Date: m.Date, Subject: m.Subject, Body: m.Body}

		source, err := a.DetectLanguage(ctx, m.Body)
		if err != nil {
			return ThreadTranslation{}, err
		}
		mt.SourceLanguage = source
		if source != "" && source != target {
			if mt.Subject, err = a.Translate(ctx, m.Subject, target); err != nil {
				return ThreadTranslation{}, err
			}
			if mt.Body, err = a.Translate(ctx, m.Body, target); err != nil {
				return ThreadTranslation{}, err
			}
			mt.Translated = true
		}
		out.Messages = append(out.Messages, mt)
	}
	return out, nil
}
