package assistant

import (
	"regexp"
	"strings"
)

// Sentiments.
const (
	SentimentPositive = "positive"
	SentimentNegative = "negative"
	SentimentNeutral  = "neutral"
)

// Urgency levels.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// ToneUnknown is reported when no known tone is mentioned.
const ToneUnknown = "unknown"

var toneKeywords = []string{"formal", "casual", "urgent", "friendly", "professional"}

var (
	positiveRE = regexp.MustCompile(`(?i)\bpositive\b`)
	negativeRE = regexp.MustCompile(`(?i)\bnegative\b`)
	highRE     = regexp.MustCompile(`(?i)\bhigh\b`)
	mediumRE   = regexp.MustCompile(`(?i)\bmedium\b`)
	numberedRE = regexp.MustCompile(`^\d+[.)]\s*`)
)

// parseSentiment reads the sentiment and tone from a model answer. Positive wins over
// negative when both are mentioned.
func parseSentiment(answer string) (sentiment, tone string) {
	sentiment = SentimentNeutral
	switch {
	case positiveRE.MatchString(answer):
		sentiment = SentimentPositive
	case negativeRE.MatchString(answer):
		sentiment = SentimentNegative
	}

	tone = ToneUnknown
	lower := strings.ToLower(answer)
	for _, kw := range toneKeywords {
		if strings.Contains(lower, kw) {
			tone = kw
			break
		}
	}
	return sentiment, tone
}

func parseUrgency(answer string) string {
	switch {
	case highRE.MatchString(answer):
		return UrgencyHigh
	case mediumRE.MatchString(answer):
		return UrgencyMedium
	}
	return UrgencyLow
}

// extractKeyPoints collects bullet lines, or numbered lines when there are no bullets.
func extractKeyPoints(analysis string) []string {
	lines := strings.Split(analysis, "\n")

	var points []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "*") {
			if p := strings.TrimSpace(strings.TrimLeft(line, "-* ")); p != "" {
				points = append(points, p)
			}
		}
	}
	if len(points) > 0 {
		return points
	}

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if loc := numberedRE.FindStringIndex(line); loc != nil {
			if p := strings.TrimSpace(line[loc[1]:]); p != "" {
				points = append(points, p)
			}
		}
	}
	return points
}

// replyHeading reports the tone a line introduces, such as "Formal:" or "**Casual**",
// and any text following the heading on the same line.
func replyHeading(line string) (tone, rest string, ok bool) {
	trimmed := strings.TrimSpace(strings.Trim(strings.TrimSpace(line), "*#_ "))
	lower := strings.ToLower(trimmed)
	for _, t := range Tones {
		if !strings.HasPrefix(lower, t) {
			continue
		}
		after := trimmed[len(t):]
		after = strings.TrimLeft(after, "*_ ")
		switch {
		case after == "":
			return t, "", true
		case strings.HasPrefix(after, ":"):
			return t, strings.TrimSpace(strings.Trim(after[1:], "*_ ")), true
		}
	}
	return "", "", false
}

// parseReplies splits a model answer into tone sections. Tones without text are left
// empty.
func parseReplies(answer string) map[string]string {
	sections := make(map[string][]string, len(Tones))
	current := ""
	for _, line := range strings.Split(answer, "\n") {
		if strings.TrimSpace(line) == "" {
			if current != "" && len(sections[current]) > 0 {
				sections[current] = append(sections[current], "")
			}
			continue
		}
		if tone, rest, ok := replyHeading(line); ok {
			current = tone
			if rest != "" {
				sections[current] = append(sections[current], rest)
			}
			continue
		}
		if current != "" {
			sections[current] = append(sections[current], strings.TrimRight(line, " \t\r"))
		}
	}

	out := make(map[string]string, len(Tones))
	for _, t := range Tones {
		out[t] = strings.TrimSpace(strings.Join(sections[t], "\n"))
	}
	return out
}
