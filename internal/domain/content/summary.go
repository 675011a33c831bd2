package content

import (
	"strings"

	"golang.org/x/net/html"
)

// MaxSummaryRunes bounds the page summary embedded in a prompt.
const MaxSummaryRunes = 2000

var skippedSummaryElements = map[string]struct{}{
	"script":   {},
	"style":    {},
	"noscript": {},
	"template": {},
	"svg":      {},
	"head":     {},
}

// SummarizePageContent reduces a page summary to plain text. Markup is dropped,
// whitespace collapsed and the result capped at MaxSummaryRunes.
func SummarizePageContent(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}

	text := trimmed
	if strings.Contains(trimmed, "<") {
		text = extractText(trimmed)
	}

	text = strings.Join(strings.Fields(text), " ")
	return truncateRunes(text, MaxSummaryRunes)
}

func extractText(markup string) string {
	tokenizer := html.NewTokenizer(strings.NewReader(markup))

	var builder strings.Builder
	skipDepth := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			// io.EOF or malformed input; either way keep what was read.
			return builder.String()
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			if _, skip := skippedSummaryElements[strings.ToLower(string(name))]; skip {
				skipDepth++
			}
		case html.EndTagToken:
			name, _ := tokenizer.TagName()
			if _, skip := skippedSummaryElements[strings.ToLower(string(name))]; skip && skipDepth > 0 {
				skipDepth--
			}
			builder.WriteByte(' ')
		case html.TextToken:
			if skipDepth > 0 {
				continue
			}
			builder.Write(tokenizer.Text())
			builder.WriteByte(' ')
		}
	}
}

func truncateRunes(value string, limit int) string {
	if limit <= 0 {
		return ""
	}

	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit]))
}
