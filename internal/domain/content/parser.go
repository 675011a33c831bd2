package content

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"
)

// MaxFallbackCandidates caps how many lines the fallback parse turns into candidates.
const MaxFallbackCandidates = 5

var ordinalPrefixPattern = regexp.MustCompile(`^\d+\.\s*`)

// ParseResponse converts raw provider text into candidates. When the text is not a
// JSON array it falls back to one candidate per non-empty line and reports degraded.
func ParseResponse(raw string, kind Kind) ([]RawCandidate, bool) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))

	if candidates, ok := parseJSONArray(cleaned, kind); ok {
		return candidates, false
	}

	return parseLines(cleaned), true
}

func parseJSONArray(cleaned string, kind Kind) ([]RawCandidate, bool) {
	if !gjson.Valid(cleaned) {
		return nil, false
	}

	parsed := gjson.Parse(cleaned)
	if !parsed.IsArray() {
		return nil, false
	}

	elements := parsed.Array()
	candidates := make([]RawCandidate, 0, len(elements))
	for _, element := range elements {
		candidate, ok := candidateFromElement(element, kind)
		if !ok {
			continue
		}
		candidates = append(candidates, candidate)
	}

	return candidates, true
}

func candidateFromElement(element gjson.Result, kind Kind) (RawCandidate, bool) {
	switch {
	case element.Type == gjson.String:
		if element.String() == "" {
			return RawCandidate{}, false
		}
		return RawCandidate{Text: element.String()}, true
	case element.IsObject():
		text := element.Get(string(kind)).String()
		if text == "" {
			text = element.Get("text").String()
		}
		if text == "" {
			return RawCandidate{}, false
		}
		return RawCandidate{Text: text, Reasoning: element.Get("reasoning").String()}, true
	default:
		return RawCandidate{}, false
	}
}

func parseLines(cleaned string) []RawCandidate {
	candidates := make([]RawCandidate, 0, MaxFallbackCandidates)

	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		line = ordinalPrefixPattern.ReplaceAllString(line, "")
		line = strings.TrimSpace(strings.Trim(line, `"'`))

		candidates = append(candidates, RawCandidate{
			Text:      line,
			Reasoning: fmt.Sprintf("Generated version %d", len(candidates)+1),
		})
		if len(candidates) == MaxFallbackCandidates {
			break
		}
	}

	return candidates
}

func stripCodeFence(content string) string {
	if !strings.HasPrefix(content, "```") {
		return content
	}

	body := strings.TrimPrefix(content, "```")
	if newline := strings.IndexByte(body, '\n'); newline != -1 && !strings.ContainsAny(body[:newline], "[{\"") {
		body = body[newline+1:]
	} else {
		body = strings.TrimPrefix(body, "json")
	}

	body = strings.TrimRight(body, " \t\r\n")
	body = strings.TrimSuffix(body, "```")
	return strings.TrimSpace(body)
}
