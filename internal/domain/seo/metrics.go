// Package seo holds the text metrics and scoring rules applied to generated titles and descriptions.
package seo

import (
	"math"
	"regexp"
	"strings"
	"unicode/utf8"
)

// NeutralReadability is returned when a text has no sentences or no words.
const NeutralReadability = 50

var (
	silentSuffixPattern = regexp.MustCompile(`(?:[^laeiouy]es|ed|[^laeiouy]e)$`)
	leadingYPattern     = regexp.MustCompile(`^y`)
	vowelGroupPattern   = regexp.MustCompile(`[aeiouy]{1,2}`)
	sentenceSplit       = regexp.MustCompile(`[.!?]+`)
)

var ctaWords = []string{
	"learn", "discover", "get", "start", "try", "buy",
	"shop", "explore", "find", "view", "see", "read",
}

// CharacterCount returns the length of text in Unicode code points.
func CharacterCount(text string) int {
	return utf8.RuneCountInString(text)
}

// EstimateSyllables approximates the syllable count of a single word.
func EstimateSyllables(word string) int {
	lowered := strings.ToLower(word)
	if utf8.RuneCountInString(lowered) <= 3 {
		return 1
	}

	stripped := silentSuffixPattern.ReplaceAllString(lowered, "")
	stripped = leadingYPattern.ReplaceAllString(stripped, "")

	groups := vowelGroupPattern.FindAllStringIndex(stripped, -1)
	if len(groups) == 0 {
		return 1
	}
	return len(groups)
}

// CalculateReadability returns a Flesch Reading Ease score clamped to [0,100].
func CalculateReadability(text string) int {
	sentences := 0
	for _, sentence := range sentenceSplit.Split(text, -1) {
		if strings.TrimSpace(sentence) != "" {
			sentences++
		}
	}

	words := strings.Fields(text)
	if sentences == 0 || len(words) == 0 {
		return NeutralReadability
	}

	syllables := 0
	for _, word := range words {
		syllables += EstimateSyllables(word)
	}

	avgSentenceLength := float64(len(words)) / float64(sentences)
	avgSyllablesPerWord := float64(syllables) / float64(len(words))

	score := 206.835 - 1.015*avgSentenceLength - 84.6*avgSyllablesPerWord
	return clamp(roundHalfUp(score), 0, 100)
}

// CalculateKeywordDensity returns the percentage of tokens containing keyword, rounded to 2 decimals.
func CalculateKeywordDensity(text, keyword string) float64 {
	if keyword == "" {
		return 0
	}

	words := strings.Fields(strings.ToLower(text))
	if len(words) == 0 {
		return 0
	}

	needle := strings.ToLower(keyword)
	matches := 0
	for _, word := range words {
		if strings.Contains(word, needle) {
			matches++
		}
	}

	if matches == 0 {
		return 0
	}

	density := float64(matches) / float64(len(words)) * 100
	return math.Round(density*100) / 100
}

// CheckForCTA reports whether text contains one of the call-to-action verbs.
func CheckForCTA(text string) bool {
	lowered := strings.ToLower(text)
	for _, word := range ctaWords {
		if strings.Contains(lowered, word) {
			return true
		}
	}
	return false
}

// IncludesKeyword reports a case-insensitive substring match. An empty keyword always matches.
func IncludesKeyword(text, keyword string) bool {
	if keyword == "" {
		return true
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(keyword))
}

func roundHalfUp(value float64) int {
	return int(math.Floor(value + 0.5))
}

func clamp(value, low, high int) int {
	if value < low {
		return low
	}
	if value > high {
		return high
	}
	return value
}
