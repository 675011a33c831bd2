package seo

import (
	"fmt"
	"math"
)

// Kind selects the scoring profile for a piece of text.
type Kind string

const (
	KindTitle       Kind = "title"
	KindDescription Kind = "description"
)

const (
	idealTitleLength       = 55
	idealDescriptionLength = 140
	lengthTolerance        = 10

	lengthPoints        = 40
	lengthPenaltyFactor = 2
	keywordPoints       = 30
	noKeywordPoints     = 15
	readabilityWeight   = 0.2
	ctaPoints           = 10
	titleCTAPoints      = 5
	maxScore            = 100
)

// Score bundles every metric computed for one candidate text.
type Score struct {
	CharacterCount   int
	SEOScore         int
	KeywordDensity   float64
	ReadabilityScore int
	IncludesKeyword  bool
	IncludesCTA      bool
	Recommendations  []string
}

// IdealLength returns the target character count for kind.
func IdealLength(kind Kind) int {
	if kind == KindTitle {
		return idealTitleLength
	}
	return idealDescriptionLength
}

// CalculateSEOScore grades text on length, keyword use, readability and CTA presence.
func CalculateSEOScore(text string, kind Kind, targetKeyword string) int {
	score := 0.0

	lengthDiff := math.Abs(float64(CharacterCount(text) - IdealLength(kind)))
	score += math.Max(0, lengthPoints-lengthDiff*lengthPenaltyFactor)

	switch {
	case targetKeyword == "":
		score += noKeywordPoints
	case IncludesKeyword(text, targetKeyword):
		score += keywordPoints
	}

	score += float64(CalculateReadability(text)) * readabilityWeight

	if kind == KindDescription {
		if CheckForCTA(text) {
			score += ctaPoints
		}
	} else {
		score += titleCTAPoints
	}

	rounded := roundHalfUp(score)
	if rounded > maxScore {
		return maxScore
	}
	return rounded
}

// GenerateRecommendations lists improvements in priority order: length, keyword, CTA.
func GenerateRecommendations(text string, kind Kind, targetKeyword string) []string {
	recommendations := make([]string, 0, 3)

	ideal := IdealLength(kind)
	current := CharacterCount(text)

	if current < ideal-lengthTolerance {
		recommendations = append(recommendations, fmt.Sprintf("Consider adding %d more characters for better SEO", ideal-current))
	} else if current > ideal+lengthTolerance {
		recommendations = append(recommendations, fmt.Sprintf("Consider reducing by %d characters for optimal length", current-ideal))
	}

	if targetKeyword != "" && !IncludesKeyword(text, targetKeyword) {
		recommendations = append(recommendations, fmt.Sprintf("Include the target keyword \"%s\" naturally", targetKeyword))
	}

	if kind == KindDescription && !CheckForCTA(text) {
		recommendations = append(recommendations, "Add a call-to-action to encourage clicks")
	}

	return recommendations
}

// Evaluate computes every metric for text. Titles never report a CTA.
func Evaluate(text string, kind Kind, targetKeyword string) Score {
	return Score{
		CharacterCount:   CharacterCount(text),
		SEOScore:         CalculateSEOScore(text, kind, targetKeyword),
		KeywordDensity:   CalculateKeywordDensity(text, targetKeyword),
		ReadabilityScore: CalculateReadability(text),
		IncludesKeyword:  IncludesKeyword(text, targetKeyword),
		IncludesCTA:      kind == KindDescription && CheckForCTA(text),
		Recommendations:  GenerateRecommendations(text, kind, targetKeyword),
	}
}
