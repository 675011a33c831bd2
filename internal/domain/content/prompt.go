package content

import (
	"strings"
	"text/template"

	"github.com/rotisserie/eris"
)

const (
	notProvided  = "Not provided"
	notSpecified = "Not specified"
)

var titlePromptTemplate = template.Must(template.New("title").Parse(`You are an SEO expert. Generate {{.Count}} optimized title tags for a webpage.

Current title: {{.Current}}
Target keyword: {{.Keyword}}
Page content summary: {{.Summary}}
Page URL: {{.URL}}

Requirements:
1. Length: 50-60 characters (strict)
2. Include target keyword naturally (if provided)
3. Compelling and click-worthy
4. Follow SEO best practices
5. Tone: {{.Tone}}

Return ONLY a valid JSON array with this exact format (no markdown, no code blocks):
[
  {
    "title": "generated title here",
    "reasoning": "brief explanation why this works"
  }
]`))

var descriptionPromptTemplate = template.Must(template.New("description").Parse(`You are an SEO expert. Generate {{.Count}} optimized meta descriptions for a webpage.

Current description: {{.Current}}
Target keyword: {{.Keyword}}
Page content summary: {{.Summary}}
Page URL: {{.URL}}

Requirements:
1. Length: 120-160 characters (strict)
2. Include target keyword naturally (if provided)
3. Include a call-to-action (CTA)
4. Compelling and click-worthy
5. Follow SEO best practices
6. Tone: {{.Tone}}

Return ONLY a valid JSON array with this exact format (no markdown, no code blocks):
[
  {
    "description": "generated description here",
    "reasoning": "brief explanation why this works"
  }
]`))

type promptData struct {
	Count   int
	Current string
	Keyword string
	Summary string
	URL     string
	Tone    string
}

// BuildPrompt renders the provider instruction for a normalized request.
func BuildPrompt(req GenerationRequest) (string, error) {
	var tmpl *template.Template
	switch req.Kind {
	case KindTitle:
		tmpl = titlePromptTemplate
	case KindDescription:
		tmpl = descriptionPromptTemplate
	default:
		return "", eris.Errorf("no prompt template for kind %q", req.Kind)
	}

	tone := req.Tone
	if tone == "" {
		tone = DefaultTone
	}

	data := promptData{
		Count:   req.CandidateCount,
		Current: orDefault(req.CurrentText, notProvided),
		Keyword: orDefault(req.TargetKeyword, notSpecified),
		Summary: orDefault(SummarizePageContent(req.PageContentSummary), notProvided),
		URL:     orDefault(req.PageURL, notProvided),
		Tone:    tone,
	}

	var builder strings.Builder
	if err := tmpl.Execute(&builder, data); err != nil {
		return "", eris.Wrapf(err, "rendering %s prompt", req.Kind)
	}

	return builder.String(), nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
