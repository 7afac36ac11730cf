// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keywords

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// keywordPromptTmpl asks the model for research-domain keywords suited to
// querying grant, paper, and news sources.
var keywordPromptTmpl = template.Must(template.New("keywords").Parse(`You are an expert at identifying research-relevant keywords from academic and research lab material.
Extract key research domains, methodologies, techniques, topics, and subject areas that would be useful for searching:
- research grant databases
- academic paper indexes
- science news coverage

Return only the keywords as a comma-separated list. Focus on:
- Specific research topics and fields
- Methodologies and techniques
- Domain-specific terms
- Avoid generic words like "research", "study", "analysis"

Return at most {{.MaxKeywords}} keywords.

Content:
{{.Content}}
`))

// maxPromptChars caps the content passed to the model.
const maxPromptChars = 3000

// listPrefixRe strips numbering and bullet markers from response lines.
var listPrefixRe = regexp.MustCompile(`^[\d.\-*\s]+`)

// Completer abstracts the text-generation API so tests can supply a mock.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// Claude extracts keywords with the Claude API. Any failure, including a
// missing key, falls back to the frequency heuristic so extraction never
// depends on the API being up.
type Claude struct {
	Client Completer
}

// Extract returns up to topK keywords for the chunks.
func (c *Claude) Extract(ctx context.Context, chunks []string, topK int) ([]string, error) {
	valid := validChunks(chunks)
	if len(valid) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	if c.Client == nil || !c.Client.Configured() {
		return Heuristic{}.Extract(ctx, valid, topK)
	}

	kws, err := c.extractLLM(ctx, valid, topK)
	if err != nil || len(kws) == 0 {
		return Heuristic{}.Extract(ctx, valid, topK)
	}
	return kws, nil
}

func (c *Claude) extractLLM(ctx context.Context, chunks []string, topK int) ([]string, error) {
	content := strings.Join(chunks, " ")
	if len(content) > maxPromptChars {
		content = content[:maxPromptChars]
	}

	var buf bytes.Buffer
	err := keywordPromptTmpl.Execute(&buf, struct {
		MaxKeywords int
		Content     string
	}{MaxKeywords: topK, Content: content})
	if err != nil {
		return nil, fmt.Errorf("rendering prompt: %w", err)
	}

	text, err := c.Client.Complete(ctx, buf.String())
	if err != nil {
		return nil, err
	}
	return parseKeywordList(text, topK), nil
}

// parseKeywordList splits a model reply into keywords. Replies arrive as
// comma-separated lists or one keyword per line, sometimes numbered.
func parseKeywordList(text string, topK int) []string {
	var keywords []string
	for _, line := range strings.Split(text, "\n") {
		for _, part := range strings.Split(line, ",") {
			kw := listPrefixRe.ReplaceAllString(strings.TrimSpace(part), "")
			kw = strings.Trim(kw, `"'`)
			if len(kw) > 2 {
				keywords = append(keywords, kw)
			}
			if len(keywords) == topK {
				return keywords
			}
		}
	}
	return keywords
}
