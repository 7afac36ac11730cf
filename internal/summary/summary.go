// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package summary writes the per-sector digests shown alongside inbox
// results: short assistant-voice paragraphs about the grants, papers, and
// news that were found, personalized by the lab profile when one exists.
package summary

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/avelasko/research-inbox/pkg/types"
)

// Sector names as they appear in digests and API payloads.
const (
	SectorGrants = "grants"
	SectorPapers = "papers"
	SectorNews   = "news"
)

const (
	// maxPromptCards caps how many cards are listed in the prompt.
	maxPromptCards = 10

	defaultMaxRetries = 3
)

// Completer abstracts the text-generation API so tests can supply a mock.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// Generator produces sector digests. Without a configured client it falls
// back to deterministic count-and-title summaries, so digests are always
// available.
type Generator struct {
	Client     Completer
	MaxRetries int
}

// Summaries holds one digest per sector.
type Summaries struct {
	Grants string `json:"grants"`
	Papers string `json:"papers"`
	News   string `json:"news"`
}

// All generates the three sector digests for a research state.
func (g *Generator) All(ctx context.Context, state types.ResearchState) Summaries {
	return Summaries{
		Grants: g.Sector(ctx, SectorGrants, state.Grants, state.LabProfile),
		Papers: g.Sector(ctx, SectorPapers, state.Papers, state.LabProfile),
		News:   g.Sector(ctx, SectorNews, state.News, state.LabProfile),
	}
}

// Sector generates the digest for one sector. Generation failures fall
// back to the deterministic summary; Sector never fails.
func (g *Generator) Sector(ctx context.Context, sector string, cards []types.Card, labProfile map[string]any) string {
	if g.Client == nil || !g.Client.Configured() {
		return fallbackSummary(sector, cards)
	}

	prompt, err := buildPrompt(sector, cards, labProfile)
	if err != nil {
		return fallbackSummary(sector, cards)
	}

	text, err := g.callWithRetry(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		return fallbackSummary(sector, cards)
	}
	return strings.TrimSpace(text)
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry calls the generation API with exponential backoff.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (string, error) {
	maxRetries := g.MaxRetries
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := g.Client.Complete(ctx, prompt)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// --- prompts ---

var grantsPromptTmpl = template.Must(template.New(SectorGrants).Parse(`You are a calm, competent research assistant who has reviewed grant opportunities and filtered them for a specific lab. Write in a thoughtful, understated tone, like someone who actually skimmed the content. No hype, no emojis.

I found {{.Count}} grant opportunities. Here are the results:

{{.Results}}

Lab Profile:
{{.LabProfile}}

Write a brief paragraph (3-4 sentences) that:
1. Opens by noting these grants closely match the lab's research focus
2. Mentions deadlines naturally when grants are closing soon
3. Is honest about competitiveness for high-funding opportunities, without overselling
4. Points out grants suited for exploratory or pilot proposals
5. Never mentions search queries or how the results were found

End with a short line offering to tune future updates toward grants, papers, or broader field news.
`))

var papersPromptTmpl = template.Must(template.New(SectorPapers).Parse(`You are a calm, competent research assistant who has reviewed research papers and selected them for a specific lab. Write in a thoughtful, understated tone, like someone who actually skimmed the content. No hype, no emojis.

I found {{.Count}} relevant research papers. Here are the results:

{{.Results}}

Lab Profile:
{{.LabProfile}}

Write a brief paragraph (3-4 sentences) that:
1. Opens by noting these papers overlap with the lab's recent topics and methods
2. Calls out papers that build on a similar problem space and may help with framing or comparison
3. Frames trending papers as useful for staying current, not as obligations
4. Notes adjacent papers that could matter if the lab explores new directions
5. Never mentions search queries or how the results were found

End with a short line offering to tune future updates toward grants, papers, or broader field news.
`))

var newsPromptTmpl = template.Must(template.New(SectorNews).Parse(`You are a calm, competent research assistant who has reviewed news articles and selected them for a specific lab. Write in a thoughtful, understated tone, like someone who actually skimmed the content. No hype, no emojis.

I found {{.Count}} relevant news articles. Here are the results:

{{.Results}}

Lab Profile:
{{.LabProfile}}

Write a brief paragraph (3-4 sentences) that:
1. Opens by tying these updates to funding priorities, collaboration opportunities, or upcoming calls
2. Flags policy or funding news worth keeping on the radar
3. Notes industry news relevant to collaborations or translational work
4. Connects trend pieces to context for future proposals
5. Never mentions search queries or how the results were found

End with a short line offering to tune future updates toward grants, papers, or broader field news.
`))

func sectorTemplate(sector string) *template.Template {
	switch sector {
	case SectorGrants:
		return grantsPromptTmpl
	case SectorPapers:
		return papersPromptTmpl
	default:
		return newsPromptTmpl
	}
}

func buildPrompt(sector string, cards []types.Card, labProfile map[string]any) (string, error) {
	var buf bytes.Buffer
	err := sectorTemplate(sector).Execute(&buf, struct {
		Count      int
		Results    string
		LabProfile string
	}{
		Count:      len(cards),
		Results:    formatCards(sector, cards),
		LabProfile: formatLabProfile(labProfile),
	})
	if err != nil {
		return "", fmt.Errorf("rendering %s prompt: %w", sector, err)
	}
	return buf.String(), nil
}

// formatCards renders cards as a numbered list with the attributes that
// matter for each sector.
func formatCards(sector string, cards []types.Card) string {
	if len(cards) == 0 {
		return "No results found for this sector."
	}
	if len(cards) > maxPromptCards {
		cards = cards[:maxPromptCards]
	}

	lines := make([]string, 0, len(cards))
	for i, c := range cards {
		line := fmt.Sprintf("%d. %s", i+1, c.Title)
		switch sector {
		case SectorGrants:
			if c.Meta.Sponsor != "" {
				line += fmt.Sprintf(" (Sponsor: %s)", c.Meta.Sponsor)
			}
			if c.Meta.CloseDate != "" {
				line += fmt.Sprintf(" [Deadline: %s]", c.Meta.CloseDate)
			}
			if c.Meta.AmountMax > 0 {
				line += fmt.Sprintf(" [Max Amount: %s]", formatAmount(c.Meta.AmountMax))
			}
			if c.Badge != "" {
				line += fmt.Sprintf(" [%s]", c.Badge)
			}
		case SectorPapers:
			if len(c.Meta.Authors) > 0 {
				line += " by " + formatAuthors(c.Meta.Authors)
			}
			if c.Meta.PublishedDate != "" {
				line += fmt.Sprintf(" (%s)", c.Meta.PublishedDate)
			}
		case SectorNews:
			if c.Meta.Outlet != "" {
				line += " - " + c.Meta.Outlet
			}
			if c.Meta.PublishedDate != "" {
				line += fmt.Sprintf(" (%s)", c.Meta.PublishedDate)
			}
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// formatAuthors lists the first three authors, with et al. when more exist.
func formatAuthors(authors []string) string {
	if len(authors) <= 3 {
		return strings.Join(authors, ", ")
	}
	return strings.Join(authors[:3], ", ") + " et al."
}

// formatAmount renders a dollar amount with thousands separators,
// e.g. 500000 becomes $500,000.
func formatAmount(amount float64) string {
	digits := strconv.FormatFloat(amount, 'f', 0, 64)

	var b strings.Builder
	b.WriteString("$")
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 1 {
			b.WriteString(",")
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// formatLabProfile renders the profile map for the prompt. Profiles arrive
// both from JSON decoding ([]any values) and from in-process callers
// ([]string values), so the field helpers accept either shape.
func formatLabProfile(profile map[string]any) string {
	if len(profile) == 0 {
		return ""
	}

	var parts []string
	if v := stringField(profile, "lab_name"); v != "" {
		parts = append(parts, "Lab Name: "+v)
	}
	if v := stringField(profile, "lab_description"); v != "" {
		parts = append(parts, "Lab Description: "+v)
	}
	if v := stringField(profile, "lab_focus"); v != "" {
		parts = append(parts, "Lab Focus: "+v)
	}
	if areas := sliceField(profile, "research_areas"); len(areas) > 0 {
		parts = append(parts, "Research Areas:")
		for _, raw := range areas {
			area, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			cat := stringField(area, "category")
			if cat == "" {
				continue
			}
			parts = append(parts, "  - "+cat)
			for _, topic := range stringsField(area, "topics") {
				parts = append(parts, "    * "+topic)
			}
		}
	}
	if kws := stringsField(profile, "keywords"); len(kws) > 0 {
		parts = append(parts, "Keywords: "+strings.Join(kws, ", "))
	}
	return strings.Join(parts, "\n")
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func sliceField(m map[string]any, key string) []any {
	s, _ := m[key].([]any)
	return s
}

func stringsField(m map[string]any, key string) []string {
	switch v := m[key].(type) {
	case []string:
		return v
	case []any:
		var out []string
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// --- fallback ---

// fallbackSummary builds the deterministic digest used when no generation
// client is configured or the call failed.
func fallbackSummary(sector string, cards []types.Card) string {
	if len(cards) == 0 {
		return fmt.Sprintf("I didn't find any %s that match your research focus. Let me know if you'd like me to adjust the search criteria.", sector)
	}

	var b strings.Builder
	switch sector {
	case SectorGrants:
		fmt.Fprintf(&b, "I flagged %d grant opportunities that closely match your lab's research focus. A couple of them may be approaching their deadlines and look realistically competitive.", len(cards))
	case SectorPapers:
		fmt.Fprintf(&b, "These %d papers were selected because they overlap with your lab's recent topics and methods. One of them may introduce an approach that could be relevant to your current direction.", len(cards))
	default:
		fmt.Fprintf(&b, "These %d updates reflect recent developments in your field that may affect funding priorities or collaboration opportunities. Worth keeping on your radar.", len(cards))
	}
	fmt.Fprintf(&b, " Top matches: %s.", topTitles(cards, 3))
	return b.String()
}

func topTitles(cards []types.Card, n int) string {
	if len(cards) < n {
		n = len(cards)
	}
	quoted := make([]string, 0, n)
	for _, c := range cards[:n] {
		quoted = append(quoted, fmt.Sprintf("%q", c.Title))
	}
	return strings.Join(quoted, ", ")
}
