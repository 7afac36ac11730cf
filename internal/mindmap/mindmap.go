// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mindmap turns research results into markmap-style markdown: a
// hierarchical tree of themes connecting the grants, papers, and news for
// one query. Generation uses the Claude client; without one the fallback
// builds a deterministic tree grouped by card type.
package mindmap

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"github.com/avelasko/research-inbox/pkg/types"
)

const (
	// maxPromptItems caps how many cards of each type go into the prompt.
	maxPromptItems = 15

	// maxFallbackItems caps the per-type items in the fallback tree.
	maxFallbackItems = 10

	// maxTitleChars is the title length in the fallback tree.
	maxTitleChars = 50
)

// Completer abstracts the text-generation API so tests can supply a mock.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
	Configured() bool
}

// Request carries the research results to map.
type Request struct {
	Grants    []types.Card `json:"grants"`
	Papers    []types.Card `json:"papers"`
	News      []types.Card `json:"news"`
	UserQuery string       `json:"user_query,omitempty"`
}

// Connection is a cross-type relationship the model identified.
type Connection struct {
	FromType    string `json:"from_type"`
	ToType      string `json:"to_type"`
	Description string `json:"description"`
}

// Response holds the generated mind map.
type Response struct {
	Markdown    string       `json:"markdown"`
	Themes      []string     `json:"themes"`
	Connections []Connection `json:"connections"`
}

// Generator builds mind maps from research results.
type Generator struct {
	Client Completer
}

// Generate produces the mind map for a set of results. Any generation
// failure falls back to the simple type-grouped tree; Generate never
// fails.
func (g *Generator) Generate(ctx context.Context, req Request) Response {
	if g.Client == nil || !g.Client.Configured() {
		return fallbackResponse(req)
	}

	prompt, err := buildPrompt(req)
	if err != nil {
		return fallbackResponse(req)
	}

	text, err := g.Client.Complete(ctx, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		return fallbackResponse(req)
	}
	return parseResponse(text)
}

// --- prompt ---

var promptTmpl = template.Must(template.New("mindmap").Parse(`You are an expert research analyst who identifies patterns, themes, and connections across grants, papers, and news.

Analyze the provided research results and create a hierarchical mind map in Markdown that markmap.js can render:
1. Use the original query as the root topic (#)
2. Identify 3-5 main themes that connect the grants, papers, and news (##)
3. Under each theme, group relevant items by type (###), one bullet per item
4. Keep item titles concise (max 50 chars, truncate with ... if needed)
5. Add helpful metadata in parentheses

Original Search Query: {{.Query}}

=== GRANTS ({{.GrantsCount}} total) ===
{{.GrantsData}}

=== PAPERS ({{.PapersCount}} total) ===
{{.PapersData}}

=== NEWS ({{.NewsCount}} total) ===
{{.NewsData}}

Identify meaningful thematic relationships rather than just listing items. Respond in this JSON format:
{
    "markdown": "# Your Markdown Here...",
    "themes": ["Theme 1", "Theme 2"],
    "connections": [
        {"from_type": "grant", "to_type": "paper", "description": "Connection description"}
    ]
}
`))

func buildPrompt(req Request) (string, error) {
	var buf bytes.Buffer
	err := promptTmpl.Execute(&buf, struct {
		Query       string
		GrantsCount int
		GrantsData  string
		PapersCount int
		PapersData  string
		NewsCount   int
		NewsData    string
	}{
		Query:       queryOrDefault(req.UserQuery),
		GrantsCount: len(req.Grants),
		GrantsData:  grantsData(req.Grants),
		PapersCount: len(req.Papers),
		PapersData:  papersData(req.Papers),
		NewsCount:   len(req.News),
		NewsData:    newsData(req.News),
	})
	if err != nil {
		return "", fmt.Errorf("rendering mind map prompt: %w", err)
	}
	return buf.String(), nil
}

type grantItem struct {
	Title     string  `json:"title"`
	Sponsor   string  `json:"sponsor,omitempty"`
	AmountMax float64 `json:"amount_max,omitempty"`
	CloseDate string  `json:"close_date,omitempty"`
	Score     float64 `json:"score"`
}

type paperItem struct {
	Title         string   `json:"title"`
	Authors       []string `json:"authors,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"`
	Score         float64  `json:"score"`
}

type newsItem struct {
	Title         string  `json:"title"`
	Outlet        string  `json:"outlet,omitempty"`
	PublishedDate string  `json:"published_date,omitempty"`
	Score         float64 `json:"score"`
}

func grantsData(cards []types.Card) string {
	if len(cards) == 0 {
		return "No grants found"
	}
	items := make([]grantItem, 0, len(cards))
	for _, c := range limitCards(cards, maxPromptItems) {
		items = append(items, grantItem{
			Title:     c.Title,
			Sponsor:   c.Meta.Sponsor,
			AmountMax: c.Meta.AmountMax,
			CloseDate: c.Meta.CloseDate,
			Score:     c.Score,
		})
	}
	return marshalItems(items)
}

func papersData(cards []types.Card) string {
	if len(cards) == 0 {
		return "No papers found"
	}
	items := make([]paperItem, 0, len(cards))
	for _, c := range limitCards(cards, maxPromptItems) {
		authors := c.Meta.Authors
		if len(authors) > 3 {
			authors = authors[:3]
		}
		items = append(items, paperItem{
			Title:         c.Title,
			Authors:       authors,
			PublishedDate: c.Meta.PublishedDate,
			Score:         c.Score,
		})
	}
	return marshalItems(items)
}

func newsData(cards []types.Card) string {
	if len(cards) == 0 {
		return "No news found"
	}
	items := make([]newsItem, 0, len(cards))
	for _, c := range limitCards(cards, maxPromptItems) {
		items = append(items, newsItem{
			Title:         c.Title,
			Outlet:        c.Meta.Outlet,
			PublishedDate: c.Meta.PublishedDate,
			Score:         c.Score,
		})
	}
	return marshalItems(items)
}

func marshalItems(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(data)
}

// --- response parsing ---

// parseResponse decodes the model reply. Replies carry a JSON object with
// markdown, themes, and connections, but models sometimes answer with bare
// markdown, which is passed through as-is.
func parseResponse(text string) Response {
	raw := extractJSON(text)
	if raw == "" {
		return Response{Markdown: strings.TrimSpace(text), Themes: []string{}, Connections: []Connection{}}
	}

	var parsed struct {
		Markdown    string       `json:"markdown"`
		Themes      []string     `json:"themes"`
		Connections []Connection `json:"connections"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return Response{Markdown: strings.TrimSpace(text), Themes: []string{}, Connections: []Connection{}}
	}

	markdown := parsed.Markdown
	if markdown == "" {
		markdown = "# No results"
	}
	themes := parsed.Themes
	if themes == nil {
		themes = []string{}
	}
	connections := parsed.Connections
	if connections == nil {
		connections = []Connection{}
	}
	return Response{Markdown: markdown, Themes: themes, Connections: connections}
}

// extractJSON returns the outermost brace-delimited span of the reply.
func extractJSON(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

// --- fallback ---

func fallbackResponse(req Request) Response {
	return Response{Markdown: simpleMarkdown(req), Themes: []string{}, Connections: []Connection{}}
}

// simpleMarkdown builds the deterministic tree: the query as root and one
// section per card type.
func simpleMarkdown(req Request) string {
	lines := []string{"# " + queryOrDefault(req.UserQuery)}

	if len(req.Grants) > 0 {
		lines = append(lines, "", "## Grants")
		for _, c := range limitCards(req.Grants, maxFallbackItems) {
			lines = append(lines, "### "+truncateTitle(c.Title))
			if c.Meta.Sponsor != "" {
				lines = append(lines, "- Sponsor: "+c.Meta.Sponsor)
			}
		}
	}

	if len(req.Papers) > 0 {
		lines = append(lines, "", "## Papers")
		for _, c := range limitCards(req.Papers, maxFallbackItems) {
			lines = append(lines, "### "+truncateTitle(c.Title))
			if len(c.Meta.Authors) > 0 {
				authors := c.Meta.Authors
				if len(authors) > 2 {
					authors = authors[:2]
				}
				lines = append(lines, "- Authors: "+strings.Join(authors, ", "))
			}
		}
	}

	if len(req.News) > 0 {
		lines = append(lines, "", "## News")
		for _, c := range limitCards(req.News, maxFallbackItems) {
			lines = append(lines, "### "+truncateTitle(c.Title))
			if c.Meta.Outlet != "" {
				lines = append(lines, "- Source: "+c.Meta.Outlet)
			}
		}
	}

	return strings.Join(lines, "\n")
}

func queryOrDefault(query string) string {
	if strings.TrimSpace(query) == "" {
		return "Research Results"
	}
	return query
}

func limitCards(cards []types.Card, max int) []types.Card {
	if len(cards) > max {
		return cards[:max]
	}
	return cards
}

func truncateTitle(title string) string {
	if len(title) > maxTitleChars {
		return title[:maxTitleChars]
	}
	return title
}
