// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/avelasko/research-inbox/internal/httputil"
	"github.com/avelasko/research-inbox/pkg/types"
)

// newsAPIBase is the NewsAPI article search endpoint. Declared as a var so
// tests can substitute an httptest server.
var newsAPIBase = "https://newsapi.org/v2/everything"

// NewsAPI queries newsapi.org for recent coverage of a topic.
type NewsAPI struct {
	Client  *http.Client
	Limiter *rate.Limiter
	Config  types.ProviderConfig
}

// Fetch searches NewsAPI and returns news cards.
func (p *NewsAPI) Fetch(ctx context.Context, query string) ([]types.Card, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty NewsAPI query")
	}
	if p.Config.NewsAPIKey == "" {
		return nil, fmt.Errorf("NewsAPI key not configured")
	}

	maxResults := p.Config.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	if err := waitLimiter(ctx, p.Limiter); err != nil {
		return nil, err
	}

	params := url.Values{
		"q":        {query},
		"pageSize": {fmt.Sprintf("%d", maxResults)},
		"sortBy":   {"relevancy"},
		"language": {"en"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, newsAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.Config.UserAgent)
	req.Header.Set("X-Api-Key", p.Config.NewsAPIKey)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("NewsAPI request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NewsAPI returned HTTP %d", resp.StatusCode)
	}

	var nr newsAPIResponse
	if err := json.NewDecoder(resp.Body).Decode(&nr); err != nil {
		return nil, fmt.Errorf("parsing NewsAPI response: %w", err)
	}

	if nr.Status != "ok" {
		return nil, fmt.Errorf("NewsAPI error: %s", nr.Message)
	}

	now := time.Now()
	total := len(nr.Articles)
	var cards []types.Card
	for i, a := range nr.Articles {
		// NewsAPI blanks withdrawn articles instead of dropping them.
		if a.Title == "" || a.Title == "[Removed]" {
			continue
		}

		// Position-based relevance score. Articles arrive sorted by
		// relevancy.
		score := 1.0
		if total > 1 {
			score = 1.0 - float64(i)/float64(total-1)*0.9
		}

		cards = append(cards, types.NewNewsCard(types.NewsFields{
			Title:         a.Title,
			Score:         score,
			Outlet:        a.Source.Name,
			URL:           a.URL,
			PublishedDate: a.PublishedAt,
			Badge:         newsBadge(a.PublishedAt, now),
		}))
	}
	return cards, nil
}

// NewsAPI JSON structures.
type newsAPIResponse struct {
	Status       string           `json:"status"`
	TotalResults int              `json:"totalResults"`
	Code         string           `json:"code"`
	Message      string           `json:"message"`
	Articles     []newsAPIArticle `json:"articles"`
}

type newsAPIArticle struct {
	Source      newsAPISource `json:"source"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	URL         string        `json:"url"`
	PublishedAt string        `json:"publishedAt"`
	Content     string        `json:"content"`
}

type newsAPISource struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
