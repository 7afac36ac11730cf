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

// pubmedSearchBase and pubmedSummaryBase are the NCBI E-utilities
// endpoints. Declared as vars so tests can substitute httptest servers.
var (
	pubmedSearchBase  = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esearch.fcgi"
	pubmedSummaryBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"
)

// PubMed queries the NCBI E-utilities API in two steps: esearch for
// matching article ids, then esummary for their metadata.
type PubMed struct {
	Client  *http.Client
	Limiter *rate.Limiter
	Config  types.ProviderConfig
}

// Fetch searches PubMed and returns paper cards.
func (p *PubMed) Fetch(ctx context.Context, query string) ([]types.Card, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}

	maxResults := p.Config.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	ids, err := p.searchIDs(ctx, query, maxResults)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return p.fetchSummaries(ctx, ids)
}

// searchIDs runs esearch and returns matching article ids in rank order.
func (p *PubMed) searchIDs(ctx context.Context, query string, maxResults int) ([]string, error) {
	if err := waitLimiter(ctx, p.Limiter); err != nil {
		return nil, err
	}

	params := url.Values{
		"db":      {"pubmed"},
		"term":    {query},
		"retmode": {"json"},
		"retmax":  {fmt.Sprintf("%d", maxResults)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedSearchBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed esearch request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PubMed esearch returned HTTP %d", resp.StatusCode)
	}

	var sr pubmedSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing PubMed esearch response: %w", err)
	}
	return sr.Result.IDList, nil
}

// fetchSummaries runs esummary for the given ids and maps each document to
// a paper card.
func (p *PubMed) fetchSummaries(ctx context.Context, ids []string) ([]types.Card, error) {
	if err := waitLimiter(ctx, p.Limiter); err != nil {
		return nil, err
	}

	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"json"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedSummaryBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.Config.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, p.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("PubMed esummary request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("PubMed esummary returned HTTP %d", resp.StatusCode)
	}

	var sr pubmedSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing PubMed esummary response: %w", err)
	}

	// The result object is keyed by uid, with a "uids" list preserving
	// search rank order.
	var uids []string
	if raw, ok := sr.Result["uids"]; ok {
		if err := json.Unmarshal(raw, &uids); err != nil {
			return nil, fmt.Errorf("parsing PubMed uid list: %w", err)
		}
	}

	now := time.Now()
	total := len(uids)
	var cards []types.Card
	for i, uid := range uids {
		raw, ok := sr.Result[uid]
		if !ok {
			continue
		}
		var doc pubmedDoc
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		if doc.Title == "" {
			continue
		}

		var authors []string
		for _, a := range doc.Authors {
			if a.Name != "" {
				authors = append(authors, a.Name)
			}
		}

		// Position-based relevance score over the esearch rank order.
		score := 1.0
		if total > 1 {
			score = 1.0 - float64(i)/float64(total-1)*0.9
		}

		cards = append(cards, types.NewPaperCard(types.PaperFields{
			Title:         doc.Title,
			Score:         score,
			Authors:       authors,
			PublishedDate: doc.PubDate,
			URL:           "https://pubmed.ncbi.nlm.nih.gov/" + uid + "/",
			Badge:         paperBadge(doc.PubDate, now),
		}))
	}
	return cards, nil
}

// PubMed E-utilities JSON structures.
type pubmedSearchResponse struct {
	Result pubmedSearchResult `json:"esearchresult"`
}

type pubmedSearchResult struct {
	Count  string   `json:"count"`
	IDList []string `json:"idlist"`
}

type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDoc struct {
	Title   string         `json:"title"`
	PubDate string         `json:"pubdate"`
	Source  string         `json:"source"`
	Authors []pubmedAuthor `json:"authors"`
}

type pubmedAuthor struct {
	Name     string `json:"name"`
	AuthType string `json:"authtype"`
}
