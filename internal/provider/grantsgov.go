// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/avelasko/research-inbox/pkg/types"
)

// grantsGovSearchBase is the grants.gov opportunity search endpoint.
// Declared as a var so tests can substitute an httptest server.
var grantsGovSearchBase = "https://api.grants.gov/v1/api/search2"

// grantsGovStatuses limits hits to opportunities that are open or
// announced.
const grantsGovStatuses = "forecasted|posted"

// GrantsGov queries the grants.gov search2 API.
type GrantsGov struct {
	Client  *http.Client
	Limiter *rate.Limiter
	Config  types.ProviderConfig
}

// Fetch searches grants.gov and returns grant cards.
func (p *GrantsGov) Fetch(ctx context.Context, query string) ([]types.Card, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty grants.gov query")
	}

	maxResults := p.Config.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}

	if err := waitLimiter(ctx, p.Limiter); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(grantsGovRequest{
		Keyword:     query,
		Rows:        maxResults,
		OppStatuses: grantsGovStatuses,
	})
	if err != nil {
		return nil, fmt.Errorf("encoding grants.gov query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, grantsGovSearchBase, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", p.Config.UserAgent)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("grants.gov API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, fmt.Errorf("grants.gov rate limit exceeded (HTTP 429)")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("grants.gov API returned HTTP %d", resp.StatusCode)
	}

	var gr grantsGovResponse
	if err := json.NewDecoder(resp.Body).Decode(&gr); err != nil {
		return nil, fmt.Errorf("parsing grants.gov response: %w", err)
	}

	now := time.Now()
	total := len(gr.Data.OppHits)
	var cards []types.Card
	for i, hit := range gr.Data.OppHits {
		if hit.Title == "" {
			continue
		}

		sponsor := hit.Agency
		if sponsor == "" {
			sponsor = hit.AgencyCode
		}

		// Position-based relevance score. grants.gov returns hits
		// ordered by relevance.
		score := 1.0
		if total > 1 {
			score = 1.0 - float64(i)/float64(total-1)*0.9
		}

		cards = append(cards, types.NewGrantCard(types.GrantFields{
			Title:     hit.Title,
			Score:     score,
			Sponsor:   sponsor,
			CloseDate: hit.CloseDate,
			Badge:     grantBadge(hit.CloseDate, now),
		}))
	}
	return cards, nil
}

// grants.gov API JSON structures.
type grantsGovRequest struct {
	Keyword     string `json:"keyword"`
	Rows        int    `json:"rows"`
	OppStatuses string `json:"oppStatuses"`
}

type grantsGovResponse struct {
	ErrorCode int           `json:"errorcode"`
	Msg       string        `json:"msg"`
	Data      grantsGovData `json:"data"`
}

type grantsGovData struct {
	HitCount int            `json:"hitCount"`
	OppHits  []grantsGovHit `json:"oppHits"`
}

type grantsGovHit struct {
	ID         string `json:"id"`
	Number     string `json:"number"`
	Title      string `json:"title"`
	AgencyCode string `json:"agencyCode"`
	Agency     string `json:"agency"`
	OpenDate   string `json:"openDate"`
	CloseDate  string `json:"closeDate"`
	OppStatus  string `json:"oppStatus"`
}
