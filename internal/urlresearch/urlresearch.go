// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package urlresearch turns a research lab URL into a ranked discovery
// inbox: scrape the page, derive keywords, run the provider pipeline, and
// cache the bundle for the next request.
package urlresearch

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/avelasko/research-inbox/internal/cache"
	"github.com/avelasko/research-inbox/internal/keywords"
	"github.com/avelasko/research-inbox/internal/rank"
	"github.com/avelasko/research-inbox/internal/scrape"
	"github.com/avelasko/research-inbox/pkg/types"
)

const defaultMaxKeywords = 10

// Scraper fetches and parses one page.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string) (*scrape.PageContent, error)
}

// KeywordExtractor produces search keywords from text chunks.
type KeywordExtractor interface {
	Extract(ctx context.Context, chunks []string, topK int) ([]string, error)
}

// Runner executes the research pipeline for a prepared state.
type Runner interface {
	Run(ctx context.Context, state types.ResearchState) types.ResearchState
}

// ResultCache stores and retrieves research bundles keyed by URL.
type ResultCache interface {
	Get(ctx context.Context, rawURL string) (*cache.Bundle, error)
	Put(ctx context.Context, bundle cache.Bundle) error
}

// Service wires the URL research pipeline. A nil Cache disables caching;
// a nil Keywords extractor falls back to the frequency heuristic.
type Service struct {
	Scraper      Scraper
	Keywords     KeywordExtractor
	Orchestrator Runner
	Cache        ResultCache
	Log          *slog.Logger

	// MaxKeywords caps keywords derived from the page. Zero means 10.
	MaxKeywords int
}

// Research produces the discovery state for one URL. Scrape failures and
// empty pages return an empty state carrying the error; cache failures
// only log. Research itself never fails.
func (s *Service) Research(ctx context.Context, rawURL string) types.ResearchState {
	pageURL := scrape.WithScheme(strings.TrimSpace(rawURL))

	if s.Cache != nil {
		bundle, err := s.Cache.Get(ctx, pageURL)
		if err != nil {
			s.logger().Debug("cache lookup failed", "url", pageURL, "error", err)
		} else if bundle != nil {
			s.logger().Info("cache hit", "url", pageURL)
			return stateFromBundle(pageURL, bundle)
		}
	}

	page, err := s.Scraper.Scrape(ctx, pageURL)
	if err != nil {
		return emptyState(fmt.Sprintf("Error scraping URL: %v", err))
	}
	if strings.TrimSpace(page.FullText) == "" {
		return emptyState("No content extracted from URL")
	}

	kws := s.extractKeywords(ctx, page)

	state := s.Orchestrator.Run(ctx, types.ResearchState{
		UserQuery:         fmt.Sprintf("Research for URL: %s", pageURL),
		Intent:            types.IntentAll,
		LabURL:            pageURL,
		LabProfile:        map[string]any{"keywords": kws},
		ExtractedKeywords: kws,
	})

	if s.Cache != nil {
		err := s.Cache.Put(ctx, cache.Bundle{
			URL:      pageURL,
			Keywords: kws,
			Grants:   state.Grants,
			Papers:   state.Papers,
			News:     state.News,
		})
		if err != nil {
			s.logger().Warn("cache save failed", "url", pageURL, "error", err)
		}
	}

	return state
}

// extractKeywords derives up to MaxKeywords keywords from the page,
// falling back to title and heading words when extraction yields nothing.
func (s *Service) extractKeywords(ctx context.Context, page *scrape.PageContent) []string {
	topK := s.MaxKeywords
	if topK <= 0 {
		topK = defaultMaxKeywords
	}

	extractor := s.Keywords
	if extractor == nil {
		extractor = keywords.Heuristic{}
	}

	chunks := page.Chunks
	if len(chunks) == 0 && page.FullText != "" {
		chunks = []string{page.FullText}
	}

	kws, err := extractor.Extract(ctx, chunks, topK)
	if err != nil {
		s.logger().Warn("keyword extraction failed", "url", page.URL, "error", err)
	}
	if len(kws) == 0 {
		kws = fallbackKeywords(page, topK)
	}
	return kws
}

func (s *Service) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// stateFromBundle rebuilds the response state from a cached bundle and
// re-ranks the merged inbox.
func stateFromBundle(pageURL string, b *cache.Bundle) types.ResearchState {
	merged := make([]types.Card, 0, len(b.Grants)+len(b.Papers)+len(b.News))
	merged = append(merged, b.Grants...)
	merged = append(merged, b.Papers...)
	merged = append(merged, b.News...)

	state := types.ResearchState{
		UserQuery:         fmt.Sprintf("Research for URL: %s", pageURL),
		Intent:            types.IntentAll,
		LabURL:            pageURL,
		LabProfile:        map[string]any{"keywords": b.Keywords},
		ExtractedKeywords: b.Keywords,
		Grants:            b.Grants,
		Papers:            b.Papers,
		News:              b.News,
		InboxCards:        rank.Cards(merged),
	}
	return state.EnsureLists()
}

func emptyState(errs ...string) types.ResearchState {
	return types.ResearchState{Intent: types.IntentAll, Errors: errs}.EnsureLists()
}

var (
	capitalizedRe = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*\b`)
	longWordRe    = regexp.MustCompile(`\b[a-z]{5,}\b`)
)

// fallbackKeywords derives keywords from the title and headings:
// capitalized phrases first, then longer lowercase words to fill the list
// when fewer than five phrases were found.
func fallbackKeywords(page *scrape.PageContent, max int) []string {
	text := page.Title + " " + page.Headings

	var kws []string
	seen := make(map[string]bool)
	add := func(w string) {
		if w == "" || seen[w] || len(kws) >= max {
			return
		}
		seen[w] = true
		kws = append(kws, w)
	}

	for _, m := range capitalizedRe.FindAllString(text, -1) {
		add(m)
	}
	if len(kws) < 5 {
		for _, m := range longWordRe.FindAllString(strings.ToLower(text), -1) {
			add(m)
		}
	}
	return kws
}
