// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package provider adapts external discovery APIs into canonical cards.
// Each adapter queries one upstream source (grants.gov, PubMed, NewsAPI)
// and normalizes its hits through the pkg/types card constructors.
package provider

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/avelasko/research-inbox/pkg/types"
)

// Fetcher fetches discovery cards for a single category.
type Fetcher interface {
	Fetch(ctx context.Context, query string) ([]types.Card, error)
}

// Searcher looks up previously ingested cards, typically the SQLite corpus.
type Searcher interface {
	Search(ctx context.Context, query string, cardType types.CardType, limit int) ([]types.Card, error)
}

// CorpusFirst consults the local corpus before falling back to a live API.
// A corpus error or an empty corpus result falls through to the live
// fetcher, so a cold corpus never hides live results.
type CorpusFirst struct {
	Corpus Searcher
	Type   types.CardType
	Limit  int
	Live   Fetcher
}

// Fetch returns corpus cards when any exist, otherwise live results.
func (p *CorpusFirst) Fetch(ctx context.Context, query string) ([]types.Card, error) {
	if p.Corpus != nil {
		cards, err := p.Corpus.Search(ctx, query, p.Type, p.Limit)
		if err == nil && len(cards) > 0 {
			return cards, nil
		}
		if p.Live == nil {
			return cards, err
		}
	}
	if p.Live == nil {
		return nil, fmt.Errorf("no %s provider configured", p.Type)
	}
	return p.Live.Fetch(ctx, query)
}

// waitLimiter blocks until the limiter grants a slot. A nil limiter
// disables rate limiting.
func waitLimiter(ctx context.Context, l *rate.Limiter) error {
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}

// NewLimiter builds the per-provider rate limiter from a requests-per-second
// setting. Zero or negative disables limiting.
func NewLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(perSecond), 1)
}
