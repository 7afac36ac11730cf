// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package orchestrator runs the research pipeline that turns a query or
// scraped lab text into a ranked inbox of grant, paper, and news cards.
//
// The pipeline is a fixed sequence of state transforms: validate, route,
// merge, rank. Provider failures never escape a stage; they degrade to
// entries in the state's error list and the pipeline always reaches the
// terminal rank stage.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/avelasko/research-inbox/internal/keywords"
	"github.com/avelasko/research-inbox/internal/rank"
	"github.com/avelasko/research-inbox/pkg/types"
)

// Provider fetches discovery cards for one category.
type Provider interface {
	Fetch(ctx context.Context, query string) ([]types.Card, error)
}

// KeywordExtractor produces search keywords from text chunks.
type KeywordExtractor interface {
	Extract(ctx context.Context, chunks []string, topK int) ([]string, error)
}

// Category names as they appear in provider error messages.
const (
	categoryGrants = "grants"
	categoryPapers = "papers"
	categoryNews   = "news"
)

// Orchestrator wires the three category providers and the keyword
// extractor into one pipeline. Zero-value fields are tolerated: a nil
// provider records an error for its category, a nil extractor falls back
// to the frequency heuristic.
type Orchestrator struct {
	Grants   Provider
	Papers   Provider
	News     Provider
	Keywords KeywordExtractor
	// TopK caps keyword extraction from text chunks. Zero means 5.
	TopK int
}

// Run executes the pipeline for one request. The returned state carries
// results, ranked inbox cards, and any errors; Run itself never fails.
func (o *Orchestrator) Run(ctx context.Context, state types.ResearchState) types.ResearchState {
	state = o.validate(ctx, state)
	state = o.route(ctx, state)
	state = merge(state)
	state.InboxCards = rank.Cards(state.InboxCards)
	return state.EnsureLists()
}

// validate normalizes the intent and resolves the effective query. Text
// chunks trigger keyword extraction; an empty query with no chunks is
// recorded as an error and the pipeline proceeds with intent all.
func (o *Orchestrator) validate(ctx context.Context, state types.ResearchState) types.ResearchState {
	state.Intent = types.NormalizeIntent(string(state.Intent))

	if len(state.TextChunks) == 0 && strings.TrimSpace(state.UserQuery) == "" {
		state.Errors = appendErrors(state.Errors, "user_query cannot be empty if text_chunks are not provided")
		state.Intent = types.IntentAll
		return state
	}

	if len(state.TextChunks) > 0 {
		extractor := o.Keywords
		if extractor == nil {
			extractor = keywords.Heuristic{}
		}
		topK := o.TopK
		if topK <= 0 {
			topK = keywords.DefaultTopK
		}

		kws, err := extractor.Extract(ctx, state.TextChunks, topK)
		if err != nil {
			state.Errors = appendErrors(state.Errors, fmt.Sprintf("Keyword extraction failed: %v", err))
			return state
		}
		state.ExtractedKeywords = kws
		if strings.TrimSpace(state.UserQuery) == "" && len(kws) > 0 {
			state.UserQuery = kws[0]
		}
	}
	return state
}

// route invokes the providers selected by the intent. Intent all runs
// grants, then papers, then news; each category writes only its own key.
func (o *Orchestrator) route(ctx context.Context, state types.ResearchState) types.ResearchState {
	switch state.Intent {
	case types.IntentGrants:
		return o.runCategory(ctx, state, categoryGrants, o.Grants)
	case types.IntentPapers:
		return o.runCategory(ctx, state, categoryPapers, o.Papers)
	case types.IntentNews:
		return o.runCategory(ctx, state, categoryNews, o.News)
	default:
		state = o.runCategory(ctx, state, categoryGrants, o.Grants)
		state = o.runCategory(ctx, state, categoryPapers, o.Papers)
		return o.runCategory(ctx, state, categoryNews, o.News)
	}
}

// runCategory invokes one provider, fanning out per extracted keyword when
// keywords exist. Failures append an error naming the category and leave
// sibling results untouched.
func (o *Orchestrator) runCategory(ctx context.Context, state types.ResearchState, name string, p Provider) types.ResearchState {
	if p == nil {
		state.Errors = appendErrors(state.Errors, fmt.Sprintf("%s provider error: no provider configured", name))
		return state
	}

	if len(state.ExtractedKeywords) > 0 {
		return o.fanOut(ctx, state, name, p)
	}

	cards, err := p.Fetch(ctx, state.UserQuery)
	if err != nil {
		state.Errors = appendErrors(state.Errors, fmt.Sprintf("%s provider error: %v", name, err))
		return state
	}
	return setCategoryCards(state, name, cards)
}

// fanOut invokes the provider once per keyword, concatenates the results,
// and deduplicates by card id keeping the first occurrence. A failing
// keyword contributes an error and zero cards without aborting the rest.
func (o *Orchestrator) fanOut(ctx context.Context, state types.ResearchState, name string, p Provider) types.ResearchState {
	accumulated := appendErrors(state.Errors)
	var all []types.Card

	for _, kw := range state.ExtractedKeywords {
		cards, err := p.Fetch(ctx, kw)
		if err != nil {
			accumulated = append(accumulated, fmt.Sprintf("%s provider error for keyword %q: %v", name, kw, err))
			continue
		}
		all = append(all, cards...)
	}

	state = setCategoryCards(state, name, dedupeByID(all))
	state.Errors = accumulated
	return state
}

// merge concatenates the three category lists into the inbox in grants,
// papers, news order.
func merge(state types.ResearchState) types.ResearchState {
	cards := make([]types.Card, 0, len(state.Grants)+len(state.Papers)+len(state.News))
	cards = append(cards, state.Grants...)
	cards = append(cards, state.Papers...)
	cards = append(cards, state.News...)
	state.InboxCards = cards
	return state
}

// setCategoryCards writes cards to the list the category owns.
func setCategoryCards(state types.ResearchState, name string, cards []types.Card) types.ResearchState {
	switch name {
	case categoryGrants:
		state.Grants = cards
	case categoryPapers:
		state.Papers = cards
	case categoryNews:
		state.News = cards
	}
	return state
}

// dedupeByID drops cards whose id already appeared, preserving first
// occurrence order.
func dedupeByID(cards []types.Card) []types.Card {
	seen := make(map[string]bool, len(cards))
	var unique []types.Card
	for _, c := range cards {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		unique = append(unique, c)
	}
	return unique
}

// appendErrors copies the error list before appending so states derived
// from one another never share a backing array.
func appendErrors(errs []string, msgs ...string) []string {
	out := make([]string, 0, len(errs)+len(msgs))
	out = append(out, errs...)
	out = append(out, msgs...)
	return out
}
