// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"log/slog"
	"net/http"

	"github.com/avelasko/research-inbox/internal/ai"
	"github.com/avelasko/research-inbox/internal/cache"
	"github.com/avelasko/research-inbox/internal/corpus"
	"github.com/avelasko/research-inbox/internal/keywords"
	"github.com/avelasko/research-inbox/internal/orchestrator"
	"github.com/avelasko/research-inbox/internal/provider"
	"github.com/avelasko/research-inbox/internal/scrape"
	"github.com/avelasko/research-inbox/internal/urlresearch"
	"github.com/avelasko/research-inbox/pkg/types"
)

// newClaude builds the Claude client from config. Without an API key the
// client reports unconfigured and callers use their deterministic fallbacks.
func newClaude(cfg types.Config) *ai.Claude {
	return &ai.Claude{
		APIKey: cfg.AI.APIKey,
		Model:  cfg.AI.Model,
	}
}

func newEmbedder(cfg types.Config) *ai.Embedder {
	return &ai.Embedder{
		APIKey: cfg.AI.EmbeddingAPIKey,
		Model:  cfg.AI.EmbeddingModel,
	}
}

// openCorpus opens the local card corpus.
func openCorpus(cfg types.Config) (*corpus.Store, error) {
	return corpus.NewStore(cfg.Corpus, newEmbedder(cfg))
}

// newMongoCache returns the URL research cache, or nil when no MongoDB
// URI is configured.
func newMongoCache(cfg types.Config) *cache.Cache {
	if cfg.Cache.URI == "" {
		return nil
	}
	return cache.New(cfg.Cache)
}

// liveFetchers builds the three upstream API adapters. Each gets its own
// rate limiter since they call independent services.
func liveFetchers(cfg types.Config) (*provider.GrantsGov, *provider.PubMed, *provider.NewsAPI) {
	client := &http.Client{Timeout: cfg.Providers.Timeout}

	grants := &provider.GrantsGov{
		Client:  client,
		Limiter: provider.NewLimiter(cfg.Providers.RatePerSecond),
		Config:  cfg.Providers,
	}
	papers := &provider.PubMed{
		Client:  client,
		Limiter: provider.NewLimiter(cfg.Providers.RatePerSecond),
		Config:  cfg.Providers,
	}
	news := &provider.NewsAPI{
		Client:  client,
		Limiter: provider.NewLimiter(cfg.Providers.RatePerSecond),
		Config:  cfg.Providers,
	}
	return grants, papers, news
}

// ingestSources maps category names to live fetchers for corpus ingest.
func ingestSources(cfg types.Config) map[string]corpus.Source {
	grants, papers, news := liveFetchers(cfg)
	return map[string]corpus.Source{
		"grants": grants,
		"papers": papers,
		"news":   news,
	}
}

// newOrchestrator wires the discovery pipeline. When a corpus store is
// given, each category consults it before its live API.
func newOrchestrator(cfg types.Config, store *corpus.Store) *orchestrator.Orchestrator {
	grants, papers, news := liveFetchers(cfg)

	return &orchestrator.Orchestrator{
		Grants:   categoryProvider(store, types.CardGrant, cfg.Corpus.MaxResults, grants),
		Papers:   categoryProvider(store, types.CardPaper, cfg.Corpus.MaxResults, papers),
		News:     categoryProvider(store, types.CardNews, cfg.Corpus.MaxResults, news),
		Keywords: &keywords.Claude{Client: newClaude(cfg)},
		TopK:     cfg.Keywords.TopK,
	}
}

func categoryProvider(store *corpus.Store, cardType types.CardType, limit int, live provider.Fetcher) orchestrator.Provider {
	cf := &provider.CorpusFirst{Type: cardType, Limit: limit, Live: live}
	if store != nil {
		cf.Corpus = store
	}
	return cf
}

// newURLService wires the URL research pipeline.
func newURLService(cfg types.Config, orch *orchestrator.Orchestrator, mongoCache *cache.Cache, log *slog.Logger) *urlresearch.Service {
	svc := &urlresearch.Service{
		Scraper:      &scrape.Scraper{Config: cfg.Scrape},
		Keywords:     &keywords.Claude{Client: newClaude(cfg)},
		Orchestrator: orch,
		Log:          log,
		MaxKeywords:  cfg.Keywords.MaxURLKeywords,
	}
	if mongoCache != nil {
		svc.Cache = mongoCache
	}
	return svc
}
