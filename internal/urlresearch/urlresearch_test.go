// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package urlresearch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/avelasko/research-inbox/internal/cache"
	"github.com/avelasko/research-inbox/internal/scrape"
	"github.com/avelasko/research-inbox/pkg/types"
)

// --- mocks ---

type mockScraper struct {
	page  *scrape.PageContent
	err   error
	calls []string
}

func (m *mockScraper) Scrape(_ context.Context, rawURL string) (*scrape.PageContent, error) {
	m.calls = append(m.calls, rawURL)
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

type mockExtractor struct {
	keywords []string
	err      error
	chunks   [][]string
	topK     int
}

func (m *mockExtractor) Extract(_ context.Context, chunks []string, topK int) ([]string, error) {
	m.chunks = append(m.chunks, chunks)
	m.topK = topK
	if m.err != nil {
		return nil, m.err
	}
	return m.keywords, nil
}

type mockRunner struct {
	got    []types.ResearchState
	result func(types.ResearchState) types.ResearchState
}

func (m *mockRunner) Run(_ context.Context, state types.ResearchState) types.ResearchState {
	m.got = append(m.got, state)
	if m.result != nil {
		return m.result(state)
	}
	return state.EnsureLists()
}

type mockCache struct {
	bundle *cache.Bundle
	getErr error
	putErr error
	gets   []string
	puts   []cache.Bundle
}

func (m *mockCache) Get(_ context.Context, rawURL string) (*cache.Bundle, error) {
	m.gets = append(m.gets, rawURL)
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.bundle, nil
}

func (m *mockCache) Put(_ context.Context, b cache.Bundle) error {
	m.puts = append(m.puts, b)
	return m.putErr
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func labPage() *scrape.PageContent {
	return &scrape.PageContent{
		URL:      "https://lab.example.edu",
		Title:    "Quantum Materials Lab",
		Headings: "Research Topics in superconductivity",
		FullText: "Quantum Materials Lab studies topological superconductors.",
		Chunks:   []string{"Quantum Materials Lab studies topological superconductors."},
	}
}

func grantCard(title string, score float64) types.Card {
	return types.NewGrantCard(types.GrantFields{Title: title, Score: score, Sponsor: "NSF", CloseDate: "2026-10-01"})
}

func paperCard(title string, score float64) types.Card {
	return types.NewPaperCard(types.PaperFields{Title: title, Score: score, Authors: []string{"Smith J"}, PublishedDate: "2026 Jan 15"})
}

func newsCard(title string, score float64) types.Card {
	return types.NewNewsCard(types.NewsFields{Title: title, Score: score, Outlet: "Reuters"})
}

// --- Research ---

func TestResearchCacheHitSkipsScrapeAndProviders(t *testing.T) {
	bundle := &cache.Bundle{
		URL:      "https://lab.example.edu",
		Keywords: []string{"quantum materials", "superconductors"},
		Grants:   []types.Card{grantCard("Quantum Grant", 0.5)},
		Papers:   []types.Card{paperCard("Quantum Paper", 0.9)},
		News:     []types.Card{newsCard("Quantum News", 0.7)},
	}
	scraper := &mockScraper{err: errors.New("must not be called")}
	runner := &mockRunner{}
	svc := &Service{
		Scraper:      scraper,
		Orchestrator: runner,
		Cache:        &mockCache{bundle: bundle},
		Log:          quietLogger(),
	}

	state := svc.Research(context.Background(), "https://lab.example.edu")

	if len(scraper.calls) != 0 {
		t.Errorf("scraper called %d times on a cache hit", len(scraper.calls))
	}
	if len(runner.got) != 0 {
		t.Errorf("pipeline ran %d times on a cache hit", len(runner.got))
	}
	if state.UserQuery != "Research for URL: https://lab.example.edu" {
		t.Errorf("UserQuery = %q", state.UserQuery)
	}
	if state.Intent != types.IntentAll {
		t.Errorf("Intent = %q, want %q", state.Intent, types.IntentAll)
	}
	if state.LabURL != "https://lab.example.edu" {
		t.Errorf("LabURL = %q", state.LabURL)
	}
	if !reflect.DeepEqual(state.ExtractedKeywords, bundle.Keywords) {
		t.Errorf("ExtractedKeywords = %v, want %v", state.ExtractedKeywords, bundle.Keywords)
	}
	kws, ok := state.LabProfile["keywords"].([]string)
	if !ok || !reflect.DeepEqual(kws, bundle.Keywords) {
		t.Errorf("LabProfile keywords = %v, want %v", state.LabProfile["keywords"], bundle.Keywords)
	}
	if len(state.Grants) != 1 || len(state.Papers) != 1 || len(state.News) != 1 {
		t.Fatalf("category sizes = %d/%d/%d, want 1/1/1", len(state.Grants), len(state.Papers), len(state.News))
	}
	wantOrder := []string{"Quantum Paper", "Quantum News", "Quantum Grant"}
	if len(state.InboxCards) != len(wantOrder) {
		t.Fatalf("len(InboxCards) = %d, want %d", len(state.InboxCards), len(wantOrder))
	}
	for i, want := range wantOrder {
		if state.InboxCards[i].Title != want {
			t.Errorf("InboxCards[%d] = %q, want %q", i, state.InboxCards[i].Title, want)
		}
	}
}

func TestResearchCacheMissRunsPipelineAndSaves(t *testing.T) {
	grants := []types.Card{grantCard("Fresh Grant", 0.8)}
	papers := []types.Card{paperCard("Fresh Paper", 0.6)}
	store := &mockCache{}
	extractor := &mockExtractor{keywords: []string{"quantum computing", "superconductors"}}
	runner := &mockRunner{result: func(state types.ResearchState) types.ResearchState {
		state.Grants = grants
		state.Papers = papers
		return state.EnsureLists()
	}}
	svc := &Service{
		Scraper:      &mockScraper{page: labPage()},
		Keywords:     extractor,
		Orchestrator: runner,
		Cache:        store,
		Log:          quietLogger(),
	}

	state := svc.Research(context.Background(), "https://lab.example.edu")

	if len(runner.got) != 1 {
		t.Fatalf("pipeline ran %d times, want 1", len(runner.got))
	}
	in := runner.got[0]
	if in.UserQuery != "Research for URL: https://lab.example.edu" {
		t.Errorf("pipeline UserQuery = %q", in.UserQuery)
	}
	if in.Intent != types.IntentAll {
		t.Errorf("pipeline Intent = %q, want %q", in.Intent, types.IntentAll)
	}
	if in.LabURL != "https://lab.example.edu" {
		t.Errorf("pipeline LabURL = %q", in.LabURL)
	}
	if !reflect.DeepEqual(in.ExtractedKeywords, extractor.keywords) {
		t.Errorf("pipeline keywords = %v, want %v", in.ExtractedKeywords, extractor.keywords)
	}
	if extractor.topK != defaultMaxKeywords {
		t.Errorf("extractor topK = %d, want %d", extractor.topK, defaultMaxKeywords)
	}

	if len(store.puts) != 1 {
		t.Fatalf("cache.Put called %d times, want 1", len(store.puts))
	}
	saved := store.puts[0]
	if saved.URL != "https://lab.example.edu" {
		t.Errorf("saved URL = %q", saved.URL)
	}
	if !reflect.DeepEqual(saved.Keywords, extractor.keywords) {
		t.Errorf("saved keywords = %v", saved.Keywords)
	}
	if len(saved.Grants) != 1 || saved.Grants[0].Title != "Fresh Grant" {
		t.Errorf("saved grants = %+v", saved.Grants)
	}
	if len(saved.Papers) != 1 {
		t.Errorf("saved papers = %+v", saved.Papers)
	}

	if len(state.Grants) != 1 || len(state.Papers) != 1 {
		t.Errorf("state categories = %d/%d, want 1/1", len(state.Grants), len(state.Papers))
	}
}

func TestResearchPrependsSchemeAndTrims(t *testing.T) {
	store := &mockCache{}
	runner := &mockRunner{}
	svc := &Service{
		Scraper:      &mockScraper{page: labPage()},
		Keywords:     &mockExtractor{keywords: []string{"quantum"}},
		Orchestrator: runner,
		Cache:        store,
		Log:          quietLogger(),
	}

	svc.Research(context.Background(), "  lab.example.edu/research ")

	want := "https://lab.example.edu/research"
	if len(store.gets) != 1 || store.gets[0] != want {
		t.Errorf("cache lookup URL = %v, want %q", store.gets, want)
	}
	if len(runner.got) != 1 || runner.got[0].LabURL != want {
		t.Fatalf("pipeline LabURL = %v, want %q", runner.got, want)
	}
}

func TestResearchScrapeErrorReturnsEmptyState(t *testing.T) {
	runner := &mockRunner{}
	svc := &Service{
		Scraper:      &mockScraper{err: errors.New("connect timeout")},
		Orchestrator: runner,
		Log:          quietLogger(),
	}

	state := svc.Research(context.Background(), "https://lab.example.edu")

	if len(runner.got) != 0 {
		t.Errorf("pipeline ran on a scrape failure")
	}
	if len(state.Errors) != 1 || state.Errors[0] != "Error scraping URL: connect timeout" {
		t.Errorf("Errors = %v", state.Errors)
	}
	if state.UserQuery != "" {
		t.Errorf("UserQuery = %q, want empty", state.UserQuery)
	}
	if state.Intent != types.IntentAll {
		t.Errorf("Intent = %q, want %q", state.Intent, types.IntentAll)
	}
	if state.Grants == nil || state.Papers == nil || state.News == nil || state.InboxCards == nil {
		t.Errorf("category lists not initialized: %+v", state)
	}
	if len(state.InboxCards) != 0 {
		t.Errorf("InboxCards = %+v, want empty", state.InboxCards)
	}
}

func TestResearchEmptyPageReturnsEmptyState(t *testing.T) {
	page := &scrape.PageContent{URL: "https://lab.example.edu", FullText: "   "}
	svc := &Service{
		Scraper:      &mockScraper{page: page},
		Orchestrator: &mockRunner{},
		Log:          quietLogger(),
	}

	state := svc.Research(context.Background(), "https://lab.example.edu")

	if len(state.Errors) != 1 || state.Errors[0] != "No content extracted from URL" {
		t.Errorf("Errors = %v", state.Errors)
	}
}

func TestResearchCacheGetFailureFallsThroughToScrape(t *testing.T) {
	runner := &mockRunner{}
	svc := &Service{
		Scraper:      &mockScraper{page: labPage()},
		Keywords:     &mockExtractor{keywords: []string{"quantum"}},
		Orchestrator: runner,
		Cache:        &mockCache{getErr: errors.New("mongo down")},
		Log:          quietLogger(),
	}

	svc.Research(context.Background(), "https://lab.example.edu")

	if len(runner.got) != 1 {
		t.Errorf("pipeline ran %d times, want 1", len(runner.got))
	}
}

func TestResearchCachePutFailureStillReturnsResults(t *testing.T) {
	runner := &mockRunner{result: func(state types.ResearchState) types.ResearchState {
		state.Grants = []types.Card{grantCard("Fresh Grant", 0.8)}
		return state.EnsureLists()
	}}
	svc := &Service{
		Scraper:      &mockScraper{page: labPage()},
		Keywords:     &mockExtractor{keywords: []string{"quantum"}},
		Orchestrator: runner,
		Cache:        &mockCache{putErr: errors.New("write denied")},
		Log:          quietLogger(),
	}

	state := svc.Research(context.Background(), "https://lab.example.edu")

	if len(state.Grants) != 1 {
		t.Errorf("Grants = %+v, want the pipeline result", state.Grants)
	}
	if len(state.Errors) != 0 {
		t.Errorf("Errors = %v, want none for a cache save failure", state.Errors)
	}
}

func TestResearchWithoutCache(t *testing.T) {
	runner := &mockRunner{}
	svc := &Service{
		Scraper:      &mockScraper{page: labPage()},
		Keywords:     &mockExtractor{keywords: []string{"quantum"}},
		Orchestrator: runner,
		Log:          quietLogger(),
	}

	svc.Research(context.Background(), "https://lab.example.edu")

	if len(runner.got) != 1 {
		t.Errorf("pipeline ran %d times, want 1", len(runner.got))
	}
}

// --- keyword derivation ---

func TestResearchExtractorFailureUsesFallbackKeywords(t *testing.T) {
	runner := &mockRunner{}
	svc := &Service{
		Scraper:      &mockScraper{page: labPage()},
		Keywords:     &mockExtractor{err: errors.New("llm offline")},
		Orchestrator: runner,
		Log:          quietLogger(),
	}

	svc.Research(context.Background(), "https://lab.example.edu")

	if len(runner.got) != 1 {
		t.Fatalf("pipeline ran %d times, want 1", len(runner.got))
	}
	kws := runner.got[0].ExtractedKeywords
	if len(kws) == 0 {
		t.Fatal("no fallback keywords derived")
	}
	if kws[0] != "Quantum Materials Lab Research Topics" {
		t.Errorf("kws[0] = %q, want the capitalized phrase", kws[0])
	}
	joined := strings.Join(kws, " ")
	if !strings.Contains(joined, "superconductivity") {
		t.Errorf("keywords %v missing lowercase fill word", kws)
	}
}

func TestResearchNilExtractorUsesHeuristic(t *testing.T) {
	runner := &mockRunner{}
	svc := &Service{
		Scraper:      &mockScraper{page: labPage()},
		Orchestrator: runner,
		Log:          quietLogger(),
	}

	svc.Research(context.Background(), "https://lab.example.edu")

	if len(runner.got) != 1 {
		t.Fatalf("pipeline ran %d times, want 1", len(runner.got))
	}
	kws := runner.got[0].ExtractedKeywords
	if len(kws) == 0 {
		t.Fatal("heuristic produced no keywords")
	}
	joined := strings.Join(kws, " ")
	if !strings.Contains(joined, "quantum") || !strings.Contains(joined, "superconductors") {
		t.Errorf("keywords = %v, want frequency tokens from the page", kws)
	}
}

func TestResearchExtractorGetsChunks(t *testing.T) {
	extractor := &mockExtractor{keywords: []string{"quantum"}}
	svc := &Service{
		Scraper:      &mockScraper{page: labPage()},
		Keywords:     extractor,
		Orchestrator: &mockRunner{},
		Log:          quietLogger(),
	}

	svc.Research(context.Background(), "https://lab.example.edu")

	if len(extractor.chunks) != 1 || !reflect.DeepEqual(extractor.chunks[0], labPage().Chunks) {
		t.Errorf("extractor chunks = %v, want the page chunks", extractor.chunks)
	}
}

func TestResearchExtractorFallsBackToFullText(t *testing.T) {
	page := &scrape.PageContent{URL: "https://lab.example.edu", Title: "Lab", FullText: "quantum sensing research"}
	extractor := &mockExtractor{keywords: []string{"quantum"}}
	svc := &Service{
		Scraper:      &mockScraper{page: page},
		Keywords:     extractor,
		Orchestrator: &mockRunner{},
		Log:          quietLogger(),
	}

	svc.Research(context.Background(), "https://lab.example.edu")

	want := []string{"quantum sensing research"}
	if len(extractor.chunks) != 1 || !reflect.DeepEqual(extractor.chunks[0], want) {
		t.Errorf("extractor chunks = %v, want %v", extractor.chunks, want)
	}
}

func TestResearchMaxKeywordsOverride(t *testing.T) {
	extractor := &mockExtractor{keywords: []string{"quantum"}}
	svc := &Service{
		Scraper:      &mockScraper{page: labPage()},
		Keywords:     extractor,
		Orchestrator: &mockRunner{},
		MaxKeywords:  3,
		Log:          quietLogger(),
	}

	svc.Research(context.Background(), "https://lab.example.edu")

	if extractor.topK != 3 {
		t.Errorf("extractor topK = %d, want 3", extractor.topK)
	}
}

// --- fallbackKeywords ---

func TestFallbackKeywords(t *testing.T) {
	tests := []struct {
		name     string
		title    string
		headings string
		max      int
		want     []string
	}{
		{
			name:     "phrase then lowercase fill",
			title:    "Quantum Materials Lab",
			headings: "our superconductivity research",
			max:      10,
			want:     []string{"Quantum Materials Lab", "quantum", "materials", "superconductivity", "research"},
		},
		{
			name:     "enough phrases skips lowercase fill",
			title:    "Alpha x Beta x Gamma",
			headings: "x Delta x Epsilon",
			max:      10,
			want:     []string{"Alpha", "Beta", "Gamma", "Delta", "Epsilon"},
		},
		{
			name:     "dedupes repeated phrases",
			title:    "Deep Learning and Deep Learning",
			headings: "",
			max:      10,
			want:     []string{"Deep Learning", "learning"},
		},
		{
			name:     "caps at max",
			title:    "Alpha x Beta x Gamma",
			headings: "",
			max:      2,
			want:     []string{"Alpha", "Beta"},
		},
		{
			name:     "empty page",
			title:    "",
			headings: "",
			max:      10,
			want:     nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &scrape.PageContent{Title: tt.title, Headings: tt.headings}
			got := fallbackKeywords(page, tt.max)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("fallbackKeywords() = %v, want %v", got, tt.want)
			}
		})
	}
}
