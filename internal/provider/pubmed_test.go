// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package provider

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/avelasko/research-inbox/pkg/types"
)

// pubmedServers stands up esearch and esummary test servers and rewires the
// package base URLs for the duration of a test.
func pubmedServers(t *testing.T, searchBody, summaryBody string) (search, summary *httptest.Server) {
	t.Helper()

	search = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchBody)
	}))
	summary = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, summaryBody)
	}))

	oldSearch, oldSummary := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase = search.URL
	pubmedSummaryBase = summary.URL
	t.Cleanup(func() {
		pubmedSearchBase = oldSearch
		pubmedSummaryBase = oldSummary
		search.Close()
		summary.Close()
	})
	return search, summary
}

// --- Two-step flow and card mapping ---

func TestPubMedCardMapping(t *testing.T) {
	searchBody := `{"esearchresult":{"count":"2","idlist":["11111","22222"]}}`
	summaryBody := `{"result":{
		"uids":["11111","22222"],
		"11111":{"title":"Deep Learning in Radiology","pubdate":"2026 Jan 15","source":"Radiology","authors":[{"name":"Smith J","authtype":"Author"},{"name":"Chen L","authtype":"Author"}]},
		"22222":{"title":"Genomic Markers of Aging","pubdate":"2025 Dec","source":"Nature","authors":[{"name":"Okafor A","authtype":"Author"}]}
	}}`
	pubmedServers(t, searchBody, summaryBody)

	p := &PubMed{Client: http.DefaultClient, Config: testProviderCfg()}
	cards, err := p.Fetch(context.Background(), "deep learning radiology")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("len(cards) = %d, want 2", len(cards))
	}

	first := cards[0]
	if first.Type != types.CardPaper {
		t.Errorf("Type = %q, want paper", first.Type)
	}
	if first.Title != "Deep Learning in Radiology" {
		t.Errorf("Title = %q", first.Title)
	}
	if len(first.Meta.Authors) != 2 || first.Meta.Authors[0] != "Smith J" {
		t.Errorf("Authors = %v", first.Meta.Authors)
	}
	if first.Meta.PublishedDate != "2026 Jan 15" {
		t.Errorf("PublishedDate = %q", first.Meta.PublishedDate)
	}
	if first.Meta.URL != "https://pubmed.ncbi.nlm.nih.gov/11111/" {
		t.Errorf("URL = %q", first.Meta.URL)
	}
	if first.Meta.Source != "pubmed" {
		t.Errorf("Source = %q", first.Meta.Source)
	}

	want := types.MakeCardID(types.CardPaper, "Deep Learning in Radiology", "2026 Jan 15", "Smith J,Chen L")
	if first.ID != want {
		t.Errorf("ID = %q, want %q", first.ID, want)
	}
}

func TestPubMedPositionScoringFollowsSearchOrder(t *testing.T) {
	searchBody := `{"esearchresult":{"count":"3","idlist":["1","2","3"]}}`
	summaryBody := `{"result":{
		"uids":["1","2","3"],
		"1":{"title":"First","pubdate":"2020","authors":[]},
		"2":{"title":"Second","pubdate":"2020","authors":[]},
		"3":{"title":"Third","pubdate":"2020","authors":[]}
	}}`
	pubmedServers(t, searchBody, summaryBody)

	p := &PubMed{Client: http.DefaultClient, Config: testProviderCfg()}
	cards, err := p.Fetch(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(cards) != 3 {
		t.Fatalf("len(cards) = %d, want 3", len(cards))
	}
	if cards[0].Title != "First" || cards[2].Title != "Third" {
		t.Errorf("order = %q,%q,%q", cards[0].Title, cards[1].Title, cards[2].Title)
	}
	if math.Abs(cards[0].Score-1.0) > 0.001 {
		t.Errorf("cards[0].Score = %f, want 1.0", cards[0].Score)
	}
	if math.Abs(cards[2].Score-0.1) > 0.001 {
		t.Errorf("cards[2].Score = %f, want 0.1", cards[2].Score)
	}
}

func TestPubMedSkipsUntitledDocs(t *testing.T) {
	searchBody := `{"esearchresult":{"count":"2","idlist":["1","2"]}}`
	summaryBody := `{"result":{
		"uids":["1","2"],
		"1":{"title":"","pubdate":"2020","authors":[]},
		"2":{"title":"Kept","pubdate":"2020","authors":[]}
	}}`
	pubmedServers(t, searchBody, summaryBody)

	p := &PubMed{Client: http.DefaultClient, Config: testProviderCfg()}
	cards, err := p.Fetch(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(cards) != 1 || cards[0].Title != "Kept" {
		t.Errorf("cards = %+v, want only Kept", cards)
	}
}

// --- No results short-circuit ---

func TestPubMedNoResultsSkipsSummary(t *testing.T) {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"esearchresult":{"count":"0","idlist":[]}}`)
	}))
	defer search.Close()

	summaryCalled := false
	summary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		summaryCalled = true
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":{}}`)
	}))
	defer summary.Close()

	oldSearch, oldSummary := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase = search.URL
	pubmedSummaryBase = summary.URL
	defer func() {
		pubmedSearchBase = oldSearch
		pubmedSummaryBase = oldSummary
	}()

	p := &PubMed{Client: http.DefaultClient, Config: testProviderCfg()}
	cards, err := p.Fetch(context.Background(), "obscure topic xyz")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(cards) != 0 {
		t.Errorf("len(cards) = %d, want 0", len(cards))
	}
	if summaryCalled {
		t.Error("esummary called despite empty id list")
	}
}

// --- Request construction ---

func TestPubMedSearchParams(t *testing.T) {
	var captured *http.Request
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"esearchresult":{"count":"0","idlist":[]}}`)
	}))
	defer search.Close()

	old := pubmedSearchBase
	pubmedSearchBase = search.URL
	defer func() { pubmedSearchBase = old }()

	cfg := testProviderCfg()
	cfg.MaxResults = 60

	p := &PubMed{Client: http.DefaultClient, Config: cfg}
	if _, err := p.Fetch(context.Background(), "crispr"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	q := captured.URL.Query()
	if got := q.Get("db"); got != "pubmed" {
		t.Errorf("db param = %q, want pubmed", got)
	}
	if got := q.Get("term"); got != "crispr" {
		t.Errorf("term param = %q, want crispr", got)
	}
	if got := q.Get("retmode"); got != "json" {
		t.Errorf("retmode param = %q, want json", got)
	}
	if got := q.Get("retmax"); got != "60" {
		t.Errorf("retmax param = %q, want 60", got)
	}
}

func TestPubMedSummaryJoinsIDs(t *testing.T) {
	var captured *http.Request
	searchBody := `{"esearchresult":{"count":"2","idlist":["111","222"]}}`
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchBody)
	}))
	defer search.Close()
	summary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"result":{"uids":[]}}`)
	}))
	defer summary.Close()

	oldSearch, oldSummary := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase = search.URL
	pubmedSummaryBase = summary.URL
	defer func() {
		pubmedSearchBase = oldSearch
		pubmedSummaryBase = oldSummary
	}()

	p := &PubMed{Client: http.DefaultClient, Config: testProviderCfg()}
	if _, err := p.Fetch(context.Background(), "anything"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if got := captured.URL.Query().Get("id"); got != "111,222" {
		t.Errorf("id param = %q, want %q", got, "111,222")
	}
}

// --- Error cases ---

func TestPubMedSearchHTTPError(t *testing.T) {
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer search.Close()

	old := pubmedSearchBase
	pubmedSearchBase = search.URL
	defer func() { pubmedSearchBase = old }()

	p := &PubMed{Client: http.DefaultClient, Config: testProviderCfg()}
	_, err := p.Fetch(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "esearch") {
		t.Errorf("error = %q, want esearch context", err.Error())
	}
}

func TestPubMedSummaryHTTPError(t *testing.T) {
	searchBody := `{"esearchresult":{"count":"1","idlist":["111"]}}`
	search := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, searchBody)
	}))
	defer search.Close()
	summary := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer summary.Close()

	oldSearch, oldSummary := pubmedSearchBase, pubmedSummaryBase
	pubmedSearchBase = search.URL
	pubmedSummaryBase = summary.URL
	defer func() {
		pubmedSearchBase = oldSearch
		pubmedSummaryBase = oldSummary
	}()

	p := &PubMed{Client: http.DefaultClient, Config: testProviderCfg()}
	_, err := p.Fetch(context.Background(), "anything")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "esummary") {
		t.Errorf("error = %q, want esummary context", err.Error())
	}
}

func TestPubMedEmptyQuery(t *testing.T) {
	p := &PubMed{Client: http.DefaultClient, Config: testProviderCfg()}
	_, err := p.Fetch(context.Background(), "")
	if err == nil {
		t.Fatal("expected error for empty query")
	}
	if !strings.Contains(err.Error(), "empty") {
		t.Errorf("error = %q, want substring 'empty'", err.Error())
	}
}
