// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keywords

import (
	"context"
	"strings"
	"testing"
)

func TestHeuristicRanksByFrequency(t *testing.T) {
	chunks := []string{
		"neural networks learn representations",
		"neural networks generalize when networks train on diverse data",
		"representations matter",
	}

	got, err := Heuristic{}.Extract(context.Background(), chunks, 3)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	// networks x3, neural x2, representations x2.
	want := []string{"networks", "neural", "representations"}
	if len(got) != 3 {
		t.Fatalf("got %v, want 3 keywords", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keywords = %v, want %v", got, want)
			break
		}
	}
}

func TestHeuristicFiltersStopwordsAndShortTokens(t *testing.T) {
	chunks := []string{"the and with from when cell lab gene editing editing"}

	got, err := Heuristic{}.Extract(context.Background(), chunks, 10)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	for _, kw := range got {
		if stopWords[kw] {
			t.Errorf("stopword %q survived filtering", kw)
		}
		if len(kw) <= 3 {
			t.Errorf("short token %q survived filtering", kw)
		}
	}
	if got[0] != "editing" {
		t.Errorf("keywords = %v, want editing ranked first", got)
	}
}

func TestHeuristicTieKeepsFirstAppearance(t *testing.T) {
	chunks := []string{"alpha beta alpha beta gamma"}

	got, err := Heuristic{}.Extract(context.Background(), chunks, 3)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{"alpha", "beta", "gamma"}
	for i := range want {
		if i >= len(got) || got[i] != want[i] {
			t.Fatalf("keywords = %v, want %v", got, want)
		}
	}
}

func TestHeuristicLowercasesInput(t *testing.T) {
	chunks := []string{"CRISPR Gene Editing CRISPR"}

	got, err := Heuristic{}.Extract(context.Background(), chunks, 2)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) == 0 || got[0] != "crispr" {
		t.Errorf("keywords = %v, want crispr first", got)
	}
}

func TestHeuristicEmptyChunks(t *testing.T) {
	tests := []struct {
		name   string
		chunks []string
	}{
		{"nil", nil},
		{"empty strings", []string{"", "  ", "\n"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Heuristic{}.Extract(context.Background(), tt.chunks, 5)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(got) != 0 {
				t.Errorf("keywords = %v, want none", got)
			}
		})
	}
}

func TestHeuristicTopKLimit(t *testing.T) {
	chunks := []string{strings.Repeat("alpha beta gamma delta epsilon zeta ", 3)}

	got, err := Heuristic{}.Extract(context.Background(), chunks, 2)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len(keywords) = %d, want 2", len(got))
	}
}

func TestHeuristicDefaultTopK(t *testing.T) {
	chunks := []string{"alpha beta gamma delta epsilon zeta theta kappa"}

	got, err := Heuristic{}.Extract(context.Background(), chunks, 0)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != DefaultTopK {
		t.Errorf("len(keywords) = %d, want default %d", len(got), DefaultTopK)
	}
}

func TestParseKeywordList(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{
			"comma separated",
			"machine learning, protein folding, gene therapy",
			[]string{"machine learning", "protein folding", "gene therapy"},
		},
		{
			"one per line with numbering",
			"1. machine learning\n2. protein folding\n- gene therapy",
			[]string{"machine learning", "protein folding", "gene therapy"},
		},
		{
			"quoted entries",
			`"machine learning", 'gene therapy'`,
			[]string{"machine learning", "gene therapy"},
		},
		{
			"drops short fragments",
			"ml, ai, computational biology",
			[]string{"computational biology"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseKeywordList(tt.in, 10)
			if len(got) != len(tt.want) {
				t.Fatalf("parseKeywordList = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("parseKeywordList = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestParseKeywordListTopKCap(t *testing.T) {
	got := parseKeywordList("one thing, two thing, three thing, four thing", 2)
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}
}
