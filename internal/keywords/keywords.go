// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package keywords extracts search keywords from free text. Two extractors
// share one interface: a frequency heuristic and a Claude-backed extractor
// that degrades to the heuristic when the API is unavailable.
package keywords

import (
	"context"
	"regexp"
	"sort"
	"strings"
)

// Extractor produces up to topK search keywords from text chunks.
type Extractor interface {
	Extract(ctx context.Context, chunks []string, topK int) ([]string, error)
}

// DefaultTopK is the keyword count used when callers pass zero.
const DefaultTopK = 5

// wordRe matches lowercase word tokens of three or more letters.
var wordRe = regexp.MustCompile(`\b[a-z]{3,}\b`)

// stopWords are excluded from frequency ranking.
var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "as": true, "is": true,
	"was": true, "are": true, "were": true, "be": true, "been": true,
	"have": true, "has": true, "had": true, "do": true, "does": true,
	"did": true, "will": true, "would": true, "should": true, "could": true,
	"may": true, "might": true, "must": true, "can": true, "this": true,
	"that": true, "these": true, "those": true, "i": true, "you": true,
	"he": true, "she": true, "it": true, "we": true, "they": true,
	"what": true, "which": true, "who": true, "when": true, "where": true,
	"why": true, "how": true, "all": true, "each": true, "every": true,
	"both": true, "few": true, "more": true, "most": true, "other": true,
	"some": true, "such": true, "no": true, "nor": true, "not": true,
	"only": true, "own": true, "same": true, "so": true, "than": true,
	"too": true, "very": true, "just": true, "now": true,
}

// Heuristic ranks word tokens by frequency. Ties keep first-appearance
// order, so the ranking is deterministic for a given input.
type Heuristic struct{}

// Extract returns the topK most frequent non-stopword tokens longer than
// three characters.
func (Heuristic) Extract(_ context.Context, chunks []string, topK int) ([]string, error) {
	valid := validChunks(chunks)
	if len(valid) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	combined := strings.ToLower(strings.Join(valid, " "))
	words := wordRe.FindAllString(combined, -1)

	counts := make(map[string]int)
	var order []string
	for _, w := range words {
		if stopWords[w] || len(w) <= 3 {
			continue
		}
		if counts[w] == 0 {
			order = append(order, w)
		}
		counts[w]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return counts[order[i]] > counts[order[j]]
	})

	if len(order) > topK {
		order = order[:topK]
	}
	return order, nil
}

// validChunks trims chunks and drops empty ones.
func validChunks(chunks []string) []string {
	var valid []string
	for _, c := range chunks {
		c = strings.TrimSpace(c)
		if c != "" {
			valid = append(valid, c)
		}
	}
	return valid
}
