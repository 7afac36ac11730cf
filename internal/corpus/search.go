// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/avelasko/research-inbox/pkg/types"
)

// rerankFactor widens the FTS candidate set when similarity re-ranking
// will pick the final order.
const rerankFactor = 4

// Search returns up to limit cards matching the query, optionally filtered
// by card type. Candidates come from the FTS index; when an embedder is
// configured they are re-ranked by cosine similarity against the query
// embedding, with the clamped similarity as the card score. Otherwise
// scores are assigned by match position. Zero limit uses the store default.
func (s *Store) Search(ctx context.Context, query string, cardType types.CardType, limit int) ([]types.Card, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("empty corpus query")
	}
	if limit <= 0 {
		limit = s.maxResults
	}

	useEmbeddings := s.embedder != nil && s.embedder.Configured()

	candidates := limit
	if useEmbeddings {
		candidates = limit * rerankFactor
	}

	var (
		qb   strings.Builder
		args []any
	)
	qb.WriteString(
		`SELECT c.id, c.type, c.title, c.score, c.badge, c.meta, c.embedding
		FROM cards_fts
		JOIN cards c ON c.rowid = cards_fts.rowid
		WHERE cards_fts MATCH ?`)
	args = append(args, ftsQuery(query))

	if cardType != "" {
		qb.WriteString(` AND c.type = ?`)
		args = append(args, string(cardType))
	}

	qb.WriteString(` ORDER BY cards_fts.rank LIMIT ?`)
	args = append(args, candidates)

	rows, err := s.db.QueryContext(ctx, qb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("querying corpus: %w", err)
	}
	defer rows.Close()

	cards, err := scanCards(rows)
	if err != nil {
		return nil, err
	}
	if len(cards) == 0 {
		return nil, nil
	}

	if useEmbeddings {
		if reranked, ok := s.rerank(ctx, query, cards); ok {
			cards = reranked
		}
	} else {
		assignPositionScores(cards)
	}

	if len(cards) > limit {
		cards = cards[:limit]
	}
	return cards, nil
}

// rerank orders cards by cosine similarity to the query embedding. A
// failed query embedding falls back to position scoring.
func (s *Store) rerank(ctx context.Context, query string, cards []types.Card) ([]types.Card, bool) {
	qvec, err := s.embedder.Embed(ctx, query)
	if err != nil || len(qvec) == 0 {
		assignPositionScores(cards)
		return cards, false
	}

	for i := range cards {
		cards[i].Score = types.ClampScore(cosine(qvec, cards[i].Embedding))
	}
	sort.SliceStable(cards, func(i, j int) bool {
		return cards[i].Score > cards[j].Score
	})
	return cards, true
}

// assignPositionScores spreads scores from 1.0 down to 0.1 over the match
// order, the same assignment the live providers use.
func assignPositionScores(cards []types.Card) {
	for i := range cards {
		score := 1.0
		if len(cards) > 1 {
			score = 1.0 - float64(i)/float64(len(cards)-1)*0.9
		}
		cards[i].Score = score
	}
}

// cosine returns the cosine similarity of two vectors, or 0 for empty,
// mismatched, or zero-magnitude inputs.
func cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// ftsQuery quotes each token so user text cannot break FTS5 syntax, and
// ORs the tokens for recall over short titles.
func ftsQuery(q string) string {
	fields := strings.Fields(q)
	quoted := make([]string, 0, len(fields))
	for _, f := range fields {
		quoted = append(quoted, `"`+strings.ReplaceAll(f, `"`, `""`)+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// embedText builds the text embedded for a card: the title plus the meta
// fields that carry signal for similarity.
func embedText(c types.Card) string {
	parts := []string{c.Title}
	if c.Meta.Sponsor != "" {
		parts = append(parts, c.Meta.Sponsor)
	}
	if len(c.Meta.Authors) > 0 {
		parts = append(parts, strings.Join(c.Meta.Authors, " "))
	}
	if c.Meta.Outlet != "" {
		parts = append(parts, c.Meta.Outlet)
	}
	return strings.Join(parts, " ")
}
