// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package rank orders discovery cards into the final inbox sequence.
package rank

import (
	"sort"

	"github.com/avelasko/research-inbox/pkg/types"
)

// typePriority breaks score ties between categories. Grants outrank papers,
// papers outrank news.
var typePriority = map[types.CardType]int{
	types.CardGrant: 0,
	types.CardPaper: 1,
	types.CardNews:  2,
}

// Priority reports the tie-break rank for a card type. Unknown types sort
// after the known categories.
func Priority(t types.CardType) int {
	p, ok := typePriority[t]
	if !ok {
		return len(typePriority)
	}
	return p
}

// Cards sorts cards by descending score, then category priority, then title.
// The sort is stable, so cards that tie on all three keys keep their input
// order. The input slice is not modified.
func Cards(cards []types.Card) []types.Card {
	ranked := make([]types.Card, len(cards))
	copy(ranked, cards)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		pi, pj := Priority(ranked[i].Type), Priority(ranked[j].Type)
		if pi != pj {
			return pi < pj
		}
		return ranked[i].Title < ranked[j].Title
	})
	return ranked
}
