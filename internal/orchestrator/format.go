// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package orchestrator

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/avelasko/research-inbox/pkg/types"
)

// Response is the serialized result shape shared by the CLI JSON output
// and the HTTP API: the full pipeline state plus result counts.
type Response struct {
	types.ResearchState
	Summary types.Summary `json:"summary"`
}

// NewResponse normalizes a finished state's lists and attaches counts.
func NewResponse(state types.ResearchState) Response {
	state = state.EnsureLists()
	return Response{ResearchState: state, Summary: state.Summarize()}
}

// FormatTable writes the ranked inbox as a human-readable table to w.
// Errors are reported as trailing warnings so partial results stay visible.
func FormatTable(state types.ResearchState, w io.Writer) {
	if len(state.InboxCards) == 0 {
		fmt.Fprintln(w, "No cards found.")
	} else {
		fmt.Fprintf(w, "%-4s  %-6s  %-55s  %-24s  %-6s  %s\n",
			"Rank", "Type", "Title", "Detail", "Score", "Badge")
		fmt.Fprintln(w, strings.Repeat("-", 110))

		for i, c := range state.InboxCards {
			fmt.Fprintf(w, "%-4d  %-6s  %-55s  %-24s  %-6.2f  %s\n",
				i+1, c.Type, truncate(c.Title, 55), truncate(cardDetail(c), 24), c.Score, c.Badge)
		}

		s := state.Summarize()
		fmt.Fprintf(w, "\n%d cards (%d grants, %d papers, %d news)\n",
			s.TotalCards, s.TotalGrants, s.TotalPapers, s.TotalNews)
	}

	for _, e := range state.Errors {
		fmt.Fprintf(w, "warning: %s\n", e)
	}
}

// FormatJSON writes the response envelope as indented JSON to w.
func FormatJSON(state types.ResearchState, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(NewResponse(state))
}

// cardDetail picks the column most useful for a card's type: sponsor for
// grants, lead author for papers, outlet for news.
func cardDetail(c types.Card) string {
	switch c.Type {
	case types.CardGrant:
		return c.Meta.Sponsor
	case types.CardPaper:
		return formatAuthors(c.Meta.Authors)
	case types.CardNews:
		return c.Meta.Outlet
	}
	return ""
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 24)
	default:
		return truncate(authors[0], 18) + " et al."
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
