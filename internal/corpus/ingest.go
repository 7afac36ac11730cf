// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/avelasko/research-inbox/pkg/types"
)

// Source fetches live cards for one category during ingestion.
type Source interface {
	Fetch(ctx context.Context, query string) ([]types.Card, error)
}

// IngestSummary holds counts from a corpus refresh run.
type IngestSummary struct {
	Stored  int
	Skipped int
	Failed  int
}

// Total returns the number of units processed.
func (s IngestSummary) Total() int {
	return s.Stored + s.Skipped + s.Failed
}

// Ingest fetches cards for every topic from every source and upserts them
// into the corpus. Cards are embedded when an embedder is configured; an
// embedding failure disables embedding for the rest of the run rather than
// failing it. Duplicate card ids within a run count as skipped. A failed
// source fetch counts as one failure and the run continues. On success the
// corpus is re-exported to YAML.
func (s *Store) Ingest(ctx context.Context, topics []string, sources map[string]Source, w io.Writer) (IngestSummary, error) {
	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	var summary IngestSummary
	seen := make(map[string]bool)
	embedOK := s.embedder != nil && s.embedder.Configured()

	for _, topic := range topics {
		for _, name := range names {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			default:
			}

			cards, err := sources[name].Fetch(ctx, topic)
			if err != nil {
				fmt.Fprintf(w, "failed  %s/%s: %v\n", topic, name, err)
				summary.Failed++
				continue
			}

			var fresh []types.Card
			for _, c := range cards {
				if seen[c.ID] {
					summary.Skipped++
					continue
				}
				seen[c.ID] = true

				if embedOK && len(c.Embedding) == 0 {
					vec, err := s.embedder.Embed(ctx, embedText(c))
					if err != nil {
						fmt.Fprintf(w, "warning: embedding disabled: %v\n", err)
						embedOK = false
					} else {
						c.Embedding = vec
					}
				}
				fresh = append(fresh, c)
			}

			if len(fresh) > 0 {
				if err := s.Upsert(ctx, fresh); err != nil {
					fmt.Fprintf(w, "failed  %s/%s: %v\n", topic, name, err)
					summary.Failed++
					continue
				}
			}

			fmt.Fprintf(w, "stored  %s/%s (%d cards)\n", topic, name, len(fresh))
			summary.Stored += len(fresh)
		}
	}

	fmt.Fprintf(w, "\nstored: %d, skipped: %d, failed: %d\n",
		summary.Stored, summary.Skipped, summary.Failed)

	if summary.Stored > 0 {
		if err := s.ExportYAML(ctx); err != nil {
			fmt.Fprintf(w, "warning: export.yaml write failed: %v\n", err)
		}
	}

	return summary, nil
}
