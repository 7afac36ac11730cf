// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avelasko/research-inbox/internal/corpus"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [topics...]",
	Short: "Fetch cards for topics into the local corpus",
	Long: `Ingest queries the live providers for each topic and stores the
resulting cards in the local SQLite corpus. Cards are embedded for
similarity re-ranking when an embeddings key is configured. The corpus
is exported to YAML after a successful run.`,
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("sources", "", "comma-separated sources to ingest: grants, papers, news (default all)")

	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("provide one or more topics to ingest")
	}

	cfg := buildConfig()

	store, err := openCorpus(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sources := ingestSources(cfg)
	if filter, _ := cmd.Flags().GetString("sources"); filter != "" {
		sources, err = filterSources(sources, filter)
		if err != nil {
			return err
		}
	}

	summary, err := store.Ingest(context.Background(), args, sources, os.Stdout)
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return fmt.Errorf("%d fetch(es) failed during ingest", summary.Failed)
	}
	return nil
}

func filterSources(all map[string]corpus.Source, filter string) (map[string]corpus.Source, error) {
	picked := make(map[string]corpus.Source)
	for _, name := range strings.Split(filter, ",") {
		name = strings.TrimSpace(name)
		src, ok := all[name]
		if !ok {
			return nil, fmt.Errorf("unknown source %q: use grants, papers, or news", name)
		}
		picked[name] = src
	}
	return picked, nil
}
