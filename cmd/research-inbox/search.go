// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/avelasko/research-inbox/internal/orchestrator"
	"github.com/avelasko/research-inbox/internal/summary"
	"github.com/avelasko/research-inbox/pkg/types"
)

var searchCmd = &cobra.Command{
	Use:   "search [query...]",
	Short: "Search grants, papers, and news for a research topic",
	Long: `Search runs the discovery pipeline for a query and prints the ranked
inbox. The local corpus is consulted before live APIs. Use --intent to
restrict the search to one category, --query-file to load a saved
request, and --summaries to add per-category digests.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().String("intent", "", "category to search: grants, papers, news, or all")
	searchCmd.Flags().String("query-file", "", "YAML file with a saved request (user_query, intent, text_chunks, lab_profile)")
	searchCmd.Flags().String("save-file", "", "write the request and results to a YAML file for later reloading")
	searchCmd.Flags().Bool("json", false, "output the full result state as JSON")
	searchCmd.Flags().Bool("summaries", false, "add per-category digests to the output")

	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	state, err := searchState(cmd, args)
	if err != nil {
		return err
	}

	cfg := buildConfig()

	store, err := openCorpus(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: corpus disabled: %v\n", err)
	}
	if store != nil {
		defer store.Close()
	}

	result := newOrchestrator(cfg, store).Run(context.Background(), state)

	if path, _ := cmd.Flags().GetString("save-file"); path != "" {
		if err := saveQueryFile(path, result); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Saved search to %s\n", path)
	}

	jsonOut, _ := cmd.Flags().GetBool("json")
	withSummaries, _ := cmd.Flags().GetBool("summaries")

	if !withSummaries {
		if jsonOut {
			return orchestrator.FormatJSON(result, os.Stdout)
		}
		orchestrator.FormatTable(result, os.Stdout)
		return nil
	}

	gen := &summary.Generator{Client: newClaude(cfg), MaxRetries: cfg.AI.MaxRetries}
	digests := gen.All(context.Background(), result)

	if jsonOut {
		out := struct {
			orchestrator.Response
			Digests summary.Summaries `json:"digests"`
		}{orchestrator.NewResponse(result), digests}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	orchestrator.FormatTable(result, os.Stdout)
	fmt.Println()
	fmt.Printf("Grants: %s\n\n", digests.Grants)
	fmt.Printf("Papers: %s\n\n", digests.Papers)
	fmt.Printf("News: %s\n", digests.News)
	return nil
}

// searchState builds the request state from flags and arguments. A query
// file provides the base; positional arguments and --intent override it.
func searchState(cmd *cobra.Command, args []string) (types.ResearchState, error) {
	var state types.ResearchState

	if path, _ := cmd.Flags().GetString("query-file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return state, fmt.Errorf("reading query file: %w", err)
		}
		if err := yaml.Unmarshal(data, &state); err != nil {
			return state, fmt.Errorf("parsing query file %s: %w", path, err)
		}
	}

	if q := strings.TrimSpace(strings.Join(args, " ")); q != "" {
		state.UserQuery = q
	}
	if cmd.Flags().Changed("intent") {
		intent, _ := cmd.Flags().GetString("intent")
		state.Intent = types.NormalizeIntent(intent)
	}
	return state, nil
}

// saveQueryFile writes the request and its results as YAML. Reloading the
// file with --query-file re-runs the request fields.
func saveQueryFile(path string, state types.ResearchState) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling query file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing query file: %w", err)
	}
	return nil
}
