// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avelasko/research-inbox/internal/logging"
	"github.com/avelasko/research-inbox/internal/orchestrator"
	"github.com/avelasko/research-inbox/internal/scrape"
)

var urlCmd = &cobra.Command{
	Use:   "url <lab-url>",
	Short: "Build a discovery inbox from a research lab website",
	Long: `Url scrapes a lab page, derives search keywords from its content, runs
the discovery pipeline on them, and prints the ranked inbox. Results
are cached in MongoDB when a connection is configured, so repeat runs
for the same URL skip the scrape and the providers.`,
	Args: cobra.ExactArgs(1),
	RunE: runURL,
}

func init() {
	urlCmd.Flags().Bool("json", false, "output the full result state as JSON")
	urlCmd.Flags().Bool("refresh", false, "drop the cached result and re-run the pipeline")

	rootCmd.AddCommand(urlCmd)
}

func runURL(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()
	log := logging.New(cfg.Server.LogLevel)

	mongoCache := newMongoCache(cfg)
	if mongoCache != nil {
		defer mongoCache.Close(context.Background())
	}

	if refresh, _ := cmd.Flags().GetBool("refresh"); refresh && mongoCache != nil {
		// Clear under the same key the research service caches under.
		pageURL := scrape.WithScheme(strings.TrimSpace(args[0]))
		if err := mongoCache.Clear(context.Background(), pageURL); err != nil {
			fmt.Fprintf(os.Stderr, "warning: cache clear failed: %v\n", err)
		}
	}

	store, err := openCorpus(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: corpus disabled: %v\n", err)
	}
	if store != nil {
		defer store.Close()
	}

	svc := newURLService(cfg, newOrchestrator(cfg, store), mongoCache, log)
	result := svc.Research(context.Background(), args[0])

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		return orchestrator.FormatJSON(result, os.Stdout)
	}
	orchestrator.FormatTable(result, os.Stdout)
	return nil
}
