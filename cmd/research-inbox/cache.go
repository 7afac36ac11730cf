// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avelasko/research-inbox/internal/scrape"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and manage the URL research cache",
	Long: `Cache manages the MongoDB-backed URL research cache. Use subcommands
to check connectivity or drop cached results.`,
}

// --- status subcommand ---

var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check MongoDB connectivity for the URL research cache",
	RunE:  runCacheStatus,
}

func runCacheStatus(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	mongoCache := newMongoCache(cfg)
	if mongoCache == nil {
		fmt.Println("Caching is disabled: no MongoDB URI configured.")
		return nil
	}
	defer mongoCache.Close(context.Background())

	status := mongoCache.CheckStatus(context.Background())

	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(status)
	}

	if status.Connected {
		fmt.Printf("MongoDB connected (database %s).\n", status.Database)
		return nil
	}
	return fmt.Errorf("cache unavailable: %s", status.Error)
}

// --- clear subcommand ---

var cacheClearCmd = &cobra.Command{
	Use:   "clear [url]",
	Short: "Drop cached URL research results",
	Long: `Clear removes the cached result bundle for one URL, or every cached
bundle when no URL is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCacheClear,
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	cfg := buildConfig()

	mongoCache := newMongoCache(cfg)
	if mongoCache == nil {
		return fmt.Errorf("caching is disabled: no MongoDB URI configured")
	}
	defer mongoCache.Close(context.Background())

	var pageURL string
	if len(args) > 0 {
		pageURL = scrape.WithScheme(strings.TrimSpace(args[0]))
	}

	if err := mongoCache.Clear(context.Background(), pageURL); err != nil {
		return err
	}

	if pageURL == "" {
		fmt.Println("Cleared all cached results.")
	} else {
		fmt.Printf("Cleared cached results for %s.\n", pageURL)
	}
	return nil
}

func init() {
	cacheStatusCmd.Flags().Bool("json", false, "output status as JSON")

	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	rootCmd.AddCommand(cacheCmd)
}
