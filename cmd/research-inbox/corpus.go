// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Manage the local card corpus",
	Long: `Corpus manages the local SQLite card store that backs cache-first
search. Use ingest to fill it and export to write its contents out.`,
}

// --- export subcommand ---

var corpusExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the card corpus to YAML or JSON",
	Long: `Export writes every stored card to corpus/index/export.yaml or
export.json.`,
	RunE: runCorpusExport,
}

func runCorpusExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	cfg := buildConfig()
	store, err := openCorpus(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var name string
	switch format {
	case "yaml", "":
		if err := store.ExportYAML(context.Background()); err != nil {
			return err
		}
		name = "export.yaml"
	case "json":
		if err := store.ExportJSON(context.Background()); err != nil {
			return err
		}
		name = "export.json"
	default:
		return fmt.Errorf("unsupported format %q: use yaml or json", format)
	}

	n, err := store.Count(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Exported %d cards to %s\n", n, filepath.Join(cfg.Corpus.Dir, "index", name))
	return nil
}

func init() {
	corpusExportCmd.Flags().String("format", "yaml", "export format: yaml or json")

	corpusCmd.AddCommand(corpusExportCmd)

	rootCmd.AddCommand(corpusCmd)
}
