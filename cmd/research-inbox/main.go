// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the research-inbox CLI.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/avelasko/research-inbox/internal/secrets"
	"github.com/avelasko/research-inbox/pkg/types"
)

// version is set at build time via ldflags.
var version = "0.1.0"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// rootCmd is the base command for the research-inbox CLI.
var rootCmd = &cobra.Command{
	Use:   "research-inbox",
	Short: "Multi-source research discovery inbox for academic labs",
	Long: `research-inbox aggregates discovery feeds for an academic lab: funding
opportunities from grants.gov, recent papers from PubMed, and field news
from NewsAPI. Results are merged, scored, and ranked into a single inbox.

Run one-off searches with the search and url commands, keep the local
corpus fresh with ingest, or start the HTTP API with serve.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", keys)
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./research-inbox.yaml or ~/.config/research-inbox/config.yaml)")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("research-inbox")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "research-inbox"))
		}
	}

	viper.SetEnvPrefix("RESEARCH_INBOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	viper.SetDefault("server.addr", ":8000")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("providers.timeout", "15s")
	viper.SetDefault("providers.user_agent", "research-inbox/0.1")
	viper.SetDefault("providers.rate_per_second", 2.0)
	viper.SetDefault("corpus.dir", "corpus")
	viper.SetDefault("ai.model", "claude-sonnet-4-5-20250929")

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// buildConfig resolves the effective configuration: config file and
// environment via viper, then loaded secrets for any key left empty.
func buildConfig() types.Config {
	cfg := types.Config{
		Server: types.ServerConfig{
			Addr:           viper.GetString("server.addr"),
			AllowedOrigins: viper.GetStringSlice("server.allowed_origins"),
			LogLevel:       viper.GetString("server.log_level"),
			RefreshCron:    viper.GetString("server.refresh_cron"),
			RefreshTopics:  viper.GetStringSlice("server.refresh_topics"),
		},
		Providers: types.ProviderConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("providers.timeout"),
				UserAgent: viper.GetString("providers.user_agent"),
			},
			MaxResults:    viper.GetInt("providers.max_results"),
			RatePerSecond: viper.GetFloat64("providers.rate_per_second"),
			NewsAPIKey:    viper.GetString("providers.news_api_key"),
		},
		Keywords: types.KeywordConfig{
			TopK:           viper.GetInt("keywords.top_k"),
			MaxURLKeywords: viper.GetInt("keywords.max_url_keywords"),
		},
		Corpus: types.CorpusConfig{
			Dir:        viper.GetString("corpus.dir"),
			MaxResults: viper.GetInt("corpus.max_results"),
		},
		Cache: types.CacheConfig{
			URI:      viper.GetString("cache.uri"),
			Database: viper.GetString("cache.database"),
			Timeout:  viper.GetDuration("cache.timeout"),
		},
		AI: types.AIConfig{
			Model:           viper.GetString("ai.model"),
			APIKey:          viper.GetString("ai.api_key"),
			EmbeddingModel:  viper.GetString("ai.embedding_model"),
			EmbeddingAPIKey: viper.GetString("ai.embedding_api_key"),
			MaxRetries:      viper.GetInt("ai.max_retries"),
		},
		Scrape: types.ScrapeConfig{
			HTTPConfig: types.HTTPConfig{
				Timeout:   viper.GetDuration("scrape.timeout"),
				UserAgent: viper.GetString("scrape.user_agent"),
			},
			MaxContentChars: viper.GetInt("scrape.max_content_chars"),
			MaxTextChars:    viper.GetInt("scrape.max_text_chars"),
			ChunkChars:      viper.GetInt("scrape.chunk_chars"),
		},
	}

	if cfg.Providers.NewsAPIKey == "" {
		cfg.Providers.NewsAPIKey = secrets.Get(loadedSecrets, "NEWS_API_KEY")
	}
	if cfg.AI.APIKey == "" {
		cfg.AI.APIKey = secrets.Get(loadedSecrets, "ANTHROPIC_API_KEY")
	}
	if cfg.AI.EmbeddingAPIKey == "" {
		cfg.AI.EmbeddingAPIKey = secrets.Get(loadedSecrets, "OPENAI_API_KEY")
	}
	if cfg.Cache.URI == "" {
		cfg.Cache.URI = secrets.Get(loadedSecrets, "MONGODB_URI")
	}

	return cfg
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
