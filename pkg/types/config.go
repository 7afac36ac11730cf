// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-inbox/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderConfig holds settings shared by the three provider adapters.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxResults is the maximum number of cards per provider call (default 10).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// RatePerSecond caps live upstream calls per provider (default 2;
	// zero or negative disables limiting).
	RatePerSecond float64 `json:"rate_per_second" yaml:"rate_per_second"`

	// NewsAPIKey authenticates NewsAPI requests.
	NewsAPIKey string `json:"news_api_key,omitempty" yaml:"news_api_key,omitempty"`
}

// KeywordConfig holds settings for keyword extraction.
type KeywordConfig struct {
	// TopK is the number of keywords extracted from request text chunks
	// (default 5).
	TopK int `json:"top_k" yaml:"top_k"`

	// MaxURLKeywords caps keywords extracted for URL research (default 10).
	MaxURLKeywords int `json:"max_url_keywords" yaml:"max_url_keywords"`
}

// CorpusConfig holds settings for the local card corpus.
type CorpusConfig struct {
	// Dir is the base directory for the corpus (contains index/).
	Dir string `json:"dir" yaml:"dir"`

	// MaxResults is the default result cap for corpus search (default 5).
	MaxResults int `json:"max_results" yaml:"max_results"`
}

// CacheConfig holds MongoDB cache settings for the URL research path.
type CacheConfig struct {
	// URI is the MongoDB connection string. Empty disables caching.
	URI string `json:"uri,omitempty" yaml:"uri,omitempty"`

	// Database is the database name (default "mongo_research").
	Database string `json:"database" yaml:"database"`

	// Timeout bounds connection and per-operation time (default 10s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// AIConfig holds shared settings for components that call a Generative AI API.
type AIConfig struct {
	// Model is the AI model identifier used for text generation.
	Model string `json:"model" yaml:"model"`

	// APIKey authenticates generation API calls.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// EmbeddingModel is the embeddings model identifier
	// (default "text-embedding-3-small").
	EmbeddingModel string `json:"embedding_model" yaml:"embedding_model"`

	// EmbeddingAPIKey authenticates embeddings API calls.
	EmbeddingAPIKey string `json:"embedding_api_key,omitempty" yaml:"embedding_api_key,omitempty"`

	// MaxRetries is the retry budget for failed AI calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// ScrapeConfig holds settings for the lab-site scraper.
type ScrapeConfig struct {
	HTTPConfig `yaml:",inline"`

	// MaxContentChars caps the extracted main content (default 5000).
	MaxContentChars int `json:"max_content_chars" yaml:"max_content_chars"`

	// MaxTextChars caps the combined full text fed to keyword extraction
	// (default 10000).
	MaxTextChars int `json:"max_text_chars" yaml:"max_text_chars"`

	// ChunkChars is the size of the text chunks handed to keyword
	// extraction (default 1000).
	ChunkChars int `json:"chunk_chars" yaml:"chunk_chars"`
}

// ServerConfig holds settings for the HTTP server.
type ServerConfig struct {
	// Addr is the HTTP listen address (default ":8000").
	Addr string `json:"addr" yaml:"addr"`

	// AllowedOrigins lists CORS origins permitted to call the API
	// (default: the local development frontend ports).
	AllowedOrigins []string `json:"allowed_origins" yaml:"allowed_origins"`

	// LogLevel sets log verbosity: debug, info, warn, or error (default info).
	LogLevel string `json:"log_level" yaml:"log_level"`

	// RefreshCron optionally schedules corpus re-ingest while serving
	// (standard cron expression, e.g. "0 6 * * *"). Empty disables.
	RefreshCron string `json:"refresh_cron,omitempty" yaml:"refresh_cron,omitempty"`

	// RefreshTopics lists the ingest topics used by the scheduled refresh.
	RefreshTopics []string `json:"refresh_topics,omitempty" yaml:"refresh_topics,omitempty"`
}

// Config groups all component configurations.
type Config struct {
	Server    ServerConfig   `json:"server" yaml:"server"`
	Providers ProviderConfig `json:"providers" yaml:"providers"`
	Keywords  KeywordConfig  `json:"keywords" yaml:"keywords"`
	Corpus    CorpusConfig   `json:"corpus" yaml:"corpus"`
	Cache     CacheConfig    `json:"cache" yaml:"cache"`
	AI        AIConfig       `json:"ai" yaml:"ai"`
	Scrape    ScrapeConfig   `json:"scrape" yaml:"scrape"`
}
