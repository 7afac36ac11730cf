// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache persists URL research bundles in MongoDB. Every operation
// is best-effort from the caller's point of view: a missing or unreachable
// database disables caching but never fails a research request.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/avelasko/research-inbox/pkg/types"
)

const (
	defaultDatabase = "mongo_research"
	cacheCollection = "url_research_cache"
	defaultTimeout  = 10 * time.Second
)

// Bundle is the aggregated cache document for one researched URL.
type Bundle struct {
	URLHash   string       `bson:"_id" json:"-"`
	URL       string       `bson:"url" json:"url"`
	Keywords  []string     `bson:"keywords" json:"keywords"`
	Grants    []types.Card `bson:"grants" json:"grants"`
	Papers    []types.Card `bson:"papers" json:"papers"`
	News      []types.Card `bson:"news" json:"news"`
	CreatedAt time.Time    `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time    `bson:"updated_at" json:"updated_at"`
}

// cardDoc is the per-category document referencing the lab URL a card was
// discovered for.
type cardDoc struct {
	ID         string     `bson:"_id"`
	Card       types.Card `bson:"card_data"`
	LabURL     string     `bson:"lab_url"`
	LabURLHash string     `bson:"lab_url_hash"`
	Keywords   []string   `bson:"keywords"`
	CreatedAt  time.Time  `bson:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at"`
}

// Status reports cache availability for the diagnostics endpoint.
type Status struct {
	Connected bool   `json:"connected"`
	URISet    bool   `json:"mongodb_uri_set"`
	Database  string `json:"db_name"`
	Error     string `json:"error,omitempty"`
}

// Cache wraps the MongoDB collections. The connection is established
// lazily on first use and reused afterwards.
type Cache struct {
	cfg types.CacheConfig

	mu     sync.Mutex
	client *mongo.Client
	db     *mongo.Database
}

// New builds a cache handle without connecting. An empty URI produces a
// handle whose operations all report the cache as unavailable.
func New(cfg types.CacheConfig) *Cache {
	return &Cache{cfg: cfg}
}

// NormalizeURL canonicalizes a URL for cache keying: trim whitespace,
// strip trailing slashes, lowercase.
func NormalizeURL(rawURL string) string {
	return strings.ToLower(strings.TrimRight(strings.TrimSpace(rawURL), "/"))
}

// URLHash returns the cache document id for a URL: the SHA-256 hex digest
// of the normalized URL.
func URLHash(rawURL string) string {
	sum := sha256.Sum256([]byte(NormalizeURL(rawURL)))
	return hex.EncodeToString(sum[:])
}

// Get returns the cached bundle for a URL, or nil when the URL has not
// been researched before.
func (c *Cache) Get(ctx context.Context, rawURL string) (*Bundle, error) {
	db, err := c.database(ctx)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	var bundle Bundle
	err = db.Collection(cacheCollection).
		FindOne(ctx, bson.M{"_id": URLHash(rawURL)}).
		Decode(&bundle)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}
	return &bundle, nil
}

// Put stores the bundle, replacing any previous entry for the same URL,
// and upserts every card into its per-category collection with lab URL
// references. Per-card failures are skipped; only a failed bundle write is
// an error.
func (c *Cache) Put(ctx context.Context, bundle Bundle) error {
	db, err := c.database(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	now := time.Now().UTC()
	bundle.URLHash = URLHash(bundle.URL)
	bundle.CreatedAt = now
	bundle.UpdatedAt = now

	_, err = db.Collection(cacheCollection).ReplaceOne(ctx,
		bson.M{"_id": bundle.URLHash}, bundle,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}

	for name, cards := range map[string][]types.Card{
		"grants": bundle.Grants,
		"papers": bundle.Papers,
		"news":   bundle.News,
	} {
		coll := db.Collection(name)
		for _, card := range cards {
			doc := cardDoc{
				ID:         card.ID,
				Card:       card,
				LabURL:     bundle.URL,
				LabURLHash: bundle.URLHash,
				Keywords:   bundle.Keywords,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			coll.ReplaceOne(ctx, bson.M{"_id": card.ID}, doc,
				options.Replace().SetUpsert(true))
		}
		ensureIndexes(ctx, coll)
	}

	return nil
}

// Clear removes the cache entry for one URL, or every entry when rawURL
// is empty. The per-category collections are left alone.
func (c *Cache) Clear(ctx context.Context, rawURL string) error {
	db, err := c.database(ctx)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	coll := db.Collection(cacheCollection)
	if rawURL != "" {
		_, err = coll.DeleteOne(ctx, bson.M{"_id": URLHash(rawURL)})
	} else {
		_, err = coll.DeleteMany(ctx, bson.M{})
	}
	if err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// CheckStatus attempts a connection and reports the outcome.
func (c *Cache) CheckStatus(ctx context.Context) Status {
	status := Status{
		URISet:   c.cfg.URI != "",
		Database: c.databaseName(),
	}

	_, err := c.database(ctx)
	if err != nil {
		status.Error = err.Error()
		return status
	}
	status.Connected = true
	return status
}

// Close disconnects the client if a connection was established.
func (c *Cache) Close(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	c.client = nil
	c.db = nil
	return err
}

// database lazily connects and pings on first use.
func (c *Cache) database(ctx context.Context) (*mongo.Database, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.db != nil {
		return c.db, nil
	}
	if c.cfg.URI == "" {
		return nil, fmt.Errorf("MongoDB URI not configured")
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI(c.cfg.URI).
		SetServerSelectionTimeout(c.timeout()))
	if err != nil {
		return nil, fmt.Errorf("connecting to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging MongoDB: %w", err)
	}

	c.client = client
	c.db = client.Database(c.databaseName())
	return c.db, nil
}

func (c *Cache) databaseName() string {
	if c.cfg.Database != "" {
		return c.cfg.Database
	}
	return defaultDatabase
}

func (c *Cache) timeout() time.Duration {
	if c.cfg.Timeout > 0 {
		return c.cfg.Timeout
	}
	return defaultTimeout
}

// ensureIndexes creates the lab URL lookup indexes, ignoring failures
// (they usually mean the indexes already exist).
func ensureIndexes(ctx context.Context, coll *mongo.Collection) {
	coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "lab_url_hash", Value: 1}}},
		{Keys: bson.D{{Key: "lab_url", Value: 1}}},
	})
}
