// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package corpus persists discovery cards in a local SQLite database and
// serves ranked lookups so providers can answer from previously ingested
// data before calling a live API.
package corpus

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/avelasko/research-inbox/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "corpus.db"
)

// Embedder produces a vector for a text. Configured reports whether calls
// can succeed, so the store can skip embedding work entirely.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Configured() bool
}

// Store manages the card corpus SQLite database.
type Store struct {
	db         *sql.DB
	dir        string
	maxResults int
	embedder   Embedder
}

// NewStore opens or creates the corpus database at dir/index/corpus.db and
// creates the schema if it does not exist. A nil embedder disables
// similarity re-ranking; search then scores by match position.
func NewStore(cfg types.CorpusConfig, embedder Embedder) (*Store, error) {
	dbDir := filepath.Join(cfg.Dir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 5
	}

	s := &Store{
		db:         db,
		dir:        cfg.Dir,
		maxResults: maxResults,
		embedder:   embedder,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS cards (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			type TEXT NOT NULL,
			title TEXT NOT NULL,
			score REAL,
			badge TEXT,
			meta TEXT,
			embedding TEXT,
			created_at TEXT,
			updated_at TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cards_type ON cards(type)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='cards_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE cards_fts USING fts5(title, meta, content=cards, content_rowid=rowid)`,
			`CREATE TRIGGER cards_ai AFTER INSERT ON cards BEGIN
				INSERT INTO cards_fts(rowid, title, meta) VALUES (new.rowid, new.title, new.meta);
			END`,
			`CREATE TRIGGER cards_ad AFTER DELETE ON cards BEGIN
				INSERT INTO cards_fts(cards_fts, rowid, title, meta) VALUES('delete', old.rowid, old.title, old.meta);
			END`,
			`CREATE TRIGGER cards_au AFTER UPDATE ON cards BEGIN
				INSERT INTO cards_fts(cards_fts, rowid, title, meta) VALUES('delete', old.rowid, old.title, old.meta);
				INSERT INTO cards_fts(rowid, title, meta) VALUES (new.rowid, new.title, new.meta);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Upsert inserts cards, replacing any existing row with the same card id.
// The original created_at survives updates.
func (s *Store) Upsert(ctx context.Context, cards []types.Card) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO cards (id, type, title, score, badge, meta, embedding, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			type=excluded.type, title=excluded.title, score=excluded.score,
			badge=excluded.badge, meta=excluded.meta, embedding=excluded.embedding,
			updated_at=excluded.updated_at`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339)

	for _, c := range cards {
		metaJSON, _ := json.Marshal(c.Meta)

		var embeddingJSON any
		if len(c.Embedding) > 0 {
			data, _ := json.Marshal(c.Embedding)
			embeddingJSON = string(data)
		}

		_, err := stmt.ExecContext(ctx,
			c.ID, string(c.Type), c.Title, c.Score, c.Badge,
			string(metaJSON), embeddingJSON, now, now,
		)
		if err != nil {
			return fmt.Errorf("upserting card %s: %w", c.ID, err)
		}
	}

	return tx.Commit()
}

// Count returns the number of stored cards.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM cards`).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting cards: %w", err)
	}
	return n, nil
}

// scanCards reads card rows produced by the shared column list
// (id, type, title, score, badge, meta, embedding).
func scanCards(rows *sql.Rows) ([]types.Card, error) {
	var cards []types.Card
	for rows.Next() {
		var (
			c             types.Card
			cardType      string
			score         sql.NullFloat64
			badge         sql.NullString
			metaJSON      sql.NullString
			embeddingJSON sql.NullString
		)
		if err := rows.Scan(&c.ID, &cardType, &c.Title, &score, &badge, &metaJSON, &embeddingJSON); err != nil {
			return nil, fmt.Errorf("scanning card row: %w", err)
		}

		c.Type = types.CardType(cardType)
		if score.Valid {
			c.Score = score.Float64
		}
		if badge.Valid {
			c.Badge = badge.String
		}
		if metaJSON.Valid {
			json.Unmarshal([]byte(metaJSON.String), &c.Meta)
		}
		if embeddingJSON.Valid {
			json.Unmarshal([]byte(embeddingJSON.String), &c.Embedding)
		}

		cards = append(cards, c)
	}
	return cards, rows.Err()
}
