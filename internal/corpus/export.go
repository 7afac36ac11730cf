// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package corpus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"go.yaml.in/yaml/v3"

	"github.com/avelasko/research-inbox/pkg/types"
)

const exportLimit = 100000

// ExportYAML writes every stored card to dir/index/export.yaml.
func (s *Store) ExportYAML(ctx context.Context) error {
	cards, err := s.allCards(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, indexDir, "export.yaml")
	data, err := yaml.Marshal(cards)
	if err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ExportJSON writes every stored card to dir/index/export.json.
func (s *Store) ExportJSON(ctx context.Context) error {
	cards, err := s.allCards(ctx)
	if err != nil {
		return err
	}

	path := filepath.Join(s.dir, indexDir, "export.json")
	data, err := json.MarshalIndent(cards, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// allCards reads the whole corpus ordered by type then title.
func (s *Store) allCards(ctx context.Context) ([]types.Card, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, type, title, score, badge, meta, embedding
		FROM cards ORDER BY type, title LIMIT ?`, exportLimit)
	if err != nil {
		return nil, fmt.Errorf("querying for export: %w", err)
	}
	defer rows.Close()
	return scanCards(rows)
}
