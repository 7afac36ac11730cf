// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the research-inbox
// pipeline: the card model with its deterministic identity, the request
// state envelope, and configuration.
package types

import (
	"crypto/sha256"
	"fmt"
	"strings"
)

// CardType tags a card as one of the three result categories. The set is
// closed: no further variants exist.
type CardType string

const (
	CardGrant CardType = "grant"
	CardPaper CardType = "paper"
	CardNews  CardType = "news"
)

// Badge labels attached by providers. Advisory only; ranking never reads them.
const (
	BadgeClosingSoon = "Closing soon"
	BadgeRecent      = "Recent"
	BadgeBreaking    = "Breaking"
)

// CardMeta holds the type-specific attributes of a card. Fields that do not
// apply to the card's type stay zero and are omitted from serialized output,
// so the wire shape is an open mapping.
type CardMeta struct {
	// Sponsor is the funding agency behind a grant.
	Sponsor string `json:"sponsor,omitempty" yaml:"sponsor,omitempty" bson:"sponsor,omitempty"`

	// CloseDate is the grant application deadline (YYYY-MM-DD).
	CloseDate string `json:"close_date,omitempty" yaml:"close_date,omitempty" bson:"close_date,omitempty"`

	// AmountMax is the maximum award amount for a grant, in dollars.
	AmountMax float64 `json:"amount_max,omitempty" yaml:"amount_max,omitempty" bson:"amount_max,omitempty"`

	// Authors lists a paper's authors in source order.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty" bson:"authors,omitempty"`

	// PublishedDate is the publication date of a paper or news article.
	PublishedDate string `json:"published_date,omitempty" yaml:"published_date,omitempty" bson:"published_date,omitempty"`

	// Outlet is the publication that ran a news article.
	Outlet string `json:"outlet,omitempty" yaml:"outlet,omitempty" bson:"outlet,omitempty"`

	// URL links to the original news article.
	URL string `json:"url,omitempty" yaml:"url,omitempty" bson:"url,omitempty"`

	// Source identifies the backend that produced the card
	// (e.g. "grants.gov", "pubmed", "newsapi", "corpus").
	Source string `json:"source,omitempty" yaml:"source,omitempty" bson:"source,omitempty"`
}

// Card is the unit of result in the research inbox. Cards are created only
// by the normalization constructors below (or rehydrated from storage) and
// are immutable after creation.
type Card struct {
	// ID is a deterministic content hash; see MakeCardID.
	ID string `json:"id" yaml:"id" bson:"id"`

	// Type tags the card as a grant, paper, or news article.
	Type CardType `json:"type" yaml:"type" bson:"type"`

	// Title is the card's display title. Never empty for a valid card.
	Title string `json:"title" yaml:"title" bson:"title"`

	// Score is the relevance score, always within [0, 1].
	Score float64 `json:"score" yaml:"score" bson:"score"`

	// Badge is an optional short advisory label such as "Closing soon".
	Badge string `json:"badge,omitempty" yaml:"badge,omitempty" bson:"badge,omitempty"`

	// Meta holds the type-specific attributes.
	Meta CardMeta `json:"meta" yaml:"meta" bson:"meta"`

	// Embedding is the vector attached when the card was served from the
	// corpus. Never consulted for ranking or identity.
	Embedding []float64 `json:"embedding,omitempty" yaml:"embedding,omitempty" bson:"embedding,omitempty"`
}

// idHashLen is the number of hex characters kept from the identity hash.
const idHashLen = 16

// MakeCardID derives the deterministic card identifier from the card type,
// the title, and two type-specific disambiguating fields. The same tuple
// always yields the same id, across processes and time. Absent
// disambiguators must be passed as empty strings so a card regenerated from
// a path that represents the absence differently still hashes identically.
func MakeCardID(cardType CardType, title, d1, d2 string) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s|%s|%s|%s", cardType, title, d1, d2)))
	return fmt.Sprintf("%x", sum)[:idHashLen]
}

// ClampScore forces a score into the valid [0, 1] range.
func ClampScore(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}

// GrantFields carries the raw attributes of a grant opportunity before
// normalization into a Card.
type GrantFields struct {
	Title     string
	Score     float64
	Sponsor   string
	CloseDate string
	AmountMax float64
	Badge     string
	Source    string
}

// NewGrantCard normalizes raw grant data into a canonical Card. The id is
// derived from the title, close date, and sponsor.
func NewGrantCard(f GrantFields) Card {
	source := f.Source
	if source == "" {
		source = "grants.gov"
	}
	return Card{
		ID:    MakeCardID(CardGrant, f.Title, f.CloseDate, f.Sponsor),
		Type:  CardGrant,
		Title: f.Title,
		Score: ClampScore(f.Score),
		Badge: f.Badge,
		Meta: CardMeta{
			Sponsor:   f.Sponsor,
			CloseDate: f.CloseDate,
			AmountMax: f.AmountMax,
			Source:    source,
		},
	}
}

// PaperFields carries the raw attributes of an academic paper before
// normalization into a Card.
type PaperFields struct {
	Title         string
	Score         float64
	Authors       []string
	PublishedDate string
	URL           string
	Badge         string
	Source        string
}

// NewPaperCard normalizes raw paper data into a canonical Card. The id is
// derived from the title, published date, and the comma-joined author list.
func NewPaperCard(f PaperFields) Card {
	source := f.Source
	if source == "" {
		source = "pubmed"
	}
	return Card{
		ID:    MakeCardID(CardPaper, f.Title, f.PublishedDate, strings.Join(f.Authors, ",")),
		Type:  CardPaper,
		Title: f.Title,
		Score: ClampScore(f.Score),
		Badge: f.Badge,
		Meta: CardMeta{
			Authors:       f.Authors,
			PublishedDate: f.PublishedDate,
			URL:           f.URL,
			Source:        source,
		},
	}
}

// NewsFields carries the raw attributes of a news article before
// normalization into a Card.
type NewsFields struct {
	Title         string
	Score         float64
	Outlet        string
	URL           string
	PublishedDate string
	Badge         string
	Source        string
}

// NewNewsCard normalizes raw article data into a canonical Card. The id is
// derived from the title, published date, and outlet.
func NewNewsCard(f NewsFields) Card {
	source := f.Source
	if source == "" {
		source = "newsapi"
	}
	return Card{
		ID:    MakeCardID(CardNews, f.Title, f.PublishedDate, f.Outlet),
		Type:  CardNews,
		Title: f.Title,
		Score: ClampScore(f.Score),
		Badge: f.Badge,
		Meta: CardMeta{
			Outlet:        f.Outlet,
			URL:           f.URL,
			PublishedDate: f.PublishedDate,
			Source:        source,
		},
	}
}
