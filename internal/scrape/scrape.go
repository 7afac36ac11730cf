// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape extracts structured text from research lab pages. It
// pulls the title, meta description, headings, and main content with
// goquery, preferring go-readability's article extraction for the main
// text when it succeeds.
package scrape

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/avelasko/research-inbox/pkg/types"
)

// defaultUserAgent is a browser User-Agent; lab sites frequently reject
// obvious bot agents.
const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

const (
	defaultMaxContentChars = 5000
	defaultMaxTextChars    = 10000
	defaultChunkChars      = 1000
	defaultTimeout         = 30 * time.Second
)

// PageContent holds the text extracted from one page.
type PageContent struct {
	URL             string   `json:"url"`
	Title           string   `json:"title"`
	MetaDescription string   `json:"meta_description"`
	Headings        string   `json:"headings"`
	MainContent     string   `json:"main_content"`
	FullText        string   `json:"full_text"`
	Chunks          []string `json:"chunks,omitempty"`
}

// Scraper fetches and parses a single page.
type Scraper struct {
	// Client is the HTTP client to use. nil builds one from Config.Timeout.
	Client *http.Client

	Config types.ScrapeConfig
}

// Scrape fetches rawURL and returns its extracted content. URLs without a
// scheme default to https. Redirects are followed.
func (s *Scraper) Scrape(ctx context.Context, rawURL string) (*PageContent, error) {
	if strings.TrimSpace(rawURL) == "" {
		return nil, fmt.Errorf("empty URL")
	}

	pageURL := WithScheme(rawURL)
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Host == "" {
		return nil, fmt.Errorf("invalid URL: %s", rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	userAgent := s.Config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d error for URL: %s", resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", pageURL, err)
	}

	return s.parse(pageURL, parsed, body)
}

func (s *Scraper) parse(pageURL string, parsed *url.URL, body []byte) (*PageContent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing page: %w", err)
	}

	title := strings.TrimSpace(doc.Find("title").First().Text())

	metaDescription, _ := doc.Find(`meta[name="description"]`).First().Attr("content")
	if metaDescription == "" {
		metaDescription, _ = doc.Find(`meta[property="og:description"]`).First().Attr("content")
	}
	metaDescription = strings.TrimSpace(metaDescription)

	// Headings are collected before boilerplate removal so navigation
	// section titles still contribute to the keyword text.
	var headings []string
	doc.Find("h1, h2, h3, h4, h5, h6").Each(func(_ int, sel *goquery.Selection) {
		if text := strings.TrimSpace(sel.Text()); text != "" {
			headings = append(headings, text)
		}
	})
	headingsText := strings.Join(headings, " ")

	doc.Find("script, style, nav, footer, header").Remove()

	mainContent := mainText(doc)
	if article, err := readability.FromReader(bytes.NewReader(body), parsed); err == nil {
		if text := collapse(article.TextContent); text != "" {
			mainContent = text
		}
	}

	var parts []string
	for _, p := range []string{title, metaDescription, headingsText, mainContent} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	fullText := truncate(strings.Join(parts, " "), s.maxTextChars())

	return &PageContent{
		URL:             pageURL,
		Title:           title,
		MetaDescription: metaDescription,
		Headings:        headingsText,
		MainContent:     truncate(mainContent, s.maxContentChars()),
		FullText:        fullText,
		Chunks:          chunkText(fullText, s.chunkChars()),
	}, nil
}

// mainText extracts the page's main body text, preferring semantic
// containers over the whole body.
func mainText(doc *goquery.Document) string {
	for _, selector := range []string{"main", "article", "div.content"} {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			return collapse(sel.Text())
		}
	}
	return collapse(doc.Find("body").Text())
}

func (s *Scraper) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	timeout := s.Config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

func (s *Scraper) maxContentChars() int {
	if s.Config.MaxContentChars > 0 {
		return s.Config.MaxContentChars
	}
	return defaultMaxContentChars
}

func (s *Scraper) maxTextChars() int {
	if s.Config.MaxTextChars > 0 {
		return s.Config.MaxTextChars
	}
	return defaultMaxTextChars
}

func (s *Scraper) chunkChars() int {
	if s.Config.ChunkChars > 0 {
		return s.Config.ChunkChars
	}
	return defaultChunkChars
}

// WithScheme defaults schemeless URLs to https.
func WithScheme(rawURL string) string {
	if strings.HasPrefix(rawURL, "http://") || strings.HasPrefix(rawURL, "https://") {
		return rawURL
	}
	return "https://" + rawURL
}

// collapse trims and collapses all whitespace runs to single spaces.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// chunkText splits text into chunks of at most size bytes, breaking on
// word boundaries. Words longer than size become their own chunk.
func chunkText(text string, size int) []string {
	words := strings.Fields(text)
	var chunks []string
	var b strings.Builder

	for _, w := range words {
		if b.Len() > 0 && b.Len()+1+len(w) > size {
			chunks = append(chunks, b.String())
			b.Reset()
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(w)
	}
	if b.Len() > 0 {
		chunks = append(chunks, b.String())
	}
	return chunks
}
