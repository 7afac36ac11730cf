// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// embeddingsAPIURL is the embeddings endpoint. Package-level var for test
// substitution. Any OpenAI-compatible server works.
var embeddingsAPIURL = "https://api.openai.com/v1/embeddings"

// defaultEmbeddingModel is used when no model is configured.
const defaultEmbeddingModel = "text-embedding-3-small"

// Embedder turns text into a vector via an OpenAI-compatible embeddings API.
type Embedder struct {
	APIKey string
	Model  string
	Client *http.Client
}

// Configured reports whether the embedder has an API key to call with.
func (e *Embedder) Configured() bool {
	return e != nil && e.APIKey != ""
}

// embeddingRequest is the request body for the embeddings API.
type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

// embeddingResponse is the response body from the embeddings API.
type embeddingResponse struct {
	Data []embeddingData `json:"data"`
}

type embeddingData struct {
	Embedding []float64 `json:"embedding"`
}

// Embed returns the embedding vector for the text. Newlines are folded to
// spaces before the call, matching how stored card vectors were produced.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	if text == "" {
		return nil, fmt.Errorf("empty embedding input")
	}

	model := e.Model
	if model == "" {
		model = defaultEmbeddingModel
	}

	bodyBytes, err := json.Marshal(embeddingRequest{Input: []string{text}, Model: model})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, embeddingsAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.APIKey)

	client := e.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embeddings API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embeddings API returned %d: %s", resp.StatusCode, string(body))
	}

	var eResp embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&eResp); err != nil {
		return nil, fmt.Errorf("decoding embeddings response: %w", err)
	}

	if len(eResp.Data) == 0 {
		return nil, fmt.Errorf("embeddings API returned no vectors")
	}
	return eResp.Data[0].Embedding, nil
}
