// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestEmbedderRequestAndVector(t *testing.T) {
	var captured embeddingRequest
	var gotAuth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[{"embedding":[0.1,0.2,0.3]}]}`)
	}))
	defer ts.Close()

	old := embeddingsAPIURL
	embeddingsAPIURL = ts.URL
	defer func() { embeddingsAPIURL = old }()

	e := &Embedder{APIKey: "sk-embed", Client: ts.Client()}
	vec, err := e.Embed(context.Background(), "protein\nfolding")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	if gotAuth != "Bearer sk-embed" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if captured.Model != "text-embedding-3-small" {
		t.Errorf("model = %q, want default text-embedding-3-small", captured.Model)
	}
	if len(captured.Input) != 1 || captured.Input[0] != "protein folding" {
		t.Errorf("input = %v, want newline folded to space", captured.Input)
	}
	if len(vec) != 3 || vec[1] != 0.2 {
		t.Errorf("vector = %v", vec)
	}
}

func TestEmbedderEmptyInput(t *testing.T) {
	e := &Embedder{APIKey: "sk-embed"}
	_, err := e.Embed(context.Background(), "  \n ")
	if err == nil {
		t.Fatal("expected error for empty input")
	}
}

func TestEmbedderAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer ts.Close()

	old := embeddingsAPIURL
	embeddingsAPIURL = ts.URL
	defer func() { embeddingsAPIURL = old }()

	e := &Embedder{APIKey: "bad", Client: ts.Client()}
	_, err := e.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestEmbedderNoVectors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer ts.Close()

	old := embeddingsAPIURL
	embeddingsAPIURL = ts.URL
	defer func() { embeddingsAPIURL = old }()

	e := &Embedder{APIKey: "sk", Client: ts.Client()}
	_, err := e.Embed(context.Background(), "text")
	if err == nil {
		t.Fatal("expected error for empty data")
	}
}

func TestEmbedderConfigured(t *testing.T) {
	var nilEmbedder *Embedder
	if nilEmbedder.Configured() {
		t.Error("nil embedder reports configured")
	}
	if !(&Embedder{APIKey: "sk"}).Configured() {
		t.Error("keyed embedder reports unconfigured")
	}
}
