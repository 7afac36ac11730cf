// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClaudeCompleteSendsMessagesRequest(t *testing.T) {
	var captured claudeRequest
	var gotAPIKey, gotVersion string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAPIKey = r.Header.Get("x-api-key")
		gotVersion = r.Header.Get("anthropic-version")
		json.NewDecoder(r.Body).Decode(&captured)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":[{"type":"text","text":"hello back"}]}`)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	c := &Claude{APIKey: "sk-test", Model: "claude-test-model", Client: ts.Client()}
	got, err := c.Complete(context.Background(), "say hello")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "hello back" {
		t.Errorf("Complete = %q, want %q", got, "hello back")
	}

	if gotAPIKey != "sk-test" {
		t.Errorf("x-api-key = %q", gotAPIKey)
	}
	if gotVersion != "2023-06-01" {
		t.Errorf("anthropic-version = %q", gotVersion)
	}
	if captured.Model != "claude-test-model" {
		t.Errorf("model = %q", captured.Model)
	}
	if captured.MaxTokens != 4096 {
		t.Errorf("max_tokens = %d, want 4096", captured.MaxTokens)
	}
	if len(captured.Messages) != 1 || captured.Messages[0].Role != "user" || captured.Messages[0].Content != "say hello" {
		t.Errorf("messages = %+v", captured.Messages)
	}
}

func TestClaudeCompleteSkipsNonTextBlocks(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":[{"type":"thinking","text":"..."},{"type":"text","text":"answer"}]}`)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	c := &Claude{APIKey: "sk-test", Client: ts.Client()}
	got, err := c.Complete(context.Background(), "q")
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if got != "answer" {
		t.Errorf("Complete = %q, want %q", got, "answer")
	}
}

func TestClaudeCompleteAPIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"bad model"}}`)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	c := &Claude{APIKey: "sk-test", Client: ts.Client()}
	_, err := c.Complete(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error = %q, want status code", err.Error())
	}
}

func TestClaudeCompleteEmptyContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"content":[]}`)
	}))
	defer ts.Close()

	old := claudeAPIURL
	claudeAPIURL = ts.URL
	defer func() { claudeAPIURL = old }()

	c := &Claude{APIKey: "sk-test", Client: ts.Client()}
	_, err := c.Complete(context.Background(), "q")
	if err == nil {
		t.Fatal("expected error for empty content")
	}
}

func TestClaudeConfigured(t *testing.T) {
	var nilClient *Claude
	if nilClient.Configured() {
		t.Error("nil client reports configured")
	}
	if (&Claude{}).Configured() {
		t.Error("keyless client reports configured")
	}
	if !(&Claude{APIKey: "sk-test"}).Configured() {
		t.Error("keyed client reports unconfigured")
	}
}
