// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package keywords

import (
	"context"
	"fmt"
	"strings"
	"testing"
)

// mockCompleter scripts the model reply for extractor tests.
type mockCompleter struct {
	reply      string
	err        error
	configured bool
	prompts    []string
}

func (m *mockCompleter) Complete(_ context.Context, prompt string) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.reply, m.err
}

func (m *mockCompleter) Configured() bool { return m.configured }

func TestClaudeExtractParsesModelReply(t *testing.T) {
	mock := &mockCompleter{configured: true, reply: "synthetic biology, mrna vaccines, lipid nanoparticles"}
	c := &Claude{Client: mock}

	got, err := c.Extract(context.Background(), []string{"our lab studies mrna delivery"}, 3)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	want := []string{"synthetic biology", "mrna vaccines", "lipid nanoparticles"}
	if len(got) != 3 {
		t.Fatalf("keywords = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("keywords = %v, want %v", got, want)
			break
		}
	}
	if len(mock.prompts) != 1 {
		t.Fatalf("model called %d times, want 1", len(mock.prompts))
	}
	if !strings.Contains(mock.prompts[0], "our lab studies mrna delivery") {
		t.Error("prompt does not carry the chunk content")
	}
	if !strings.Contains(mock.prompts[0], "at most 3 keywords") {
		t.Error("prompt does not carry the keyword budget")
	}
}

func TestClaudeExtractFallsBackWhenUnconfigured(t *testing.T) {
	mock := &mockCompleter{configured: false, reply: "should not be used"}
	c := &Claude{Client: mock}

	got, err := c.Extract(context.Background(), []string{"genomics genomics sequencing"}, 2)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(mock.prompts) != 0 {
		t.Error("model was called despite missing key")
	}
	if len(got) == 0 || got[0] != "genomics" {
		t.Errorf("keywords = %v, want heuristic output led by genomics", got)
	}
}

func TestClaudeExtractFallsBackOnError(t *testing.T) {
	mock := &mockCompleter{configured: true, err: fmt.Errorf("model overloaded")}
	c := &Claude{Client: mock}

	got, err := c.Extract(context.Background(), []string{"genomics genomics sequencing"}, 2)
	if err != nil {
		t.Fatalf("Extract should swallow model errors, got %v", err)
	}
	if len(got) == 0 || got[0] != "genomics" {
		t.Errorf("keywords = %v, want heuristic fallback", got)
	}
}

func TestClaudeExtractFallsBackOnEmptyReply(t *testing.T) {
	mock := &mockCompleter{configured: true, reply: "  \n "}
	c := &Claude{Client: mock}

	got, err := c.Extract(context.Background(), []string{"genomics genomics sequencing"}, 2)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) == 0 {
		t.Error("expected heuristic fallback keywords for empty model reply")
	}
}

func TestClaudeExtractNilClient(t *testing.T) {
	c := &Claude{}

	got, err := c.Extract(context.Background(), []string{"genomics genomics sequencing"}, 2)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) == 0 {
		t.Error("expected heuristic keywords with no client at all")
	}
}

func TestClaudeExtractEmptyChunks(t *testing.T) {
	mock := &mockCompleter{configured: true, reply: "anything"}
	c := &Claude{Client: mock}

	got, err := c.Extract(context.Background(), []string{"", "  "}, 5)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("keywords = %v, want none for empty chunks", got)
	}
	if len(mock.prompts) != 0 {
		t.Error("model called for empty chunks")
	}
}

func TestClaudeExtractTruncatesLongContent(t *testing.T) {
	mock := &mockCompleter{configured: true, reply: "keyword one, keyword two"}
	c := &Claude{Client: mock}

	long := strings.Repeat("genomic sequencing pipelines ", 400)
	if _, err := c.Extract(context.Background(), []string{long}, 2); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(mock.prompts) != 1 {
		t.Fatalf("model called %d times, want 1", len(mock.prompts))
	}
	// Prompt carries at most the truncated content plus the template text.
	if len(mock.prompts[0]) > maxPromptChars+1000 {
		t.Errorf("prompt length %d suggests content was not truncated", len(mock.prompts[0]))
	}
}
