// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Intent selects which provider categories a request runs.
type Intent string

const (
	IntentGrants Intent = "grants"
	IntentPapers Intent = "papers"
	IntentNews   Intent = "news"
	IntentAll    Intent = "all"
)

// NormalizeIntent maps a raw intent value to a member of the valid set.
// Missing or unknown values become IntentAll.
func NormalizeIntent(s string) Intent {
	switch Intent(s) {
	case IntentGrants, IntentPapers, IntentNews, IntentAll:
		return Intent(s)
	default:
		return IntentAll
	}
}

// ResearchState is the request/response envelope threaded through the
// pipeline. One state is created per incoming request; each stage derives a
// new state value from its input rather than mutating cards or lists in
// place, and the state is discarded after the response is serialized.
type ResearchState struct {
	// UserQuery is the original search query.
	UserQuery string `json:"user_query" yaml:"user_query" bson:"user_query"`

	// Intent selects the categories to run: grants, papers, news, or all.
	Intent Intent `json:"intent,omitempty" yaml:"intent,omitempty" bson:"intent,omitempty"`

	// LabURL is optional caller context, passed through untouched.
	LabURL string `json:"lab_url,omitempty" yaml:"lab_url,omitempty" bson:"lab_url,omitempty"`

	// LabProfile is optional caller context (e.g. extracted keywords for a
	// lab site), passed through without interpretation.
	LabProfile map[string]any `json:"lab_profile,omitempty" yaml:"lab_profile,omitempty" bson:"lab_profile,omitempty"`

	// TextChunks is raw text used to derive keywords when no usable query
	// was supplied.
	TextChunks []string `json:"text_chunks,omitempty" yaml:"text_chunks,omitempty" bson:"text_chunks,omitempty"`

	// ExtractedKeywords is the ranked keyword list derived from TextChunks.
	ExtractedKeywords []string `json:"extracted_keywords,omitempty" yaml:"extracted_keywords,omitempty" bson:"extracted_keywords,omitempty"`

	// Grants, Papers, and News hold each category's provider results.
	Grants []Card `json:"grants" yaml:"grants" bson:"grants"`
	Papers []Card `json:"papers" yaml:"papers" bson:"papers"`
	News   []Card `json:"news" yaml:"news" bson:"news"`

	// InboxCards is the merged, ranked result list.
	InboxCards []Card `json:"inbox_cards" yaml:"inbox_cards" bson:"inbox_cards"`

	// Errors accumulates validation, provider, and extraction failures.
	// Append-only: no stage ever clears it.
	Errors []string `json:"errors" yaml:"errors" bson:"errors"`
}

// Summary gives the response-level result counts callers use to distinguish
// full, partial, and failed outcomes.
type Summary struct {
	TotalGrants int  `json:"total_grants" yaml:"total_grants"`
	TotalPapers int  `json:"total_papers" yaml:"total_papers"`
	TotalNews   int  `json:"total_news" yaml:"total_news"`
	TotalCards  int  `json:"total_cards" yaml:"total_cards"`
	HasErrors   bool `json:"has_errors" yaml:"has_errors"`
	ErrorCount  int  `json:"error_count" yaml:"error_count"`
}

// Summarize computes the result counts for a finished state.
func (s ResearchState) Summarize() Summary {
	return Summary{
		TotalGrants: len(s.Grants),
		TotalPapers: len(s.Papers),
		TotalNews:   len(s.News),
		TotalCards:  len(s.InboxCards),
		HasErrors:   len(s.Errors) > 0,
		ErrorCount:  len(s.Errors),
	}
}

// EnsureLists replaces nil slices with empty ones so serialized responses
// carry [] rather than null.
func (s ResearchState) EnsureLists() ResearchState {
	if s.Grants == nil {
		s.Grants = []Card{}
	}
	if s.Papers == nil {
		s.Papers = []Card{}
	}
	if s.News == nil {
		s.News = []Card{}
	}
	if s.InboxCards == nil {
		s.InboxCards = []Card{}
	}
	if s.Errors == nil {
		s.Errors = []string{}
	}
	return s
}
