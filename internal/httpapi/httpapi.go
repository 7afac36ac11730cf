// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httpapi serves the research inbox over HTTP: search and inbox
// endpoints backed by the orchestrator, URL research, mind map generation,
// and cache diagnostics. Error payloads use a {"detail": ...} body.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/avelasko/research-inbox/internal/cache"
	"github.com/avelasko/research-inbox/internal/mindmap"
	"github.com/avelasko/research-inbox/internal/orchestrator"
	"github.com/avelasko/research-inbox/pkg/types"
)

const (
	apiName        = "Research Inbox API"
	defaultVersion = "0.1.0"

	// maxBodyBytes caps request bodies.
	maxBodyBytes = 1 << 20

	shutdownTimeout = 10 * time.Second
)

// defaultOrigins are the development frontend origins allowed when the
// config lists none.
var defaultOrigins = []string{
	"http://localhost:3000",
	"http://127.0.0.1:3000",
	"http://localhost:3001",
	"http://127.0.0.1:3001",
}

// Orchestrator runs the research pipeline for a request state.
type Orchestrator interface {
	Run(ctx context.Context, state types.ResearchState) types.ResearchState
}

// URLResearcher produces the discovery state for a lab URL.
type URLResearcher interface {
	Research(ctx context.Context, rawURL string) types.ResearchState
}

// MindMapper generates markmap markdown from research results.
type MindMapper interface {
	Generate(ctx context.Context, req mindmap.Request) mindmap.Response
}

// CacheStatus reports cache connectivity for the diagnostics endpoint.
type CacheStatus interface {
	CheckStatus(ctx context.Context) cache.Status
}

// Server holds the API dependencies. Nil optional dependencies degrade
// the matching endpoint instead of failing startup.
type Server struct {
	Orchestrator   Orchestrator
	URLResearch    URLResearcher
	MindMap        MindMapper
	Cache          CacheStatus
	Log            *slog.Logger
	Version        string
	AllowedOrigins []string
}

// Handler builds the routed handler with CORS and request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/search", s.handleSearch)
	mux.HandleFunc("/api/inbox", s.handleSearch)
	mux.HandleFunc("/api/url-research", s.handleURLResearch)
	mux.HandleFunc("/api/mindmap", s.handleMindMap)
	mux.HandleFunc("/api/mongodb-status", s.handleMongoStatus)

	return s.logRequests(s.cors().Handler(mux))
}

// Serve runs the HTTP server on addr until ctx is canceled, then shuts
// down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       20 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger().Info("listening", "addr", addr)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serving HTTP: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutting down: %w", err)
		}
		return nil
	}
}

func (s *Server) cors() *cors.Cors {
	origins := s.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultOrigins
	}
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions, http.MethodHead, http.MethodPatch},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           3600,
	})
}

// --- handlers ---

type rootResponse struct {
	Name      string            `json:"name"`
	Version   string            `json:"version"`
	Status    string            `json:"status"`
	Endpoints map[string]string `json:"endpoints"`
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "expected GET")
		return
	}

	writeJSON(w, http.StatusOK, rootResponse{
		Name:    apiName,
		Version: s.version(),
		Status:  "running",
		Endpoints: map[string]string{
			"search":         "/api/search (GET, POST)",
			"inbox":          "/api/inbox (GET, POST)",
			"url_research":   "/api/url-research (POST)",
			"mindmap":        "/api/mindmap (POST)",
			"mongodb_status": "/api/mongodb-status (GET)",
			"health":         "/health (GET)",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "expected GET")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// searchRequest is the POST body for /api/search and /api/inbox.
type searchRequest struct {
	UserQuery  string         `json:"user_query"`
	Intent     string         `json:"intent"`
	LabURL     string         `json:"lab_url"`
	LabProfile map[string]any `json:"lab_profile"`
	TextChunks []string       `json:"text_chunks"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	if s.Orchestrator == nil {
		writeError(w, http.StatusServiceUnavailable, "search not configured")
		return
	}

	var state types.ResearchState

	switch r.Method {
	case http.MethodPost:
		var req searchRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		state = types.ResearchState{
			UserQuery:  req.UserQuery,
			Intent:     req.Intent,
			LabURL:     req.LabURL,
			LabProfile: req.LabProfile,
			TextChunks: req.TextChunks,
		}
	case http.MethodGet:
		// The search endpoint reads ?query=, the inbox alias ?user_query=;
		// both names work on both paths.
		q := r.URL.Query()
		query := q.Get("query")
		if query == "" {
			query = q.Get("user_query")
		}
		state = types.ResearchState{UserQuery: query, Intent: q.Get("intent")}
	default:
		writeError(w, http.StatusMethodNotAllowed, "expected GET or POST")
		return
	}

	result := s.Orchestrator.Run(r.Context(), state)
	writeJSON(w, http.StatusOK, orchestrator.NewResponse(result))
}

// urlResearchRequest is the POST body for /api/url-research.
type urlResearchRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleURLResearch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "expected POST")
		return
	}
	if s.URLResearch == nil {
		writeError(w, http.StatusServiceUnavailable, "URL research not configured")
		return
	}

	var req urlResearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		writeError(w, http.StatusBadRequest, "URL cannot be empty")
		return
	}

	result := s.URLResearch.Research(r.Context(), rawURL)
	writeJSON(w, http.StatusOK, orchestrator.NewResponse(result))
}

func (s *Server) handleMindMap(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "expected POST")
		return
	}
	if s.MindMap == nil {
		writeError(w, http.StatusServiceUnavailable, "mind map generator not configured")
		return
	}

	var req mindmap.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, s.MindMap.Generate(r.Context(), req))
}

// mongoStatusResponse mirrors the cache status plus a human-readable
// message about whether caching is active.
type mongoStatusResponse struct {
	Connected bool   `json:"connected"`
	URISet    bool   `json:"mongodb_uri_set"`
	Database  string `json:"database_name"`
	Message   string `json:"message"`
	Error     string `json:"error,omitempty"`
}

const (
	cacheEnabledMessage  = "MongoDB is connected and ready for caching."
	cacheDisabledMessage = "MongoDB caching is DISABLED. Results will not be persisted."
)

func (s *Server) handleMongoStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "expected GET")
		return
	}

	if s.Cache == nil {
		writeJSON(w, http.StatusOK, mongoStatusResponse{
			Message: cacheDisabledMessage,
			Error:   "cache not configured",
		})
		return
	}

	st := s.Cache.CheckStatus(r.Context())
	resp := mongoStatusResponse{
		Connected: st.Connected,
		URISet:    st.URISet,
		Database:  st.Database,
	}
	if st.Connected {
		resp.Message = cacheEnabledMessage
	} else {
		resp.Message = cacheDisabledMessage
		resp.Error = st.Error
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- middleware and helpers ---

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger().Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func (s *Server) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

func (s *Server) version() string {
	if s.Version != "" {
		return s.Version
	}
	return defaultVersion
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("decoding request JSON: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"detail":"encoding response"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
