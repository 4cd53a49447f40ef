// Package handler exposes the search engine over HTTP: query execution,
// query analysis, document lookup, similarity, suggestions, and statistics.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kingxl111/search-engine/internal/cache"
	"github.com/kingxl111/search-engine/internal/search"
	pkgerrors "github.com/kingxl111/search-engine/pkg/errors"
	"github.com/kingxl111/search-engine/pkg/logger"
)

// Handler serves the search API. The cache is optional; without it queries
// go straight to the engine.
type Handler struct {
	engine *search.Engine
	cache  *cache.QueryCache
	logger *slog.Logger
}

// New creates a Handler.
func New(engine *search.Engine, queryCache *cache.QueryCache) *Handler {
	return &Handler{
		engine: engine,
		cache:  queryCache,
		logger: logger.WithComponent("http"),
	}
}

// RegisterRoutes attaches all API routes to the mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /search", h.handleSearch)
	mux.HandleFunc("POST /search/batch", h.handleBatchSearch)
	mux.HandleFunc("GET /analyze", h.handleAnalyze)
	mux.HandleFunc("GET /suggest", h.handleSuggest)
	mux.HandleFunc("GET /documents/{id}", h.handleDocument)
	mux.HandleFunc("GET /documents/{id}/similar", h.handleSimilar)
	mux.HandleFunc("GET /documents/{id}/matches", h.handleMatches)
	mux.HandleFunc("GET /stats", h.handleStats)
}

func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter 'q'")
		return
	}
	limit := intParam(r, "limit", 0)

	var result search.SearchResult
	if h.cache != nil {
		result = h.cache.Search(r.Context(), q, limit, func() search.SearchResult {
			return h.engine.Search(r.Context(), q, limit)
		})
	} else {
		result = h.engine.Search(r.Context(), q, limit)
	}

	status := http.StatusOK
	if !result.Valid {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

type batchRequest struct {
	Queries []string `json:"queries"`
	Limit   int      `json:"limit"`
}

func (h *Handler) handleBatchSearch(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Queries) == 0 {
		writeError(w, http.StatusBadRequest, "no queries given")
		return
	}
	results, err := h.engine.BatchSearch(r.Context(), req.Queries, req.Limit)
	if err != nil {
		h.logger.Error("batch search failed", "error", err)
		writeError(w, pkgerrors.HTTPStatusCode(err), "batch search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter 'q'")
		return
	}
	info := h.engine.AnalyzeQuery(q)
	status := http.StatusOK
	if !info.Valid {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, info)
}

func (h *Handler) handleSuggest(w http.ResponseWriter, r *http.Request) {
	prefix := r.URL.Query().Get("prefix")
	if prefix == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter 'prefix'")
		return
	}
	limit := intParam(r, "limit", 10)
	suggestions := h.engine.SuggestTerms(prefix, limit)
	if suggestions == nil {
		suggestions = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"prefix":      prefix,
		"suggestions": suggestions,
	})
}

func (h *Handler) docID(w http.ResponseWriter, r *http.Request) (uint32, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return 0, false
	}
	return uint32(id), true
}

func (h *Handler) handleDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.docID(w, r)
	if !ok {
		return
	}
	doc, err := h.engine.Document(id)
	if err != nil {
		writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleSimilar(w http.ResponseWriter, r *http.Request) {
	id, ok := h.docID(w, r)
	if !ok {
		return
	}
	limit := intParam(r, "limit", 10)
	hits, err := h.engine.FindSimilar(id, limit)
	if err != nil {
		writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
		return
	}
	if hits == nil {
		hits = []search.Hit{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": id, "similar": hits})
}

func (h *Handler) handleMatches(w http.ResponseWriter, r *http.Request) {
	id, ok := h.docID(w, r)
	if !ok {
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeError(w, http.StatusBadRequest, "missing query parameter 'q'")
		return
	}
	matches, err := h.engine.DocumentMatches(q, id)
	if err != nil {
		writeError(w, pkgerrors.HTTPStatusCode(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"doc_id": id, "query": q, "matches": matches})
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := h.engine.Stats()
	payload := map[string]any{
		"queries": stats,
	}
	if h.cache != nil {
		hits, misses := h.cache.Stats()
		payload["cache"] = map[string]uint64{"hits": hits, "misses": misses}
	}
	writeJSON(w, http.StatusOK, payload)
}

func intParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return fallback
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encoding response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
