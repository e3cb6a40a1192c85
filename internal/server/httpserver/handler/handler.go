// Package handler provides HTTP request handlers for vectordbd.
//
// This package implements the Upsert/Search/Query/Snapshot RPC surface
// described in spec §6 as thin JSON handlers over internal/engine.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/tinyvec/vectordb-go/internal/core/domain"
	"github.com/tinyvec/vectordb-go/internal/engine"
)

// Handler is the main HTTP handler that routes requests to the engine.
type Handler struct {
	engine *engine.Engine
	logger *slog.Logger
	mux    *http.ServeMux
}

// New creates a new Handler bound to the given engine.
func New(eng *engine.Engine, logger *slog.Logger) *Handler {
	h := &Handler{
		engine: eng,
		logger: logger,
		mux:    http.NewServeMux(),
	}

	h.registerRoutes()
	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// registerRoutes registers all HTTP routes.
func (h *Handler) registerRoutes() {
	h.mux.HandleFunc("GET /healthz", h.handleHealthz)

	h.mux.HandleFunc("POST /v1/upsert", h.handleUpsert)
	h.mux.HandleFunc("POST /v1/search", h.handleSearch)
	h.mux.HandleFunc("GET /v1/query/{id}", h.handleQuery)
	h.mux.HandleFunc("POST /v1/snapshot", h.handleSnapshot)
}

// handleUpsert handles POST /v1/upsert.
func (h *Handler) handleUpsert(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "malformed request body", nil)
		return
	}

	err := h.engine.Upsert(engine.UpsertRequest{
		ID:            req.ID,
		IndexKind:     domain.IndexKind(req.IndexKind),
		Vector:        req.Vector,
		ScalarPayload: req.ScalarPayload,
		Fields:        req.Fields,
	})
	if err != nil {
		h.handleEngineError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleSearch handles POST /v1/search.
func (h *Handler) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "malformed request body", nil)
		return
	}

	if len(req.Queries) == 0 {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "queries must be non-empty", nil)
		return
	}

	dim := len(req.Queries[0])
	flat := make([]float32, 0, len(req.Queries)*dim)
	for _, q := range req.Queries {
		if len(q) != dim {
			h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "all queries must share the same dimension", nil)
			return
		}
		flat = append(flat, q...)
	}

	var filter domain.Filter
	if req.Filter != nil {
		filter = domain.Filter{
			Field: req.Filter.Field,
			Op:    domain.FilterOp(req.Filter.Op),
			Value: req.Filter.Value,
		}
	}

	ids, distances, err := h.engine.Search(engine.SearchRequest{
		IndexKind:  domain.IndexKind(req.IndexKind),
		Query:      flat,
		NumQueries: len(req.Queries),
		K:          req.K,
		Filter:     filter,
	})
	if err != nil {
		h.handleEngineError(w, r, err)
		return
	}

	results := make([][]SearchHit, len(req.Queries))
	for q := 0; q < len(req.Queries); q++ {
		hits := make([]SearchHit, 0, req.K)
		for k := 0; k < req.K; k++ {
			idx := q*req.K + k
			id := ids[idx]
			if id < 0 {
				continue
			}
			hits = append(hits, SearchHit{ID: id, Distance: distances[idx]})
		}
		results[q] = hits
	}

	h.writeJSON(w, r, http.StatusOK, SearchResponse{Results: results})
}

// handleQuery handles GET /v1/query/{id}.
func (h *Handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		h.writeError(w, r, http.StatusBadRequest, domain.ErrInvalidArgument.Code, "id must be an integer", nil)
		return
	}

	payload, found, err := h.engine.Query(id)
	if err != nil {
		h.handleEngineError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, QueryResponse{Found: found, ScalarPayload: payload})
}

// handleSnapshot handles POST /v1/snapshot.
func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.SaveSnapshot(); err != nil {
		h.handleEngineError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, SnapshotResponse{Status: "ok"})
}

// writeJSON writes a JSON response with standard envelope format.
func (h *Handler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	requestID := getRequestID(r)
	response := NewResponse(requestID, data)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

// writeError writes an error response with standard envelope format.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	requestID := getRequestID(r)
	response := NewErrorResponse(requestID, code, message, details)

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Error-Code", code)
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

// getRequestID extracts the request ID set by the RequestID middleware.
func getRequestID(r *http.Request) string {
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		return reqID
	}
	return ""
}

// handleEngineError converts an engine error to an HTTP response.
func (h *Handler) handleEngineError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsDomainError(err, "") {
		code := domain.GetErrorCode(err)
		status := errorCodeToHTTPStatus(code)
		h.writeError(w, r, status, code, err.Error(), nil)
		return
	}

	h.logger.Error("internal error", "error", err)
	h.writeError(w, r, http.StatusInternalServerError, "VDB-SYS-5000", "internal server error", nil)
}

// errorCodeToHTTPStatus maps domain error codes to HTTP status codes.
func errorCodeToHTTPStatus(code string) int {
	switch {
	case strings.Contains(code, "NOTFOUND"):
		return http.StatusNotFound
	case strings.Contains(code, "ARG"):
		return http.StatusBadRequest
	case strings.Contains(code, "REMOVE"):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
