// Package httpserver provides the HTTP front end for vectordbd.
package httpserver

import (
	"log/slog"
	"net/http"

	"github.com/tinyvec/vectordb-go/internal/engine"
	"github.com/tinyvec/vectordb-go/internal/server/httpserver/handler"
)

// RouterConfig holds configuration for the HTTP router.
type RouterConfig struct {
	// Engine serves the Upsert/Search/Query/Snapshot RPC surface.
	Engine *engine.Engine

	// Logger for request logging.
	Logger *slog.Logger

	// MetricsHandler serves GET /metrics, if non-nil.
	MetricsHandler http.Handler

	// CORSAllowedOrigins is the list of allowed CORS origins (empty = no CORS middleware is installed).
	CORSAllowedOrigins []string

	// EnableAudit enables audit logging for all requests.
	EnableAudit bool
}

// NewRouter creates and configures the HTTP router with all routes and middleware.
func NewRouter(cfg *RouterConfig) http.Handler {
	h := handler.New(cfg.Engine, cfg.Logger)

	var mainHandler http.Handler = h

	if cfg.EnableAudit {
		mainHandler = Audit(cfg.Logger)(mainHandler)
	}

	mainHandler = RequestID()(mainHandler)

	if len(cfg.CORSAllowedOrigins) > 0 {
		mainHandler = CORS(cfg.CORSAllowedOrigins)(mainHandler)
	}

	mainHandler = Recover(cfg.Logger)(mainHandler)

	mux := http.NewServeMux()

	// Health endpoint - no middleware overhead beyond request ID and recovery.
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		Chain(h, RequestID(), Recover(cfg.Logger)).ServeHTTP(w, r)
	})

	if cfg.MetricsHandler != nil {
		mux.Handle("GET /metrics", cfg.MetricsHandler)
	}

	mux.Handle("POST /v1/upsert", mainHandler)
	mux.Handle("POST /v1/search", mainHandler)
	mux.Handle("GET /v1/query/{id}", mainHandler)
	mux.Handle("POST /v1/snapshot", mainHandler)

	return mux
}

// DefaultRouterConfig returns default router configuration.
func DefaultRouterConfig() *RouterConfig {
	return &RouterConfig{
		EnableAudit: true,
	}
}
