// Package httpserver provides the HTTP front end for vectordbd.
//
// This package implements the RPC surface described in spec §6 as thin
// JSON handlers over stdlib net/http:
//
//   - POST /v1/upsert
//   - POST /v1/search
//   - GET  /v1/query/{id}
//   - POST /v1/snapshot
//   - GET  /healthz
//   - GET  /metrics
//
// Features:
//
//   - Graceful shutdown via http.Server.Shutdown
//   - Request ID propagation and panic recovery middleware
//   - Prometheus metrics mounted from a handler supplied by the caller
//
// The front end carries no business logic: every handler decodes a
// request, calls a single internal/engine method, and encodes the
// response.
package httpserver
