// Package handler provides HTTP request handlers for vectordbd.
//
// This package contains handlers for all HTTP endpoints:
//
//   - handler.go: Upsert, Search, Query, Snapshot
//   - health.go: liveness check
//
// All handlers follow a consistent pattern:
//
//   - Decode and validate the request
//   - Call the single matching internal/engine method
//   - Encode the response, or map the engine error to an HTTP status
package handler
