// Package logger provides structured logging for vectordb-go.
//
// This package wraps log/slog for structured logging:
//
//   - logger.go: handler configuration and the global default logger
//   - context.go: context-aware logging with request/trace IDs
//
// Features:
//
//   - JSON and text output formats
//   - Dynamic log level adjustment
//   - Context propagation for request tracing
package logger
