// Package metric provides Prometheus metrics for vectordb-go.
//
// This package implements metrics collection and exposition:
//
//   - prometheus.go: metric registry and HTTP handler
//   - collector.go: a scrape-time Collector over engine stats (index size,
//     bitmap field count) that aren't worth maintaining as standing gauges
//
// Metrics are exposed at /metrics in Prometheus format.
package metric
