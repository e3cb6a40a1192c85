package metric

import "github.com/prometheus/client_golang/prometheus"

// StatsSource is implemented by the engine to expose point-in-time counts
// that are cheap to compute but not worth updating on every mutation; the
// Collector pulls them only when a scrape happens.
type StatsSource interface {
	// IndexSize returns the current vector count for the named index kind.
	IndexSize(kind string) int64
	// BitmapFields returns the number of distinct attribute fields
	// currently tracked by the bitmap index.
	BitmapFields() int
}

var (
	indexSizeDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "annindex", "size"),
		"Number of vectors currently held by an ANN index, labeled by index kind.",
		[]string{"index_kind"}, nil,
	)
	bitmapFieldsDesc = prometheus.NewDesc(
		prometheus.BuildFQName(namespace, "bitmap", "fields"),
		"Number of distinct attribute fields tracked by the bitmap index.",
		nil, nil,
	)
)

// Collector adapts a StatsSource to prometheus.Collector, computing its
// values at scrape time rather than maintaining them as standing gauges.
type Collector struct {
	source StatsSource
	kinds  []string
}

// NewCollector builds a Collector that reports IndexSize for each of kinds.
func NewCollector(source StatsSource, kinds ...string) *Collector {
	return &Collector{source: source, kinds: kinds}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- indexSizeDesc
	ch <- bitmapFieldsDesc
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, kind := range c.kinds {
		ch <- prometheus.MustNewConstMetric(indexSizeDesc, prometheus.GaugeValue, float64(c.source.IndexSize(kind)), kind)
	}
	ch <- prometheus.MustNewConstMetric(bitmapFieldsDesc, prometheus.GaugeValue, float64(c.source.BitmapFields()))
}
