package records

import (
	"fmt"
	"io"

	"github.com/VictoriaMetrics/metrics"
)

// ProviderMetrics counts backend traffic for a single provider
type ProviderMetrics struct {
	set *metrics.Set
}

func newProviderMetrics(set *metrics.Set) *ProviderMetrics {
	if set == nil {
		set = metrics.NewSet()
	}
	return &ProviderMetrics{set: set}
}

func (m *ProviderMetrics) backendRead() {
	m.set.GetOrCreateCounter("blobdb_backend_reads_total").Inc()
}

func (m *ProviderMetrics) backendWrite() {
	m.set.GetOrCreateCounter("blobdb_backend_writes_total").Inc()
}

func (m *ProviderMetrics) attempt(op string) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`blobdb_write_attempts_total{op=%q}`, op)).Inc()
}

func (m *ProviderMetrics) conflict(op string) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`blobdb_write_conflicts_total{op=%q}`, op)).Inc()
}

func (m *ProviderMetrics) failure(op string) {
	m.set.GetOrCreateCounter(fmt.Sprintf(`blobdb_write_failures_total{op=%q}`, op)).Inc()
}

func (m *ProviderMetrics) cycleDuration(op string, seconds float64) {
	m.set.GetOrCreateHistogram(fmt.Sprintf(`blobdb_write_cycle_duration_seconds{op=%q}`, op)).Update(seconds)
}

// Attempts returns how many read-modify-write attempts op has made
func (m *ProviderMetrics) Attempts(op string) uint64 {
	return m.set.GetOrCreateCounter(fmt.Sprintf(`blobdb_write_attempts_total{op=%q}`, op)).Get()
}

// Conflicts returns how many write conflicts op has seen
func (m *ProviderMetrics) Conflicts(op string) uint64 {
	return m.set.GetOrCreateCounter(fmt.Sprintf(`blobdb_write_conflicts_total{op=%q}`, op)).Get()
}

// WritePrometheus writes the provider's metrics in Prometheus text format
func (m *ProviderMetrics) WritePrometheus(w io.Writer) {
	m.set.WritePrometheus(w)
}

// Reads returns how many times the backend has been read
func (m *ProviderMetrics) Reads() uint64 {
	return m.set.GetOrCreateCounter("blobdb_backend_reads_total").Get()
}

// Writes returns how many times the backend has been written
func (m *ProviderMetrics) Writes() uint64 {
	return m.set.GetOrCreateCounter("blobdb_backend_writes_total").Get()
}
