// Package metrics tracks what the server answered while it ran.
package metrics

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Kush-Singh-26/wasmserve/internal/router"
)

// ServeMetrics counts responses per routing branch. Safe for concurrent use.
type ServeMetrics struct {
	StartTime time.Time

	byKind      [router.KindDevPage + 1]atomic.Int64
	unsupported atomic.Int64
	preflight   atomic.Int64
	bytes       atomic.Int64
	buildEvents atomic.Int64
}

// NewServeMetrics creates a new metrics instance.
func NewServeMetrics() *ServeMetrics {
	return &ServeMetrics{
		StartTime: time.Now(),
	}
}

// RecordRoute counts one request answered through route kind k.
func (m *ServeMetrics) RecordRoute(k router.Kind) {
	if int(k) < 0 || int(k) >= len(m.byKind) {
		return
	}
	m.byKind[k].Add(1)
}

// RecordUnsupported counts a request with an unsupported method.
func (m *ServeMetrics) RecordUnsupported() {
	m.unsupported.Add(1)
}

// RecordPreflight counts an answered CORS preflight.
func (m *ServeMetrics) RecordPreflight() {
	m.preflight.Add(1)
}

// RecordBytes adds n response body bytes.
func (m *ServeMetrics) RecordBytes(n int64) {
	m.bytes.Add(n)
}

// RecordBuildEvent counts a build-state change seen by the watcher.
func (m *ServeMetrics) RecordBuildEvent() {
	m.buildEvents.Add(1)
}

// Count returns the number of requests routed to k.
func (m *ServeMetrics) Count(k router.Kind) int64 {
	if int(k) < 0 || int(k) >= len(m.byKind) {
		return 0
	}
	return m.byKind[k].Load()
}

// Unsupported returns the number of unsupported-method requests.
func (m *ServeMetrics) Unsupported() int64 { return m.unsupported.Load() }

// Preflights returns the number of answered CORS preflights.
func (m *ServeMetrics) Preflights() int64 { return m.preflight.Load() }

// Bytes returns the number of response body bytes written.
func (m *ServeMetrics) Bytes() int64 { return m.bytes.Load() }

// BuildEvents returns the number of build-state changes observed.
func (m *ServeMetrics) BuildEvents() int64 { return m.buildEvents.Load() }

// Total returns all requests seen, whatever their outcome.
func (m *ServeMetrics) Total() int64 {
	var total int64
	for i := range m.byKind {
		total += m.byKind[i].Load()
	}
	return total + m.unsupported.Load() + m.preflight.Load()
}

// Uptime returns the time since the metrics were created.
func (m *ServeMetrics) Uptime() time.Duration {
	return time.Since(m.StartTime)
}

// String returns a single-line summary.
func (m *ServeMetrics) String() string {
	var parts []string
	for _, k := range router.Kinds {
		if n := m.Count(k); n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", k, n))
		}
	}
	if n := m.Unsupported(); n > 0 {
		parts = append(parts, fmt.Sprintf("unsupported %d", n))
	}
	if n := m.Preflights(); n > 0 {
		parts = append(parts, fmt.Sprintf("preflight %d", n))
	}
	detail := ""
	if len(parts) > 0 {
		detail = " (" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprintf("📊 Served %d requests in %v%s, %s",
		m.Total(),
		m.Uptime().Round(time.Second),
		detail,
		formatBytes(m.Bytes()),
	)
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
