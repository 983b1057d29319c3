package metrics

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Kush-Singh-26/wasmserve/internal/router"
)

func TestNewServeMetrics(t *testing.T) {
	m := NewServeMetrics()

	if m.StartTime.IsZero() {
		t.Error("StartTime should be set")
	}

	if m.Total() != 0 {
		t.Errorf("Total should be 0, got %d", m.Total())
	}

	if m.Bytes() != 0 {
		t.Errorf("Bytes should be 0, got %d", m.Bytes())
	}
}

func TestRecordRoute(t *testing.T) {
	m := NewServeMetrics()
	m.RecordRoute(router.KindWasm)
	m.RecordRoute(router.KindWasm)
	m.RecordRoute(router.KindApp)
	m.RecordRoute(router.KindNotFound)
	m.RecordRoute(router.Kind(42))
	m.RecordUnsupported()
	m.RecordPreflight()

	if got := m.Count(router.KindWasm); got != 2 {
		t.Errorf("Count(wasm) = %d, want 2", got)
	}
	if got := m.Count(router.KindApp); got != 1 {
		t.Errorf("Count(app) = %d, want 1", got)
	}
	if got := m.Count(router.Kind(42)); got != 0 {
		t.Errorf("Count(out of range) = %d, want 0", got)
	}
	if got := m.Total(); got != 6 {
		t.Errorf("Total = %d, want 6", got)
	}
}

func TestConcurrentRecording(t *testing.T) {
	m := NewServeMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordRoute(router.KindStatic)
			m.RecordBytes(10)
		}()
	}
	wg.Wait()

	if got := m.Count(router.KindStatic); got != 50 {
		t.Errorf("Count(static) = %d, want 50", got)
	}
	if got := m.Bytes(); got != 500 {
		t.Errorf("Bytes = %d, want 500", got)
	}
}

func TestUptime(t *testing.T) {
	m := NewServeMetrics()
	m.StartTime = time.Now().Add(-2 * time.Second)
	if d := m.Uptime(); d < 2*time.Second {
		t.Errorf("Uptime() = %v, want >= 2s", d)
	}
}

func TestString(t *testing.T) {
	m := NewServeMetrics()
	m.RecordRoute(router.KindStatic)
	m.RecordRoute(router.KindNotFound)
	m.RecordUnsupported()
	m.RecordBytes(2048)

	s := m.String()
	for _, want := range []string{"Served 3 requests", "static 1", "notfound 1", "unsupported 1", "2.0 KiB"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() = %q, missing %q", s, want)
		}
	}
	if strings.Contains(s, "wasm") {
		t.Errorf("String() = %q, should omit zero counters", s)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
