package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kerbaras/mangasync/pkg/data"
	"github.com/kerbaras/mangasync/pkg/services"
)

var _ services.MetricsCollector = (*Collector)(nil)

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			match := true
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					match = false
				}
			}
			if match {
				return m.GetCounter().GetValue()
			}
		}
	}
	t.Fatalf("%s%v not found", name, labels)
	return 0
}

func TestNewCollector_ReturnsNonNil(t *testing.T) {
	reg := prometheus.NewRegistry()
	if NewCollector(reg) == nil {
		t.Fatal("expected non-nil Collector")
	}
}

func TestRecordFetch_CountsPerServiceAndOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordFetch(data.Anilist, data.OutcomeSuccess)
	c.RecordFetch(data.Anilist, data.OutcomeSuccess)
	c.RecordFetch(data.Anilist, data.OutcomeNotFound)

	if v := counterValue(t, reg, "mangasync_fetch_total", map[string]string{"service": "al", "outcome": "success"}); v != 2 {
		t.Errorf("fetch success = %v, want 2", v)
	}
	if v := counterValue(t, reg, "mangasync_fetch_total", map[string]string{"service": "al", "outcome": "not_found"}); v != 1 {
		t.Errorf("fetch not_found = %v, want 1", v)
	}
}

func TestRecordPush(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordPush(data.MangaDex, data.OutcomeMissingToken)

	if v := counterValue(t, reg, "mangasync_push_total", map[string]string{"service": "md", "outcome": "missing_token"}); v != 1 {
		t.Errorf("push missing_token = %v, want 1", v)
	}
}

func TestRecordSyncDuration_ObservesHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordSyncDuration(150 * time.Millisecond)

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() == "mangasync_sync_duration_seconds" {
			h := mf.GetMetric()[0].GetHistogram()
			if h.GetSampleCount() != 1 {
				t.Errorf("sample count = %d, want 1", h.GetSampleCount())
			}
			return
		}
	}
	t.Error("mangasync_sync_duration_seconds metric not found")
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordPush(data.Anilist, data.OutcomeCreated)

	path := filepath.Join(t.TempDir(), "mangasync.prom")
	if err := WriteTextfile(path, reg); err != nil {
		t.Fatalf("WriteTextfile() error = %v", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read textfile: %v", err)
	}
	if !strings.Contains(string(content), `mangasync_push_total{outcome="created",service="al"} 1`) {
		t.Errorf("unexpected textfile content:\n%s", content)
	}
}
