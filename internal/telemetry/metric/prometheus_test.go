package metric

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistry(t *testing.T) {
	r := NewRegistry()
	if r == nil {
		t.Fatal("NewRegistry() returned nil")
	}
	if r.UpsertsTotal == nil {
		t.Error("UpsertsTotal is nil")
	}
	if r.SearchesTotal == nil {
		t.Error("SearchesTotal is nil")
	}
	if r.LastSnapshotLogID == nil {
		t.Error("LastSnapshotLogID is nil")
	}
}

func TestHandlerServesMetrics(t *testing.T) {
	r := NewRegistry()
	r.UpsertsTotal.Add(3)
	r.SearchesTotal.WithLabelValues("FLAT").Inc()
	r.LastSnapshotLogID.Set(42)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	body, _ := io.ReadAll(rec.Body)
	bodyStr := string(body)

	if !strings.Contains(bodyStr, "vectordb_engine_upserts_total 3") {
		t.Errorf("expected vectordb_engine_upserts_total 3, got body:\n%s", bodyStr)
	}
	if !strings.Contains(bodyStr, `vectordb_engine_searches_total{index_kind="FLAT"} 1`) {
		t.Error("expected vectordb_engine_searches_total for FLAT")
	}
	if !strings.Contains(bodyStr, "vectordb_persistence_last_snapshot_log_id 42") {
		t.Error("expected vectordb_persistence_last_snapshot_log_id 42")
	}
}

func TestRegistererUsableByOtherCollectors(t *testing.T) {
	r := NewRegistry()
	if err := r.Registerer().Register(NewCollector(fakeStats{}, "FLAT")); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, req)

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), `vectordb_annindex_size{index_kind="FLAT"} 7`) {
		t.Errorf("expected vectordb_annindex_size for FLAT, got body:\n%s", string(body))
	}
}

type fakeStats struct{}

func (fakeStats) IndexSize(kind string) int64 { return 7 }
func (fakeStats) BitmapFields() int           { return 2 }
