package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveRequest("category.get", "Ok", time.Millisecond)
	c.ImportItem("created")
	c.TreeRebuilt(3, true)
	c.TreeRebuildFailed()
	c.CacheLookup(true)
	if c.Registry() != nil {
		t.Error("nil collector returned a registry")
	}
}

func TestCounters(t *testing.T) {
	c := New("catalog_test")

	c.ObserveRequest("category.get", "Ok", time.Millisecond)
	c.ObserveRequest("category.get", "Ok", time.Millisecond)
	c.ObserveRequest("category.get", "NotFound", time.Millisecond)
	c.CacheLookup(false)
	c.TreeRebuilt(7, false)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"ok requests", testutil.ToFloat64(c.requests.WithLabelValues("category.get", "Ok")), 2},
		{"not found requests", testutil.ToFloat64(c.requests.WithLabelValues("category.get", "NotFound")), 1},
		{"cache misses", testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")), 1},
		{"superseded rebuilds", testutil.ToFloat64(c.treeRebuilds.WithLabelValues("superseded")), 1},
		{"tree nodes", testutil.ToFloat64(c.treeNodes), 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New("catalog_test")
	c.ImportItem("failed")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `catalog_test_import_items_total{outcome="failed"} 1`) {
		t.Errorf("import counter missing from output")
	}
}
