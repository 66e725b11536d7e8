package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"catalog/internal/config"
	"catalog/internal/models"
	"catalog/internal/transport"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Env:              "testing",
		StoreBackend:     config.BackendMemory,
		TreeCacheBackend: config.TreeCacheStore,
		WorkerPoolSize:   4,
		ExportBatchSize:  7,
	}
}

func TestNewMemoryBackend(t *testing.T) {
	ctx := context.Background()
	a, err := New(ctx, memoryConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close(ctx)

	if got := a.Service.ExportBatchSize(); got != 7 {
		t.Errorf("export batch size = %d, want 7", got)
	}
	if err := a.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	h := a.Handler()
	req := httptest.NewRequest(http.MethodPost, "/rpc/"+transport.SubjectTree, strings.NewReader(`{}`))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("tree: got %d: %s", rr.Code, rr.Body)
	}

	var env transport.Envelope
	if err := json.NewDecoder(rr.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	var tree models.CategoryTreeCache
	if err := json.Unmarshal(env.Payload, &tree); err != nil {
		t.Fatal(err)
	}
	if len(tree.Tree) != 3 {
		t.Errorf("seeded tree has %d roots, want 3", len(tree.Tree))
	}

	entries, err := a.CacheLog.RecentEntries(ctx, 5)
	if err != nil {
		t.Fatalf("RecentEntries: %v", err)
	}
	if len(entries) == 0 {
		t.Error("seeding should have logged cache invalidations")
	}

	req = httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if !strings.Contains(rr.Body.String(), "catalog_requests_total") {
		t.Error("metrics should include the request counter")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	a, err := New(context.Background(), memoryConfig())
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := a.Close(context.Background()); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
