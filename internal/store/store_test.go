// store_test.go provides shared helpers for the category store tests. Unit
// tests run against the in-memory collection; the PostgreSQL variant is
// skipped when no database is reachable.
package store

import (
	"context"
	"os"
	"sync"
	"testing"

	"catalog/internal/database"
	"catalog/internal/docstore"
	"catalog/internal/docstore/memstore"
	"catalog/internal/docstore/pgstore"
	"catalog/internal/models"
)

// countingInvalidator records how often the tree snapshot was dropped.
type countingInvalidator struct {
	mu sync.Mutex
	n  int
}

func (c *countingInvalidator) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	return nil
}

func (c *countingInvalidator) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func newTestStore(t *testing.T) (*CategoryStore, *countingInvalidator) {
	t.Helper()
	inv := &countingInvalidator{}
	coll := memstore.New[models.Category](models.FieldSlug)
	return NewCategoryStore(coll, inv, nil), inv
}

// mustCreate creates a category and fails the test on error.
func mustCreate(t *testing.T, s *CategoryStore, slug, name string, parent *models.Category) *models.Category {
	t.Helper()
	c := &models.Category{Slug: slug, Name: name, IsActive: true}
	if parent != nil {
		id := parent.ID
		c.ParentID = &id
	}
	if err := s.Create(context.Background(), c); err != nil {
		t.Fatalf("Create(%s): %v", slug, err)
	}
	return c
}

// mustGet reloads a category by id.
func mustGet(t *testing.T, s *CategoryStore, id string) *models.Category {
	t.Helper()
	c, err := s.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("Get(%s): %v", id, err)
	}
	if c == nil {
		t.Fatalf("Get(%s): not found", id)
	}
	return c
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDSN returns the PostgreSQL connection string for integration tests.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "catalog")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "catalog")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

// pgCollection opens the categories table, skipping the test when
// PostgreSQL is unavailable. Rows the test creates are removed on cleanup.
func pgCollection(t *testing.T) docstore.Collection[models.Category] {
	t.Helper()
	db, err := database.Connect(testDSN())
	if err != nil {
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}
	coll, err := pgstore.New[models.Category](db, database.CategoriesTable)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return coll
}
