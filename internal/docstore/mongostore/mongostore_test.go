package mongostore

import (
	"context"
	"errors"
	"os"
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"catalog/internal/docstore"
)

func TestToBSON(t *testing.T) {
	tests := []struct {
		name   string
		filter docstore.Filter
		want   bson.D
	}{
		{"empty", nil, bson.D{}},
		{"eq", docstore.Where(docstore.Eq("slug", "shoes")), bson.D{{Key: "slug", Value: "shoes"}}},
		{"eq nil", docstore.Where(docstore.Eq("parent_id", nil)), bson.D{{Key: "parent_id", Value: nil}}},
		{
			"in",
			docstore.Where(docstore.In("id", "a", "b")),
			bson.D{{Key: "id", Value: bson.D{{Key: "$in", Value: bson.A{"a", "b"}}}}},
		},
		{
			"in empty",
			docstore.Where(docstore.In("id")),
			bson.D{{Key: "id", Value: bson.D{{Key: "$in", Value: bson.A{}}}}},
		},
		{"contains", docstore.Where(docstore.Contains("ancestors", "r")), bson.D{{Key: "ancestors", Value: "r"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToBSON(tt.filter); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ToBSON() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSortDoc(t *testing.T) {
	got := SortDoc([]docstore.SortField{docstore.Asc("level"), docstore.Desc("name")})
	want := bson.D{{Key: "level", Value: 1}, {Key: "name", Value: -1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SortDoc() = %v, want %v", got, want)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

type doc struct {
	ID   string `bson:"id"`
	Slug string `bson:"slug"`
	Rank int    `bson:"rank"`
}

func TestCollectionIntegration(t *testing.T) {
	client, err := Connect(envOr("MONGO_URI", "mongodb://localhost:27017"))
	if err != nil {
		t.Skipf("skipping integration test: mongo not reachable: %v", err)
	}
	ctx := context.Background()
	t.Cleanup(func() { client.Disconnect(ctx) })

	db := client.Database(envOr("MONGO_DB", "catalog_test"))
	coll := db.Collection("mongostore_test")
	coll.Drop(ctx)
	t.Cleanup(func() { coll.Drop(ctx) })

	c, err := Open[doc](ctx, db, "mongostore_test", "slug")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for _, d := range []doc{{ID: "1", Slug: "a", Rank: 2}, {ID: "2", Slug: "b", Rank: 1}} {
		d := d
		if err := c.InsertOne(ctx, &d); err != nil {
			t.Fatalf("InsertOne: %v", err)
		}
	}
	if err := c.InsertOne(ctx, &doc{ID: "3", Slug: "a"}); !errors.Is(err, docstore.ErrDuplicateKey) {
		t.Errorf("duplicate insert error = %v, want ErrDuplicateKey", err)
	}

	got, err := c.Find(ctx, nil, docstore.FindOptions{Sort: []docstore.SortField{docstore.Asc("rank")}})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(got) != 2 || got[0].ID != "2" {
		t.Errorf("Find() = %+v, want rank order", got)
	}

	miss, err := c.FindOne(ctx, docstore.Where(docstore.Eq("id", "nope")))
	if err != nil || miss != nil {
		t.Errorf("FindOne(miss) = %v, %v", miss, err)
	}

	ok, err := c.ReplaceOne(ctx, docstore.Where(docstore.Eq("id", "1")), &doc{ID: "1", Slug: "a2", Rank: 9})
	if err != nil || !ok {
		t.Errorf("ReplaceOne = %v, %v", ok, err)
	}
	n, _ := c.CountDocuments(ctx, docstore.Where(docstore.Eq("slug", "a2")))
	if n != 1 {
		t.Errorf("count after replace = %d", n)
	}
}
