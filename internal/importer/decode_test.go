package importer

import (
	"strings"
	"testing"
)

func TestDecodeNestedYAML(t *testing.T) {
	in := `
categories:
  - slug: electronics
    name: Electronics
    children:
      - name: Computers
        display_order: 2
        children:
          - slug: laptops
            name: Laptops
            is_active: false
      - slug: phones
        name: Phones
        seo:
          meta_title: Mobile Phones
          keywords: [mobile, android]
  - slug: fashion
    name: Fashion
`
	items, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	want := []struct{ slug, parent string }{
		{"electronics", ""},
		{"electronics/computers", "electronics"},
		{"laptops", "electronics/computers"},
		{"phones", "electronics"},
		{"fashion", ""},
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, w := range want {
		if items[i].Slug != w.slug || items[i].ParentSlug != w.parent {
			t.Errorf("item %d = %s (parent %q), want %s (parent %q)",
				i, items[i].Slug, items[i].ParentSlug, w.slug, w.parent)
		}
	}

	if items[1].DisplayOrder != 2 {
		t.Errorf("computers display_order = %d", items[1].DisplayOrder)
	}
	if items[2].IsActive == nil || *items[2].IsActive {
		t.Error("laptops is_active should decode as false")
	}
	if seo := items[3].SEO; seo == nil || seo.MetaTitle != "Mobile Phones" || len(seo.Keywords) != 2 {
		t.Errorf("phones seo = %+v", items[3].SEO)
	}
}

func TestDecodeJSONList(t *testing.T) {
	in := `[
		{"slug": "b", "name": "B", "parent_slug": "a"},
		{"slug": "a", "name": "A", "short_description": "first"}
	]`
	items, err := Decode(strings.NewReader(in))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(items) != 2 || items[0].ParentSlug != "a" || items[1].ShortDescription != "first" {
		t.Errorf("items = %+v", items)
	}
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		in   string
	}{
		{"scalar", "just a string"},
		{"malformed", "categories: [unclosed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(strings.NewReader(tt.in)); err == nil {
				t.Error("expected error")
			}
		})
	}

	items, err := Decode(strings.NewReader(""))
	if err != nil || len(items) != 0 {
		t.Errorf("empty input = %v, %v", items, err)
	}
}
