package slug

import "testing"

func TestGenerate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"simple two words", "Home Appliances", "home-appliances"},
		{"single word", "Electronics", "electronics"},
		{"ampersand", "Bath & Body", "bath-body"},
		{"punctuation", "Kids' Toys, Games!", "kids-toys-games"},
		{"accents stripped", "Café Equipment", "caf-equipment"},
		{"leading and trailing spaces", "  Garden  ", "garden"},
		{"tabs and newlines", "Office\tSupplies\nDesk", "office-supplies-desk"},
		{"multiple hyphens", "Sports -- Outdoor", "sports-outdoor"},
		{"numbers kept", "4K TVs 2026", "4k-tvs-2026"},
		{"slashes removed", "Cables/Adapters", "cablesadapters"},
		{"empty", "", ""},
		{"only symbols", "!@#$%", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Generate(tt.input); got != tt.want {
				t.Errorf("Generate(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestGenerateIdempotent(t *testing.T) {
	for _, in := range []string{"Gaming Laptops", "Bath & Body", "4K TVs"} {
		once := Generate(in)
		if twice := Generate(once); twice != once {
			t.Errorf("Generate not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestChild(t *testing.T) {
	tests := []struct {
		parent, name, want string
	}{
		{"", "Electronics", "electronics"},
		{"/electronics", "Computers", "/electronics/computers"},
		{"electronics/", "Gaming Laptops", "electronics/gaming-laptops"},
	}
	for _, tt := range tests {
		if got := Child(tt.parent, tt.name); got != tt.want {
			t.Errorf("Child(%q, %q) = %q, want %q", tt.parent, tt.name, got, tt.want)
		}
	}
}
