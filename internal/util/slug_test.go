package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		// Basic normalization
		{"lowercase", "DUNE", "dune"},
		{"spaces to dashes", "project hail mary", "project-hail-mary"},
		{"underscores to dashes", "hail_mary", "hail-mary"},
		{"already normalized", "hail-mary", "hail-mary"},

		// Whitespace handling
		{"trim whitespace", "  dune  ", "dune"},
		{"multiple spaces", "hail   mary", "hail-mary"},
		{"tabs and spaces", "hail\t mary", "hail-mary"},

		// Special characters
		{"colon removal", "Dune: Part Two", "dune-part-two"},
		{"slash to dash", "sci-fi/fantasy", "sci-fi-fantasy"},
		{"apostrophe removal", "Ender's Game", "enders-game"},
		{"emoji removal", "🐾 Pawprints!", "pawprints"},

		// Dash handling
		{"multiple dashes", "hail--mary", "hail-mary"},
		{"leading dashes", "--dune", "dune"},
		{"trailing dashes", "dune--", "dune"},
		{"mixed dashes", "--hail--mary--", "hail-mary"},

		// Edge cases
		{"empty string", "", ""},
		{"only spaces", "   ", ""},
		{"only special chars", "!@#$%", ""},
		{"numbers allowed", "1984", "1984"},
		{"mixed case with numbers", "Fahrenheit 451", "fahrenheit-451"},

		// Real-world titles
		{"long title", "The Warmth of Other Suns", "the-warmth-of-other-suns"},
		{"subtitle", "Braiding Sweetgrass: Indigenous Wisdom", "braiding-sweetgrass-indigenous-wisdom"},
		{"mixed case", "CloudAtlas", "cloudatlas"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Slugify(tt.input)
			if result != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
