package barcode

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"075596082921", "075596082921"},
		{"07559-6082921", "075596082921"},
		{" 0 7559 608292 1 ", "075596082921"},
		{"UPC: 7206-4244-2524", "720642442524"},
		{"abc", ""},
		{"", ""},
		{"１２３4", "4"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.raw); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
		}
		if again := Normalize(Normalize(tt.raw)); again != tt.want {
			t.Errorf("Normalize not idempotent for %q: %q", tt.raw, again)
		}
	}
}

func TestValid(t *testing.T) {
	tests := []struct {
		code string
		want bool
	}{
		{"075596082921", true},
		{"0000000", false},
		{"0", false},
		{"", false},
		{"00001", true},
	}
	for _, tt := range tests {
		if got := Valid(tt.code); got != tt.want {
			t.Errorf("Valid(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestRelated(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"075678235320", "075678235320", true},
		{"0075678235320", "075678235320", true},
		{"075678235320", "7567823532", true},
		{"075678235320", "731453429529", false},
		{"", "075678235320", false},
	}
	for _, tt := range tests {
		if got := Related(tt.a, tt.b); got != tt.want {
			t.Errorf("Related(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
