package apilocale

import "testing"

func TestBaseLang(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"en", "en"},
		{"en_US", "en"},
		{"en-GB", "en"},
		{"FR", "fr"},
		{" de ", "de"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := BaseLang(tt.code); got != tt.expected {
				t.Errorf("BaseLang(%q) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestSameLanguage(t *testing.T) {
	if !SameLanguage("fr", "fr_FR") || !SameLanguage("fr", "FR-be") {
		t.Error("French variants should share a base language")
	}
	if SameLanguage("fr", "en") {
		t.Error("fr and en should differ")
	}
}

func TestGetLanguageName(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"en", "English"},
		{"de_DE", "German"},
		{"xx", "xx"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := GetLanguageName(tt.code); got != tt.expected {
				t.Errorf("GetLanguageName(%q) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestGetDirection(t *testing.T) {
	tests := []struct {
		code     string
		expected string
	}{
		{"ar", "rtl"},
		{"ar_SA", "rtl"},
		{"he-IL", "rtl"},
		{"en", "ltr"},
		{"fr_FR", "ltr"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := GetDirection(tt.code); got != tt.expected {
				t.Errorf("GetDirection(%q) = %q, want %q", tt.code, got, tt.expected)
			}
		})
	}
}

func TestMatchAcceptLanguage(t *testing.T) {
	supported := []string{"fr", "en", "de"}

	tests := []struct {
		header   string
		expected string
	}{
		{"en-US,en;q=0.9", "en"},
		{"de-CH;q=0.8, en;q=0.5", "de"},
		{"fr-FR", "fr"},
		{"", ""},
		{"!!!", ""},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			if got := MatchAcceptLanguage(tt.header, supported); got != tt.expected {
				t.Errorf("MatchAcceptLanguage(%q) = %q, want %q", tt.header, got, tt.expected)
			}
		})
	}
}
