package search

import (
	"errors"
	"testing"
)

func TestParseProviderType(t *testing.T) {
	tests := []struct {
		in   string
		want ProviderType
	}{
		{"bing", Bing},
		{"Google", Google},
		{"serper", GoogleSerper},
		{"google_serper", GoogleSerper},
		{"ddg", DuckDuckGo},
		{"tavily", Travily},
		{" baidu ", Baidu},
		{"custom:MyEngine", Custom("myengine")},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProviderType(tt.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestParseProviderType_Unknown(t *testing.T) {
	_, err := ParseProviderType("altavista")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if validationErr.Field != "engine" {
		t.Errorf("expected field engine, got %q", validationErr.Field)
	}
}

func TestCustomProviderType(t *testing.T) {
	p := Custom("Intranet")
	if !p.IsCustom() {
		t.Error("expected custom provider")
	}
	if p.String() != "custom:intranet" {
		t.Errorf("unexpected name %q", p)
	}
	if Bing.IsCustom() {
		t.Error("bing is not custom")
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"webquery": ModeWeb,
		"web":      ModeWeb,
		"APIQUERY": ModeAPI,
		"api":      ModeAPI,
	} {
		got, err := ParseMode(in)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("%s: expected %s, got %s", in, want, got)
		}
	}

	if _, err := ParseMode("carrier-pigeon"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestQuery_Validate(t *testing.T) {
	tests := []struct {
		name      string
		query     Query
		wantField string
	}{
		{"valid", Query{Text: "go", Limit: 1, Mode: ModeWeb}, ""},
		{"empty text", Query{Text: "  ", Limit: 5, Mode: ModeWeb}, "query"},
		{"zero limit", Query{Text: "go", Limit: 0, Mode: ModeAPI}, "limit"},
		{"negative limit", Query{Text: "go", Limit: -2, Mode: ModeAPI}, "limit"},
		{"no mode", Query{Text: "go", Limit: 5}, "mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if validationErr.Field != tt.wantField {
				t.Errorf("expected field %q, got %q", tt.wantField, validationErr.Field)
			}
		})
	}
}

func TestProviderConfig_QueryURL(t *testing.T) {
	got, err := ProviderConfig{}.QueryURL(Bing, "rust programming")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://www.bing.com/search?q=rust+programming" {
		t.Errorf("unexpected url %s", got)
	}

	got, err = ProviderConfig{QueryPattern: "https://search.local/?s={query}&lang=en"}.QueryURL(Custom("x"), "a&b")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://search.local/?s=a%26b&lang=en" {
		t.Errorf("unexpected url %s", got)
	}
}

func TestProviderConfig_QueryURL_MissingPlaceholder(t *testing.T) {
	_, err := ProviderConfig{}.QueryURL(Travily, "go")

	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestProviderConfig_HasKey(t *testing.T) {
	if (ProviderConfig{APIKey: "   "}).HasKey() {
		t.Error("blank key should not count")
	}
	if !(ProviderConfig{APIKey: "k"}).HasKey() {
		t.Error("expected key")
	}
}
