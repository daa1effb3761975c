//go:build integration

package search

import (
	"context"
	"os"
	"testing"
	"time"
)

func TestDuckDuckGoClient_Integration(t *testing.T) {
	hc, err := NewHTTPClient("")
	if err != nil {
		t.Fatalf("failed to create http client: %v", err)
	}
	client, err := NewClient(DuckDuckGo, ProviderConfig{}, hc)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	body, err := client.Search(ctx, "golang", 3)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(body) == 0 {
		t.Error("expected a response body")
	}
}

func TestKeyedClients_Integration(t *testing.T) {
	keys := map[ProviderType]string{
		Brave:        "BRAVE_API_KEY",
		Exa:          "EXA_API_KEY",
		Travily:      "TRAVILY_API_KEY",
		GoogleSerper: "GOOGLE_SERPER_API_KEY",
	}

	for p, env := range keys {
		t.Run(string(p), func(t *testing.T) {
			apiKey := os.Getenv(env)
			if apiKey == "" {
				t.Skipf("%s not set, skipping integration test", env)
			}

			hc, _ := NewHTTPClient("")
			client, err := NewClient(p, ProviderConfig{APIKey: apiKey}, hc)
			if err != nil {
				t.Fatalf("failed to create client: %v", err)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if _, err := client.Search(ctx, "what is 2+2?", 2); err != nil {
				t.Fatalf("search failed: %v", err)
			}
		})
	}
}
