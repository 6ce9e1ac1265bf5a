package github

import (
	"strings"
	"testing"
)

func TestNormalizeNumericID(t *testing.T) {
	provider, err := New(Config{ClientID: "client"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	identity, err := provider.Identity(map[string]any{
		"id":    float64(583231),
		"login": "octocat",
		"name":  "The Octocat",
		"email": "octocat@github.com",
	})
	if err != nil {
		t.Fatalf("Identity: %v", err)
	}
	if identity.ExternalRef != "583231" {
		t.Errorf("ExternalRef = %q", identity.ExternalRef)
	}
	if identity.DisplayName != "The Octocat" {
		t.Errorf("DisplayName = %q", identity.DisplayName)
	}
	if identity.ProviderID != ProviderID {
		t.Errorf("ProviderID = %q", identity.ProviderID)
	}
}

func TestNormalizePrivateEmail(t *testing.T) {
	provider, err := New(Config{ClientID: "client"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	_, err = provider.Identity(map[string]any{"id": float64(1), "login": "ghost"})
	if err == nil {
		t.Fatal("expected error for missing email")
	}
	if !strings.Contains(err.Error(), "user:email") {
		t.Errorf("error should point at the missing scope: %v", err)
	}
}

func TestDefaultScopes(t *testing.T) {
	provider, err := New(Config{ClientID: "client"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	scopes := provider.DefaultScopes()
	if len(scopes) != 2 || scopes[0] != "read:user" || scopes[1] != "user:email" {
		t.Fatalf("DefaultScopes = %v", scopes)
	}
}
