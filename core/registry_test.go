package core

import "testing"

type staticProvider struct {
	id string
}

func (p staticProvider) ID() string              { return p.id }
func (p staticProvider) DefaultScopes() []string { return nil }
func (p staticProvider) Identity(map[string]any) (VerifiedIdentity, error) {
	return VerifiedIdentity{}, nil
}

func TestProviderRegistry(t *testing.T) {
	registry := NewProviderRegistry()

	if err := registry.Register(staticProvider{id: "GitHub"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := registry.Register(staticProvider{id: "github"}); err == nil {
		t.Fatal("duplicate id must be rejected")
	}
	if err := registry.Register(nil); err == nil {
		t.Fatal("nil provider must be rejected")
	}
	if err := registry.Register(staticProvider{}); err == nil {
		t.Fatal("empty id must be rejected")
	}

	if _, ok := registry.Get("GITHUB"); !ok {
		t.Fatal("lookup must be case-insensitive")
	}
	if _, ok := registry.Get("google"); ok {
		t.Fatal("unknown provider must miss")
	}

	if err := registry.Register(staticProvider{id: "apple"}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	// List orders by the normalized id but providers keep the id they
	// registered with.
	listed := registry.List()
	if len(listed) != 2 || listed[0].ID() != "apple" || listed[1].ID() != "GitHub" {
		t.Fatalf("List order = %v", listed)
	}
}
