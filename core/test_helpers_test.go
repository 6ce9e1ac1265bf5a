package core

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memoryAccountStore struct {
	mu        sync.Mutex
	byID      map[string]Principal
	nextID    int
	createErr error
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{byID: map[string]Principal{}}
}

func (s *memoryAccountStore) FindByEmail(_ context.Context, email string) (Principal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.TrimSpace(strings.ToLower(email))
	for _, principal := range s.byID {
		if principal.Email == email {
			return principal, true, nil
		}
	}
	return Principal{}, false, nil
}

func (s *memoryAccountStore) GetByID(_ context.Context, id string) (Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	principal, ok := s.byID[id]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	return principal, nil
}

func (s *memoryAccountStore) Create(_ context.Context, in CreatePrincipalInput) (Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return Principal{}, s.createErr
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	for _, existing := range s.byID {
		if existing.Email == email {
			return Principal{}, ErrEmailTaken
		}
	}
	s.nextID++
	principal := Principal{
		ID:           strconv.Itoa(s.nextID),
		Email:        email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if len(in.Social) > 0 {
		principal.Social = map[string]ProviderIdentity{}
		for providerID, identity := range in.Social {
			principal.Social[providerID] = identity
		}
	}
	s.byID[principal.ID] = principal
	return principal, nil
}

func (s *memoryAccountStore) UpdateRole(_ context.Context, id string, role string) (Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	principal, ok := s.byID[id]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	principal.Role = role
	s.byID[id] = principal
	return principal, nil
}

func (s *memoryAccountStore) SetPassword(_ context.Context, id string, passwordHash string) (Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	principal, ok := s.byID[id]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	principal.PasswordHash = passwordHash
	s.byID[id] = principal
	return principal, nil
}

func (s *memoryAccountStore) LinkProvider(_ context.Context, id string, providerID string, identity ProviderIdentity) (Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	principal, ok := s.byID[id]
	if !ok {
		return Principal{}, ErrPrincipalNotFound
	}
	if principal.Social == nil {
		principal.Social = map[string]ProviderIdentity{}
	}
	if existing, linked := principal.Social[providerID]; !linked || strings.TrimSpace(existing.ID) == "" {
		principal.Social[providerID] = identity
	}
	s.byID[id] = principal
	return principal, nil
}

type recordingDelivery struct {
	mu       sync.Mutex
	issued   []Claims
	issueErr error
	resolve  ResolvedCredential
	revoked  int
}

func (d *recordingDelivery) Issue(_ context.Context, claims Claims, _ CredentialSink) (IssuedCredential, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.issueErr != nil {
		return IssuedCredential{}, d.issueErr
	}
	d.issued = append(d.issued, claims)
	return IssuedCredential{Token: "token-" + claims.Subject}, nil
}

func (d *recordingDelivery) Resolve(_ context.Context, _ CredentialSource) ResolvedCredential {
	return d.resolve
}

func (d *recordingDelivery) Revoke(_ CredentialSink) {
	d.mu.Lock()
	d.revoked++
	d.mu.Unlock()
}

func (d *recordingDelivery) issuedCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.issued)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ProjectName = "authflow-test"
	cfg.Delivery.JWT.Secret = "test-secret"
	return cfg
}

func newTestOrchestrator(t interface{ Fatalf(string, ...any) }, cfg Config, store AccountStore, delivery CredentialDelivery) *Orchestrator {
	orchestrator, err := NewOrchestrator(cfg,
		WithAccountStore(store),
		WithCredentialDelivery(delivery),
	)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return orchestrator
}
