package methods

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/delivery"
)

type memoryStore struct {
	mu     sync.Mutex
	byID   map[string]core.Principal
	nextID int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{byID: map[string]core.Principal{}}
}

func (s *memoryStore) FindByEmail(_ context.Context, email string) (core.Principal, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.TrimSpace(strings.ToLower(email))
	for _, principal := range s.byID {
		if principal.Email == email {
			return principal, true, nil
		}
	}
	return core.Principal{}, false, nil
}

func (s *memoryStore) GetByID(_ context.Context, id string) (core.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	principal, ok := s.byID[id]
	if !ok {
		return core.Principal{}, core.ErrPrincipalNotFound
	}
	return principal, nil
}

func (s *memoryStore) Create(_ context.Context, in core.CreatePrincipalInput) (core.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.TrimSpace(strings.ToLower(in.Email))
	for _, existing := range s.byID {
		if existing.Email == email {
			return core.Principal{}, core.ErrEmailTaken
		}
	}
	s.nextID++
	principal := core.Principal{
		ID:           strconv.Itoa(s.nextID),
		Email:        email,
		PasswordHash: in.PasswordHash,
		Role:         in.Role,
		Social:       in.Social,
	}
	s.byID[principal.ID] = principal
	return principal, nil
}

func (s *memoryStore) UpdateRole(_ context.Context, id string, role string) (core.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	principal, ok := s.byID[id]
	if !ok {
		return core.Principal{}, core.ErrPrincipalNotFound
	}
	principal.Role = role
	s.byID[id] = principal
	return principal, nil
}

func (s *memoryStore) SetPassword(_ context.Context, id string, passwordHash string) (core.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	principal, ok := s.byID[id]
	if !ok {
		return core.Principal{}, core.ErrPrincipalNotFound
	}
	principal.PasswordHash = passwordHash
	s.byID[id] = principal
	return principal, nil
}

func (s *memoryStore) LinkProvider(_ context.Context, id string, providerID string, identity core.ProviderIdentity) (core.Principal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	principal, ok := s.byID[id]
	if !ok {
		return core.Principal{}, core.ErrPrincipalNotFound
	}
	if principal.Social == nil {
		principal.Social = map[string]core.ProviderIdentity{}
	}
	if existing, linked := principal.Social[providerID]; !linked || strings.TrimSpace(existing.ID) == "" {
		principal.Social[providerID] = identity
	}
	s.byID[id] = principal
	return principal, nil
}

type memorySource struct {
	cookies map[string]string
	headers map[string]string
}

func (s *memorySource) Cookie(name string) (string, bool) {
	value, ok := s.cookies[name]
	return value, ok
}

func (s *memorySource) Header(name string) (string, bool) {
	value, ok := s.headers[strings.ToLower(name)]
	return value, ok
}

type memorySink struct {
	cookies map[string]string
	cleared []string
}

func (s *memorySink) SetCookie(name string, value string, opts core.CookieOptions) {
	if s.cookies == nil {
		s.cookies = map[string]string{}
	}
	s.cookies[name] = value
}

func (s *memorySink) ClearCookie(name string, opts core.CookieOptions) {
	s.cleared = append(s.cleared, name)
	delete(s.cookies, name)
}

func baseConfig() core.Config {
	cfg := core.DefaultConfig()
	cfg.ProjectName = "authflow-test"
	cfg.Delivery.JWT.Secret = "test-secret"
	return cfg
}

func newOrchestrator(t *testing.T, cfg core.Config, opts ...core.Option) *core.Orchestrator {
	t.Helper()
	stack, err := delivery.NewStack(cfg.Delivery)
	if err != nil {
		t.Fatalf("NewStack: %v", err)
	}
	allOpts := append([]core.Option{
		core.WithAccountStore(newMemoryStore()),
		core.WithCredentialDelivery(stack),
	}, opts...)
	orchestrator, err := core.NewOrchestrator(cfg, allOpts...)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return orchestrator
}
