package core

import (
	"context"
	"fmt"
	"strings"
)

// AccountResolver finds or creates principals and reconciles returning
// identities against the stored account. It never holds long-lived
// references to principals; everything round-trips through the store.
type AccountResolver struct {
	store AccountStore
	rbac  RBACConfig
}

func NewAccountResolver(store AccountStore, rbac RBACConfig) *AccountResolver {
	return &AccountResolver{store: store, rbac: rbac}
}

func (r *AccountResolver) Resolve(ctx context.Context, email string) (Principal, bool, error) {
	if r == nil || r.store == nil {
		return Principal{}, false, fmt.Errorf("core: account store is not configured")
	}
	email = normalizeEmail(email)
	if email == "" {
		return Principal{}, false, fmt.Errorf("core: email is required")
	}
	return r.store.FindByEmail(ctx, email)
}

// CreateLocal registers a password-backed principal. The store's email
// uniqueness constraint resolves concurrent sign-ups: the second create
// surfaces ErrEmailTaken.
func (r *AccountResolver) CreateLocal(ctx context.Context, email, passwordHash, role string) (Principal, error) {
	if r == nil || r.store == nil {
		return Principal{}, fmt.Errorf("core: account store is not configured")
	}
	if strings.TrimSpace(passwordHash) == "" {
		return Principal{}, fmt.Errorf("core: password hash is required")
	}
	return r.store.Create(ctx, CreatePrincipalInput{
		Email:        normalizeEmail(email),
		PasswordHash: passwordHash,
		Role:         defaultedRole(role),
	})
}

// CreateFromExternal registers a principal first seen through a social
// provider, storing the provider sub-identity alongside it.
func (r *AccountResolver) CreateFromExternal(ctx context.Context, identity VerifiedIdentity, role string) (Principal, error) {
	if r == nil || r.store == nil {
		return Principal{}, fmt.Errorf("core: account store is not configured")
	}
	providerID := normalizeProviderID(identity.ProviderID)
	if providerID == "" {
		return Principal{}, fmt.Errorf("core: provider id is required")
	}
	if strings.TrimSpace(identity.ExternalRef) == "" {
		return Principal{}, fmt.Errorf("core: external reference is required")
	}
	return r.store.Create(ctx, CreatePrincipalInput{
		Email: normalizeEmail(identity.Email),
		Role:  defaultedRole(role),
		Social: map[string]ProviderIdentity{
			providerID: {ID: identity.ExternalRef, DisplayName: identity.DisplayName},
		},
	})
}

// MergeExternalIdentity links a provider sub-identity onto an existing
// principal. First link wins: an already-linked provider is never
// overwritten, even when the upstream id has rotated. That tolerates id
// rotation at the cost of staleness.
func (r *AccountResolver) MergeExternalIdentity(ctx context.Context, principal Principal, identity VerifiedIdentity) (Principal, error) {
	if r == nil || r.store == nil {
		return Principal{}, fmt.Errorf("core: account store is not configured")
	}
	providerID := normalizeProviderID(identity.ProviderID)
	if providerID == "" {
		return Principal{}, fmt.Errorf("core: provider id is required")
	}
	if principal.HasProviderLink(providerID) {
		return principal, nil
	}
	return r.store.LinkProvider(ctx, principal.ID, providerID, ProviderIdentity{
		ID:          identity.ExternalRef,
		DisplayName: identity.DisplayName,
	})
}

// CheckRole signals a conflict when a returning principal asserts a role
// that differs from its stored role. The stored role never changes here;
// conflict is distinct from "already registered".
func (r *AccountResolver) CheckRole(principal Principal, asserted string) error {
	if r == nil || !r.rbac.Enabled {
		return nil
	}
	asserted = strings.TrimSpace(asserted)
	if asserted == "" {
		return nil
	}
	if strings.TrimSpace(principal.Role) != asserted {
		return ErrRoleMismatch
	}
	return nil
}

// AttachPassword adds a local credential to a principal that so far only
// authenticated through social providers.
func (r *AccountResolver) AttachPassword(ctx context.Context, principal Principal, passwordHash string) (Principal, error) {
	if r == nil || r.store == nil {
		return Principal{}, fmt.Errorf("core: account store is not configured")
	}
	if principal.HasPassword() {
		return Principal{}, ErrEmailTaken
	}
	return r.store.SetPassword(ctx, principal.ID, passwordHash)
}

func defaultedRole(role string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		return DefaultRole
	}
	return role
}
