package core

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func rbacConfig() Config {
	cfg := testConfig()
	cfg.RBAC = RBACConfig{Enabled: true, Roles: []string{"user", "admin"}}
	cfg.Social = map[string]SocialProviderConfig{
		"github": {
			Enabled:         true,
			RoleRedirectURL: EnvValue{"development": "https://app.test/pick-role"},
		},
	}
	return cfg
}

func externalIdentity() VerifiedIdentity {
	return VerifiedIdentity{
		Email:       "user@example.com",
		ProviderID:  "github",
		ExternalRef: "gh-1",
		DisplayName: "User",
	}
}

func errCategory(t *testing.T, err error) goerrors.Category {
	t.Helper()
	var richErr *goerrors.Error
	if !errors.As(err, &richErr) {
		t.Fatalf("expected *goerrors.Error, got %v", err)
	}
	return richErr.Category
}

func TestCompleteRegistersLocalIdentity(t *testing.T) {
	store := newMemoryAccountStore()
	delivery := &recordingDelivery{}
	orchestrator := newTestOrchestrator(t, testConfig(), store, delivery)

	result, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: VerifiedIdentity{Email: "User@Example.com", PasswordHash: "hash-1"},
		Channel:  RoleChannelInline,
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result.Outcome != OutcomeRegistered {
		t.Errorf("Outcome = %q", result.Outcome)
	}
	if result.Principal.Email != "user@example.com" {
		t.Errorf("Email = %q, want normalized", result.Principal.Email)
	}
	if result.Role != DefaultRole {
		t.Errorf("Role = %q, want default with rbac off", result.Role)
	}
	if result.Credential.Empty() {
		t.Error("registered outcome must carry a credential")
	}
}

func TestCompleteAuthenticatesReturningIdentity(t *testing.T) {
	store := newMemoryAccountStore()
	delivery := &recordingDelivery{}
	orchestrator := newTestOrchestrator(t, testConfig(), store, delivery)

	first, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: externalIdentity(),
		Channel:  RoleChannelDeferred,
	})
	if err != nil {
		t.Fatalf("first Complete: %v", err)
	}

	second, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: externalIdentity(),
		Channel:  RoleChannelDeferred,
	})
	if err != nil {
		t.Fatalf("second Complete: %v", err)
	}
	if second.Outcome != OutcomeAuthenticated {
		t.Errorf("Outcome = %q", second.Outcome)
	}
	if second.Principal.ID != first.Principal.ID {
		t.Errorf("principal changed between runs: %q vs %q", first.Principal.ID, second.Principal.ID)
	}
}

func TestCompleteSignupDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.SignupEnabled = false
	store := newMemoryAccountStore()
	orchestrator := newTestOrchestrator(t, cfg, store, &recordingDelivery{})

	_, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: externalIdentity(),
		Channel:  RoleChannelDeferred,
	})
	if err == nil {
		t.Fatal("expected rejection")
	}
	if got := errCategory(t, err); got != goerrors.CategoryAuthz {
		t.Errorf("category = %v, want authz", got)
	}
	if _, found, _ := store.FindByEmail(context.Background(), "user@example.com"); found {
		t.Error("rejected signup must not create a principal")
	}
}

func TestCompleteDeferredRoleLeavesPendingWithoutCredential(t *testing.T) {
	store := newMemoryAccountStore()
	delivery := &recordingDelivery{}
	orchestrator := newTestOrchestrator(t, rbacConfig(), store, delivery)
	session := NewMemorySession()

	result, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity:        externalIdentity(),
		Channel:         RoleChannelDeferred,
		Session:         session,
		RoleRedirectURL: "https://app.test/pick-role",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if result.Outcome != OutcomeRolePending {
		t.Fatalf("Outcome = %q", result.Outcome)
	}
	if !result.Credential.Empty() {
		t.Error("pending outcome must not issue a credential")
	}
	if result.RedirectURL != "https://app.test/pick-role" {
		t.Errorf("RedirectURL = %q", result.RedirectURL)
	}
	if delivery.issuedCount() != 0 {
		t.Errorf("issued = %d", delivery.issuedCount())
	}

	pending, ok := session.PendingRole()
	if !ok || pending.PrincipalID != result.Principal.ID {
		t.Fatalf("pending = %+v ok = %v", pending, ok)
	}
	if pending.ProviderID != "github" {
		t.Errorf("pending.ProviderID = %q", pending.ProviderID)
	}
}

func TestCompleteDeferredRoleRequiresRedirectTarget(t *testing.T) {
	store := newMemoryAccountStore()
	orchestrator := newTestOrchestrator(t, rbacConfig(), store, &recordingDelivery{})

	_, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: externalIdentity(),
		Channel:  RoleChannelDeferred,
		Session:  NewMemorySession(),
	})
	if err == nil {
		t.Fatal("expected rejection without redirect target")
	}
	if got := errCategory(t, err); got != goerrors.CategoryAuthz {
		t.Errorf("category = %v, want authz", got)
	}
	// The precondition fails before any account is touched.
	if _, found, _ := store.FindByEmail(context.Background(), "user@example.com"); found {
		t.Error("no principal may exist after the precondition rejection")
	}
}

func TestCompleteInlineRoleRequiredUnderRBAC(t *testing.T) {
	orchestrator := newTestOrchestrator(t, rbacConfig(), newMemoryAccountStore(), &recordingDelivery{})

	_, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: VerifiedIdentity{Email: "user@example.com", PasswordHash: "hash"},
		Channel:  RoleChannelInline,
	})
	if err == nil {
		t.Fatal("expected rejection for missing role")
	}
	if got := errCategory(t, err); got != goerrors.CategoryBadInput {
		t.Errorf("category = %v, want bad input", got)
	}
}

func TestCompleteRoleMismatchConflicts(t *testing.T) {
	store := newMemoryAccountStore()
	orchestrator := newTestOrchestrator(t, rbacConfig(), store, &recordingDelivery{})

	identity := VerifiedIdentity{Email: "user@example.com", Role: "user", PasswordHash: "hash"}
	if _, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: identity,
		Channel:  RoleChannelInline,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	identity.Role = "admin"
	_, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: identity,
		Channel:  RoleChannelInline,
	})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if got := errCategory(t, err); got != goerrors.CategoryConflict {
		t.Errorf("category = %v, want conflict", got)
	}
}

func TestCompleteMergesExternalIdentityOnce(t *testing.T) {
	store := newMemoryAccountStore()
	orchestrator := newTestOrchestrator(t, testConfig(), store, &recordingDelivery{})

	if _, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: VerifiedIdentity{Email: "user@example.com", PasswordHash: "hash"},
		Channel:  RoleChannelInline,
	}); err != nil {
		t.Fatalf("register: %v", err)
	}

	result, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: externalIdentity(),
		Channel:  RoleChannelDeferred,
	})
	if err != nil {
		t.Fatalf("merge: %v", err)
	}
	if !result.Principal.HasProviderLink("github") {
		t.Fatal("expected provider link")
	}

	rotated := externalIdentity()
	rotated.ExternalRef = "gh-rotated"
	again, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: rotated,
		Channel:  RoleChannelDeferred,
	})
	if err != nil {
		t.Fatalf("second merge: %v", err)
	}
	if again.Principal.Social["github"].ID != "gh-1" {
		t.Errorf("Social[github].ID = %q, first link must win", again.Principal.Social["github"].ID)
	}
}

func TestCompleteAttachesPasswordToSocialOnlyAccount(t *testing.T) {
	store := newMemoryAccountStore()
	orchestrator := newTestOrchestrator(t, testConfig(), store, &recordingDelivery{})

	if _, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: externalIdentity(),
		Channel:  RoleChannelDeferred,
	}); err != nil {
		t.Fatalf("social register: %v", err)
	}

	result, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: VerifiedIdentity{Email: "user@example.com", PasswordHash: "hash-1"},
		Channel:  RoleChannelInline,
	})
	if err != nil {
		t.Fatalf("attach: %v", err)
	}
	if result.Outcome != OutcomeRegistered {
		t.Errorf("Outcome = %q", result.Outcome)
	}
	if !result.Principal.HasPassword() {
		t.Error("expected password to be attached")
	}

	// A second password sign-up against the same email conflicts.
	_, err = orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: VerifiedIdentity{Email: "user@example.com", PasswordHash: "hash-2"},
		Channel:  RoleChannelInline,
	})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if got := errCategory(t, err); got != goerrors.CategoryConflict {
		t.Errorf("category = %v, want conflict", got)
	}
}

func TestAssignRoleConsumesPendingExactlyOnce(t *testing.T) {
	store := newMemoryAccountStore()
	delivery := &recordingDelivery{}
	orchestrator := newTestOrchestrator(t, rbacConfig(), store, delivery)
	session := NewMemorySession()

	pendingResult, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity:        externalIdentity(),
		Channel:         RoleChannelDeferred,
		Session:         session,
		RoleRedirectURL: "https://app.test/pick-role",
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}

	result, err := orchestrator.AssignRole(context.Background(), AssignRoleRequest{
		Role:    "admin",
		Session: session,
	})
	if err != nil {
		t.Fatalf("AssignRole: %v", err)
	}
	if result.Outcome != OutcomeRoleAssigned {
		t.Errorf("Outcome = %q", result.Outcome)
	}
	if result.Role != "admin" {
		t.Errorf("Role = %q", result.Role)
	}
	if result.Credential.Empty() {
		t.Error("assignment must issue a credential")
	}
	if len(delivery.issued) != 1 || delivery.issued[0].Role != "admin" {
		t.Errorf("issued claims = %+v, credential must reflect the new role", delivery.issued)
	}

	stored, err := store.GetByID(context.Background(), pendingResult.Principal.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if stored.Role != "admin" {
		t.Errorf("stored role = %q", stored.Role)
	}

	// The pending record is consumed: a second assignment finds nothing.
	_, err = orchestrator.AssignRole(context.Background(), AssignRoleRequest{
		Role:    "user",
		Session: session,
	})
	if err == nil {
		t.Fatal("expected not found")
	}
	if got := errCategory(t, err); got != goerrors.CategoryNotFound {
		t.Errorf("category = %v, want not found", got)
	}
}

func TestAssignRoleValidation(t *testing.T) {
	orchestrator := newTestOrchestrator(t, rbacConfig(), newMemoryAccountStore(), &recordingDelivery{})
	session := NewMemorySession()
	session.SetPendingRole(PendingRoleAssignment{PrincipalID: "missing"})

	cases := []struct {
		name     string
		req      AssignRoleRequest
		category goerrors.Category
	}{
		{
			name:     "unknown role",
			req:      AssignRoleRequest{Role: "superuser", Session: session},
			category: goerrors.CategoryBadInput,
		},
		{
			name:     "missing session",
			req:      AssignRoleRequest{Role: "admin"},
			category: goerrors.CategoryBadInput,
		},
		{
			name:     "no pending assignment",
			req:      AssignRoleRequest{Role: "admin", Session: NewMemorySession()},
			category: goerrors.CategoryNotFound,
		},
		{
			name:     "principal gone",
			req:      AssignRoleRequest{Role: "admin", Session: session},
			category: goerrors.CategoryNotFound,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := orchestrator.AssignRole(context.Background(), tc.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if got := errCategory(t, err); got != tc.category {
				t.Errorf("category = %v, want %v", got, tc.category)
			}
		})
	}
}

func TestAssignRoleWithRBACDisabled(t *testing.T) {
	orchestrator := newTestOrchestrator(t, testConfig(), newMemoryAccountStore(), &recordingDelivery{})
	_, err := orchestrator.AssignRole(context.Background(), AssignRoleRequest{
		Role:    "admin",
		Session: NewMemorySession(),
	})
	if err == nil {
		t.Fatal("expected error with rbac disabled")
	}
}

func TestNewOrchestratorRequiresStoreAndDelivery(t *testing.T) {
	if _, err := NewOrchestrator(testConfig(), WithCredentialDelivery(&recordingDelivery{})); err == nil {
		t.Fatal("expected error for missing store")
	}
	if _, err := NewOrchestrator(testConfig(), WithAccountStore(newMemoryAccountStore())); err == nil {
		t.Fatal("expected error for missing delivery")
	}
}

func TestCompleteConcurrentSignupsResolveByConstraint(t *testing.T) {
	store := newMemoryAccountStore()
	orchestrator := newTestOrchestrator(t, testConfig(), store, &recordingDelivery{})

	// Force the duplicate path: the store's uniqueness check rejects the
	// second create even though both requests resolved a miss.
	if _, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: VerifiedIdentity{Email: "user@example.com", PasswordHash: "hash"},
		Channel:  RoleChannelInline,
	}); err != nil {
		t.Fatalf("first signup: %v", err)
	}
	store.createErr = ErrEmailTaken

	_, err := orchestrator.Complete(context.Background(), CallbackRequest{
		Identity: VerifiedIdentity{Email: "other@example.com", PasswordHash: "hash"},
		Channel:  RoleChannelInline,
	})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if got := errCategory(t, err); got != goerrors.CategoryConflict {
		t.Errorf("category = %v, want conflict", got)
	}
}
