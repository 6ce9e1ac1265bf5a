package core

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
)

func TestAuthErrorMapperSentinels(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		category goerrors.Category
		textCode string
		status   int
	}{
		{name: "email taken", err: ErrEmailTaken, category: goerrors.CategoryConflict, textCode: AuthErrorConflict, status: http.StatusConflict},
		{name: "role mismatch", err: ErrRoleMismatch, category: goerrors.CategoryConflict, textCode: AuthErrorConflict, status: http.StatusConflict},
		{name: "principal missing", err: ErrPrincipalNotFound, category: goerrors.CategoryNotFound, textCode: AuthErrorNotFound, status: http.StatusNotFound},
		{name: "pending missing", err: ErrPendingRoleNotFound, category: goerrors.CategoryNotFound, textCode: AuthErrorNotFound, status: http.StatusNotFound},
		{name: "wrapped sentinel", err: fmt.Errorf("store: %w", ErrEmailTaken), category: goerrors.CategoryConflict, textCode: AuthErrorConflict, status: http.StatusConflict},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := authErrorMapper(tc.err)
			if mapped == nil {
				t.Fatal("expected mapped error")
			}
			if mapped.Category != tc.category {
				t.Errorf("Category = %v", mapped.Category)
			}
			if mapped.TextCode != tc.textCode {
				t.Errorf("TextCode = %q", mapped.TextCode)
			}
			if mapped.Code != tc.status {
				t.Errorf("Code = %d", mapped.Code)
			}
		})
	}
}

func TestAuthErrorMapperMessageHeuristics(t *testing.T) {
	cases := []struct {
		message  string
		category goerrors.Category
	}{
		{message: "core: signup is disabled, contact the administrator to get access", category: goerrors.CategoryAuthz},
		{message: "methods: invalid email or password", category: goerrors.CategoryAuth},
		{message: "core: role is required", category: goerrors.CategoryBadInput},
		{message: `core: role "superuser" is not a valid role`, category: goerrors.CategoryBadInput},
	}
	for _, tc := range cases {
		t.Run(tc.message, func(t *testing.T) {
			mapped := authErrorMapper(errors.New(tc.message))
			if mapped.Category != tc.category {
				t.Errorf("Category = %v, want %v", mapped.Category, tc.category)
			}
		})
	}
}

func TestAuthErrorMapperKeepsSentinelsInChain(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		sentinel error
	}{
		{name: "email taken", err: fmt.Errorf("store: %w", ErrEmailTaken), sentinel: ErrEmailTaken},
		{name: "role mismatch", err: ErrRoleMismatch, sentinel: ErrRoleMismatch},
		{name: "pending missing", err: fmt.Errorf("session: %w", ErrPendingRoleNotFound), sentinel: ErrPendingRoleNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mapped := authErrorMapper(tc.err)
			if !errors.Is(mapped, tc.sentinel) {
				t.Fatalf("mapped error %v lost sentinel %v", mapped, tc.sentinel)
			}
		})
	}
}

func TestAuthErrorMapperPreservesRichErrors(t *testing.T) {
	original := goerrors.New("custom", goerrors.CategoryAuthz).WithTextCode("CUSTOM_CODE")
	mapped := authErrorMapper(original)
	if mapped.TextCode != "CUSTOM_CODE" {
		t.Errorf("TextCode = %q, existing envelope must survive", mapped.TextCode)
	}
	if mapped.Code != http.StatusForbidden {
		t.Errorf("Code = %d, missing status must be filled in", mapped.Code)
	}
}

func TestAuthErrorMapperNil(t *testing.T) {
	if authErrorMapper(nil) != nil {
		t.Fatal("nil must map to nil")
	}
}
