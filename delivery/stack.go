package delivery

import (
	"context"
	"fmt"

	"github.com/goliatone/go-authflow/core"
)

// Stack combines the configured credential channels behind the single
// CredentialDelivery contract. Channels that are disabled are skipped on
// issue and rejected on resolve; when both token and key are enabled,
// either one satisfies resolution.
type Stack struct {
	token  *TokenDelivery
	apiKey *APIKeyDelivery
}

func NewStack(cfg core.DeliveryConfig) (*Stack, error) {
	stack := &Stack{}
	if cfg.JWT.Enabled {
		token, err := NewTokenDelivery(cfg.JWT)
		if err != nil {
			return nil, err
		}
		stack.token = token
	}
	if cfg.APIKey.Enabled {
		apiKey, err := NewAPIKeyDelivery(cfg.APIKey)
		if err != nil {
			return nil, err
		}
		stack.apiKey = apiKey
	}
	if stack.token == nil && stack.apiKey == nil {
		return nil, fmt.Errorf("delivery: at least one credential channel must be enabled")
	}
	return stack, nil
}

// Token exposes the signed-token channel, or nil when disabled.
func (s *Stack) Token() *TokenDelivery {
	if s == nil {
		return nil
	}
	return s.token
}

// APIKey exposes the static-key channel, or nil when disabled.
func (s *Stack) APIKey() *APIKeyDelivery {
	if s == nil {
		return nil
	}
	return s.apiKey
}

func (s *Stack) Issue(ctx context.Context, claims core.Claims, sink core.CredentialSink) (core.IssuedCredential, error) {
	if s == nil || (s.token == nil && s.apiKey == nil) {
		return core.IssuedCredential{}, fmt.Errorf("delivery: no credential channel is enabled")
	}
	issued := core.IssuedCredential{}
	if s.token != nil {
		tokenCredential, err := s.token.Issue(ctx, claims, sink)
		if err != nil {
			return core.IssuedCredential{}, err
		}
		issued.Token = tokenCredential.Token
		issued.ExpiresIn = tokenCredential.ExpiresIn
	}
	if s.apiKey != nil {
		keyCredential, err := s.apiKey.Issue(ctx, claims, sink)
		if err != nil {
			return core.IssuedCredential{}, err
		}
		issued.APIKey = keyCredential.APIKey
	}
	return issued, nil
}

// Resolve tries the token channel first and falls back to the static key.
// An API key match yields claims carrying only the asserted role; callers
// enforcing RBAC must still validate that role.
func (s *Stack) Resolve(ctx context.Context, source core.CredentialSource) core.ResolvedCredential {
	if s == nil {
		return core.ResolvedCredential{}
	}
	if s.token != nil {
		if resolved := s.token.Resolve(ctx, source); resolved.Valid {
			return resolved
		}
	}
	if s.apiKey != nil && s.apiKey.Verify(source) {
		resolved := core.ResolvedCredential{Valid: true}
		if role, ok := s.apiKey.AssertedRole(source); ok {
			resolved.Claims.Role = role
		}
		return resolved
	}
	return core.ResolvedCredential{}
}

func (s *Stack) Revoke(sink core.CredentialSink) {
	if s == nil {
		return
	}
	s.token.Revoke(sink)
}

var _ core.CredentialDelivery = (*Stack)(nil)
var _ core.CredentialDelivery = (*TokenDelivery)(nil)
