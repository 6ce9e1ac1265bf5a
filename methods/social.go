package methods

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-authflow/core"
)

// Social handles the return leg of a provider redirect: the host has
// already exchanged the code and fetched the profile; this façade
// normalizes it and runs the deferred-role flow.
type Social struct {
	orchestrator *core.Orchestrator
}

func NewSocial(orchestrator *core.Orchestrator) (*Social, error) {
	if orchestrator == nil {
		return nil, fmt.Errorf("methods: orchestrator is required")
	}
	return &Social{orchestrator: orchestrator}, nil
}

type SocialCallbackRequest struct {
	ProviderID string
	Profile    map[string]any
	Session    core.SessionContext
	Sink       core.CredentialSink
}

type AssignRoleRequest struct {
	Role    string
	Session core.SessionContext
	Sink    core.CredentialSink
}

// authorizeURLBuilder is implemented by descriptor-backed providers; the
// registry contract itself stays minimal.
type authorizeURLBuilder interface {
	AuthorizationURL(redirectURI string, state string, scopes []string) (string, error)
}

// BeginURL builds the consent redirect for a registered provider using
// the environment-resolved callback URL and configured scope overrides.
func (s *Social) BeginURL(providerID string, state string) (string, error) {
	if s == nil || s.orchestrator == nil {
		return "", fmt.Errorf("methods: social method is not configured")
	}
	provider, cfg, err := s.lookup(providerID)
	if err != nil {
		return "", err
	}
	builder, ok := provider.(authorizeURLBuilder)
	if !ok {
		return "", fmt.Errorf("methods: provider %q does not build authorization urls", provider.ID())
	}
	env := s.orchestrator.Config().Environment()
	return builder.AuthorizationURL(cfg.CallbackURL.Resolve(env), state, cfg.Scopes)
}

// Callback normalizes the provider profile and completes the flow on the
// deferred role channel: a first-time caller under RBAC ends up pending
// with a redirect instead of a credential.
func (s *Social) Callback(ctx context.Context, req SocialCallbackRequest) (core.AuthResult, error) {
	if s == nil || s.orchestrator == nil {
		return core.AuthResult{}, fmt.Errorf("methods: social method is not configured")
	}
	provider, cfg, err := s.lookup(req.ProviderID)
	if err != nil {
		return core.AuthResult{}, err
	}

	identity, err := provider.Identity(req.Profile)
	if err != nil {
		return core.AuthResult{}, goerrors.New(err.Error(), goerrors.CategoryBadInput).
			WithTextCode(core.AuthErrorValidation)
	}

	env := s.orchestrator.Config().Environment()
	return s.orchestrator.Complete(ctx, core.CallbackRequest{
		Identity:        identity,
		Channel:         core.RoleChannelDeferred,
		Session:         req.Session,
		Sink:            req.Sink,
		RoleRedirectURL: cfg.RoleRedirectURL.Resolve(env),
	})
}

// AssignRole finishes a deferred sign-up by consuming the pending
// assignment left in the caller's session.
func (s *Social) AssignRole(ctx context.Context, req AssignRoleRequest) (core.AuthResult, error) {
	if s == nil || s.orchestrator == nil {
		return core.AuthResult{}, fmt.Errorf("methods: social method is not configured")
	}
	return s.orchestrator.AssignRole(ctx, core.AssignRoleRequest{
		Role:    req.Role,
		Session: req.Session,
		Sink:    req.Sink,
	})
}

func (s *Social) lookup(providerID string) (core.Provider, core.SocialProviderConfig, error) {
	providerID = strings.TrimSpace(strings.ToLower(providerID))
	provider, ok := s.orchestrator.Registry().Get(providerID)
	if !ok {
		return nil, core.SocialProviderConfig{}, goerrors.New(
			fmt.Sprintf("methods: provider %q is not registered", providerID),
			goerrors.CategoryNotFound,
		).WithTextCode(core.AuthErrorNotFound)
	}
	cfg, ok := s.orchestrator.Config().SocialProvider(providerID)
	if ok && !cfg.Enabled {
		return nil, core.SocialProviderConfig{}, goerrors.New(
			fmt.Sprintf("methods: provider %q is disabled", providerID),
			goerrors.CategoryAuthz,
		).WithTextCode(core.AuthErrorForbidden)
	}
	return provider, cfg, nil
}
