package methods

import (
	"context"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-authflow/core"
)

// Password handles local email/password flows. Password verification
// happens here; the orchestrator only ever sees a verified identity.
type Password struct {
	orchestrator *core.Orchestrator
	hasher       core.PasswordHasher
}

type PasswordOption func(*Password)

func WithHasher(hasher core.PasswordHasher) PasswordOption {
	return func(p *Password) {
		if hasher != nil {
			p.hasher = hasher
		}
	}
}

func NewPassword(orchestrator *core.Orchestrator, opts ...PasswordOption) (*Password, error) {
	if orchestrator == nil {
		return nil, fmt.Errorf("methods: orchestrator is required")
	}
	method := &Password{
		orchestrator: orchestrator,
		hasher:       BcryptHasher{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(method)
		}
	}
	return method, nil
}

type SignUpRequest struct {
	Email    string
	Password string
	Role     string
	Session  core.SessionContext
	Sink     core.CredentialSink
}

type SignInRequest struct {
	Email    string
	Password string
	Sink     core.CredentialSink
}

// SignUp registers a new local account, or attaches a password to an
// existing social-only account with the same email. An account that
// already has a password conflicts.
func (p *Password) SignUp(ctx context.Context, req SignUpRequest) (core.AuthResult, error) {
	if p == nil || p.orchestrator == nil {
		return core.AuthResult{}, fmt.Errorf("methods: password method is not configured")
	}
	if err := requireCredentials(req.Email, req.Password); err != nil {
		return core.AuthResult{}, err
	}

	hash, err := p.hasher.Hash(req.Password)
	if err != nil {
		return core.AuthResult{}, err
	}

	return p.orchestrator.Complete(ctx, core.CallbackRequest{
		Identity: core.VerifiedIdentity{
			Email:        req.Email,
			Role:         req.Role,
			PasswordHash: hash,
		},
		Channel: core.RoleChannelInline,
		Session: req.Session,
		Sink:    req.Sink,
	})
}

// SignIn verifies the password against the stored hash and issues a
// fresh credential. Unknown email, social-only account, and wrong
// password are indistinguishable to the caller.
func (p *Password) SignIn(ctx context.Context, req SignInRequest) (core.AuthResult, error) {
	if p == nil || p.orchestrator == nil {
		return core.AuthResult{}, fmt.Errorf("methods: password method is not configured")
	}
	if err := requireCredentials(req.Email, req.Password); err != nil {
		return core.AuthResult{}, err
	}

	email := strings.TrimSpace(strings.ToLower(req.Email))
	principal, found, err := p.orchestrator.Accounts().FindByEmail(ctx, email)
	if err != nil {
		return core.AuthResult{}, err
	}
	if !found || !principal.HasPassword() || !p.hasher.Compare(principal.PasswordHash, req.Password) {
		return core.AuthResult{}, invalidCredentials()
	}

	return p.orchestrator.Complete(ctx, core.CallbackRequest{
		Identity: core.VerifiedIdentity{Email: email},
		Channel:  core.RoleChannelInline,
		Sink:     req.Sink,
	})
}

// Authenticate resolves and verifies the request credential, then checks
// the carried role against the configured role set when RBAC is on.
func (p *Password) Authenticate(ctx context.Context, source core.CredentialSource) (core.Claims, error) {
	if p == nil || p.orchestrator == nil {
		return core.Claims{}, fmt.Errorf("methods: password method is not configured")
	}
	resolved := p.orchestrator.Delivery().Resolve(ctx, source)
	if !resolved.Valid {
		return core.Claims{}, unauthorized()
	}
	rbac := p.orchestrator.Config().RBAC
	if rbac.Enabled && !rbac.Allows(resolved.Claims.Role) {
		return core.Claims{}, goerrors.New(
			"methods: role is not allowed",
			goerrors.CategoryAuthz,
		).WithTextCode(core.AuthErrorForbidden)
	}
	return resolved.Claims, nil
}

// SignOut revokes the cookie-carried credential. Header and API key
// consumers revoke by discarding their copy.
func (p *Password) SignOut(sink core.CredentialSink) {
	if p == nil || p.orchestrator == nil {
		return
	}
	p.orchestrator.Delivery().Revoke(sink)
}

func requireCredentials(email string, password string) error {
	if strings.TrimSpace(email) == "" {
		return goerrors.New("methods: email is required", goerrors.CategoryBadInput).
			WithTextCode(core.AuthErrorValidation)
	}
	if strings.TrimSpace(password) == "" {
		return goerrors.New("methods: password is required", goerrors.CategoryBadInput).
			WithTextCode(core.AuthErrorValidation)
	}
	return nil
}

func invalidCredentials() error {
	return goerrors.New("methods: invalid email or password", goerrors.CategoryAuth).
		WithTextCode(core.AuthErrorUnauthorized)
}

func unauthorized() error {
	return goerrors.New("methods: unauthorized", goerrors.CategoryAuth).
		WithTextCode(core.AuthErrorUnauthorized)
}
