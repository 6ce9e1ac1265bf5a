package platform

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-authflow/core"
)

// Flow drives the delegated variant end to end: prompt, code exchange,
// directory reconciliation, session ledger append, and credential
// issuance. The credential carries the user-project relation id and the
// platform session id; no local principal exists in this variant.
type Flow struct {
	config    core.Config
	client    IdentityClient
	directory Directory
	ledger    *SessionLedger
	delivery  core.CredentialDelivery
	logger    core.Logger
}

type FlowOption func(*Flow)

func WithFlowLogger(logger core.Logger) FlowOption {
	return func(f *Flow) {
		if logger != nil {
			f.logger = logger
		}
	}
}

func NewFlow(cfg core.Config, client IdentityClient, directory Directory, delivery core.CredentialDelivery, opts ...FlowOption) (*Flow, error) {
	if !cfg.Platform.Enabled {
		return nil, fmt.Errorf("platform: platform variant is not enabled")
	}
	if client == nil {
		return nil, fmt.Errorf("platform: identity client is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("platform: directory is required")
	}
	if delivery == nil {
		return nil, fmt.Errorf("platform: credential delivery is required")
	}
	ledger, err := NewSessionLedger(directory)
	if err != nil {
		return nil, err
	}
	flow := &Flow{
		config:    cfg,
		client:    client,
		directory: directory,
		ledger:    ledger,
		delivery:  delivery,
		logger:    glog.Ensure(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(flow)
		}
	}
	return flow, nil
}

// promptState rides the authorization round trip so Callback knows which
// project and requested role the prompt was issued for.
type promptState struct {
	Project string `json:"project"`
	Role    string `json:"role,omitempty"`
}

func encodePromptState(state promptState) (string, error) {
	payload, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("platform: encode state: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(payload), nil
}

func decodePromptState(raw string) (promptState, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return promptState{}, nil
	}
	payload, err := base64.RawURLEncoding.DecodeString(raw)
	if err != nil {
		return promptState{}, fmt.Errorf("platform: decode state: %w", err)
	}
	var state promptState
	if err := json.Unmarshal(payload, &state); err != nil {
		return promptState{}, fmt.Errorf("platform: parse state: %w", err)
	}
	return state, nil
}

// Prompt returns the platform's consent URL for the environment-resolved
// redirect target. A non-empty role is validated against the configured
// role set and carried through the state payload, so the callback can
// create the relation with the role the sign-up asked for.
func (f *Flow) Prompt(role string) (string, error) {
	if f == nil || f.client == nil {
		return "", fmt.Errorf("platform: flow is not configured")
	}
	role = strings.TrimSpace(role)
	if role != "" && f.config.Platform.RBAC.Enabled {
		if _, ok := f.config.Platform.RBAC.Find(role); !ok {
			return "", goerrors.New(
				fmt.Sprintf("platform: role %q is not a valid role", role),
				goerrors.CategoryBadInput,
			).WithTextCode(core.AuthErrorValidation)
		}
	}
	redirect := f.config.Platform.RedirectURL.Resolve(f.config.Environment())
	if redirect == "" {
		return "", fmt.Errorf("platform: no redirect url configured for environment %q", f.config.Environment())
	}
	state, err := encodePromptState(promptState{
		Project: f.config.ProjectName,
		Role:    role,
	})
	if err != nil {
		return "", err
	}
	return f.client.AuthorizationURL(redirect, state)
}

// Callback exchanges the code, reconciles the directory records, appends
// the platform session to the relation ledger, and issues the credential.
// The state payload produced by Prompt names the role a first-time
// relation is created with; an empty state falls back to the default.
func (f *Flow) Callback(ctx context.Context, code string, state string, sink core.CredentialSink) (core.AuthResult, error) {
	if f == nil || f.client == nil {
		return core.AuthResult{}, fmt.Errorf("platform: flow is not configured")
	}
	if strings.TrimSpace(code) == "" {
		return core.AuthResult{}, goerrors.New("platform: authorization code is required", goerrors.CategoryBadInput).
			WithTextCode(core.AuthErrorValidation)
	}
	prompted, err := decodePromptState(state)
	if err != nil {
		return core.AuthResult{}, goerrors.Wrap(err, goerrors.CategoryBadInput, "platform: malformed state payload").
			WithTextCode(core.AuthErrorValidation)
	}

	session, err := f.client.Authenticate(ctx, code)
	if err != nil {
		return core.AuthResult{}, goerrors.Wrap(err, goerrors.CategoryAuth, "platform: code exchange failed").
			WithTextCode(core.AuthErrorUnauthorized)
	}

	sessionID, err := SessionIDFromAccessToken(session.AccessToken)
	if err != nil {
		// The session handle only feeds the ledger and logout; a token
		// without one still authenticates.
		f.logger.Info("platform session id unavailable", "error", err)
		sessionID = ""
	}

	user, found, err := f.directory.FindUserByPlatformID(ctx, session.PlatformUserID)
	if err != nil {
		return core.AuthResult{}, err
	}
	registered := false
	if !found {
		if !f.config.Platform.SignupEnabled {
			return core.AuthResult{}, goerrors.New(
				"platform: signup is disabled, contact the administrator to get access",
				goerrors.CategoryAuthz,
			).WithTextCode(core.AuthErrorForbidden)
		}
		user, err = f.directory.CreateUser(ctx, DirectoryUser{
			PlatformUserID: session.PlatformUserID,
			Email:          strings.TrimSpace(strings.ToLower(session.Email)),
			FirstName:      session.FirstName,
			LastName:       session.LastName,
		})
		if err != nil {
			return core.AuthResult{}, err
		}
		registered = true
	}

	project, err := f.directory.EnsureProject(ctx, f.config.ProjectName)
	if err != nil {
		return core.AuthResult{}, err
	}

	relation, found, err := f.directory.FindRelation(ctx, user.ID, project.ID)
	if err != nil {
		return core.AuthResult{}, err
	}
	if !found {
		// A user without a relation to this project is still signing up,
		// even when the directory already knows them from another project.
		if !f.config.Platform.SignupEnabled {
			return core.AuthResult{}, goerrors.New(
				"platform: signup is disabled, contact the administrator to get access",
				goerrors.CategoryAuthz,
			).WithTextCode(core.AuthErrorForbidden)
		}
		role, err := f.roleSpecFor(prompted.Role)
		if err != nil {
			return core.AuthResult{}, err
		}
		relation, err = f.directory.CreateRelation(ctx, core.ProjectRelation{
			UserID:         user.ID,
			ProjectID:      project.ID,
			PlatformUserID: session.PlatformUserID,
			Role:           role,
		})
		if err != nil {
			return core.AuthResult{}, err
		}
		registered = true
	}

	if sessionID != "" {
		relation, err = f.ledger.AppendSession(ctx, relation.ID, sessionID)
		if err != nil {
			return core.AuthResult{}, err
		}
	}

	credential, err := f.delivery.Issue(ctx, core.Claims{
		RelationID: relation.ID,
		SessionID:  sessionID,
	}, sink)
	if err != nil {
		return core.AuthResult{}, err
	}

	outcome := core.OutcomeAuthenticated
	if registered {
		outcome = core.OutcomeRegistered
	}
	f.logger.Info("platform callback completed",
		"outcome", string(outcome),
		"relation_id", relation.ID,
	)
	return core.AuthResult{
		Outcome:    outcome,
		Role:       relation.Role.Name,
		Credential: credential,
		RelationID: relation.ID,
		SessionID:  sessionID,
	}, nil
}

// Validate resolves and verifies the request credential. Any resolution
// failure is unauthorized; there is no fallback channel here.
func (f *Flow) Validate(ctx context.Context, source core.CredentialSource) (core.Claims, error) {
	if f == nil || f.delivery == nil {
		return core.Claims{}, fmt.Errorf("platform: flow is not configured")
	}
	resolved := f.delivery.Resolve(ctx, source)
	if !resolved.Valid {
		return core.Claims{}, goerrors.New("platform: unauthorized", goerrors.CategoryAuth).
			WithTextCode(core.AuthErrorUnauthorized)
	}
	return resolved.Claims, nil
}

// RoleFor fetches the relation behind a validated credential and maps its
// role name onto the configured role set, yielding the permissions.
func (f *Flow) RoleFor(ctx context.Context, claims core.Claims) (core.RoleSpec, error) {
	if f == nil || f.directory == nil {
		return core.RoleSpec{}, fmt.Errorf("platform: flow is not configured")
	}
	relation, err := f.directory.GetRelation(ctx, claims.RelationID)
	if err != nil {
		return core.RoleSpec{}, err
	}
	if !f.config.Platform.RBAC.Enabled {
		return relation.Role, nil
	}
	spec, ok := f.config.Platform.RBAC.Find(relation.Role.Name)
	if !ok {
		return core.RoleSpec{}, goerrors.New(
			fmt.Sprintf("platform: role %q is not a valid role", relation.Role.Name),
			goerrors.CategoryAuthz,
		).WithTextCode(core.AuthErrorForbidden)
	}
	return spec, nil
}

// Logout revokes the local credential and returns the platform's logout
// URL for the session, so the host can finish the platform-side logout
// with a redirect.
func (f *Flow) Logout(ctx context.Context, source core.CredentialSource, sink core.CredentialSink) (string, error) {
	if f == nil || f.delivery == nil {
		return "", fmt.Errorf("platform: flow is not configured")
	}
	resolved := f.delivery.Resolve(ctx, source)
	f.delivery.Revoke(sink)
	if !resolved.Valid {
		return "", goerrors.New("platform: unauthorized", goerrors.CategoryAuth).
			WithTextCode(core.AuthErrorUnauthorized)
	}
	return f.client.LogoutURL(resolved.Claims.SessionID)
}

// roleSpecFor maps a requested role onto the configured role set. The
// state payload crosses the third-party redirect, so the role is
// re-validated here rather than trusted from Prompt.
func (f *Flow) roleSpecFor(requested string) (core.RoleSpec, error) {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return f.defaultRoleSpec(), nil
	}
	rbac := f.config.Platform.RBAC
	if !rbac.Enabled {
		return core.RoleSpec{Name: requested}, nil
	}
	spec, ok := rbac.Find(requested)
	if !ok {
		return core.RoleSpec{}, goerrors.New(
			fmt.Sprintf("platform: role %q is not a valid role", requested),
			goerrors.CategoryBadInput,
		).WithTextCode(core.AuthErrorValidation)
	}
	return spec, nil
}

func (f *Flow) defaultRoleSpec() core.RoleSpec {
	rbac := f.config.Platform.RBAC
	if !rbac.Enabled {
		return core.RoleSpec{Name: core.DefaultRole}
	}
	if spec, ok := rbac.Find(core.DefaultRole); ok {
		return spec
	}
	if len(rbac.Roles) > 0 {
		return rbac.Roles[0]
	}
	return core.RoleSpec{Name: core.DefaultRole}
}
