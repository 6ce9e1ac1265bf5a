package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Orchestrator is the provider-agnostic decision procedure: given a
// verified identity it resolves the account, gates the role, and issues a
// session credential. Account resolution and role gating always precede
// issuance; a rejected or pending run never issues a credential, and a
// rejection ends the run unconditionally.
type Orchestrator struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	registry        Registry
	accounts        AccountStore
	resolver        *AccountResolver
	gate            RoleGate
	delivery        CredentialDelivery
}

// CallbackRequest carries a verified identity into the orchestrator. The
// façade resolves the role redirect target from provider configuration;
// Session and Sink are the caller's session and response capabilities.
type CallbackRequest struct {
	Identity        VerifiedIdentity
	Channel         RoleChannel
	Session         SessionContext
	Sink            CredentialSink
	RoleRedirectURL string
}

type AssignRoleRequest struct {
	Role    string
	Session SessionContext
	Sink    CredentialSink
}

func NewOrchestrator(cfg Config, opts ...Option) (*Orchestrator, error) {
	builder := defaultBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("authflow", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("authflow"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.registry == nil {
		builder.registry = NewProviderRegistry()
	}

	resolved := cfg
	if builder.configProvider != nil {
		loaded, err := builder.configProvider.Load(context.Background(), DefaultConfig())
		if err != nil {
			return nil, err
		}
		if builder.optionsResolver != nil {
			merged, err := builder.optionsResolver.Resolve(DefaultConfig(), loaded, cfg)
			if err != nil {
				return nil, err
			}
			resolved = merged
		} else {
			resolved = loaded
		}
	}
	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	if builder.accountStore == nil {
		return nil, fmt.Errorf("core: account store is required")
	}
	if builder.delivery == nil {
		return nil, fmt.Errorf("core: credential delivery is required")
	}

	return &Orchestrator{
		config:          resolved,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		registry:        builder.registry,
		accounts:        builder.accountStore,
		resolver:        NewAccountResolver(builder.accountStore, resolved.RBAC),
		gate:            NewRoleGate(resolved.RBAC),
		delivery:        builder.delivery,
	}, nil
}

func (o *Orchestrator) Config() Config {
	if o == nil {
		return Config{}
	}
	return o.config
}

func (o *Orchestrator) Registry() Registry {
	if o == nil {
		return nil
	}
	return o.registry
}

func (o *Orchestrator) Delivery() CredentialDelivery {
	if o == nil {
		return nil
	}
	return o.delivery
}

func (o *Orchestrator) Accounts() AccountStore {
	if o == nil {
		return nil
	}
	return o.accounts
}

// Complete drives a verified identity through resolution, reconciliation,
// role gating, and credential issuance.
func (o *Orchestrator) Complete(ctx context.Context, req CallbackRequest) (result AuthResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider_id": req.Identity.ProviderID,
		"channel":     string(req.Channel),
	}
	defer func() {
		if result.Outcome != "" {
			fields["outcome"] = string(result.Outcome)
		}
		o.observeOperation(ctx, startedAt, "complete", err, fields)
	}()

	if err = req.Identity.Validate(); err != nil {
		return AuthResult{}, o.mapError(err)
	}

	principal, found, err := o.resolver.Resolve(ctx, req.Identity.Email)
	if err != nil {
		return AuthResult{}, o.mapError(err)
	}

	if !found {
		return o.register(ctx, req)
	}
	return o.reconcile(ctx, req, principal)
}

func (o *Orchestrator) register(ctx context.Context, req CallbackRequest) (AuthResult, error) {
	if !o.config.SignupEnabled {
		return AuthResult{}, o.mapError(
			goerrors.New(
				"core: signup is disabled, contact the administrator to get access",
				goerrors.CategoryAuthz,
			).WithTextCode(AuthErrorForbidden),
		)
	}

	decision, err := o.gate.Admit(req.Identity.Role, req.Channel)
	if err != nil {
		return AuthResult{}, o.mapError(err)
	}

	// Deferred RBAC must have somewhere to send the caller afterwards;
	// reject before any principal exists.
	if decision.Deferred {
		if strings.TrimSpace(req.RoleRedirectURL) == "" {
			return AuthResult{}, o.mapError(
				goerrors.New(
					"core: rbac is enabled but no role redirect target is configured for deferred sign-up",
					goerrors.CategoryAuthz,
				).WithTextCode(AuthErrorForbidden),
			)
		}
		if req.Session == nil {
			return AuthResult{}, o.mapError(fmt.Errorf("core: session context is required for deferred role assignment"))
		}
	}

	var principal Principal
	if req.Identity.External() {
		principal, err = o.resolver.CreateFromExternal(ctx, req.Identity, decision.Role)
	} else {
		principal, err = o.resolver.CreateLocal(ctx, req.Identity.Email, req.Identity.PasswordHash, decision.Role)
	}
	if err != nil {
		return AuthResult{}, o.mapError(err)
	}

	if decision.Deferred {
		req.Session.SetPendingRole(PendingRoleAssignment{
			PrincipalID: principal.ID,
			ProviderID:  req.Identity.ProviderID,
			CreatedAt:   time.Now().UTC(),
		})
		return AuthResult{
			Outcome:     OutcomeRolePending,
			Principal:   principal,
			Role:        principal.Role,
			PendingID:   principal.ID,
			RedirectURL: req.RoleRedirectURL,
		}, nil
	}

	credential, err := o.issue(ctx, Claims{Subject: principal.ID, Role: principal.Role}, req.Sink)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		Outcome:    OutcomeRegistered,
		Principal:  principal,
		Role:       principal.Role,
		Credential: credential,
	}, nil
}

func (o *Orchestrator) reconcile(ctx context.Context, req CallbackRequest, principal Principal) (AuthResult, error) {
	if err := o.resolver.CheckRole(principal, req.Identity.Role); err != nil {
		return AuthResult{}, o.mapError(err)
	}

	outcome := OutcomeAuthenticated
	var err error

	switch {
	case req.Identity.External():
		principal, err = o.resolver.MergeExternalIdentity(ctx, principal, req.Identity)
		if err != nil {
			return AuthResult{}, o.mapError(err)
		}
	case strings.TrimSpace(req.Identity.PasswordHash) != "":
		// A password sign-up against an existing account: only legal when
		// the account has no local credential yet.
		principal, err = o.resolver.AttachPassword(ctx, principal, req.Identity.PasswordHash)
		if err != nil {
			return AuthResult{}, o.mapError(err)
		}
		outcome = OutcomeRegistered
	}

	credential, err := o.issue(ctx, Claims{Subject: principal.ID, Role: principal.Role}, req.Sink)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		Outcome:    outcome,
		Principal:  principal,
		Role:       principal.Role,
		Credential: credential,
	}, nil
}

// AssignRole consumes a pending role assignment exactly once: it writes
// the final role, clears the pending record, and re-issues a credential
// that reflects the new role.
func (o *Orchestrator) AssignRole(ctx context.Context, req AssignRoleRequest) (result AuthResult, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"role": req.Role}
	defer func() {
		o.observeOperation(ctx, startedAt, "assign_role", err, fields)
	}()

	if err = o.gate.ValidateAssignment(req.Role); err != nil {
		return AuthResult{}, o.mapError(err)
	}
	if req.Session == nil {
		err = o.mapError(fmt.Errorf("core: session context is required"))
		return AuthResult{}, err
	}
	pending, ok := req.Session.PendingRole()
	if !ok {
		err = o.mapError(ErrPendingRoleNotFound)
		return AuthResult{}, err
	}

	principal, updateErr := o.accounts.UpdateRole(ctx, pending.PrincipalID, strings.TrimSpace(req.Role))
	if updateErr != nil {
		err = o.mapError(updateErr)
		return AuthResult{}, err
	}
	req.Session.ClearPendingRole()

	credential, err := o.issue(ctx, Claims{Subject: principal.ID, Role: principal.Role}, req.Sink)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{
		Outcome:    OutcomeRoleAssigned,
		Principal:  principal,
		Role:       principal.Role,
		Credential: credential,
	}, nil
}

func (o *Orchestrator) issue(ctx context.Context, claims Claims, sink CredentialSink) (IssuedCredential, error) {
	credential, err := o.delivery.Issue(ctx, claims, sink)
	if err != nil {
		return IssuedCredential{}, o.mapError(err)
	}
	return credential, nil
}

func (o *Orchestrator) mapError(err error) error {
	if err == nil {
		return nil
	}
	if o == nil || o.errorMapper == nil {
		return authErrorMapper(err)
	}
	mapped := o.errorMapper(err)
	if mapped == nil {
		return nil
	}
	return mapped
}
