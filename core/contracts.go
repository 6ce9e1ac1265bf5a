package core

import (
	"context"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

// AccountStore owns Principal persistence. Create must reject a duplicate
// email with ErrEmailTaken; the store's uniqueness constraint is the only
// cross-request synchronization primitive this package relies on.
type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (Principal, bool, error)
	GetByID(ctx context.Context, id string) (Principal, error)
	Create(ctx context.Context, in CreatePrincipalInput) (Principal, error)
	UpdateRole(ctx context.Context, id string, role string) (Principal, error)
	SetPassword(ctx context.Context, id string, passwordHash string) (Principal, error)
	LinkProvider(ctx context.Context, id string, providerID string, identity ProviderIdentity) (Principal, error)
}

type CreatePrincipalInput struct {
	Email        string
	PasswordHash string
	Role         string
	Social       map[string]ProviderIdentity
}

// SessionContext is the capability handle for the caller's browser-session
// state. Pending role assignments are written and read only through it, so
// concurrent sessions cannot observe each other's pending state.
type SessionContext interface {
	PendingRole() (PendingRoleAssignment, bool)
	SetPendingRole(pending PendingRoleAssignment)
	ClearPendingRole()
}

// CredentialSource is the read side of the host's request: cookies and
// headers as opaque lookups. The host framework owns the actual transport.
type CredentialSource interface {
	Cookie(name string) (string, bool)
	Header(name string) (string, bool)
}

// CredentialSink is the write side of the host's response.
type CredentialSink interface {
	SetCookie(name string, value string, opts CookieOptions)
	ClearCookie(name string, opts CookieOptions)
}

// CredentialDelivery issues, resolves, and revokes session credentials
// across the configured channels. Resolve never returns an error to the
// caller: any verification failure is {Valid: false}.
type CredentialDelivery interface {
	Issue(ctx context.Context, claims Claims, sink CredentialSink) (IssuedCredential, error)
	Resolve(ctx context.Context, source CredentialSource) ResolvedCredential
	Revoke(sink CredentialSink)
}

// PasswordHasher is the black-box hash/compare capability. The default
// implementation lives in the methods package.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash string, password string) bool
}

// Provider describes one social provider: its id, the scopes requested by
// default, and how to turn an upstream profile payload into a verified
// identity.
type Provider interface {
	ID() string
	DefaultScopes() []string
	Identity(profile map[string]any) (VerifiedIdentity, error)
}

type Registry interface {
	Register(provider Provider) error
	Get(providerID string) (Provider, bool)
	List() []Provider
}

// StoreProvider exposes the stores a repository factory builds.
type StoreProvider interface {
	AccountStore() AccountStore
}

type RepositoryStoreFactory interface {
	BuildStores(persistenceClient any) (StoreProvider, error)
}
