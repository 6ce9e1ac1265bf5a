package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrEmailTaken          = errors.New("core: email already registered")
	ErrPrincipalNotFound   = errors.New("core: principal not found")
	ErrRoleMismatch        = errors.New("core: email already registered with a different role")
	ErrPendingRoleNotFound = errors.New("core: no pending role assignment in session")
)

// ProviderIdentity is the sub-identity a social provider asserts for a
// principal. It is written once on first link and never overwritten.
type ProviderIdentity struct {
	ID          string
	DisplayName string
}

type Principal struct {
	ID           string
	Email        string
	PasswordHash string
	Role         string
	Social       map[string]ProviderIdentity
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (p Principal) HasPassword() bool {
	return strings.TrimSpace(p.PasswordHash) != ""
}

func (p Principal) HasProviderLink(providerID string) bool {
	if len(p.Social) == 0 {
		return false
	}
	identity, ok := p.Social[normalizeProviderID(providerID)]
	return ok && strings.TrimSpace(identity.ID) != ""
}

func (p Principal) SocialOnly() bool {
	return !p.HasPassword() && len(p.Social) > 0
}

// VerifiedIdentity is an identity assertion a method façade has already
// verified: a password check passed, an OAuth profile arrived, or the
// delegated platform authenticated a session. No raw credential crosses
// this boundary.
type VerifiedIdentity struct {
	Email        string
	ProviderID   string
	ExternalRef  string
	DisplayName  string
	Role         string
	PasswordHash string
}

func (v VerifiedIdentity) Validate() error {
	if strings.TrimSpace(v.Email) == "" {
		return errors.New("core: verified identity requires an email")
	}
	return nil
}

func (v VerifiedIdentity) External() bool {
	return strings.TrimSpace(v.ProviderID) != ""
}

type Outcome string

const (
	OutcomeRegistered    Outcome = "registered"
	OutcomeAuthenticated Outcome = "authenticated"
	OutcomeRoleAssigned  Outcome = "role-assigned"
	OutcomeRolePending   Outcome = "role-pending"
)

// PendingRoleAssignment records that a principal was registered through a
// deferred flow before a role could be collected. It lives only inside the
// caller's browser session and is consumed exactly once.
type PendingRoleAssignment struct {
	PrincipalID string
	ProviderID  string
	CreatedAt   time.Time
}

// Claims is the subject material bound into a session credential. Subject
// carries the principal id; RelationID and SessionID are only set by the
// delegated-platform variant.
type Claims struct {
	Subject    string
	Role       string
	RelationID string
	SessionID  string
}

func (c Claims) Empty() bool {
	return strings.TrimSpace(c.Subject) == "" &&
		strings.TrimSpace(c.RelationID) == ""
}

type IssuedCredential struct {
	Token     string
	ExpiresIn time.Duration
	APIKey    string
}

func (c IssuedCredential) Empty() bool {
	return strings.TrimSpace(c.Token) == "" && strings.TrimSpace(c.APIKey) == ""
}

type ResolvedCredential struct {
	Valid  bool
	Claims Claims
}

// RoleSpec is the delegated-platform role shape: a name plus the
// permissions granted with it.
type RoleSpec struct {
	Name        string   `json:"name" koanf:"name" mapstructure:"name"`
	Permissions []string `json:"permissions" koanf:"permissions" mapstructure:"permissions"`
}

// ProjectRelation mirrors the remote user-project-relation record owned by
// the delegated platform's CRUD service. At most one relation exists per
// (user, project) pair; session ids are appended, never deduplicated here.
type ProjectRelation struct {
	ID             string
	UserID         string
	ProjectID      string
	PlatformUserID string
	Role           RoleSpec
	SessionIDs     []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type AuthResult struct {
	Outcome     Outcome
	Principal   Principal
	Role        string
	Credential  IssuedCredential
	RelationID  string
	SessionID   string
	PendingID   string
	RedirectURL string
}

func normalizeProviderID(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

func normalizeEmail(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}
