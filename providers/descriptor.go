package providers

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/goliatone/go-authflow/core"
)

// ProfileNormalizer turns one provider's raw profile payload into the
// canonical verified identity. Payload shapes differ per provider; the
// normalizer owns that mapping.
type ProfileNormalizer func(profile map[string]any) (core.VerifiedIdentity, error)

// Descriptor parameterizes one social provider: endpoints, default
// scopes, and the profile normalizer. New providers are data plus a
// normalizer, not a new type.
type Descriptor struct {
	ID            string
	AuthURL       string
	TokenURL      string
	ProfileURL    string
	ClientID      string
	ClientSecret  string
	DefaultScopes []string
	Normalize     ProfileNormalizer
}

type Provider struct {
	descriptor Descriptor
}

func New(descriptor Descriptor) (*Provider, error) {
	descriptor.ID = strings.TrimSpace(strings.ToLower(descriptor.ID))
	if descriptor.ID == "" {
		return nil, fmt.Errorf("providers: provider id is required")
	}
	if strings.TrimSpace(descriptor.AuthURL) == "" {
		return nil, fmt.Errorf("providers: auth url is required for provider %q", descriptor.ID)
	}
	descriptor.AuthURL = strings.TrimSpace(descriptor.AuthURL)
	descriptor.TokenURL = strings.TrimSpace(descriptor.TokenURL)
	descriptor.ProfileURL = strings.TrimSpace(descriptor.ProfileURL)
	descriptor.DefaultScopes = normalizeScopes(descriptor.DefaultScopes)
	if descriptor.Normalize == nil {
		descriptor.Normalize = DefaultNormalizer(descriptor.ID)
	}
	return &Provider{descriptor: descriptor}, nil
}

func (p *Provider) ID() string {
	if p == nil {
		return ""
	}
	return p.descriptor.ID
}

func (p *Provider) DefaultScopes() []string {
	if p == nil || len(p.descriptor.DefaultScopes) == 0 {
		return nil
	}
	scopes := make([]string, len(p.descriptor.DefaultScopes))
	copy(scopes, p.descriptor.DefaultScopes)
	return scopes
}

// AuthorizationURL builds the provider's consent redirect for the given
// callback and state. The host framework performs the actual redirect and
// the code exchange.
func (p *Provider) AuthorizationURL(redirectURI string, state string, scopes []string) (string, error) {
	if p == nil {
		return "", fmt.Errorf("providers: provider is not configured")
	}
	base, err := url.Parse(p.descriptor.AuthURL)
	if err != nil {
		return "", fmt.Errorf("providers: parse auth url for provider %q: %w", p.descriptor.ID, err)
	}
	if len(scopes) == 0 {
		scopes = p.descriptor.DefaultScopes
	}
	query := base.Query()
	query.Set("client_id", p.descriptor.ClientID)
	query.Set("redirect_uri", strings.TrimSpace(redirectURI))
	query.Set("response_type", "code")
	if len(scopes) > 0 {
		query.Set("scope", strings.Join(normalizeScopes(scopes), " "))
	}
	if state = strings.TrimSpace(state); state != "" {
		query.Set("state", state)
	}
	base.RawQuery = query.Encode()
	return base.String(), nil
}

func (p *Provider) Identity(profile map[string]any) (core.VerifiedIdentity, error) {
	if p == nil {
		return core.VerifiedIdentity{}, fmt.Errorf("providers: provider is not configured")
	}
	if len(profile) == 0 {
		return core.VerifiedIdentity{}, fmt.Errorf("providers: empty profile from provider %q", p.descriptor.ID)
	}
	identity, err := p.descriptor.Normalize(profile)
	if err != nil {
		return core.VerifiedIdentity{}, err
	}
	identity.ProviderID = p.descriptor.ID
	if err := identity.Validate(); err != nil {
		return core.VerifiedIdentity{}, fmt.Errorf("providers: provider %q profile is unusable: %w", p.descriptor.ID, err)
	}
	return identity, nil
}

var _ core.Provider = (*Provider)(nil)

// DefaultNormalizer covers the common OAuth profile shape: a subject id,
// an email either inline or in an `emails` list, and a display name under
// one of the usual keys.
func DefaultNormalizer(providerID string) ProfileNormalizer {
	return func(profile map[string]any) (core.VerifiedIdentity, error) {
		email := ProfileEmail(profile)
		if email == "" {
			return core.VerifiedIdentity{}, fmt.Errorf("providers: provider %q returned no email", providerID)
		}
		externalRef := ProfileString(profile, "id", "sub", "user_id")
		if externalRef == "" {
			return core.VerifiedIdentity{}, fmt.Errorf("providers: provider %q returned no subject id", providerID)
		}
		return core.VerifiedIdentity{
			Email:       email,
			ExternalRef: externalRef,
			DisplayName: ProfileString(profile, "displayName", "name", "login", "username"),
		}, nil
	}
}

// ProfileString returns the first non-empty string value among keys.
// Numeric ids are rendered as their decimal form.
func ProfileString(profile map[string]any, keys ...string) string {
	for _, key := range keys {
		value, ok := profile[key]
		if !ok {
			continue
		}
		switch typed := value.(type) {
		case string:
			if text := strings.TrimSpace(typed); text != "" {
				return text
			}
		case float64:
			return strconv.FormatFloat(typed, 'f', -1, 64)
		case int:
			return strconv.Itoa(typed)
		case int64:
			return strconv.FormatInt(typed, 10)
		}
	}
	return ""
}

// ProfileEmail finds an email inline or in the `emails` list shape
// ([{"value": "..."}]) some providers use.
func ProfileEmail(profile map[string]any) string {
	if email := ProfileString(profile, "email"); email != "" {
		return strings.ToLower(email)
	}
	list, ok := profile["emails"].([]any)
	if !ok {
		return ""
	}
	for _, entry := range list {
		record, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if email := ProfileString(record, "value", "email"); email != "" {
			return strings.ToLower(email)
		}
	}
	return ""
}

func normalizeScopes(scopes []string) []string {
	if len(scopes) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	normalized := make([]string, 0, len(scopes))
	for _, scope := range scopes {
		scope = strings.TrimSpace(scope)
		if scope == "" {
			continue
		}
		if _, ok := seen[scope]; ok {
			continue
		}
		seen[scope] = struct{}{}
		normalized = append(normalized, scope)
	}
	return normalized
}
