package google

import (
	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/providers"
)

const (
	ProviderID = "google"
	AuthURL    = "https://accounts.google.com/o/oauth2/v2/auth"
	TokenURL   = "https://oauth2.googleapis.com/token"
	ProfileURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

type Config struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func New(cfg Config) (core.Provider, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"profile", "email"}
	}
	return providers.New(providers.Descriptor{
		ID:            ProviderID,
		AuthURL:       AuthURL,
		TokenURL:      TokenURL,
		ProfileURL:    ProfileURL,
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		DefaultScopes: scopes,
		Normalize:     normalize,
	})
}

// Google profiles use OIDC field names: subject under `sub`, inline
// `email`, and `name` for the display name.
func normalize(profile map[string]any) (core.VerifiedIdentity, error) {
	identity, err := providers.DefaultNormalizer(ProviderID)(profile)
	if err != nil {
		return core.VerifiedIdentity{}, err
	}
	if name := providers.ProfileString(profile, "name", "displayName", "given_name"); name != "" {
		identity.DisplayName = name
	}
	return identity, nil
}
