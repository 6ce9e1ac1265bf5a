package github

import (
	"fmt"

	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/providers"
)

const (
	ProviderID = "github"
	AuthURL    = "https://github.com/login/oauth/authorize"
	TokenURL   = "https://github.com/login/oauth/access_token"
	ProfileURL = "https://api.github.com/user"
)

type Config struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func New(cfg Config) (core.Provider, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"read:user", "user:email"}
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

// GitHub profiles carry a numeric `id`, the handle under `login`, and the
// email either inline (can be null for private emails) or in the `emails`
// list when the scope allows it.
func normalize(profile map[string]any) (core.VerifiedIdentity, error) {
	email := providers.ProfileEmail(profile)
	if email == "" {
		return core.VerifiedIdentity{}, fmt.Errorf("providers: provider %q returned no email; request the user:email scope", ProviderID)
	}
	externalRef := providers.ProfileString(profile, "id", "node_id")
	if externalRef == "" {
		return core.VerifiedIdentity{}, fmt.Errorf("providers: provider %q returned no subject id", ProviderID)
	}
	return core.VerifiedIdentity{
		Email:       email,
		ExternalRef: externalRef,
		DisplayName: providers.ProfileString(profile, "name", "login", "displayName"),
	}, nil
}
