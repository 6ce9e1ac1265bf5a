package twitter

import (
	"fmt"

	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/providers"
)

const (
	ProviderID = "twitter"
	AuthURL    = "https://twitter.com/i/oauth2/authorize"
	TokenURL   = "https://api.twitter.com/2/oauth2/token"
	ProfileURL = "https://api.twitter.com/2/users/me"
)

type Config struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func New(cfg Config) (core.Provider, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"users.read", "tweet.read"}
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

// Twitter only returns an email when the app has elevated access; without
// one the identity cannot be reconciled against an account, so fail here
// rather than downstream.
func normalize(profile map[string]any) (core.VerifiedIdentity, error) {
	email := providers.ProfileEmail(profile)
	if email == "" {
		return core.VerifiedIdentity{}, fmt.Errorf("providers: provider %q returned no email; enable email access for the app", ProviderID)
	}
	externalRef := providers.ProfileString(profile, "id", "id_str")
	if externalRef == "" {
		return core.VerifiedIdentity{}, fmt.Errorf("providers: provider %q returned no subject id", ProviderID)
	}
	return core.VerifiedIdentity{
		Email:       email,
		ExternalRef: externalRef,
		DisplayName: providers.ProfileString(profile, "name", "username", "screen_name"),
	}, nil
}
