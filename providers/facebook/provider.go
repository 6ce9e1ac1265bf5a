package facebook

import (
	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/providers"
)

const (
	ProviderID = "facebook"
	AuthURL    = "https://www.facebook.com/v19.0/dialog/oauth"
	TokenURL   = "https://graph.facebook.com/v19.0/oauth/access_token"
	ProfileURL = "https://graph.facebook.com/me"
)

type Config struct {
	ClientID     string
	ClientSecret string
	Scopes       []string
}

func New(cfg Config) (core.Provider, error) {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"email", "public_profile"}
	}
	return providers.New(providers.Descriptor{
		ID:            ProviderID,
		AuthURL:       AuthURL,
		TokenURL:      TokenURL,
		ProfileURL:    ProfileURL,
		ClientID:      cfg.ClientID,
		ClientSecret:  cfg.ClientSecret,
		DefaultScopes: scopes,
	})
}
