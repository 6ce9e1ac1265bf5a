package core

import (
	"fmt"
	"strings"
	"time"
)

const (
	DefaultRole       = "user"
	DefaultCookieName = "auth_token"
	DefaultEnv        = "development"

	ChannelCookie = "cookie"
	ChannelHeader = "header"

	DefaultAPIKeyHeader = "x-api-key"
	DefaultRoleHeader   = "x-api-role"
)

// EnvValue is a deployment-environment-keyed string, e.g. a callback URL
// that differs between staging and production.
type EnvValue map[string]string

func (v EnvValue) Resolve(env string) string {
	if len(v) == 0 {
		return ""
	}
	env = strings.TrimSpace(strings.ToLower(env))
	if env == "" {
		env = DefaultEnv
	}
	if value, ok := v[env]; ok {
		return strings.TrimSpace(value)
	}
	return strings.TrimSpace(v[DefaultEnv])
}

type RBACConfig struct {
	Enabled bool     `koanf:"enabled" mapstructure:"enabled"`
	Roles   []string `koanf:"roles" mapstructure:"roles"`
}

func (c RBACConfig) Allows(role string) bool {
	role = strings.TrimSpace(role)
	for _, candidate := range c.Roles {
		if strings.TrimSpace(candidate) == role {
			return true
		}
	}
	return false
}

// PlatformRBACConfig is the delegated-platform variant: roles carry
// permissions alongside the name.
type PlatformRBACConfig struct {
	Enabled bool       `koanf:"enabled" mapstructure:"enabled"`
	Roles   []RoleSpec `koanf:"roles" mapstructure:"roles"`
}

func (c PlatformRBACConfig) Find(role string) (RoleSpec, bool) {
	role = strings.TrimSpace(role)
	for _, spec := range c.Roles {
		if strings.TrimSpace(spec.Name) == role {
			return spec, true
		}
	}
	return RoleSpec{}, false
}

type CookieOptions struct {
	Name     string `koanf:"name" mapstructure:"name"`
	Path     string `koanf:"path" mapstructure:"path"`
	Domain   string `koanf:"domain" mapstructure:"domain"`
	Secure   bool   `koanf:"secure" mapstructure:"secure"`
	HTTPOnly bool   `koanf:"http_only" mapstructure:"http_only"`
	SameSite string `koanf:"same_site" mapstructure:"same_site"`
}

func (o CookieOptions) CookieName() string {
	if strings.TrimSpace(o.Name) == "" {
		return DefaultCookieName
	}
	return strings.TrimSpace(o.Name)
}

type JWTDeliveryConfig struct {
	Enabled   bool          `koanf:"enabled" mapstructure:"enabled"`
	Secret    string        `koanf:"secret" mapstructure:"secret"`
	ExpiresIn time.Duration `koanf:"expires_in" mapstructure:"expires_in"`
	SendVia   []string      `koanf:"send_via" mapstructure:"send_via"`
	Cookie    CookieOptions `koanf:"cookie" mapstructure:"cookie"`
}

func (c JWTDeliveryConfig) SendsVia(channel string) bool {
	channel = strings.TrimSpace(strings.ToLower(channel))
	for _, candidate := range c.SendVia {
		if strings.TrimSpace(strings.ToLower(candidate)) == channel {
			return true
		}
	}
	return false
}

type APIKeyDeliveryConfig struct {
	Enabled    bool   `koanf:"enabled" mapstructure:"enabled"`
	HeaderName string `koanf:"header_name" mapstructure:"header_name"`
	Value      string `koanf:"value" mapstructure:"value"`
	RoleHeader string `koanf:"role_header" mapstructure:"role_header"`
}

func (c APIKeyDeliveryConfig) Header() string {
	if strings.TrimSpace(c.HeaderName) == "" {
		return DefaultAPIKeyHeader
	}
	return strings.TrimSpace(c.HeaderName)
}

func (c APIKeyDeliveryConfig) RoleHeaderName() string {
	if strings.TrimSpace(c.RoleHeader) == "" {
		return DefaultRoleHeader
	}
	return strings.TrimSpace(c.RoleHeader)
}

type DeliveryConfig struct {
	JWT    JWTDeliveryConfig    `koanf:"jwt" mapstructure:"jwt"`
	APIKey APIKeyDeliveryConfig `koanf:"api_key" mapstructure:"api_key"`
}

type SocialProviderConfig struct {
	Enabled         bool     `koanf:"enabled" mapstructure:"enabled"`
	ClientID        string   `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret    string   `koanf:"client_secret" mapstructure:"client_secret"`
	Scopes          []string `koanf:"scopes" mapstructure:"scopes"`
	CallbackURL     EnvValue `koanf:"callback_url" mapstructure:"callback_url"`
	RoleRedirectURL EnvValue `koanf:"role_redirect_url" mapstructure:"role_redirect_url"`
}

// PlatformConfig configures the delegated identity platform variant.
type PlatformConfig struct {
	Enabled       bool               `koanf:"enabled" mapstructure:"enabled"`
	ClientID      EnvValue           `koanf:"client_id" mapstructure:"client_id"`
	ClientSecret  EnvValue           `koanf:"client_secret" mapstructure:"client_secret"`
	RedirectURL   EnvValue           `koanf:"redirect_url" mapstructure:"redirect_url"`
	LogoutURL     EnvValue           `koanf:"logout_url" mapstructure:"logout_url"`
	RBAC          PlatformRBACConfig `koanf:"rbac" mapstructure:"rbac"`
	SignupEnabled bool               `koanf:"signup_enabled" mapstructure:"signup_enabled"`
	Delivery      DeliveryConfig     `koanf:"delivery" mapstructure:"delivery"`
}

type Config struct {
	ProjectName   string                          `koanf:"project_name" mapstructure:"project_name"`
	Env           string                          `koanf:"env" mapstructure:"env"`
	SignupEnabled bool                            `koanf:"signup_enabled" mapstructure:"signup_enabled"`
	RBAC          RBACConfig                      `koanf:"rbac" mapstructure:"rbac"`
	Delivery      DeliveryConfig                  `koanf:"delivery" mapstructure:"delivery"`
	Social        map[string]SocialProviderConfig `koanf:"social" mapstructure:"social"`
	Platform      PlatformConfig                  `koanf:"platform" mapstructure:"platform"`
}

func DefaultConfig() Config {
	return Config{
		ProjectName:   "authflow",
		Env:           DefaultEnv,
		SignupEnabled: true,
		Delivery: DeliveryConfig{
			JWT: JWTDeliveryConfig{
				Enabled: true,
				SendVia: []string{ChannelCookie},
				Cookie:  CookieOptions{Name: DefaultCookieName, HTTPOnly: true},
			},
		},
	}
}

func (c Config) Environment() string {
	env := strings.TrimSpace(strings.ToLower(c.Env))
	if env == "" {
		return DefaultEnv
	}
	return env
}

func (c Config) SocialProvider(providerID string) (SocialProviderConfig, bool) {
	cfg, ok := c.Social[normalizeProviderID(providerID)]
	return cfg, ok
}

// Validate enforces the fail-fast precondition for deferred role
// assignment: with RBAC enabled, every enabled social provider must have a
// role redirect target, otherwise a first-time social sign-up would leave
// the principal role-less.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.ProjectName) == "" {
		return fmt.Errorf("core: project_name is required")
	}
	// The platform variant replaces the local delivery, RBAC, and social
	// surfaces entirely.
	if c.Platform.Enabled {
		if c.Platform.Delivery.JWT.Enabled && strings.TrimSpace(c.Platform.Delivery.JWT.Secret) == "" {
			return fmt.Errorf("core: platform.delivery.jwt.secret is required when jwt delivery is enabled")
		}
		if c.Platform.Delivery.APIKey.Enabled && strings.TrimSpace(c.Platform.Delivery.APIKey.Value) == "" {
			return fmt.Errorf("core: platform.delivery.api_key.value is required when api key delivery is enabled")
		}
		if c.Platform.RBAC.Enabled && len(c.Platform.RBAC.Roles) == 0 {
			return fmt.Errorf("core: platform rbac is enabled but no roles are configured")
		}
		return nil
	}
	if c.Delivery.JWT.Enabled && strings.TrimSpace(c.Delivery.JWT.Secret) == "" {
		return fmt.Errorf("core: delivery.jwt.secret is required when jwt delivery is enabled")
	}
	if c.Delivery.APIKey.Enabled && strings.TrimSpace(c.Delivery.APIKey.Value) == "" {
		return fmt.Errorf("core: delivery.api_key.value is required when api key delivery is enabled")
	}
	if c.RBAC.Enabled && len(c.RBAC.Roles) == 0 {
		return fmt.Errorf("core: rbac is enabled but no roles are configured")
	}
	if c.RBAC.Enabled {
		for providerID, provider := range c.Social {
			if !provider.Enabled {
				continue
			}
			if provider.RoleRedirectURL.Resolve(c.Environment()) == "" {
				return fmt.Errorf("core: rbac is enabled but role_redirect_url is not set for provider %q", providerID)
			}
		}
	}
	return nil
}
