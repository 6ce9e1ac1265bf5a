package core

import (
	"strings"
	"testing"
)

func TestEnvValueResolve(t *testing.T) {
	value := EnvValue{
		"development": "https://dev.test/callback",
		"production":  "https://app.test/callback",
	}
	if got := value.Resolve("production"); got != "https://app.test/callback" {
		t.Errorf("Resolve(production) = %q", got)
	}
	if got := value.Resolve(""); got != "https://dev.test/callback" {
		t.Errorf("Resolve(empty) = %q, want development fallback", got)
	}
	if got := value.Resolve("staging"); got != "https://dev.test/callback" {
		t.Errorf("Resolve(staging) = %q, want development fallback", got)
	}
	if got := (EnvValue)(nil).Resolve("production"); got != "" {
		t.Errorf("nil Resolve = %q", got)
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults with secret pass",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing project name",
			mutate:  func(c *Config) { c.ProjectName = "" },
			wantErr: "project_name",
		},
		{
			name:    "jwt enabled without secret",
			mutate:  func(c *Config) { c.Delivery.JWT.Secret = "" },
			wantErr: "delivery.jwt.secret",
		},
		{
			name: "api key enabled without value",
			mutate: func(c *Config) {
				c.Delivery.APIKey.Enabled = true
			},
			wantErr: "delivery.api_key.value",
		},
		{
			name: "rbac without roles",
			mutate: func(c *Config) {
				c.RBAC.Enabled = true
			},
			wantErr: "no roles",
		},
		{
			name: "rbac provider without role redirect",
			mutate: func(c *Config) {
				c.RBAC = RBACConfig{Enabled: true, Roles: []string{"user"}}
				c.Social = map[string]SocialProviderConfig{
					"github": {Enabled: true},
				}
			},
			wantErr: "role_redirect_url",
		},
		{
			name: "rbac disabled provider is exempt",
			mutate: func(c *Config) {
				c.RBAC = RBACConfig{Enabled: true, Roles: []string{"user"}}
				c.Social = map[string]SocialProviderConfig{
					"github": {Enabled: false},
				}
			},
		},
		{
			name: "platform rbac without roles",
			mutate: func(c *Config) {
				c.Platform.Enabled = true
				c.Platform.RBAC.Enabled = true
			},
			wantErr: "platform rbac",
		},
		{
			name: "platform jwt enabled without secret",
			mutate: func(c *Config) {
				c.Platform.Enabled = true
				c.Platform.Delivery.JWT.Enabled = true
			},
			wantErr: "platform.delivery.jwt.secret",
		},
		{
			name: "platform variant skips local delivery checks",
			mutate: func(c *Config) {
				c.Platform.Enabled = true
				c.Delivery.JWT.Secret = ""
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("err = %v, want substring %q", err, tc.wantErr)
			}
		})
	}
}

func TestJWTDeliveryConfigSendsVia(t *testing.T) {
	cfg := JWTDeliveryConfig{SendVia: []string{"Cookie", " header "}}
	if !cfg.SendsVia(ChannelCookie) || !cfg.SendsVia(ChannelHeader) {
		t.Errorf("SendsVia normalization failed: %+v", cfg.SendVia)
	}
	if (JWTDeliveryConfig{}).SendsVia(ChannelCookie) {
		t.Error("empty SendVia must not match")
	}
}

func TestPlatformRBACConfigFind(t *testing.T) {
	cfg := PlatformRBACConfig{
		Enabled: true,
		Roles: []RoleSpec{
			{Name: "user", Permissions: []string{"read"}},
		},
	}
	spec, ok := cfg.Find("user")
	if !ok || len(spec.Permissions) != 1 {
		t.Fatalf("Find = %+v, %v", spec, ok)
	}
	if _, ok := cfg.Find("admin"); ok {
		t.Fatal("unknown role must miss")
	}
}
