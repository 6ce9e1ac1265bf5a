package core

import (
	"context"
	"fmt"

	"github.com/goliatone/go-config/cfgx"
	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
	opts "github.com/goliatone/go-options"
)

type ErrorFactory func(message string, category ...goerrors.Category) *goerrors.Error

type ErrorMapper func(err error) *goerrors.Error

type ConfigProvider interface {
	Load(ctx context.Context, defaults Config) (Config, error)
}

type RawConfigLoader interface {
	LoadRaw(ctx context.Context) (map[string]any, error)
}

type OptionsResolver interface {
	Resolve(defaults Config, loaded Config, runtime Config) (Config, error)
}

type builder struct {
	runtimeConfig   Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	registry        Registry
	accountStore    AccountStore
	delivery        CredentialDelivery
}

type Option func(*builder)

func WithLogger(logger Logger) Option {
	return func(b *builder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider LoggerProvider) Option {
	return func(b *builder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder MetricsRecorder) Option {
	return func(b *builder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorFactory(factory ErrorFactory) Option {
	return func(b *builder) {
		b.errorFactory = factory
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *builder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider ConfigProvider) Option {
	return func(b *builder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver OptionsResolver) Option {
	return func(b *builder) {
		b.optionsResolver = resolver
	}
}

func WithRegistry(registry Registry) Option {
	return func(b *builder) {
		b.registry = registry
	}
}

func WithAccountStore(store AccountStore) Option {
	return func(b *builder) {
		b.accountStore = store
	}
}

func WithCredentialDelivery(delivery CredentialDelivery) Option {
	return func(b *builder) {
		b.delivery = delivery
	}
}

func defaultBuilder(runtime Config) builder {
	loggerProvider, logger := glog.Resolve("authflow", nil, nil)
	return builder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: NopMetricsRecorder{},
		errorFactory:    goerrors.New,
		errorMapper:     defaultErrorMapper,
		optionsResolver: GoOptionsResolver{},
		registry:        NewProviderRegistry(),
	}
}

func defaultErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}
	return authErrorMapper(err)
}

type staticRawConfigLoader struct {
	Values map[string]any
}

func (l staticRawConfigLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.Values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.Values))
	for key, value := range l.Values {
		out[key] = value
	}
	return out, nil
}

type CfgxConfigProvider struct {
	Loader RawConfigLoader
}

func NewCfgxConfigProvider(loader RawConfigLoader) *CfgxConfigProvider {
	return &CfgxConfigProvider{Loader: loader}
}

func (p *CfgxConfigProvider) Load(ctx context.Context, defaults Config) (Config, error) {
	if p == nil {
		return defaults, nil
	}
	loader := p.Loader
	if loader == nil {
		loader = staticRawConfigLoader{}
	}
	raw, err := loader.LoadRaw(ctx)
	if err != nil {
		return Config{}, err
	}
	cfg, err := cfgx.Build[Config](raw,
		cfgx.WithDefaults(defaults),
	)
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type GoOptionsResolver struct{}

func (GoOptionsResolver) Resolve(defaults Config, loaded Config, runtime Config) (Config, error) {
	defaultLayer := configToLayerMap(defaults, true)
	loadedLayer := configToLayerMap(loaded, false)
	runtimeLayer := configToLayerMap(runtime, false)

	stack, err := opts.NewStack(
		opts.NewLayer(
			opts.NewScope("defaults", 0),
			defaultLayer,
			opts.WithSnapshotID[map[string]any]("defaults"),
		),
		opts.NewLayer(
			opts.NewScope("config", 10),
			loadedLayer,
			opts.WithSnapshotID[map[string]any]("config"),
		),
		opts.NewLayer(
			opts.NewScope("runtime", 20),
			runtimeLayer,
			opts.WithSnapshotID[map[string]any]("runtime"),
		),
	)
	if err != nil {
		return Config{}, fmt.Errorf("core: options stack build failed: %w", err)
	}
	merged, err := stack.Merge()
	if err != nil {
		return Config{}, fmt.Errorf("core: options merge failed: %w", err)
	}
	resolved, err := cfgx.Build[Config](merged.Value,
		cfgx.WithDefaults(defaults),
		cfgx.WithValidator[Config]((*Config).Validate),
	)
	if err != nil {
		return Config{}, err
	}
	return resolved, nil
}

func configToLayerMap(cfg Config, includeZero bool) map[string]any {
	layer := map[string]any{}
	if includeZero || cfg.ProjectName != "" {
		layer["project_name"] = cfg.ProjectName
	}
	if includeZero || cfg.Env != "" {
		layer["env"] = cfg.Env
	}
	if includeZero || cfg.SignupEnabled {
		layer["signup_enabled"] = cfg.SignupEnabled
	}
	if includeZero || cfg.RBAC.Enabled || len(cfg.RBAC.Roles) > 0 {
		layer["rbac"] = map[string]any{
			"enabled": cfg.RBAC.Enabled,
			"roles":   append([]string(nil), cfg.RBAC.Roles...),
		}
	}
	if includeZero || cfg.Delivery.JWT.Enabled || cfg.Delivery.APIKey.Enabled {
		layer["delivery"] = deliveryLayerMap(cfg.Delivery)
	}
	if len(cfg.Social) > 0 {
		social := map[string]any{}
		for providerID, provider := range cfg.Social {
			social[providerID] = map[string]any{
				"enabled":           provider.Enabled,
				"client_id":         provider.ClientID,
				"client_secret":     provider.ClientSecret,
				"scopes":            append([]string(nil), provider.Scopes...),
				"callback_url":      map[string]string(provider.CallbackURL),
				"role_redirect_url": map[string]string(provider.RoleRedirectURL),
			}
		}
		layer["social"] = social
	}
	if includeZero || cfg.Platform.Enabled {
		layer["platform"] = map[string]any{
			"enabled":        cfg.Platform.Enabled,
			"client_id":      map[string]string(cfg.Platform.ClientID),
			"client_secret":  map[string]string(cfg.Platform.ClientSecret),
			"redirect_url":   map[string]string(cfg.Platform.RedirectURL),
			"logout_url":     map[string]string(cfg.Platform.LogoutURL),
			"signup_enabled": cfg.Platform.SignupEnabled,
			"rbac": map[string]any{
				"enabled": cfg.Platform.RBAC.Enabled,
				"roles":   cfg.Platform.RBAC.Roles,
			},
			"delivery": deliveryLayerMap(cfg.Platform.Delivery),
		}
	}
	return layer
}

func deliveryLayerMap(cfg DeliveryConfig) map[string]any {
	return map[string]any{
		"jwt": map[string]any{
			"enabled":    cfg.JWT.Enabled,
			"secret":     cfg.JWT.Secret,
			"expires_in": cfg.JWT.ExpiresIn,
			"send_via":   append([]string(nil), cfg.JWT.SendVia...),
			"cookie": map[string]any{
				"name":      cfg.JWT.Cookie.Name,
				"path":      cfg.JWT.Cookie.Path,
				"domain":    cfg.JWT.Cookie.Domain,
				"secure":    cfg.JWT.Cookie.Secure,
				"http_only": cfg.JWT.Cookie.HTTPOnly,
				"same_site": cfg.JWT.Cookie.SameSite,
			},
		},
		"api_key": map[string]any{
			"enabled":     cfg.APIKey.Enabled,
			"header_name": cfg.APIKey.HeaderName,
			"value":       cfg.APIKey.Value,
			"role_header": cfg.APIKey.RoleHeader,
		},
	}
}
