// Package authflow assembles the authentication layer: local and social
// sign-in against a principal store, or the delegated platform variant
// where an external identity platform owns the user records.
package authflow

import (
	"fmt"

	authflowcommand "github.com/goliatone/go-authflow/command"
	"github.com/goliatone/go-authflow/core"
	"github.com/goliatone/go-authflow/delivery"
	"github.com/goliatone/go-authflow/methods"
	"github.com/goliatone/go-authflow/platform"
	"github.com/goliatone/go-authflow/providers/facebook"
	"github.com/goliatone/go-authflow/providers/github"
	"github.com/goliatone/go-authflow/providers/google"
	"github.com/goliatone/go-authflow/providers/twitter"
)

// Commands exposes the dispatchable command handlers for hosts that run a
// message bus. Platform handlers are nil unless the platform variant is
// enabled, and vice versa for the local handlers.
type Commands struct {
	SignUp           *authflowcommand.SignUpCommand
	SignIn           *authflowcommand.SignInCommand
	SignOut          *authflowcommand.SignOutCommand
	SocialCallback   *authflowcommand.SocialCallbackCommand
	AssignRole       *authflowcommand.AssignRoleCommand
	PlatformCallback *authflowcommand.PlatformCallbackCommand
	PlatformLogout   *authflowcommand.PlatformLogoutCommand
}

// Kit is the assembled entry point for one configuration. Exactly one
// variant is active: Password/Social when the platform is disabled,
// Platform otherwise.
type Kit struct {
	config       core.Config
	orchestrator *core.Orchestrator
	password     *methods.Password
	social       *methods.Social
	flow         *platform.Flow
	delivery     core.CredentialDelivery
	commands     Commands
}

type Option func(*kitOptions)

type kitOptions struct {
	accountStore    core.AccountStore
	storeProvider   core.StoreProvider
	delivery        core.CredentialDelivery
	hasher          core.PasswordHasher
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	identityClient  platform.IdentityClient
	directory       platform.Directory
	providers       []core.Provider
}

func WithAccountStore(store core.AccountStore) Option {
	return func(o *kitOptions) {
		o.accountStore = store
	}
}

// WithStoreProvider wires a repository factory's stores, e.g. the
// sqlstore.RepositoryFactory.
func WithStoreProvider(provider core.StoreProvider) Option {
	return func(o *kitOptions) {
		o.storeProvider = provider
	}
}

func WithCredentialDelivery(d core.CredentialDelivery) Option {
	return func(o *kitOptions) {
		o.delivery = d
	}
}

func WithPasswordHasher(hasher core.PasswordHasher) Option {
	return func(o *kitOptions) {
		o.hasher = hasher
	}
}

func WithLogger(logger core.Logger) Option {
	return func(o *kitOptions) {
		o.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(o *kitOptions) {
		o.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(o *kitOptions) {
		o.metricsRecorder = recorder
	}
}

// WithProvider registers an additional social provider beyond the ones
// built from configuration.
func WithProvider(provider core.Provider) Option {
	return func(o *kitOptions) {
		if provider != nil {
			o.providers = append(o.providers, provider)
		}
	}
}

func WithIdentityClient(client platform.IdentityClient) Option {
	return func(o *kitOptions) {
		o.identityClient = client
	}
}

func WithDirectory(directory platform.Directory) Option {
	return func(o *kitOptions) {
		o.directory = directory
	}
}

// New assembles the variant the configuration selects.
func New(cfg core.Config, opts ...Option) (*Kit, error) {
	options := kitOptions{}
	for _, opt := range opts {
		if opt != nil {
			opt(&options)
		}
	}

	stack := options.delivery
	if stack == nil {
		deliveryCfg := cfg.Delivery
		if cfg.Platform.Enabled {
			deliveryCfg = cfg.Platform.Delivery
		}
		built, err := delivery.NewStack(deliveryCfg)
		if err != nil {
			return nil, err
		}
		stack = built
	}

	if cfg.Platform.Enabled {
		return newPlatformKit(cfg, stack, options)
	}
	return newLocalKit(cfg, stack, options)
}

func newLocalKit(cfg core.Config, stack core.CredentialDelivery, options kitOptions) (*Kit, error) {
	store := options.accountStore
	if store == nil && options.storeProvider != nil {
		store = options.storeProvider.AccountStore()
	}
	if store == nil {
		return nil, fmt.Errorf("authflow: an account store is required, wire WithAccountStore or WithStoreProvider")
	}

	orchestrator, err := core.NewOrchestrator(cfg,
		core.WithAccountStore(store),
		core.WithCredentialDelivery(stack),
		core.WithLogger(options.logger),
		core.WithLoggerProvider(options.loggerProvider),
		core.WithMetricsRecorder(options.metricsRecorder),
	)
	if err != nil {
		return nil, err
	}

	configured, err := configuredProviders(orchestrator.Config())
	if err != nil {
		return nil, err
	}
	for _, provider := range append(configured, options.providers...) {
		if err := orchestrator.Registry().Register(provider); err != nil {
			return nil, err
		}
	}

	passwordOpts := []methods.PasswordOption{}
	if options.hasher != nil {
		passwordOpts = append(passwordOpts, methods.WithHasher(options.hasher))
	}
	password, err := methods.NewPassword(orchestrator, passwordOpts...)
	if err != nil {
		return nil, err
	}
	social, err := methods.NewSocial(orchestrator)
	if err != nil {
		return nil, err
	}

	return &Kit{
		config:       orchestrator.Config(),
		orchestrator: orchestrator,
		password:     password,
		social:       social,
		delivery:     stack,
		commands: Commands{
			SignUp:         authflowcommand.NewSignUpCommand(password),
			SignIn:         authflowcommand.NewSignInCommand(password),
			SignOut:        authflowcommand.NewSignOutCommand(password),
			SocialCallback: authflowcommand.NewSocialCallbackCommand(social),
			AssignRole:     authflowcommand.NewAssignRoleCommand(social),
		},
	}, nil
}

func newPlatformKit(cfg core.Config, stack core.CredentialDelivery, options kitOptions) (*Kit, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if options.directory == nil {
		return nil, fmt.Errorf("authflow: a directory is required for the platform variant, wire WithDirectory")
	}

	client := options.identityClient
	if client == nil {
		env := cfg.Environment()
		built, err := platform.NewAuthKitClient(platform.AuthKitConfig{
			ClientID:     cfg.Platform.ClientID.Resolve(env),
			ClientSecret: cfg.Platform.ClientSecret.Resolve(env),
			LogoutURL:    cfg.Platform.LogoutURL.Resolve(env),
		})
		if err != nil {
			return nil, err
		}
		client = built
	}

	flowOpts := []platform.FlowOption{}
	if options.logger != nil {
		flowOpts = append(flowOpts, platform.WithFlowLogger(options.logger))
	}
	flow, err := platform.NewFlow(cfg, client, options.directory, stack, flowOpts...)
	if err != nil {
		return nil, err
	}

	return &Kit{
		config:   cfg,
		flow:     flow,
		delivery: stack,
		commands: Commands{
			PlatformCallback: authflowcommand.NewPlatformCallbackCommand(flow),
			PlatformLogout:   authflowcommand.NewPlatformLogoutCommand(flow),
		},
	}, nil
}

func (k *Kit) Config() core.Config {
	if k == nil {
		return core.Config{}
	}
	return k.config
}

func (k *Kit) Orchestrator() *core.Orchestrator {
	if k == nil {
		return nil
	}
	return k.orchestrator
}

func (k *Kit) Password() *methods.Password {
	if k == nil {
		return nil
	}
	return k.password
}

func (k *Kit) Social() *methods.Social {
	if k == nil {
		return nil
	}
	return k.social
}

func (k *Kit) Platform() *platform.Flow {
	if k == nil {
		return nil
	}
	return k.flow
}

func (k *Kit) Delivery() core.CredentialDelivery {
	if k == nil {
		return nil
	}
	return k.delivery
}

func (k *Kit) Commands() Commands {
	if k == nil {
		return Commands{}
	}
	return k.commands
}

// configuredProviders builds the known providers named in the social
// configuration. Disabled entries register too so the façade can answer
// with a disabled rejection instead of an unknown-provider one; ids with
// no built-in constructor are left to WithProvider.
func configuredProviders(cfg core.Config) ([]core.Provider, error) {
	built := []core.Provider{}
	for providerID, providerCfg := range cfg.Social {
		var (
			provider core.Provider
			err      error
		)
		switch providerID {
		case google.ProviderID:
			provider, err = google.New(google.Config{
				ClientID:     providerCfg.ClientID,
				ClientSecret: providerCfg.ClientSecret,
				Scopes:       providerCfg.Scopes,
			})
		case github.ProviderID:
			provider, err = github.New(github.Config{
				ClientID:     providerCfg.ClientID,
				ClientSecret: providerCfg.ClientSecret,
				Scopes:       providerCfg.Scopes,
			})
		case facebook.ProviderID:
			provider, err = facebook.New(facebook.Config{
				ClientID:     providerCfg.ClientID,
				ClientSecret: providerCfg.ClientSecret,
				Scopes:       providerCfg.Scopes,
			})
		case twitter.ProviderID:
			provider, err = twitter.New(twitter.Config{
				ClientID:     providerCfg.ClientID,
				ClientSecret: providerCfg.ClientSecret,
				Scopes:       providerCfg.Scopes,
			})
		default:
			continue
		}
		if err != nil {
			return nil, err
		}
		built = append(built, provider)
	}
	return built, nil
}
