package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

var (
	ErrAccountNotResolved = errors.New("core: account not resolved")
	ErrNotConnected       = errors.New("core: account not connected to provider")
)

// Provider orchestrates the OAuth 1.0a dance and the per-account connection
// lifecycle for a single remote provider. S is the provider-specific service
// API handed back to callers once they have (or decline) a token.
type Provider[S any] struct {
	params            ProviderParameters
	source            ServiceSource[S]
	config            Config
	logger            Logger
	loggerProvider    LoggerProvider
	metricsRecorder   MetricsRecorder
	errorFactory      ErrorFactory
	errorMapper       ErrorMapper
	secretProvider    SecretProvider
	persistenceClient any
	repositoryFactory any
	configProvider    ConfigProvider
	optionsResolver   OptionsResolver
	oauthFlow         OAuthFlow
	repository        ConnectionRepository
	accountResolver   AccountIDResolver
	txRunner          TransactionRunner
	signer            Signer
}

type ProviderDependencies struct {
	Logger            Logger
	LoggerProvider    LoggerProvider
	MetricsRecorder   MetricsRecorder
	ErrorFactory      ErrorFactory
	ErrorMapper       ErrorMapper
	SecretProvider    SecretProvider
	PersistenceClient any
	RepositoryFactory any
	ConfigProvider    ConfigProvider
	OptionsResolver   OptionsResolver
	OAuthFlow         OAuthFlow
	Repository        ConnectionRepository
	AccountResolver   AccountIDResolver
	TransactionRunner TransactionRunner
	Signer            Signer
}

func NewProvider[S any](
	cfg Config,
	params ProviderParameters,
	source ServiceSource[S],
	options ...Option,
) (*Provider[S], error) {
	builder := defaultProviderBuilder(cfg)
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	normalized := params.normalized()
	if err := normalized.Validate(); err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	if source == nil {
		return nil, mapBuildError(builder.errorMapper, fmt.Errorf("core: service source is required"))
	}

	provider, logger := glog.Resolve("connect", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("connect"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.txRunner == nil {
		builder.txRunner = PassthroughTransactionRunner{}
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	if builder.repository == nil && builder.repositoryFactory != nil {
		if buildFactory, ok := builder.repositoryFactory.(RepositoryBuildFactory); ok {
			repoProvider, buildErr := buildFactory.BuildRepository(builder.persistenceClient)
			if buildErr != nil {
				return nil, mapBuildError(builder.errorMapper, buildErr)
			}
			if repoProvider != nil {
				builder.repository = repoProvider.ConnectionRepository()
			}
		} else if repoProvider, ok := builder.repositoryFactory.(RepositoryProvider); ok {
			builder.repository = repoProvider.ConnectionRepository()
		}
	}
	if builder.repositoryFactory != nil {
		if runnerProvider, ok := builder.repositoryFactory.(interface{ TransactionRunner() TransactionRunner }); ok {
			if runner := runnerProvider.TransactionRunner(); runner != nil {
				if _, isPassthrough := builder.txRunner.(PassthroughTransactionRunner); isPassthrough {
					builder.txRunner = runner
				}
			}
		}
	}

	return &Provider[S]{
		params:            normalized,
		source:            source,
		config:            finalConfig,
		logger:            logger,
		loggerProvider:    provider,
		metricsRecorder:   builder.metricsRecorder,
		errorFactory:      builder.errorFactory,
		errorMapper:       builder.errorMapper,
		secretProvider:    builder.secretProvider,
		persistenceClient: builder.persistenceClient,
		repositoryFactory: builder.repositoryFactory,
		configProvider:    builder.configProvider,
		optionsResolver:   builder.optionsResolver,
		oauthFlow:         builder.oauthFlow,
		repository:        builder.repository,
		accountResolver:   builder.accountResolver,
		txRunner:          builder.txRunner,
		signer:            builder.signer,
	}, nil
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (p *Provider[S]) Config() Config {
	if p == nil {
		return Config{}
	}
	return p.config
}

func (p *Provider[S]) Dependencies() ProviderDependencies {
	if p == nil {
		return ProviderDependencies{}
	}
	return ProviderDependencies{
		Logger:            p.logger,
		LoggerProvider:    p.loggerProvider,
		MetricsRecorder:   p.metricsRecorder,
		ErrorFactory:      p.errorFactory,
		ErrorMapper:       p.errorMapper,
		SecretProvider:    p.secretProvider,
		PersistenceClient: p.persistenceClient,
		RepositoryFactory: p.repositoryFactory,
		ConfigProvider:    p.configProvider,
		OptionsResolver:   p.optionsResolver,
		OAuthFlow:         p.oauthFlow,
		Repository:        p.repository,
		AccountResolver:   p.accountResolver,
		TransactionRunner: p.txRunner,
		Signer:            p.signer,
	}
}

func (p *Provider[S]) Name() string {
	if p == nil {
		return ""
	}
	return p.params.Name
}

func (p *Provider[S]) DisplayName() string {
	if p == nil {
		return ""
	}
	if p.params.DisplayName != "" {
		return p.params.DisplayName
	}
	return p.params.Name
}

func (p *Provider[S]) APIKey() string {
	if p == nil {
		return ""
	}
	return p.params.APIKey
}

func (p *Provider[S]) AppID() string {
	if p == nil {
		return ""
	}
	return p.params.AppID
}

func (p *Provider[S]) Secret() string {
	if p == nil {
		return ""
	}
	return p.params.Secret
}

func (p *Provider[S]) Params() ProviderParameters {
	if p == nil {
		return ProviderParameters{}
	}
	return p.params
}

// FetchNewRequestToken obtains an unauthorized request token from the
// provider, binding the callback URL the user should land on after approval.
func (p *Provider[S]) FetchNewRequestToken(ctx context.Context, callbackURL string) (token OAuthToken, err error) {
	if p == nil {
		return OAuthToken{}, fmt.Errorf("core: provider is required")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider": p.params.Name,
	}
	defer func() {
		p.observeOperation(ctx, startedAt, "request_token_fetch", err, fields)
	}()

	if p.oauthFlow == nil {
		err = p.mapError(fmt.Errorf("core: oauth flow is required"))
		return OAuthToken{}, err
	}
	callbackURL = strings.TrimSpace(callbackURL)
	if p.config.OAuth.RequireCallbackURL && callbackURL == "" {
		err = p.mapError(fmt.Errorf("core: callback url is required"))
		return OAuthToken{}, err
	}

	token, err = p.oauthFlow.FetchRequestToken(ctx, p.params, callbackURL)
	if err != nil {
		err = p.mapError(fmt.Errorf("core: request token fetch failed: %w", err))
		return OAuthToken{}, err
	}
	if strings.TrimSpace(token.Value) == "" {
		err = p.mapError(fmt.Errorf("core: request token response is missing the token value"))
		return OAuthToken{}, err
	}
	return token, nil
}

// BuildAuthorizeURL expands the provider's authorize template with the
// request token. Pure computation, safe to call anywhere.
func (p *Provider[S]) BuildAuthorizeURL(requestTokenValue string) string {
	if p == nil {
		return ""
	}
	return p.params.AuthorizeURL(requestTokenValue)
}

// Connect finishes the dance for the current account: exchanges the
// authorized request token for an access token, asks the provider who the
// token belongs to, and persists the connection in one step. Nothing is
// stored when any leg fails.
func (p *Provider[S]) Connect(ctx context.Context, authorized AuthorizedRequestToken) (connection AccountConnection, err error) {
	if p == nil {
		return AccountConnection{}, fmt.Errorf("core: provider is required")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider": p.params.Name,
	}
	defer func() {
		p.observeOperation(ctx, startedAt, "connect", err, fields)
	}()

	if err = authorized.Validate(); err != nil {
		err = p.mapError(err)
		return AccountConnection{}, err
	}
	if p.oauthFlow == nil {
		err = p.mapError(fmt.Errorf("core: oauth flow is required"))
		return AccountConnection{}, err
	}

	accountID, err := p.requireAccountID(ctx)
	if err != nil {
		err = p.mapError(err)
		return AccountConnection{}, err
	}
	fields["account_id"] = accountID

	accessToken, err := p.oauthFlow.ExchangeAccessToken(ctx, p.params, authorized)
	if err != nil {
		err = p.mapError(fmt.Errorf("core: access token exchange failed: %w", err))
		return AccountConnection{}, err
	}
	if strings.TrimSpace(accessToken.Value) == "" {
		err = p.mapError(fmt.Errorf("core: access token response is missing the token value"))
		return AccountConnection{}, err
	}

	connection, err = p.persistConnection(ctx, accountID, accessToken, "")
	if err != nil {
		err = p.mapError(err)
		return AccountConnection{}, err
	}
	return connection, nil
}

// AddConnection records a connection from an access token obtained out of
// band, for example one imported from another system. The provider account
// id is trusted as given; only the profile URL is derived.
func (p *Provider[S]) AddConnection(
	ctx context.Context,
	accessToken OAuthToken,
	providerAccountID string,
) (connection AccountConnection, err error) {
	if p == nil {
		return AccountConnection{}, fmt.Errorf("core: provider is required")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider": p.params.Name,
	}
	defer func() {
		p.observeOperation(ctx, startedAt, "add_connection", err, fields)
	}()

	if accessToken.IsZero() {
		err = p.mapError(fmt.Errorf("core: access token is required"))
		return AccountConnection{}, err
	}
	providerAccountID = strings.TrimSpace(providerAccountID)
	if providerAccountID == "" {
		err = p.mapError(fmt.Errorf("core: provider account id is required"))
		return AccountConnection{}, err
	}

	accountID, err := p.requireAccountID(ctx)
	if err != nil {
		err = p.mapError(err)
		return AccountConnection{}, err
	}
	fields["account_id"] = accountID

	connection, err = p.persistConnection(ctx, accountID, accessToken, providerAccountID)
	if err != nil {
		err = p.mapError(err)
		return AccountConnection{}, err
	}
	return connection, nil
}

// persistConnection builds the authenticated service operations, resolves
// the provider-side identity when not already known, and upserts the single
// connection row for (account, provider).
func (p *Provider[S]) persistConnection(
	ctx context.Context,
	accountID string,
	accessToken OAuthToken,
	providerAccountID string,
) (AccountConnection, error) {
	if p.repository == nil {
		return AccountConnection{}, fmt.Errorf("core: connection repository is required")
	}

	ops, err := p.source.BuildServiceOperations(ctx, SomeToken(accessToken))
	if err != nil {
		return AccountConnection{}, fmt.Errorf("core: service operations build failed: %w", err)
	}
	if providerAccountID == "" {
		providerAccountID, err = p.source.FetchProviderAccountID(ctx, ops)
		if err != nil {
			return AccountConnection{}, fmt.Errorf("core: provider account id lookup failed: %w", err)
		}
		providerAccountID = strings.TrimSpace(providerAccountID)
		if providerAccountID == "" {
			return AccountConnection{}, fmt.Errorf("core: provider account id lookup returned an empty id")
		}
	}
	profileURL := strings.TrimSpace(p.source.ProfileURL(providerAccountID, ops))

	connection, err := p.repository.AddConnection(ctx, AddConnectionInput{
		AccountID:         accountID,
		ProviderName:      p.params.Name,
		AccessToken:       accessToken,
		ProviderAccountID: providerAccountID,
		ProfileURL:        profileURL,
	})
	if err != nil {
		return AccountConnection{}, fmt.Errorf("core: connection repository add failed: %w", err)
	}
	return connection, nil
}

// Disconnect removes the current account's connection to this provider.
// Removing an absent connection is not an error.
func (p *Provider[S]) Disconnect(ctx context.Context) (err error) {
	if p == nil {
		return fmt.Errorf("core: provider is required")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider": p.params.Name,
	}
	defer func() {
		p.observeOperation(ctx, startedAt, "disconnect", err, fields)
	}()

	if p.repository == nil {
		err = p.mapError(fmt.Errorf("core: connection repository is required"))
		return err
	}
	accountID, err := p.requireAccountID(ctx)
	if err != nil {
		err = p.mapError(err)
		return err
	}
	fields["account_id"] = accountID

	if err = p.repository.Disconnect(ctx, accountID, p.params.Name); err != nil {
		err = p.mapError(fmt.Errorf("core: connection repository disconnect failed: %w", err))
		return err
	}
	return nil
}

// IsConnected reports whether the current account holds a connection to this
// provider. An unresolved account is simply not connected.
func (p *Provider[S]) IsConnected(ctx context.Context) (connected bool, err error) {
	if p == nil {
		return false, fmt.Errorf("core: provider is required")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider": p.params.Name,
	}
	defer func() {
		p.observeOperation(ctx, startedAt, "is_connected", err, fields)
	}()

	if p.repository == nil {
		err = p.mapError(fmt.Errorf("core: connection repository is required"))
		return false, err
	}
	accountID, ok, err := p.resolveAccountID(ctx)
	if err != nil {
		err = p.mapError(err)
		return false, err
	}
	if !ok {
		return false, nil
	}
	fields["account_id"] = accountID

	connected, err = p.repository.IsConnected(ctx, accountID, p.params.Name)
	if err != nil {
		err = p.mapError(fmt.Errorf("core: connection repository lookup failed: %w", err))
		return false, err
	}
	return connected, nil
}

// Connections lists the current account's connections to this provider. An
// unresolved account yields an empty list.
func (p *Provider[S]) Connections(ctx context.Context) (connections []AccountConnection, err error) {
	if p == nil {
		return nil, fmt.Errorf("core: provider is required")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider": p.params.Name,
	}
	defer func() {
		p.observeOperation(ctx, startedAt, "connections_list", err, fields)
	}()

	if p.repository == nil {
		err = p.mapError(fmt.Errorf("core: connection repository is required"))
		return nil, err
	}
	accountID, ok, err := p.resolveAccountID(ctx)
	if err != nil {
		err = p.mapError(err)
		return nil, err
	}
	if !ok {
		return []AccountConnection{}, nil
	}
	fields["account_id"] = accountID

	connections, err = p.repository.GetAccountConnections(ctx, accountID, p.params.Name)
	if err != nil {
		err = p.mapError(fmt.Errorf("core: connection repository lookup failed: %w", err))
		return nil, err
	}
	if connections == nil {
		connections = []AccountConnection{}
	}
	return connections, nil
}

// ProviderAccountID returns the provider-side identity for the current
// account. ok=false covers both an unresolved account and an account with no
// connection.
func (p *Provider[S]) ProviderAccountID(ctx context.Context) (providerAccountID string, ok bool, err error) {
	if p == nil {
		return "", false, fmt.Errorf("core: provider is required")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider": p.params.Name,
	}
	defer func() {
		p.observeOperation(ctx, startedAt, "provider_account_id", err, fields)
	}()

	if p.repository == nil {
		err = p.mapError(fmt.Errorf("core: connection repository is required"))
		return "", false, err
	}
	accountID, resolved, err := p.resolveAccountID(ctx)
	if err != nil {
		err = p.mapError(err)
		return "", false, err
	}
	if !resolved {
		return "", false, nil
	}
	fields["account_id"] = accountID

	providerAccountID, ok, err = p.repository.GetProviderAccountID(ctx, accountID, p.params.Name)
	if err != nil {
		err = p.mapError(fmt.Errorf("core: connection repository lookup failed: %w", err))
		return "", false, err
	}
	return providerAccountID, ok, nil
}

// ServiceOperations builds the service API for the current caller. The
// stored token is read and the client constructed inside one transaction so
// a concurrent disconnect cannot hand back a half-authenticated client. An
// unresolved or unconnected account gets the anonymous client.
func (p *Provider[S]) ServiceOperations(ctx context.Context) (ops S, err error) {
	var zero S
	if p == nil {
		return zero, fmt.Errorf("core: provider is required")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider": p.params.Name,
	}
	defer func() {
		p.observeOperation(ctx, startedAt, "service_operations", err, fields)
	}()

	accountID, resolved, err := p.resolveAccountID(ctx)
	if err != nil {
		err = p.mapError(err)
		return zero, err
	}
	if !resolved || p.repository == nil {
		ops, err = p.source.BuildServiceOperations(ctx, NoToken())
		if err != nil {
			err = p.mapError(fmt.Errorf("core: service operations build failed: %w", err))
			return zero, err
		}
		return ops, nil
	}
	fields["account_id"] = accountID

	runner := p.txRunner
	if runner == nil {
		runner = PassthroughTransactionRunner{}
	}
	err = runner.RunInTransaction(ctx, func(txCtx context.Context) error {
		token, found, lookupErr := p.repository.GetAccessToken(txCtx, accountID, p.params.Name)
		if lookupErr != nil {
			return fmt.Errorf("core: connection repository lookup failed: %w", lookupErr)
		}
		optional := NoToken()
		if found {
			optional = SomeToken(token)
		}
		built, buildErr := p.source.BuildServiceOperations(txCtx, optional)
		if buildErr != nil {
			return fmt.Errorf("core: service operations build failed: %w", buildErr)
		}
		ops = built
		return nil
	})
	if err != nil {
		err = p.mapError(err)
		return zero, err
	}
	return ops, nil
}

// ServiceOperationsWithToken builds the service API for an explicit token,
// skipping account resolution and storage entirely.
func (p *Provider[S]) ServiceOperationsWithToken(ctx context.Context, accessToken OAuthToken) (ops S, err error) {
	var zero S
	if p == nil {
		return zero, fmt.Errorf("core: provider is required")
	}
	startedAt := time.Now().UTC()
	fields := map[string]any{
		"provider": p.params.Name,
	}
	defer func() {
		p.observeOperation(ctx, startedAt, "service_operations_with_token", err, fields)
	}()

	if accessToken.IsZero() {
		err = p.mapError(fmt.Errorf("core: access token is required"))
		return zero, err
	}
	ops, err = p.source.BuildServiceOperations(ctx, SomeToken(accessToken))
	if err != nil {
		err = p.mapError(fmt.Errorf("core: service operations build failed: %w", err))
		return zero, err
	}
	return ops, nil
}

func (p *Provider[S]) resolveAccountID(ctx context.Context) (string, bool, error) {
	if p.accountResolver == nil {
		return "", false, nil
	}
	accountID, ok, err := p.accountResolver.ResolveAccountID(ctx)
	if err != nil {
		return "", false, fmt.Errorf("core: account resolution failed: %w", err)
	}
	accountID = strings.TrimSpace(accountID)
	if !ok || accountID == "" {
		return "", false, nil
	}
	return accountID, true, nil
}

func (p *Provider[S]) requireAccountID(ctx context.Context) (string, error) {
	accountID, ok, err := p.resolveAccountID(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", fmt.Errorf("%w for provider %s", ErrAccountNotResolved, p.params.Name)
	}
	return accountID, nil
}

func (p *Provider[S]) mapError(err error) error {
	if err == nil {
		return nil
	}
	if p == nil || p.errorMapper == nil {
		return err
	}
	mapped := p.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}
