package connect

import "github.com/goliatone/go-connect/core"

type Config = core.Config

type OAuthConfig = core.OAuthConfig

type Option = core.Option

type Provider[S any] = core.Provider[S]

type ProviderParameters = core.ProviderParameters
type ProviderDependencies = core.ProviderDependencies

type OAuthToken = core.OAuthToken
type OptionalToken = core.OptionalToken
type AuthorizedRequestToken = core.AuthorizedRequestToken
type AccountConnection = core.AccountConnection
type AddConnectionInput = core.AddConnectionInput

type OAuthFlow = core.OAuthFlow
type ConnectionRepository = core.ConnectionRepository
type AccountIDResolver = core.AccountIDResolver
type ServiceSource[S any] = core.ServiceSource[S]
type TransactionRunner = core.TransactionRunner
type Signer = core.Signer
type SecretProvider = core.SecretProvider
type MetricsRecorder = core.MetricsRecorder

var (
	WithLogger               = core.WithLogger
	WithLoggerProvider       = core.WithLoggerProvider
	WithMetricsRecorder      = core.WithMetricsRecorder
	WithErrorFactory         = core.WithErrorFactory
	WithErrorMapper          = core.WithErrorMapper
	WithSecretProvider       = core.WithSecretProvider
	WithPersistenceClient    = core.WithPersistenceClient
	WithRepositoryFactory    = core.WithRepositoryFactory
	WithConfigProvider       = core.WithConfigProvider
	WithOptionsResolver      = core.WithOptionsResolver
	WithOAuthFlow            = core.WithOAuthFlow
	WithConnectionRepository = core.WithConnectionRepository
	WithAccountIDResolver    = core.WithAccountIDResolver
	WithTransactionRunner    = core.WithTransactionRunner
	WithSigner               = core.WithSigner
)

var (
	SomeToken = core.SomeToken
	NoToken   = core.NoToken
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

// NewProvider builds a connect provider for one OAuth 1.0a service. See the
// providers subpackages for pre-wired constructors.
func NewProvider[S any](cfg Config, params ProviderParameters, source ServiceSource[S], opts ...Option) (*Provider[S], error) {
	return core.NewProvider[S](cfg, params, source, opts...)
}
