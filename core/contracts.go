package core

import (
	"context"
	"net/http"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// OAuthFlow performs the two network legs of the OAuth 1.0a dance. It is the
// only collaborator that talks to the provider's token endpoints.
type OAuthFlow interface {
	FetchRequestToken(ctx context.Context, params ProviderParameters, callbackURL string) (OAuthToken, error)
	ExchangeAccessToken(ctx context.Context, params ProviderParameters, authorized AuthorizedRequestToken) (OAuthToken, error)
}

type AddConnectionInput struct {
	AccountID         string
	ProviderName      string
	AccessToken       OAuthToken
	ProviderAccountID string
	ProfileURL        string
}

// ConnectionRepository persists account connections. Implementations must
// keep at most one row per (account id, provider name) pair.
type ConnectionRepository interface {
	AddConnection(ctx context.Context, input AddConnectionInput) (AccountConnection, error)
	IsConnected(ctx context.Context, accountID string, providerName string) (bool, error)
	Disconnect(ctx context.Context, accountID string, providerName string) error
	GetAccessToken(ctx context.Context, accountID string, providerName string) (OAuthToken, bool, error)
	GetAccountConnections(ctx context.Context, accountID string, providerName string) ([]AccountConnection, error)
	GetProviderAccountID(ctx context.Context, accountID string, providerName string) (string, bool, error)
}

// AccountIDResolver yields the local account for the current call, usually
// from the request context. ok=false means no account without it being an
// error; callers decide whether anonymity is acceptable.
type AccountIDResolver interface {
	ResolveAccountID(ctx context.Context) (string, bool, error)
}

// ServiceSource builds the provider-specific service API for a token (or the
// anonymous client for NoToken) and answers the two provider-side questions
// the connect flow needs.
type ServiceSource[S any] interface {
	BuildServiceOperations(ctx context.Context, token OptionalToken) (S, error)
	FetchProviderAccountID(ctx context.Context, ops S) (string, error)
	ProfileURL(providerAccountID string, ops S) string
}

// TransactionRunner scopes a unit of work. Repository implementations backed
// by a database run fn inside a real transaction; PassthroughTransactionRunner
// is for repositories that have nothing to make atomic.
type TransactionRunner interface {
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type PassthroughTransactionRunner struct{}

func (PassthroughTransactionRunner) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if fn == nil {
		return nil
	}
	return fn(ctx)
}

// Signer applies protocol authentication to an outbound provider request.
type Signer interface {
	Sign(ctx context.Context, req *http.Request, params ProviderParameters, token OAuthToken) error
}

type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type RepositoryProvider interface {
	ConnectionRepository() ConnectionRepository
}

type RepositoryBuildFactory interface {
	BuildRepository(persistenceClient any) (RepositoryProvider, error)
}
