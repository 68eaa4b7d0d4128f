package identity

import (
	"context"
	"strings"

	"github.com/goliatone/go-connect/core"
)

type contextKey struct{}

var accountIDKey contextKey

// WithAccountID stamps the signed-in account id onto the context so the
// ContextResolver can recover it downstream.
func WithAccountID(ctx context.Context, accountID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	trimmed := strings.TrimSpace(accountID)
	if trimmed == "" {
		return ctx
	}
	return context.WithValue(ctx, accountIDKey, trimmed)
}

// AccountIDFromContext reports the account id previously stamped with
// WithAccountID, if any.
func AccountIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	accountID, ok := ctx.Value(accountIDKey).(string)
	if !ok || strings.TrimSpace(accountID) == "" {
		return "", false
	}
	return accountID, true
}

// ContextResolver resolves the current account from the request context.
type ContextResolver struct{}

func (ContextResolver) ResolveAccountID(ctx context.Context) (string, bool, error) {
	accountID, ok := AccountIDFromContext(ctx)
	return accountID, ok, nil
}

// StaticResolver always reports the same account. Useful for single-tenant
// deployments and tests.
type StaticResolver struct {
	AccountID string
}

func (r StaticResolver) ResolveAccountID(_ context.Context) (string, bool, error) {
	trimmed := strings.TrimSpace(r.AccountID)
	if trimmed == "" {
		return "", false, nil
	}
	return trimmed, true, nil
}

// ResolverFunc adapts a function to the resolver contract.
type ResolverFunc func(ctx context.Context) (string, bool, error)

func (f ResolverFunc) ResolveAccountID(ctx context.Context) (string, bool, error) {
	if f == nil {
		return "", false, nil
	}
	return f(ctx)
}

// ChainResolver consults each resolver in order and reports the first
// resolved account. Resolver errors stop the chain.
type ChainResolver struct {
	Resolvers []core.AccountIDResolver
}

func NewChainResolver(resolvers ...core.AccountIDResolver) *ChainResolver {
	kept := make([]core.AccountIDResolver, 0, len(resolvers))
	for _, resolver := range resolvers {
		if resolver == nil {
			continue
		}
		kept = append(kept, resolver)
	}
	return &ChainResolver{Resolvers: kept}
}

func (r *ChainResolver) ResolveAccountID(ctx context.Context) (string, bool, error) {
	if r == nil {
		return "", false, nil
	}
	for _, resolver := range r.Resolvers {
		if resolver == nil {
			continue
		}
		accountID, ok, err := resolver.ResolveAccountID(ctx)
		if err != nil {
			return "", false, err
		}
		if ok && strings.TrimSpace(accountID) != "" {
			return accountID, true, nil
		}
	}
	return "", false, nil
}

var (
	_ core.AccountIDResolver = ContextResolver{}
	_ core.AccountIDResolver = StaticResolver{}
	_ core.AccountIDResolver = ResolverFunc(nil)
	_ core.AccountIDResolver = (*ChainResolver)(nil)
)
