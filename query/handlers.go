package query

import (
	"context"

	"github.com/goliatone/go-connect/core"
)

// ConnectionReader is the provider read surface the query handlers dispatch
// to. Provider instances satisfy it regardless of their service operations
// type.
type ConnectionReader interface {
	IsConnected(ctx context.Context) (bool, error)
	Connections(ctx context.Context) ([]core.AccountConnection, error)
	ProviderAccountID(ctx context.Context) (string, bool, error)
}

// ProviderAccountRef reports the provider-side account pinned to the current
// connection. Found is false when the account is unresolved or unconnected.
type ProviderAccountRef struct {
	ProviderAccountID string
	Found             bool
}

type IsConnectedQuery struct {
	reader ConnectionReader
}

func NewIsConnectedQuery(reader ConnectionReader) *IsConnectedQuery {
	return &IsConnectedQuery{reader: reader}
}

func (q *IsConnectedQuery) Query(ctx context.Context, _ IsConnectedMessage) (bool, error) {
	if q == nil || q.reader == nil {
		return false, queryDependencyError("query: connection reader is required")
	}
	return q.reader.IsConnected(ctx)
}

type ListConnectionsQuery struct {
	reader ConnectionReader
}

func NewListConnectionsQuery(reader ConnectionReader) *ListConnectionsQuery {
	return &ListConnectionsQuery{reader: reader}
}

func (q *ListConnectionsQuery) Query(ctx context.Context, _ ListConnectionsMessage) ([]core.AccountConnection, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: connection reader is required")
	}
	return q.reader.Connections(ctx)
}

type GetProviderAccountIDQuery struct {
	reader ConnectionReader
}

func NewGetProviderAccountIDQuery(reader ConnectionReader) *GetProviderAccountIDQuery {
	return &GetProviderAccountIDQuery{reader: reader}
}

func (q *GetProviderAccountIDQuery) Query(ctx context.Context, _ GetProviderAccountIDMessage) (ProviderAccountRef, error) {
	if q == nil || q.reader == nil {
		return ProviderAccountRef{}, queryDependencyError("query: connection reader is required")
	}
	providerAccountID, found, err := q.reader.ProviderAccountID(ctx)
	if err != nil {
		return ProviderAccountRef{}, err
	}
	return ProviderAccountRef{ProviderAccountID: providerAccountID, Found: found}, nil
}
